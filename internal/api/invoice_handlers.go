package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/scheduler"
)

func (s *Server) listInvoiceSchedules(c *gin.Context) {
	scheds, err := s.store.ListInvoiceSchedules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, scheds)
}

func (s *Server) getInvoiceSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	sched, err := s.store.GetInvoiceSchedule(id)
	if err != nil {
		abortWithSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (s *Server) createInvoiceSchedule(c *gin.Context) {
	var sched models.RecurringInvoiceSchedule
	if err := c.ShouldBindJSON(&sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Runtime state is never caller-authored.
	sched.ID = 0
	sched.Recurrence.LastOccurrence = nil
	sched.Recurrence.Active = true
	sched.Template.NormalizeAmounts()

	if err := sched.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// Invoice schedules start from a caller-chosen first billing date.
	if sched.Recurrence.NextOccurrence.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "next_occurrence (first billing date) is required"})
		return
	}
	if _, err := s.store.GetContract(sched.ContractID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contract does not exist"})
		return
	}

	if err := s.store.CreateInvoiceSchedule(&sched); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sched)
}

func (s *Server) updateInvoiceSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payload models.RecurringInvoiceSchedule
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload.Template.NormalizeAmounts()
	if err := payload.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref := models.ScheduleRef{Kind: models.KindInvoice, ID: id}
	updated, err := s.lifecycle.ApplyEdit(ref, func(sched scheduler.Schedule) error {
		inv := sched.(*models.RecurringInvoiceSchedule)
		inv.ContractID = payload.ContractID
		inv.AutoSend = payload.AutoSend
		inv.Template = payload.Template
		rule := inv.Rule()
		rule.Frequency = payload.Recurrence.Frequency
		rule.DayOfWeek = payload.Recurrence.DayOfWeek
		rule.DayOfMonth = payload.Recurrence.DayOfMonth
		return nil
	})
	if err != nil {
		abortWithSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteInvoiceSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.store.Delete(models.ScheduleRef{Kind: models.KindInvoice, ID: id}); err != nil {
		abortWithSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}

func (s *Server) setInvoiceScheduleActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		sched, err := s.lifecycle.SetActive(models.ScheduleRef{Kind: models.KindInvoice, ID: id}, active)
		if err != nil {
			abortWithSchedulerError(c, err)
			return
		}
		c.JSON(http.StatusOK, sched)
	}
}
