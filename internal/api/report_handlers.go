package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/recurrence"
	"github.com/mdung/RentMaster-sub002/internal/scheduler"
)

func (s *Server) listReportSchedules(c *gin.Context) {
	scheds, err := s.store.ListReportSchedules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, scheds)
}

func (s *Server) getReportSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	sched, err := s.store.GetReportSchedule(id)
	if err != nil {
		abortWithSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (s *Server) createReportSchedule(c *gin.Context) {
	var sched models.ScheduledReportSchedule
	if err := c.ShouldBindJSON(&sched); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sched.ID = 0
	sched.Recurrence.LastOccurrence = nil
	sched.Recurrence.Active = true
	if sched.Format == "" {
		sched.Format = models.FormatHTML
	}

	if err := sched.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Report schedules that do not name a first run start at the next slot
	// the rule produces.
	if sched.Recurrence.NextOccurrence.IsZero() {
		next, err := recurrence.Next(sched.Recurrence, time.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sched.Recurrence.NextOccurrence = next
	}

	if err := s.store.CreateReportSchedule(&sched); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sched)
}

func (s *Server) updateReportSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payload models.ScheduledReportSchedule
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.Format == "" {
		payload.Format = models.FormatHTML
	}
	if err := payload.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref := models.ScheduleRef{Kind: models.KindReport, ID: id}
	updated, err := s.lifecycle.ApplyEdit(ref, func(sched scheduler.Schedule) error {
		rep := sched.(*models.ScheduledReportSchedule)
		rep.Name = payload.Name
		rep.ReportType = payload.ReportType
		rep.Recipients = payload.Recipients
		rep.Format = payload.Format
		rep.Filters = payload.Filters
		rule := rep.Rule()
		rule.Frequency = payload.Recurrence.Frequency
		rule.DayOfWeek = payload.Recurrence.DayOfWeek
		rule.DayOfMonth = payload.Recurrence.DayOfMonth
		rule.TimeOfDay = payload.Recurrence.TimeOfDay
		return nil
	})
	if err != nil {
		abortWithSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Server) deleteReportSchedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := s.store.Delete(models.ScheduleRef{Kind: models.KindReport, ID: id}); err != nil {
		abortWithSchedulerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "schedule deleted"})
}

func (s *Server) setReportScheduleActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		sched, err := s.lifecycle.SetActive(models.ScheduleRef{Kind: models.KindReport, ID: id}, active)
		if err != nil {
			abortWithSchedulerError(c, err)
			return
		}
		c.JSON(http.StatusOK, sched)
	}
}
