package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mdung/RentMaster-sub002/internal/auth"
	"github.com/mdung/RentMaster-sub002/internal/database"
	"github.com/mdung/RentMaster-sub002/internal/models"
	"github.com/mdung/RentMaster-sub002/internal/scheduler"
	"github.com/mdung/RentMaster-sub002/internal/store"
)

type Server struct {
	store       *store.Store
	coordinator *scheduler.Coordinator
	lifecycle   *scheduler.Lifecycle
	router      *gin.Engine
}

func NewServer(st *store.Store, coordinator *scheduler.Coordinator, lifecycle *scheduler.Lifecycle) *Server {
	server := &Server{
		store:       st,
		coordinator: coordinator,
		lifecycle:   lifecycle,
		router:      gin.Default(),
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Public routes
	s.router.POST("/api/v1/auth/login", s.login)

	// Protected routes (require authentication)
	api := s.router.Group("/api/v1")
	api.Use(auth.AuthMiddleware())

	manage := auth.RequireRole(models.RoleAdmin, models.RoleStaff)

	contracts := api.Group("/contracts")
	{
		contracts.GET("", s.listContracts)
		contracts.POST("", manage, s.createContract)
	}

	invoices := api.Group("/invoice-schedules")
	{
		invoices.GET("", s.listInvoiceSchedules)
		invoices.GET("/:id", s.getInvoiceSchedule)
		invoices.POST("", manage, s.createInvoiceSchedule)
		invoices.PUT("/:id", manage, s.updateInvoiceSchedule)
		invoices.DELETE("/:id", manage, s.deleteInvoiceSchedule)
		invoices.PUT("/:id/activate", manage, s.setInvoiceScheduleActive(true))
		invoices.PUT("/:id/deactivate", manage, s.setInvoiceScheduleActive(false))
		invoices.POST("/:id/generate", manage, s.generateNow(models.KindInvoice))
		invoices.GET("/:id/generations", s.listGenerations(models.KindInvoice))
	}

	reports := api.Group("/report-schedules")
	{
		reports.GET("", s.listReportSchedules)
		reports.GET("/:id", s.getReportSchedule)
		reports.POST("", manage, s.createReportSchedule)
		reports.PUT("/:id", manage, s.updateReportSchedule)
		reports.DELETE("/:id", manage, s.deleteReportSchedule)
		reports.PUT("/:id/activate", manage, s.setReportScheduleActive(true))
		reports.PUT("/:id/deactivate", manage, s.setReportScheduleActive(false))
		reports.POST("/:id/run", manage, s.generateNow(models.KindReport))
		reports.GET("/:id/generations", s.listGenerations(models.KindReport))
	}
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) login(c *gin.Context) {
	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.GetDB().Where("username = ?", loginReq.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.CheckPassword(loginReq.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) listContracts(c *gin.Context) {
	contracts, err := s.store.ListContracts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, contracts)
}

func (s *Server) createContract(c *gin.Context) {
	var contract models.Contract
	if err := c.ShouldBindJSON(&contract); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	contract.ID = 0
	if contract.TenantName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_name is required"})
		return
	}

	if err := s.store.CreateContract(&contract); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (s *Server) generateNow(kind models.ScheduleKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		rec, err := s.coordinator.TriggerNow(c.Request.Context(), models.ScheduleRef{Kind: kind, ID: id})
		if err != nil {
			abortWithSchedulerError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) listGenerations(kind models.ScheduleKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}

		limit := 50
		if l := c.Query("limit"); l != "" {
			if parsed, err := strconv.Atoi(l); err == nil {
				limit = parsed
			}
		}

		recs, err := s.store.ListGenerations(models.ScheduleRef{Kind: kind, ID: id}, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, recs)
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule ID"})
		return 0, false
	}
	return uint(id), true
}

func abortWithSchedulerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "schedule not found"})
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "schedule is already running"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
