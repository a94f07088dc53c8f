package handlers

import (
	"roaster_control/internal/logger"
	"roaster_control/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// WebSocket state stream per machine (HTTP upgrade) — same port
	router.GET("/ws/:machine", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerMachineRoutes(api)
		h.registerAutomationRoutes(api)
		h.registerAlarmRoutes(api)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerMachineRoutes(api *gin.RouterGroup) {
	machines := api.Group("/machines")
	{
		machines.GET("/", h.listMachines)
		machines.POST("/", h.addMachine)
		machines.DELETE("/:machine", h.removeMachine)
		machines.GET("/:machine/state", h.getState)
		// Body example: {"command":"START_RECORDING"}
		machines.POST("/:machine/session", h.sessionCommand)
		machines.POST("/:machine/milestone", h.markMilestone)
		// Body example: {"channel":"burner","value":65}
		machines.POST("/:machine/control", h.setControl)
	}
}

func (h *Handler) registerAutomationRoutes(api *gin.RouterGroup) {
	sched := api.Group("/machines/:machine/schedule")
	{
		sched.GET("/", h.getSchedule)
		sched.PUT("/", h.putSchedule)
		sched.POST("/start", h.startSchedule)
		sched.POST("/pause", h.pauseSchedule)
		sched.POST("/reset", h.resetSchedule)
		sched.POST("/import", h.importSchedule)
		sched.POST("/save", h.saveSchedule)
		sched.POST("/load/:id", h.loadSchedule)
		sched.GET("/stored", h.listStoredSchedules)
		sched.DELETE("/stored/:id", h.deleteStoredSchedule)
	}
}

func (h *Handler) registerAlarmRoutes(api *gin.RouterGroup) {
	alarms := api.Group("/machines/:machine/alarms")
	{
		alarms.GET("/", h.getAlarms)
		alarms.PUT("/", h.putAlarms)
		alarms.POST("/arm", h.armAlarms)
		alarms.POST("/disarm", h.disarmAlarms)
		alarms.POST("/reset", h.resetAlarms)
		alarms.POST("/silence", h.silenceAlarms)
		alarms.POST("/save", h.saveAlarmSet)
		alarms.POST("/load/:id", h.loadAlarmSet)
		alarms.GET("/stored", h.listStoredAlarmSets)
		alarms.DELETE("/stored/:id", h.deleteStoredAlarmSet)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
