package handlers

import (
	"time"

	"incubator_monitor/internal/changefeed"
	"incubator_monitor/internal/logger"
	"incubator_monitor/internal/metrics"
	"incubator_monitor/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Polling intervals of the live views.
type Polling struct {
	Devices  time.Duration
	AlertLog time.Duration
	Online   time.Duration
}

var defaultPolling = Polling{
	Devices:  15 * time.Second,
	AlertLog: 20 * time.Second,
	Online:   30 * time.Second,
}

// Options carries the optional collaborators of the HTTP layer. Zero values are valid.
type Options struct {
	Hub     *changefeed.Hub
	Metrics *metrics.Metrics
	Polling Polling
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	hub      *changefeed.Hub
	metrics  *metrics.Metrics
	polling  Polling
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	if opts.Hub == nil {
		opts.Hub = changefeed.NewHub(nil)
	}
	p := opts.Polling
	if p.Devices <= 0 {
		p.Devices = defaultPolling.Devices
	}
	if p.AlertLog <= 0 {
		p.AlertLog = defaultPolling.AlertLog
	}
	if p.Online <= 0 {
		p.Online = defaultPolling.Online
	}
	return &Handler{services: services, log: log, hub: opts.Hub, metrics: opts.Metrics, polling: p}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.metrics.Middleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)
	h.registerLiveRoutes(router)

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
		api.GET("/animals", h.listAnimals)
		h.registerDeviceRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	devices.GET("", h.listDevices)
	// Body example: {"device_id":"inc-01","name":"Shed","location":"Barn"}
	devices.POST("", h.addDevice)

	device := devices.Group("/:id", h.deviceAccessMiddleware)
	{
		device.GET("", h.getDevice)
		device.DELETE("", h.removeDevice)
		device.PATCH("/state", h.patchState)

		device.GET("/chart", h.getChart)
		device.GET("/daily", h.getDaily)
		device.GET("/daily.xlsx", h.exportDaily)

		device.GET("/alerts", h.listAlerts)
		device.POST("/alerts/evaluate", h.evaluateAlerts)
		// Body: {"confirmation":"DELETE"}
		device.POST("/alerts/clear", h.clearAlerts)
		// Body: {"slider":100}
		device.POST("/wipe", h.wipeDevice)

		device.GET("/cycles", h.listCycles)
		device.POST("/cycles", h.startCycle)
		device.POST("/cycles/:cycleId/end", h.endCycle)
		device.DELETE("/cycles/:cycleId", h.deleteCycle)
	}
}

func (h *Handler) registerLiveRoutes(r *gin.Engine) {
	ws := r.Group("/ws", h.wsAuthMiddleware)
	{
		ws.GET("/dashboard", h.wsDashboard)
		ws.GET("/devices/:id", h.wsDevice)
	}
}
