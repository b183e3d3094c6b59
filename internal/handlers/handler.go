package handlers

import (
	"predictive_maintenance/internal/logger"
	"predictive_maintenance/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
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
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// snapshot stream, same port; carries recipients so it needs a token
	router.GET("/ws", h.wsAuthMiddleware, h.wsConnect)

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
		api.GET("/schema", h.getSchema)
		h.registerAnalysisRoutes(api)
		api.GET("/workshops", h.getWorkshops)
		h.registerLogRoutes(api)
	}
}

func (h *Handler) registerAnalysisRoutes(api *gin.RouterGroup) {
	analysis := api.Group("/analysis")
	{
		// Body example: {"telemetry":{"engine_temp":92.5},"phone":"+998901234567"}
		analysis.POST("", h.analyze)
		analysis.GET("", h.getAnalysis)
		analysis.POST("/insights", h.refreshInsights)
		analysis.GET("/report", h.downloadReport)
		analysis.POST("/report/upload", h.retryUpload)
		analysis.POST("/email", h.sendEmail)
		analysis.POST("/sms", h.sendSms)
		analysis.POST("/chat/init", h.initChat)
		analysis.POST("/chat", h.chat)
		analysis.DELETE("/notices/:id", h.dismissNotice)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
