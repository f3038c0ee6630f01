package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"loancrm/internal/handlers"
	"loancrm/internal/metrics"
	"loancrm/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	leadHandler *handlers.LeadHandler,
	verifyHandler *handlers.VerifyHandler,
	reportHandler *handlers.ReportHandler,
	employeeHandler *handlers.EmployeeHandler,
	integrationsHandler *handlers.IntegrationsHandler, // nil when no bot token is configured
) *gin.Engine {
	r.Use(metrics.Middleware())

	// ---- public
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if integrationsHandler != nil {
		r.POST("/integrations/telegram/webhook", integrationsHandler.Webhook)
	}

	// ---- protected
	api := r.Group("/", middleware.AuthMiddleware(jwtSecret))

	leads := api.Group("/leads")
	{
		leads.POST("", leadHandler.Create)
		leads.GET("/unassigned", leadHandler.Unassigned)
		leads.GET("/assigned", leadHandler.Assigned)

		leads.GET("/track", leadHandler.GetByTrack)
		leads.POST("/track/status", leadHandler.Transition)
		leads.GET("/track/history", leadHandler.History)

		leads.POST("/:id/claim", leadHandler.Claim)
		leads.POST("/:id/reassign", middleware.RequireAdmin(), leadHandler.Reassign)
		leads.POST("/:id/convert", leadHandler.Convert)
		leads.GET("/:id/customer", leadHandler.Customer)

		leads.POST("/:id/verification", verifyHandler.Send)
		leads.POST("/:id/verification/confirm", verifyHandler.Confirm)
		leads.GET("/:id/verification", verifyHandler.Status)
	}

	if integrationsHandler != nil {
		api.POST("/integrations/telegram/request-link", integrationsHandler.RequestTelegramLink)
	}

	api.GET("/employees", employeeHandler.List)
	api.GET("/reports/pipeline", reportHandler.Pipeline)

	return r
}
