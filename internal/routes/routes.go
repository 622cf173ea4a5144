package routes

import (
	_ "deskpulserest/docs"
	"deskpulserest/internal/config"
	"deskpulserest/internal/middleware"
	"deskpulserest/internal/service/healthcheck"
	"deskpulserest/internal/service/reports"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// InitiateRoutes is a function that initializes the routes for the application
func InitiateRoutes(engine *gin.Engine, cfg *config.App) {

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	healthGroup := engine.Group("/healthcheck")
	{
		healthGroup.GET("/", healthcheck.Health(cfg))
	}

	reportsGroup := engine.Group("/reports", middleware.Auth())
	{
		reportsGroup.POST("/tiers", reports.TierReport(cfg))
		reportsGroup.POST("/team", reports.TeamReport(cfg))
	}
}
