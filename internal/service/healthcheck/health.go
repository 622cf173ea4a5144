package healthcheck

import (
	"net/http"

	"deskpulserest/internal/config"
	"deskpulserest/internal/models/dto"

	"github.com/gin-gonic/gin"
)

// Health - Healthcheck endpoint
// @Summary      Service health
// @Description  Reports the API status and the state of its backing services.
// @Tags         healthcheck
// @Produce      json
// @Success      200 {object} dto.HealthResponse "Service is healthy"
// @Router       /healthcheck/ [get]
func Health(cfg *config.App) gin.HandlerFunc {

	return func(c *gin.Context) {

		checks := map[string]string{}

		if cfg.Redis != nil {
			if err := cfg.Redis.Redis.Ping(c.Request.Context()).Err(); err != nil {
				checks["redis"] = "down"
			} else {
				checks["redis"] = "up"
			}
		}

		if cfg.ES != nil {
			if err := cfg.ES.Ping(); err != nil {
				checks["elasticsearch"] = "down"
			} else {
				checks["elasticsearch"] = "up"
			}
		}

		status := "OK"
		for _, state := range checks {
			if state != "up" {
				status = "DEGRADED"
			}
		}

		if cfg.Logger != nil {
			cfg.Logger.Info("Healthcheck endpoint hit", map[string]interface{}{"status": status})
		}

		c.JSON(http.StatusOK, dto.NewHealthResponse(c, status, "deskpulse-api", "1.0.0", checks))
	}
}
