package reports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"deskpulserest/internal/config"
	"deskpulserest/internal/models/dto"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const cacheTTL = 10 * time.Minute

// TierReport returns per-tier KPI rollups for a reporting window
// @Summary      Tier KPI Report
// @Description  Aggregates case counts, SLA compliance, breach and escalation rates per support tier over a local-time reporting window. Failed sub-queries zero their metric and are listed in the errors field.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security 	 BearerAuth
// @Param        request body dto.ReportRequest true "Reporting window and scope"
// @Success      200 {object} dto.SuccessResponse{data=dto.AggregateReport} "Tier report built successfully"
// @Failure 	 400 {object} dto.ErrorResponse "Bad Request"
// @Failure 	 401 {object} dto.AuthErrorResponse "Unauthorized - Invalid token"
// @Failure 	 429 {object} dto.RateLimitErrorResponse "Rate limit exceeded"
// @Failure 	 500 {object} dto.ErrorResponse "Internal Server Error"
// @Router       /reports/tiers [post]
func TierReport(cfg *config.App) gin.HandlerFunc {
	builder := newBuilderFromConfig(cfg)

	return func(c *gin.Context) {
		req, ok := bindRequest(c)
		if !ok {
			return
		}

		key := cacheKey("tiers", req)
		if report, hit := lookupCache(c.Request.Context(), cfg, key); hit {
			c.JSON(http.StatusOK, dto.NewSuccessResponse(c, report, "Tier report served from cache"))
			return
		}

		report, err := builder.TierReport(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(c, http.StatusBadRequest,
				"Bad Request", "Failed to build tier report", err.Error()))
			return
		}

		storeCache(c.Request.Context(), cfg, key, report)

		c.JSON(http.StatusOK, dto.NewSuccessResponse(c, report, "Tier report built successfully"))
	}
}

// TeamReport returns per-member and combined team KPI rollups
// @Summary      Team KPI Report
// @Description  Aggregates owner-scoped KPIs for each team member and combines them into one team record. Team rates are recomputed from summed counts, never averaged from member rates.
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security 	 BearerAuth
// @Param        request body dto.ReportRequest true "Reporting window and scope"
// @Success      200 {object} dto.SuccessResponse{data=dto.AggregateReport} "Team report built successfully"
// @Failure 	 400 {object} dto.ErrorResponse "Bad Request"
// @Failure 	 401 {object} dto.AuthErrorResponse "Unauthorized - Invalid token"
// @Failure 	 429 {object} dto.RateLimitErrorResponse "Rate limit exceeded"
// @Failure 	 500 {object} dto.ErrorResponse "Internal Server Error"
// @Router       /reports/team [post]
func TeamReport(cfg *config.App) gin.HandlerFunc {
	builder := newBuilderFromConfig(cfg)

	return func(c *gin.Context) {
		req, ok := bindRequest(c)
		if !ok {
			return
		}

		key := cacheKey("team", req)
		if report, hit := lookupCache(c.Request.Context(), cfg, key); hit {
			c.JSON(http.StatusOK, dto.NewSuccessResponse(c, report, "Team report served from cache"))
			return
		}

		report, err := builder.TeamReport(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(c, http.StatusBadRequest,
				"Bad Request", "Failed to build team report", err.Error()))
			return
		}

		storeCache(c.Request.Context(), cfg, key, report)

		c.JSON(http.StatusOK, dto.NewSuccessResponse(c, report, "Team report built successfully"))
	}
}

func newBuilderFromConfig(cfg *config.App) *Builder {
	var progress func(label string)
	if cfg.Logger != nil {
		progress = func(label string) {
			cfg.Logger.Debug("running report query", map[string]interface{}{
				"component": "reports",
				"query":     label,
			})
		}
	}
	return NewBuilder(cfg.CaseAPI, cfg.Resolver, progress)
}

func bindRequest(c *gin.Context) (dto.ReportRequest, bool) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(c, http.StatusBadRequest,
			"Bad Request", "Invalid report request body", err.Error()))
		return req, false
	}
	return req, true
}

// cacheKey derives a stable key from the report kind and the full request.
func cacheKey(kind string, req dto.ReportRequest) string {
	payload, _ := json.Marshal(req)
	sum := sha256.Sum256(payload)
	return strings.Join([]string{"reports", kind, hex.EncodeToString(sum[:16])}, ":")
}

func lookupCache(ctx context.Context, cfg *config.App, key string) (dto.AggregateReport, bool) {
	var report dto.AggregateReport
	if cfg.Redis == nil {
		return report, false
	}

	raw, err := cfg.Redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return report, false
	}
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("report cache lookup failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return report, false
	}

	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return report, false
	}
	return report, true
}

func storeCache(ctx context.Context, cfg *config.App, key string, report dto.AggregateReport) {
	if cfg.Redis == nil {
		return
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := cfg.Redis.Set(ctx, key, payload, cacheTTL).Err(); err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Warn("report cache store failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
}
