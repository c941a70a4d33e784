package router

import (
	"fmt"
	"strings"

	"github.com/grocerly/groupbuy/internal/cache"
	"github.com/grocerly/groupbuy/internal/config"
	publichandlers "github.com/grocerly/groupbuy/internal/http/handlers/public"
	"github.com/grocerly/groupbuy/internal/logger"
	"github.com/grocerly/groupbuy/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires the HTTP routes.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "gb"
	}
	redisClient := cache.Client()
	actionRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:group_action", redisPrefix),
		WindowSeconds: cfg.Security.ActionRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ActionRateLimit.MaxAttempts,
		Message:       "too many group actions, slow down",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(MetricsMiddleware())
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// Public reads: no auth, shareable links land here.
		apiV1.GET("/groups/:code", publicHandler.GetGroup)
		apiV1.GET("/products/:product_id/groups", publicHandler.ListProductGroups)

		// Customer actions.
		authed := apiV1.Group("")
		authed.Use(CustomerJWTAuthMiddleware(cfg.CustomerJWT.SecretKey))
		{
			authed.POST("/groups",
				RateLimitMiddleware(redisClient, actionRule, KeyByCustomer),
				publicHandler.CreateGroup)
			authed.POST("/groups/:id/join",
				RateLimitMiddleware(redisClient, actionRule, KeyByCustomer),
				publicHandler.JoinGroup)
			authed.POST("/groups/:id/leave", publicHandler.LeaveGroup)
			authed.POST("/groups/:id/cancel", publicHandler.CancelGroup)
			authed.POST("/groups/:id/complete", publicHandler.CompleteGroup)
			authed.GET("/me/groups", publicHandler.ListMyGroups)
			authed.GET("/me/leader/stats", publicHandler.LeaderStats)
			authed.GET("/me/leader/rewards", publicHandler.LeaderRewards)
		}

		// Scheduler endpoints, shared-token guarded.
		cron := apiV1.Group("/cron")
		cron.Use(CronTokenMiddleware(cfg.Cron.Token))
		{
			cron.POST("/groups/process-expired", publicHandler.ProcessExpiredGroups)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
