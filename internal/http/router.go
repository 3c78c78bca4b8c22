package httpserver

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cmdgate/internal/admin"
	"cmdgate/internal/auth"
	"cmdgate/internal/gateway"
	"cmdgate/internal/http/handlers"
	"cmdgate/internal/ratelimit"
	"cmdgate/internal/store"
)

type RouterConfig struct {
	JWTSecret    string
	SubmitLimit  int
	SubmitWindow time.Duration
}

func NewRouter(st store.Store, limiter ratelimit.Limiter, cfg RouterConfig) *gin.Engine {
	r := gin.Default()

	gw := gateway.NewService(st)
	adm := admin.NewService(st)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "command-gateway"})
	})

	// Public routes
	r.POST("/api/v1/auth/login", handlers.LoginHandler(st, cfg.JWTSecret))

	authMW := auth.Identity(st, cfg.JWTSecret)

	api := r.Group("/api/v1", authMW)
	{
		// Current user info & balance
		api.GET("/me", handlers.MeHandler())
		api.GET("/credits", handlers.CreditsHandler(adm))

		// Commands
		api.POST("/commands", throttle(limiter, cfg.SubmitLimit, cfg.SubmitWindow), handlers.SubmitCommand(gw))
		api.GET("/commands", handlers.ListMyCommands(adm))
		api.GET("/commands/recent", handlers.RecentCommands(adm))

		// Rules are readable by every authenticated user
		api.GET("/rules", handlers.ListRules(adm))

		// Admin-only operations; the role gate runs before any state is
		// read or mutated.
		admins := api.Group("", auth.RequireAdmin())
		{
			admins.POST("/rules", handlers.CreateRule(adm))
			admins.DELETE("/rules/:id", handlers.DeleteRule(adm))

			admins.POST("/users", handlers.CreateUser(adm))
			admins.GET("/users", handlers.ListUsers(adm))
			admins.PUT("/users/:id/credits", handlers.AdjustCredits(adm))

			admins.GET("/commands/all", handlers.ListAllCommands(adm))

			// Audit Trail
			admins.GET("/audit", handlers.ListAudit(adm))
			admins.GET("/audit/export", handlers.ExportAudit(adm))
		}
	}

	return r
}

// throttle caps submission traffic per identity. The limiter failing is
// not a reason to block traffic; it logs and lets the request through.
func throttle(limiter ratelimit.Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		if user == nil {
			c.Next()
			return
		}
		d, err := limiter.Allow(c.Request.Context(), fmt.Sprintf("submit:%d", user.ID), limit, window)
		if err != nil {
			log.Printf("rate limiter error for user %d: %v", user.ID, err)
			c.Next()
			return
		}
		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(time.Until(d.ResetAt).Seconds())+1))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "submission rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
