package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/config"
	"github.com/stemsi/rollbook/internal/handler"
	"github.com/stemsi/rollbook/internal/metrics"
	"github.com/stemsi/rollbook/internal/middleware"
	"github.com/stemsi/rollbook/internal/response"
	"github.com/stemsi/rollbook/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Student    *handler.StudentHandler
	Attendance *handler.AttendanceHandler
	Dashboard  *handler.DashboardHandler
	WS         *handler.WSHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	m *metrics.Metrics,
	authLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so every response and log line carries it.
	router.Use(response.RequestIDMiddleware(log))
	router.Use(m.Middleware())
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(middleware.NoStore())
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/google", authLimiter.Middleware(), handlers.Auth.Google)

		auth.POST("/logout", middleware.RequireTeacherJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireTeacherJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Teacher API (JWT + live session) ───────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireTeacherJWT(authService), middleware.NoStore())
	{
		api.GET("/students", handlers.Student.List)
		api.GET("/students/state", handlers.Student.State)
		api.POST("/students", handlers.Student.Create)
		api.PATCH("/students/:id", handlers.Student.Update)
		api.DELETE("/students/:id", handlers.Student.Delete)

		api.GET("/attendance", handlers.Attendance.Sheet)
		api.PUT("/attendance", handlers.Attendance.Save)

		api.GET("/dashboard", handlers.Dashboard.GetDashboard)
	}

	// ─── 3. WebSocket Group (Teacher WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireTeacherWSAuth(authService))
	{
		ws.GET("/roster", handlers.WS.RosterStream)
		ws.GET("/attendance", handlers.WS.AttendanceSession)
	}

	return router
}
