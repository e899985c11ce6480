package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/riserecover/server/config"
	"github.com/riserecover/server/controllers"
	"github.com/riserecover/server/middleware"
	"github.com/riserecover/server/services"
	"github.com/riserecover/server/utils"
)

// Deps are the services the HTTP layer dispatches to.
type Deps struct {
	Accounts  *services.AccountService
	CheckIns  *services.CheckInService
	Recovery  *services.RecoveryService
	Chat      *services.ChatService
	Resources *services.ResourceService
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Request lines go to their own rolling file, away from the application log.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin logger unavailable, using default recovery: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	authController := controllers.NewAuthController(deps.Accounts)
	recoveryController := controllers.NewRecoveryController(deps.Accounts, deps.Recovery)
	checkInController := controllers.NewCheckInController(deps.CheckIns)
	chatController := controllers.NewChatController(deps.Chat, cfg.ChatPollInterval())
	gameController := controllers.NewGameController(deps.Accounts)
	configController := controllers.NewConfigController(deps.Resources)
	adminController := controllers.NewAdminController(deps.Accounts)

	api := r.Group("/api/v1")
	api.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authGroup := api.Group("/auth")
	authGroup.POST("/register", limiter.Middleware(), authController.Register)
	authGroup.POST("/login", limiter.Middleware(), authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public
	api.GET("/recovery/phases/:days", recoveryController.Phase)
	api.GET("/config/resources", configController.GetResources)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), limiter.Middleware())
	protected.GET("/me/profile", recoveryController.Profile)
	protected.PATCH("/me/quit-date", recoveryController.UpdateQuitDate)
	protected.GET("/recovery/dashboard", recoveryController.Dashboard)
	protected.GET("/recovery/timeline", recoveryController.Timeline)
	protected.GET("/recovery/achievements", recoveryController.Achievements)
	protected.GET("/recovery/analytics", recoveryController.Analytics)
	protected.POST("/checkins", checkInController.Submit)
	protected.GET("/checkins", checkInController.List)
	protected.GET("/chat/messages", chatController.List)
	protected.POST("/chat/messages", chatController.Send)
	protected.POST("/games/:game/reward", gameController.Reward)

	// The stream is long lived, so it sits outside the rate limiter.
	api.GET("/chat/stream", middleware.StreamAuthRequired(), chatController.Stream)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/users", adminController.ListUsers)
	admin.GET("/reports/cities", adminController.CityReport)
	admin.GET("/config", configController.GetResources)
	admin.PUT("/config", configController.SaveResources)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "api route not found")
	})

	return r
}
