package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/hi-deen/PharmaTrack/internal/auth"
	"github.com/hi-deen/PharmaTrack/internal/config"
	"github.com/hi-deen/PharmaTrack/internal/http/handlers"
	"github.com/hi-deen/PharmaTrack/internal/http/middleware"
	"github.com/hi-deen/PharmaTrack/internal/models"
	"github.com/hi-deen/PharmaTrack/internal/realtime"
	"github.com/hi-deen/PharmaTrack/internal/services"
)

type Dependencies struct {
	Config            *config.Config
	AuthService       *services.AuthService
	DepartmentService *services.DepartmentService
	ActivityService   *services.ActivityService
	Tokens            *auth.TokenManager
	Hub               *realtime.Hub
	Logger            *slog.Logger
	GlobalRateLimiter *middleware.RateLimiter
	AuthRateLimiter   *middleware.RateLimiter
}

func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(deps.Config.AllowedOrigins))

	authHandler := handlers.NewAuthHandler(deps.AuthService)
	mfaHandler := handlers.NewMFAHandler(deps.AuthService)
	meHandler := handlers.NewMeHandler(deps.AuthService)
	deptHandler := handlers.NewDepartmentHandler(deps.DepartmentService)
	activityHandler := handlers.NewActivityHandler(deps.ActivityService)
	eventsHandler := handlers.NewEventsHandler(deps.Hub)

	router.GET("/health", handlers.Health)

	api := router.Group("/api")
	api.Use(deps.GlobalRateLimiter.Middleware())

	authGroup := api.Group("/auth")
	{
		// Credential-bearing endpoints sit behind the stricter limiter
		// on top of the global one.
		limited := authGroup.Group("")
		limited.Use(deps.AuthRateLimiter.Middleware())
		limited.POST("/register", authHandler.Register)
		limited.POST("/login", authHandler.Login)
		limited.POST("/verify-2fa", authHandler.Verify2FA)
		limited.POST("/password-reset/request", authHandler.RequestPasswordReset)
		limited.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)
		limited.POST("/otp/request", authHandler.RequestOTP)
		limited.POST("/otp/verify", authHandler.VerifyOTP)

		// Enrollment may start from a partial token so a user forced into
		// MFA at login can finish setting it up.
		enroll := authGroup.Group("/2fa")
		enroll.Use(middleware.RequireAuthAllowPartial(deps.Tokens))
		enroll.POST("/setup", mfaHandler.Setup)
		enroll.POST("/verify", mfaHandler.Confirm)

		full := authGroup.Group("")
		full.Use(middleware.RequireAuth(deps.Tokens))
		full.POST("/2fa/disable", mfaHandler.Disable)
		full.GET("/me", meHandler.GetMe)
	}

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(deps.Tokens))
	{
		protected.GET("/departments", deptHandler.List)
		protected.POST("/departments", middleware.RequireRole(models.RoleAdmin, models.RoleStaff), deptHandler.Create)

		protected.GET("/activities", activityHandler.List)
		protected.POST("/activities", middleware.RequireRole(models.RoleAdmin, models.RoleStaff), activityHandler.Create)

		protected.GET("/events", eventsHandler.Stream)
	}

	return router
}
