package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Baaaki/yamdb/internal/config"
	"github.com/Baaaki/yamdb/internal/handler"
	"github.com/Baaaki/yamdb/internal/mail"
	"github.com/Baaaki/yamdb/internal/middleware"
	"github.com/Baaaki/yamdb/internal/policy"
	"github.com/Baaaki/yamdb/internal/repository"
	"github.com/Baaaki/yamdb/internal/service"
	"github.com/Baaaki/yamdb/internal/utils"
	"github.com/Baaaki/yamdb/internal/validators"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the HTTP API is built from.
type Dependencies struct {
	Config  *config.Config
	DB      *gorm.DB
	Keys    *utils.Keys
	Mailer  mail.Mailer
	Limiter middleware.Limiter // nil disables rate limiting
}

// NewRouter wires repositories, services and handlers into a gin engine
// serving /api/v1.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if err := validators.RegisterBindings(); err != nil {
		return nil, err
	}
	cfg := deps.Config

	// Repositories
	userRepo := repository.NewUserRepository(deps.DB)
	categoryRepo := repository.NewCategoryRepository(deps.DB)
	genreRepo := repository.NewGenreRepository(deps.DB)
	titleRepo := repository.NewTitleRepository(deps.DB)
	reviewRepo := repository.NewReviewRepository(deps.DB)
	commentRepo := repository.NewCommentRepository(deps.DB)

	// Services
	authService := service.NewAuthService(userRepo, deps.Mailer, deps.Keys, cfg.JWTExpiry, cfg.ConfirmationCodeTTL, cfg.MailFrom)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	genreService := service.NewGenreService(genreRepo)
	titleService := service.NewTitleService(titleRepo, genreRepo, categoryRepo)
	reviewService := service.NewReviewService(reviewRepo, titleRepo)
	commentService := service.NewCommentService(commentRepo, reviewService)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	genreHandler := handler.NewGenreHandler(genreService)
	titleHandler := handler.NewTitleHandler(titleService)
	reviewHandler := handler.NewReviewHandler(reviewService, commentService)

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoMethod(handler.MethodNotAllowed)
	router.NoRoute(handler.NotFound)

	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.SecurityHeadersMiddleware(),
		middleware.HSTSMiddleware(cfg.IsProduction()),
		cors.New(cors.Config{
			AllowOrigins:  cfg.CORSOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders: []string{"Retry-After"},
			MaxAge:        12 * time.Hour,
		}),
	)
	if cfg.MetricsEnabled {
		router.Use(middleware.Metrics())
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	router.GET("/healthz", healthz(deps.DB))

	v1 := router.Group("/api/v1")
	if deps.Limiter != nil {
		v1.Use(middleware.RateLimit(deps.Limiter))
	}
	v1.Use(middleware.AuthMiddleware(authService))

	auth := v1.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/token", authHandler.Token)
	}

	// /users/me is registered before the admin routes; the static segment
	// takes precedence over :username for every verb.
	me := v1.Group("/users/me", middleware.RequirePermission(policy.OwnerOnly))
	{
		me.GET("", userHandler.Me)
		me.PATCH("", userHandler.UpdateMe)
		me.PUT("", handler.MethodNotAllowed)
		me.POST("", handler.MethodNotAllowed)
		me.DELETE("", handler.MethodNotAllowed)
	}
	users := v1.Group("/users", middleware.RequirePermission(policy.AdminOnly))
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.GET("/:username", userHandler.Get)
		users.PATCH("/:username", userHandler.Update)
		users.DELETE("/:username", userHandler.Delete)
	}

	categories := v1.Group("/categories", middleware.RequirePermission(policy.AdminOrReadOnly))
	{
		categories.GET("", categoryHandler.List)
		categories.POST("", categoryHandler.Create)
		categories.DELETE("/:slug", categoryHandler.Delete)
	}
	genres := v1.Group("/genres", middleware.RequirePermission(policy.AdminOrReadOnly))
	{
		genres.GET("", genreHandler.List)
		genres.POST("", genreHandler.Create)
		genres.DELETE("/:slug", genreHandler.Delete)
	}

	titles := v1.Group("/titles", middleware.RequirePermission(policy.AdminOrReadOnly))
	{
		titles.GET("", titleHandler.List)
		titles.POST("", titleHandler.Create)
		titles.GET("/:title_id", titleHandler.Get)
		titles.PATCH("/:title_id", titleHandler.Update)
		titles.DELETE("/:title_id", titleHandler.Delete)
	}

	reviews := v1.Group("/titles/:title_id/reviews", middleware.RequirePermission(policy.OwnerModeratorAdminOrReadOnly))
	{
		reviews.GET("", reviewHandler.List)
		reviews.POST("", reviewHandler.Create)
		reviews.GET("/:review_id", reviewHandler.Get)
		reviews.PATCH("/:review_id", reviewHandler.Update)
		reviews.DELETE("/:review_id", reviewHandler.Delete)

		reviews.GET("/:review_id/comments", reviewHandler.ListComments)
		reviews.POST("/:review_id/comments", reviewHandler.CreateComment)
		reviews.GET("/:review_id/comments/:comment_id", reviewHandler.GetComment)
		reviews.PATCH("/:review_id/comments/:comment_id", reviewHandler.UpdateComment)
		reviews.DELETE("/:review_id/comments/:comment_id", reviewHandler.DeleteComment)
	}

	return router, nil
}

func healthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
