package router

import (
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/creation-studio/config"
	_ "github.com/d60-Lab/creation-studio/docs"
	"github.com/d60-Lab/creation-studio/internal/api/handler"
	"github.com/d60-Lab/creation-studio/internal/api/middleware"
	"github.com/d60-Lab/creation-studio/internal/auth"
	"github.com/d60-Lab/creation-studio/internal/policy"
	"github.com/d60-Lab/creation-studio/pkg/logger"
	"github.com/d60-Lab/creation-studio/pkg/metrics"
)

// Deps 路由依赖
type Deps struct {
	Config      *config.Config
	Handler     *handler.Handler
	Verifier    *auth.Verifier
	Gate        middleware.UsageResolver
	RateLimiter *middleware.RateLimiter
}

// Setup builds the engine with the full middleware chain and route table.
func Setup(d Deps) *gin.Engine {
	cfg := d.Config
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(logger.GinRecovery(), middleware.RequestID(), logger.GinLogger())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true, Timeout: 2 * time.Second}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(
		gzip.Gzip(gzip.DefaultCompression),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Server.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
		metrics.Middleware(),
	)

	h := d.Handler
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if cfg.Swagger.Enabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	guarded := []gin.HandlerFunc{
		auth.Middleware(d.Verifier, auth.MiddlewareConfig{Disabled: cfg.Auth.Disabled}),
	}
	if cfg.RateLimit.Enabled && d.RateLimiter != nil {
		guarded = append(guarded, d.RateLimiter.Handler())
	}
	guarded = append(guarded, middleware.PlanGate(d.Gate))

	limit := cfg.Usage.FreeLimit
	ai := r.Group("/api/ai", guarded...)
	ai.Use(middleware.BodyLimit(cfg.Server.MaxUploadBytes))
	{
		ai.POST("/generate-article", middleware.Authorize(policy.OpArticle, limit), h.GenerateArticle)
		ai.POST("/generate-blog-title", middleware.Authorize(policy.OpBlogTitle, limit), h.GenerateBlogTitle)
		ai.POST("/generate-image", middleware.Authorize(policy.OpImage, limit), h.GenerateImage)
		ai.POST("/remove-image-background", middleware.Authorize(policy.OpBackgroundRemoval, limit), h.RemoveImageBackground)
		ai.POST("/remove-image-object", middleware.Authorize(policy.OpObjectRemoval, limit), h.RemoveImageObject)
		ai.POST("/resume-review", middleware.Authorize(policy.OpResumeReview, limit), h.ResumeReview)
	}

	user := r.Group("/api/user", guarded...)
	{
		user.GET("/get-user-creations", h.GetUserCreations)
		user.GET("/get-published-creations", h.GetPublishedCreations)
		user.POST("/toggle-like-creation", h.ToggleLikeCreation)
	}

	return r
}
