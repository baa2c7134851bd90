package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobboard/internal/api/middleware"
	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/contact"
	"jobboard/internal/identity"
	"jobboard/internal/listing"
	"jobboard/internal/taxonomy"
)

// Services 汇总路由需要的领域服务与基础设施。
type Services struct {
	DB       *gorm.DB
	Redis    redis.UniversalClient
	Auth     *auth.AuthService
	Jobs     *listing.JobService
	Seekers  *listing.SeekerService
	Gate     *identity.Gate
	Taxonomy *taxonomy.Service
	Contacts *contact.Service
	Storage  objectStore
	Scanner  VirusScanner
	Logger   *slog.Logger
}

// RegisterRoutes 注册全部业务路由，挂在根路径下。
func RegisterRoutes(router *gin.Engine, cfg *config.Config, svc Services) {
	jobHandler := NewJobHandler(svc.Jobs)
	seekerHandler := NewSeekerHandler(svc.Seekers)
	identityHandler := NewIdentityHandler(svc.Gate)
	categoryHandler := NewCategoryHandler(svc.Taxonomy)
	contactHandler := NewContactHandler(svc.Contacts)
	uploadHandler := NewUploadHandler(svc.Storage, svc.Scanner, cfg.Upload.MaxBytes, svc.Logger)
	authHandler := NewAuthHandler(svc.DB, svc.Auth, svc.Redis, svc.Logger, cfg.Auth)
	wsHandler := NewWsHandler(svc.Redis, svc.Auth, svc.Logger, cfg.API.AllowedOrigins)

	var limiter middleware.RateCounter
	if svc.Redis != nil {
		limiter = svc.Redis
	}
	perMinute := cfg.API.SubmitRateLimitPerMinute

	// 公开接口
	router.GET("/jobs", jobHandler.Search)
	router.POST("/jobs", middleware.SubmitRateLimitMiddleware(limiter, "jobs", perMinute), jobHandler.Submit)
	router.GET("/aadhaar/check", identityHandler.CheckAadhaar)
	router.GET("/phone/check", identityHandler.CheckPhone)
	router.GET("/job-seekers", seekerHandler.ListPublic)
	router.POST("/job-seekers", middleware.SubmitRateLimitMiddleware(limiter, "job_seekers", perMinute), seekerHandler.Submit)
	router.GET("/categories", categoryHandler.List)
	router.POST("/contacts", middleware.SubmitRateLimitMiddleware(limiter, "contacts", perMinute), contactHandler.Submit)

	uploadGroup := router.Group("/upload")
	uploadGroup.Use(middleware.SubmitRateLimitMiddleware(limiter, "upload", perMinute))
	{
		uploadGroup.POST("/aadhaar", uploadHandler.UploadAadhaar)
		uploadGroup.POST("/resume", uploadHandler.UploadResume)
	}

	authMiddleware := middleware.AuthMiddleware(svc.Auth)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
	}

	// WebSocket 通过首条消息鉴权。
	router.GET("/ws", wsHandler.HandleConnection)

	// 管理接口：需要有效 access token 且已完成初始改密。
	admin := router.Group("")
	admin.Use(authMiddleware, middleware.RequirePasswordChangeCompletedMiddleware())
	{
		admin.GET("/jobs/pending", jobHandler.Pending)
		admin.PUT("/jobs/:id/approve", jobHandler.Approve)
		admin.PUT("/jobs/:id/reject", jobHandler.Reject)
		admin.PUT("/jobs/:id/inactive", jobHandler.Deactivate)

		admin.GET("/job-seekers/all", seekerHandler.ListAll)
		admin.GET("/job-seekers/pending", seekerHandler.ListPending)
		admin.PUT("/job-seekers/:id/approve", seekerHandler.Approve())
		admin.PUT("/job-seekers/:id/reject", seekerHandler.Reject())
		admin.PUT("/job-seekers/:id/inactive", seekerHandler.Deactivate())
		admin.PUT("/job-seekers/:id/pending", seekerHandler.ResetPending())

		admin.POST("/categories", categoryHandler.Create)
		admin.PUT("/categories/:id", categoryHandler.Rename)
		admin.DELETE("/categories/:id", categoryHandler.Delete)
		admin.POST("/categories/:id/subcategories", categoryHandler.AddSubcategory)
		admin.PUT("/categories/:id/subcategories", categoryHandler.RenameSubcategory)
		admin.DELETE("/categories/:id/subcategories", categoryHandler.RemoveSubcategory)

		admin.GET("/contacts", contactHandler.List)
		admin.GET("/upload/view", uploadHandler.View)
	}
}
