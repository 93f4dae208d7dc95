package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/vtart/go-gallery/internal/config"
	"github.com/vtart/go-gallery/internal/handlers"
	"github.com/vtart/go-gallery/internal/middlewares"
	"github.com/vtart/go-gallery/internal/pkg/mailer"
	"github.com/vtart/go-gallery/internal/pkg/storage"
	"github.com/vtart/go-gallery/internal/pkg/thumbnail"
	"github.com/vtart/go-gallery/internal/repositories"
	"github.com/vtart/go-gallery/internal/services"
	adminsvc "github.com/vtart/go-gallery/internal/services/admin"
	"github.com/vtart/go-gallery/internal/services/explorer"
	"github.com/vtart/go-gallery/internal/services/verification"
	"gorm.io/gorm"
)

// RouterConfig 包含初始化路由所需的所有依赖
type RouterConfig struct {
	db             *gorm.DB
	redisClient    *redis.Client
	storageService storage.StorageService
	verifier       *verification.Service
	cfg            *config.Config
}

func NewRouterConfig(
	db *gorm.DB,
	redisClient *redis.Client,
	storageService storage.StorageService,
	verifier *verification.Service,
	cfg *config.Config,
) *RouterConfig {
	return &RouterConfig{
		db:             db,
		redisClient:    redisClient,
		storageService: storageService,
		verifier:       verifier,
		cfg:            cfg,
	}
}

func InitRouter(routerCfg *RouterConfig) *gin.Engine {
	router := gin.Default() // 使用默认的 Gin 引擎，包含 Logger 和 Recovery 中间件

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 本地存储时直接由服务进程提供文件访问
	if routerCfg.cfg.Storage.Type == "local" || routerCfg.cfg.Storage.Type == "" {
		router.Static("/uploads", routerCfg.cfg.Storage.LocalBasePath)
	}

	// 组装依赖
	userRepo := repositories.NewUserRepository(routerCfg.db)
	fileRepo := repositories.NewFileRepository(routerCfg.db)
	folderRepo := repositories.NewFolderRepository(routerCfg.db)

	domainService := explorer.NewFileDomainService(fileRepo, folderRepo, userRepo)
	quotaLedger := explorer.NewQuotaLedger(userRepo)
	txManager := explorer.NewTransactionManager(routerCfg.db)
	thumbGen := thumbnail.NewGenerator(&routerCfg.cfg.Thumbnail)

	fileService := explorer.NewFileService(fileRepo, domainService, quotaLedger, txManager,
		routerCfg.storageService, thumbGen, routerCfg.cfg)
	folderService := explorer.NewFolderService(folderRepo, fileRepo, domainService)

	mail := mailer.NewMailer(&routerCfg.cfg.SMTP)
	authService := services.NewAuthService(userRepo, routerCfg.verifier, mail, routerCfg.cfg)
	userService := services.NewUserService(userRepo, domainService, quotaLedger)
	adminService := adminsvc.NewAdminService(userRepo, fileRepo, quotaLedger, routerCfg.verifier)

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/send-code", handlers.SendCode(authService))
			authGroup.POST("/register", handlers.Register(authService))
			authGroup.POST("/login", handlers.Login(authService))
			authGroup.POST("/reset-password", handlers.ResetPassword(authService))
		}

		// 需要认证的路由组
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(routerCfg.cfg))

		// 用户相关路由
		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/me", handlers.GetUserProfile(userService))
			userGroup.GET("/quota", handlers.GetQuotaUsage(userService))
			userGroup.PUT("/avatar", handlers.SetAvatar(userService))
			userGroup.DELETE("/avatar", handlers.ClearAvatar(userService))
			userGroup.POST("/send-code", handlers.SendBoundCode(authService, userService))
			userGroup.POST("/change-email", handlers.ChangeEmail(authService))
			userGroup.POST("/change-password", handlers.ChangePassword(authService))
		}

		// 文件相关路由
		fileGroup := authenticated.Group("/files")
		{
			fileGroup.GET("", handlers.ListFiles(fileService))
			fileGroup.POST("/upload", handlers.UploadFile(fileService))
			fileGroup.POST("/batch-delete", handlers.BatchDeleteFiles(fileService))
			fileGroup.POST("/copy", handlers.CopyFile(fileService))
			fileGroup.PUT("/move", handlers.MoveFile(fileService))
			fileGroup.PUT("/batch-move", handlers.BatchMoveFiles(fileService))
			fileGroup.GET("/:file_id", handlers.GetFile(fileService))
			fileGroup.GET("/:file_id/download", handlers.DownloadFile(fileService))
			fileGroup.PUT("/:file_id/rename", handlers.RenameFile(fileService))
			fileGroup.DELETE("/:file_id", handlers.DeleteFile(fileService))
		}

		// 文件夹相关路由
		folderGroup := authenticated.Group("/folders")
		{
			folderGroup.GET("", handlers.ListFolders(folderService))
			folderGroup.POST("", handlers.CreateFolder(folderService))
			folderGroup.PUT("/:folder_id/rename", handlers.RenameFolder(folderService))
			folderGroup.DELETE("/:folder_id", handlers.DeleteFolder(folderService))
		}

		// 管理相关路由
		adminGroup := authenticated.Group("/admin")
		adminGroup.Use(middlewares.AdminMiddleware())
		{
			adminGroup.GET("/users", handlers.AdminListUsers(adminService))
			adminGroup.POST("/users", handlers.AdminCreateUser(adminService))
			adminGroup.PUT("/users/:user_id/storage-limit", handlers.AdminSetStorageLimit(adminService))
			adminGroup.GET("/storage-stats", handlers.AdminStorageStats(adminService))
			adminGroup.GET("/codes/stats", handlers.AdminCodeStats(adminService))
			adminGroup.GET("/codes/audit", handlers.AdminCodeAudit(adminService))
			adminGroup.DELETE("/codes", handlers.AdminPurgeCodes(adminService))
			adminGroup.POST("/codes/sweep", handlers.AdminSweepCodes(adminService))
		}
	}

	return router
}
