package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/aiblog/config"
	"github.com/cppla/aiblog/controllers"
	"github.com/cppla/aiblog/middleware"
	"github.com/cppla/aiblog/repository"
	"github.com/cppla/aiblog/services"
	"github.com/cppla/aiblog/utils"
)

// Deps are the external resources the router wires into services. Geo,
// Storage and Notifier may be nil.
type Deps struct {
	DB       *gorm.DB
	Geo      utils.GeoLocator
	Storage  services.ObjectStore
	Notifier services.Notifier
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
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	users := repository.NewUserRepository(deps.DB)
	categories := repository.NewCategoryRepository(deps.DB)
	posts := repository.NewPostRepository(deps.DB)

	notifier := deps.Notifier
	if notifier == nil {
		notifier = services.MailNotifier{}
	}

	authService := services.NewAuthService(users, services.AuthOptions{CaptchaEnabled: cfg.RegisterCaptchaEnabled})
	categoryService := services.NewCategoryService(categories)
	postService := services.NewPostService(posts, categories, users)
	userManager := services.NewUserManager(users, notifier)
	visitorService := services.NewVisitorService(repository.NewVisitorRepository(deps.DB), users, posts, deps.Geo)
	statsService := services.NewStatsService(repository.NewStatsRepository(deps.DB))
	uploadService := services.NewUploadService(deps.Storage)

	authController := controllers.NewAuthController(authService)
	categoryController := controllers.NewCategoryController(categoryService)
	postController := controllers.NewPostController(postService)
	blogController := controllers.NewBlogController(postService, categoryService)
	uploadController := controllers.NewUploadController(uploadService)
	visitorController := controllers.NewVisitorController(visitorService)
	statsController := controllers.NewStatsController(statsService)
	adminController := controllers.NewAdminController(userManager)

	authRequired := middleware.AuthRequired(authService)
	limit := middleware.RateLimit("api", cfg.RateLimitPerMinute)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimit("auth", cfg.RateLimitPerMinute))
	authGroup.GET("/captcha", authController.Captcha)
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", authRequired, authController.Logout)
	authGroup.GET("/me", authRequired, authController.Me)
	authGroup.PATCH("/profile", authRequired, authController.UpdateProfile)

	blogs := api.Group("/blogs/:urlId")
	blogs.Use(limit)
	blogs.GET("", blogController.Profile)
	blogs.GET("/posts", blogController.Posts)
	blogs.GET("/posts/:id", blogController.Post)

	api.GET("/public/posts", limit, blogController.PublicPosts)
	api.POST("/visitor-log", limit, middleware.AuthOptional(authService), visitorController.Record)

	protected := api.Group("")
	protected.Use(authRequired, limit)
	protected.GET("/categories", categoryController.List)
	protected.POST("/categories", categoryController.Create)
	protected.PUT("/categories/:id", categoryController.Update)
	protected.DELETE("/categories/:id", categoryController.Delete)
	protected.GET("/posts", postController.List)
	protected.POST("/posts", postController.Create)
	protected.GET("/posts/:id", postController.Get)
	protected.PUT("/posts/:id", postController.Update)
	protected.DELETE("/posts/:id", postController.Delete)
	protected.POST("/uploads", uploadController.Image)
	protected.GET("/stats", statsController.User)

	admin := api.Group("/admin")
	admin.Use(authRequired, middleware.AdminRequired())
	admin.GET("/users", adminController.ListUsers)
	admin.GET("/users/:id", adminController.GetUser)
	admin.POST("/users/:id/approve", adminController.Approve)
	admin.POST("/users/:id/delete", adminController.Delete)
	admin.POST("/users/:id/restore", adminController.Restore)
	admin.PATCH("/users/:id/role", adminController.ChangeRole)
	admin.GET("/stats", statsController.Admin)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
