package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Nehimi/myBlog/config"
	"github.com/Nehimi/myBlog/controllers"
	"github.com/Nehimi/myBlog/middleware"
	"github.com/Nehimi/myBlog/utils"
)

// NewRouter wires middleware and all API route groups.
func NewRouter(db *mongo.Database) *gin.Engine {
	cfg := config.Get()

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(utils.Logger))
	router.Use(middleware.Recovery(utils.Logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Static("/static/uploads", cfg.UploadDir)

	api := router.Group("/api")
	api.Use(middleware.RateLimitMiddleware())

	api.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)})
	})

	authController := controllers.NewAuthController(db)
	blogController := controllers.NewBlogController(db)
	commentController := controllers.NewCommentController(db)
	searchController := controllers.NewSearchController(db)
	uploadController := controllers.NewUploadController(db)

	auth := api.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/logout", middleware.AuthRequired(), authController.Logout)
		auth.GET("/me", middleware.AuthRequired(), authController.Me)
		auth.PUT("/profile", middleware.AuthRequired(), authController.UpdateProfile)
	}

	blog := api.Group("/blog")
	{
		blog.GET("", middleware.OptionalAuth(), blogController.ListBlogPosts)
		blog.POST("", middleware.AuthRequired(), blogController.CreateBlogPost)
		blog.GET("/by-year", blogController.GetBlogPostsByYear)
		blog.GET("/my", middleware.AuthRequired(), blogController.ListMyBlogPosts)
		blog.GET("/:id", middleware.OptionalAuth(), blogController.GetBlogPost)
		blog.PUT("/:id", middleware.AuthRequired(), blogController.UpdateBlogPost)
		blog.DELETE("/:id", middleware.AuthRequired(), blogController.DeleteBlogPost)
		blog.POST("/:id/like", middleware.AuthRequired(), blogController.ToggleLike)
	}

	comments := api.Group("/comments")
	{
		comments.GET("/blog/:blogPostId", commentController.ListCommentsByBlogPost)
		comments.GET("/my", middleware.AuthRequired(), commentController.ListMyComments)
		comments.POST("", middleware.AuthRequired(), commentController.CreateComment)
		comments.PUT("/:id", middleware.AuthRequired(), commentController.UpdateComment)
		comments.DELETE("/:id", middleware.AuthRequired(), commentController.DeleteComment)
		comments.POST("/:id/like", middleware.AuthRequired(), commentController.ToggleCommentLike)
	}

	search := api.Group("/search")
	{
		search.GET("/posts", searchController.SearchBlogPosts)
		search.GET("/suggestions", searchController.GetSearchSuggestions)
		search.GET("/popular", searchController.GetPopularSearches)
	}

	upload := api.Group("/upload")
	upload.Use(middleware.AuthRequired())
	{
		upload.POST("/image", uploadController.UploadImage)
		upload.POST("/images", uploadController.UploadImages)
		upload.DELETE("/image/:publicId", uploadController.DeleteImage)
	}

	router.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return router
}
