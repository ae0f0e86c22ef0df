package main

import (
	"database/sql"
	"fmt"
	"log"

	"civicwatch/config"
	"civicwatch/database"
	"civicwatch/handlers"
	"civicwatch/middleware"
	"civicwatch/models"
	"civicwatch/utils/email"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Database connection
	db, err := setupDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	// Initialize database schema
	log.Println("Initializing database schema and running migrations...")
	if err := database.InitializeSchema(db); err != nil {
		log.Fatal("Failed to initialize database schema:", err)
	}

	// Initialize services
	authService := database.NewAuthService(db, cfg.JWTSecret)
	userService := database.NewUserService(db)
	reportService := database.NewReportService(db)
	statsService := database.NewStatsService(db)
	blobStore := database.NewBlobStore(db)

	var notifier *email.Notifier
	if cfg.SendGridAPIKey != "" {
		notifier = email.NewNotifier(cfg.SendGridAPIKey, cfg.EmailFromName, cfg.EmailFromAddress)
	} else {
		log.Println("SENDGRID_API_KEY not set, status notifications disabled")
	}

	h := handlers.NewHandlers(authService, userService, reportService, statsService,
		blobStore, notifier, cfg.AuthorityPIN)

	// Setup Gin router
	router := setupRouter(h, authService, userService, cfg)

	// Start server
	log.Printf("CivicWatch service starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func setupDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/?parseTime=true&multiStatements=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func setupRouter(h *handlers.Handlers, authService *database.AuthService,
	userService *database.UserService, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	// Set trusted proxies from config
	router.SetTrustedProxies(cfg.TrustedProxies)

	// Apply global middleware
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/api/reports/image/"})))

	// Health check
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
	}

	// Images are served openly once a valid generated filename is known.
	api.GET("/reports/image/:filename", h.GetReportImage)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))

	protected.POST("/auth/logout", h.Logout)

	// Every protected resource resolves the role from the user record on
	// each request.
	identified := protected.Group("")
	identified.Use(middleware.RequireUser(userService))

	users := identified.Group("/users")
	{
		users.POST("", h.CreateUser)
		users.GET("/profile", h.Profile)
		users.PATCH("/profile", h.UpdateProfile)
		users.GET("/:id", h.GetUser)
	}

	reports := identified.Group("/reports")
	{
		reports.GET("", middleware.RequireRole(models.RoleAuthority), h.ListReports)
		reports.GET("/my-reports", h.MyReports)
		reports.GET("/stats", middleware.RequireRole(models.RoleAuthority), h.GetReportStats)
		reports.GET("/:id", h.GetReport)
		reports.POST("", h.CreateReport)
		reports.PATCH("/:id", h.UpdateReport)
		reports.DELETE("/:id", h.DeleteReport)
	}

	admin := identified.Group("/admin")
	{
		admin.POST("/setup-authority", h.SetupAuthority)
		admin.POST("/set-role", middleware.RequireRole(models.RoleAuthority), h.SetRole)
		admin.GET("/my-role", h.MyRole)
	}

	return router
}
