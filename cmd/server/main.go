package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tup-vms/vms-backend/internal/config"
	"github.com/tup-vms/vms-backend/internal/database"
	"github.com/tup-vms/vms-backend/internal/handlers"
	"github.com/tup-vms/vms-backend/internal/metrics"
	"github.com/tup-vms/vms-backend/internal/middleware"
	"github.com/tup-vms/vms-backend/internal/models"
	"github.com/tup-vms/vms-backend/internal/services"
	"github.com/tup-vms/vms-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting TUP VMS Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations applied")

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	credentialRepository := database.NewCredentialRepository(db)
	credentialRequestRepository := database.NewCredentialRequestRepository(db)
	logRepository := database.NewLogRepository(db)
	attendanceRepository := database.NewAttendanceRepository(db)
	scanRepository := database.NewScanRepository(db)
	activityRepository := database.NewActivityRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	credentialService := services.NewCredentialService(credentialRepository, credentialRequestRepository, userRepository)
	scanService := services.NewScanService(
		userRepository,
		credentialRepository,
		logRepository,
		attendanceRepository,
		scanRepository,
	)
	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(jwtService, credentialService, userRepository, cfg)
	scanHandler := handlers.NewScanHandler(scanService)
	userHandler := handlers.NewUserHandler(userRepository, credentialService)
	logHandler := handlers.NewLogHandler(logRepository, activityRepository, credentialService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceRepository)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}
	router.Use(httpMetrics())

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check and metrics endpoints
	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API routes
	api := router.Group("/api")
	{
		// Authentication routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Scan routes
		scan := api.Group("/scan")
		scan.Use(middleware.AuthMiddleware(jwtService))
		{
			scan.POST("", middleware.RequireRole(string(models.RoleTUP)), scanHandler.ScanQR)
			scan.POST("/transaction", middleware.RequireRole(string(models.RoleStaff)), scanHandler.ScanTransactionQR)
			scan.POST("/visitor-transaction",
				middleware.RequireRole(string(models.RoleVisitor), string(models.RoleStudent)),
				scanHandler.VisitorScanQR)
		}

		// User routes
		users := api.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtService))
		{
			users.GET("/me", userHandler.Profile)
			users.POST("/me/qr-change-request", userHandler.RequestQRChange)
			users.GET("", middleware.RequireRole(string(models.RoleTUP)), userHandler.ListUsers)
		}

		// QR change request administration
		qrRequests := api.Group("/qr-requests")
		qrRequests.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(string(models.RoleTUP)))
		{
			qrRequests.GET("", userHandler.ListQRRequests)
			qrRequests.POST("/:id/approve", userHandler.ApproveQRRequest)
			qrRequests.POST("/:id/reject", userHandler.RejectQRRequest)
		}

		// Log and attendance read side
		logs := api.Group("/logs")
		logs.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(string(models.RoleTUP)))
		{
			logs.GET("", logHandler.ListLogs)
		}

		attendance := api.Group("/attendance")
		attendance.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(string(models.RoleTUP)))
		{
			attendance.GET("", attendanceHandler.ListAttendance)
		}

		// Activity routes
		activities := api.Group("/activities")
		activities.Use(middleware.AuthMiddleware(jwtService))
		{
			activities.POST("", logHandler.RecordActivity)
			activities.GET("", logHandler.ListActivities)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["role"] = userCtx.Role
		}

		entry := logger.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("Request completed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request completed")
		default:
			entry.Info("Request completed")
		}
	}
}

// httpMetrics middleware records Prometheus request counters and latency
func httpMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}
