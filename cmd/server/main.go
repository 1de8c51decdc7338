package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/moms2go/ride-backend/internal/config"
	"github.com/moms2go/ride-backend/internal/database"
	"github.com/moms2go/ride-backend/internal/handlers"
	"github.com/moms2go/ride-backend/internal/middleware"
	"github.com/moms2go/ride-backend/internal/services"
	"github.com/moms2go/ride-backend/pkg/jwt"
	"github.com/moms2go/ride-backend/pkg/mailer"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Moms2Go Ride Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Repositories
	userRepo := database.NewUserRepository(db)
	passengerRepo := database.NewPassengerRepository(db)
	driverRepo := database.NewDriverRepository(db)
	rideRepo := database.NewRideRepository(db)
	requestRepo := database.NewRideRequestRepository(db)
	paymentRepo := database.NewPaymentRepository(db)
	notificationRepo := database.NewNotificationRepository(db)

	// Services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if mail.Enabled() {
		logger.Info("SMTP mailer enabled")
	} else {
		logger.Info("SMTP not configured, emails will be skipped")
	}

	notifier := services.NewNotificationService(notificationRepo, logger)
	auditService := services.NewAuditService(db)
	fareService := services.NewFareService(cfg.Fare)
	matchingService := services.NewMatchingService(driverRepo, requestRepo, notifier, logger)
	ratingService := services.NewRatingService(rideRepo, driverRepo, passengerRepo, logger)
	rideService := services.NewRideService(
		rideRepo, requestRepo, passengerRepo, driverRepo, userRepo,
		fareService, matchingService, ratingService, notifier, mail, logger,
	)
	acceptService := services.NewAcceptanceService(
		rideRepo, requestRepo, driverRepo, passengerRepo, userRepo,
		notifier, mail, logger,
	)
	trackingService := services.NewTrackingService(rideRepo, driverRepo, fareService, rideService)
	driverService := services.NewDriverService(driverRepo, requestRepo)
	authService := services.NewAuthService(
		userRepo, passengerRepo, driverRepo, jwtService,
		notifier, mail, cfg.Security.BcryptCost, logger,
	)
	stripeService := services.NewStripeService(cfg.Stripe, logger)
	paymentService := services.NewPaymentService(
		paymentRepo, rideRepo, passengerRepo, stripeService, notifier, logger,
	)
	logger.Info("Services initialized")

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, auditService, logger)
	rideHandler := handlers.NewRideHandler(rideService, acceptService, ratingService, trackingService, auditService, logger)
	driverHandler := handlers.NewDriverHandler(driverService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, stripeService, auditService, logger)
	notificationHandler := handlers.NewNotificationHandler(notifier)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheckHandler(db))

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/signin", authHandler.Signin)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/activity", middleware.AuthMiddleware(jwtService), authHandler.Activity)
		}

		rides := v1.Group("/rides")
		rides.Use(middleware.AuthMiddleware(jwtService))
		{
			rides.POST("", middleware.RequireRole("passenger"), rideHandler.Create)
			rides.GET("", rideHandler.List)
			rides.GET("/:id", rideHandler.Get)
			rides.PATCH("/:id", rideHandler.Update)
			rides.POST("/:id/accept", middleware.RequireRole("driver"), rideHandler.Accept)
			rides.GET("/:id/track", rideHandler.Track)
		}

		drivers := v1.Group("/drivers")
		drivers.Use(middleware.AuthMiddleware(jwtService))
		{
			drivers.GET("", driverHandler.List)
			drivers.PATCH("", driverHandler.Update)
			drivers.GET("/me", middleware.RequireRole("driver"), driverHandler.Profile)
			drivers.GET("/requests", middleware.RequireRole("driver"), driverHandler.PendingOffers)
			drivers.POST("/location", middleware.RequireRole("driver"), rideHandler.ReportLocation)
		}

		payments := v1.Group("/payments")
		{
			// The webhook authenticates via its signature, not a JWT.
			payments.POST("/webhook", paymentHandler.Webhook)

			paymentsAuth := payments.Group("")
			paymentsAuth.Use(middleware.AuthMiddleware(jwtService))
			{
				paymentsAuth.POST("/intent", middleware.RequireRole("passenger"), paymentHandler.CreateIntent)
			}
		}

		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthMiddleware(jwtService))
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/read", notificationHandler.MarkAllRead)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	pruneStop := make(chan struct{})
	go auditPruneLoop(auditService, time.Duration(cfg.Security.AuditRetentionDays)*24*time.Hour, logger, pruneStop)

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	close(pruneStop)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// auditPruneLoop removes audit entries past the retention window once a day
func auditPruneLoop(audit *services.AuditService, retention time.Duration, logger *logrus.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		pruned, err := audit.PruneOlderThan(retention)
		if err != nil {
			logger.WithError(err).Warn("Failed to prune audit logs")
		} else if pruned > 0 {
			logger.WithField("pruned", pruned).Info("Pruned expired audit logs")
		}

		select {
		case <-ticker.C:
		case <-stop:
			return
		}
	}
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

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
