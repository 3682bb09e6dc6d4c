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

	"github.com/jmpboard/jmp-tracker-backend/internal/config"
	"github.com/jmpboard/jmp-tracker-backend/internal/database"
	"github.com/jmpboard/jmp-tracker-backend/internal/handlers"
	"github.com/jmpboard/jmp-tracker-backend/internal/middleware"
	"github.com/jmpboard/jmp-tracker-backend/internal/services"
	"github.com/jmpboard/jmp-tracker-backend/pkg/jwt"
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

	logger.Info("Starting JMP Tracker Backend")
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

	// Initialize the tabular store
	ctx := context.Background()
	var store database.TabularStore
	if cfg.Sheets.Mode == "production" {
		logger.Info("Connecting to Google Sheets...")
		sheetsStore, err := database.NewSheetsStore(ctx, cfg.Sheets.SpreadsheetID, []byte(cfg.Sheets.CredentialsJSON), logger)
		if err != nil {
			logger.Fatalf("Failed to connect to Google Sheets: %v", err)
		}
		if err := sheetsStore.EnsureWorksheets(ctx); err != nil {
			logger.Fatalf("Failed to prepare worksheets: %v", err)
		}
		store = sheetsStore
		logger.Info("Google Sheets connection established")
	} else {
		logger.Warn("SHEETS_MODE=dev - using the in-memory store, data will not persist")
		store = database.NewMemoryStore()
	}

	if err := store.Ping(ctx); err != nil {
		logger.Fatalf("Failed to ping store: %v", err)
	}

	// Per-table read cache
	cache := database.NewCache(map[string]time.Duration{
		database.TablePersonnel:  cfg.Cache.PersonnelTTL,
		database.TableDepartures: cfg.Cache.DeparturesTTL,
		database.TableExtensions: cfg.Cache.ExtensionsTTL,
		database.TableGroups:     cfg.Cache.GroupsTTL,
	})

	loc := cfg.Location()

	// Initialize repositories
	departureRepo := database.NewDepartureRepository(store, cache, loc, logger)
	personnelRepo := database.NewPersonnelRepository(store, cache, loc, logger)
	extensionRepo := database.NewExtensionRepository(store, cache, loc, logger)
	groupRepo := database.NewGroupRepository(store, cache, loc, logger)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.Auth.JWTSecret,
		cfg.Auth.JWTRefreshSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)
	statusEngine := services.NewStatusEngine(cfg.Tracker.DueSoonWindow)
	departureService := services.NewDepartureService(departureRepo, extensionRepo, groupRepo, statusEngine, cfg.Tracker.MaxExtensionHours, logger)
	personnelService := services.NewPersonnelService(personnelRepo, logger)
	groupService := services.NewGroupService(groupRepo, logger)
	statsService := services.NewStatsService(departureRepo, statusEngine)
	exportService := services.NewExportService(departureRepo, personnelRepo, statusEngine)

	// Start the overdue alert sweep
	alertService := services.NewAlertService(departureService, cfg.Tracker.AlertInterval, logger)
	if err := alertService.Start(); err != nil {
		logger.Fatalf("Failed to start alert service: %v", err)
	}
	logger.Infof("Alert service started - overdue sweep every %s", cfg.Tracker.AlertInterval)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(jwtService, cfg, logger)
	boardHandler := handlers.NewBoardHandler(departureService, logger)
	departureHandler := handlers.NewDepartureHandler(departureService, personnelService, cfg, logger)
	personnelHandler := handlers.NewPersonnelHandler(personnelService, cfg, logger)
	groupHandler := handlers.NewGroupHandler(groupService, logger)
	statsHandler := handlers.NewStatsHandler(statsService, exportService, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(store))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Public board and field endpoints - no login so that anyone on site
		// can log departures, returns and check the wall display
		v1.GET("/board", boardHandler.Board)
		v1.GET("/board/messages", boardHandler.Messages)

		departures := v1.Group("/departures")
		{
			departures.POST("", departureHandler.Create)
			departures.POST("/group", departureHandler.CreateGroup)
			departures.GET("/active", departureHandler.ListActive)
			departures.POST("/:id/return", departureHandler.Return)
			departures.POST("/:id/extend", departureHandler.Extend)
			departures.POST("/:id/location", departureHandler.UpdateLocation)
			departures.GET("/:id/extensions", departureHandler.ListExtensions)
			departures.POST("/group/:id/return", departureHandler.ReturnGroup)
		}

		// Management endpoints - require a management session
		management := v1.Group("")
		management.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(middleware.RoleManagement))
		{
			personnel := management.Group("/personnel")
			{
				personnel.GET("", personnelHandler.List)
				personnel.POST("", personnelHandler.Upsert)
				personnel.GET("/export", personnelHandler.ExportCSV)
				personnel.POST("/import", personnelHandler.ImportCSV)
				personnel.GET("/:name", personnelHandler.Get)
				personnel.GET("/:name/qr", personnelHandler.QRLink)
			}

			groups := management.Group("/groups")
			{
				groups.GET("", groupHandler.List)
				groups.POST("", groupHandler.Create)
				groups.GET("/:id", groupHandler.Get)
				groups.PUT("/:id", groupHandler.Update)
			}

			management.GET("/statistics", statsHandler.Statistics)
			management.GET("/export", statsHandler.ExportWorkbook)
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

	logger.Info("Stopping alert service...")
	alertService.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
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

		if sessionCtx, exists := middleware.GetSessionContext(c); exists {
			fields["session_id"] = sessionCtx.SessionID
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
			status := c.Writer.Status()
			if status >= 500 {
				entry.Error("Request completed with server error")
			} else if status >= 400 {
				entry.Warn("Request completed with client error")
			} else {
				entry.Info("Request completed successfully")
			}
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(store database.TabularStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"store":  "unreachable",
				"error":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"store":     "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
