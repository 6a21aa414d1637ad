package cmd

import (
	"context"
	"log"
	"os"
	"strconv"

	"mashup/audio"
	"mashup/config"
	"mashup/handlers"
	"mashup/middleware"
	"mashup/services"
	"mashup/websocket"

	"github.com/gin-gonic/gin"
)

// BuildPipeline assembles the full mashup pipeline from configuration.
// Shared between web and CLI modes.
func BuildPipeline(ctx context.Context, cfg *config.Config) (*services.Pipeline, services.Resolver, error) {
	resolver, err := services.NewYouTubeResolver(ctx, cfg.YouTubeAPIKey)
	if err != nil {
		return nil, nil, err
	}

	codec := audio.NewFFmpeg(cfg.FFmpegPath)
	fetcher := services.NewFetcher(cfg.YtdlpPath, codec, services.DefaultRetryPolicy)
	coordinator := services.NewCoordinator(fetcher, cfg.MaxFetchers)
	assembler := services.NewAssembler(codec, codec)
	mailer := services.NewSMTPMailer(cfg.SMTPAddr(), cfg.SMTPHost, cfg.SenderEmail, cfg.EmailPassword)

	pipeline := services.NewPipeline(resolver, coordinator, assembler, mailer, cfg.ScratchDir())
	return pipeline, resolver, nil
}

// StartWebServer starts the web server
func StartWebServer(cfg *config.Config, port int) {
	// Set production mode if not specified
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	pipeline, resolver, err := BuildPipeline(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	jobQueue := services.NewJobQueue(cfg.MaxJobs, pipeline, hub)
	jobQueue.Start()

	// Initialize handlers
	mashupHandler := handlers.NewMashupHandler(jobQueue, hub)
	searchHandler := handlers.NewSearchHandler(resolver)
	healthHandler := handlers.NewHealthHandler(cfg)

	// Setup router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())
	r.Use(middleware.Security())

	setupRoutes(r, mashupHandler, searchHandler, healthHandler)

	portStr := strconv.Itoa(port)
	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		portStr = serverPort
	}

	log.Printf("Mashup web server starting on port %s", portStr)
	if err := r.Run(":" + portStr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, mashupHandler *handlers.MashupHandler, searchHandler *handlers.SearchHandler, healthHandler *handlers.HealthHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Search preview endpoint
		apiGroup.GET("/search", searchHandler.Search)

		// Mashup job endpoints
		mashupsGroup := apiGroup.Group("/mashups")
		{
			mashupsGroup.POST("", mashupHandler.Create)
			mashupsGroup.GET("", mashupHandler.GetAllJobs)
			mashupsGroup.GET("/:jobId", mashupHandler.GetJob)
			mashupsGroup.DELETE("/:jobId", mashupHandler.CancelJob)
		}

		// WebSocket endpoints for real-time progress
		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/mashups/:jobId", mashupHandler.HandleWebSocketConnection)
			wsGroup.GET("/mashups", mashupHandler.HandleWebSocketAllConnection)
		}
	}
}
