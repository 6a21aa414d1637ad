package main

import (
	"context"
	"flag"
	"log"

	"mashup/cmd"
	"mashup/config"
	"mashup/services"
	"mashup/types"
)

func main() {
	var (
		server   bool
		port     int
		query    string
		count    int
		duration int
		email    string
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.IntVar(&port, "port", 8080, "Port for web server mode")
	flag.StringVar(&query, "query", "", "Artist or query to build a mashup for")
	flag.IntVar(&count, "count", 10, "Number of sources to include (min 10)")
	flag.IntVar(&duration, "duration", 20, "Excerpt seconds per source (min 20)")
	flag.StringVar(&email, "email", "", "Destination email address")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if server {
		cmd.StartWebServer(cfg, port)
		return
	}

	if query == "" || email == "" {
		flag.Usage()
		return
	}

	runOnce(cfg, types.MashupRequest{
		Query:    query,
		Count:    count,
		Duration: duration,
		Email:    email,
	})
}

// runOnce builds a single mashup from the command line and exits.
func runOnce(cfg *config.Config, req types.MashupRequest) {
	if req.Count < 10 {
		log.Fatalf("count must be at least 10, got %d", req.Count)
	}
	if req.Duration < 20 {
		log.Fatalf("duration must be at least 20 seconds, got %d", req.Duration)
	}

	ctx := context.Background()
	pipeline, _, err := cmd.BuildPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	result := pipeline.Run(ctx, req, services.NewBarReporter())
	if result.Outcome != types.OutcomeSuccess {
		if result.Err != nil {
			log.Printf("Details: %v", result.Err)
		}
		log.Fatalf("%s", result.Message)
	}

	log.Printf("%s (%.0fs, %d tracks)", result.Message, result.Duration, len(result.Tracks))
}
