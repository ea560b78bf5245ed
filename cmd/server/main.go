package main

import (
	"flag"
	"log"

	"github.com/himanishpuri/img2wav/pkg/img2wav"
	"github.com/himanishpuri/img2wav/pkg/img2wav/storage"
)

var (
	configPath     string
	port           int
	dbPath         string
	outputDir      string
	allowedOrigins string
)

func init() {
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.StringVar(&dbPath, "db", "", "Path to the SQLite job-history database (overrides config)")
	flag.StringVar(&outputDir, "out", "", "Directory for rendered WAV files (overrides config)")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated allowed CORS origins (overrides config)")
}

func main() {
	flag.Parse()

	cfg := DefaultServerConfig()
	if configPath != "" {
		loaded, err := LoadServerConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	if port != 0 {
		cfg.Port = port
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if allowedOrigins != "" {
		cfg.AllowedOrigins = parseOrigins(allowedOrigins)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open job history: %v", err)
	}

	service, err := img2wav.NewService(img2wav.WithStore(store))
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, store, cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
