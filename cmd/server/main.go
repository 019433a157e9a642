package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mirrorhq/infrascene/internal/chat"
	"github.com/mirrorhq/infrascene/internal/config"
	"github.com/mirrorhq/infrascene/internal/dataset"
	"github.com/mirrorhq/infrascene/internal/engine"
	"github.com/mirrorhq/infrascene/internal/logger"
	"github.com/mirrorhq/infrascene/internal/lookup"
	"github.com/mirrorhq/infrascene/internal/scene"
	"github.com/mirrorhq/infrascene/internal/server"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"       default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"          default:"8080"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// API keys may live in a local env file
	_ = godotenv.Load()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.DataAPI == "" {
		log.Fatal().Msg("data_api must be set in configuration")
	}
	if cfg.LookupAPI == "" {
		cfg.LookupAPI = cfg.DataAPI
	}

	timeout := engine.DefaultLookupTimeout
	if cfg.LookupTimeout > 0 {
		timeout = time.Duration(cfg.LookupTimeout) * time.Second
	}

	// Datasets load in the background; the tri-state store lets the
	// server answer before (or without) all three arriving.
	store := dataset.NewStore()
	client := &http.Client{Timeout: timeout}
	go func() {
		store.LoadAll(context.Background(), client, cfg.DataAPI, cfg.CacheDir)
		log.Info().Msg("Dataset loading settled")
	}()

	st := scene.NewState(scene.Camera{
		Longitude: cfg.Camera.Longitude,
		Latitude:  cfg.Camera.Latitude,
		Zoom:      cfg.Camera.Zoom,
		Pitch:     cfg.Camera.Pitch,
		Bearing:   cfg.Camera.Bearing,
	})

	var transport chat.Transport
	if cfg.Chat.BackendURL != "" {
		transport = chat.NewBackend(cfg.Chat.BackendURL, timeout)
		log.Info().Str("backend", cfg.Chat.BackendURL).Msg("Using external chat backend")
	} else {
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			log.Fatal().Msg("ANTHROPIC_API_KEY is required unless chat.backend_url is configured")
		}
		transport = chat.NewAgent(apiKey, cfg.Chat.Model, cfg.Chat.MaxTokens, cfg.Chat.SystemPrompt)
		log.Info().Str("model", cfg.Chat.Model).Msg("Using built-in chat agent")
	}

	eng := engine.New(store, st, lookup.NewClient(cfg.LookupAPI, timeout), timeout)
	go eng.Run(context.Background())

	srvCtx := server.NewServerContext(store, eng, transport)

	// Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/api/airports", srvCtx.HandleAirports)
	mux.HandleFunc("/api/ports", srvCtx.HandlePorts)
	mux.HandleFunc("/api/warehouses", srvCtx.HandleWarehouses)
	mux.HandleFunc("/api/chat", srvCtx.HandleChat)
	mux.HandleFunc("/api/scene", srvCtx.HandleScene)
	mux.HandleFunc("/api/camera", srvCtx.HandleCamera)
	mux.HandleFunc("/api/route", srvCtx.HandleRoute)
	mux.HandleFunc("/api/find-nearest", srvCtx.HandleFindNearest)
	mux.HandleFunc("/api/health", srvCtx.HandleHealth)
	mux.HandleFunc("/ws", srvCtx.HandleWS)

	handler := server.RequestLogger(mux)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("data_api", cfg.DataAPI).
		Str("lookup_api", cfg.LookupAPI).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
