package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/petalertfrance/petalert-be/internal/api"
	"github.com/petalertfrance/petalert-be/internal/api/handlers"
	"github.com/petalertfrance/petalert-be/internal/auth"
	"github.com/petalertfrance/petalert-be/internal/config"
	"github.com/petalertfrance/petalert-be/internal/database"
	"github.com/petalertfrance/petalert-be/internal/geocoding"
	"github.com/petalertfrance/petalert-be/internal/logger"
	"github.com/petalertfrance/petalert-be/internal/monitoring"
	"github.com/petalertfrance/petalert-be/internal/services"
	"github.com/petalertfrance/petalert-be/internal/uploads"
	"github.com/petalertfrance/petalert-be/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.IsProduction())

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set. Set a strong secret in production.")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up the photo store
	photos, err := uploads.NewStore(cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize photo store")
	}

	// Set up the live alert feed
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	authService := auth.NewService(cfg.JWTSecret)
	userService := services.NewUserService(db)
	petService := services.NewPetService(db, photos)
	alertService := services.NewAlertService(db, hub)
	geoClient := geocoding.NewClient(cfg.NominatimBaseURL, nil)

	// Set up and start the background orphan photo sweeper
	sweeper := monitoring.NewPhotoSweeper(db, cfg.UploadDir)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start photo sweeper")
	}

	// Set up router
	router := api.NewRouter(cfg, authService, api.Handlers{
		Auth:      handlers.NewAuthHandler(userService, authService),
		Pets:      handlers.NewPetHandler(petService, photos),
		Alerts:    handlers.NewAlertHandler(alertService),
		Geocoding: handlers.NewGeocodingHandler(geoClient),
		Health:    handlers.NewHealthHandler(cfg.Environment),
		Feed:      handlers.NewWebSocketHandler(hub),
	})

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("environment", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
