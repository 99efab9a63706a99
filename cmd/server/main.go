// StyleScope server - returns-based style analysis over a configurable
// factor universe.
//
// Startup sequence:
//  1. Loads configuration from environment (.env supported)
//  2. Initializes the structured logger
//  3. Opens the cache database and migrates the client-data tables
//  4. Loads the universe file and wires the analysis service
//  5. Registers scheduled jobs (analysis refresh, cache cleanup, WAL checkpoint)
//  6. Starts the HTTP server
//  7. Waits for shutdown signal and performs graceful shutdown
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/stylescope/internal/clientdata"
	"github.com/aristath/stylescope/internal/clients/eodhd"
	"github.com/aristath/stylescope/internal/config"
	"github.com/aristath/stylescope/internal/database"
	"github.com/aristath/stylescope/internal/modules/analysis"
	"github.com/aristath/stylescope/internal/scheduler"
	"github.com/aristath/stylescope/internal/server"
	"github.com/aristath/stylescope/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting StyleScope")

	// Cache database holds provider responses only; losing it costs
	// re-fetches, nothing more.
	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	if err := cacheRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache tables")
	}

	priceClient := eodhd.NewClient(cfg.EODHDAPIToken, cacheRepo, log)
	analysisService := analysis.NewService(priceClient, log)

	// The universe file is optional at startup: without it the service
	// still serves explicit run requests, it just has no default to
	// refresh on schedule.
	if universe, err := config.LoadUniverse(cfg.UniverseFile); err != nil {
		log.Warn().Err(err).Str("path", cfg.UniverseFile).
			Msg("No usable universe file; scheduled runs disabled")
	} else {
		req, err := universeRequest(universe)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to build default analysis request")
		}
		analysisService.SetDefaultRequest(req)
		log.Info().
			Int("factors", len(req.Factors)).
			Int("instruments", len(req.Instruments)).
			Msg("Default universe loaded")
	}

	// Background jobs
	sched := scheduler.New(log)
	if _, ok := analysisService.DefaultRequest(); ok && cfg.AnalysisSchedule != "" {
		if err := sched.AddJob(cfg.AnalysisSchedule, analysis.NewRefreshJob(analysisService, log)); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.AnalysisSchedule).Msg("Invalid analysis schedule")
		}
	}
	if err := sched.AddJob("0 0 3 * * *", clientdata.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	if err := sched.AddJob("0 30 3 * * *", scheduler.NewWALCheckpointJob(log, cacheDB)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:             log,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		CacheDB:         cacheDB,
		AnalysisService: analysisService,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// universeRequest converts a validated universe file into the default
// analysis request.
func universeRequest(u *config.Universe) (analysis.Request, error) {
	start, err := u.Start()
	if err != nil {
		return analysis.Request{}, err
	}
	end, err := u.End()
	if err != nil {
		return analysis.Request{}, err
	}
	freq, err := u.ReturnFrequency()
	if err != nil {
		return analysis.Request{}, err
	}
	return analysis.Request{
		Factors:     u.Factors,
		Instruments: u.Instruments,
		Start:       start,
		End:         end,
		Frequency:   freq,
	}, nil
}
