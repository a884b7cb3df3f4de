package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"video-streamer/internal/database"
	"video-streamer/internal/handlers"
	"video-streamer/internal/logging"
	"video-streamer/internal/metrics"
	"video-streamer/internal/middleware"
	"video-streamer/internal/probe"
	"video-streamer/internal/startup"
	"video-streamer/internal/thumbs"
	"video-streamer/internal/transcoder"
	"video-streamer/internal/videos"
	"video-streamer/internal/workers"
)

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Media pipeline
	workerCount := workers.ForCPU(0)
	startup.LogTranscoderInit(config, workerCount)

	tc := transcoder.New(config.HLSDir, config.FfmpegPath)
	prober := probe.New(config.FfprobePath, config.ProbeTimeout)
	tg := thumbs.NewGenerator(config.ThumbnailDir, config.FfmpegPath)

	svc := videos.NewService(db, tc, prober, tg, config.SourceDir)
	if err := svc.Start(ctx, workerCount); err != nil {
		logging.Fatal("Failed to start video service: %v", err)
	}

	// HTTP surface
	router := mux.NewRouter()
	handlers.New(svc, db).RegisterRoutes(router)
	startup.LogHTTPRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogSegments = config.LogSegments
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	var handler http.Handler = router
	if config.MetricsEnabled {
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)
	}
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:        ":" + config.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Streaming responses manage their own write deadlines.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *metrics.Server
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metricsSrv = metrics.NewServer(config.MetricsPort)
		metricsSrv.Start()

		// Keep DB pool gauges current.
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					db.UpdateDBMetrics()
				}
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, svc, cancel)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

// handleShutdown drains the HTTP servers and the transcode pool on
// SIGINT/SIGTERM.
func handleShutdown(srv *http.Server, metricsSrv *metrics.Server, svc *videos.Service, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	startup.LogShutdownInitiated(sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP server shutdown error: %v", err)
	}
	startup.LogShutdownStepComplete("HTTP server stopped")

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logging.Error("Metrics server shutdown error: %v", err)
		}
		startup.LogShutdownStepComplete("Metrics server stopped")
	}

	cancel()
	svc.Stop()
	startup.LogShutdownStepComplete("Transcode workers stopped")

	startup.LogShutdownComplete()
}
