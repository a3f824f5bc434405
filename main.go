package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/seo-optimizer/scoring/analyzer"
	"github.com/seo-optimizer/scoring/logging"
	"github.com/seo-optimizer/scoring/metrics"
	"github.com/seo-optimizer/scoring/middleware"
)

func loadEnv() {
	// Try .env.development first (for local development), then .env
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment variables")
		}
	}
}

func setupGinMode() {
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && v > 0 {
		return v
	}
	return def
}

func loadEngine(logger *zap.Logger) (*analyzer.Engine, error) {
	path := os.Getenv("ENGINE_CONFIG")
	if path == "" {
		return analyzer.NewEngine(analyzer.DefaultConfig()), nil
	}
	cfg, err := analyzer.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded engine config", zap.String("path", path), zap.Int("footprints", len(cfg.Footprints)))
	return analyzer.NewEngine(cfg), nil
}

func main() {
	loadEnv()
	setupGinMode()

	logger, err := logging.NewLogger(os.Getenv(logging.ENV_DEV_MODE) == "true")
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	dataDir := envString("DATA_DIR", "data")

	engine, err := loadEngine(logger)
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	collector := metrics.New()
	seoAnalyzer, err := analyzer.New(dataDir, engine, logger, analyzer.WithMetrics(collector))
	if err != nil {
		return err
	}
	defer seoAnalyzer.Close()

	stats, err := logging.NewStatistics(filepath.Join(dataDir, "statistics.json"))
	if err != nil {
		logger.Warn("Could not load existing statistics", zap.Error(err))
	}

	rateLimiter := middleware.NewRateLimiter(
		envFloat("RATE_LIMIT_RPS", 2),
		int(envFloat("RATE_LIMIT_BURST", 5)),
		collector,
	)

	s := &server{
		analyzer:    seoAnalyzer,
		stats:       stats,
		metrics:     collector,
		rateLimiter: rateLimiter,
		logger:      logger,
		started:     time.Now(),
	}

	port := envString("PORT", "8082")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rateLimiter.Prune()
			case <-ctx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("address", "http://localhost:"+port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := stats.Save(); err != nil {
		logger.Warn("Could not save statistics", zap.Error(err))
	}
	return nil
}
