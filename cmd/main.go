package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"blogweb/db"
	"blogweb/internal/blogapi"
	"blogweb/internal/config"
	"blogweb/internal/eventlog"
	"blogweb/internal/session"
	"blogweb/internal/web"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "blogweb: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	zl, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer zl.Sync() // flushes buffer, if any
	logger := zl.Sugar()

	logger.Infow("starting blog frontend",
		"pid", os.Getpid(),
		"runtime", runtime.GOOS+"/"+runtime.GOARCH,
		"go", runtime.Version(),
		"api_url", cfg.APIURL,
	)

	sqliteDB, err := db.ConnectToSQLite(cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer sqliteDB.Close()

	if err := db.InitializeSchema(sqliteDB); err != nil {
		return err
	}
	logger.Infow("activity log ready", "path", cfg.SQLitePath)

	repoFactory := db.NewRepositoryFactory(sqliteDB)
	eventLogService := eventlog.NewEventLogService(repoFactory.NewEventLogRepository(), logger)

	apiClient := blogapi.NewClient(cfg.APIURL, cfg.APITimeout, logger)
	sessionStore := session.NewStore(cfg.SessionSecret, cfg.CookieSecure, logger)
	monitor := session.NewMonitor(sessionStore, cfg.SessionCheckInterval, eventLogService, logger)

	webHandler, err := web.NewWebHandler(apiClient, sessionStore, monitor, eventLogService, cfg, logger)
	if err != nil {
		return err
	}

	// Request contexts derive from baseCtx so open session streams end on shutdown.
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           webHandler.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("server is listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	return waitForShutdown(server, serverErr, cancelRequests, logger)
}

func waitForShutdown(server *http.Server, serverErr <-chan error, cancelRequests context.CancelFunc, logger *zap.SugaredLogger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Infow("received shutdown signal", "signal", sig.String())
	}

	cancelRequests()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("graceful shutdown timed out, closing connections", "error", err)
		return server.Close()
	}
	logger.Info("server stopped")
	return nil
}
