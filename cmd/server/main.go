package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"todolist/backend/internal/config"
	"todolist/backend/internal/handler"
	transport "todolist/backend/internal/http"
	"todolist/backend/internal/logger"
	"todolist/backend/internal/notify"
	"todolist/backend/internal/scheduler"
	"todolist/backend/internal/service"
	"todolist/backend/internal/snowflake"
)

// @title Todo List API
// @version 1.0
// @description REST backend for a shared todo list with delta polling and a WebSocket update channel.
// @BasePath /

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		logger.Error("server exited", "module", "server", "action", "run", "resource", "process", "result", "failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		// logger defaults are fine for reporting a bad config
		return err
	}
	logger.Init(logger.ParseLevel(cfg.LogLevel))

	if err := snowflake.Init(cfg.NodeID); err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := notify.NewHub(notify.WithTokenTTL(cfg.ChannelTokenTTL))
	defer hub.Close()

	entryService := service.NewEntryService(st.entries, hub)
	purgeService := service.NewPurgeService(st.entries, cfg.Retention)

	router := transport.NewRouter(
		handler.NewEntryHandler(entryService),
		handler.NewChannelHandler(hub),
		handler.NewHealthHandler(st.db),
		transport.RouterOptions{
			StaticDir:    cfg.StaticDir,
			RateLimitQPS: cfg.RateLimitQPS,
		},
	)

	sched := scheduler.New(purgeService, cfg.PurgeInterval)
	sched.Start()
	defer sched.Stop()

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	if cfg.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.MaxConnections)
	}

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", "module", "server", "action", "start", "resource", "http", "result", "ok",
			"addr", listener.Addr().String(), "driver", cfg.DBDriver, "version", config.AppVersion)
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down", "module", "server", "action", "stop", "resource", "http", "result", "ok")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// hijacked update sockets are not tracked by Shutdown
		hub.Close()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
