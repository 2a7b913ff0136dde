package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cardroom/tourneyd/internal/server"
	"github.com/cardroom/tourneyd/internal/session"
)

// ServeCmd runs the hosting server.
type ServeCmd struct {
	Config string `kong:"help='Path to HCL config file',type='path'"`
	Addr   string `kong:"help='Listen address override (host:port)'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	cfg := server.DefaultConfig()
	if c.Config != "" {
		loaded, err := server.LoadConfig(c.Config)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	addr := cfg.ListenAddr()
	if c.Addr != "" {
		addr = c.Addr
	}

	charm := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
	})
	level := zerolog.InfoLevel
	if c.Debug || cfg.Server.LogLevel == "debug" {
		charm.SetLevel(charmlog.DebugLevel)
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	manager := session.NewManager(zlog, quartz.NewReal(), cfg.ManagerConfig())
	gateway := server.NewServer(addr, manager, charm)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(gateway.Start)
	g.Go(func() error {
		err := manager.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-ctx.Done()
		charm.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := manager.Shutdown(shutdownCtx); err != nil {
			charm.Warn("games did not stop cleanly", "error", err)
		}
		return gateway.Stop()
	})

	return g.Wait()
}
