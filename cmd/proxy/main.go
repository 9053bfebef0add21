package main

import (
	"context"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/work6189/PoPlayers/pkg/proxy"
	"github.com/work6189/PoPlayers/web"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		bootLogger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("cannot load config")
	}
	logger, closer, err := cfg.Log.Logger(os.Stderr)
	if err != nil {
		bootLogger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("cannot create logger")
	}
	defer closer.Close()

	var templateFS, staticFS fs.FS
	if cfg.WebFolder != "" {
		root := os.DirFS(cfg.WebFolder)
		templateFS, _ = fs.Sub(root, "templates")
		staticFS, _ = fs.Sub(root, "static")
	} else {
		if templateFS, err = web.Templates(); err != nil {
			logger.Fatal().Err(err).Msg("cannot open embedded templates")
		}
		if staticFS, err = web.Static(); err != nil {
			logger.Fatal().Err(err).Msg("cannot open embedded static files")
		}
	}
	tlsConfig, err := cfg.TLS.serverTLS()
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot load tls config")
	}

	srv, err := proxy.NewSocketServer(cfg.LocalAddr, cfg.NumWorkers, cfg.NTP, staticFS, templateFS, cfg.Debug, cfg.AllowInsecure, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create server")
	}
	if err := srv.Start(tlsConfig); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
	logger.Info().Msgf("player pages on %s/player/<name>, control on %s/control/<name>", cfg.ExternalAddr, cfg.ExternalAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("Received shutdown signal")
		return srv.Stop()
	})
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop server")
	}
}
