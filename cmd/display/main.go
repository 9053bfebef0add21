package main

import (
	"context"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"emperror.dev/errors"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/work6189/PoPlayers/pkg/browser"
	"github.com/work6189/PoPlayers/pkg/client"
	"github.com/work6189/PoPlayers/pkg/controls"
	"github.com/work6189/PoPlayers/pkg/player"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		bootLogger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("cannot load config")
	}
	var console io.Writer = os.Stderr
	if cfg.TUI {
		console = nil
	}
	logger, closer, err := cfg.Log.Logger(console)
	if err != nil {
		bootLogger := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("cannot create logger")
	}
	defer closer.Close()
	if cfg.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	}
	logger.Info().Msgf("Starting display %s (player %s)", cfg.Name, player.Version)

	wsPath, err := url.JoinPath(cfg.ProxyAddr, cfg.Name)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create websocket path")
	}
	pageURL, err := url.Parse(cfg.PlayerURL)
	if err != nil {
		logger.Fatal().Err(err).Msgf("invalid player url %s", cfg.PlayerURL)
	}
	pageURL = pageURL.JoinPath(cfg.Name)

	logger.Info().Msgf("Connecting to websocket proxy server at %s", wsPath)
	conn, _, err := websocket.DefaultDialer.Dial(wsPath, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to websocket proxy server")
	}
	comm := client.NewCommunication(conn, cfg.Name, &logger)

	br, err := browser.NewBrowser(cfg.browserFlags(), &logger, func(s string, i ...interface{}) {
		logger.Debug().Msgf("browser: "+s, i...)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create browser")
	}
	defer br.Close()

	d := &display{
		cfg:     cfg,
		browser: br,
		registry: player.NewRegistry(
			player.WithConfig(cfg.Player),
			player.WithLogger(&logger),
			player.WithSurface(controls.Factory()),
		),
		logger: &logger,
	}
	defer d.close()
	if err := d.open(pageURL); err != nil {
		logger.Fatal().Err(err).Msg("Failed to open player page")
	}

	remote := client.NewRemote(d.registry, comm, cfg.Control, &logger,
		client.WithScreenshot(br.Screenshot),
		client.WithNavigate(d.navigate),
	)
	if err := d.setRemote(remote); err != nil {
		logger.Error().Err(err).Msg("Failed to attach remote")
	}
	comm.On(remote.Handle)
	if err := comm.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start communication")
	}
	defer func() {
		logger.Info().Msg("Closing communication")
		if err := comm.Stop(); err != nil {
			logger.Error().Err(err).Msg("Failed to stop communication")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		offset, err := comm.NTP(cfg.NTPTimeout)
		if err != nil {
			logger.Warn().Err(err).Msg("cannot query clock offset")
			return nil
		}
		logger.Info().Msgf("clock offset to proxy: %s", offset)
		return nil
	})
	if cfg.TUI {
		g.Go(func() error {
			model := controls.NewModel(cfg.Name, controls.Registered(d.registry, mainPlayer), &logger)
			prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			_, err := prog.Run()
			stop()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		})
	}
	<-ctx.Done()
	logger.Info().Msg("Received shutdown signal")
	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("display stopped with error")
	}
}
