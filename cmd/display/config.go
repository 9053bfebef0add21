package main

import (
	"flag"
	"path/filepath"
	"time"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/work6189/PoPlayers/config"
	"github.com/work6189/PoPlayers/pkg/event"
	"github.com/work6189/PoPlayers/pkg/player"
)

var name = flag.String("name", "", "name of the display")
var proxyAddr = flag.String("proxy", "", "address of the websocket proxy server")
var debug = flag.Bool("debug", false, "debug mode")
var configPath = flag.String("config", "", "path to config file")
var playerURL = flag.String("player", "", "url of the player page")
var noKiosk = flag.Bool("no-kiosk", false, "disable kiosk")
var tui = flag.Bool("tui", false, "show terminal controls")
var src = flag.String("src", "", "media to load at startup")

type MediaConfig struct {
	Src     string         `toml:"src"`
	Sources []event.Source `toml:"sources"`
}

type DisplayConfig struct {
	ProxyAddr  string                 `toml:"proxy"`
	Name       string                 `toml:"name"`
	PlayerURL  string                 `toml:"player_url"`
	Control    string                 `toml:"control"`
	Kiosk      bool                   `toml:"kiosk"`
	Debug      bool                   `toml:"debug"`
	TUI        bool                   `toml:"tui"`
	NTPTimeout time.Duration          `toml:"ntp_timeout"`
	Browser    map[string]interface{} `toml:"browser"`
	Player     player.Config          `toml:"player"`
	Media      MediaConfig            `toml:"media"`
	Log        config.LogConfig       `toml:"log"`
}

// configFile returns the -config path or poplayers/display.toml from the
// XDG config directories.
func configFile() string {
	if *configPath != "" {
		return *configPath
	}
	path, err := xdg.SearchConfigFile(filepath.Join("poplayers", "display.toml"))
	if err != nil {
		return ""
	}
	return path
}

// defaultConfig decodes the embedded display.toml.
func defaultConfig() (*DisplayConfig, error) {
	cfg := &DisplayConfig{Player: player.DefaultConfig()}
	if _, err := toml.Decode(string(config.DisplayToml), cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load default config")
	}
	return cfg, nil
}

func loadConfig() (*DisplayConfig, error) {
	flag.Parse()
	// fill the default values
	cfg, err := defaultConfig()
	if err != nil {
		return nil, err
	}
	if path := configFile(); path != "" {
		// enhance it with the external file
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to load config from %s", path)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			cfg.Name = *name
		case "debug":
			cfg.Debug = *debug
		case "proxy":
			cfg.ProxyAddr = *proxyAddr
		case "player":
			cfg.PlayerURL = *playerURL
		case "no-kiosk":
			cfg.Kiosk = !*noKiosk
		case "tui":
			cfg.TUI = *tui
		case "src":
			cfg.Media.Src = *src
		}
	})
	if cfg.Name == "" {
		return nil, errors.New("display name missing")
	}
	if cfg.Control == "" {
		cfg.Control = event.ControlGroup(cfg.Name)
	}
	if err := cfg.Player.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid player config")
	}
	return cfg, nil
}

func (cfg *DisplayConfig) browserFlags() map[string]interface{} {
	flags := make(map[string]interface{}, len(cfg.Browser)+1)
	for k, v := range cfg.Browser {
		flags[k] = v
	}
	flags["kiosk"] = cfg.Kiosk
	return flags
}

func (cfg *DisplayConfig) media() player.Source {
	if len(cfg.Media.Sources) > 0 {
		cmd := &event.Command{Sources: cfg.Media.Sources}
		return cmd.MediaSource()
	}
	return player.URL(cfg.Media.Src)
}
