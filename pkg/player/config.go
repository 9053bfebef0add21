package player

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"emperror.dev/errors"
	"github.com/BurntSushi/toml"
)

// Dimension is a CSS length. Plain numbers are pixels.
type Dimension string

// Px returns a pixel dimension.
func Px(n int) Dimension {
	return Dimension(strconv.Itoa(n))
}

// CSS renders the dimension as a CSS value.
func (d Dimension) CSS() string {
	s := strings.TrimSpace(string(d))
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s + "px"
	}
	return s
}

// UnmarshalTOML accepts numbers and strings.
func (d *Dimension) UnmarshalTOML(value any) error {
	switch v := value.(type) {
	case int64:
		*d = Dimension(strconv.FormatInt(v, 10))
	case float64:
		*d = Dimension(strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		*d = Dimension(v)
	default:
		return errors.Errorf("invalid dimension %v (%T)", value, value)
	}
	return nil
}

type Preload string

const (
	PreloadNone     Preload = "none"
	PreloadMetadata Preload = "metadata"
	PreloadAuto     Preload = "auto"
)

type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeDark    Theme = "dark"
	ThemeLight   Theme = "light"
)

// Config is the player configuration. It is copied into the player at
// construction and never changes afterwards.
type Config struct {
	Width         Dimension `toml:"width"`
	Height        Dimension `toml:"height"`
	Controls      bool      `toml:"controls"`
	Autoplay      bool      `toml:"autoplay"`
	Muted         bool      `toml:"muted"`
	Loop          bool      `toml:"loop"`
	Preload       Preload   `toml:"preload"`
	Poster        string    `toml:"poster"`
	PlaybackRates []float64 `toml:"playback_rates"`
	Volume        float64   `toml:"volume"`
	StartTime     float64   `toml:"start_time"`
	Theme         Theme     `toml:"theme"`
	Responsive    bool      `toml:"responsive"`
}

func DefaultConfig() Config {
	return Config{
		Width:         "100%",
		Height:        "100%",
		Controls:      true,
		Preload:       PreloadMetadata,
		PlaybackRates: []float64{0.5, 0.75, 1, 1.25, 1.5, 2},
		Volume:        1,
		Theme:         ThemeDefault,
		Responsive:    true,
	}
}

// DecodeConfig decodes a TOML document over the defaults.
func DecodeConfig(data string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "cannot decode player configuration")
	}
	return cfg, nil
}

func (c Config) clone() Config {
	c.PlaybackRates = slices.Clone(c.PlaybackRates)
	return c
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	invalid := func(field string, format string, args ...any) error {
		return &ConfigurationError{Field: field, Err: errors.Wrap(ErrInvalidConfig, fmt.Sprintf(format, args...))}
	}
	switch c.Preload {
	case PreloadNone, PreloadMetadata, PreloadAuto:
	default:
		return invalid("preload", "unknown preload strategy %q", c.Preload)
	}
	switch c.Theme {
	case ThemeDefault, ThemeDark, ThemeLight:
	default:
		return invalid("theme", "unknown theme %q", c.Theme)
	}
	if math.IsNaN(c.Volume) || c.Volume < 0 || c.Volume > 1 {
		return invalid("volume", "volume %v out of range [0,1]", c.Volume)
	}
	if math.IsNaN(c.StartTime) || c.StartTime < 0 {
		return invalid("start_time", "negative start time %v", c.StartTime)
	}
	for _, rate := range c.PlaybackRates {
		if math.IsNaN(rate) || rate <= 0 {
			return invalid("playback_rates", "invalid playback rate %v", rate)
		}
	}
	return nil
}
