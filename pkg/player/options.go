package player

import (
	"slices"

	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/jonboulle/clockwork"
)

type settings struct {
	cfg     Config
	id      string
	logger  zLogger.ZLogger
	clock   clockwork.Clock
	surface SurfaceFactory
}

type Option func(*settings)

// WithConfig replaces the whole configuration. Options given later still apply.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg.clone() }
}

func WithWidth(d Dimension) Option {
	return func(s *settings) { s.cfg.Width = d }
}

func WithHeight(d Dimension) Option {
	return func(s *settings) { s.cfg.Height = d }
}

func WithControls(enabled bool) Option {
	return func(s *settings) { s.cfg.Controls = enabled }
}

func WithAutoplay(enabled bool) Option {
	return func(s *settings) { s.cfg.Autoplay = enabled }
}

func WithMuted(muted bool) Option {
	return func(s *settings) { s.cfg.Muted = muted }
}

func WithLoop(loop bool) Option {
	return func(s *settings) { s.cfg.Loop = loop }
}

func WithPreload(p Preload) Option {
	return func(s *settings) { s.cfg.Preload = p }
}

func WithPoster(url string) Option {
	return func(s *settings) { s.cfg.Poster = url }
}

func WithPlaybackRates(rates ...float64) Option {
	return func(s *settings) { s.cfg.PlaybackRates = slices.Clone(rates) }
}

func WithVolume(v float64) Option {
	return func(s *settings) { s.cfg.Volume = v }
}

func WithStartTime(seconds float64) Option {
	return func(s *settings) { s.cfg.StartTime = seconds }
}

func WithTheme(t Theme) Option {
	return func(s *settings) { s.cfg.Theme = t }
}

func WithResponsive(responsive bool) Option {
	return func(s *settings) { s.cfg.Responsive = responsive }
}

// WithID sets the instance id. A random id is generated otherwise.
func WithID(id string) Option {
	return func(s *settings) { s.id = id }
}

func WithLogger(logger zLogger.ZLogger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithClock sets the clock of the timeupdate throttle and of the control surface.
func WithClock(clock clockwork.Clock) Option {
	return func(s *settings) { s.clock = clock }
}

// WithSurface installs the factory of the control surface built when
// Config.Controls is set.
func WithSurface(factory SurfaceFactory) Option {
	return func(s *settings) { s.surface = factory }
}
