package client

import (
	"context"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/work6189/PoPlayers/pkg/event"
	"github.com/work6189/PoPlayers/pkg/player"
)

const defaultPlayTimeout = 10 * time.Second

// Sender delivers payloads to a named target, usually a *Communication.
type Sender interface {
	SendData(data event.DataInterface, target string) error
}

type ScreenshotFunc func(width, height int, sigma float64) ([]byte, string, error)

type RemoteOption func(*Remote)

func WithScreenshot(fn ScreenshotFunc) RemoteOption {
	return func(r *Remote) { r.screenshot = fn }
}

// WithNavigate handles browser-navigate events.
func WithNavigate(fn func(u string) error) RemoteOption {
	return func(r *Remote) { r.navigate = fn }
}

func WithPlayTimeout(d time.Duration) RemoteOption {
	return func(r *Remote) { r.playTimeout = d }
}

// Remote executes player commands received from the proxy against the players
// of a registry and reports their events to the control target.
type Remote struct {
	registry    *player.Registry
	sender      Sender
	control     string
	logger      zLogger.ZLogger
	screenshot  ScreenshotFunc
	navigate    func(u string) error
	playTimeout time.Duration

	mu       sync.Mutex
	attached map[string]player.Listener
}

func NewRemote(registry *player.Registry, sender Sender, control string, logger zLogger.ZLogger, opts ...RemoteOption) *Remote {
	r := &Remote{
		registry:    registry,
		sender:      sender,
		control:     control,
		logger:      logger,
		playTimeout: defaultPlayTimeout,
		attached:    map[string]player.Listener{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach forwards every domain event of the named player to the control
// target and sends an initial state.
func (r *Remote) Attach(name string) error {
	p, ok := r.registry.Get(name)
	if !ok {
		return errors.Errorf("unknown player %s", name)
	}
	r.mu.Lock()
	if _, ok := r.attached[name]; ok {
		r.mu.Unlock()
		return nil
	}
	l := player.Handler(func(evt player.Event) {
		r.send(event.NewPlayerEvent(name, evt), r.control)
	})
	r.attached[name] = l
	r.mu.Unlock()

	for _, evt := range player.Events {
		p.On(evt, l)
	}
	r.send(event.NewPlayerState(name, p.State()), r.control)
	return nil
}

func (r *Remote) Detach(name string) {
	r.mu.Lock()
	l, ok := r.attached[name]
	delete(r.attached, name)
	r.mu.Unlock()
	if !ok {
		return
	}
	p, ok := r.registry.Get(name)
	if !ok {
		return
	}
	for _, evt := range player.Events {
		p.Off(evt, l)
	}
}

func (r *Remote) Close() {
	r.mu.Lock()
	names := make([]string, 0, len(r.attached))
	for name := range r.attached {
		names = append(names, name)
	}
	r.mu.Unlock()
	for _, name := range names {
		r.Detach(name)
	}
}

func (r *Remote) send(data event.DataInterface, target string) {
	if err := r.sender.SendData(data, target); err != nil {
		r.logger.Error().Err(err).Msgf("cannot send %s to %s", data.Type(), target)
	}
}

// Handle is the receiver function for Communication.On.
func (r *Remote) Handle(evt *event.Event) {
	switch evt.GetType() {
	case event.TypeBrowserNavigate:
		data, err := evt.GetData()
		if err != nil {
			r.logger.Error().Err(err).Msg("invalid navigate event")
			return
		}
		u, _ := data.(string)
		if r.navigate == nil {
			r.logger.Warn().Msgf("navigation to %s not supported", u)
			return
		}
		if err := r.navigate(u); err != nil {
			r.logger.Error().Err(err).Msgf("cannot navigate to %s", u)
		}
	case event.TypePlayerCommand:
		cmd, err := evt.Command()
		if err != nil {
			r.logger.Error().Err(err).Msg("invalid player command")
			return
		}
		replyTo := evt.GetSource()
		if replyTo == "" {
			replyTo = r.control
		}
		if err := r.Execute(cmd, replyTo); err != nil {
			r.logger.Error().Err(err).Msgf("cannot execute %s", cmd)
		}
	default:
		r.logger.Debug().Msgf("ignoring %s event from %s", evt.GetType(), evt.GetSource())
	}
}

// Execute runs cmd. State and screenshot answers go to replyTo.
func (r *Remote) Execute(cmd *event.Command, replyTo string) error {
	if cmd.Action == event.ActionScreenshot {
		if r.screenshot == nil {
			return errors.New("screenshots not supported")
		}
		data, mime, err := r.screenshot(cmd.Width, cmd.Height, cmd.Sigma)
		if err != nil {
			return errors.WithStack(err)
		}
		r.send(&event.Screenshot{Player: cmd.Player, MimeType: mime, Data: data}, replyTo)
		return nil
	}

	p, ok := r.registry.Get(cmd.Player)
	if !ok {
		return errors.Errorf("unknown player %s", cmd.Player)
	}
	r.logger.Debug().Msgf("player command %s", cmd)
	switch cmd.Action {
	case event.ActionPlay:
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), r.playTimeout)
			defer cancel()
			if err := p.Play(ctx); err != nil {
				r.logger.Warn().Err(err).Msgf("player %s did not start", cmd.Player)
			}
		}()
	case event.ActionPause:
		p.Pause()
	case event.ActionStop:
		p.Stop()
	case event.ActionLoad:
		src := cmd.MediaSource()
		if src.IsZero() {
			return errors.Errorf("load of %s without source", cmd.Player)
		}
		p.Load(src)
	case event.ActionSeek:
		p.Seek(cmd.Value)
	case event.ActionVolume:
		p.SetVolume(cmd.Value)
	case event.ActionRate:
		if cmd.Value <= 0 {
			return errors.Errorf("invalid playback rate %v", cmd.Value)
		}
		p.SetPlaybackRate(cmd.Value)
	case event.ActionFullscreen:
		p.EnterFullscreen()
	case event.ActionExitFullscreen:
		p.ExitFullscreen()
	case event.ActionState:
		r.send(event.NewPlayerState(cmd.Player, p.State()), replyTo)
	case event.ActionDestroy:
		r.Detach(cmd.Player)
		r.registry.Destroy(cmd.Player)
	default:
		return errors.Errorf("unknown action %q", cmd.Action)
	}
	return nil
}
