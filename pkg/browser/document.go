package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"emperror.dev/errors"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/work6189/PoPlayers/pkg/dom"
	"github.com/work6189/PoPlayers/pkg/fullscreen"
)

//go:embed prelude.js
var prelude string

const (
	bindingName = "poplayersEvent"
	eventQueue  = 256
)

type bindingPayload struct {
	Lid      string  `json:"lid"`
	Type     string  `json:"type"`
	Code     string  `json:"code"`
	Fraction float64 `json:"fraction"`
	Value    string  `json:"value"`
}

// Document is the page currently loaded in the browser. It stays valid until
// the browser navigates away.
//
// DOM events reach Go listeners on a single dispatcher goroutine, never on
// the chromedp event loop, so listeners may call back into the page.
type Document struct {
	browser    *Browser
	logger     zLogger.ZLogger
	fullscreen *fullscreenAPI

	mu        sync.Mutex
	listeners map[string]func(dom.Event)

	events chan string
	done   chan struct{}
	once   sync.Once
}

// NewDocument installs the page helpers and the event binding into the
// current page of b.
func NewDocument(b *Browser, logger zLogger.ZLogger) (*Document, error) {
	if _, err := b.context(); err != nil {
		return nil, errors.WithStack(err)
	}
	d := &Document{
		browser:   b,
		logger:    logger,
		listeners: map[string]func(dom.Event){},
		events:    make(chan string, eventQueue),
		done:      make(chan struct{}),
	}
	var installed bool
	if err := b.Tasks(chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := runtime.AddBinding(bindingName).Do(ctx); err != nil {
				return errors.Wrap(err, "cannot add binding")
			}
			if _, err := page.AddScriptToEvaluateOnNewDocument(prelude).Do(ctx); err != nil {
				return errors.Wrap(err, "cannot add prelude")
			}
			return nil
		}),
		chromedp.Evaluate(prelude+";true", &installed),
	}); err != nil {
		return nil, errors.Wrap(err, "cannot install page helpers")
	}

	var found string
	if err := d.call(&found, "probe", fullscreen.EnabledProperties()); err != nil {
		return nil, errors.Wrap(err, "cannot probe fullscreen api")
	}
	api, ok := fullscreen.Probe(func(property string) bool { return property == found })
	d.fullscreen = &fullscreenAPI{doc: d, api: api, supported: ok}
	logger.Debug().Str("fullscreen", api.Name).Bool("supported", ok).Msg("page attached")

	b.setDocument(d)
	go d.dispatch()
	return d, nil
}

func (d *Document) binding(called *runtime.EventBindingCalled) {
	if called.Name != bindingName {
		return
	}
	select {
	case <-d.done:
	case d.events <- called.Payload:
	default:
		d.logger.Warn().Msg("dom event queue full, dropping event")
	}
}

func (d *Document) dispatch() {
	for {
		select {
		case <-d.done:
			return
		case raw := <-d.events:
			var payload bindingPayload
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				d.logger.Error().Err(err).Str("payload", raw).Msg("cannot decode dom event")
				continue
			}
			d.mu.Lock()
			fn, ok := d.listeners[payload.Lid]
			d.mu.Unlock()
			if !ok {
				continue
			}
			fn(dom.Event{Type: payload.Type, Code: payload.Code, Fraction: payload.Fraction, Value: payload.Value})
		}
	}
}

// Close stops event delivery.
func (d *Document) Close() {
	d.once.Do(func() {
		if d.browser != nil {
			d.browser.releaseDocument(d)
		}
		close(d.done)
	})
}

func callExpr(fn string, args ...any) (string, error) {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			return "", errors.Wrapf(err, "cannot marshal argument of %s", fn)
		}
		parts = append(parts, string(data))
	}
	return fmt.Sprintf("window.__poplayers.%s(%s)", fn, strings.Join(parts, ",")), nil
}

func (d *Document) call(res any, fn string, args ...any) error {
	return d.callContext(context.Background(), res, fn, nil, args...)
}

func (d *Document) callContext(ctx context.Context, res any, fn string, opts []chromedp.EvaluateOption, args ...any) error {
	expr, err := callExpr(fn, args...)
	if err != nil {
		return err
	}
	if res == nil {
		var ok bool
		res = &ok
	}
	if err := d.browser.TasksContext(ctx, chromedp.Tasks{chromedp.Evaluate(expr, res, opts...)}); err != nil {
		return errors.Wrapf(err, "%s failed", fn)
	}
	return nil
}

// awaitPromise is used for calls returning a promise which resolves to an
// error message, empty on success.
func (d *Document) awaitPromise(ctx context.Context, gesture bool, fn string, args ...any) error {
	var msg string
	opts := []chromedp.EvaluateOption{func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true).WithUserGesture(gesture)
	}}
	if err := d.callContext(ctx, &msg, fn, opts, args...); err != nil {
		return err
	}
	if msg != "" {
		return errors.New(msg)
	}
	return nil
}

func (d *Document) listen(target, eventType string, fn func(dom.Event)) func() {
	lid := uuid.NewString()
	d.mu.Lock()
	d.listeners[lid] = fn
	d.mu.Unlock()
	if err := d.call(nil, "listen", target, eventType, lid); err != nil {
		d.logger.Error().Err(err).Str("target", target).Str("event", eventType).Msg("cannot add event listener")
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.listeners, lid)
			d.mu.Unlock()
			if err := d.call(nil, "unlisten", lid); err != nil {
				d.logger.Debug().Err(err).Str("event", eventType).Msg("cannot remove event listener")
			}
		})
	}
}

func (d *Document) ElementByID(id string) (dom.Element, bool) {
	var tag string
	if err := d.call(&tag, "lookup", id); err != nil {
		d.logger.Error().Err(err).Str("id", id).Msg("cannot look up element")
		return nil, false
	}
	if tag == "" {
		return nil, false
	}
	el := &element{doc: d, id: id, tag: tag}
	if tag == "video" || tag == "audio" {
		return &media{element: el}, true
	}
	return el, true
}

func (d *Document) create(tag, class string) (*element, error) {
	id := "pp-" + uuid.NewString()
	if err := d.call(nil, "create", id, tag, class); err != nil {
		return nil, errors.Wrapf(err, "cannot create %s", tag)
	}
	return &element{doc: d, id: id, tag: tag}, nil
}

func (d *Document) CreateElement(tag, class string) (dom.Element, error) {
	if tag == "" {
		return nil, errors.New("empty tag name")
	}
	return d.create(tag, class)
}

func (d *Document) CreateMedia(tag, class string) (dom.MediaElement, error) {
	if tag != "video" && tag != "audio" {
		return nil, errors.Errorf("%s is not a media element", tag)
	}
	el, err := d.create(tag, class)
	if err != nil {
		return nil, err
	}
	return &media{element: el}, nil
}

func (d *Document) AddEventListener(eventType string, fn func(dom.Event)) func() {
	return d.listen("", eventType, fn)
}

func (d *Document) Fullscreen() dom.Fullscreen {
	return d.fullscreen
}

var _ dom.Document = (*Document)(nil)

type fullscreenAPI struct {
	doc       *Document
	api       fullscreen.API
	supported bool
}

func (f *fullscreenAPI) Supported() bool {
	return f.supported
}

func (f *fullscreenAPI) Request(el dom.Element) error {
	if !f.supported {
		return errors.New("fullscreen is not supported")
	}
	return f.doc.awaitPromise(context.Background(), true, "fsRequest", el.ID(), f.api.Request)
}

func (f *fullscreenAPI) Exit() error {
	if !f.supported {
		return errors.New("fullscreen is not supported")
	}
	return f.doc.awaitPromise(context.Background(), true, "fsExit", f.api.Exit)
}

func (f *fullscreenAPI) IsFullscreen() bool {
	if !f.supported {
		return false
	}
	var active bool
	if err := f.doc.call(&active, "fsActive", f.api.Element); err != nil {
		f.doc.logger.Error().Err(err).Msg("cannot read fullscreen state")
		return false
	}
	return active
}

func (f *fullscreenAPI) OnChange(fn func(fullscreen bool)) func() {
	if !f.supported {
		return func() {}
	}
	return f.doc.listen("", f.api.ChangeEvent, func(dom.Event) {
		fn(f.IsFullscreen())
	})
}
