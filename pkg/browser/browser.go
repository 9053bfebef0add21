// Package browser drives a kiosk Chrome through the DevTools protocol and
// exposes the loaded page as a dom.Document.
package browser

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"net/url"
	"strings"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/disintegration/imaging"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/sahmad98/go-ringbuffer"
)

const consoleLines = 100

type Browser struct {
	sync.Mutex
	opts        []chromedp.ExecAllocatorOption
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	logger      zLogger.ZLogger
	logf        func(string, ...interface{})

	logMu   sync.Mutex
	console *ringbuffer.RingBuffer

	// doc receives the binding calls of the page.
	docMu sync.Mutex
	doc   *Document
}

// NewBrowser prepares a browser with the given Chrome flags. Chrome is started
// by Startup or Run.
func NewBrowser(flags map[string]interface{}, logger zLogger.ZLogger, logf func(string, ...interface{})) (*Browser, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range flags {
		switch v := value.(type) {
		case bool, string:
			opts = append(opts, chromedp.Flag(name, v))
		case int, int64, float64:
			opts = append(opts, chromedp.Flag(name, fmt.Sprint(v)))
		default:
			return nil, errors.Errorf("invalid type %T of browser flag %s", value, name)
		}
	}
	if logf == nil {
		logf = func(format string, args ...interface{}) {
			logger.Debug().Msgf(format, args...)
		}
	}
	return &Browser{
		opts:    opts,
		logger:  logger,
		logf:    logf,
		console: ringbuffer.NewRingBuffer(consoleLines),
	}, nil
}

func (b *Browser) IsRunning() bool {
	b.Lock()
	defer b.Unlock()
	return b.ctx != nil && b.ctx.Err() == nil
}

// Startup launches Chrome. A running instance is closed first.
func (b *Browser) Startup() error {
	b.Close()
	b.Lock()
	defer b.Unlock()

	b.allocCtx, b.cancelAlloc = chromedp.NewExecAllocator(context.Background(), b.opts...)
	b.ctx, b.cancel = chromedp.NewContext(b.allocCtx, chromedp.WithLogf(b.logf))
	chromedp.ListenTarget(b.ctx, b.targetListener)
	if err := chromedp.Run(b.ctx); err != nil {
		b.cancel()
		b.cancelAlloc()
		b.ctx = nil
		return errors.Wrap(err, "cannot start browser")
	}
	b.logger.Info().Msg("browser started")
	return nil
}

// Run starts Chrome unless it is already running.
func (b *Browser) Run() error {
	if b.IsRunning() {
		return nil
	}
	return b.Startup()
}

func (b *Browser) context() (context.Context, error) {
	b.Lock()
	defer b.Unlock()
	if b.ctx == nil || b.ctx.Err() != nil {
		return nil, errors.New("browser not running")
	}
	return b.ctx, nil
}

// Context returns the chromedp context of the running browser.
func (b *Browser) Context() (context.Context, error) {
	return b.context()
}

func (b *Browser) Tasks(tasks chromedp.Tasks) error {
	return b.TasksContext(context.Background(), tasks)
}

// TasksContext runs tasks until they finish or ctx is done.
func (b *Browser) TasksContext(ctx context.Context, tasks chromedp.Tasks) error {
	bctx, err := b.context()
	if err != nil {
		return errors.WithStack(err)
	}
	runCtx, cancel := context.WithCancel(bctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(runCtx, tasks); err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "browser task aborted")
		}
		return errors.Wrap(err, "cannot run browser tasks")
	}
	return nil
}

func (b *Browser) Navigate(u *url.URL) error {
	if err := b.Run(); err != nil {
		return err
	}
	if err := b.Tasks(chromedp.Tasks{chromedp.Navigate(u.String())}); err != nil {
		return errors.Wrapf(err, "cannot navigate to %s", u)
	}
	return nil
}

// MouseClick clicks at page coordinates.
func (b *Browser) MouseClick(x, y float64, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := b.TasksContext(ctx, chromedp.Tasks{chromedp.MouseClickXY(x, y)}); err != nil {
		return errors.Wrapf(err, "cannot click %v/%v", x, y)
	}
	return nil
}

// Screenshot captures the viewport, fits it into width x height, blurs it
// with sigma if sigma > 0 and returns it as JPEG.
func (b *Browser) Screenshot(width, height int, sigma float64) ([]byte, string, error) {
	var buf []byte
	if err := b.Tasks(chromedp.Tasks{chromedp.CaptureScreenshot(&buf)}); err != nil {
		return nil, "", errors.Wrap(err, "cannot capture screenshot")
	}
	data, err := scaleJPEG(buf, width, height, sigma)
	if err != nil {
		return nil, "", err
	}
	return data, "image/jpeg", nil
}

func scaleJPEG(buf []byte, width, height int, sigma float64) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, errors.Wrap(err, "cannot decode screenshot")
	}
	if width > 0 && height > 0 {
		img = imaging.Fit(img, width, height, imaging.Lanczos)
	}
	if sigma > 0 {
		img = imaging.Blur(img, sigma)
	}
	out := &bytes.Buffer{}
	if err := imaging.Encode(out, img, imaging.JPEG); err != nil {
		return nil, errors.Wrap(err, "cannot encode screenshot")
	}
	return out.Bytes(), nil
}

func (b *Browser) setDocument(d *Document) {
	b.docMu.Lock()
	defer b.docMu.Unlock()
	b.doc = d
}

// releaseDocument forgets d unless another document replaced it already.
func (b *Browser) releaseDocument(d *Document) {
	b.docMu.Lock()
	defer b.docMu.Unlock()
	if b.doc == d {
		b.doc = nil
	}
}

func (b *Browser) targetListener(ev interface{}) {
	switch ev := ev.(type) {
	case *runtime.EventBindingCalled:
		b.docMu.Lock()
		d := b.doc
		b.docMu.Unlock()
		if d != nil {
			d.binding(ev)
		}
	case *runtime.EventConsoleAPICalled:
		args := make([]string, 0, len(ev.Args))
		for _, arg := range ev.Args {
			if len(arg.Value) > 0 {
				args = append(args, string(arg.Value))
			} else {
				args = append(args, arg.Description)
			}
		}
		b.writeLog("console.%s: %s", ev.Type, strings.Join(args, " "))
	case *runtime.EventExceptionThrown:
		b.writeLog("exception: %s", ev.ExceptionDetails.Error())
	}
}

func (b *Browser) writeLog(format string, a ...interface{}) {
	b.logMu.Lock()
	defer b.logMu.Unlock()
	b.console.Write(fmt.Sprintf(format, a...))
}

// Log returns the last console lines of the page.
func (b *Browser) Log() []string {
	b.logMu.Lock()
	defer b.logMu.Unlock()
	result := []string{}
	b.console.Reader = b.console.Writer
	var i int32
	for ; i < b.console.Size; i++ {
		elem := b.console.Read()
		str, ok := elem.(string)
		if !ok {
			continue
		}
		result = append(result, str)
	}
	return result
}

func (b *Browser) Close() {
	b.Lock()
	defer b.Unlock()
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
	if b.cancelAlloc != nil {
		b.cancelAlloc()
		b.cancelAlloc = nil
	}
	b.ctx = nil
}
