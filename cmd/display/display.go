package main

import (
	"net/url"
	"sync"

	"emperror.dev/errors"
	"github.com/je4/utils/v2/pkg/zLogger"
	"github.com/work6189/PoPlayers/pkg/browser"
	"github.com/work6189/PoPlayers/pkg/client"
	"github.com/work6189/PoPlayers/pkg/dom"
	"github.com/work6189/PoPlayers/pkg/player"
)

const (
	mainPlayer  = "main"
	containerID = "player"
)

// display owns the page shown in the browser and the players living in it.
// Navigating replaces the page, so the players are rebuilt afterwards.
type display struct {
	cfg      *DisplayConfig
	browser  *browser.Browser
	registry *player.Registry
	logger   zLogger.ZLogger

	mu     sync.Mutex
	doc    *browser.Document
	remote *client.Remote
}

func (d *display) open(u *url.URL) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeLocked()
	if err := d.browser.Navigate(u); err != nil {
		return errors.WithStack(err)
	}
	doc, err := browser.NewDocument(d.browser, d.logger)
	if err != nil {
		return errors.WithStack(err)
	}
	d.doc = doc
	p, err := d.registry.Create(mainPlayer, doc, dom.ID(containerID))
	if err != nil {
		return errors.Wrapf(err, "cannot create player on %s", u)
	}
	if src := d.cfg.media(); !src.IsZero() {
		p.Load(src)
	}
	if d.remote != nil {
		if err := d.remote.Attach(mainPlayer); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func (d *display) closeLocked() {
	if d.remote != nil {
		d.remote.Close()
	}
	d.registry.DestroyAll()
	if d.doc != nil {
		d.doc.Close()
		d.doc = nil
	}
}

func (d *display) navigate(u string) error {
	target, err := url.Parse(u)
	if err != nil {
		return errors.Wrapf(err, "invalid url %s", u)
	}
	return d.open(target)
}

func (d *display) setRemote(r *client.Remote) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.remote = r
	if _, ok := d.registry.Get(mainPlayer); !ok {
		return nil
	}
	return r.Attach(mainPlayer)
}

func (d *display) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeLocked()
}
