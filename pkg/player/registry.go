package player

import (
	"maps"
	"slices"
	"sync"

	"emperror.dev/errors"
	"github.com/work6189/PoPlayers/pkg/dom"
)

var ErrPlayerExists = errors.New("player already exists")

// Registry holds the named players of a host. It replaces any global
// registration: the host creates one and passes it to whoever needs access.
type Registry struct {
	sync.Mutex
	defaults []Option
	players  map[string]*Player
}

// NewRegistry returns a registry applying defaults before the options of every Create.
func NewRegistry(defaults ...Option) *Registry {
	return &Registry{
		defaults: defaults,
		players:  map[string]*Player{},
	}
}

func (r *Registry) Create(name string, doc dom.Document, ref dom.Ref, opts ...Option) (*Player, error) {
	r.Lock()
	defer r.Unlock()
	if _, ok := r.players[name]; ok {
		return nil, errors.Wrapf(ErrPlayerExists, "player %s", name)
	}
	p, err := New(doc, ref, slices.Concat(r.defaults, []Option{WithID(name)}, opts)...)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot create player %s", name)
	}
	r.players[name] = p
	return p, nil
}

func (r *Registry) Get(name string) (*Player, bool) {
	r.Lock()
	defer r.Unlock()
	p, ok := r.players[name]
	return p, ok
}

func (r *Registry) Names() []string {
	r.Lock()
	defer r.Unlock()
	return slices.Sorted(maps.Keys(r.players))
}

// Destroy tears down the named player and forgets it.
func (r *Registry) Destroy(name string) bool {
	r.Lock()
	p, ok := r.players[name]
	delete(r.players, name)
	r.Unlock()
	if !ok {
		return false
	}
	p.Destroy()
	return true
}

func (r *Registry) DestroyAll() {
	r.Lock()
	players := r.players
	r.players = map[string]*Player{}
	r.Unlock()
	for _, p := range players {
		p.Destroy()
	}
}
