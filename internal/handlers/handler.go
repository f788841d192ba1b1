package handlers

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrDuplicate = errors.New("handler already registered")

// Handler is the base command every registered command satisfies. Slash
// support is layered on top by implementing the richer slash.Command.
type Handler interface {
	Name() string
	Description() string
}

type Base struct {
	name        string
	description string
}

func NewBase(name, description string) Base {
	return Base{name: name, description: description}
}

func (b Base) Name() string        { return b.name }
func (b Base) Description() string { return b.description }

// Registry keeps handlers in registration order. Lookup by name is
// case-insensitive.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
	index    map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

func (r *Registry) Register(hs ...Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range hs {
		key := strings.ToLower(h.Name())
		if key == "" {
			return fmt.Errorf("register %T: empty name", h)
		}
		if _, ok := r.index[key]; ok {
			return fmt.Errorf("register %s: %w", h.Name(), ErrDuplicate)
		}

		r.index[key] = len(r.handlers)
		r.handlers = append(r.handlers, h)
	}

	return nil
}

func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return r.handlers[i], true
}

// All returns a copy of the registered handlers in registration order.
func (r *Registry) All() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
