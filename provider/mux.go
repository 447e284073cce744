// Package provider maps credential types to the adapters that can serve
// them and hosts one sub-package per external integration.
package provider

import (
	"fmt"
	"sync"

	"github.com/guilherme-santos/bookcal/internal"
)

// Mux is the provider registry: a type-keyed lookup table isolating callers
// from provider enumeration. Unknown or legacy credential types resolve to
// nothing and are meant to be skipped, not treated as errors, so that
// credentials from retired integrations keep round-tripping harmlessly.
type Mux struct {
	mu        sync.Mutex
	calendars map[string]internal.Provider
	videos    map[string]internal.VideoProvider
}

func NewMux() *Mux {
	return &Mux{
		calendars: make(map[string]internal.Provider),
		videos:    make(map[string]internal.VideoProvider),
	}
}

func (m *Mux) RegisterCalendar(typ string, p internal.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calendars[typ] = p
}

func (m *Mux) RegisterVideo(typ string, p internal.VideoProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.videos[typ] = p
}

// Calendar resolves a calendar adapter by credential type.
func (m *Mux) Calendar(typ string) (internal.Provider, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.calendars[typ]
	return p, ok
}

// Video resolves a video adapter by credential type.
func (m *Mux) Video(typ string) (internal.VideoProvider, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.videos[typ]
	return p, ok
}

// Types returns every registered credential type, calendars first.
func (m *Mux) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, 0, len(m.calendars)+len(m.videos))
	for typ := range m.calendars {
		types = append(types, typ)
	}
	for typ := range m.videos {
		types = append(types, typ)
	}
	return types
}

// MustCalendar is Calendar for contexts where absence is a bug.
func (m *Mux) MustCalendar(typ string) (internal.Provider, error) {
	p, ok := m.Calendar(typ)
	if !ok {
		return nil, fmt.Errorf("calendar provider %q is not implemented", typ)
	}
	return p, nil
}
