// Package availability collects busy time across every provider a user has
// connected, for conflict checks before a booking is created.
package availability

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guilherme-santos/bookcal/internal"
)

// Registry resolves credential types to adapters; unknown types are skipped.
type Registry interface {
	Calendar(typ string) (internal.Provider, bool)
	Video(typ string) (internal.VideoProvider, bool)
}

// DefaultMaxInFlight bounds how many provider calls run at once during the
// fan-out. Provider APIs rate-limit aggressively and the caller's outbound
// pool is finite, so the bound is explicit configuration, not an accident of
// scheduling.
const DefaultMaxInFlight = 5

type Aggregator struct {
	log         *slog.Logger
	reg         Registry
	maxInFlight int
}

type Option func(*Aggregator)

// WithMaxInFlight overrides the fan-out concurrency bound.
func WithMaxInFlight(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.maxInFlight = n
		}
	}
}

func New(log *slog.Logger, reg Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		log:         log,
		reg:         reg,
		maxInFlight: DefaultMaxInFlight,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// BusyTimes fans the query out across every resolvable credential and
// flattens the answers into one list ordered by start. A provider failing,
// token refresh included, contributes nothing instead of aborting the whole
// aggregation.
func (a *Aggregator) BusyTimes(ctx context.Context, creds []internal.Credential, from, to time.Time, selected []internal.SelectedCalendar) []internal.Busy {
	var (
		mu   sync.Mutex
		busy []internal.Busy
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxInFlight)

	for _, cred := range creds {
		g.Go(func() error {
			intervals, err := a.providerBusyTimes(ctx, cred, from, to, selected)
			if err != nil {
				a.log.Warn("provider availability degraded to empty", "type", cred.Type, "err", err)
				return nil
			}
			mu.Lock()
			busy = append(busy, intervals...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors, they degrade

	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy
}

func (a *Aggregator) providerBusyTimes(ctx context.Context, cred internal.Credential, from, to time.Time, selected []internal.SelectedCalendar) ([]internal.Busy, error) {
	switch {
	case cred.IsCalendar():
		p, ok := a.reg.Calendar(cred.Type)
		if !ok {
			return nil, nil
		}
		return p.BusyTimes(ctx, from, to, selected)
	case cred.IsVideo():
		p, ok := a.reg.Video(cred.Type)
		if !ok {
			return nil, nil
		}
		return p.BusyTimes(ctx, from, to)
	default:
		return nil, nil
	}
}
