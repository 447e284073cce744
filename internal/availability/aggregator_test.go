package availability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/bookcal/internal"
)

type stubCalendar struct {
	busy []internal.Busy
	err  error

	// entered/exited observe concurrency when set.
	enter func()
	exit  func()
}

func (p *stubCalendar) CreateEvent(ctx context.Context, ev *internal.CalendarEvent) (*internal.ProviderEvent, error) {
	return nil, nil
}

func (p *stubCalendar) UpdateEvent(ctx context.Context, uid string, ev *internal.CalendarEvent) (*internal.ProviderEvent, error) {
	return nil, nil
}

func (p *stubCalendar) DeleteEvent(ctx context.Context, uid string) error { return nil }

func (p *stubCalendar) BusyTimes(ctx context.Context, from, to time.Time, selected []internal.SelectedCalendar) ([]internal.Busy, error) {
	if p.enter != nil {
		p.enter()
	}
	if p.exit != nil {
		defer p.exit()
	}
	return p.busy, p.err
}

func (p *stubCalendar) Calendars(ctx context.Context) ([]internal.Calendar, error) { return nil, nil }

type stubVideo struct {
	busy []internal.Busy
	err  error
}

func (v *stubVideo) CreateMeeting(ctx context.Context, ev *internal.CalendarEvent) (*internal.VideoCallData, error) {
	return nil, nil
}

func (v *stubVideo) UpdateMeeting(ctx context.Context, ref internal.PartialReference, ev *internal.CalendarEvent) (*internal.VideoCallData, error) {
	return nil, nil
}

func (v *stubVideo) DeleteMeeting(ctx context.Context, uid string) error { return nil }

func (v *stubVideo) BusyTimes(ctx context.Context, from, to time.Time) ([]internal.Busy, error) {
	return v.busy, v.err
}

type stubRegistry struct {
	calendars map[string]internal.Provider
	videos    map[string]internal.VideoProvider
}

func (r *stubRegistry) Calendar(typ string) (internal.Provider, bool) {
	p, ok := r.calendars[typ]
	return p, ok
}

func (r *stubRegistry) Video(typ string) (internal.VideoProvider, bool) {
	p, ok := r.videos[typ]
	return p, ok
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func interval(startHour, endHour int) internal.Busy {
	day := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	return internal.Busy{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestBusyTimesFlattensAndSorts(t *testing.T) {
	reg := &stubRegistry{
		calendars: map[string]internal.Provider{
			internal.TypeGoogleCalendar:    &stubCalendar{busy: []internal.Busy{interval(14, 15), interval(9, 10)}},
			internal.TypeOffice365Calendar: &stubCalendar{busy: []internal.Busy{interval(11, 12)}},
		},
		videos: map[string]internal.VideoProvider{
			internal.TypeZoomVideo: &stubVideo{busy: []internal.Busy{interval(10, 11)}},
		},
	}
	agg := New(testLogger(), reg)

	creds := []internal.Credential{
		{ID: 1, Type: internal.TypeGoogleCalendar},
		{ID: 2, Type: internal.TypeOffice365Calendar},
		{ID: 3, Type: internal.TypeZoomVideo},
	}
	busy := agg.BusyTimes(context.Background(), creds, interval(0, 0).Start, interval(23, 23).Start, nil)

	require.Len(t, busy, 4)
	want := []internal.Busy{interval(9, 10), interval(10, 11), interval(11, 12), interval(14, 15)}
	assert.Equal(t, want, busy)
}

func TestBusyTimesDegradesFailedProviderToEmpty(t *testing.T) {
	reg := &stubRegistry{
		calendars: map[string]internal.Provider{
			internal.TypeGoogleCalendar:    &stubCalendar{err: errors.New("token refresh failed")},
			internal.TypeOffice365Calendar: &stubCalendar{busy: []internal.Busy{interval(11, 12)}},
		},
	}
	agg := New(testLogger(), reg)

	creds := []internal.Credential{
		{ID: 1, Type: internal.TypeGoogleCalendar},
		{ID: 2, Type: internal.TypeOffice365Calendar},
	}
	busy := agg.BusyTimes(context.Background(), creds, interval(0, 0).Start, interval(23, 23).Start, nil)

	assert.Equal(t, []internal.Busy{interval(11, 12)}, busy)
}

func TestBusyTimesSkipsUnknownCredentialTypes(t *testing.T) {
	agg := New(testLogger(), &stubRegistry{})

	creds := []internal.Credential{
		{ID: 1, Type: internal.TypeGoogleCalendar}, // no adapter registered
		{ID: 2, Type: "teams_video"},
		{ID: 3, Type: "something_else"},
	}
	busy := agg.BusyTimes(context.Background(), creds, interval(0, 0).Start, interval(23, 23).Start, nil)

	assert.Empty(t, busy)
}

func TestBusyTimesBoundsConcurrency(t *testing.T) {
	const limit = 2

	var inFlight, peak atomic.Int64
	var mu sync.Mutex
	barrier := &stubCalendar{
		enter: func() {
			n := inFlight.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
		},
		exit: func() { inFlight.Add(-1) },
	}
	reg := &stubRegistry{
		calendars: map[string]internal.Provider{internal.TypeGoogleCalendar: barrier},
	}
	agg := New(testLogger(), reg, WithMaxInFlight(limit))

	creds := make([]internal.Credential, 8)
	for i := range creds {
		creds[i] = internal.Credential{ID: int64(i), Type: internal.TypeGoogleCalendar}
	}
	agg.BusyTimes(context.Background(), creds, interval(0, 0).Start, interval(23, 23).Start, nil)

	assert.LessOrEqual(t, peak.Load(), int64(limit))
}
