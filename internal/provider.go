package internal

import (
	"context"
	"time"
)

// Busy is an interval during which a calendar is occupied.
type Busy struct {
	Start time.Time
	End   time.Time
}

// Calendar describes one calendar owned by the user on a provider.
type Calendar struct {
	ExternalID string
	Name       string
	Primary    bool
}

// SelectedCalendar restricts availability queries to calendars the user
// picked. Type names the provider the calendar belongs to, so an adapter can
// tell filters meant for it apart from filters meant for its siblings.
type SelectedCalendar struct {
	Type       string
	ExternalID string
}

// Provider is the capability surface every calendar integration implements.
//
// BusyTimes must honor the selected-calendar rule: when filters are present
// but none of them belong to this provider, it returns an empty list instead
// of querying everything; when no filter applies at all, it enumerates the
// user's calendars and queries busy time across all of them. Transport and
// token-refresh failures in BusyTimes degrade to an empty result.
type Provider interface {
	CreateEvent(ctx context.Context, ev *CalendarEvent) (*ProviderEvent, error)
	UpdateEvent(ctx context.Context, uid string, ev *CalendarEvent) (*ProviderEvent, error)
	DeleteEvent(ctx context.Context, uid string) error
	BusyTimes(ctx context.Context, from, to time.Time, selected []SelectedCalendar) ([]Busy, error)
	Calendars(ctx context.Context) ([]Calendar, error)
}

// VideoProvider is the capability surface of dedicated video integrations:
// the ones that need an out-of-band meeting-creation call to hand out join
// credentials. UpdateMeeting receives the prior reference because some
// providers do not echo meeting credentials on update and the caller has to
// reconstruct them.
type VideoProvider interface {
	CreateMeeting(ctx context.Context, ev *CalendarEvent) (*VideoCallData, error)
	UpdateMeeting(ctx context.Context, ref PartialReference, ev *CalendarEvent) (*VideoCallData, error)
	DeleteMeeting(ctx context.Context, uid string) error
	BusyTimes(ctx context.Context, from, to time.Time) ([]Busy, error)
}
