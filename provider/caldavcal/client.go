// Package caldavcal books events on any CalDAV server, Apple's included.
// The wire format is iCalendar objects PUT to the calendar collection; the
// server is discovered from the principal the credential authenticates as.
package caldavcal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/guilherme-santos/bookcal/internal"
)

// key is the credential key blob for CalDAV-style providers: plain basic
// auth, no refresh cycle. Calendar optionally pins one collection by name.
type key struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Calendar string `json:"calendar,omitempty"`
}

type basicAuthTransport struct {
	username string
	password string
	base     http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "bookcal/1.0")
	return t.base.RoundTrip(req)
}

// Client books events on one CalDAV account. The same implementation serves
// the caldav and apple credential types; typ decides which selected-calendar
// filters it honors.
type Client struct {
	log    *slog.Logger
	typ    string
	key    key
	caldav *caldav.Client
}

func NewClient(log *slog.Logger, typ string, cred internal.Credential) (*Client, error) {
	var k key
	if err := json.Unmarshal(cred.Key, &k); err != nil {
		return nil, fmt.Errorf("caldav: decoding credential key: %w", err)
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: k.Username,
			password: k.Password,
			base:     http.DefaultTransport,
		},
	}
	client, err := caldav.NewClient(httpClient, k.URL)
	if err != nil {
		return nil, fmt.Errorf("caldav: creating client: %w", err)
	}

	return &Client{
		log:    log.With("provider", typ),
		typ:    typ,
		key:    k,
		caldav: client,
	}, nil
}

func (c *Client) CreateEvent(ctx context.Context, ev *internal.CalendarEvent) (*internal.ProviderEvent, error) {
	calPath, err := c.defaultCalendarPath(ctx)
	if err != nil {
		c.log.Error("unable to create event", "title", ev.Title, "err", err)
		return nil, err
	}

	uid := newEventUID(ev)
	cal := newICalendar(uid, ev)
	if _, err := c.caldav.PutCalendarObject(ctx, objectPath(calPath, uid), cal); err != nil {
		c.log.Error("unable to create event", "title", ev.Title, "err", err)
		return nil, fmt.Errorf("caldav: putting event: %w", err)
	}

	return &internal.ProviderEvent{
		Props: map[string]string{"uid": uid},
	}, nil
}

func (c *Client) UpdateEvent(ctx context.Context, uid string, ev *internal.CalendarEvent) (*internal.ProviderEvent, error) {
	calPath, err := c.defaultCalendarPath(ctx)
	if err != nil {
		c.log.Error("unable to update event", "uid", uid, "err", err)
		return nil, err
	}

	cal := newICalendar(uid, ev)
	if _, err := c.caldav.PutCalendarObject(ctx, objectPath(calPath, uid), cal); err != nil {
		c.log.Error("unable to update event", "uid", uid, "err", err)
		return nil, fmt.Errorf("caldav: putting event: %w", err)
	}

	return &internal.ProviderEvent{
		Props: map[string]string{"uid": uid},
	}, nil
}

func (c *Client) DeleteEvent(ctx context.Context, uid string) error {
	calPath, err := c.defaultCalendarPath(ctx)
	if err != nil {
		return err
	}
	if err := c.caldav.RemoveAll(ctx, objectPath(calPath, uid)); err != nil {
		c.log.Error("unable to delete event", "uid", uid, "err", err)
		return fmt.Errorf("caldav: removing event: %w", err)
	}
	return nil
}

func (c *Client) BusyTimes(ctx context.Context, from, to time.Time, selected []internal.SelectedCalendar) ([]internal.Busy, error) {
	paths, query := c.relevantCalendarPaths(selected)
	if !query {
		return nil, nil
	}

	if len(paths) == 0 {
		cals, err := c.Calendars(ctx)
		if err != nil {
			c.log.Warn("busy-time query degraded to empty", "err", err)
			return nil, nil
		}
		for _, cal := range cals {
			paths = append(paths, cal.ExternalID)
		}
	}

	calQuery := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name:  ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{Name: ical.CompEvent, AllProps: true}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: from,
				End:   to,
			}},
		},
	}

	var busy []internal.Busy
	for _, path := range paths {
		objects, err := c.caldav.QueryCalendar(ctx, path, calQuery)
		if err != nil {
			c.log.Warn("busy-time query degraded to empty", "calendar", path, "err", err)
			continue
		}
		for _, obj := range objects {
			for _, event := range obj.Data.Events() {
				start, err := event.DateTimeStart(time.UTC)
				if err != nil {
					continue
				}
				end, err := event.DateTimeEnd(time.UTC)
				if err != nil {
					continue
				}
				busy = append(busy, internal.Busy{Start: start, End: end})
			}
		}
	}
	return busy, nil
}

func (c *Client) Calendars(ctx context.Context) ([]internal.Calendar, error) {
	principal, err := c.caldav.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("caldav: finding principal: %w", err)
	}
	homeSet, err := c.caldav.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("caldav: finding calendar home set: %w", err)
	}
	found, err := c.caldav.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("caldav: listing calendars: %w", err)
	}

	cals := make([]internal.Calendar, 0, len(found))
	for i, cal := range found {
		cals = append(cals, internal.Calendar{
			ExternalID: cal.Path,
			Name:       cal.Name,
			Primary:    i == 0,
		})
	}
	return cals, nil
}

func (c *Client) relevantCalendarPaths(selected []internal.SelectedCalendar) (paths []string, query bool) {
	if len(selected) == 0 {
		return nil, true
	}
	for _, sel := range selected {
		if sel.Type == c.typ {
			paths = append(paths, sel.ExternalID)
		}
	}
	return paths, len(paths) > 0
}

// defaultCalendarPath picks the collection named in the credential, falling
// back to the first one the server reports.
func (c *Client) defaultCalendarPath(ctx context.Context) (string, error) {
	cals, err := c.Calendars(ctx)
	if err != nil {
		return "", err
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("caldav: account has no calendars")
	}
	if c.key.Calendar != "" {
		for _, cal := range cals {
			if cal.Name == c.key.Calendar {
				return cal.ExternalID, nil
			}
		}
		return "", fmt.Errorf("caldav: calendar %q not found", c.key.Calendar)
	}
	return cals[0].ExternalID, nil
}
