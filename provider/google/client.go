package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/guilherme-santos/bookcal/internal"
)

// CredentialStore persists refreshed OAuth tokens back to the credential
// record. Defined here so callers can hand in whatever storage they have.
type CredentialStore interface {
	UpdateCredentialKey(ctx context.Context, id int64, key []byte) error
}

// Client books events on Google Calendar on behalf of one credential.
type Client struct {
	log      *slog.Logger
	oauthCfg *oauth2.Config
	store    CredentialStore
	cred     internal.Credential
}

func NewClient(log *slog.Logger, oauthCfg *oauth2.Config, store CredentialStore, cred internal.Credential) *Client {
	return &Client{
		log:      log.With("provider", internal.TypeGoogleCalendar),
		oauthCfg: oauthCfg,
		store:    store,
		cred:     cred,
	}
}

const defaultSleep = 5 * time.Second

func (c *Client) CreateEvent(ctx context.Context, ev *internal.CalendarEvent) (*internal.ProviderEvent, error) {
	svc, err := c.calendarSvc(ctx)
	if err != nil {
		return nil, err
	}

	call := svc.Events.Insert("primary", newGoogleEvent(ev)).Context(ctx)
	if ev.Conference != nil {
		call = call.ConferenceDataVersion(1)
	}

	for {
		gevent, err := call.Do()
		if err == nil {
			return newProviderEvent(gevent), nil
		}
		if shouldRetry(err) {
			time.Sleep(defaultSleep)
			continue
		}
		c.log.Error("unable to create event", "title", ev.Title, "err", err)
		return nil, err
	}
}

func (c *Client) UpdateEvent(ctx context.Context, uid string, ev *internal.CalendarEvent) (*internal.ProviderEvent, error) {
	svc, err := c.calendarSvc(ctx)
	if err != nil {
		return nil, err
	}

	for {
		gevent, err := svc.Events.Update("primary", uid, newGoogleEvent(ev)).Context(ctx).Do()
		if err == nil {
			return newProviderEvent(gevent), nil
		}
		if shouldRetry(err) {
			time.Sleep(defaultSleep)
			continue
		}
		c.log.Error("unable to update event", "uid", uid, "err", err)
		return nil, err
	}
}

func (c *Client) DeleteEvent(ctx context.Context, uid string) error {
	svc, err := c.calendarSvc(ctx)
	if err != nil {
		return err
	}

	for {
		err := svc.Events.Delete("primary", uid).Context(ctx).Do()
		if err == nil || alreadyDeleted(err) {
			return nil
		}
		if shouldRetry(err) {
			time.Sleep(defaultSleep)
			continue
		}
		c.log.Error("unable to delete event", "uid", uid, "err", err)
		return err
	}
}

// BusyTimes queries FreeBusy across the selected calendars, or across every
// calendar of the account when no filter names this provider. Failures
// degrade to an empty list so one flaky provider cannot block booking.
func (c *Client) BusyTimes(ctx context.Context, from, to time.Time, selected []internal.SelectedCalendar) ([]internal.Busy, error) {
	ids, query := relevantCalendarIDs(selected)
	if !query {
		return nil, nil
	}

	svc, err := c.calendarSvc(ctx)
	if err != nil {
		c.log.Warn("busy-time query degraded to empty", "err", err)
		return nil, nil
	}

	if len(ids) == 0 {
		cals, err := c.Calendars(ctx)
		if err != nil {
			c.log.Warn("busy-time query degraded to empty", "err", err)
			return nil, nil
		}
		for _, cal := range cals {
			ids = append(ids, cal.ExternalID)
		}
	}

	req := &calendar.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
	}
	for _, id := range ids {
		req.Items = append(req.Items, &calendar.FreeBusyRequestItem{Id: id})
	}

	resp, err := svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		c.log.Warn("busy-time query degraded to empty", "err", err)
		return nil, nil
	}

	var busy []internal.Busy
	for _, cal := range resp.Calendars {
		for _, period := range cal.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				continue
			}
			busy = append(busy, internal.Busy{Start: start, End: end})
		}
	}
	return busy, nil
}

func (c *Client) Calendars(ctx context.Context) ([]internal.Calendar, error) {
	svc, err := c.calendarSvc(ctx)
	if err != nil {
		return nil, err
	}

	list, err := svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google: listing calendars: %w", err)
	}

	cals := make([]internal.Calendar, 0, len(list.Items))
	for _, item := range list.Items {
		cals = append(cals, internal.Calendar{
			ExternalID: item.Id,
			Name:       item.Summary,
			Primary:    item.Primary,
		})
	}
	return cals, nil
}

// relevantCalendarIDs applies the selected-calendar rule: filters naming
// only other providers' calendars mean this provider contributes nothing.
func relevantCalendarIDs(selected []internal.SelectedCalendar) (ids []string, query bool) {
	if len(selected) == 0 {
		return nil, true
	}
	for _, sel := range selected {
		if sel.Type == internal.TypeGoogleCalendar {
			ids = append(ids, sel.ExternalID)
		}
	}
	return ids, len(ids) > 0
}

func (c *Client) calendarSvc(ctx context.Context) (*calendar.Service, error) {
	var tok oauth2.Token
	if err := json.Unmarshal(c.cred.Key, &tok); err != nil {
		return nil, fmt.Errorf("google: decoding credential key: %w", err)
	}

	ts := newPersistingTokenSource(ctx, c.store, c.cred.ID, c.oauthCfg.TokenSource(ctx, &tok), &tok)
	return calendar.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
}

func shouldRetry(err error) bool {
	return errIsReason(err, "rateLimitExceeded")
}

func alreadyDeleted(err error) bool {
	return errIsReason(err, "deleted")
}

func errIsReason(err error, reason string) bool {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return false
	}

	for _, err := range gErr.Errors {
		switch err.Reason {
		case reason:
			return true
		}
	}
	return false
}
