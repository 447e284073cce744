package office365

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/guilherme-santos/bookcal/internal"
)

const (
	graphBaseURL    = "https://graph.microsoft.com/v1.0"
	graphTimeFormat = "2006-01-02T15:04:05"
)

// Client books events through the Microsoft Graph API on behalf of one
// credential. Graph has no SDK worth the weight here; the wire format is
// plain JSON over bearer auth.
type Client struct {
	log       *slog.Logger
	baseURL   string
	http      *http.Client
	refresher *refresher
}

func NewClient(log *slog.Logger, httpClient *http.Client, clientID, clientSecret string, store CredentialStore, cred internal.Credential) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	r, err := newRefresher(log, httpClient, clientID, clientSecret, store, cred)
	if err != nil {
		return nil, err
	}
	return &Client{
		log:       log.With("provider", internal.TypeOffice365Calendar),
		baseURL:   graphBaseURL,
		http:      httpClient,
		refresher: r,
	}, nil
}

func (c *Client) CreateEvent(ctx context.Context, ev *internal.CalendarEvent) (*internal.ProviderEvent, error) {
	var resp graphEvent
	err := c.do(ctx, http.MethodPost, "/me/events", newGraphEvent(ev), &resp)
	if err != nil {
		c.log.Error("unable to create event", "title", ev.Title, "err", err)
		return nil, err
	}
	return newProviderEvent(&resp), nil
}

func (c *Client) UpdateEvent(ctx context.Context, uid string, ev *internal.CalendarEvent) (*internal.ProviderEvent, error) {
	var resp graphEvent
	err := c.do(ctx, http.MethodPatch, "/me/events/"+url.PathEscape(uid), newGraphEvent(ev), &resp)
	if err != nil {
		c.log.Error("unable to update event", "uid", uid, "err", err)
		return nil, err
	}
	return newProviderEvent(&resp), nil
}

func (c *Client) DeleteEvent(ctx context.Context, uid string) error {
	err := c.do(ctx, http.MethodDelete, "/me/events/"+url.PathEscape(uid), nil, nil)
	if err != nil {
		c.log.Error("unable to delete event", "uid", uid, "err", err)
	}
	return err
}

// BusyTimes reads the calendar view of every relevant calendar and keeps
// the entries not marked free. Failures, refresh included, degrade to an
// empty list.
func (c *Client) BusyTimes(ctx context.Context, from, to time.Time, selected []internal.SelectedCalendar) ([]internal.Busy, error) {
	ids, query := relevantCalendarIDs(selected)
	if !query {
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

	var busy []internal.Busy
	for _, id := range ids {
		path := fmt.Sprintf("/me/calendars/%s/calendarView?startDateTime=%s&endDateTime=%s",
			url.PathEscape(id),
			url.QueryEscape(from.UTC().Format(graphTimeFormat)),
			url.QueryEscape(to.UTC().Format(graphTimeFormat)))

		var resp struct {
			Value []struct {
				ShowAs string        `json:"showAs"`
				Start  graphDateTime `json:"start"`
				End    graphDateTime `json:"end"`
			} `json:"value"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
			c.log.Warn("busy-time query degraded to empty", "calendar", id, "err", err)
			continue
		}
		for _, item := range resp.Value {
			if item.ShowAs == "free" {
				continue
			}
			start, err := item.Start.Parse()
			if err != nil {
				continue
			}
			end, err := item.End.Parse()
			if err != nil {
				continue
			}
			busy = append(busy, internal.Busy{Start: start, End: end})
		}
	}
	return busy, nil
}

func (c *Client) Calendars(ctx context.Context) ([]internal.Calendar, error) {
	var resp struct {
		Value []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			IsDefault bool   `json:"isDefaultCalendar"`
		} `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "/me/calendars", nil, &resp); err != nil {
		return nil, fmt.Errorf("office365: listing calendars: %w", err)
	}

	cals := make([]internal.Calendar, 0, len(resp.Value))
	for _, item := range resp.Value {
		cals = append(cals, internal.Calendar{
			ExternalID: item.ID,
			Name:       item.Name,
			Primary:    item.IsDefault,
		})
	}
	return cals, nil
}

func relevantCalendarIDs(selected []internal.SelectedCalendar) (ids []string, query bool) {
	if len(selected) == 0 {
		return nil, true
	}
	for _, sel := range selected {
		if sel.Type == internal.TypeOffice365Calendar {
			ids = append(ids, sel.ExternalID)
		}
	}
	return ids, len(ids) > 0
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	token, err := c.refresher.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && method == http.MethodDelete {
		return nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("office365: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
