// Package zoom creates meetings through the Zoom REST API. Zoom is a
// dedicated integration: join credentials only exist after an out-of-band
// meeting-creation call, they cannot be attached to a calendar payload.
package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guilherme-santos/bookcal/internal"
)

const defaultBaseURL = "https://api.zoom.us/v2"

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
		log:       log.With("provider", internal.TypeZoomVideo),
		baseURL:   defaultBaseURL,
		http:      httpClient,
		refresher: r,
	}, nil
}

type meetingRequest struct {
	Topic     string `json:"topic"`
	Type      int    `json:"type"`
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
	Timezone  string `json:"timezone,omitempty"`
	Agenda    string `json:"agenda,omitempty"`
}

type meetingResponse struct {
	ID       int64  `json:"id"`
	JoinURL  string `json:"join_url"`
	Password string `json:"password"`
}

const meetingTypeScheduled = 2

func newMeetingRequest(ev *internal.CalendarEvent) meetingRequest {
	return meetingRequest{
		Topic:     ev.Title,
		Type:      meetingTypeScheduled,
		StartTime: ev.StartsAt.UTC().Format(time.RFC3339),
		Duration:  int(ev.EndsAt.Sub(ev.StartsAt) / time.Minute),
		Timezone:  ev.Organizer.TimeZone,
		Agenda:    ev.Description,
	}
}

func (c *Client) CreateMeeting(ctx context.Context, ev *internal.CalendarEvent) (*internal.VideoCallData, error) {
	var resp meetingResponse
	err := c.do(ctx, http.MethodPost, "/users/me/meetings", newMeetingRequest(ev), &resp)
	if err != nil {
		c.log.Error("unable to create meeting", "title", ev.Title, "err", err)
		return nil, err
	}
	return &internal.VideoCallData{
		Type:     internal.TypeZoomVideo,
		ID:       strconv.FormatInt(resp.ID, 10),
		Password: resp.Password,
		URL:      resp.JoinURL,
	}, nil
}

// UpdateMeeting reschedules an existing meeting. Zoom answers PATCH with an
// empty 204, so no VideoCallData comes back; the caller reconstructs join
// credentials from the stored reference.
func (c *Client) UpdateMeeting(ctx context.Context, ref internal.PartialReference, ev *internal.CalendarEvent) (*internal.VideoCallData, error) {
	err := c.do(ctx, http.MethodPatch, "/meetings/"+url.PathEscape(ref.UID), newMeetingRequest(ev), nil)
	if err != nil {
		c.log.Error("unable to update meeting", "uid", ref.UID, "err", err)
		return nil, err
	}
	return nil, nil
}

func (c *Client) DeleteMeeting(ctx context.Context, uid string) error {
	err := c.do(ctx, http.MethodDelete, "/meetings/"+url.PathEscape(uid), nil, nil)
	if err != nil {
		c.log.Error("unable to delete meeting", "uid", uid, "err", err)
	}
	return err
}

// BusyTimes lists upcoming meetings and treats each as a busy interval.
// Zoom availability is best effort: refresh or transport failures yield an
// empty list, never an error.
func (c *Client) BusyTimes(ctx context.Context, from, to time.Time) ([]internal.Busy, error) {
	var resp struct {
		Meetings []struct {
			StartTime string `json:"start_time"`
			Duration  int    `json:"duration"`
		} `json:"meetings"`
	}
	err := c.do(ctx, http.MethodGet, "/users/me/meetings?type=upcoming&page_size=300", nil, &resp)
	if err != nil {
		c.log.Warn("busy-time query degraded to empty", "err", err)
		return nil, nil
	}

	var busy []internal.Busy
	for _, m := range resp.Meetings {
		start, err := time.Parse(time.RFC3339, m.StartTime)
		if err != nil {
			continue
		}
		end := start.Add(time.Duration(m.Duration) * time.Minute)
		if end.Before(from) || start.After(to) {
			continue
		}
		busy = append(busy, internal.Busy{Start: start, End: end})
	}
	return busy, nil
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
		return fmt.Errorf("zoom: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
