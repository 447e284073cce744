// Package daily creates rooms on Daily.co, a standalone video provider.
// Authentication is a static API key, so there is no refresh cycle; rooms
// have no password, the room URL alone is the join credential.
package daily

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

	"github.com/google/uuid"

	"github.com/guilherme-santos/bookcal/internal"
)

const defaultBaseURL = "https://api.daily.co/v1"

type key struct {
	APIKey string `json:"api_key"`
}

type Client struct {
	log     *slog.Logger
	baseURL string
	http    *http.Client
	apiKey  string
}

func NewClient(log *slog.Logger, httpClient *http.Client, cred internal.Credential) (*Client, error) {
	var k key
	if err := json.Unmarshal(cred.Key, &k); err != nil {
		return nil, fmt.Errorf("daily: decoding credential key: %w", err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		log:     log.With("provider", internal.TypeDailyVideo),
		baseURL: defaultBaseURL,
		http:    httpClient,
		apiKey:  k.APIKey,
	}, nil
}

type roomRequest struct {
	Name       string         `json:"name,omitempty"`
	Properties roomProperties `json:"properties"`
}

type roomProperties struct {
	NotBefore int64 `json:"nbf"`
	Expires   int64 `json:"exp"`
}

type roomResponse struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (c *Client) CreateMeeting(ctx context.Context, ev *internal.CalendarEvent) (*internal.VideoCallData, error) {
	req := roomRequest{
		Name: "bookcal-" + uuid.NewString(),
		Properties: roomProperties{
			NotBefore: ev.StartsAt.Add(-10 * time.Minute).Unix(),
			Expires:   ev.EndsAt.Add(time.Hour).Unix(),
		},
	}

	var resp roomResponse
	if err := c.do(ctx, http.MethodPost, "/rooms", req, &resp); err != nil {
		c.log.Error("unable to create room", "title", ev.Title, "err", err)
		return nil, err
	}
	return newVideoCallData(&resp), nil
}

// UpdateMeeting moves the room's validity window. Daily echoes the full room
// back, so unlike zoom the caller gets fresh VideoCallData here.
func (c *Client) UpdateMeeting(ctx context.Context, ref internal.PartialReference, ev *internal.CalendarEvent) (*internal.VideoCallData, error) {
	req := roomRequest{
		Properties: roomProperties{
			NotBefore: ev.StartsAt.Add(-10 * time.Minute).Unix(),
			Expires:   ev.EndsAt.Add(time.Hour).Unix(),
		},
	}

	var resp roomResponse
	if err := c.do(ctx, http.MethodPost, "/rooms/"+url.PathEscape(ref.UID), req, &resp); err != nil {
		c.log.Error("unable to update room", "uid", ref.UID, "err", err)
		return nil, err
	}
	return newVideoCallData(&resp), nil
}

func (c *Client) DeleteMeeting(ctx context.Context, uid string) error {
	err := c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(uid), nil, nil)
	if err != nil {
		c.log.Error("unable to delete room", "uid", uid, "err", err)
	}
	return err
}

// BusyTimes is empty by definition: rooms are not exclusive resources and
// Daily has no occupancy calendar to consult.
func (c *Client) BusyTimes(ctx context.Context, from, to time.Time) ([]internal.Busy, error) {
	return nil, nil
}

func newVideoCallData(room *roomResponse) *internal.VideoCallData {
	return &internal.VideoCallData{
		Type: internal.TypeDailyVideo,
		ID:   room.Name,
		URL:  room.URL,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
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
		return fmt.Errorf("daily: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
