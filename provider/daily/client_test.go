package daily

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/bookcal/internal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, apiURL string) *Client {
	t.Helper()
	cred := internal.Credential{
		ID:   5,
		Type: internal.TypeDailyVideo,
		Key:  []byte(`{"api_key":"daily-key"}`),
	}
	c, err := NewClient(testLogger(), nil, cred)
	require.NoError(t, err)
	c.baseURL = apiURL
	return c
}

func testEvent() *internal.CalendarEvent {
	return &internal.CalendarEvent{
		Title:    "Design review",
		StartsAt: time.Date(2024, 5, 20, 14, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC),
	}
}

func TestCreateMeeting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms", r.URL.Path)
		assert.Equal(t, "Bearer daily-key", r.Header.Get("Authorization"))

		var req roomRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, strings.HasPrefix(req.Name, "bookcal-"))

		ev := testEvent()
		assert.Equal(t, ev.StartsAt.Add(-10*time.Minute).Unix(), req.Properties.NotBefore)
		assert.Equal(t, ev.EndsAt.Add(time.Hour).Unix(), req.Properties.Expires)

		json.NewEncoder(w).Encode(roomResponse{
			Name: req.Name,
			URL:  "https://example.daily.co/" + req.Name,
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vc, err := c.CreateMeeting(context.Background(), testEvent())

	require.NoError(t, err)
	assert.Equal(t, internal.TypeDailyVideo, vc.Type)
	assert.True(t, strings.HasPrefix(vc.ID, "bookcal-"))
	assert.Equal(t, "https://example.daily.co/"+vc.ID, vc.URL)
	assert.Empty(t, vc.Password)
}

func TestUpdateMeetingEchoesRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms/bookcal-abc", r.URL.Path)

		json.NewEncoder(w).Encode(roomResponse{
			Name: "bookcal-abc",
			URL:  "https://example.daily.co/bookcal-abc",
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vc, err := c.UpdateMeeting(context.Background(),
		internal.PartialReference{Type: internal.TypeDailyVideo, UID: "bookcal-abc"},
		testEvent())

	require.NoError(t, err)
	require.NotNil(t, vc)
	assert.Equal(t, "bookcal-abc", vc.ID)
	assert.Equal(t, "https://example.daily.co/bookcal-abc", vc.URL)
}

func TestDeleteMeetingToleratesNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	assert.NoError(t, c.DeleteMeeting(context.Background(), "gone"))
}

func TestBusyTimesIsAlwaysEmpty(t *testing.T) {
	c := newTestClient(t, "http://unreachable.invalid")
	busy, err := c.BusyTimes(context.Background(), time.Now(), time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	assert.Nil(t, busy)
}
