package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/bookcal/internal"
)

func TestNewGoogleEvent(t *testing.T) {
	ev := &internal.CalendarEvent{
		Title:       "Design review",
		Description: "Quarterly design review",
		Location:    "integrations:google:meet",
		StartsAt:    time.Date(2024, 5, 20, 14, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC),
		Organizer: internal.Person{
			Name:     "Alice",
			Email:    "alice@example.com",
			TimeZone: "Europe/Berlin",
		},
		Attendees: []internal.Person{
			{Name: "Bob", Email: "bob@example.com"},
		},
		Conference: &internal.ConferenceData{RequestID: "req-1"},
	}

	gevent := newGoogleEvent(ev)

	assert.Equal(t, "Design review", gevent.Summary)
	assert.Equal(t, "2024-05-20T14:00:00Z", gevent.Start.DateTime)
	assert.Equal(t, "Europe/Berlin", gevent.Start.TimeZone)
	assert.Equal(t, "alice@example.com", gevent.Organizer.Email)
	require.Len(t, gevent.Attendees, 1)
	assert.Equal(t, "bob@example.com", gevent.Attendees[0].Email)

	require.NotNil(t, gevent.ConferenceData)
	assert.Equal(t, "req-1", gevent.ConferenceData.CreateRequest.RequestId)
	assert.Equal(t, "hangoutsMeet", gevent.ConferenceData.CreateRequest.ConferenceSolutionKey.Type)
}

func TestNewGoogleEventWithoutConference(t *testing.T) {
	gevent := newGoogleEvent(&internal.CalendarEvent{Title: "Standup"})
	assert.Nil(t, gevent.ConferenceData)
}

func TestNewProviderEvent(t *testing.T) {
	gevent := &calendar.Event{
		Id:          "gcal-123",
		ICalUID:     "gcal-123@google.com",
		HtmlLink:    "https://calendar.google.com/event?eid=abc",
		HangoutLink: "https://meet.google.com/abc-defg-hij",
		ConferenceData: &calendar.ConferenceData{
			EntryPoints: []*calendar.EntryPoint{
				{EntryPointType: "video", Uri: "https://meet.google.com/abc-defg-hij"},
				{EntryPointType: "phone", Uri: "tel:+49-30-1234567", Pin: "123456"},
			},
		},
	}

	pe := newProviderEvent(gevent)

	assert.Equal(t, "gcal-123", pe.Props["id"])
	assert.Equal(t, "gcal-123@google.com", pe.Props["iCalUID"])
	assert.Equal(t, "https://meet.google.com/abc-defg-hij", pe.HangoutLink)
	require.Len(t, pe.EntryPoints, 2)
	assert.Equal(t, "phone", pe.EntryPoints[1].Type)
	assert.Equal(t, "123456", pe.EntryPoints[1].PIN)
}
