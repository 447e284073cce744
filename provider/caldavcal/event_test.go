package caldavcal

import (
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/bookcal/internal"
)

func testEvent() *internal.CalendarEvent {
	return &internal.CalendarEvent{
		Title:       "Design review",
		Description: "Quarterly design review",
		StartsAt:    time.Date(2024, 5, 20, 14, 0, 0, 0, time.UTC),
		EndsAt:      time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC),
		Organizer:   internal.Person{Name: "Alice", Email: "alice@example.com"},
		Attendees: []internal.Person{
			{Name: "Bob", Email: "bob@example.com"},
		},
	}
}

func TestNewEventUIDIsDeterministic(t *testing.T) {
	ev := testEvent()
	assert.Equal(t, newEventUID(ev), newEventUID(ev))

	other := testEvent()
	other.StartsAt = other.StartsAt.Add(time.Hour)
	assert.NotEqual(t, newEventUID(ev), newEventUID(other))
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "/calendars/alice/default/abc.ics", objectPath("/calendars/alice/default", "abc"))
	assert.Equal(t, "/calendars/alice/default/abc.ics", objectPath("/calendars/alice/default/", "abc"))
}

func TestNewICalendar(t *testing.T) {
	ev := testEvent()
	uid := newEventUID(ev)
	cal := newICalendar(uid, ev)

	require.Len(t, cal.Children, 1)
	vevent := cal.Children[0]
	assert.Equal(t, ical.CompEvent, vevent.Name)

	got, err := vevent.Props.Text(ical.PropUID)
	require.NoError(t, err)
	assert.Equal(t, uid, got)

	got, err = vevent.Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Design review", got)

	start, err := vevent.Props.DateTime(ical.PropDateTimeStart, time.UTC)
	require.NoError(t, err)
	assert.True(t, start.Equal(ev.StartsAt))

	assert.Len(t, vevent.Props.Values(ical.PropAttendee), 1)
}

func TestNewICalendarPrefersVideoCallURLAsLocation(t *testing.T) {
	ev := testEvent()
	ev.Location = "Office 12"
	ev.VideoCall = &internal.VideoCallData{URL: "https://zoom.us/j/987654"}

	cal := newICalendar("uid-1", ev)
	got, err := cal.Children[0].Props.Text(ical.PropLocation)
	require.NoError(t, err)
	assert.Equal(t, "https://zoom.us/j/987654", got)
}
