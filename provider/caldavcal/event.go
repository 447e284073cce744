package caldavcal

import (
	"fmt"
	"path"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/guilherme-santos/bookcal/internal"
)

// eventNamespace keys deterministic uids so a retried create lands on the
// same object path instead of duplicating the event.
var eventNamespace = uuid.MustParse("8d7b2a5e-21cd-4d3a-9e41-6f1f0a8c5d47")

func newEventUID(ev *internal.CalendarEvent) string {
	seed := fmt.Sprintf("%s/%s/%d", ev.Organizer.Email, ev.Title, ev.StartsAt.Unix())
	return uuid.NewSHA1(eventNamespace, []byte(seed)).String()
}

func objectPath(calendarPath, uid string) string {
	return path.Join(calendarPath, uid+".ics")
}

func newICalendar(uid string, ev *internal.CalendarEvent) *ical.Calendar {
	vevent := ical.NewComponent(ical.CompEvent)
	vevent.Props.SetText(ical.PropUID, uid)
	vevent.Props.SetText(ical.PropSummary, ev.Title)
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeStart, ev.StartsAt)
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, ev.EndsAt)

	if ev.Description != "" {
		vevent.Props.SetText(ical.PropDescription, ev.Description)
	}
	location := ev.Location
	if ev.VideoCall != nil && ev.VideoCall.URL != "" {
		location = ev.VideoCall.URL
	}
	if location != "" {
		vevent.Props.SetText(ical.PropLocation, location)
	}
	if ev.Organizer.Email != "" {
		prop := ical.NewProp(ical.PropOrganizer)
		prop.SetText("mailto:" + ev.Organizer.Email)
		vevent.Props.Add(prop)
	}
	for _, att := range ev.Attendees {
		prop := ical.NewProp(ical.PropAttendee)
		prop.SetText("mailto:" + att.Email)
		vevent.Props.Add(prop)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//bookcal//EN")
	cal.Children = append(cal.Children, vevent)
	return cal
}
