package office365

import (
	"time"

	"github.com/guilherme-santos/bookcal/internal"
)

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

func (dt graphDateTime) Parse() (time.Time, error) {
	loc := time.UTC
	if dt.TimeZone != "" && dt.TimeZone != "UTC" {
		if l, err := time.LoadLocation(dt.TimeZone); err == nil {
			loc = l
		}
	}
	return time.ParseInLocation(graphTimeFormat, trimFraction(dt.DateTime), loc)
}

// Graph appends fractional seconds the short layout does not carry.
func trimFraction(s string) string {
	if len(s) > len(graphTimeFormat) {
		return s[:len(graphTimeFormat)]
	}
	return s
}

type graphEvent struct {
	ID       string         `json:"id,omitempty"`
	Subject  string         `json:"subject,omitempty"`
	WebLink  string         `json:"webLink,omitempty"`
	Body     *graphBody     `json:"body,omitempty"`
	Start    *graphDateTime `json:"start,omitempty"`
	End      *graphDateTime `json:"end,omitempty"`
	Location *graphLocation `json:"location,omitempty"`

	Attendees []graphAttendee `json:"attendees,omitempty"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphLocation struct {
	DisplayName string `json:"displayName"`
}

type graphAttendee struct {
	Type         string            `json:"type"`
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphEmailAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

func newGraphEvent(ev *internal.CalendarEvent) *graphEvent {
	gevent := &graphEvent{
		Subject: ev.Title,
		// Graph renders plain text poorly; everything goes out as HTML.
		Body: &graphBody{
			ContentType: "HTML",
			Content:     ev.Description,
		},
		Start: &graphDateTime{
			DateTime: ev.StartsAt.UTC().Format(graphTimeFormat),
			TimeZone: "UTC",
		},
		End: &graphDateTime{
			DateTime: ev.EndsAt.UTC().Format(graphTimeFormat),
			TimeZone: "UTC",
		},
	}
	if ev.Location != "" {
		gevent.Location = &graphLocation{DisplayName: ev.Location}
	}
	for _, att := range ev.Attendees {
		gevent.Attendees = append(gevent.Attendees, graphAttendee{
			Type: "required",
			EmailAddress: graphEmailAddress{
				Address: att.Email,
				Name:    att.Name,
			},
		})
	}
	return gevent
}

func newProviderEvent(gevent *graphEvent) *internal.ProviderEvent {
	return &internal.ProviderEvent{
		Props: map[string]string{
			"id":      gevent.ID,
			"webLink": gevent.WebLink,
		},
	}
}
