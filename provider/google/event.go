package google

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/bookcal/internal"
)

func newGoogleEvent(ev *internal.CalendarEvent) *calendar.Event {
	gevent := &calendar.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Location:    ev.Location,
		Start: &calendar.EventDateTime{
			DateTime: ev.StartsAt.Format(time.RFC3339),
			TimeZone: ev.Organizer.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.EndsAt.Format(time.RFC3339),
			TimeZone: ev.Organizer.TimeZone,
		},
		Organizer: &calendar.EventOrganizer{
			DisplayName: ev.Organizer.Name,
			Email:       ev.Organizer.Email,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}
	for _, att := range ev.Attendees {
		gevent.Attendees = append(gevent.Attendees, &calendar.EventAttendee{
			DisplayName: att.Name,
			Email:       att.Email,
		})
	}
	if ev.Conference != nil {
		gevent.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: ev.Conference.RequestID,
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
	}
	return gevent
}

func newProviderEvent(gevent *calendar.Event) *internal.ProviderEvent {
	pe := &internal.ProviderEvent{
		Props: map[string]string{
			"id":          gevent.Id,
			"iCalUID":     gevent.ICalUID,
			"htmlLink":    gevent.HtmlLink,
			"hangoutLink": gevent.HangoutLink,
		},
		HangoutLink: gevent.HangoutLink,
	}
	if gevent.ConferenceData != nil {
		for _, ep := range gevent.ConferenceData.EntryPoints {
			pe.EntryPoints = append(pe.EntryPoints, internal.EntryPoint{
				Type: ep.EntryPointType,
				URI:  ep.Uri,
				PIN:  ep.Pin,
			})
		}
	}
	return pe
}
