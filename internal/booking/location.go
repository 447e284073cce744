package booking

import (
	"github.com/google/uuid"

	"github.com/guilherme-santos/bookcal/internal"
)

// Locations an event can name to request conferencing. Anything else is a
// plain free-text location and passes through untouched.
const (
	LocationGoogleMeet = "integrations:google:meet"
	LocationZoom       = "integrations:zoom"
	LocationDaily      = "integrations:daily"
)

// conferenceNamespace keys conference request ids to their location, so the
// id is a pure function of the location string.
var conferenceNamespace = uuid.MustParse("c2a5f8e3-7b94-4f16-8a2d-3e90b17cda65")

// ConferenceRequestID derives the conference-creation request id for a
// location. Deterministic on purpose: enriching the same location twice must
// yield the same id, or a provider retry would mint a second conference.
func ConferenceRequestID(location string) string {
	return uuid.NewSHA1(conferenceNamespace, []byte(location)).String()
}

// EnrichLocation attaches a conference-creation request to events whose
// location names a recognized integration. Idempotent.
func EnrichLocation(ev *internal.CalendarEvent) {
	switch ev.Location {
	case LocationGoogleMeet, LocationZoom, LocationDaily:
		ev.Conference = &internal.ConferenceData{
			RequestID: ConferenceRequestID(ev.Location),
		}
	}
}

// dedicatedTypes is the static policy table of integrations that need an
// out-of-band meeting-creation call to hand out join credentials. Google
// Meet is deliberately absent: attaching conference data to the calendar
// payload is enough there.
var dedicatedTypes = map[string]string{
	LocationZoom:  internal.TypeZoomVideo,
	LocationDaily: internal.TypeDailyVideo,
}

// IsDedicated reports whether the location requires a dedicated video
// booking next to (or instead of) the calendar booking.
func IsDedicated(location string) bool {
	_, ok := dedicatedTypes[location]
	return ok
}

func dedicatedCredentialType(location string) (string, bool) {
	typ, ok := dedicatedTypes[location]
	return typ, ok
}
