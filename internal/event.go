package internal

import "time"

// Person identifies one participant of an event. TimeZone is an IANA name
// and is used both by providers (attendee hints) and by notification mail.
type Person struct {
	Name     string
	Email    string
	TimeZone string
}

type Team struct {
	Name    string
	Members []Person
}

// ConferenceData asks a calendar provider to create conferencing as part of
// the event payload. RequestID must be stable for a given location so that
// re-running enrichment never issues a second conference request.
type ConferenceData struct {
	RequestID string
}

// EntryPoint is one way to join a conference (video link, phone number, ...).
type EntryPoint struct {
	Type string
	URI  string
	PIN  string
}

// AdditionalInfo is post-creation metadata a provider returns that has to be
// relayed to attendees.
type AdditionalInfo struct {
	HangoutLink string
	EntryPoints []EntryPoint
}

// VideoCallData is the normalized cross-provider video meeting descriptor.
type VideoCallData struct {
	Type     string
	ID       string
	Password string
	URL      string
}

// CalendarEvent is the canonical event representation passed to every
// adapter. It is built fresh per booking request and mutated in place by the
// coordinator (location enrichment, additional info) during orchestration.
// UID is set only on reschedule; its presence is what selects update
// semantics and the reschedule mail variant downstream.
type CalendarEvent struct {
	Type        string
	Title       string
	StartsAt    time.Time
	EndsAt      time.Time
	Description string
	Team        *Team
	Location    string
	Organizer   Person
	Attendees   []Person
	Conference  *ConferenceData
	Language    string

	AdditionalInfo *AdditionalInfo
	UID            string
	VideoCall      *VideoCallData
}
