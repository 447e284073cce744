package internal

import "time"

// ProviderEvent is a provider's own payload for a created or updated event.
// Props carries the provider's response fields under their native names;
// providers disagree on what they call their identifier ("id", "uid",
// "name"), so identity extraction is a per-provider lookup on Props rather
// than a shared convention.
type ProviderEvent struct {
	Props map[string]string

	HangoutLink string
	EntryPoints []EntryPoint

	// Some providers notify attendees themselves through webhook-driven
	// flows; they set this to suppress the generic confirmation mail.
	DisableConfirmationEmail bool
}

// EventResult is the outcome of one provider operation. On success exactly
// one of CreatedEvent/UpdatedEvent is set, except for the skipped-update
// case (no prior reference for the provider) which is failure-free but
// carries no event. On failure both are nil.
type EventResult struct {
	Type         string
	Success      bool
	UID          string
	CreatedEvent *ProviderEvent
	UpdatedEvent *ProviderEvent
	Original     *CalendarEvent
	VideoCall    *VideoCallData
}

// Event returns whichever of CreatedEvent/UpdatedEvent is populated.
func (r EventResult) Event() *ProviderEvent {
	if r.CreatedEvent != nil {
		return r.CreatedEvent
	}
	return r.UpdatedEvent
}

// PartialReference is the persisted linkage between a booking and its
// provider-side identity. References have no life of their own: they are
// owned by their booking and deleted with it.
type PartialReference struct {
	Type            string
	UID             string
	MeetingID       string
	MeetingPassword string
	MeetingURL      string
}

// Booking is the stored booking row as the coordinator reads it back during
// an update: identity plus the ordered reference set.
type Booking struct {
	ID         int64
	UID        string
	Title      string
	StartsAt   time.Time
	EndsAt     time.Time
	References []PartialReference
}

// ReferenceByType returns the first reference of the given provider type.
func (b *Booking) ReferenceByType(typ string) (PartialReference, bool) {
	for _, ref := range b.References {
		if ref.Type == typ {
			return ref, true
		}
	}
	return PartialReference{}, false
}
