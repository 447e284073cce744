package booking

import "github.com/guilherme-santos/bookcal/internal"

// nativeUIDField maps each provider type to the response field carrying its
// identifier. Providers disagree on the name, so this stays a fixed lookup
// rather than a convention.
var nativeUIDField = map[string]string{
	internal.TypeGoogleCalendar:    "id",
	internal.TypeOffice365Calendar: "id",
	internal.TypeCalDAVCalendar:    "uid",
	internal.TypeAppleCalendar:     "uid",
	internal.TypeZoomVideo:         "id",
	internal.TypeDailyVideo:        "name",
}

// NativeUID extracts the provider-native identifier from a provider event.
func NativeUID(typ string, pe *internal.ProviderEvent) string {
	if pe == nil || pe.Props == nil {
		return ""
	}
	field, ok := nativeUIDField[typ]
	if !ok {
		field = "id"
	}
	return pe.Props[field]
}

// videoProviderEvent wraps a meeting id in the provider's own field naming
// so merge treats calendar and video results uniformly.
func videoProviderEvent(typ, uid string) *internal.ProviderEvent {
	field, ok := nativeUIDField[typ]
	if !ok {
		field = "id"
	}
	return &internal.ProviderEvent{Props: map[string]string{field: uid}}
}

// referencesFor builds the reference rows to persist: one per result that
// actually created or updated a provider-side entry. Skipped updates carry
// no event and get no reference.
func referencesFor(results []internal.EventResult) []internal.PartialReference {
	var refs []internal.PartialReference
	for _, res := range results {
		if !res.Success || res.Event() == nil {
			continue
		}
		ref := internal.PartialReference{
			Type: res.Type,
			UID:  res.UID,
		}
		if res.VideoCall != nil {
			ref.MeetingID = res.VideoCall.ID
			ref.MeetingPassword = res.VideoCall.Password
			ref.MeetingURL = res.VideoCall.URL
		}
		refs = append(refs, ref)
	}
	return refs
}

// passwordRequired marks providers whose meetings are unjoinable without a
// password. Reconstruction from a stored reference must not hand out
// passwordless join data for these.
var passwordRequired = map[string]bool{
	internal.TypeZoomVideo: true,
}

// reconstructVideoCallData rebuilds the normalized meeting descriptor from a
// stored reference, for providers whose update call does not echo
// credentials. Missing required fields yield nil.
func reconstructVideoCallData(typ string, ref internal.PartialReference) *internal.VideoCallData {
	if ref.MeetingID == "" || ref.MeetingURL == "" {
		return nil
	}
	if passwordRequired[typ] && ref.MeetingPassword == "" {
		return nil
	}
	return &internal.VideoCallData{
		Type:     typ,
		ID:       ref.MeetingID,
		Password: ref.MeetingPassword,
		URL:      ref.MeetingURL,
	}
}

// attachAdditionalInfo copies the first successful result's post-creation
// metadata onto the event so notification mail can point attendees at it.
func attachAdditionalInfo(ev *internal.CalendarEvent, results []internal.EventResult) {
	for _, res := range results {
		pe := res.Event()
		if !res.Success || pe == nil {
			continue
		}
		ev.AdditionalInfo = &internal.AdditionalInfo{
			HangoutLink: pe.HangoutLink,
			EntryPoints: pe.EntryPoints,
		}
		return
	}
}
