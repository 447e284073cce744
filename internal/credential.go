package internal

import "strings"

const (
	TypeGoogleCalendar    = "google_calendar"
	TypeOffice365Calendar = "office365_calendar"
	TypeCalDAVCalendar    = "caldav_calendar"
	TypeAppleCalendar     = "apple_calendar"
	TypeZoomVideo         = "zoom_video"
	TypeDailyVideo        = "daily_video"
)

// Credential is an opaque external-provider authorization record. Key is a
// provider-specific JSON blob (OAuth token pair plus expiry, basic-auth pair,
// API key). The core treats credentials as read-mostly; token refresh writes
// a whole new Key back through the store.
type Credential struct {
	ID   int64
	Type string
	Key  []byte
}

// IsCalendar reports whether the credential belongs to a calendar provider.
// Classification is by type suffix, so retired integrations keep classifying
// correctly even when no adapter is registered for them anymore.
func (c Credential) IsCalendar() bool {
	return strings.HasSuffix(c.Type, "_calendar")
}

// IsVideo reports whether the credential belongs to a video provider.
func (c Credential) IsVideo() bool {
	return strings.HasSuffix(c.Type, "_video")
}
