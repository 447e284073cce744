package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/bookcal/internal"
)

func TestEnrichLocationIsIdempotent(t *testing.T) {
	for _, location := range []string{LocationGoogleMeet, LocationZoom, LocationDaily} {
		ev := &internal.CalendarEvent{Location: location}

		EnrichLocation(ev)
		require.NotNil(t, ev.Conference, location)
		first := ev.Conference.RequestID

		EnrichLocation(ev)
		assert.Equal(t, first, ev.Conference.RequestID, location)
		assert.Equal(t, ConferenceRequestID(location), first, location)
	}
}

func TestEnrichLocationPassesThroughUnknownLocations(t *testing.T) {
	for _, location := range []string{"", "Office 12", "integrations:teams"} {
		ev := &internal.CalendarEvent{Location: location}
		EnrichLocation(ev)
		assert.Nil(t, ev.Conference, location)
		assert.Equal(t, location, ev.Location)
	}
}

func TestIsDedicated(t *testing.T) {
	tests := map[string]bool{
		LocationZoom:         true,
		LocationDaily:        true,
		LocationGoogleMeet:   false,
		"":                   false,
		"Office 12":          false,
		"integrations:teams": false,
	}
	for location, want := range tests {
		assert.Equal(t, want, IsDedicated(location), location)
	}
}
