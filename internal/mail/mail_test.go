package mail

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilherme-santos/bookcal/internal"
)

type sentMail struct {
	to  []string
	msg string
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func capturingSMTP(t *testing.T) (*SMTP, *[]sentMail) {
	t.Helper()
	var sent []sentMail
	s := NewSMTP(testLogger(), "smtp.example.com:587", "noreply@example.com", "", "")
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		sent = append(sent, sentMail{to: to, msg: string(msg)})
		return nil
	}
	return s, &sent
}

func testEvent() *internal.CalendarEvent {
	return &internal.CalendarEvent{
		Title:    "Design review",
		StartsAt: time.Date(2024, 5, 20, 14, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2024, 5, 20, 15, 0, 0, 0, time.UTC),
		Organizer: internal.Person{
			Name:  "Alice",
			Email: "alice@example.com",
		},
		Attendees: []internal.Person{
			{Name: "Bob", Email: "bob@example.com"},
			{Name: "Carol", Email: "carol@example.com"},
		},
		Language: "en",
	}
}

func TestSendScheduledMailsOrganizerAndEveryAttendee(t *testing.T) {
	s, sent := capturingSMTP(t)

	require.NoError(t, s.SendScheduled(context.Background(), testEvent()))

	require.Len(t, *sent, 3)
	assert.Equal(t, []string{"alice@example.com"}, (*sent)[0].to)
	assert.Equal(t, []string{"bob@example.com"}, (*sent)[1].to)
	assert.Equal(t, []string{"carol@example.com"}, (*sent)[2].to)

	assert.Contains(t, (*sent)[0].msg, "Subject: New booking: Design review")
	assert.Contains(t, (*sent)[1].msg, "Subject: Confirmed: Design review")
	assert.Contains(t, (*sent)[1].msg, "Content-Language: en")
}

func TestSendRescheduledSubject(t *testing.T) {
	s, sent := capturingSMTP(t)

	require.NoError(t, s.SendRescheduled(context.Background(), testEvent()))

	require.Len(t, *sent, 3)
	for _, m := range *sent {
		assert.Contains(t, m.msg, "Subject: Rescheduled: Design review")
	}
}

func TestBodyCarriesVideoCallDetails(t *testing.T) {
	s, sent := capturingSMTP(t)

	ev := testEvent()
	ev.VideoCall = &internal.VideoCallData{
		Type:     internal.TypeZoomVideo,
		ID:       "987654",
		Password: "s3cret",
		URL:      "https://zoom.us/j/987654",
	}
	require.NoError(t, s.SendScheduled(context.Background(), ev))

	require.NotEmpty(t, *sent)
	assert.Contains(t, (*sent)[0].msg, "Join: https://zoom.us/j/987654")
	assert.Contains(t, (*sent)[0].msg, "Password: s3cret")
}

func TestBodyFallsBackToHangoutLinkThenLocation(t *testing.T) {
	s, sent := capturingSMTP(t)

	ev := testEvent()
	ev.AdditionalInfo = &internal.AdditionalInfo{HangoutLink: "https://meet.example.com/abc"}
	require.NoError(t, s.SendScheduled(context.Background(), ev))
	assert.Contains(t, (*sent)[0].msg, "Join: https://meet.example.com/abc")

	*sent = nil
	ev = testEvent()
	ev.Location = "Office 12"
	require.NoError(t, s.SendScheduled(context.Background(), ev))
	assert.Contains(t, (*sent)[0].msg, "Where: Office 12")
}

func TestDisabledWithoutRelay(t *testing.T) {
	s := NewSMTP(testLogger(), "", "noreply@example.com", "", "")
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Error("send must not be called when no relay is configured")
		return nil
	}

	assert.NoError(t, s.SendScheduled(context.Background(), testEvent()))
}

func TestSendCollectsPerRecipientFailures(t *testing.T) {
	s := NewSMTP(testLogger(), "smtp.example.com:587", "noreply@example.com", "", "")
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if to[0] == "bob@example.com" {
			return errors.New("mailbox full")
		}
		return nil
	}

	err := s.SendScheduled(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bob@example.com")
	assert.NotContains(t, err.Error(), "carol@example.com")
}
