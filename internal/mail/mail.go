// Package mail sends booking notifications over SMTP: one mail to the
// organizer and one per attendee, in new and reschedule variants.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/guilherme-santos/bookcal/internal"
)

// SMTP sends through a plain SMTP relay. With no address configured it is
// disabled and every send becomes a logged no-op, so environments without a
// relay still book fine.
type SMTP struct {
	log  *slog.Logger
	addr string
	from string
	auth smtp.Auth

	// send is swapped out in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTP(log *slog.Logger, addr, from, username, password string) *SMTP {
	s := &SMTP{
		log:  log,
		addr: addr,
		from: from,
		send: smtp.SendMail,
	}
	if addr == "" {
		log.Warn("smtp relay not configured, booking notifications disabled")
		return s
	}
	if username != "" {
		host, _, _ := strings.Cut(addr, ":")
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

func (s *SMTP) SendScheduled(ctx context.Context, ev *internal.CalendarEvent) error {
	return s.sendAll(ctx, ev, false)
}

func (s *SMTP) SendRescheduled(ctx context.Context, ev *internal.CalendarEvent) error {
	return s.sendAll(ctx, ev, true)
}

func (s *SMTP) sendAll(ctx context.Context, ev *internal.CalendarEvent, reschedule bool) error {
	if s.addr == "" {
		s.log.Debug("notifications disabled, skipping", "title", ev.Title)
		return nil
	}

	recipients := make([]internal.Person, 0, len(ev.Attendees)+1)
	recipients = append(recipients, ev.Organizer)
	recipients = append(recipients, ev.Attendees...)

	var failed []string
	for _, rcpt := range recipients {
		if err := ctx.Err(); err != nil {
			return err
		}
		organizer := rcpt.Email == ev.Organizer.Email
		msg := newMessage(s.from, rcpt, ev, organizer, reschedule)
		if err := s.send(s.addr, s.auth, s.from, []string{rcpt.Email}, msg); err != nil {
			s.log.Error("unable to send notification mail", "to", rcpt.Email, "err", err)
			failed = append(failed, rcpt.Email)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("mail: sending to %s", strings.Join(failed, ", "))
	}
	return nil
}

func newMessage(from string, rcpt internal.Person, ev *internal.CalendarEvent, organizer, reschedule bool) []byte {
	var subject string
	switch {
	case organizer && reschedule:
		subject = "Rescheduled: " + ev.Title
	case organizer:
		subject = "New booking: " + ev.Title
	case reschedule:
		subject = "Rescheduled: " + ev.Title
	default:
		subject = "Confirmed: " + ev.Title
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s\r\n\r\n", ev.Title)
	fmt.Fprintf(&body, "When: %s - %s\r\n", inZone(ev.StartsAt, rcpt.TimeZone), inZone(ev.EndsAt, rcpt.TimeZone))
	if ev.VideoCall != nil && ev.VideoCall.URL != "" {
		fmt.Fprintf(&body, "Join: %s\r\n", ev.VideoCall.URL)
		if ev.VideoCall.Password != "" {
			fmt.Fprintf(&body, "Password: %s\r\n", ev.VideoCall.Password)
		}
	} else if ev.AdditionalInfo != nil && ev.AdditionalInfo.HangoutLink != "" {
		fmt.Fprintf(&body, "Join: %s\r\n", ev.AdditionalInfo.HangoutLink)
	} else if ev.Location != "" {
		fmt.Fprintf(&body, "Where: %s\r\n", ev.Location)
	}
	if ev.Description != "" {
		fmt.Fprintf(&body, "\r\n%s\r\n", ev.Description)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", rcpt.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "Content-Language: %s\r\n", ev.Language)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body.String())
	return []byte(msg.String())
}

func inZone(t time.Time, tz string) string {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			t = t.In(loc)
		}
	}
	return t.Format("Mon, 02 Jan 2006 15:04 MST")
}
