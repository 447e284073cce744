package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/guilherme-santos/bookcal/internal"
	"github.com/guilherme-santos/bookcal/internal/booking"
)

func bookCommand(log *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "book",
		Usage: "create (or reschedule) a booking across the connected providers",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Required: true},
			&cli.TimestampFlag{Name: "start", Layout: time.RFC3339, Required: true},
			&cli.TimestampFlag{Name: "end", Layout: time.RFC3339, Required: true},
			&cli.StringFlag{Name: "description"},
			&cli.StringFlag{Name: "location", Usage: `free text or an integration sentinel like "integrations:zoom"`},
			&cli.StringFlag{Name: "organizer-name", Required: true},
			&cli.StringFlag{Name: "organizer-email", Required: true},
			&cli.StringFlag{Name: "organizer-tz", Value: "UTC"},
			&cli.StringSliceFlag{Name: "attendee", Usage: `repeatable, "Name <email>" or plain email`},
			&cli.StringFlag{Name: "language", Value: "en"},
			&cli.StringFlag{Name: "reschedule", Usage: "uid of the booking to reschedule"},
		},
		Action: func(c *cli.Context) error {
			env, err := setup(c.Context, c, log)
			if err != nil {
				return err
			}

			ev := &internal.CalendarEvent{
				Type:        "booking",
				Title:       c.String("title"),
				StartsAt:    *c.Timestamp("start"),
				EndsAt:      *c.Timestamp("end"),
				Description: c.String("description"),
				Location:    c.String("location"),
				Organizer: internal.Person{
					Name:     c.String("organizer-name"),
					Email:    c.String("organizer-email"),
					TimeZone: c.String("organizer-tz"),
				},
				Language: c.String("language"),
			}
			for _, raw := range c.StringSlice("attendee") {
				ev.Attendees = append(ev.Attendees, parseAttendee(raw))
			}

			mgr := env.manager()

			var out *bookingResult
			if rescheduleUID := c.String("reschedule"); rescheduleUID != "" {
				r, err := mgr.Update(c.Context, env.creds, ev, rescheduleUID)
				if err != nil {
					return err
				}
				out = &bookingResult{uid: rescheduleUID, result: r}
			} else {
				r, err := mgr.Create(c.Context, env.creds, ev)
				if err != nil {
					return err
				}
				out = &bookingResult{uid: uuid.NewString(), result: r}
			}

			row := &internal.Booking{
				UID:        out.uid,
				Title:      ev.Title,
				StartsAt:   ev.StartsAt,
				EndsAt:     ev.EndsAt,
				References: out.result.ReferencesToCreate,
			}
			if err := env.storage.CreateBooking(c.Context, row, ev.Attendees); err != nil {
				return fmt.Errorf("persisting booking: %w", err)
			}

			fmt.Fprintf(os.Stdout, "Booking %s\n", out.uid)
			for _, r := range out.result.Results {
				status := "ok"
				if !r.Success {
					status = "failed"
				}
				fmt.Fprintf(os.Stdout, "  %-20s %s\n", r.Type, status)
			}
			if ev.VideoCall != nil {
				fmt.Fprintf(os.Stdout, "  join: %s\n", ev.VideoCall.URL)
			}
			return nil
		},
	}
}

func availabilityCommand(log *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "availability",
		Usage: "list busy time across every connected provider",
		Flags: []cli.Flag{
			&cli.TimestampFlag{Name: "from", Layout: time.RFC3339, Required: true},
			&cli.TimestampFlag{Name: "to", Layout: time.RFC3339, Required: true},
		},
		Action: func(c *cli.Context) error {
			env, err := setup(c.Context, c, log)
			if err != nil {
				return err
			}

			busy := env.aggregator().BusyTimes(c.Context, env.creds,
				*c.Timestamp("from"), *c.Timestamp("to"), nil)
			for _, b := range busy {
				fmt.Fprintf(os.Stdout, "%s - %s\n",
					b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func calendarsCommand(log *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "calendars",
		Usage: "list calendars on every connected calendar provider",
		Action: func(c *cli.Context) error {
			env, err := setup(c.Context, c, log)
			if err != nil {
				return err
			}

			for _, cred := range env.creds {
				p, ok := env.mux.Calendar(cred.Type)
				if !ok {
					continue
				}
				cals, err := p.Calendars(c.Context)
				if err != nil {
					log.Error("unable to list calendars", "type", cred.Type, "err", err)
					continue
				}
				for _, cal := range cals {
					marker := " "
					if cal.Primary {
						marker = "*"
					}
					fmt.Fprintf(os.Stdout, "%s %-20s %s (%s)\n", marker, cred.Type, cal.Name, cal.ExternalID)
				}
			}
			return nil
		},
	}
}

func addCredentialCommand(log *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "add-credential",
		Usage: "store a provider credential (key blob read from a file)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Required: true, Usage: "e.g. google_calendar, zoom_video"},
			&cli.StringFlag{Name: "key-file", Required: true},
		},
		Action: func(c *cli.Context) error {
			env, err := setup(c.Context, c, log)
			if err != nil {
				return err
			}

			key, err := os.ReadFile(c.String("key-file"))
			if err != nil {
				return fmt.Errorf("reading key file: %w", err)
			}
			cred := &internal.Credential{Type: c.String("type"), Key: key}
			if err := env.storage.AddCredential(c.Context, cred); err != nil {
				return fmt.Errorf("storing credential: %w", err)
			}
			fmt.Fprintf(os.Stdout, "Credential %d (%s) stored\n", cred.ID, cred.Type)
			return nil
		},
	}
}

type bookingResult struct {
	uid    string
	result *booking.Result
}

func parseAttendee(raw string) internal.Person {
	if name, email, ok := strings.Cut(raw, "<"); ok {
		return internal.Person{
			Name:  strings.TrimSpace(name),
			Email: strings.TrimSuffix(strings.TrimSpace(email), ">"),
		}
	}
	return internal.Person{Email: strings.TrimSpace(raw)}
}
