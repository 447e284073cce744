package sqlite

import (
	"time"

	"github.com/guilherme-santos/bookcal/internal"
)

type Credential struct {
	ID   int64
	Type string
	Key  string
}

func (c Credential) Convert() internal.Credential {
	return internal.Credential{
		ID:   c.ID,
		Type: c.Type,
		Key:  []byte(c.Key),
	}
}

type Booking struct {
	ID       int64
	UID      string    `db:"uid"`
	Title    string
	StartsAt time.Time `db:"starts_at"`
	EndsAt   time.Time `db:"ends_at"`
}

func (b Booking) Convert() *internal.Booking {
	return &internal.Booking{
		ID:       b.ID,
		UID:      b.UID,
		Title:    b.Title,
		StartsAt: b.StartsAt,
		EndsAt:   b.EndsAt,
	}
}

type Reference struct {
	Type            string
	UID             string `db:"uid"`
	MeetingID       string `db:"meeting_id"`
	MeetingPassword string `db:"meeting_password"`
	MeetingURL      string `db:"meeting_url"`
}

func (r Reference) Convert() internal.PartialReference {
	return internal.PartialReference{
		Type:            r.Type,
		UID:             r.UID,
		MeetingID:       r.MeetingID,
		MeetingPassword: r.MeetingPassword,
		MeetingURL:      r.MeetingURL,
	}
}
