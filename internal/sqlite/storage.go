package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/guilherme-santos/bookcal/internal"
)

const DriverName = "sqlite3"

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sql.DB) *Storage {
	s := &Storage{
		db: sqlx.NewDb(db, DriverName),
	}
	err := s.RunMigrations()
	if err != nil {
		panic(fmt.Sprintf("sqlite: running migrations: %v", err))
	}
	return s
}

func (s Storage) Credentials(ctx context.Context) ([]internal.Credential, error) {
	var creds []Credential
	err := s.db.SelectContext(ctx, &creds, `
		SELECT id, type, key FROM credentials ORDER BY id
	`)
	if err != nil {
		return nil, err
	}

	res := make([]internal.Credential, len(creds))
	for i, c := range creds {
		res[i] = c.Convert()
	}
	return res, nil
}

func (s Storage) AddCredential(ctx context.Context, cred *internal.Credential) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (type, key) VALUES (?, ?)
	`, cred.Type, string(cred.Key))
	if err != nil {
		return err
	}
	cred.ID, err = result.LastInsertId()
	return err
}

// UpdateCredentialKey replaces the whole key blob: token refresh writes a
// complete new value, never individual fields.
func (s Storage) UpdateCredentialKey(ctx context.Context, id int64, key []byte) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET key = ? WHERE id = ?
	`, string(key), id)
	return err
}

func (s Storage) CreateBooking(ctx context.Context, b *internal.Booking, attendees []internal.Person) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (uid, title, starts_at, ends_at)
		VALUES (?, ?, ?, ?)
	`, b.UID, b.Title, b.StartsAt, b.EndsAt)
	if err != nil {
		return fmt.Errorf("booking row: %w", err)
	}
	b.ID, err = result.LastInsertId()
	if err != nil {
		return err
	}

	for _, ref := range b.References {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO booking_references
				(booking_id, type, uid, meeting_id, meeting_password, meeting_url)
			VALUES (?, ?, ?, ?, ?, ?)
		`, b.ID, ref.Type, ref.UID, ref.MeetingID, ref.MeetingPassword, ref.MeetingURL)
		if err != nil {
			return fmt.Errorf("reference row: %w", err)
		}
	}

	for _, att := range attendees {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO attendees (booking_id, name, email, time_zone)
			VALUES (?, ?, ?, ?)
		`, b.ID, att.Name, att.Email, att.TimeZone)
		if err != nil {
			return fmt.Errorf("attendee row: %w", err)
		}
	}
	return tx.Commit()
}

func (s Storage) Booking(ctx context.Context, uid string) (*internal.Booking, error) {
	var b Booking
	err := s.db.GetContext(ctx, &b, `
		SELECT id, uid, title, starts_at, ends_at
		FROM bookings
		WHERE uid = ?
	`, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", internal.ErrBookingNotFound, uid)
	}
	if err != nil {
		return nil, err
	}

	var refs []Reference
	err = s.db.SelectContext(ctx, &refs, `
		SELECT type, uid, meeting_id, meeting_password, meeting_url
		FROM booking_references
		WHERE booking_id = ?
		ORDER BY id
	`, b.ID)
	if err != nil {
		return nil, err
	}

	res := b.Convert()
	for _, ref := range refs {
		res.References = append(res.References, ref.Convert())
	}
	return res, nil
}

func (s Storage) DeleteBooking(ctx context.Context, bookingID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM bookings WHERE id = ?
	`, bookingID)
	return err
}

func (s Storage) DeleteReferences(ctx context.Context, bookingID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM booking_references WHERE booking_id = ?
	`, bookingID)
	return err
}

func (s Storage) DeleteAttendees(ctx context.Context, bookingID int64) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM attendees WHERE booking_id = ?
	`, bookingID)
	return err
}
