// Package booking is the orchestration core: given one booking request and
// the user's credentials it decides which provider adapters to invoke, in
// what order, how to merge their results and whether to notify attendees.
package booking

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/guilherme-santos/bookcal/internal"
)

// Registry resolves credential types to adapters. Unknown types resolve to
// nothing and are skipped, never treated as errors.
type Registry interface {
	Calendar(typ string) (internal.Provider, bool)
	Video(typ string) (internal.VideoProvider, bool)
}

// Store is the slice of persistence the coordinator needs: reading the prior
// booking during an update and tearing it down afterwards.
type Store interface {
	Booking(ctx context.Context, uid string) (*internal.Booking, error)
	DeleteBooking(ctx context.Context, id int64) error
	DeleteReferences(ctx context.Context, bookingID int64) error
	DeleteAttendees(ctx context.Context, bookingID int64) error
}

// Mailer sends the attendee/organizer notification pair for a booking. Send
// failures never fail the booking; the coordinator logs and moves on.
type Mailer interface {
	SendScheduled(ctx context.Context, ev *internal.CalendarEvent) error
	SendRescheduled(ctx context.Context, ev *internal.CalendarEvent) error
}

// Result is what the caller persists: per-provider outcomes plus the
// reference rows to create for the new booking.
type Result struct {
	Results            []internal.EventResult
	ReferencesToCreate []internal.PartialReference
}

type Manager struct {
	log    *slog.Logger
	reg    Registry
	store  Store
	mailer Mailer
}

func NewManager(log *slog.Logger, reg Registry, store Store, mailer Mailer) *Manager {
	return &Manager{
		log:    log,
		reg:    reg,
		store:  store,
		mailer: mailer,
	}
}

// Create books the event across the relevant providers: calendar dispatch
// first, then the dedicated video call when the location demands one. One
// provider failing is recorded in its result and never hides another
// provider's success.
func (m *Manager) Create(ctx context.Context, creds []internal.Credential, ev *internal.CalendarEvent) (*Result, error) {
	if ev.Language == "" {
		return nil, fmt.Errorf("booking: event carries no language")
	}

	EnrichLocation(ev)

	results := m.createCalendarEvents(ctx, creds, ev)

	if typ, ok := dedicatedCredentialType(ev.Location); ok {
		vres, err := m.createVideoEvent(ctx, creds, typ, ev)
		if err != nil {
			return nil, err
		}
		results = append(results, *vres)
	}

	res := &Result{
		Results:            results,
		ReferencesToCreate: referencesFor(results),
	}
	m.notify(ctx, ev, results, false)
	return res, nil
}

// Update reschedules the booking named by rescheduleUID. After the new
// provider-side state exists and notifications went out, the old booking row,
// its references and its attendees are deleted concurrently; the update fails
// as a whole unless all three deletions succeed.
func (m *Manager) Update(ctx context.Context, creds []internal.Credential, ev *internal.CalendarEvent, rescheduleUID string) (*Result, error) {
	if rescheduleUID == "" {
		return nil, internal.ErrNoRescheduleUID
	}
	if ev.Language == "" {
		return nil, fmt.Errorf("booking: event carries no language")
	}

	prior, err := m.store.Booking(ctx, rescheduleUID)
	if err != nil {
		return nil, err
	}

	ev.UID = rescheduleUID
	EnrichLocation(ev)

	results := m.updateCalendarEvents(ctx, creds, prior, ev)

	if typ, ok := dedicatedCredentialType(ev.Location); ok {
		vres, err := m.updateVideoEvent(ctx, creds, typ, prior, ev)
		if err != nil {
			return nil, err
		}
		results = append(results, *vres)
	}

	refs := referencesFor(results)
	if len(refs) == 0 {
		// Dedicated-video reschedules can legitimately skip calendar
		// dispatch; carrying the old references forward keeps the booking
		// linked to its calendar-side entries.
		refs = prior.References
	}

	res := &Result{
		Results:            results,
		ReferencesToCreate: refs,
	}
	m.notify(ctx, ev, results, true)

	if err := m.cleanupOld(ctx, prior); err != nil {
		return nil, err
	}
	return res, nil
}

// createCalendarEvents writes to the first calendar credential only. The
// system does not replicate one booking across multiple calendar accounts;
// holders of several calendar credentials still get exactly one entry.
func (m *Manager) createCalendarEvents(ctx context.Context, creds []internal.Credential, ev *internal.CalendarEvent) []internal.EventResult {
	cred, ok := firstCalendarCredential(creds)
	if !ok {
		return nil
	}
	p, ok := m.reg.Calendar(cred.Type)
	if !ok {
		m.log.Debug("skipping credential with no registered adapter", "type", cred.Type)
		return nil
	}

	pe, err := p.CreateEvent(ctx, ev)
	if err != nil {
		m.log.Error("calendar create failed", "type", cred.Type, "err", err)
		return []internal.EventResult{{Type: cred.Type, Original: ev}}
	}
	return []internal.EventResult{{
		Type:         cred.Type,
		Success:      true,
		UID:          NativeUID(cred.Type, pe),
		CreatedEvent: pe,
		Original:     ev,
	}}
}

func (m *Manager) updateCalendarEvents(ctx context.Context, creds []internal.Credential, prior *internal.Booking, ev *internal.CalendarEvent) []internal.EventResult {
	cred, ok := firstCalendarCredential(creds)
	if !ok {
		return nil
	}
	p, ok := m.reg.Calendar(cred.Type)
	if !ok {
		m.log.Debug("skipping credential with no registered adapter", "type", cred.Type)
		return nil
	}

	ref, ok := prior.ReferenceByType(cred.Type)
	if !ok {
		// No provider-side entry to update; failure-free result without an
		// updated event so the caller can still commit.
		m.log.Debug("no prior reference for provider, skipping update", "type", cred.Type)
		return []internal.EventResult{{Type: cred.Type, Success: true, Original: ev}}
	}

	pe, err := p.UpdateEvent(ctx, ref.UID, ev)
	if err != nil {
		m.log.Error("calendar update failed", "type", cred.Type, "uid", ref.UID, "err", err)
		return []internal.EventResult{{Type: cred.Type, Original: ev}}
	}

	uid := NativeUID(cred.Type, pe)
	if uid == "" {
		uid = ref.UID
	}
	return []internal.EventResult{{
		Type:         cred.Type,
		Success:      true,
		UID:          uid,
		UpdatedEvent: pe,
		Original:     ev,
	}}
}

func (m *Manager) createVideoEvent(ctx context.Context, creds []internal.Credential, typ string, ev *internal.CalendarEvent) (*internal.EventResult, error) {
	vp, cred, err := m.videoProvider(creds, typ)
	if err != nil {
		return nil, err
	}

	vc, err := vp.CreateMeeting(ctx, ev)
	if err != nil {
		m.log.Error("video create failed", "type", cred.Type, "err", err)
		return &internal.EventResult{Type: cred.Type, Original: ev}, nil
	}

	ev.VideoCall = vc
	return &internal.EventResult{
		Type:         cred.Type,
		Success:      true,
		UID:          vc.ID,
		CreatedEvent: videoProviderEvent(cred.Type, vc.ID),
		Original:     ev,
		VideoCall:    vc,
	}, nil
}

func (m *Manager) updateVideoEvent(ctx context.Context, creds []internal.Credential, typ string, prior *internal.Booking, ev *internal.CalendarEvent) (*internal.EventResult, error) {
	vp, cred, err := m.videoProvider(creds, typ)
	if err != nil {
		return nil, err
	}

	ref, ok := prior.ReferenceByType(cred.Type)
	if !ok {
		m.log.Debug("no prior reference for provider, skipping update", "type", cred.Type)
		return &internal.EventResult{Type: cred.Type, Success: true, Original: ev}, nil
	}

	vc, err := vp.UpdateMeeting(ctx, ref, ev)
	if err != nil {
		m.log.Error("video update failed", "type", cred.Type, "uid", ref.UID, "err", err)
		return &internal.EventResult{Type: cred.Type, Original: ev}, nil
	}
	if vc == nil {
		// Provider did not echo meeting credentials; rebuild them from the
		// stored reference. Incomplete references yield nothing: partial
		// join data is worse than none.
		vc = reconstructVideoCallData(cred.Type, ref)
	}
	ev.VideoCall = vc

	return &internal.EventResult{
		Type:         cred.Type,
		Success:      true,
		UID:          ref.UID,
		UpdatedEvent: videoProviderEvent(cred.Type, ref.UID),
		Original:     ev,
		VideoCall:    vc,
	}, nil
}

// videoProvider resolves the credential and adapter for a dedicated
// integration. Absence of either is a configuration error the caller must
// surface, never retry.
func (m *Manager) videoProvider(creds []internal.Credential, typ string) (internal.VideoProvider, internal.Credential, error) {
	cred, ok := credentialOfType(creds, typ)
	if !ok {
		return nil, internal.Credential{}, fmt.Errorf("%w: %s", internal.ErrNoSuitableCredential, typ)
	}
	vp, ok := m.reg.Video(cred.Type)
	if !ok {
		return nil, internal.Credential{}, fmt.Errorf("%w: %s", internal.ErrNoSuitableCredential, typ)
	}
	return vp, cred, nil
}

// notify sends the attendee/organizer mail pair unless the booking is a
// dedicated-video one (the video mail flow supersedes the generic one) or a
// provider explicitly disabled confirmation mail.
func (m *Manager) notify(ctx context.Context, ev *internal.CalendarEvent, results []internal.EventResult, reschedule bool) {
	if IsDedicated(ev.Location) {
		return
	}
	for _, res := range results {
		if pe := res.Event(); pe != nil && pe.DisableConfirmationEmail {
			return
		}
	}

	attachAdditionalInfo(ev, results)

	var err error
	if reschedule {
		err = m.mailer.SendRescheduled(ctx, ev)
	} else {
		err = m.mailer.SendScheduled(ctx, ev)
	}
	if err != nil {
		m.log.Error("unable to send booking notification", "title", ev.Title, "err", err)
	}
}

// cleanupOld removes the old booking's reference rows, attendee rows and the
// booking row itself, concurrently, as one logical step.
func (m *Manager) cleanupOld(ctx context.Context, prior *internal.Booking) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.store.DeleteReferences(ctx, prior.ID) })
	g.Go(func() error { return m.store.DeleteAttendees(ctx, prior.ID) })
	g.Go(func() error { return m.store.DeleteBooking(ctx, prior.ID) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("booking: cleaning up old booking %s: %w", prior.UID, err)
	}
	return nil
}

func firstCalendarCredential(creds []internal.Credential) (internal.Credential, bool) {
	for _, cred := range creds {
		if cred.IsCalendar() {
			return cred, true
		}
	}
	return internal.Credential{}, false
}

func credentialOfType(creds []internal.Credential, typ string) (internal.Credential, bool) {
	for _, cred := range creds {
		if cred.Type == typ {
			return cred, true
		}
	}
	return internal.Credential{}, false
}
