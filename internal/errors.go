package internal

import "errors"

var (
	// ErrNoRescheduleUID means an update was requested without saying which
	// booking to reschedule. Programming error, never retried.
	ErrNoRescheduleUID = errors.New("no reschedule uid provided")

	// ErrBookingNotFound means the reschedule uid points at nothing.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNoSuitableCredential means the event asked for a video integration
	// the user holds no credential for. Configuration error, not transient.
	ErrNoSuitableCredential = errors.New("no suitable credentials for requested integration")
)
