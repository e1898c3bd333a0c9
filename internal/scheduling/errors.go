package scheduling

import "errors"

var (
	// ErrSlotUnavailable means the requested time is outside the doctor's
	// working hours or already booked. Retryable by picking another slot.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrCrossTenantReference means the doctor or patient does not belong
	// to the requesting clinic. Never retried.
	ErrCrossTenantReference = errors.New("doctor or patient does not belong to this clinic")

	// ErrNotFound means the referenced entity does not exist at all.
	ErrNotFound = errors.New("not found")
)
