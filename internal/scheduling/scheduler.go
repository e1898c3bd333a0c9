package scheduling

import (
	"context"
	"errors"
	"time"

	"clinic-agenda-server/internal/availability"
	"clinic-agenda-server/internal/models"
)

// Store is the persistence surface the scheduler needs. CreateIfFree and
// MoveIfFree must be atomic with respect to concurrent calls for the same
// doctor and slot: when two calls race, exactly one wins and the other gets
// ErrSlotUnavailable.
type Store interface {
	DoctorByID(ctx context.Context, doctorID string) (*models.Doctor, error)
	PatientByID(ctx context.Context, patientID string) (*models.Patient, error)
	AppointmentByID(ctx context.Context, appointmentID string) (*models.Appointment, error)
	// BookedTimes lists the doctor's appointment starts in [from, to).
	BookedTimes(ctx context.Context, doctorID string, from, to time.Time) ([]time.Time, error)
	CreateIfFree(ctx context.Context, appt *models.Appointment) error
	MoveIfFree(ctx context.Context, appointmentID string, newStart time.Time) error
	Delete(ctx context.Context, appointmentID string) error
}

// Scheduler orchestrates appointment booking: tenant-isolation checks,
// availability resolution and the conflict-safe insert.
type Scheduler struct {
	store Store
}

func NewScheduler(store Store) *Scheduler {
	return &Scheduler{store: store}
}

// Request carries the input for scheduling a new appointment. ClinicID comes
// from the caller's session, never from the request body.
type Request struct {
	ClinicID  string
	DoctorID  string
	PatientID string
	Start     time.Time
}

// Schedule creates an appointment. It fails with ErrCrossTenantReference if
// the doctor or patient belongs to another clinic and ErrSlotUnavailable if
// the slot is outside working hours, unaligned or already booked.
func (s *Scheduler) Schedule(ctx context.Context, req Request) (*models.Appointment, error) {
	doctor, err := s.store.DoctorByID(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	patient, err := s.store.PatientByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if doctor.ClinicID != req.ClinicID || patient.ClinicID != req.ClinicID {
		return nil, ErrCrossTenantReference
	}

	if err := s.checkAvailability(ctx, doctor, req.Start, ""); err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		ClinicID:     req.ClinicID,
		DoctorID:     doctor.ID,
		PatientID:    patient.ID,
		Date:         req.Start,
		PriceInCents: doctor.AppointmentPriceInCents,
	}
	// The availability check above and this insert are not atomic on their
	// own; CreateIfFree closes the race via the store's transaction and the
	// (doctor_id, date) unique index.
	if err := s.store.CreateIfFree(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Reschedule moves an existing appointment to a new slot. The appointment's
// own current slot is excluded from the conflict check, so moving to the
// same time is a no-op rather than a false conflict.
func (s *Scheduler) Reschedule(ctx context.Context, clinicID, appointmentID string, newStart time.Time) (*models.Appointment, error) {
	appt, err := s.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.ClinicID != clinicID {
		return nil, ErrCrossTenantReference
	}
	if appt.Date.Equal(newStart) {
		return appt, nil
	}

	doctor, err := s.store.DoctorByID(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAvailability(ctx, doctor, newStart, appointmentID); err != nil {
		return nil, err
	}

	if err := s.store.MoveIfFree(ctx, appointmentID, newStart); err != nil {
		return nil, err
	}
	// Re-read so the caller sees the stored row, not a locally patched copy.
	return s.store.AppointmentByID(ctx, appointmentID)
}

// Cancel deletes an appointment, restoring its slot.
func (s *Scheduler) Cancel(ctx context.Context, clinicID, appointmentID string) error {
	appt, err := s.store.AppointmentByID(ctx, appointmentID)
	if err != nil {
		return err
	}
	if appt.ClinicID != clinicID {
		return ErrCrossTenantReference
	}
	return s.store.Delete(ctx, appointmentID)
}

// AvailableTimes lists the doctor's free slot starts for one calendar day.
func (s *Scheduler) AvailableTimes(ctx context.Context, clinicID, doctorID string, day time.Time) ([]availability.TimeOfDay, error) {
	doctor, err := s.store.DoctorByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if doctor.ClinicID != clinicID {
		return nil, ErrCrossTenantReference
	}
	window, err := doctor.Window()
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	booked, err := s.store.BookedTimes(ctx, doctorID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	return availability.OpenSlots(window, dayStart, booked), nil
}

// checkAvailability resolves whether start is a bookable slot for doctor,
// optionally ignoring one appointment (the one being rescheduled).
func (s *Scheduler) checkAvailability(ctx context.Context, doctor *models.Doctor, start time.Time, excludeID string) error {
	window, err := doctor.Window()
	if err != nil {
		return err
	}

	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	booked, err := s.store.BookedTimes(ctx, doctor.ID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	if excludeID != "" {
		if own, err := s.store.AppointmentByID(ctx, excludeID); err == nil {
			booked = withoutTime(booked, own.Date)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}

	if !availability.IsSlotAvailable(window, start, booked) {
		return ErrSlotUnavailable
	}
	return nil
}

func withoutTime(times []time.Time, drop time.Time) []time.Time {
	out := times[:0]
	for _, t := range times {
		if !t.Equal(drop) {
			out = append(out, t)
		}
	}
	return out
}
