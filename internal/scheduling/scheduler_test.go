package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-agenda-server/internal/models"
)

// fakeStore is an in-memory Store whose CreateIfFree/MoveIfFree are atomic
// under a mutex, mirroring the unique-index guarantee of the real store.
type fakeStore struct {
	mu           sync.Mutex
	doctors      map[string]*models.Doctor
	patients     map[string]*models.Patient
	appointments map[string]*models.Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		doctors:      make(map[string]*models.Doctor),
		patients:     make(map[string]*models.Patient),
		appointments: make(map[string]*models.Appointment),
	}
}

func (f *fakeStore) DoctorByID(_ context.Context, id string) (*models.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.doctors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) PatientByID(_ context.Context, id string) (*models.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) AppointmentByID(_ context.Context, id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeStore) BookedTimes(_ context.Context, doctorID string, from, to time.Time) ([]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var times []time.Time
	for _, a := range f.appointments {
		if a.DoctorID == doctorID && !a.Date.Before(from) && a.Date.Before(to) {
			times = append(times, a.Date)
		}
	}
	return times, nil
}

func (f *fakeStore) CreateIfFree(_ context.Context, appt *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appointments {
		if a.DoctorID == appt.DoctorID && a.Date.Equal(appt.Date) {
			return ErrSlotUnavailable
		}
	}
	if appt.ID == "" {
		appt.ID = uuid.New().String()
	}
	cp := *appt
	f.appointments[appt.ID] = &cp
	return nil
}

func (f *fakeStore) MoveIfFree(_ context.Context, id string, newStart time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.appointments[id]
	if !ok {
		return ErrNotFound
	}
	for _, a := range f.appointments {
		if a.ID != id && a.DoctorID == appt.DoctorID && a.Date.Equal(newStart) {
			return ErrSlotUnavailable
		}
	}
	appt.Date = newStart
	appt.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appointments[id]; !ok {
		return ErrNotFound
	}
	delete(f.appointments, id)
	return nil
}

const (
	clinicID      = "clinic-1"
	otherClinicID = "clinic-2"
)

func seedStore(t *testing.T) (*fakeStore, *models.Doctor, *models.Patient) {
	t.Helper()
	store := newFakeStore()
	doctor := &models.Doctor{
		BaseModel:               models.BaseModel{ID: "doc-1"},
		ClinicID:                clinicID,
		Name:                    "Dr. Alba",
		Specialty:               "cardiology",
		AvailableFromWeekDay:    1, // Monday
		AvailableToWeekDay:      5, // Friday
		AvailableFromTime:       "08:00:00",
		AvailableToTime:         "18:00:00",
		AppointmentPriceInCents: 15000,
	}
	patient := &models.Patient{
		BaseModel: models.BaseModel{ID: "pat-1"},
		ClinicID:  clinicID,
		Name:      "Joan",
		Email:     "joan@example.com",
		Sex:       models.SexFemale,
	}
	store.doctors[doctor.ID] = doctor
	store.patients[patient.ID] = patient
	return store, doctor, patient
}

// 2026-01-05 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2026, 1, 5, hour, minute, 0, 0, time.UTC)
}

func TestSchedule(t *testing.T) {
	store, doctor, patient := seedStore(t)
	sched := NewScheduler(store)
	ctx := context.Background()

	appt, err := sched.Schedule(ctx, Request{
		ClinicID:  clinicID,
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Start:     monday(10, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, clinicID, appt.ClinicID)
	assert.Equal(t, doctor.AppointmentPriceInCents, appt.PriceInCents)

	// Round trip: the slot just booked is no longer available.
	slots, err := sched.AvailableTimes(ctx, clinicID, doctor.ID, monday(0, 0))
	require.NoError(t, err)
	for _, s := range slots {
		assert.NotEqual(t, "10:00", s.String())
	}

	// ...and booking it again fails.
	_, err = sched.Schedule(ctx, Request{
		ClinicID:  clinicID,
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Start:     monday(10, 0),
	})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Cancelling restores availability.
	require.NoError(t, sched.Cancel(ctx, clinicID, appt.ID))
	_, err = sched.Schedule(ctx, Request{
		ClinicID:  clinicID,
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Start:     monday(10, 0),
	})
	assert.NoError(t, err)
}

func TestScheduleRejectsOutsideWorkingHours(t *testing.T) {
	store, doctor, patient := seedStore(t)
	sched := NewScheduler(store)
	ctx := context.Background()

	req := Request{ClinicID: clinicID, DoctorID: doctor.ID, PatientID: patient.ID}

	// Before opening time.
	req.Start = monday(7, 30)
	_, err := sched.Schedule(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Sunday, outside the Monday-Friday range.
	req.Start = time.Date(2026, 1, 4, 10, 0, 0, 0, time.UTC)
	_, err = sched.Schedule(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Unaligned start.
	req.Start = monday(10, 10)
	_, err = sched.Schedule(ctx, req)
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestScheduleCrossTenant(t *testing.T) {
	store, doctor, patient := seedStore(t)
	foreign := &models.Patient{
		BaseModel: models.BaseModel{ID: "pat-2"},
		ClinicID:  otherClinicID,
		Name:      "Maya",
	}
	store.patients[foreign.ID] = foreign

	sched := NewScheduler(store)
	ctx := context.Background()

	_, err := sched.Schedule(ctx, Request{
		ClinicID:  clinicID,
		DoctorID:  doctor.ID,
		PatientID: foreign.ID,
		Start:     monday(10, 0),
	})
	assert.ErrorIs(t, err, ErrCrossTenantReference)

	// A clinic cannot book against another clinic's doctor either.
	_, err = sched.Schedule(ctx, Request{
		ClinicID:  otherClinicID,
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Start:     monday(10, 0),
	})
	assert.ErrorIs(t, err, ErrCrossTenantReference)

	_, err = sched.Schedule(ctx, Request{
		ClinicID:  clinicID,
		DoctorID:  "missing",
		PatientID: patient.ID,
		Start:     monday(10, 0),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReschedule(t *testing.T) {
	store, doctor, patient := seedStore(t)
	sched := NewScheduler(store)
	ctx := context.Background()

	appt, err := sched.Schedule(ctx, Request{
		ClinicID:  clinicID,
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Start:     monday(10, 0),
	})
	require.NoError(t, err)

	// Rescheduling to its own slot is a no-op, not a conflict.
	same, err := sched.Reschedule(ctx, clinicID, appt.ID, monday(10, 0))
	require.NoError(t, err)
	assert.True(t, same.Date.Equal(monday(10, 0)))

	// Moving to a free slot works, and the result reflects the stored row.
	moved, err := sched.Reschedule(ctx, clinicID, appt.ID, monday(11, 0))
	require.NoError(t, err)
	assert.True(t, moved.Date.Equal(monday(11, 0)))
	stored, err := store.AppointmentByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.UpdatedAt, moved.UpdatedAt)
	assert.True(t, moved.UpdatedAt.After(appt.UpdatedAt))

	// Moving onto another appointment's slot conflicts.
	blocker, err := sched.Schedule(ctx, Request{
		ClinicID:  clinicID,
		DoctorID:  doctor.ID,
		PatientID: patient.ID,
		Start:     monday(14, 0),
	})
	require.NoError(t, err)
	_, err = sched.Reschedule(ctx, clinicID, appt.ID, blocker.Date)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	// Another clinic cannot touch the appointment.
	_, err = sched.Reschedule(ctx, otherClinicID, appt.ID, monday(15, 0))
	assert.ErrorIs(t, err, ErrCrossTenantReference)
}

func TestConcurrentScheduleSameSlot(t *testing.T) {
	store, doctor, patient := seedStore(t)
	sched := NewScheduler(store)
	ctx := context.Background()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = sched.Schedule(ctx, Request{
				ClinicID:  clinicID,
				DoctorID:  doctor.ID,
				PatientID: patient.ID,
				Start:     monday(9, 30),
			})
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		}
	}
	assert.Equal(t, 1, successes, "exactly one booking must win the race")
}

func TestAvailableTimesWeekdayWrap(t *testing.T) {
	store, doctor, _ := seedStore(t)
	doctor.AvailableFromWeekDay = 5 // Friday
	doctor.AvailableToWeekDay = 1   // Monday

	sched := NewScheduler(store)
	ctx := context.Background()

	// Monday is inside the wrapped range.
	slots, err := sched.AvailableTimes(ctx, clinicID, doctor.ID, monday(0, 0))
	require.NoError(t, err)
	assert.NotEmpty(t, slots)

	// 2026-01-07 is a Wednesday, outside Friday..Monday.
	wednesday := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	slots, err = sched.AvailableTimes(ctx, clinicID, doctor.ID, wednesday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}
