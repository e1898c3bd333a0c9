package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/models"
)

const mysqlDuplicateEntry = 1062

// GormStore implements Store over the application database. Conflict safety
// comes from two layers: the existence check and the write run inside one
// transaction, and the (doctor_id, date) unique index turns a concurrent
// conflicting write into a duplicate-key error instead of a double booking.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DoctorByID(ctx context.Context, doctorID string) (*models.Doctor, error) {
	var doctor models.Doctor
	if err := s.db.WithContext(ctx).First(&doctor, "id = ?", doctorID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &doctor, nil
}

func (s *GormStore) PatientByID(ctx context.Context, patientID string) (*models.Patient, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", patientID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &patient, nil
}

func (s *GormStore) AppointmentByID(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.db.WithContext(ctx).First(&appt, "id = ?", appointmentID).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &appt, nil
}

func (s *GormStore) BookedTimes(ctx context.Context, doctorID string, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("doctor_id = ? AND date >= ? AND date < ?", doctorID, from, to).
		Order("date asc").
		Pluck("date", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (s *GormStore) CreateIfFree(ctx context.Context, appt *models.Appointment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Appointment{}).
			Where("doctor_id = ? AND date = ?", appt.DoctorID, appt.Date).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotUnavailable
		}
		return translateDuplicate(tx.Create(appt).Error)
	})
}

func (s *GormStore) MoveIfFree(ctx context.Context, appointmentID string, newStart time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var appt models.Appointment
		if err := tx.First(&appt, "id = ?", appointmentID).Error; err != nil {
			return translateNotFound(err)
		}
		var count int64
		if err := tx.Model(&models.Appointment{}).
			Where("doctor_id = ? AND date = ? AND id <> ?", appt.DoctorID, newStart, appointmentID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrSlotUnavailable
		}
		err := tx.Model(&appt).Update("date", newStart).Error
		return translateDuplicate(err)
	})
}

func (s *GormStore) Delete(ctx context.Context, appointmentID string) error {
	res := s.db.WithContext(ctx).Delete(&models.Appointment{}, "id = ?", appointmentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// translateDuplicate maps a unique-index violation on (doctor_id, date) to
// ErrSlotUnavailable. This is the path taken when a concurrent request won
// the race after our in-transaction check passed.
func translateDuplicate(err error) error {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return ErrSlotUnavailable
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlotUnavailable
	}
	return err
}
