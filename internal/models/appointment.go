package models

import (
	"time"
)

// Appointment references exactly one doctor and one patient of the same
// clinic. Date is the slot start. The composite unique index on
// (doctor_id, date) is the backstop against double booking: a concurrent
// insert for the same doctor and slot fails with a duplicate-key error
// instead of silently succeeding.
type Appointment struct {
	BaseModel
	ClinicID     string    `gorm:"size:36;index;not null" json:"clinicId"`
	DoctorID     string    `gorm:"size:36;not null;uniqueIndex:idx_doctor_slot,priority:1" json:"doctorId"`
	PatientID    string    `gorm:"size:36;index;not null" json:"patientId"`
	Date         time.Time `gorm:"not null;uniqueIndex:idx_doctor_slot,priority:2" json:"date"`
	PriceInCents int       `gorm:"not null" json:"priceInCents"`

	// Relations
	Clinic  Clinic  `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE" json:"-"`
	Doctor  Doctor  `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"doctor,omitempty"`
	Patient Patient `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"patient,omitempty"`
}
