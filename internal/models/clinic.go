package models

import "time"

// Clinic is the tenant boundary: every doctor, patient and appointment is
// scoped to exactly one clinic, and deleting a clinic cascades to all of them.
type Clinic struct {
	BaseModel
	Name string `gorm:"size:255;not null" json:"name"`

	// Relations
	Doctors      []Doctor      `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE" json:"-"`
	Patients     []Patient     `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE" json:"-"`
	Appointments []Appointment `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE" json:"-"`
	UserClinics  []UserClinic  `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserClinic is the join row linking a user to the clinic they administer.
type UserClinic struct {
	UserID    string    `gorm:"primaryKey;size:36" json:"userId"`
	ClinicID  string    `gorm:"primaryKey;size:36" json:"clinicId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	User   User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Clinic Clinic `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE" json:"-"`
}
