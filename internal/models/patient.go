package models

// PatientSex is the sex enum for patients
type PatientSex string

const (
	SexMale   PatientSex = "male"
	SexFemale PatientSex = "female"
)

// Patient belongs to exactly one clinic.
type Patient struct {
	BaseModel
	ClinicID    string     `gorm:"size:36;index;not null" json:"clinicId"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Email       string     `gorm:"size:255;not null" json:"email"`
	Sex         PatientSex `gorm:"size:10;not null" json:"sex"`
	PhoneNumber string     `gorm:"size:30;not null" json:"phoneNumber"`

	// Relations
	Clinic       Clinic        `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE" json:"-"`
	Appointments []Appointment `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
}
