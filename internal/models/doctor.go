package models

import (
	"clinic-agenda-server/internal/availability"
)

// Doctor belongs to exactly one clinic. The weekly availability window uses
// weekday integers 0-6 with Sunday=0 and may wrap past the end of the week
// (e.g. Friday through Monday). Daily times are stored as "HH:MM:SS" strings
// to match the TIME column type.
type Doctor struct {
	BaseModel
	ClinicID                string `gorm:"size:36;index;not null" json:"clinicId"`
	Name                    string `gorm:"size:255;not null" json:"name"`
	Specialty               string `gorm:"size:100;not null" json:"specialty"`
	AvatarImageURL          string `gorm:"size:512" json:"avatarImageUrl,omitempty"`
	AvailableFromWeekDay    int    `gorm:"not null" json:"availableFromWeekDay"`
	AvailableToWeekDay      int    `gorm:"not null" json:"availableToWeekDay"`
	AvailableFromTime       string `gorm:"type:time;not null" json:"availableFromTime"`
	AvailableToTime         string `gorm:"type:time;not null" json:"availableToTime"`
	AppointmentPriceInCents int    `gorm:"not null" json:"appointmentPriceInCents"`

	// Relations
	Clinic       Clinic        `gorm:"foreignKey:ClinicID;constraint:OnDelete:CASCADE" json:"-"`
	Appointments []Appointment `gorm:"foreignKey:DoctorID;constraint:OnDelete:CASCADE" json:"-"`
}

// Window converts the stored availability columns into a resolver window.
// Doctors are validated at upsert time, so a parse failure here means the
// row was written outside the API.
func (d *Doctor) Window() (availability.Window, error) {
	from, err := availability.ParseTimeOfDay(d.AvailableFromTime)
	if err != nil {
		return availability.Window{}, err
	}
	to, err := availability.ParseTimeOfDay(d.AvailableToTime)
	if err != nil {
		return availability.Window{}, err
	}
	return availability.Window{
		FromWeekday: d.AvailableFromWeekDay,
		ToWeekday:   d.AvailableToWeekDay,
		FromTime:    from,
		ToTime:      to,
	}, nil
}
