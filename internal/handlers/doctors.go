package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/availability"
	"clinic-agenda-server/internal/middleware"
	"clinic-agenda-server/internal/models"
	"clinic-agenda-server/internal/utils"
)

// DoctorHandler handles doctor related requests. All queries are scoped to
// the session's clinic.
type DoctorHandler struct {
	DB *gorm.DB
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB) *DoctorHandler {
	return &DoctorHandler{DB: db}
}

// UpsertDoctorRequest represents the request body for creating or updating
// a doctor. Weekdays use 0-6 with Sunday=0 and the range may wrap; times
// are "HH:MM" or "HH:MM:SS".
type UpsertDoctorRequest struct {
	Name                    string `json:"name" binding:"required"`
	Specialty               string `json:"specialty" binding:"required"`
	AvatarImageURL          string `json:"avatarImageUrl"`
	AvailableFromWeekDay    *int   `json:"availableFromWeekDay" binding:"required,min=0,max=6"`
	AvailableToWeekDay      *int   `json:"availableToWeekDay" binding:"required,min=0,max=6"`
	AvailableFromTime       string `json:"availableFromTime" binding:"required"`
	AvailableToTime         string `json:"availableToTime" binding:"required"`
	AppointmentPriceInCents int    `json:"appointmentPriceInCents" binding:"required,min=1"`
}

// window parses and validates the availability portion of the request.
// fromTime >= toTime is rejected here, at upsert time, so the resolver
// never sees an empty window.
func (r *UpsertDoctorRequest) window() (availability.Window, error) {
	from, err := availability.ParseTimeOfDay(r.AvailableFromTime)
	if err != nil {
		return availability.Window{}, err
	}
	to, err := availability.ParseTimeOfDay(r.AvailableToTime)
	if err != nil {
		return availability.Window{}, err
	}
	w := availability.Window{
		FromWeekday: *r.AvailableFromWeekDay,
		ToWeekday:   *r.AvailableToWeekDay,
		FromTime:    from,
		ToTime:      to,
	}
	if err := w.Validate(); err != nil {
		return availability.Window{}, err
	}
	return w, nil
}

// CreateDoctor creates a doctor in the session's clinic.
func (h *DoctorHandler) CreateDoctor(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var req UpsertDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if _, err := req.window(); err != nil {
		utils.BadRequest(c, "Invalid availability window: "+err.Error())
		return
	}

	doctor := models.Doctor{
		ClinicID:                session.Clinic.ID,
		Name:                    req.Name,
		Specialty:               req.Specialty,
		AvatarImageURL:          req.AvatarImageURL,
		AvailableFromWeekDay:    *req.AvailableFromWeekDay,
		AvailableToWeekDay:      *req.AvailableToWeekDay,
		AvailableFromTime:       req.AvailableFromTime,
		AvailableToTime:         req.AvailableToTime,
		AppointmentPriceInCents: req.AppointmentPriceInCents,
	}
	if err := h.DB.Create(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to create doctor: "+err.Error())
		return
	}

	utils.Created(c, "Doctor created successfully", doctor)
}

// GetDoctors lists the clinic's doctors.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var doctors []models.Doctor
	err := h.DB.Where("clinic_id = ?", session.Clinic.ID).Order("name asc").Find(&doctors).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	utils.Success(c, "Doctors fetched successfully", doctors)
}

// GetDoctorByID fetches one of the clinic's doctors.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var doctor models.Doctor
	err := h.DB.First(&doctor, "id = ? AND clinic_id = ?", c.Param("id"), session.Clinic.ID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Doctor fetched successfully", doctor)
}

// UpdateDoctor updates one of the clinic's doctors, re-validating the
// availability window.
func (h *DoctorHandler) UpdateDoctor(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var doctor models.Doctor
	err := h.DB.First(&doctor, "id = ? AND clinic_id = ?", c.Param("id"), session.Clinic.ID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var req UpsertDoctorRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if _, err := req.window(); err != nil {
		utils.BadRequest(c, "Invalid availability window: "+err.Error())
		return
	}

	doctor.Name = req.Name
	doctor.Specialty = req.Specialty
	doctor.AvatarImageURL = req.AvatarImageURL
	doctor.AvailableFromWeekDay = *req.AvailableFromWeekDay
	doctor.AvailableToWeekDay = *req.AvailableToWeekDay
	doctor.AvailableFromTime = req.AvailableFromTime
	doctor.AvailableToTime = req.AvailableToTime
	doctor.AppointmentPriceInCents = req.AppointmentPriceInCents

	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Failed to update doctor: "+err.Error())
		return
	}

	utils.Success(c, "Doctor updated successfully", doctor)
}

// DeleteDoctor removes one of the clinic's doctors and, through the cascade,
// their appointments.
func (h *DoctorHandler) DeleteDoctor(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	res := h.DB.Delete(&models.Doctor{}, "id = ? AND clinic_id = ?", c.Param("id"), session.Clinic.ID)
	if res.Error != nil {
		utils.InternalServerError(c, "Failed to delete doctor: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.NotFound(c, "Doctor not found")
		return
	}

	utils.Success(c, "Doctor deleted successfully", nil)
}
