package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/middleware"
	"clinic-agenda-server/internal/models"
	"clinic-agenda-server/internal/scheduling"
	"clinic-agenda-server/internal/utils"
)

// AppointmentHandler handles appointment related requests. Booking goes
// through the scheduler; reads are plain clinic-scoped queries.
type AppointmentHandler struct {
	DB        *gorm.DB
	Scheduler *scheduling.Scheduler
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, scheduler *scheduling.Scheduler) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Scheduler: scheduler}
}

// CreateAppointmentRequest represents the request body for creating an
// appointment. The clinic comes from the session, never from the body.
type CreateAppointmentRequest struct {
	DoctorID  string    `json:"doctorId" binding:"required,uuid"`
	PatientID string    `json:"patientId" binding:"required,uuid"`
	StartTime time.Time `json:"startTime" binding:"required"`
}

// CreateAppointment books a slot through the scheduler.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.StartTime.Before(time.Now()) {
		utils.BadRequest(c, "Appointment date must be in the future.")
		return
	}

	appt, err := h.Scheduler.Schedule(c.Request.Context(), scheduling.Request{
		ClinicID:  session.Clinic.ID,
		DoctorID:  req.DoctorID,
		PatientID: req.PatientID,
		Start:     req.StartTime,
	})
	if err != nil {
		h.renderSchedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appt)
}

// GetAppointments lists the clinic's appointments, soonest first.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var appointments []models.Appointment
	err := h.DB.Preload("Doctor").Preload("Patient").
		Where("clinic_id = ?", session.Clinic.ID).
		Order("date asc").
		Find(&appointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID fetches a single appointment of the clinic.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var appt models.Appointment
	err := h.DB.Preload("Doctor").Preload("Patient").
		First(&appt, "id = ? AND clinic_id = ?", c.Param("id"), session.Clinic.ID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Appointment fetched successfully", appt)
}

// RescheduleAppointmentRequest represents the request body for rescheduling.
type RescheduleAppointmentRequest struct {
	NewStartTime time.Time `json:"newStartTime" binding:"required"`
}

// RescheduleAppointment moves an appointment to a new slot. Moving to its
// current slot is a no-op.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}
	if req.NewStartTime.Before(time.Now()) {
		utils.BadRequest(c, "New appointment date must be in the future.")
		return
	}

	appt, err := h.Scheduler.Reschedule(c.Request.Context(), session.Clinic.ID, c.Param("id"), req.NewStartTime)
	if err != nil {
		h.renderSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", appt)
}

// DeleteAppointment cancels an appointment, freeing its slot.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	if err := h.Scheduler.Cancel(c.Request.Context(), session.Clinic.ID, c.Param("id")); err != nil {
		h.renderSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", nil)
}

// AvailableTimeSlot is one bookable slot in the available-times listing.
type AvailableTimeSlot struct {
	Time string `json:"time"`
}

// GetAvailableTimes lists a doctor's free 30-minute slots for a day.
// Query parameters: doctorId (uuid) and date (YYYY-MM-DD).
func (h *AppointmentHandler) GetAvailableTimes(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	doctorID := c.Query("doctorId")
	if doctorID == "" {
		utils.BadRequest(c, "doctorId query parameter is required")
		return
	}
	day, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.Local)
	if err != nil {
		utils.BadRequest(c, "date query parameter must be YYYY-MM-DD")
		return
	}

	slots, err := h.Scheduler.AvailableTimes(c.Request.Context(), session.Clinic.ID, doctorID, day)
	if err != nil {
		h.renderSchedulingError(c, err)
		return
	}

	out := make([]AvailableTimeSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, AvailableTimeSlot{Time: s.String()})
	}
	utils.Success(c, "Available times fetched successfully", out)
}

// renderSchedulingError maps scheduler errors onto the response taxonomy:
// slot conflicts are retryable 409s, tenancy violations 403s, unknown ids
// 404s; anything else is a 500.
func (h *AppointmentHandler) renderSchedulingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSlotUnavailable):
		utils.Conflict(c, "The requested time is outside working hours or already booked. Please pick another slot.")
	case errors.Is(err, scheduling.ErrCrossTenantReference):
		utils.Forbidden(c, "Doctor or patient does not belong to your clinic.")
	case errors.Is(err, scheduling.ErrNotFound):
		utils.NotFound(c, "Referenced entity not found")
	default:
		utils.InternalServerError(c, "Scheduling failed: "+err.Error())
	}
}
