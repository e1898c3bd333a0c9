package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/middleware"
	"clinic-agenda-server/internal/models"
	"clinic-agenda-server/internal/utils"
)

// PatientHandler handles patient related requests, scoped to the session's
// clinic.
type PatientHandler struct {
	DB *gorm.DB
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{DB: db}
}

// UpsertPatientRequest represents the request body for creating or updating
// a patient.
type UpsertPatientRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Sex         string `json:"sex" binding:"required,oneof=male female"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

// CreatePatient creates a patient in the session's clinic.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var req UpsertPatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient := models.Patient{
		ClinicID:    session.Clinic.ID,
		Name:        req.Name,
		Email:       req.Email,
		Sex:         models.PatientSex(req.Sex),
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.DB.Create(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to create patient: "+err.Error())
		return
	}

	utils.Created(c, "Patient created successfully", patient)
}

// GetPatients lists the clinic's patients.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var patients []models.Patient
	err := h.DB.Where("clinic_id = ?", session.Clinic.ID).Order("name asc").Find(&patients).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}

	utils.Success(c, "Patients fetched successfully", patients)
}

// GetPatientByID fetches one of the clinic's patients.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var patient models.Patient
	err := h.DB.First(&patient, "id = ? AND clinic_id = ?", c.Param("id"), session.Clinic.ID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Patient fetched successfully", patient)
}

// UpdatePatient updates one of the clinic's patients.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var patient models.Patient
	err := h.DB.First(&patient, "id = ? AND clinic_id = ?", c.Param("id"), session.Clinic.ID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var req UpsertPatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient.Name = req.Name
	patient.Email = req.Email
	patient.Sex = models.PatientSex(req.Sex)
	patient.PhoneNumber = req.PhoneNumber

	if err := h.DB.Save(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to update patient: "+err.Error())
		return
	}

	utils.Success(c, "Patient updated successfully", patient)
}

// DeletePatient removes one of the clinic's patients.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	res := h.DB.Delete(&models.Patient{}, "id = ? AND clinic_id = ?", c.Param("id"), session.Clinic.ID)
	if res.Error != nil {
		utils.InternalServerError(c, "Failed to delete patient: "+res.Error.Error())
		return
	}
	if res.RowsAffected == 0 {
		utils.NotFound(c, "Patient not found")
		return
	}

	utils.Success(c, "Patient deleted successfully", nil)
}
