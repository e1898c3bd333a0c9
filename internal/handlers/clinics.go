package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/middleware"
	"clinic-agenda-server/internal/models"
	"clinic-agenda-server/internal/utils"
)

// ClinicHandler handles clinic related requests.
type ClinicHandler struct {
	DB *gorm.DB
}

// NewClinicHandler creates a new ClinicHandler.
func NewClinicHandler(db *gorm.DB) *ClinicHandler {
	return &ClinicHandler{DB: db}
}

// CreateClinicRequest represents the request body for creating a clinic.
type CreateClinicRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateClinic creates a clinic and links the current user to it. A user
// administers at most one clinic.
func (h *ClinicHandler) CreateClinic(c *gin.Context) {
	session, _ := middleware.GetSession(c)
	if session.HasClinic() {
		utils.BadRequest(c, "User already has a clinic")
		return
	}

	var req CreateClinicRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	clinic := models.Clinic{Name: req.Name}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&clinic).Error; err != nil {
			return err
		}
		membership := models.UserClinic{UserID: session.UserID, ClinicID: clinic.ID}
		return tx.Create(&membership).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to create clinic: "+err.Error())
		return
	}

	utils.Created(c, "Clinic created successfully", clinic)
}

// GetClinic returns the current user's clinic.
func (h *ClinicHandler) GetClinic(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var clinic models.Clinic
	if err := h.DB.First(&clinic, "id = ?", session.Clinic.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Clinic not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	utils.Success(c, "Clinic fetched successfully", clinic)
}

// UpdateClinicRequest represents the request body for renaming a clinic.
type UpdateClinicRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateClinic renames the current user's clinic.
func (h *ClinicHandler) UpdateClinic(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	var req UpdateClinicRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var clinic models.Clinic
	if err := h.DB.First(&clinic, "id = ?", session.Clinic.ID).Error; err != nil {
		utils.NotFound(c, "Clinic not found")
		return
	}

	clinic.Name = req.Name
	if err := h.DB.Save(&clinic).Error; err != nil {
		utils.InternalServerError(c, "Failed to update clinic: "+err.Error())
		return
	}

	utils.Success(c, "Clinic updated successfully", clinic)
}

// DeleteClinic deletes the current user's clinic. Doctors, patients and
// appointments go with it through the cascading foreign keys.
func (h *ClinicHandler) DeleteClinic(c *gin.Context) {
	session, _ := middleware.GetSession(c)

	if err := h.DB.Delete(&models.Clinic{}, "id = ?", session.Clinic.ID).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete clinic: "+err.Error())
		return
	}

	utils.Success(c, "Clinic deleted successfully", nil)
}
