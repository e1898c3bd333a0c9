package handlers

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/middleware"
	"clinic-agenda-server/internal/models"
	"clinic-agenda-server/internal/utils"
)

// DashboardHandler aggregates clinic numbers for the dashboard page.
type DashboardHandler struct {
	DB *gorm.DB
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// TopDoctor is one row of the busiest-doctors ranking.
type TopDoctor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	Appointments int    `json:"appointments"`
}

// TopSpecialty is one row of the most-booked-specialties ranking.
type TopSpecialty struct {
	Specialty    string `json:"specialty"`
	Appointments int    `json:"appointments"`
}

// DailyAppointments is one point of the appointments-per-day series.
type DailyAppointments struct {
	Date           string `json:"date"`
	Appointments   int    `json:"appointments"`
	RevenueInCents int    `json:"revenueInCents"`
}

// DashboardResponse is the aggregate payload for a from/to date range.
type DashboardResponse struct {
	TotalRevenueInCents int                  `json:"totalRevenueInCents"`
	TotalAppointments   int64                `json:"totalAppointments"`
	TotalPatients       int64                `json:"totalPatients"`
	TotalDoctors        int64                `json:"totalDoctors"`
	TopDoctors          []TopDoctor          `json:"topDoctors"`
	TopSpecialties      []TopSpecialty       `json:"topSpecialties"`
	TodayAppointments   []models.Appointment `json:"todayAppointments"`
	DailyAppointments   []DailyAppointments  `json:"dailyAppointments"`
}

// GetDashboard computes clinic totals and rankings over a date range.
// Query parameters: from and to, both YYYY-MM-DD; to is inclusive.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	session, _ := middleware.GetSession(c)
	clinicID := session.Clinic.ID

	from, err := time.ParseInLocation("2006-01-02", c.Query("from"), time.Local)
	if err != nil {
		utils.BadRequest(c, "from query parameter must be YYYY-MM-DD")
		return
	}
	to, err := time.ParseInLocation("2006-01-02", c.Query("to"), time.Local)
	if err != nil {
		utils.BadRequest(c, "to query parameter must be YYYY-MM-DD")
		return
	}
	toExclusive := to.AddDate(0, 0, 1)

	var resp DashboardResponse

	ranged := h.DB.Model(&models.Appointment{}).
		Where("clinic_id = ? AND date >= ? AND date < ?", clinicID, from, toExclusive)

	if err := ranged.Count(&resp.TotalAppointments).Error; err != nil {
		utils.InternalServerError(c, "Failed to count appointments: "+err.Error())
		return
	}

	var revenue sql.NullInt64
	err = h.DB.Model(&models.Appointment{}).
		Where("clinic_id = ? AND date >= ? AND date < ?", clinicID, from, toExclusive).
		Select("SUM(price_in_cents)").
		Scan(&revenue).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to sum revenue: "+err.Error())
		return
	}
	if revenue.Valid {
		resp.TotalRevenueInCents = int(revenue.Int64)
	}

	if err := h.DB.Model(&models.Patient{}).Where("clinic_id = ?", clinicID).Count(&resp.TotalPatients).Error; err != nil {
		utils.InternalServerError(c, "Failed to count patients: "+err.Error())
		return
	}
	if err := h.DB.Model(&models.Doctor{}).Where("clinic_id = ?", clinicID).Count(&resp.TotalDoctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to count doctors: "+err.Error())
		return
	}

	err = h.DB.Model(&models.Appointment{}).
		Select("doctors.id as id, doctors.name as name, doctors.specialty as specialty, COUNT(appointments.id) as appointments").
		Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
		Where("appointments.clinic_id = ? AND appointments.date >= ? AND appointments.date < ?", clinicID, from, toExclusive).
		Group("doctors.id, doctors.name, doctors.specialty").
		Order("appointments desc").
		Limit(10).
		Scan(&resp.TopDoctors).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to rank doctors: "+err.Error())
		return
	}

	err = h.DB.Model(&models.Appointment{}).
		Select("doctors.specialty as specialty, COUNT(appointments.id) as appointments").
		Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
		Where("appointments.clinic_id = ? AND appointments.date >= ? AND appointments.date < ?", clinicID, from, toExclusive).
		Group("doctors.specialty").
		Order("appointments desc").
		Limit(10).
		Scan(&resp.TopSpecialties).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to rank specialties: "+err.Error())
		return
	}

	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	err = h.DB.Preload("Doctor").Preload("Patient").
		Where("clinic_id = ? AND date >= ? AND date < ?", clinicID, todayStart, todayStart.AddDate(0, 0, 1)).
		Order("date asc").
		Find(&resp.TodayAppointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch today's appointments: "+err.Error())
		return
	}

	// DATE_FORMAT keeps the grouped day a plain string; with parseTime the
	// driver would otherwise hand DATE columns back as time.Time.
	err = h.DB.Model(&models.Appointment{}).
		Select("DATE_FORMAT(date, '%Y-%m-%d') as date, COUNT(id) as appointments, SUM(price_in_cents) as revenue_in_cents").
		Where("clinic_id = ? AND date >= ? AND date < ?", clinicID, from, toExclusive).
		Group("DATE_FORMAT(date, '%Y-%m-%d')").
		Order("date asc").
		Scan(&resp.DailyAppointments).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to build daily series: "+err.Error())
		return
	}

	utils.Success(c, "Dashboard fetched successfully", resp)
}
