package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"clinic-agenda-server/internal/billing"
	"clinic-agenda-server/internal/config"
	"clinic-agenda-server/internal/handlers"
	"clinic-agenda-server/internal/middleware"
	"clinic-agenda-server/internal/scheduling"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	clinicHandler := handlers.NewClinicHandler(db)
	doctorHandler := handlers.NewDoctorHandler(db)
	patientHandler := handlers.NewPatientHandler(db)
	scheduler := scheduling.NewScheduler(scheduling.NewGormStore(db))
	appointmentHandler := handlers.NewAppointmentHandler(db, scheduler)
	dashboardHandler := handlers.NewDashboardHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(db, cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/session", authHandler.GetSession)
		}

		// Clinic setup is reachable before a clinic (or plan) exists.
		clinicRoutes := private.Group("/clinics")
		{
			clinicRoutes.POST("", clinicHandler.CreateClinic)

			clinicScoped := clinicRoutes.Group("")
			clinicScoped.Use(middleware.RequireClinic())
			{
				clinicScoped.GET("/mine", clinicHandler.GetClinic)
				clinicScoped.PUT("/mine", clinicHandler.UpdateClinic)
				clinicScoped.DELETE("/mine", clinicHandler.DeleteClinic)
			}
		}

		// Everything below needs both a clinic and an active subscription.
		tenant := private.Group("")
		tenant.Use(middleware.RequireClinic(), middleware.RequirePlan())
		{
			doctorRoutes := tenant.Group("/doctors")
			{
				doctorRoutes.POST("", doctorHandler.CreateDoctor)
				doctorRoutes.GET("", doctorHandler.GetDoctors)
				doctorRoutes.GET("/:id", doctorHandler.GetDoctorByID)
				doctorRoutes.PUT("/:id", doctorHandler.UpdateDoctor)
				doctorRoutes.DELETE("/:id", doctorHandler.DeleteDoctor)
			}

			patientRoutes := tenant.Group("/patients")
			{
				patientRoutes.POST("", patientHandler.CreatePatient)
				patientRoutes.GET("", patientHandler.GetPatients)
				patientRoutes.GET("/:id", patientHandler.GetPatientByID)
				patientRoutes.PUT("/:id", patientHandler.UpdatePatient)
				patientRoutes.DELETE("/:id", patientHandler.DeletePatient)
			}

			appointmentRoutes := tenant.Group("/appointments")
			{
				appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
				appointmentRoutes.GET("", appointmentHandler.GetAppointments)
				appointmentRoutes.GET("/available-times", appointmentHandler.GetAvailableTimes)
				appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
				appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
				appointmentRoutes.DELETE("/:id", appointmentHandler.DeleteAppointment)
			}

			tenant.GET("/dashboard", dashboardHandler.GetDashboard)
		}
	}

	// Billing routes exist only when Stripe is configured.
	if cfg.Stripe.Enabled() {
		stripeClient := billing.NewStripeClient(cfg.Stripe)
		synchronizer := billing.NewSynchronizer(
			billing.NewGormUserStore(db),
			billing.NewGormEventLedger(db),
			stripeClient,
			cfg.Stripe.WebhookSecret,
		)
		billingHandler := handlers.NewBillingHandler(synchronizer, stripeClient)

		// The webhook is unauthenticated: authenticity comes from the
		// signature over the raw body, not from a session.
		router.POST("/api/billing/webhook", billingHandler.Webhook)

		billingPrivate := private.Group("/billing")
		{
			billingPrivate.POST("/checkout-session", billingHandler.CreateCheckoutSession)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
