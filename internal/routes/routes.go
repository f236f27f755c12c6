package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/TailwagServices/clinic-scheduler/internal/audit"
	"github.com/TailwagServices/clinic-scheduler/internal/config"
	"github.com/TailwagServices/clinic-scheduler/internal/handlers"
	"github.com/TailwagServices/clinic-scheduler/internal/idempotency"
	infraRepo "github.com/TailwagServices/clinic-scheduler/internal/infra/repository"
	"github.com/TailwagServices/clinic-scheduler/internal/middleware"
	"github.com/TailwagServices/clinic-scheduler/internal/notify"
	ucAppointment "github.com/TailwagServices/clinic-scheduler/internal/usecase/appointment"
)

func RegisterRoutes(
	r *gin.Engine,
	db *gorm.DB,
	idem *idempotency.Store,
	publisher notify.Publisher,
	cfg *config.Config,
) {

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	notifyDispatcher := notify.NewDispatcher(publisher)

	// ======================================================
	// USE CASES — APPOINTMENTS
	// ======================================================
	createUC := ucAppointment.NewCreateAppointment(
		appointmentRepo,
		auditDispatcher,
		notifyDispatcher,
		idem,
	)

	confirmUC := ucAppointment.NewConfirmAppointment(
		appointmentRepo,
		auditDispatcher,
		notifyDispatcher,
	)

	cancelUC := ucAppointment.NewCancelAppointment(
		appointmentRepo,
		auditDispatcher,
		notifyDispatcher,
	)

	completeUC := ucAppointment.NewCompleteAppointment(
		appointmentRepo,
		auditDispatcher,
		notifyDispatcher,
	)

	listUC := ucAppointment.NewListAppointments(appointmentRepo)
	calendarUC := ucAppointment.NewCalendarView(appointmentRepo)

	// ======================================================
	// HANDLERS
	// ======================================================
	appointmentHandler := handlers.NewAppointmentHandler(
		createUC,
		confirmUC,
		cancelUC,
		completeUC,
		listUC,
		calendarUC,
	)

	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			secured.POST("/appointments", appointmentHandler.Create)
			secured.PATCH("/appointments/:id/confirm", appointmentHandler.Confirm)
			secured.PATCH("/appointments/:id/cancel", appointmentHandler.Cancel)
			secured.PATCH("/appointments/:id/complete", appointmentHandler.Complete)

			// ------------------------------
			// CALENDAR / QUERY
			// ------------------------------
			secured.GET("/organizations/:id/appointments", appointmentHandler.List)
			secured.GET("/organizations/:id/calendar", appointmentHandler.Calendar)

			secured.GET("/organizations/:id/audit-logs", auditLogsHandler.List)
		}
	}
}
