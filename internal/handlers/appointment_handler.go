package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/httpresp"
	"github.com/TailwagServices/clinic-scheduler/internal/middleware"
	ucAppointment "github.com/TailwagServices/clinic-scheduler/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	createUC   *ucAppointment.CreateAppointment
	confirmUC  *ucAppointment.ConfirmAppointment
	cancelUC   *ucAppointment.CancelAppointment
	completeUC *ucAppointment.CompleteAppointment
	listUC     *ucAppointment.ListAppointments
	calendarUC *ucAppointment.CalendarView
}

func NewAppointmentHandler(
	createUC *ucAppointment.CreateAppointment,
	confirmUC *ucAppointment.ConfirmAppointment,
	cancelUC *ucAppointment.CancelAppointment,
	completeUC *ucAppointment.CompleteAppointment,
	listUC *ucAppointment.ListAppointments,
	calendarUC *ucAppointment.CalendarView,
) *AppointmentHandler {
	return &AppointmentHandler{
		createUC:   createUC,
		confirmUC:  confirmUC,
		cancelUC:   cancelUC,
		completeUC: completeUC,
		listUC:     listUC,
		calendarUC: calendarUC,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	OrganizationID uint   `json:"organization_id" binding:"required"`
	ServiceID      uint   `json:"service_id" binding:"required"`
	Date           string `json:"date" binding:"required"`
	Time           string `json:"time" binding:"required"`
	Description    string `json:"description"`
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextActorID).(uint)

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid request body")
		return
	}

	ap, replayed, err := h.createUC.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		OrganizationID: req.OrganizationID,
		ServiceID:      req.ServiceID,
		RequesterID:    actorID,
		Date:           req.Date,
		Time:           req.Time,
		Description:    req.Description,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		if httperr.WriteBusiness(c, err) {
			return
		}
		httperr.Internal(c, "failed_to_create_appointment", "could not create appointment")
		return
	}

	if replayed {
		httpresp.OK(c, ap)
		return
	}
	httpresp.Created(c, ap)
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *AppointmentHandler) Confirm(c *gin.Context) {
	h.transition(c, "confirm")
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	h.transition(c, "cancel")
}

func (h *AppointmentHandler) Complete(c *gin.Context) {
	h.transition(c, "complete")
}

func (h *AppointmentHandler) transition(c *gin.Context, action string) {
	actorID := c.MustGet(middleware.ContextActorID).(uint)

	id, err := parseUintParam(c, "id")
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid appointment id")
		return
	}

	var execute func() (any, error)
	switch action {
	case "confirm":
		execute = func() (any, error) {
			return h.confirmUC.Execute(c.Request.Context(), id, actorID)
		}
	case "cancel":
		execute = func() (any, error) {
			return h.cancelUC.Execute(c.Request.Context(), id, actorID)
		}
	default:
		execute = func() (any, error) {
			return h.completeUC.Execute(c.Request.Context(), id, actorID)
		}
	}

	ap, err := execute()
	if err != nil {
		if httperr.WriteBusiness(c, err) {
			return
		}
		httperr.Internal(c, "failed_to_update_appointment", "could not update appointment")
		return
	}

	httpresp.OK(c, ap)
}

// ======================================================
// QUERY
// ======================================================

func (h *AppointmentHandler) List(c *gin.Context) {
	orgID, err := parseUintParam(c, "id")
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid organization id")
		return
	}

	serviceID, err := optionalUintQuery(c, "service_id")
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid service_id")
		return
	}

	appointments, err := h.listUC.Execute(
		c.Request.Context(),
		orgID,
		c.Query("from"),
		c.Query("to"),
		serviceID,
	)
	if err != nil {
		if httperr.WriteBusiness(c, err) {
			return
		}
		httperr.Internal(c, "failed_to_list_appointments", "could not list appointments")
		return
	}

	httpresp.List(c, appointments)
}

func (h *AppointmentHandler) Calendar(c *gin.Context) {
	orgID, err := parseUintParam(c, "id")
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid organization id")
		return
	}

	serviceID, err := optionalUintQuery(c, "service_id")
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid service_id")
		return
	}

	hourFrom, err := optionalIntQuery(c, "hour_from")
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid hour_from")
		return
	}
	hourTo, err := optionalIntQuery(c, "hour_to")
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid hour_to")
		return
	}

	grid, err := h.calendarUC.Execute(c.Request.Context(), ucAppointment.CalendarViewInput{
		OrganizationID: orgID,
		FromDate:       c.Query("from"),
		ToDate:         c.Query("to"),
		HourFrom:       hourFrom,
		HourTo:         hourTo,
		ServiceID:      serviceID,
	})
	if err != nil {
		if httperr.WriteBusiness(c, err) {
			return
		}
		httperr.Internal(c, "failed_to_build_calendar", "could not build calendar")
		return
	}

	httpresp.OK(c, grid)
}

// ======================================================
// PARAM HELPERS
// ======================================================

func parseUintParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

func optionalUintQuery(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	u := uint(v)
	return &u, nil
}

func optionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
