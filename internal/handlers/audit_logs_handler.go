package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/TailwagServices/clinic-scheduler/internal/httperr"
	"github.com/TailwagServices/clinic-scheduler/internal/httpresp"
	"github.com/TailwagServices/clinic-scheduler/internal/middleware"
	"github.com/TailwagServices/clinic-scheduler/internal/models"
)

type AuditLogsHandler struct {
	db *gorm.DB
}

func NewAuditLogsHandler(db *gorm.DB) *AuditLogsHandler {
	return &AuditLogsHandler{db: db}
}

// List returns the organization's most recent audit entries; only the
// organization owner may read them.
func (h *AuditLogsHandler) List(c *gin.Context) {
	actorID := c.MustGet(middleware.ContextActorID).(uint)

	orgID, err := parseUintParam(c, "id")
	if err != nil {
		httperr.BadRequest(c, httperr.CodeValidation, "invalid organization id")
		return
	}

	var org models.Organization
	if err := h.db.First(&org, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httperr.NotFound(c, httperr.CodeNotFound, "organization not found")
			return
		}
		httperr.Internal(c, "failed_to_load_organization", "could not load organization")
		return
	}

	if org.OwnerID != actorID {
		httperr.Forbidden(c, httperr.CodeUnauthorized, "only the organization owner may read audit logs")
		return
	}

	var logs []models.AuditLog
	if err := h.db.
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Limit(200).
		Find(&logs).Error; err != nil {
		httperr.Internal(c, "failed_to_list_audit_logs", "could not list audit logs")
		return
	}

	httpresp.List(c, logs)
}
