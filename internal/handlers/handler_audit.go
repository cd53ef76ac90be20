package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type auditHandler struct {
	auditService portssvc.AuditSvcFacade
}

func registerAuditRoutes(rg *gin.RouterGroup, svc portssvc.AuditSvcFacade) {
	h := &auditHandler{auditService: svc}

	audit := rg.Group("/audit")
	{
		audit.GET("", h.listRecords)
		audit.POST("/:id/review", h.markReviewed)
	}
}

// listRecords godoc
// @Summary Query the audit trail of an entity
// @Tags audit
// @Produce  json
// @Param   entityType query string true "Entity type, e.g. JOURNAL_ENTRY"
// @Param   entityID query string true "Entity ID"
// @Success 200 {array} domain.FinancialAuditLog
// @Failure 400 {object} ErrorResponse "Missing query parameters"
// @Security BearerAuth
// @Router /audit [get]
func (h *auditHandler) listRecords(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var params dto.ListAuditRecordsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	records, err := h.auditService.ListAuditRecords(c.Request.Context(), p.ClubID, params.EntityType, params.EntityID)
	if err != nil {
		respondError(c, logger, err, "Failed to list audit records")
		return
	}
	c.JSON(http.StatusOK, records)
}

// markReviewed godoc
// @Summary Mark an audit record reviewed
// @Tags audit
// @Produce  json
// @Param   id path string true "Audit log ID"
// @Success 200 {object} domain.FinancialAuditLog
// @Failure 404 {object} ErrorResponse "Audit record not found"
// @Security BearerAuth
// @Router /audit/{id}/review [post]
func (h *auditHandler) markReviewed(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	record, err := h.auditService.MarkReviewed(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to mark audit record reviewed")
		return
	}
	c.JSON(http.StatusOK, record)
}
