package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reconciliationHandler handles bank reconciliation sessions.
type reconciliationHandler struct {
	reconciliationService portssvc.ReconciliationSvcFacade
}

func registerReconciliationRoutes(rg *gin.RouterGroup, svc portssvc.ReconciliationSvcFacade) {
	h := &reconciliationHandler{reconciliationService: svc}

	recs := rg.Group("/reconciliations")
	{
		recs.POST("", h.start)
		recs.GET("/:id", h.get)
		recs.GET("/:id/summary", h.summary)
		recs.POST("/:id/auto-match", h.autoMatch)
		recs.POST("/:id/matches", h.manualMatch)
		recs.POST("/:id/unmatch", h.unmatch)
		recs.POST("/:id/adjustments", h.recordAdjustment)
		recs.POST("/:id/complete", h.complete)
		recs.POST("/:id/cancel", h.cancel)
	}
}

// start godoc
// @Summary Start a bank reconciliation
// @Description Opens a session for a bank account, loading statement lines and eligible book lines
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   session body dto.StartReconciliationRequest true "Statement"
// @Success 201 {object} domain.BankReconciliation
// @Failure 400 {object} ErrorResponse "Validation error or not a bank account"
// @Failure 409 {object} ErrorResponse "Overlapping session in progress"
// @Security BearerAuth
// @Router /reconciliations [post]
func (h *reconciliationHandler) start(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.StartReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.StartReconciliation(c.Request.Context(), p.ClubID, req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to start reconciliation")
		return
	}
	logger.Info("Reconciliation started", slog.String("reconciliation_id", rec.ReconciliationID), slog.Int("lines", len(rec.Lines)))
	c.JSON(http.StatusCreated, rec)
}

// get godoc
// @Summary Get a reconciliation session
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} domain.BankReconciliation
// @Failure 404 {object} ErrorResponse "Reconciliation not found"
// @Security BearerAuth
// @Router /reconciliations/{id} [get]
func (h *reconciliationHandler) get(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.GetReconciliation(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve reconciliation")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// summary godoc
// @Summary Preview the reconciliation arithmetic
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} domain.ReconciliationSummary
// @Security BearerAuth
// @Router /reconciliations/{id}/summary [get]
func (h *reconciliationHandler) summary(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	summary, err := h.reconciliationService.Summarize(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to summarize reconciliation")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// autoMatch godoc
// @Summary Automatically match bank and book lines
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} domain.BankReconciliation
// @Failure 409 {object} ErrorResponse "Session is not in progress"
// @Security BearerAuth
// @Router /reconciliations/{id}/auto-match [post]
func (h *reconciliationHandler) autoMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("reconciliation_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.AutoMatch(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to auto-match reconciliation")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// manualMatch godoc
// @Summary Match a bank line to a book line
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   match body dto.ManualMatchRequest true "Lines to pair"
// @Success 200 {object} domain.BankReconciliation
// @Failure 409 {object} ErrorResponse "A line is already matched"
// @Security BearerAuth
// @Router /reconciliations/{id}/matches [post]
func (h *reconciliationHandler) manualMatch(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.ManualMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.ManualMatch(c.Request.Context(), p.ClubID, c.Param("id"), req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to match lines")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// unmatch godoc
// @Summary Break a match
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   unmatch body dto.UnmatchRequest true "Either line of the pair"
// @Success 200 {object} domain.BankReconciliation
// @Security BearerAuth
// @Router /reconciliations/{id}/unmatch [post]
func (h *reconciliationHandler) unmatch(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.UnmatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.Unmatch(c.Request.Context(), p.ClubID, c.Param("id"), req.LineID, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to unmatch line")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// recordAdjustment godoc
// @Summary Record an explained discrepancy
// @Tags reconciliations
// @Accept  json
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Param   adjustment body dto.RecordAdjustmentRequest true "Adjustment"
// @Success 200 {object} domain.BankReconciliation
// @Security BearerAuth
// @Router /reconciliations/{id}/adjustments [post]
func (h *reconciliationHandler) recordAdjustment(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.RecordAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.RecordAdjustment(c.Request.Context(), p.ClubID, c.Param("id"), req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to record adjustment")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// complete godoc
// @Summary Complete a reconciliation
// @Description Marks matched book lines reconciled. Refused while a variance remains.
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} domain.BankReconciliation
// @Failure 422 {object} ErrorResponse "Variance outside tolerance"
// @Security BearerAuth
// @Router /reconciliations/{id}/complete [post]
func (h *reconciliationHandler) complete(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("reconciliation_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.Complete(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to complete reconciliation")
		return
	}
	logger.Info("Reconciliation completed")
	c.JSON(http.StatusOK, rec)
}

// cancel godoc
// @Summary Cancel a reconciliation
// @Tags reconciliations
// @Produce  json
// @Param   id path string true "Reconciliation ID"
// @Success 200 {object} domain.BankReconciliation
// @Security BearerAuth
// @Router /reconciliations/{id}/cancel [post]
func (h *reconciliationHandler) cancel(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("reconciliation_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rec, err := h.reconciliationService.Cancel(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to cancel reconciliation")
		return
	}
	c.JSON(http.StatusOK, rec)
}
