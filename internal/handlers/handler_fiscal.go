package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// fiscalHandler handles the fiscal calendar: years, periods and their lifecycle.
type fiscalHandler struct {
	fiscalService portssvc.FiscalSvcFacade
}

func registerFiscalRoutes(rg *gin.RouterGroup, svc portssvc.FiscalSvcFacade) {
	h := &fiscalHandler{fiscalService: svc}

	years := rg.Group("/fiscal-years")
	{
		years.POST("", h.createFiscalYear)
		years.GET("", h.listFiscalYears)
		years.GET("/:id", h.getFiscalYear)
		years.POST("/:id/close", h.closeYear)
		years.PUT("/:id/allow-posting-to-closed", h.setAllowPostingToClosed)
	}

	periods := rg.Group("/periods")
	{
		periods.GET("/status", h.getPeriodStatus)
		periods.POST("/:id/set-current", h.setCurrentPeriod)
		periods.POST("/:id/close", h.closePeriod)
		periods.POST("/:id/reopen", h.reopenPeriod)
		periods.POST("/:id/lock", h.lockPeriod)
	}
}

// createFiscalYear godoc
// @Summary Create a fiscal year
// @Description Creates a fiscal year split into monthly periods unless periods are supplied
// @Tags fiscal
// @Accept  json
// @Produce  json
// @Param   year body dto.CreateFiscalYearRequest true "Fiscal year"
// @Success 201 {object} domain.FiscalYear
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 409 {object} ErrorResponse "Overlapping fiscal year"
// @Security BearerAuth
// @Router /fiscal-years [post]
func (h *fiscalHandler) createFiscalYear(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.CreateFiscalYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	year, err := h.fiscalService.CreateFiscalYear(c.Request.Context(), p.ClubID, req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to create fiscal year")
		return
	}
	logger.Info("Fiscal year created", slog.String("fiscal_year_id", year.FiscalYearID), slog.Int("periods", len(year.Periods)))
	c.JSON(http.StatusCreated, year)
}

// listFiscalYears godoc
// @Summary List fiscal years with their periods
// @Tags fiscal
// @Produce  json
// @Success 200 {array} domain.FiscalYear
// @Security BearerAuth
// @Router /fiscal-years [get]
func (h *fiscalHandler) listFiscalYears(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	years, err := h.fiscalService.ListFiscalYears(c.Request.Context(), p.ClubID)
	if err != nil {
		respondError(c, logger, err, "Failed to list fiscal years")
		return
	}
	c.JSON(http.StatusOK, years)
}

// getFiscalYear godoc
// @Summary Get a fiscal year
// @Tags fiscal
// @Produce  json
// @Param   id path string true "Fiscal year ID"
// @Success 200 {object} domain.FiscalYear
// @Failure 404 {object} ErrorResponse "Fiscal year not found"
// @Security BearerAuth
// @Router /fiscal-years/{id} [get]
func (h *fiscalHandler) getFiscalYear(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	year, err := h.fiscalService.GetFiscalYear(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve fiscal year")
		return
	}
	c.JSON(http.StatusOK, year)
}

// closeYear godoc
// @Summary Close a fiscal year
// @Description Posts the closing entry into retained earnings and rolls balances forward
// @Tags fiscal
// @Produce  json
// @Param   id path string true "Fiscal year ID"
// @Success 200 {object} domain.FiscalYear
// @Failure 409 {object} ErrorResponse "Periods still open or year already closed"
// @Failure 422 {object} ErrorResponse "Unbalanced period"
// @Security BearerAuth
// @Router /fiscal-years/{id}/close [post]
func (h *fiscalHandler) closeYear(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("fiscal_year_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	year, err := h.fiscalService.CloseYear(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to close fiscal year")
		return
	}
	logger.Info("Fiscal year closed", slog.String("closing_entry_id", year.ClosingEntryID))
	c.JSON(http.StatusOK, year)
}

// setAllowPostingToClosed godoc
// @Summary Toggle posting into closed periods of a year
// @Tags fiscal
// @Accept  json
// @Produce  json
// @Param   id path string true "Fiscal year ID"
// @Param   flag body dto.SetAllowPostingToClosedRequest true "Whether overrides are allowed"
// @Success 200 {object} domain.FiscalYear
// @Security BearerAuth
// @Router /fiscal-years/{id}/allow-posting-to-closed [put]
func (h *fiscalHandler) setAllowPostingToClosed(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.SetAllowPostingToClosedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	year, err := h.fiscalService.SetAllowPostingToClosed(c.Request.Context(), p.ClubID, c.Param("id"), req.Allow, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to update fiscal year")
		return
	}
	c.JSON(http.StatusOK, year)
}

// getPeriodStatus godoc
// @Summary Get the fiscal period containing a date
// @Tags fiscal
// @Produce  json
// @Param   date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.PeriodStatusResponse
// @Failure 404 {object} ErrorResponse "No period contains the date"
// @Security BearerAuth
// @Router /periods/status [get]
func (h *fiscalHandler) getPeriodStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}
	date, err := dateParam(c, "date")
	if err != nil {
		bindError(c, logger, err)
		return
	}

	period, err := h.fiscalService.GetPeriodStatus(c.Request.Context(), p.ClubID, date)
	if err != nil {
		respondError(c, logger, err, "Failed to resolve fiscal period")
		return
	}
	c.JSON(http.StatusOK, dto.ToPeriodStatusResponse(period))
}

// setCurrentPeriod godoc
// @Summary Make a period the club's current period
// @Tags fiscal
// @Produce  json
// @Param   id path string true "Fiscal period ID"
// @Success 200 {object} domain.FiscalPeriod
// @Failure 409 {object} ErrorResponse "Period is not open"
// @Security BearerAuth
// @Router /periods/{id}/set-current [post]
func (h *fiscalHandler) setCurrentPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("fiscal_period_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	period, err := h.fiscalService.SetCurrentPeriod(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to set current period")
		return
	}
	c.JSON(http.StatusOK, period)
}

// closePeriod godoc
// @Summary Close a fiscal period
// @Tags fiscal
// @Produce  json
// @Param   id path string true "Fiscal period ID"
// @Success 200 {object} domain.FiscalPeriod
// @Failure 409 {object} ErrorResponse "Period is not open"
// @Failure 422 {object} ErrorResponse "Unbalanced period"
// @Security BearerAuth
// @Router /periods/{id}/close [post]
func (h *fiscalHandler) closePeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("fiscal_period_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	period, err := h.fiscalService.ClosePeriod(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to close period")
		return
	}
	logger.Info("Fiscal period closed")
	c.JSON(http.StatusOK, period)
}

// reopenPeriod godoc
// @Summary Reopen a closed fiscal period
// @Tags fiscal
// @Accept  json
// @Produce  json
// @Param   id path string true "Fiscal period ID"
// @Param   reopen body dto.ReopenPeriodRequest true "Reason"
// @Success 200 {object} domain.FiscalPeriod
// @Failure 409 {object} ErrorResponse "Period is locked or not closed"
// @Security BearerAuth
// @Router /periods/{id}/reopen [post]
func (h *fiscalHandler) reopenPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("fiscal_period_id", c.Param("id")))
	var req dto.ReopenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	period, err := h.fiscalService.ReopenPeriod(c.Request.Context(), p.ClubID, c.Param("id"), req.Reason, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to reopen period")
		return
	}
	logger.Info("Fiscal period reopened", slog.String("reason", req.Reason))
	c.JSON(http.StatusOK, period)
}

// lockPeriod godoc
// @Summary Lock a closed fiscal period permanently
// @Tags fiscal
// @Produce  json
// @Param   id path string true "Fiscal period ID"
// @Success 200 {object} domain.FiscalPeriod
// @Failure 409 {object} ErrorResponse "Period is not closed"
// @Security BearerAuth
// @Router /periods/{id}/lock [post]
func (h *fiscalHandler) lockPeriod(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("fiscal_period_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	period, err := h.fiscalService.LockPeriod(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to lock period")
		return
	}
	c.JSON(http.StatusOK, period)
}
