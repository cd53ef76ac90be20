package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type reportingHandler struct {
	accountService portssvc.AccountCalculatorSvc
}

func registerReportingRoutes(rg *gin.RouterGroup, svc portssvc.AccountCalculatorSvc) {
	h := &reportingHandler{accountService: svc}

	reports := rg.Group("/reports")
	reports.GET("/trial-balance", h.getTrialBalance)
}

// getTrialBalance godoc
// @Summary Get the trial balance
// @Description Lists every posting account with a non-zero balance, rebuilt from posted lines
// @Tags reports
// @Produce  json
// @Param   asOf query string false "Balance date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} domain.TrialBalance
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Security BearerAuth
// @Router /reports/trial-balance [get]
func (h *reportingHandler) getTrialBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}
	asOf, err := dateParam(c, "asOf")
	if err != nil {
		bindError(c, logger, err)
		return
	}

	tb, err := h.accountService.GetTrialBalance(c.Request.Context(), p.ClubID, asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to build trial balance")
		return
	}
	if !tb.IsBalanced {
		logger.Warn("Trial balance does not balance", "total_debit", tb.TotalDebit.String(), "total_credit", tb.TotalCredit.String())
	}
	c.JSON(http.StatusOK, tb)
}
