package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// budgetHandler handles versioned budgets and their review workflow.
type budgetHandler struct {
	budgetService portssvc.BudgetSvcFacade
}

func registerBudgetRoutes(rg *gin.RouterGroup, svc portssvc.BudgetSvcFacade) {
	h := &budgetHandler{budgetService: svc}

	budgets := rg.Group("/budgets")
	{
		budgets.POST("", h.createBudget)
		budgets.GET("/:id", h.getBudget)
		budgets.GET("/:id/versions", h.listVersions)
		budgets.GET("/:id/variance", h.getVariance)
		budgets.PUT("/:id/lines", h.updateLines)
		budgets.POST("/:id/submit", h.submit)
		budgets.POST("/:id/approve", h.approve)
		budgets.POST("/:id/reject", h.reject)
		budgets.POST("/:id/revise", h.revise)
		budgets.POST("/:id/refresh-actuals", h.refreshActuals)
	}
}

// createBudget godoc
// @Summary Create a budget
// @Description Creates version 1 of a budget lineage for a fiscal year
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   budget body dto.CreateBudgetRequest true "Budget"
// @Success 201 {object} domain.Budget
// @Failure 400 {object} ErrorResponse "Validation error"
// @Security BearerAuth
// @Router /budgets [post]
func (h *budgetHandler) createBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), p.ClubID, req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to create budget")
		return
	}
	logger.Info("Budget created", slog.String("budget_id", budget.BudgetID))
	c.JSON(http.StatusCreated, budget)
}

// getBudget godoc
// @Summary Get a budget version
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID"
// @Success 200 {object} domain.Budget
// @Failure 404 {object} ErrorResponse "Budget not found"
// @Security BearerAuth
// @Router /budgets/{id} [get]
func (h *budgetHandler) getBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	budget, err := h.budgetService.GetBudget(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve budget")
		return
	}
	c.JSON(http.StatusOK, budget)
}

// listVersions godoc
// @Summary List every version of a budget's lineage
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID of any version"
// @Success 200 {array} domain.Budget
// @Security BearerAuth
// @Router /budgets/{id}/versions [get]
func (h *budgetHandler) listVersions(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	versions, err := h.budgetService.ListVersions(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to list budget versions")
		return
	}
	c.JSON(http.StatusOK, versions)
}

// getVariance godoc
// @Summary Get a budget variance report
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID"
// @Success 200 {object} domain.BudgetVarianceReport
// @Security BearerAuth
// @Router /budgets/{id}/variance [get]
func (h *budgetHandler) getVariance(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	report, err := h.budgetService.GetVarianceReport(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to build variance report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// updateLines godoc
// @Summary Replace the lines of a draft budget
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   id path string true "Budget ID"
// @Param   lines body dto.UpdateBudgetLinesRequest true "Lines"
// @Success 200 {object} domain.Budget
// @Failure 409 {object} ErrorResponse "Budget is not a draft"
// @Security BearerAuth
// @Router /budgets/{id}/lines [put]
func (h *budgetHandler) updateLines(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.UpdateBudgetLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	budget, err := h.budgetService.UpdateBudgetLines(c.Request.Context(), p.ClubID, c.Param("id"), req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to update budget lines")
		return
	}
	c.JSON(http.StatusOK, budget)
}

// submit godoc
// @Summary Submit a draft budget for review
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID"
// @Success 200 {object} domain.Budget
// @Failure 409 {object} ErrorResponse "Budget is not a draft"
// @Security BearerAuth
// @Router /budgets/{id}/submit [post]
func (h *budgetHandler) submit(c *gin.Context) {
	h.transition(c, "Failed to submit budget", h.budgetService.SubmitForReview)
}

// approve godoc
// @Summary Approve a budget under review
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID"
// @Success 200 {object} domain.Budget
// @Failure 409 {object} ErrorResponse "Budget is not pending review"
// @Security BearerAuth
// @Router /budgets/{id}/approve [post]
func (h *budgetHandler) approve(c *gin.Context) {
	h.transition(c, "Failed to approve budget", h.budgetService.Approve)
}

// refreshActuals godoc
// @Summary Recompute budget actuals from the ledger
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID"
// @Success 200 {object} domain.Budget
// @Security BearerAuth
// @Router /budgets/{id}/refresh-actuals [post]
func (h *budgetHandler) refreshActuals(c *gin.Context) {
	h.transition(c, "Failed to refresh budget actuals", h.budgetService.RefreshActuals)
}

func (h *budgetHandler) transition(c *gin.Context, failure string,
	op func(ctx context.Context, clubID, budgetID, actor string) (*domain.Budget, error)) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("budget_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	budget, err := op(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, failure)
		return
	}
	c.JSON(http.StatusOK, budget)
}

// reject godoc
// @Summary Reject a budget under review
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   id path string true "Budget ID"
// @Param   reject body dto.RejectBudgetRequest true "Reason"
// @Success 200 {object} domain.Budget
// @Failure 409 {object} ErrorResponse "Budget is not pending review"
// @Security BearerAuth
// @Router /budgets/{id}/reject [post]
func (h *budgetHandler) reject(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.RejectBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	budget, err := h.budgetService.Reject(c.Request.Context(), p.ClubID, c.Param("id"), req.Reason, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to reject budget")
		return
	}
	c.JSON(http.StatusOK, budget)
}

// revise godoc
// @Summary Start a new version of a frozen budget
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   id path string true "Budget ID"
// @Param   revise body dto.ReviseBudgetRequest false "Revision note"
// @Success 201 {object} domain.Budget
// @Failure 409 {object} ErrorResponse "Budget is not the latest frozen version"
// @Security BearerAuth
// @Router /budgets/{id}/revise [post]
func (h *budgetHandler) revise(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.ReviseBudgetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, logger, err)
			return
		}
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	budget, err := h.budgetService.ReviseBudget(c.Request.Context(), p.ClubID, c.Param("id"), req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to revise budget")
		return
	}
	logger.Info("Budget revised", slog.Int("version", budget.Version))
	c.JSON(http.StatusCreated, budget)
}
