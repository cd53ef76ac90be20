package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type taxRateHandler struct {
	taxRateService portssvc.TaxRateSvcFacade
}

func registerTaxRateRoutes(rg *gin.RouterGroup, svc portssvc.TaxRateSvcFacade) {
	h := &taxRateHandler{taxRateService: svc}

	rates := rg.Group("/tax-rates")
	{
		rates.POST("", h.createTaxRate)
		rates.GET("", h.listTaxRates)
		rates.GET("/:id", h.getTaxRate)
		rates.DELETE("/:id", h.deactivateTaxRate)
	}
}

// createTaxRate godoc
// @Summary Register a tax rate
// @Tags tax-rates
// @Accept  json
// @Produce  json
// @Param   rate body dto.CreateTaxRateRequest true "Tax rate"
// @Success 201 {object} domain.TaxRate
// @Failure 400 {object} ErrorResponse "Validation error or duplicate code"
// @Security BearerAuth
// @Router /tax-rates [post]
func (h *taxRateHandler) createTaxRate(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.CreateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rate, err := h.taxRateService.CreateTaxRate(c.Request.Context(), p.ClubID, req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to create tax rate")
		return
	}
	c.JSON(http.StatusCreated, rate)
}

// listTaxRates godoc
// @Summary List tax rates
// @Tags tax-rates
// @Produce  json
// @Success 200 {array} domain.TaxRate
// @Security BearerAuth
// @Router /tax-rates [get]
func (h *taxRateHandler) listTaxRates(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rates, err := h.taxRateService.ListTaxRates(c.Request.Context(), p.ClubID)
	if err != nil {
		respondError(c, logger, err, "Failed to list tax rates")
		return
	}
	c.JSON(http.StatusOK, rates)
}

// getTaxRate godoc
// @Summary Get a tax rate
// @Tags tax-rates
// @Produce  json
// @Param   id path string true "Tax rate ID"
// @Success 200 {object} domain.TaxRate
// @Failure 404 {object} ErrorResponse "Tax rate not found"
// @Security BearerAuth
// @Router /tax-rates/{id} [get]
func (h *taxRateHandler) getTaxRate(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	rate, err := h.taxRateService.GetTaxRate(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve tax rate")
		return
	}
	c.JSON(http.StatusOK, rate)
}

// deactivateTaxRate godoc
// @Summary Deactivate a tax rate
// @Tags tax-rates
// @Param   id path string true "Tax rate ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "Tax rate not found"
// @Security BearerAuth
// @Router /tax-rates/{id} [delete]
func (h *taxRateHandler) deactivateTaxRate(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	if err := h.taxRateService.DeactivateTaxRate(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor); err != nil {
		respondError(c, logger, err, "Failed to deactivate tax rate")
		return
	}
	c.Status(http.StatusNoContent)
}
