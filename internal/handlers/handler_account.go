package handlers

import (
	"io"
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler handles HTTP requests related to the chart of accounts.
type accountHandler struct {
	accountService portssvc.AccountSvcFacade
	seeder         portssvc.ChartSeeder
}

func newAccountHandler(as portssvc.AccountSvcFacade, seeder portssvc.ChartSeeder) *accountHandler {
	return &accountHandler{accountService: as, seeder: seeder}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, as portssvc.AccountSvcFacade, seeder portssvc.ChartSeeder) {
	h := newAccountHandler(as, seeder)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.POST("/seed", h.seedChart)
		accounts.GET("", h.listAccounts)
		accounts.GET("/:id", h.getAccount)
		accounts.GET("/:id/balance", h.getBalance)
		accounts.POST("/:id/move", h.moveAccount)
		accounts.POST("/:id/lock", h.lockAccount)
		accounts.POST("/:id/unlock", h.unlockAccount)
		accounts.DELETE("/:id", h.deactivateAccount)
	}
}

// createAccount godoc
// @Summary Create an account
// @Description Creates an account in the caller's club, optionally beneath a header account
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   account body dto.CreateAccountRequest true "Account details"
// @Success 201 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse "Validation error, duplicate code or invalid parent"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Failed to create account"
// @Security BearerAuth
// @Router /accounts [post]
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	logger.Info("Received request to create account", slog.String("code", req.Code))
	acc, err := h.accountService.CreateAccount(c.Request.Context(), p.ClubID, req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to create account")
		return
	}

	logger.Info("Account created successfully", slog.String("account_id", acc.AccountID))
	c.JSON(http.StatusCreated, dto.ToAccountResponse(acc))
}

// seedChart godoc
// @Summary Seed the chart of accounts
// @Description Creates a chart of accounts from a YAML seed document
// @Tags accounts
// @Accept  application/x-yaml
// @Produce  json
// @Success 201 {object} map[string]int "Number of accounts created"
// @Failure 400 {object} ErrorResponse "Invalid seed document"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /accounts/seed [post]
func (h *accountHandler) seedChart(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		bindError(c, logger, err)
		return
	}

	created, err := h.seeder.SeedChart(c.Request.Context(), p.ClubID, body, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to seed chart of accounts")
		return
	}
	logger.Info("Chart of accounts seeded", slog.Int("created", created))
	c.JSON(http.StatusCreated, gin.H{"created": created})
}

// listAccounts godoc
// @Summary List the chart of accounts
// @Tags accounts
// @Produce  json
// @Success 200 {array} dto.AccountResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), p.ClubID)
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, dto.ToListAccountResponse(accounts))
}

// getAccount godoc
// @Summary Get an account by ID
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{id} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("account_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// getBalance godoc
// @Summary Get an account balance
// @Description Returns the balance as of a date, rebuilt from posted lines. Headers aggregate their subtree.
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   asOf query string false "Balance date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.AccountBalanceResponse
// @Failure 400 {object} ErrorResponse "Invalid date"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/balance [get]
func (h *accountHandler) getBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("account_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}
	asOf, err := dateParam(c, "asOf")
	if err != nil {
		bindError(c, logger, err)
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve account")
		return
	}
	balance, err := h.accountService.GetBalance(c.Request.Context(), p.ClubID, acc.AccountID, asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to calculate balance")
		return
	}
	c.JSON(http.StatusOK, dto.AccountBalanceResponse{
		AccountID:  acc.AccountID,
		AsOf:       asOf,
		NormalSide: acc.NormalSide,
		Balance:    balance,
	})
}

// moveAccount godoc
// @Summary Move an account under a new parent
// @Tags accounts
// @Accept  json
// @Produce  json
// @Param   id path string true "Account ID"
// @Param   move body dto.MoveAccountRequest true "New parent; empty makes the account a root"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse "Invalid parent"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/move [post]
func (h *accountHandler) moveAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("account_id", c.Param("id")))
	var req dto.MoveAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	acc, err := h.accountService.MoveAccount(c.Request.Context(), p.ClubID, c.Param("id"), req.ParentAccountID, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to move account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// lockAccount godoc
// @Summary Lock an account against posting
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/lock [post]
func (h *accountHandler) lockAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("account_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	acc, err := h.accountService.LockAccount(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to lock account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// unlockAccount godoc
// @Summary Unlock an account
// @Tags accounts
// @Produce  json
// @Param   id path string true "Account ID"
// @Success 200 {object} dto.AccountResponse
// @Failure 404 {object} ErrorResponse "Account not found"
// @Security BearerAuth
// @Router /accounts/{id}/unlock [post]
func (h *accountHandler) unlockAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("account_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	acc, err := h.accountService.UnlockAccount(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to unlock account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(acc))
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Retires an account. Accounts with a non-zero balance or active children are refused.
// @Tags accounts
// @Param   id path string true "Account ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 409 {object} ErrorResponse "Account cannot be deactivated"
// @Security BearerAuth
// @Router /accounts/{id} [delete]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("account_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	if err := h.accountService.DeactivateAccount(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor); err != nil {
		respondError(c, logger, err, "Failed to deactivate account")
		return
	}
	logger.Info("Account deactivated")
	c.Status(http.StatusNoContent)
}
