package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journalService: js}
}

func registerJournalRoutes(rg *gin.RouterGroup, js portssvc.JournalSvcFacade) {
	h := newJournalHandler(js)

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", h.recordEntry)
		entries.POST("/drafts", h.createDraft)
		entries.GET("", h.listEntries)
		entries.GET("/:id", h.getEntry)
		entries.GET("/:id/reversal", h.getReversal)
		entries.POST("/:id/submit", h.submitEntry)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/void", h.voidEntry)
	}
}

// postOptions grants the closed-period override only to callers whose token carries it.
func postOptions(c *gin.Context, p middleware.Principal, requested bool) (portssvc.PostOptions, bool) {
	if requested && !p.CanOverrideClosed {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Caller may not post into closed periods", Code: "FORBIDDEN"})
		return portssvc.PostOptions{}, false
	}
	return portssvc.PostOptions{OverrideClosedPeriod: requested}, true
}

// recordEntry godoc
// @Summary Record and post a journal entry
// @Description Creates a journal entry and posts it in one unit of work
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateJournalEntryRequest true "Journal entry"
// @Param   overrideClosedPeriod query bool false "Post into a closed period of a year that allows it"
// @Success 201 {object} dto.EntryIDResponse
// @Failure 400 {object} ErrorResponse "Empty entry, unknown account or validation error"
// @Failure 403 {object} ErrorResponse "Override not permitted"
// @Failure 409 {object} ErrorResponse "Period not open or account locked"
// @Failure 422 {object} ErrorResponse "Unbalanced entry"
// @Security BearerAuth
// @Router /journal-entries [post]
func (h *journalHandler) recordEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}
	opts, ok := postOptions(c, p, c.Query("overrideClosedPeriod") == "true")
	if !ok {
		return
	}

	entryID, err := h.journalService.RecordEntry(c.Request.Context(), p.ClubID, req, opts, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to record journal entry")
		return
	}
	logger.Info("Journal entry recorded", slog.String("entry_id", entryID))
	c.JSON(http.StatusCreated, dto.EntryIDResponse{EntryID: entryID})
}

// createDraft godoc
// @Summary Create a draft journal entry
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateJournalEntryRequest true "Journal entry"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 400 {object} ErrorResponse "Empty entry, unknown account or validation error"
// @Security BearerAuth
// @Router /journal-entries/drafts [post]
func (h *journalHandler) createDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req dto.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.CreateDraft(c.Request.Context(), p.ClubID, req, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to create draft entry")
		return
	}
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Description Lists entries newest first, paged with an opaque token
// @Tags journal-entries
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Param   status query []string false "Filter by status" collectionFormat(multi)
// @Param   from query string false "Earliest entry date (YYYY-MM-DD)"
// @Param   to query string false "Latest entry date (YYYY-MM-DD)"
// @Success 200 {object} dto.ListJournalEntriesResponse
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Security BearerAuth
// @Router /journal-entries [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var params dto.ListJournalEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	page, err := h.journalService.ListEntries(c.Request.Context(), p.ClubID, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list journal entries")
		return
	}
	c.JSON(http.StatusOK, page)
}

// getEntry godoc
// @Summary Get a journal entry with its lines
// @Tags journal-entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Security BearerAuth
// @Router /journal-entries/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("entry_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.GetEntry(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// getReversal godoc
// @Summary Get the entry reversing a voided entry
// @Tags journal-entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 404 {object} ErrorResponse "Entry has not been reversed"
// @Security BearerAuth
// @Router /journal-entries/{id}/reversal [get]
func (h *journalHandler) getReversal(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("entry_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	reversal, err := h.journalService.FindReversal(c.Request.Context(), p.ClubID, c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve reversal")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(reversal))
}

// submitEntry godoc
// @Summary Submit a draft entry for approval
// @Tags journal-entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 409 {object} ErrorResponse "Entry is not a draft"
// @Security BearerAuth
// @Router /journal-entries/{id}/submit [post]
func (h *journalHandler) submitEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("entry_id", c.Param("id")))
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	entry, err := h.journalService.SubmitForApproval(c.Request.Context(), p.ClubID, c.Param("id"), p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to submit journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// postEntry godoc
// @Summary Post a draft or pending entry
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   options body dto.PostEntryRequest false "Posting options"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 403 {object} ErrorResponse "Override not permitted"
// @Failure 409 {object} ErrorResponse "Period not open or entry already posted"
// @Failure 422 {object} ErrorResponse "Unbalanced entry"
// @Security BearerAuth
// @Router /journal-entries/{id}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("entry_id", c.Param("id")))
	var req dto.PostEntryRequest
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
	opts, ok := postOptions(c, p, req.OverrideClosedPeriod)
	if !ok {
		return
	}

	entry, err := h.journalService.Post(c.Request.Context(), p.ClubID, c.Param("id"), opts, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to post journal entry")
		return
	}
	logger.Info("Journal entry posted", slog.String("entry_number", entry.EntryNumber))
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// voidEntry godoc
// @Summary Void a posted entry
// @Description Posts a reversing entry and marks the original VOIDED
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   void body dto.VoidEntryRequest true "Reason"
// @Success 201 {object} dto.EntryIDResponse "ID of the reversing entry"
// @Failure 409 {object} ErrorResponse "Already reversed or not posted"
// @Security BearerAuth
// @Router /journal-entries/{id}/void [post]
func (h *journalHandler) voidEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c).With(slog.String("entry_id", c.Param("id")))
	var req dto.VoidEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	p, ok := principalOrAbort(c, logger)
	if !ok {
		return
	}

	reversalID, err := h.journalService.Void(c.Request.Context(), p.ClubID, c.Param("id"), req.Reason, p.Actor)
	if err != nil {
		respondError(c, logger, err, "Failed to void journal entry")
		return
	}
	logger.Info("Journal entry voided", slog.String("reversal_id", reversalID))
	c.JSON(http.StatusCreated, dto.EntryIDResponse{EntryID: reversalID})
}
