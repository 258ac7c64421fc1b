package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/dto"
	"github.com/SscSPs/family_ledger_app/internal/middleware"
	"github.com/SscSPs/family_ledger_app/internal/utils/period"
	"github.com/gin-gonic/gin"
)

// breakdownHandler handles HTTP requests for breakdowns and timelines
type breakdownHandler struct {
	breakdownService portssvc.BreakdownSvc
}

// newBreakdownHandler creates a new breakdownHandler
func newBreakdownHandler(bs portssvc.BreakdownSvc) *breakdownHandler {
	return &breakdownHandler{
		breakdownService: bs,
	}
}

// registerBreakdownRoutes registers routes related to breakdowns and timelines
func registerBreakdownRoutes(rg *gin.RouterGroup, breakdownService portssvc.BreakdownSvc) {
	h := newBreakdownHandler(breakdownService)

	rg.GET("/nodes/:node_id/breakdown", h.getBreakdown)
	rg.GET("/nodes/:node_id/timeline", h.getTimeline)
}

// getBreakdown builds the node tree with aggregated values as of a date.
func (h *breakdownHandler) getBreakdown(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountBookID := c.Param("account_book_id")
	nodeID := c.Param("node_id")

	asOfStr := c.DefaultQuery("asOf", time.Now().Format(time.DateOnly))
	asOf, err := time.Parse(time.DateOnly, asOfStr)
	if err != nil {
		logger.Warn("Invalid asOf date format", slog.String("asOf", asOfStr))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return
	}

	node, err := h.breakdownService.Breakdown(c.Request.Context(), accountBookID, nodeID, asOf)
	if err != nil {
		respondBreakdownError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BreakdownResponse{
		AsOf: asOf.Format(time.DateOnly),
		Root: dto.ToBreakdownNodeResponse(node),
	})
}

// getTimeline produces one aggregated value per period boundary in a range.
func (h *breakdownHandler) getTimeline(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountBookID := c.Param("account_book_id")
	nodeID := c.Param("node_id")

	from, err := time.Parse(time.DateOnly, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing 'from' date. Use YYYY-MM-DD"})
		return
	}
	to, err := time.Parse(time.DateOnly, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing 'to' date. Use YYYY-MM-DD"})
		return
	}
	granularity, err := period.Parse(c.DefaultQuery("granularity", "month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid granularity. Use day, week or month"})
		return
	}

	resp := dto.TimelineResponse{
		From:        from.Format(time.DateOnly),
		To:          to.Format(time.DateOnly),
		Granularity: string(granularity),
	}
	for point, err := range h.breakdownService.Timeline(c.Request.Context(), accountBookID, nodeID, from, to, granularity) {
		if err != nil {
			respondBreakdownError(c, logger, err)
			return
		}
		resp.Points = append(resp.Points, dto.TimelinePointResponse{
			PeriodEnd: point.PeriodEnd.Format(time.DateOnly),
			Value:     point.Value,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func respondBreakdownError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Node or account book not found"})
	case errors.Is(err, apperrors.ErrCycleDetected), errors.Is(err, apperrors.ErrOrphanReference):
		logger.Error("Account hierarchy integrity failure", slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": "Account hierarchy is inconsistent"})
	case errors.Is(err, apperrors.ErrStoreTimeout), errors.Is(err, apperrors.ErrStoreUnavailable):
		logger.Error("Ledger store unavailable", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Ledger store temporarily unavailable, retry later"})
	case errors.Is(err, apperrors.ErrMissingPrice):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		logger.Error("Failed to compute breakdown", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute breakdown"})
	}
}
