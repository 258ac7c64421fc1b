package handlers

import (
	"log/slog"
	"net/http"
	"time"

	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/dto"
	"github.com/SscSPs/family_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// balanceHandler handles HTTP requests for raw per-unit balances
type balanceHandler struct {
	balanceService portssvc.BalanceSvc
}

// newBalanceHandler creates a new balanceHandler
func newBalanceHandler(bs portssvc.BalanceSvc) *balanceHandler {
	return &balanceHandler{
		balanceService: bs,
	}
}

// registerBalanceRoutes registers routes related to account and group balances
func registerBalanceRoutes(rg *gin.RouterGroup, balanceService portssvc.BalanceSvc) {
	h := newBalanceHandler(balanceService)

	rg.GET("/accounts/:account_id/balance", h.getAccountBalance)
	rg.GET("/groups/:group_id/balance", h.getGroupBalance)
	rg.GET("/residual", h.getResidual)
}

func (h *balanceHandler) getAccountBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountBookID := c.Param("account_book_id")
	accountID := c.Param("account_id")

	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	balances, err := h.balanceService.BalanceOf(c.Request.Context(), accountBookID, accountID, asOf)
	if err != nil {
		respondBreakdownError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AsOf:     asOf.Format(time.DateOnly),
		Balances: dto.ToUnitAmountResponses(balances),
	})
}

func (h *balanceHandler) getGroupBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountBookID := c.Param("account_book_id")
	groupID := c.Param("group_id")

	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	balances, err := h.balanceService.GroupBalanceOf(c.Request.Context(), accountBookID, groupID, asOf)
	if err != nil {
		respondBreakdownError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AsOf:     asOf.Format(time.DateOnly),
		Balances: dto.ToUnitAmountResponses(balances),
	})
}

// getResidual reports the per-unit sum of the book's balance-sheet roots.
// Nonzero entries mean stored bookings that do not balance to zero.
func (h *balanceHandler) getResidual(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountBookID := c.Param("account_book_id")

	asOf, ok := parseAsOf(c)
	if !ok {
		return
	}

	residual, err := h.balanceService.ResidualOf(c.Request.Context(), accountBookID, asOf)
	if err != nil {
		respondBreakdownError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		AsOf:     asOf.Format(time.DateOnly),
		Balances: dto.ToUnitAmountResponses(residual),
	})
}

func parseAsOf(c *gin.Context) (time.Time, bool) {
	asOfStr := c.DefaultQuery("asOf", time.Now().Format(time.DateOnly))
	asOf, err := time.Parse(time.DateOnly, asOfStr)
	if err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Invalid asOf date format", slog.String("asOf", asOfStr))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD"})
		return time.Time{}, false
	}
	return asOf, true
}
