package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/family_ledger_app/internal/apperrors"
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/SscSPs/family_ledger_app/internal/dto"
	"github.com/SscSPs/family_ledger_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// transactionHandler handles HTTP requests mutating the ledger
type transactionHandler struct {
	transactorService portssvc.TransactorSvc
}

// newTransactionHandler creates a new transactionHandler
func newTransactionHandler(ts portssvc.TransactorSvc) *transactionHandler {
	return &transactionHandler{
		transactorService: ts,
	}
}

// registerTransactionRoutes registers routes related to transaction mutation
func registerTransactionRoutes(rg *gin.RouterGroup, transactorService portssvc.TransactorSvc) {
	h := newTransactionHandler(transactorService)

	txns := rg.Group("/transactions")
	{
		txns.POST("", h.createTransaction)
		txns.DELETE("/:transaction_id", h.deleteTransaction)
	}
}

func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountBookID := c.Param("account_book_id")

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid create transaction request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	txn, err := h.transactorService.CreateTransaction(c.Request.Context(), accountBookID, req, requestUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrUnsupportedUnit):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		}
		return
	}

	c.JSON(http.StatusCreated, txn)
}

func (h *transactionHandler) deleteTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountBookID := c.Param("account_book_id")
	transactionID := c.Param("transaction_id")

	err := h.transactorService.DeleteTransaction(c.Request.Context(), accountBookID, transactionID, requestUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		default:
			logger.Error("Failed to delete transaction", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// requestUserID reads the caller identity header. Authentication proper lives
// outside this service; the header is recorded for audit fields only.
func requestUserID(c *gin.Context) string {
	if user := c.GetHeader("X-User-ID"); user != "" {
		return user
	}
	return "anonymous"
}
