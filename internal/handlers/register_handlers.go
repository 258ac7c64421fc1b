package handlers

import (
	portssvc "github.com/SscSPs/family_ledger_app/internal/core/ports/services"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})

	setupAPIV1Routes(r, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	services *portssvc.ServiceContainer,
) {
	v1 := r.Group("/api/v1")

	books := v1.Group("/account-books/:account_book_id")
	registerBreakdownRoutes(books, services.Breakdown)
	registerBalanceRoutes(books, services.Balance)
	registerTransactionRoutes(books, services.Transactor)
}
