package handlers

import (
	"net/http"

	"github.com/propmarket/portal/internal/repository"
	"github.com/propmarket/portal/pkg/response"

	"github.com/gin-gonic/gin"
)

type ledgerScanResp struct {
	Total   int64 `json:"total"`
	Entries any   `json:"entries"`
}

// ApiAdminScanLedger lists subscription ledger entries with filters and
// pagination, for back-office reconciliation against gateway statements.
func ApiAdminScanLedger(ledger repository.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req repository.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Fail(response.CodeValidation, err.Error()))
			return
		}

		entries, total, err := ledger.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, response.Fail(response.CodeInternal, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.Success(ledgerScanResp{Total: total, Entries: entries}))
	}
}

func RegisterAdminRoutes(r gin.IRouter, ledger repository.Ledger) {
	r.POST("/subscriptions/scan", ApiAdminScanLedger(ledger))
}
