package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tup-vms/vms-backend/internal/middleware"
	"github.com/tup-vms/vms-backend/internal/models"
	"github.com/tup-vms/vms-backend/internal/services"
	"github.com/tup-vms/vms-backend/internal/utils"
)

// ScanHandler handles QR scan HTTP requests
type ScanHandler struct {
	scanService *services.ScanService
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanService *services.ScanService) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
	}
}

// ScanQR handles POST /api/scan. The operator scans a subject's QR; the
// subject's role decides which state transition runs.
func (h *ScanHandler) ScanQR(c *gin.Context) {
	var req models.ScanQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	operator := middleware.MustGetUserContext(c)
	scannedWith := utils.DeviceSummary(c.GetHeader("User-Agent"))

	result, err := h.scanService.Scan(req, operator.UserID, scannedWith)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(scanStatus(req.Mode), result)
}

// ScanTransactionQR handles POST /api/scan/transaction for staff-initiated
// transaction scans
func (h *ScanHandler) ScanTransactionQR(c *gin.Context) {
	h.transactionScan(c)
}

// VisitorScanQR handles POST /api/scan/visitor-transaction for visitor and
// student initiated transaction scans
func (h *ScanHandler) VisitorScanQR(c *gin.Context) {
	h.transactionScan(c)
}

func (h *ScanHandler) transactionScan(c *gin.Context) {
	var req models.TransactionScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	actor := middleware.MustGetUserContext(c)
	scannedWith := utils.DeviceSummary(c.GetHeader("User-Agent"))

	result, err := h.scanService.Transaction(req, actor.UserID, scannedWith)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(scanStatus(req.Mode), result)
}

// scanStatus returns 201 for check-ins that create records, 200 otherwise
func scanStatus(mode string) int {
	if models.ScanMode(mode) == models.ModeCheckIn {
		return http.StatusCreated
	}
	return http.StatusOK
}
