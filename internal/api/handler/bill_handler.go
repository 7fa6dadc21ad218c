package handler

import (
	"errors"
	"net/http"

	"github.com/Geetha20052006/ParkEase/internal/api/middleware"
	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"
	"github.com/Geetha20052006/ParkEase/internal/service"

	"github.com/gin-gonic/gin"
)

type BillHandler struct {
	billingService *service.BillingService
	parkingService *service.ParkingService
}

func NewBillHandler(bs *service.BillingService, ps *service.ParkingService) *BillHandler {
	return &BillHandler{billingService: bs, parkingService: ps}
}

// POST /api/v1/bills/verify — chỉ tra cứu, không tiêu hóa đơn.
func (h *BillHandler) Verify(c *gin.Context) {
	var dto domain.BillScanDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.billingService.VerifyBill(c.Request.Context(), dto.Barcode)
	if err != nil {
		h.writeBillError(c, err, "Lỗi tra cứu hóa đơn")
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/v1/bills/scan — tiêu hóa đơn cho phiên đỗ hiện tại.
func (h *BillHandler) Scan(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu thông tin người dùng"})
		return
	}

	var dto domain.BillScanDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.parkingService.ScanBill(c.Request.Context(), userID, dto.Barcode)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			c.JSON(http.StatusConflict, gin.H{"error": "Bạn cần có phiên đỗ xe đang hoạt động để quét hóa đơn"})
			return
		}
		h.writeBillError(c, err, "Không thể quét hóa đơn")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BillHandler) writeBillError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrBillNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrBillAlreadyUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}
