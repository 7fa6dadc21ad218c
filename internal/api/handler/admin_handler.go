package handler

import (
	"net/http"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	parkingService *service.ParkingService
}

func NewAdminHandler(ps *service.ParkingService) *AdminHandler {
	return &AdminHandler{parkingService: ps}
}

// GET /api/v1/admin/slots — bảng trạng thái toàn bộ chỗ đỗ cho quản trị viên.
func (h *AdminHandler) GetSlots(c *gin.Context) {
	slots, err := h.parkingService.AdminSlots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy danh sách chỗ đỗ", "details": err.Error()})
		return
	}

	occupied := 0
	for _, s := range slots {
		if s.Status == domain.SlotOccupied {
			occupied++
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"slots":     slots,
		"total":     len(slots),
		"occupied":  occupied,
		"available": len(slots) - occupied,
	})
}
