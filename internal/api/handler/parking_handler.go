package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Geetha20052006/ParkEase/internal/api/middleware"
	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"
	"github.com/Geetha20052006/ParkEase/internal/service"

	"github.com/gin-gonic/gin"
)

type ParkingHandler struct {
	parkingService *service.ParkingService
}

func NewParkingHandler(ps *service.ParkingService) *ParkingHandler {
	return &ParkingHandler{parkingService: ps}
}

// POST /api/v1/parking/entry/request
func (h *ParkingHandler) RequestEntry(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu thông tin người dùng"})
		return
	}

	resp, err := h.parkingService.RequestEntry(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionAlreadyActive):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNoSlotAvailable):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Số dư chưa đạt mức tối thiểu để vào bãi, vui lòng nạp thêm"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo yêu cầu vào bãi", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// POST /api/v1/parking/entry/confirm/:qr_id
func (h *ParkingHandler) ConfirmEntry(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu thông tin người dùng"})
		return
	}
	qrID, err := strconv.Atoi(c.Param("qr_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "QR ID không hợp lệ"})
		return
	}

	slotNumber, err := h.parkingService.ConfirmEntry(c.Request.Context(), userID, qrID)
	if err != nil {
		h.writeQRError(c, err, "Không thể xác nhận vào bãi")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Xác nhận vào bãi thành công", "slot_number": slotNumber})
}

// GET /api/v1/parking/status
func (h *ParkingHandler) ParkingStatus(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu thông tin người dùng"})
		return
	}

	status, err := h.parkingService.ParkingStatus(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy trạng thái đỗ xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// POST /api/v1/parking/exit/request
func (h *ParkingHandler) RequestExit(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu thông tin người dùng"})
		return
	}

	// Body là tùy chọn; cờ free_exit client gửi lên chỉ mang tính đề nghị.
	var dto domain.ExitRequestDTO
	_ = c.ShouldBindJSON(&dto)

	resp, err := h.parkingService.RequestExit(c.Request.Context(), userID, dto.FreeExit)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoActiveSession):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrInsufficientBalance):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Số dư không đủ để thanh toán phí đỗ xe, vui lòng nạp thêm"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo yêu cầu ra bãi", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// POST /api/v1/parking/exit/confirm/:qr_id
func (h *ParkingHandler) ConfirmExit(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu thông tin người dùng"})
		return
	}
	qrID, err := strconv.Atoi(c.Param("qr_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "QR ID không hợp lệ"})
		return
	}

	if err := h.parkingService.ConfirmExit(c.Request.Context(), userID, qrID); err != nil {
		h.writeQRError(c, err, "Không thể xác nhận ra bãi")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Xác nhận ra bãi thành công, hẹn gặp lại"})
}

func (h *ParkingHandler) writeQRError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrQRInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrQRExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrQRAlreadyUsed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}
