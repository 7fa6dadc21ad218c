package handler

import (
	"errors"
	"net/http"

	"github.com/Geetha20052006/ParkEase/internal/api/middleware"
	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	walletService *service.WalletService
}

func NewWalletHandler(ws *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: ws}
}

// GET /api/v1/wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu thông tin người dùng"})
		return
	}

	view, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi lấy thông tin ví", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// POST /api/v1/wallet/add-funds
func (h *WalletHandler) AddFunds(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Thiếu thông tin người dùng"})
		return
	}

	var dto domain.AddFundsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.walletService.AddFunds(c.Request.Context(), userID, dto.Amount); err != nil {
		if errors.Is(err, service.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể nạp tiền", "details": err.Error()})
		return
	}

	view, err := h.walletService.GetWallet(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "Nạp tiền thành công"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Nạp tiền thành công", "balance": view.Balance})
}
