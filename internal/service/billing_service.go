package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"
)

var ErrBillNotFound = errors.New("không tìm thấy hóa đơn với mã vạch này")

// BillingService tính phí đỗ xe theo thời gian và xét hóa đơn giảm giá.
// Phần tính phí là hàm thuần trên timestamp; phần tiêu hóa đơn ủy quyền cho
// BillRepository.
type BillingService struct {
	billRepo          repository.BillRepository
	hourlyRate        float64
	freeExitThreshold float64
}

func NewBillingService(billRepo repository.BillRepository, hourlyRate, freeExitThreshold float64) *BillingService {
	return &BillingService{
		billRepo:          billRepo,
		hourlyRate:        hourlyRate,
		freeExitThreshold: freeExitThreshold,
	}
}

// ComputeCharge tính phí = rate * số giờ, làm tròn half-up về 2 chữ số thập
// phân. Hệ thống cũ dùng round() kiểu banker; ở đây cố định half-up để kết
// quả tái lập được. Khoảng thời gian âm tính phí 0.
func (s *BillingService) ComputeCharge(entryTime, now time.Time) float64 {
	hours := now.Sub(entryTime).Hours()
	if hours <= 0 {
		return 0
	}
	return roundHalfUp(s.hourlyRate * hours)
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// VerifyBill tra cứu hóa đơn theo mã vạch, không thay đổi trạng thái.
func (s *BillingService) VerifyBill(ctx context.Context, barcode string) (*domain.BillVerifyResponseDTO, error) {
	bill, err := s.billRepo.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("lỗi tra cứu hóa đơn: %w", err)
	}
	if bill.Status == domain.BillUsed {
		return nil, repository.ErrBillAlreadyUsed
	}
	return &domain.BillVerifyResponseDTO{
		BillNumber: bill.BillNumber,
		Amount:     bill.Amount,
		FreeExit:   s.Qualifies(bill.Amount),
	}, nil
}

// Qualifies: ngưỡng miễn phí ra là bao gồm (>= 500 đạt, 499.99 không).
func (s *BillingService) Qualifies(amount float64) bool {
	return amount >= s.freeExitThreshold
}
