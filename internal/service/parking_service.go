package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/qr"
	"github.com/Geetha20052006/ParkEase/internal/repository"
)

var ErrSessionAlreadyActive = errors.New("bạn đang có một phiên đỗ xe hoạt động")
var ErrNotOwner = errors.New("mã QR không thuộc về bạn")
var ErrQRExpired = errors.New("mã QR đã hết hạn")
var ErrQRInvalid = errors.New("mã QR không hợp lệ")

// SlotNotifier đẩy thay đổi trạng thái chỗ đỗ ra kênh real-time (bảng quản
// trị). Có thể nil khi chạy test.
type SlotNotifier interface {
	NotifySlotStatus(n domain.SlotStatusNotification)
}

// ParkingService điều phối vòng đời một phiên đỗ xe: cấp chỗ -> phát QR vào
// -> xác nhận vào -> (quét hóa đơn) -> phát QR ra -> xác nhận ra -> trả chỗ.
// Mỗi bước chuyển trạng thái chạm nhiều bảng đều nằm trong một transaction.
type ParkingService struct {
	userRepo repository.UserRepository
	slotRepo repository.ParkingSlotRepository
	qrRepo   repository.QRCodeRepository
	billRepo repository.BillRepository
	atomic   repository.Atomic
	billing  *BillingService
	encoder  qr.Encoder
	notifier SlotNotifier

	qrTTL             time.Duration
	minEntryBalance   float64
	freeExitThreshold float64
	now               Clock
}

func NewParkingService(
	userRepo repository.UserRepository,
	slotRepo repository.ParkingSlotRepository,
	qrRepo repository.QRCodeRepository,
	billRepo repository.BillRepository,
	atomic repository.Atomic,
	billing *BillingService,
	encoder qr.Encoder,
	notifier SlotNotifier,
	qrTTL time.Duration,
	minEntryBalance float64,
	freeExitThreshold float64,
	now Clock,
) *ParkingService {
	if now == nil {
		now = UTCClock
	}
	return &ParkingService{
		userRepo:          userRepo,
		slotRepo:          slotRepo,
		qrRepo:            qrRepo,
		billRepo:          billRepo,
		atomic:            atomic,
		billing:           billing,
		encoder:           encoder,
		notifier:          notifier,
		qrTTL:             qrTTL,
		minEntryBalance:   minEntryBalance,
		freeExitThreshold: freeExitThreshold,
		now:               now,
	}
}

// RequestEntry cấp một chỗ đỗ và phát QR vào cho người dùng. Chỗ được đánh
// dấu Occupied ngay khi cấp, trước cả khi QR được xác nhận; nếu QR hết hạn
// mà không được xác nhận thì job thu hồi sẽ trả chỗ về Available. Mỗi người
// dùng chỉ được giữ một chỗ tại một thời điểm: đang có phiên mở hoặc đang
// giữ QR vào chưa xác nhận thì không được cấp thêm.
func (s *ParkingService) RequestEntry(ctx context.Context, userID int) (*domain.EntryQRResponseDTO, error) {
	now := s.now()

	if _, err := s.qrRepo.FindActiveEntryByUser(ctx, userID); err == nil {
		return nil, ErrSessionAlreadyActive
	} else if !errors.Is(err, repository.ErrNoActiveSession) {
		return nil, fmt.Errorf("lỗi kiểm tra phiên đỗ xe: %w", err)
	}
	if _, err := s.qrRepo.FindPendingEntryByUser(ctx, userID, now); err == nil {
		return nil, ErrSessionAlreadyActive
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi kiểm tra QR vào đang chờ xác nhận: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm người dùng: %w", err)
	}
	if user.WalletBalance < s.minEntryBalance {
		return nil, repository.ErrInsufficientBalance
	}

	var slot *domain.ParkingSlot
	var qrCode *domain.QRCode

	err = s.atomic.WithinTx(ctx, func(r repository.TxRepositories) error {
		var innerErr error
		slot, innerErr = r.Slots.Allocate(ctx, userID, now)
		if innerErr != nil {
			return innerErr
		}

		payload, innerErr := qr.BuildPayload(userID, slot.ID, domain.QRTypeEntry, now, false, 0)
		if innerErr != nil {
			return innerErr
		}

		qrCode = &domain.QRCode{
			UserID:    userID,
			SlotID:    slot.ID,
			Type:      domain.QRTypeEntry,
			Data:      payload,
			CreatedAt: now,
			ExpiresAt: now.Add(s.qrTTL),
		}
		_, innerErr = r.QRCodes.Create(ctx, qrCode)
		return innerErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoSlotAvailable) {
			return nil, repository.ErrNoSlotAvailable
		}
		return nil, fmt.Errorf("lỗi cấp chỗ đỗ: %w", err)
	}

	image, err := s.encoder.Encode([]byte(qrCode.Data))
	if err != nil {
		return nil, fmt.Errorf("lỗi sinh ảnh QR vào: %w", err)
	}

	s.notify(domain.SlotStatusNotification{SlotNumber: slot.SlotNumber, Status: domain.SlotOccupied, Source: "entry"})
	log.Printf("Đã cấp chỗ đỗ %d và phát QR vào ID %d cho người dùng %d", slot.SlotNumber, qrCode.ID, userID)

	return &domain.EntryQRResponseDTO{
		QRID:       qrCode.ID,
		QRCode:     image,
		SlotNumber: slot.SlotNumber,
		ExpiresAt:  qrCode.ExpiresAt,
	}, nil
}

// ConfirmEntry xác nhận QR vào: kiểm tra chủ sở hữu, hạn dùng, rồi đánh dấu
// đã dùng + đang hoạt động. Từ lúc này người dùng có phiên đỗ mở.
func (s *ParkingService) ConfirmEntry(ctx context.Context, userID, qrID int) (int, error) {
	qrCode, err := s.validateQR(ctx, userID, qrID, domain.QRTypeEntry)
	if err != nil {
		return 0, err
	}

	if err := s.qrRepo.MarkUsed(ctx, qrID, true); err != nil {
		return 0, err
	}

	slot, err := s.slotRepo.FindByID(ctx, qrCode.SlotID)
	if err != nil {
		return 0, fmt.Errorf("lỗi tìm chỗ đỗ: %w", err)
	}
	log.Printf("Người dùng %d đã xác nhận vào bãi, chỗ đỗ %d", userID, slot.SlotNumber)
	return slot.SlotNumber, nil
}

// ParkingStatus trả về view phiên đỗ đang mở cho dashboard, kèm phí tạm
// tính ở thời điểm hiện tại.
func (s *ParkingService) ParkingStatus(ctx context.Context, userID int) (*domain.ParkingStatusDTO, error) {
	active, err := s.qrRepo.FindActiveEntryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	slot, err := s.slotRepo.FindByID(ctx, active.SlotID)
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm chỗ đỗ: %w", err)
	}

	now := s.now()
	elapsed := now.Sub(active.CreatedAt)
	hours := int(elapsed.Hours())
	minutes := int(elapsed.Minutes()) % 60

	return &domain.ParkingStatusDTO{
		SlotNumber: slot.SlotNumber,
		EntryTime:  active.CreatedAt,
		Duration:   fmt.Sprintf("%d giờ %d phút", hours, minutes),
		Charges:    s.billing.ComputeCharge(active.CreatedAt, now),
	}, nil
}

// ScanBill tiêu một hóa đơn cho phiên đỗ hiện tại. Thứ tự bắt buộc: kiểm
// tra phiên đang mở trước, tiêu hóa đơn sau — không bao giờ tiêu hóa đơn mà
// không có phiên đỗ tương ứng.
func (s *ParkingService) ScanBill(ctx context.Context, userID int, barcode string) (*domain.BillVerifyResponseDTO, error) {
	if _, err := s.qrRepo.FindActiveEntryByUser(ctx, userID); err != nil {
		return nil, err
	}

	result, err := s.billing.VerifyBill(ctx, barcode)
	if err != nil {
		return nil, err
	}

	now := s.now()
	err = s.atomic.WithinTx(ctx, func(r repository.TxRepositories) error {
		return r.Bills.Consume(ctx, barcode, userID, now)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}

	log.Printf("Người dùng %d đã tiêu hóa đơn %s (%.2f), miễn phí ra: %t", userID, barcode, result.Amount, result.FreeExit)
	return result, nil
}

// RequestExit tính phí và phát QR ra. Miễn phí ra do server tự quyết định:
// người dùng phải đã tiêu một hóa đơn đạt ngưỡng trong phiên hiện tại; cờ
// free_exit client gửi lên chỉ là đề nghị, không được tin. Nếu phải trả phí
// thì trừ ví và phát QR nằm trong cùng transaction — trừ tiền thất bại thì
// không có QR nào được phát.
func (s *ParkingService) RequestExit(ctx context.Context, userID int, _ bool) (*domain.ExitQRResponseDTO, error) {
	active, err := s.qrRepo.FindActiveEntryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	charge := s.billing.ComputeCharge(active.CreatedAt, now)

	freeExit, err := s.billRepo.HasQualifyingConsumed(ctx, userID, active.CreatedAt, s.freeExitThreshold)
	if err != nil {
		return nil, fmt.Errorf("lỗi kiểm tra hóa đơn miễn phí ra: %w", err)
	}

	dueCharge := charge
	if freeExit {
		dueCharge = 0
	}

	var qrCode *domain.QRCode
	err = s.atomic.WithinTx(ctx, func(r repository.TxRepositories) error {
		if dueCharge > 0 {
			if innerErr := r.Wallet.Debit(ctx, userID, dueCharge, "Phí đỗ xe", now); innerErr != nil {
				return innerErr
			}
		}

		payload, innerErr := qr.BuildPayload(userID, active.SlotID, domain.QRTypeExit, now, freeExit, dueCharge)
		if innerErr != nil {
			return innerErr
		}

		qrCode = &domain.QRCode{
			UserID:    userID,
			SlotID:    active.SlotID,
			Type:      domain.QRTypeExit,
			Data:      payload,
			CreatedAt: now,
			ExpiresAt: now.Add(s.qrTTL),
		}
		_, innerErr = r.QRCodes.Create(ctx, qrCode)
		return innerErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, repository.ErrInsufficientBalance
		}
		return nil, fmt.Errorf("lỗi phát QR ra: %w", err)
	}

	image, err := s.encoder.Encode([]byte(qrCode.Data))
	if err != nil {
		return nil, fmt.Errorf("lỗi sinh ảnh QR ra: %w", err)
	}

	log.Printf("Đã phát QR ra ID %d cho người dùng %d, phí %.2f, miễn phí: %t", qrCode.ID, userID, dueCharge, freeExit)
	return &domain.ExitQRResponseDTO{
		QRID:      qrCode.ID,
		QRCode:    image,
		Charge:    dueCharge,
		FreeExit:  freeExit,
		ExpiresAt: qrCode.ExpiresAt,
	}, nil
}

// ConfirmExit xác nhận QR ra, đóng QR vào đang hoạt động và trả chỗ về
// Available — cả ba bước trong một transaction.
func (s *ParkingService) ConfirmExit(ctx context.Context, userID, qrID int) error {
	qrCode, err := s.validateQR(ctx, userID, qrID, domain.QRTypeExit)
	if err != nil {
		return err
	}

	err = s.atomic.WithinTx(ctx, func(r repository.TxRepositories) error {
		if innerErr := r.QRCodes.MarkUsed(ctx, qrID, false); innerErr != nil {
			return innerErr
		}
		if innerErr := r.QRCodes.DeactivateEntry(ctx, userID, qrCode.SlotID); innerErr != nil {
			return innerErr
		}
		return r.Slots.Release(ctx, qrCode.SlotID)
	})
	if err != nil {
		return err
	}

	slot, err := s.slotRepo.FindByID(ctx, qrCode.SlotID)
	if err == nil {
		s.notify(domain.SlotStatusNotification{SlotNumber: slot.SlotNumber, Status: domain.SlotAvailable, Source: "exit"})
	}
	log.Printf("Người dùng %d đã xác nhận ra bãi, trả chỗ đỗ ID %d", userID, qrCode.SlotID)
	return nil
}

// ReclaimExpiredReservations giải phóng các chỗ đỗ bị giữ bởi QR vào đã quá
// hạn mà không bao giờ được xác nhận. Chỗ của phiên đã xác nhận không bị
// đụng tới.
func (s *ParkingService) ReclaimExpiredReservations(ctx context.Context) (int, error) {
	slots, err := s.slotRepo.ReclaimExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, slot := range slots {
		s.notify(domain.SlotStatusNotification{SlotNumber: slot.SlotNumber, Status: domain.SlotAvailable, Source: "reclaim"})
	}
	return len(slots), nil
}

// AdminSlots trả về toàn bộ chỗ đỗ kèm thông tin người đang đỗ.
func (s *ParkingService) AdminSlots(ctx context.Context) ([]domain.AdminSlotView, error) {
	return s.slotRepo.FindAllWithOccupants(ctx)
}

// validateQR kiểm tra một mã QR trước khi xác nhận: đúng loại, đúng chủ,
// chưa dùng, chưa hết hạn. Không thay đổi trạng thái.
func (s *ParkingService) validateQR(ctx context.Context, userID, qrID int, wantType domain.QRType) (*domain.QRCode, error) {
	qrCode, err := s.qrRepo.FindByID(ctx, qrID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQRInvalid
		}
		return nil, fmt.Errorf("lỗi tìm mã QR: %w", err)
	}
	if qrCode.Type != wantType {
		return nil, ErrQRInvalid
	}
	if qrCode.UserID != userID {
		return nil, ErrNotOwner
	}
	switch qrCode.State(s.now()) {
	case domain.QRExpired:
		return nil, ErrQRExpired
	case domain.QRConfirmedActive, domain.QRConfirmedClosed:
		return nil, repository.ErrQRAlreadyUsed
	}
	return qrCode, nil
}

func (s *ParkingService) notify(n domain.SlotStatusNotification) {
	if s.notifier != nil {
		s.notifier.NotifySlotStatus(n)
	}
}
