package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")
var ErrNoSlotAvailable = errors.New("không còn chỗ đỗ trống")
var ErrNoActiveSession = errors.New("không tìm thấy phiên đỗ xe đang hoạt động")
var ErrInsufficientBalance = errors.New("số dư ví không đủ")
var ErrQRAlreadyUsed = errors.New("mã QR đã được sử dụng")
var ErrBillAlreadyUsed = errors.New("hóa đơn đã được sử dụng")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByCarNumber(ctx context.Context, carNumber string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id int, at time.Time) error
}

type ParkingSlotRepository interface {
	// Allocate chọn chỗ trống có slot_number nhỏ nhất và đánh dấu Occupied
	// trong MỘT câu lệnh UPDATE có điều kiện; hai yêu cầu đồng thời không
	// bao giờ nhận cùng một chỗ. Hết chỗ trả về ErrNoSlotAvailable.
	Allocate(ctx context.Context, userID int, at time.Time) (*domain.ParkingSlot, error)
	// Release trả chỗ về Available. Idempotent: chỗ đã trống không phải lỗi.
	Release(ctx context.Context, slotID int) error
	FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error)
	FindAllWithOccupants(ctx context.Context) ([]domain.AdminSlotView, error)
	// ReclaimExpired giải phóng các chỗ Occupied không còn phiên đỗ đang mở
	// lẫn QR vào chưa hết hạn — tức là các chỗ bị giữ bởi QR vào đã quá hạn
	// mà không bao giờ được xác nhận.
	ReclaimExpired(ctx context.Context, now time.Time) ([]domain.ParkingSlot, error)
	Seed(ctx context.Context, total int) error
}

type QRCodeRepository interface {
	Create(ctx context.Context, qr *domain.QRCode) (*domain.QRCode, error)
	FindByID(ctx context.Context, id int) (*domain.QRCode, error)
	// FindActiveEntryByUser là truy vấn định nghĩa "người dùng này có phiên
	// đỗ đang mở không": QR vào với is_used=true, is_active=true.
	FindActiveEntryByUser(ctx context.Context, userID int) (*domain.QRCode, error)
	// FindPendingEntryByUser tìm QR vào đã phát nhưng chưa xác nhận và chưa
	// hết hạn — người dùng đang giữ một chỗ đặt trước chờ xác nhận, nên
	// không được cấp thêm chỗ mới.
	FindPendingEntryByUser(ctx context.Context, userID int, now time.Time) (*domain.QRCode, error)
	// MarkUsed đặt is_used=true (và is_active nếu activate) với điều kiện
	// is_used=false; hai xác nhận đồng thời thì đúng một bên thắng, bên kia
	// nhận ErrQRAlreadyUsed.
	MarkUsed(ctx context.Context, id int, activate bool) error
	// DeactivateEntry đóng QR vào đang hoạt động của (user, slot) khi xác
	// nhận ra bãi.
	DeactivateEntry(ctx context.Context, userID, slotID int) error
}

type BillRepository interface {
	FindByBarcode(ctx context.Context, barcode string) (*domain.Bill, error)
	// Consume chuyển hóa đơn Active -> Used kèm used_by/used_at trong một
	// câu lệnh có điều kiện; hóa đơn đã Used trả về ErrBillAlreadyUsed.
	Consume(ctx context.Context, barcode string, userID int, at time.Time) error
	// HasQualifyingConsumed kiểm tra người dùng đã tiêu một hóa đơn đạt
	// ngưỡng trong khoảng từ since đến nay chưa (miễn phí ra phía server).
	HasQualifyingConsumed(ctx context.Context, userID int, since time.Time, threshold float64) (bool, error)
	Seed(ctx context.Context) error
}

type WalletRepository interface {
	// Credit cộng số dư và ghi dòng credit trong cùng transaction.
	Credit(ctx context.Context, userID int, amount float64, description string, at time.Time) error
	// Debit trừ số dư với điều kiện wallet_balance >= amount và ghi dòng
	// debit trong cùng transaction; không đủ trả về ErrInsufficientBalance.
	Debit(ctx context.Context, userID int, amount float64, description string, at time.Time) error
	ListRecentByUser(ctx context.Context, userID int, limit int) ([]domain.Transaction, error)
}

// TxRepositories là bộ repository gắn với một transaction đang mở, dùng cho
// các bước chuyển trạng thái nhiều bảng (trừ tiền + phát QR ra; xác nhận ra
// + đóng QR vào + trả chỗ). Lỗi ở bất kỳ bước nào rollback toàn bộ.
type TxRepositories struct {
	Slots   ParkingSlotRepository
	QRCodes QRCodeRepository
	Bills   BillRepository
	Wallet  WalletRepository
}

type Atomic interface {
	WithinTx(ctx context.Context, fn func(r TxRepositories) error) error
}
