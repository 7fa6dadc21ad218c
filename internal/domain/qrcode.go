package domain

import "time"

type QRType string

const (
	QRTypeEntry QRType = "entry"
	QRTypeExit  QRType = "exit"
)

// QRState là trạng thái suy diễn của một mã QR, tính từ hai cờ is_used /
// is_active cộng với thời điểm hiện tại. Hai cờ vẫn được lưu nguyên trong DB
// để tương thích, nhưng code chỉ làm việc qua enum này để các tổ hợp cờ
// không hợp lệ không thể xuất hiện.
type QRState string

const (
	// QRIssued: đã phát hành, chưa được quét xác nhận.
	QRIssued QRState = "issued"
	// QRConfirmedActive: QR vào đã xác nhận và phiên đỗ đang mở.
	QRConfirmedActive QRState = "confirmed_active"
	// QRConfirmedClosed: đã dùng xong (QR ra, hoặc QR vào của phiên đã đóng).
	QRConfirmedClosed QRState = "confirmed_closed"
	// QRExpired: quá hạn mà chưa xác nhận, vĩnh viễn không dùng được nữa.
	QRExpired QRState = "expired"
)

// QRCode là bản ghi mã QR gắn với một người dùng và một chỗ đỗ. Bản ghi
// không bao giờ bị xóa; chúng tạo thành vết kiểm toán của mọi lượt vào/ra.
type QRCode struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	SlotID    int       `json:"slot_id"`
	Type      QRType    `json:"type"`
	Data      string    `json:"data"` // JSON payload mã hóa trong ảnh QR
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IsUsed    bool      `json:"is_used"`
	IsActive  bool      `json:"is_active"`
}

// State suy ra trạng thái của mã QR tại thời điểm now. Quá hạn chỉ áp dụng
// cho mã chưa xác nhận: một QR vào đã xác nhận vẫn đại diện cho phiên đỗ
// đang mở dù expires_at đã qua.
func (q *QRCode) State(now time.Time) QRState {
	if !q.IsUsed {
		if now.After(q.ExpiresAt) {
			return QRExpired
		}
		return QRIssued
	}
	if q.Type == QRTypeEntry && q.IsActive {
		return QRConfirmedActive
	}
	return QRConfirmedClosed
}

// QRPayload là nội dung JSON được mã hóa vào ảnh QR. Nonce ngẫu nhiên chống
// phát lại giữa các lần phát hành cho cùng (user, slot).
type QRPayload struct {
	UserID    int     `json:"user_id"`
	SlotID    int     `json:"slot_id"`
	Type      QRType  `json:"type"`
	Timestamp string  `json:"timestamp"`
	FreeExit  bool    `json:"free_exit,omitempty"`
	Charges   float64 `json:"charges,omitempty"`
	Nonce     string  `json:"nonce"`
}

// EntryQRResponseDTO trả về khi yêu cầu vào bãi.
type EntryQRResponseDTO struct {
	QRID       int       `json:"qr_id"`
	QRCode     string    `json:"qr_code"` // Ảnh QR dạng base64 PNG
	SlotNumber int       `json:"slot_number"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ExitQRResponseDTO trả về khi yêu cầu ra bãi.
type ExitQRResponseDTO struct {
	QRID      int       `json:"qr_id"`
	QRCode    string    `json:"qr_code"`
	Charge    float64   `json:"charge"`
	FreeExit  bool      `json:"free_exit"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ExitRequestDTO struct {
	// Client có thể đề nghị miễn phí ra, nhưng server luôn tự kiểm tra lại
	// hóa đơn đã tiêu trong phiên hiện tại trước khi chấp nhận.
	FreeExit bool `json:"free_exit"`
}

// ParkingStatusDTO là view phiên đỗ đang mở trên dashboard.
type ParkingStatusDTO struct {
	SlotNumber int       `json:"slot_number"`
	EntryTime  time.Time `json:"entry_time"`
	Duration   string    `json:"duration"`
	Charges    float64   `json:"charges"`
}
