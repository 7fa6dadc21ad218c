// Package qr dựng payload JSON cho mã QR vào/ra và mã hóa thành ảnh PNG.
// Payload là hợp đồng; ảnh chỉ là cách trình bày cho client quét.
package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// Encoder sinh ảnh QR từ payload bất kỳ. Tách interface để test không phải
// sinh PNG thật.
type Encoder interface {
	Encode(payload []byte) (string, error) // Trả về base64 PNG
}

type pngEncoder struct{}

func NewPNGEncoder() Encoder {
	return &pngEncoder{}
}

func (e *pngEncoder) Encode(payload []byte) (string, error) {
	png, err := qrcode.Encode(string(payload), qrcode.Low, 256)
	if err != nil {
		return "", fmt.Errorf("lỗi sinh ảnh QR: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// BuildPayload tạo payload JSON cho một mã QR, kèm nonce ngẫu nhiên chống
// phát lại.
func BuildPayload(userID, slotID int, qrType domain.QRType, at time.Time, freeExit bool, charges float64) (string, error) {
	p := domain.QRPayload{
		UserID:    userID,
		SlotID:    slotID,
		Type:      qrType,
		Timestamp: at.Format(time.RFC3339),
		FreeExit:  freeExit,
		Charges:   charges,
		Nonce:     uuid.NewString(),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("lỗi tạo payload QR: %w", err)
	}
	return string(data), nil
}
