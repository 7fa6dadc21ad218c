package domain

import (
	"gopkg.in/guregu/null.v4"
)

type BillStatus string

const (
	BillActive BillStatus = "Active"
	BillUsed   BillStatus = "Used"
)

// Bill là hóa đơn mua sắm có mã vạch do bên ngoài phát hành. Bất biến:
// status = Used khi và chỉ khi used_by khác NULL; hóa đơn đã Used không bao
// giờ quay lại Active.
type Bill struct {
	ID         int        `json:"id"`
	Barcode    string     `json:"barcode"`
	BillNumber string     `json:"bill_number,omitempty"`
	Amount     float64    `json:"amount"`
	Status     BillStatus `json:"status"`
	UsedBy     null.Int   `json:"used_by"`
	UsedAt     null.Time  `json:"used_at"`
}

type BillScanDTO struct {
	Barcode string `json:"barcode" binding:"required"`
}

type BillVerifyResponseDTO struct {
	BillNumber string  `json:"bill_number,omitempty"`
	Amount     float64 `json:"amount"`
	FreeExit   bool    `json:"free_exit"`
}
