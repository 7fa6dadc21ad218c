package domain

import "time"

type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction là một dòng trong sổ cái ví, chỉ ghi thêm không sửa. Số dư ví
// của người dùng là tổng credit trừ tổng debit; trường wallet_balance trên
// users được cập nhật trong cùng transaction với mỗi dòng ghi vào đây.
type Transaction struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	Amount      float64         `json:"amount"` // Luôn dương; chiều nằm ở Type
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Timestamp   time.Time       `json:"timestamp"`
}

type AddFundsDTO struct {
	// Không ràng buộc binding: service là nơi quyết định số tiền hợp lệ,
	// để amount = 0 cũng nhận được lỗi "số tiền phải lớn hơn 0" thay vì
	// thông báo chung chung của validator.
	Amount float64 `json:"amount"`
}

type WalletViewDTO struct {
	Balance      float64       `json:"balance"`
	Transactions []Transaction `json:"transactions"`
}
