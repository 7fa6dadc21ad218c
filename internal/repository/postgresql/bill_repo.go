package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"
)

type pgBillRepository struct {
	db DBTX
}

func NewPgBillRepository(db DBTX) repository.BillRepository {
	return &pgBillRepository{db: db}
}

func (r *pgBillRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.Bill, error) {
	bill := &domain.Bill{}
	query := `SELECT id, barcode, COALESCE(bill_number, ''), amount, status, used_by, used_at
	           FROM bills WHERE barcode = $1`
	err := r.db.QueryRowContext(ctx, query, barcode).Scan(
		&bill.ID, &bill.Barcode, &bill.BillNumber, &bill.Amount,
		&bill.Status, &bill.UsedBy, &bill.UsedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("BillRepository.FindByBarcode: %w", err)
	}
	if bill.UsedAt.Valid {
		bill.UsedAt.Time = bill.UsedAt.Time.In(time.UTC)
	}
	return bill, nil
}

func (r *pgBillRepository) Consume(ctx context.Context, barcode string, userID int, at time.Time) error {
	// Chuyển Active -> Used chỉ khi còn Active; hóa đơn đã tiêu rồi thì
	// không khớp dòng nào. Chiều ngược lại không bao giờ xảy ra.
	query := `UPDATE bills
	           SET status = $1, used_by = $2, used_at = $3
	           WHERE barcode = $4 AND status = $5`
	result, err := r.db.ExecContext(ctx, query, domain.BillUsed, userID, at, barcode, domain.BillActive)
	if err != nil {
		return fmt.Errorf("BillRepository.Consume: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("BillRepository.Consume (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		// Phân biệt "không tồn tại" với "đã dùng" để handler trả lỗi đúng.
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bills WHERE barcode = $1)`, barcode).Scan(&exists); err != nil {
			return fmt.Errorf("BillRepository.Consume (checking existence): %w", err)
		}
		if !exists {
			return repository.ErrNotFound
		}
		return repository.ErrBillAlreadyUsed
	}
	return nil
}

func (r *pgBillRepository) HasQualifyingConsumed(ctx context.Context, userID int, since time.Time, threshold float64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(
	               SELECT 1 FROM bills
	               WHERE used_by = $1 AND status = $2
	                 AND used_at >= $3 AND amount >= $4
	           )`
	err := r.db.QueryRowContext(ctx, query, userID, domain.BillUsed, since, threshold).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("BillRepository.HasQualifyingConsumed: %w", err)
	}
	return exists, nil
}

func (r *pgBillRepository) Seed(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bills`).Scan(&count); err != nil {
		return fmt.Errorf("BillRepository.Seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	// Bộ hóa đơn mẫu của hệ thống cũ, giữ nguyên mã vạch để test tay.
	sampleBills := []struct {
		barcode    string
		billNumber string
		amount     float64
	}{
		{"123456789012", "BILL-001", 500},
		{"987654321", "BILL-002", 1000},
		{"456789123", "BILL-003", 750},
		{"111222333", "BILL-004", 1500},
		{"999888777", "BILL-005", 2000},
		{"123123123", "BILL-006", 300},
		{"456456456", "BILL-007", 450},
		{"789789789", "BILL-008", 1200},
		{"321321321", "BILL-009", 850},
		{"654654654", "BILL-010", 950},
	}

	for _, b := range sampleBills {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO bills (barcode, bill_number, amount, status) VALUES ($1, $2, $3, $4)`,
			b.barcode, b.billNumber, b.amount, domain.BillActive,
		)
		if err != nil {
			if _, ok := uniqueViolation(err); ok {
				continue
			}
			return fmt.Errorf("BillRepository.Seed (barcode %s): %w", b.barcode, err)
		}
	}
	return nil
}
