package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"
)

type pgWalletRepository struct {
	db DBTX
}

func NewPgWalletRepository(db DBTX) repository.WalletRepository {
	return &pgWalletRepository{db: db}
}

func (r *pgWalletRepository) Credit(ctx context.Context, userID int, amount float64, description string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET wallet_balance = wallet_balance + $1 WHERE id = $2`,
		amount, userID,
	)
	if err != nil {
		return fmt.Errorf("WalletRepository.Credit: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("WalletRepository.Credit (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount, type, description, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		userID, amount, domain.TransactionCredit, description, at,
	)
	if err != nil {
		return fmt.Errorf("WalletRepository.Credit (ghi sổ cái): %w", err)
	}
	return nil
}

func (r *pgWalletRepository) Debit(ctx context.Context, userID int, amount float64, description string, at time.Time) error {
	// Điều kiện wallet_balance >= amount nằm trong câu UPDATE: không có
	// khoảng hở read-modify-write, hai debit đồng thời không bao giờ đẩy
	// số dư xuống âm.
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET wallet_balance = wallet_balance - $1
		  WHERE id = $2 AND wallet_balance >= $1`,
		amount, userID,
	)
	if err != nil {
		return fmt.Errorf("WalletRepository.Debit: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("WalletRepository.Debit (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrInsufficientBalance
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, amount, type, description, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		userID, amount, domain.TransactionDebit, description, at,
	)
	if err != nil {
		return fmt.Errorf("WalletRepository.Debit (ghi sổ cái): %w", err)
	}
	return nil
}

func (r *pgWalletRepository) ListRecentByUser(ctx context.Context, userID int, limit int) ([]domain.Transaction, error) {
	query := `SELECT id, user_id, amount, type, COALESCE(description, ''), timestamp
	           FROM transactions
	           WHERE user_id = $1
	           ORDER BY timestamp DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("WalletRepository.ListRecentByUser: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Amount, &t.Type, &t.Description, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("WalletRepository.ListRecentByUser (scanning row): %w", err)
		}
		t.Timestamp = t.Timestamp.In(time.UTC)
		txs = append(txs, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("WalletRepository.ListRecentByUser (rows error): %w", err)
	}
	return txs, nil
}
