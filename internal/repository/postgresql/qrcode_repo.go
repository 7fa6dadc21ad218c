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

type pgQRCodeRepository struct {
	db DBTX
}

func NewPgQRCodeRepository(db DBTX) repository.QRCodeRepository {
	return &pgQRCodeRepository{db: db}
}

func (r *pgQRCodeRepository) Create(ctx context.Context, qr *domain.QRCode) (*domain.QRCode, error) {
	query := `INSERT INTO qr_codes (user_id, slot_id, type, data, created_at, expires_at, is_used, is_active)
	           VALUES ($1, $2, $3, $4, $5, $6, FALSE, FALSE)
	           RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		qr.UserID, qr.SlotID, qr.Type, qr.Data, qr.CreatedAt, qr.ExpiresAt,
	).Scan(&qr.ID)
	if err != nil {
		return nil, fmt.Errorf("QRCodeRepository.Create: %w", err)
	}
	return qr, nil
}

func (r *pgQRCodeRepository) FindByID(ctx context.Context, id int) (*domain.QRCode, error) {
	qr := &domain.QRCode{}
	query := `SELECT id, user_id, slot_id, type, data, created_at, expires_at, is_used, is_active
	           FROM qr_codes WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&qr.ID, &qr.UserID, &qr.SlotID, &qr.Type, &qr.Data,
		&qr.CreatedAt, &qr.ExpiresAt, &qr.IsUsed, &qr.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("QRCodeRepository.FindByID: %w", err)
	}
	qr.CreatedAt = qr.CreatedAt.In(time.UTC)
	qr.ExpiresAt = qr.ExpiresAt.In(time.UTC)
	return qr, nil
}

func (r *pgQRCodeRepository) FindActiveEntryByUser(ctx context.Context, userID int) (*domain.QRCode, error) {
	qr := &domain.QRCode{}
	query := `SELECT id, user_id, slot_id, type, data, created_at, expires_at, is_used, is_active
	           FROM qr_codes
	           WHERE user_id = $1 AND type = $2 AND is_used = TRUE AND is_active = TRUE
	           ORDER BY created_at DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, userID, domain.QRTypeEntry).Scan(
		&qr.ID, &qr.UserID, &qr.SlotID, &qr.Type, &qr.Data,
		&qr.CreatedAt, &qr.ExpiresAt, &qr.IsUsed, &qr.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, fmt.Errorf("QRCodeRepository.FindActiveEntryByUser: %w", err)
	}
	qr.CreatedAt = qr.CreatedAt.In(time.UTC)
	qr.ExpiresAt = qr.ExpiresAt.In(time.UTC)
	return qr, nil
}

func (r *pgQRCodeRepository) FindPendingEntryByUser(ctx context.Context, userID int, now time.Time) (*domain.QRCode, error) {
	qr := &domain.QRCode{}
	query := `SELECT id, user_id, slot_id, type, data, created_at, expires_at, is_used, is_active
	           FROM qr_codes
	           WHERE user_id = $1 AND type = $2 AND is_used = FALSE AND expires_at >= $3
	           ORDER BY created_at DESC LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, userID, domain.QRTypeEntry, now).Scan(
		&qr.ID, &qr.UserID, &qr.SlotID, &qr.Type, &qr.Data,
		&qr.CreatedAt, &qr.ExpiresAt, &qr.IsUsed, &qr.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("QRCodeRepository.FindPendingEntryByUser: %w", err)
	}
	qr.CreatedAt = qr.CreatedAt.In(time.UTC)
	qr.ExpiresAt = qr.ExpiresAt.In(time.UTC)
	return qr, nil
}

func (r *pgQRCodeRepository) MarkUsed(ctx context.Context, id int, activate bool) error {
	// Điều kiện is_used = FALSE nằm ngay trong câu UPDATE: hai xác nhận
	// đồng thời trên cùng mã thì chỉ một bên khớp dòng.
	query := `UPDATE qr_codes
	           SET is_used = TRUE, is_active = $1
	           WHERE id = $2 AND is_used = FALSE`
	result, err := r.db.ExecContext(ctx, query, activate, id)
	if err != nil {
		return fmt.Errorf("QRCodeRepository.MarkUsed: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("QRCodeRepository.MarkUsed (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrQRAlreadyUsed
	}
	return nil
}

func (r *pgQRCodeRepository) DeactivateEntry(ctx context.Context, userID, slotID int) error {
	query := `UPDATE qr_codes
	           SET is_active = FALSE
	           WHERE user_id = $1 AND slot_id = $2 AND type = $3
	             AND is_used = TRUE AND is_active = TRUE`
	if _, err := r.db.ExecContext(ctx, query, userID, slotID, domain.QRTypeEntry); err != nil {
		return fmt.Errorf("QRCodeRepository.DeactivateEntry: %w", err)
	}
	return nil
}
