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

type pgUserRepository struct {
	db DBTX
}

func NewPgUserRepository(db DBTX) repository.UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (name, car_number, mobile, password_hash, wallet_balance, is_admin, created_at)
	           VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
	           RETURNING id, created_at`
	// user.Password ở đây là password_hash
	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.CarNumber, user.Mobile, user.Password, user.WalletBalance, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			switch constraint {
			case "users_car_number_key":
				return nil, fmt.Errorf("%w: biển số xe '%s' đã được đăng ký", repository.ErrDuplicateEntry, user.CarNumber)
			case "users_mobile_key":
				return nil, fmt.Errorf("%w: số điện thoại '%s' đã được đăng ký", repository.ErrDuplicateEntry, user.Mobile)
			}
			return nil, repository.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("UserRepository.Create: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindByCarNumber(ctx context.Context, carNumber string) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, name, car_number, mobile, password_hash, wallet_balance, is_admin, created_at, last_login
	           FROM users WHERE car_number = $1`
	err := r.db.QueryRowContext(ctx, query, carNumber).Scan(
		&user.ID, &user.Name, &user.CarNumber, &user.Mobile, &user.Password,
		&user.WalletBalance, &user.IsAdmin, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.FindByCarNumber: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id int) (*domain.User, error) {
	user := &domain.User{}
	query := `SELECT id, name, car_number, mobile, password_hash, wallet_balance, is_admin, created_at, last_login
	           FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.CarNumber, &user.Mobile, &user.Password,
		&user.WalletBalance, &user.IsAdmin, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("UserRepository.FindByID: %w", err)
	}
	user.CreatedAt = user.CreatedAt.In(time.UTC)
	return user, nil
}

func (r *pgUserRepository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id); err != nil {
		return fmt.Errorf("UserRepository.UpdateLastLogin: %w", err)
	}
	return nil
}
