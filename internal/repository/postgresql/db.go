package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Geetha20052006/ParkEase/internal/config"
	"github.com/Geetha20052006/ParkEase/internal/repository"

	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

func NewDB(cfg *config.Config) (*sql.DB, error) {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSslMode)

	// "pgx" nếu dùng pgx/stdlib, "postgres" nếu dùng lib/pq
	db, err := sql.Open(cfg.DBDriver, psqlInfo)
	if err != nil {
		return nil, fmt.Errorf("lỗi mở kết nối database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("lỗi ping database: %w", err)
	}
	return db, nil
}

// uniqueViolation giải mã lỗi vi phạm ràng buộc UNIQUE của cả hai driver
// (pgx trả *pgconn.PgError, lib/pq trả *pq.Error) và trả về tên constraint.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return pqErr.Constraint, true
	}
	return "", false
}

// DBTX trừu tượng hóa *sql.DB và *sql.Tx để cùng một repository chạy được
// ngoài lẫn trong transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type atomicRunner struct {
	db *sql.DB
}

func NewAtomic(db *sql.DB) repository.Atomic {
	return &atomicRunner{db: db}
}

func (a *atomicRunner) WithinTx(ctx context.Context, fn func(r repository.TxRepositories) error) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("lỗi mở transaction: %w", err)
	}

	repos := repository.TxRepositories{
		Slots:   &pgParkingSlotRepository{db: tx},
		QRCodes: &pgQRCodeRepository{db: tx},
		Bills:   &pgBillRepository{db: tx},
		Wallet:  &pgWalletRepository{db: tx},
	}

	if err := fn(repos); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback cũng lỗi: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("lỗi commit transaction: %w", err)
	}
	return nil
}
