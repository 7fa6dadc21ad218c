package postgresql

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema tạo các bảng nếu chưa có. Triển khai thật có thể thay bằng
// công cụ migration; với SQLite-style bootstrap của hệ thống cũ thì thế này
// là đủ.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			car_number VARCHAR(20) UNIQUE NOT NULL,
			mobile VARCHAR(15) UNIQUE NOT NULL,
			password_hash VARCHAR(256) NOT NULL,
			wallet_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS parking_slots (
			id SERIAL PRIMARY KEY,
			slot_number INTEGER UNIQUE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'Available',
			occupied_by INTEGER REFERENCES users(id),
			occupied_at TIMESTAMPTZ,
			CHECK ((status = 'Occupied') = (occupied_by IS NOT NULL)),
			CHECK ((status = 'Occupied') = (occupied_at IS NOT NULL))
		)`,
		`CREATE TABLE IF NOT EXISTS qr_codes (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			slot_id INTEGER NOT NULL REFERENCES parking_slots(id),
			type VARCHAR(10) NOT NULL,
			data TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMPTZ NOT NULL,
			is_used BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		// Mỗi người dùng tối đa một phiên đỗ đang mở.
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_qr_codes_active_entry
			ON qr_codes (user_id) WHERE type = 'entry' AND is_used AND is_active`,
		`CREATE TABLE IF NOT EXISTS bills (
			id SERIAL PRIMARY KEY,
			barcode VARCHAR(50) UNIQUE NOT NULL,
			bill_number VARCHAR(50),
			amount DOUBLE PRECISION NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'Active',
			used_by INTEGER REFERENCES users(id),
			used_at TIMESTAMPTZ,
			CHECK ((status = 'Used') = (used_by IS NOT NULL))
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id SERIAL PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id),
			amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
			type VARCHAR(10) NOT NULL,
			description VARCHAR(255),
			timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("lỗi tạo schema: %w", err)
		}
	}
	return nil
}
