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

type pgParkingSlotRepository struct {
	db DBTX
}

func NewPgParkingSlotRepository(db DBTX) repository.ParkingSlotRepository {
	return &pgParkingSlotRepository{db: db}
}

func (r *pgParkingSlotRepository) Allocate(ctx context.Context, userID int, at time.Time) (*domain.ParkingSlot, error) {
	// Chọn-và-đánh-dấu trong một câu lệnh duy nhất. FOR UPDATE SKIP LOCKED
	// để hai yêu cầu đồng thời không tranh cùng một dòng: mỗi yêu cầu khóa
	// được một chỗ khác nhau hoặc không khóa được gì.
	query := `UPDATE parking_slots
	           SET status = $1, occupied_by = $2, occupied_at = $3
	           WHERE id = (
	               SELECT id FROM parking_slots
	               WHERE status = $4
	               ORDER BY slot_number ASC
	               LIMIT 1
	               FOR UPDATE SKIP LOCKED
	           )
	           RETURNING id, slot_number, status, occupied_by, occupied_at`

	slot := &domain.ParkingSlot{}
	err := r.db.QueryRowContext(ctx, query,
		domain.SlotOccupied, userID, at, domain.SlotAvailable,
	).Scan(&slot.ID, &slot.SlotNumber, &slot.Status, &slot.OccupiedBy, &slot.OccupiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoSlotAvailable
		}
		return nil, fmt.Errorf("ParkingSlotRepository.Allocate: %w", err)
	}
	if slot.OccupiedAt.Valid {
		slot.OccupiedAt.Time = slot.OccupiedAt.Time.In(time.UTC)
	}
	return slot, nil
}

func (r *pgParkingSlotRepository) Release(ctx context.Context, slotID int) error {
	// Cập nhật vô điều kiện về Available: chỗ đã trống thì câu lệnh vẫn
	// khớp dòng, nên xác nhận ra bị retry không thành lỗi.
	query := `UPDATE parking_slots
	           SET status = $1, occupied_by = NULL, occupied_at = NULL
	           WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, domain.SlotAvailable, slotID)
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Release: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSlotRepository.Release (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSlotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	slot := &domain.ParkingSlot{}
	query := `SELECT id, slot_number, status, occupied_by, occupied_at
	           FROM parking_slots WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&slot.ID, &slot.SlotNumber, &slot.Status, &slot.OccupiedBy, &slot.OccupiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSlotRepository.FindByID: %w", err)
	}
	if slot.OccupiedAt.Valid {
		slot.OccupiedAt.Time = slot.OccupiedAt.Time.In(time.UTC)
	}
	return slot, nil
}

func (r *pgParkingSlotRepository) FindAllWithOccupants(ctx context.Context) ([]domain.AdminSlotView, error) {
	query := `SELECT s.id, s.slot_number, s.status, s.occupied_at,
	                 COALESCE(u.name, ''), COALESCE(u.car_number, '')
	           FROM parking_slots s
	           LEFT JOIN users u ON u.id = s.occupied_by
	           ORDER BY s.slot_number`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.FindAllWithOccupants: %w", err)
	}
	defer rows.Close()

	var views []domain.AdminSlotView
	for rows.Next() {
		var v domain.AdminSlotView
		if err := rows.Scan(&v.ID, &v.SlotNumber, &v.Status, &v.OccupiedAt, &v.UserName, &v.CarNumber); err != nil {
			return nil, fmt.Errorf("ParkingSlotRepository.FindAllWithOccupants (scanning row): %w", err)
		}
		if v.OccupiedAt.Valid {
			v.OccupiedAt.Time = v.OccupiedAt.Time.In(time.UTC)
		}
		views = append(views, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.FindAllWithOccupants (rows error): %w", err)
	}
	return views, nil
}

func (r *pgParkingSlotRepository) ReclaimExpired(ctx context.Context, now time.Time) ([]domain.ParkingSlot, error) {
	// Một chỗ Occupied được thu hồi khi không còn phiên đỗ đang mở (QR vào
	// đã xác nhận, đang hoạt động) và cũng không còn QR vào nào chưa hết
	// hạn đang chờ xác nhận. Các chỗ của phiên đã xác nhận không bị đụng
	// tới dù QR đã quá expires_at.
	query := `UPDATE parking_slots s
	           SET status = $1, occupied_by = NULL, occupied_at = NULL
	           WHERE s.status = $2
	             AND NOT EXISTS (
	                 SELECT 1 FROM qr_codes q
	                 WHERE q.slot_id = s.id AND q.type = $3
	                   AND q.is_used = TRUE AND q.is_active = TRUE
	             )
	             AND NOT EXISTS (
	                 SELECT 1 FROM qr_codes q
	                 WHERE q.slot_id = s.id AND q.type = $3
	                   AND q.is_used = FALSE AND q.expires_at > $4
	             )
	           RETURNING s.id, s.slot_number, s.status, s.occupied_by, s.occupied_at`

	rows, err := r.db.QueryContext(ctx, query, domain.SlotAvailable, domain.SlotOccupied, domain.QRTypeEntry, now)
	if err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.ReclaimExpired: %w", err)
	}
	defer rows.Close()

	var slots []domain.ParkingSlot
	for rows.Next() {
		var slot domain.ParkingSlot
		if err := rows.Scan(&slot.ID, &slot.SlotNumber, &slot.Status, &slot.OccupiedBy, &slot.OccupiedAt); err != nil {
			return nil, fmt.Errorf("ParkingSlotRepository.ReclaimExpired (scanning row): %w", err)
		}
		slots = append(slots, slot)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSlotRepository.ReclaimExpired (rows error): %w", err)
	}
	return slots, nil
}

func (r *pgParkingSlotRepository) Seed(ctx context.Context, total int) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parking_slots`).Scan(&count); err != nil {
		return fmt.Errorf("ParkingSlotRepository.Seed: %w", err)
	}
	if count > 0 {
		return nil
	}
	for i := 1; i <= total; i++ {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO parking_slots (slot_number, status) VALUES ($1, $2)`,
			i, domain.SlotAvailable,
		)
		if err != nil {
			return fmt.Errorf("ParkingSlotRepository.Seed (slot %d): %w", i, err)
		}
	}
	return nil
}
