package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"
)

// Các fake trong file này mô phỏng repository trong bộ nhớ, đủ sát để test
// logic service mà không cần Postgres. Các thao tác có điều kiện (Allocate,
// MarkUsed, Debit, Consume) giữ nguyên hợp đồng "kiểm tra và ghi trong một
// bước" dưới một mutex, nên test chạy nhiều goroutine vẫn cho đúng ngữ
// nghĩa một-bên-thắng như câu UPDATE có điều kiện thật.

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*domain.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.CarNumber == user.CarNumber || u.Mobile == user.Mobile {
			return nil, repository.ErrDuplicateEntry
		}
	}
	u := *user
	u.ID = r.nextID
	r.nextID++
	r.users[u.ID] = &u
	copied := u
	return &copied, nil
}

func (r *fakeUserRepo) FindByCarNumber(_ context.Context, carNumber string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.CarNumber == carNumber {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, id int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.LastLogin = null.TimeFrom(at)
	return nil
}

type fakeSlotRepo struct {
	mu          sync.Mutex
	slots       map[int]*domain.ParkingSlot
	reclaimable []int // ID các chỗ sẽ được ReclaimExpired trả về
}

func newFakeSlotRepo(total int) *fakeSlotRepo {
	r := &fakeSlotRepo{slots: map[int]*domain.ParkingSlot{}}
	for i := 1; i <= total; i++ {
		r.slots[i] = &domain.ParkingSlot{ID: i, SlotNumber: i, Status: domain.SlotAvailable}
	}
	return r
}

func (r *fakeSlotRepo) Allocate(_ context.Context, userID int, at time.Time) (*domain.ParkingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int, 0, len(r.slots))
	for id := range r.slots {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s := r.slots[id]
		if s.Status == domain.SlotAvailable {
			s.Status = domain.SlotOccupied
			s.OccupiedBy = null.IntFrom(int64(userID))
			s.OccupiedAt = null.TimeFrom(at)
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrNoSlotAvailable
}

func (r *fakeSlotRepo) Release(_ context.Context, slotID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[slotID]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = domain.SlotAvailable
	s.OccupiedBy = null.Int{}
	s.OccupiedAt = null.Time{}
	return nil
}

func (r *fakeSlotRepo) FindByID(_ context.Context, id int) (*domain.ParkingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSlotRepo) FindAllWithOccupants(_ context.Context) ([]domain.AdminSlotView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := make([]domain.AdminSlotView, 0, len(r.slots))
	ids := make([]int, 0, len(r.slots))
	for id := range r.slots {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		s := r.slots[id]
		views = append(views, domain.AdminSlotView{ID: s.ID, SlotNumber: s.SlotNumber, Status: s.Status, OccupiedAt: s.OccupiedAt})
	}
	return views, nil
}

func (r *fakeSlotRepo) ReclaimExpired(_ context.Context, _ time.Time) ([]domain.ParkingSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var freed []domain.ParkingSlot
	for _, id := range r.reclaimable {
		s, ok := r.slots[id]
		if !ok || s.Status != domain.SlotOccupied {
			continue
		}
		s.Status = domain.SlotAvailable
		s.OccupiedBy = null.Int{}
		s.OccupiedAt = null.Time{}
		freed = append(freed, *s)
	}
	r.reclaimable = nil
	return freed, nil
}

func (r *fakeSlotRepo) Seed(_ context.Context, _ int) error { return nil }

// occupiedBy liệt kê occupant của các chỗ Occupied, dùng để khẳng định
// không có chỗ nào bị cấp trùng.
func (r *fakeSlotRepo) occupiedBy() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var occupants []int64
	for _, s := range r.slots {
		if s.Status == domain.SlotOccupied && s.OccupiedBy.Valid {
			occupants = append(occupants, s.OccupiedBy.Int64)
		}
	}
	return occupants
}

type fakeQRRepo struct {
	mu     sync.Mutex
	codes  map[int]*domain.QRCode
	nextID int
}

func newFakeQRRepo() *fakeQRRepo {
	return &fakeQRRepo{codes: map[int]*domain.QRCode{}, nextID: 1}
}

func (r *fakeQRRepo) Create(_ context.Context, qr *domain.QRCode) (*domain.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *qr
	copied.ID = r.nextID
	r.nextID++
	r.codes[copied.ID] = &copied
	qr.ID = copied.ID
	out := copied
	return &out, nil
}

func (r *fakeQRRepo) FindByID(_ context.Context, id int) (*domain.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.codes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (r *fakeQRRepo) FindActiveEntryByUser(_ context.Context, userID int) (*domain.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.QRCode
	for _, q := range r.codes {
		if q.UserID == userID && q.Type == domain.QRTypeEntry && q.IsUsed && q.IsActive {
			if latest == nil || q.CreatedAt.After(latest.CreatedAt) {
				latest = q
			}
		}
	}
	if latest == nil {
		return nil, repository.ErrNoActiveSession
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeQRRepo) FindPendingEntryByUser(_ context.Context, userID int, now time.Time) (*domain.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.QRCode
	for _, q := range r.codes {
		if q.UserID == userID && q.Type == domain.QRTypeEntry && !q.IsUsed && !now.After(q.ExpiresAt) {
			if latest == nil || q.CreatedAt.After(latest.CreatedAt) {
				latest = q
			}
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeQRRepo) MarkUsed(_ context.Context, id int, activate bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.codes[id]
	if !ok {
		return repository.ErrNotFound
	}
	if q.IsUsed {
		return repository.ErrQRAlreadyUsed
	}
	q.IsUsed = true
	if activate {
		q.IsActive = true
	}
	return nil
}

func (r *fakeQRRepo) DeactivateEntry(_ context.Context, userID, slotID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.codes {
		if q.UserID == userID && q.SlotID == slotID && q.Type == domain.QRTypeEntry && q.IsUsed && q.IsActive {
			q.IsActive = false
		}
	}
	return nil
}

type fakeBillRepo struct {
	mu    sync.Mutex
	bills map[string]*domain.Bill
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{bills: map[string]*domain.Bill{}}
}

func (r *fakeBillRepo) add(barcode, billNumber string, amount float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bills[barcode] = &domain.Bill{ID: len(r.bills) + 1, Barcode: barcode, BillNumber: billNumber, Amount: amount, Status: domain.BillActive}
}

func (r *fakeBillRepo) FindByBarcode(_ context.Context, barcode string) (*domain.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[barcode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeBillRepo) Consume(_ context.Context, barcode string, userID int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[barcode]
	if !ok {
		return repository.ErrNotFound
	}
	if b.Status != domain.BillActive {
		return repository.ErrBillAlreadyUsed
	}
	b.Status = domain.BillUsed
	b.UsedBy = null.IntFrom(int64(userID))
	b.UsedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeBillRepo) HasQualifyingConsumed(_ context.Context, userID int, since time.Time, threshold float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bills {
		if b.Status != domain.BillUsed || !b.UsedBy.Valid || int(b.UsedBy.Int64) != userID {
			continue
		}
		if b.Amount >= threshold && b.UsedAt.Valid && !b.UsedAt.Time.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeBillRepo) Seed(_ context.Context) error { return nil }

type fakeWalletRepo struct {
	users *fakeUserRepo
	txs   []domain.Transaction
}

func (r *fakeWalletRepo) Credit(_ context.Context, userID int, amount float64, description string, at time.Time) error {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	u, ok := r.users.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.WalletBalance += amount
	r.txs = append(r.txs, domain.Transaction{ID: len(r.txs) + 1, UserID: userID, Amount: amount, Type: domain.TransactionCredit, Description: description, Timestamp: at})
	return nil
}

func (r *fakeWalletRepo) Debit(_ context.Context, userID int, amount float64, description string, at time.Time) error {
	// Kiểm tra số dư và trừ trong cùng một lần giữ khóa, như câu UPDATE
	// WHERE wallet_balance >= amount thật.
	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	u, ok := r.users.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.WalletBalance < amount {
		return repository.ErrInsufficientBalance
	}
	u.WalletBalance -= amount
	r.txs = append(r.txs, domain.Transaction{ID: len(r.txs) + 1, UserID: userID, Amount: amount, Type: domain.TransactionDebit, Description: description, Timestamp: at})
	return nil
}

func (r *fakeWalletRepo) ListRecentByUser(_ context.Context, userID int, limit int) ([]domain.Transaction, error) {
	r.users.mu.Lock()
	defer r.users.mu.Unlock()
	var out []domain.Transaction
	for i := len(r.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.txs[i].UserID == userID {
			out = append(out, r.txs[i])
		}
	}
	return out, nil
}

// fakeAtomic chạy fn ngay trên cùng bộ fake, không có rollback thật. Các
// test về thất bại giữa transaction chỉ dựa vào bước đầu tiên thất bại.
type fakeAtomic struct {
	repos repository.TxRepositories
}

func (a *fakeAtomic) WithinTx(_ context.Context, fn func(r repository.TxRepositories) error) error {
	return fn(a.repos)
}

type fakeEncoder struct{}

func (fakeEncoder) Encode(_ []byte) (string, error) { return "anh-qr-base64", nil }

type fakeNotifier struct {
	mu     sync.Mutex
	events []domain.SlotStatusNotification
}

func (n *fakeNotifier) NotifySlotStatus(e domain.SlotStatusNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *fakeNotifier) snapshot() []domain.SlotStatusNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.SlotStatusNotification, len(n.events))
	copy(out, n.events)
	return out
}

func (n *fakeNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

type parkingFixture struct {
	users    *fakeUserRepo
	slots    *fakeSlotRepo
	qrs      *fakeQRRepo
	bills    *fakeBillRepo
	wallet   *fakeWalletRepo
	notifier *fakeNotifier
	svc      *ParkingService
}

func newParkingFixture(now time.Time, totalSlots int) *parkingFixture {
	users := newFakeUserRepo()
	slots := newFakeSlotRepo(totalSlots)
	qrs := newFakeQRRepo()
	bills := newFakeBillRepo()
	wallet := &fakeWalletRepo{users: users}
	notifier := &fakeNotifier{}
	atomic := &fakeAtomic{repos: repository.TxRepositories{Slots: slots, QRCodes: qrs, Bills: bills, Wallet: wallet}}
	billing := NewBillingService(bills, 50, 500)
	svc := NewParkingService(users, slots, qrs, bills, atomic, billing, fakeEncoder{}, notifier,
		10*time.Minute, 100, 500, fixedClock(now))
	return &parkingFixture{users: users, slots: slots, qrs: qrs, bills: bills, wallet: wallet, notifier: notifier, svc: svc}
}

func (f *parkingFixture) addUser(balance float64) int {
	f.users.mu.Lock()
	n := f.users.nextID
	f.users.mu.Unlock()
	u, _ := f.users.Create(context.Background(), &domain.User{
		Name:          fmt.Sprintf("Nguyen Van %d", n),
		CarNumber:     fmt.Sprintf("51A-%05d", n),
		Mobile:        fmt.Sprintf("09012345%02d", n),
		Password:      "hash",
		WalletBalance: balance,
	})
	return u.ID
}
