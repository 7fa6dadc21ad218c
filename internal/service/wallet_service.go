package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"
)

var ErrInvalidAmount = errors.New("số tiền phải lớn hơn 0")

// WalletService là lớp duy nhất được phép thay đổi số dư ví; mọi thay đổi
// đi kèm một dòng sổ cái trong cùng transaction.
type WalletService struct {
	userRepo   repository.UserRepository
	walletRepo repository.WalletRepository
	atomic     repository.Atomic
	now        Clock
}

func NewWalletService(userRepo repository.UserRepository, walletRepo repository.WalletRepository, atomic repository.Atomic, now Clock) *WalletService {
	if now == nil {
		now = UTCClock
	}
	return &WalletService{userRepo: userRepo, walletRepo: walletRepo, atomic: atomic, now: now}
}

func (s *WalletService) AddFunds(ctx context.Context, userID int, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	err := s.atomic.WithinTx(ctx, func(r repository.TxRepositories) error {
		return r.Wallet.Credit(ctx, userID, amount, "Nạp tiền vào ví", s.now())
	})
	if err != nil {
		return fmt.Errorf("lỗi nạp tiền: %w", err)
	}
	return nil
}

func (s *WalletService) GetWallet(ctx context.Context, userID int) (*domain.WalletViewDTO, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lỗi tìm người dùng: %w", err)
	}
	txs, err := s.walletRepo.ListRecentByUser(ctx, userID, 10)
	if err != nil {
		return nil, fmt.Errorf("lỗi lấy lịch sử giao dịch: %w", err)
	}
	return &domain.WalletViewDTO{Balance: user.WalletBalance, Transactions: txs}, nil
}
