package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"
)

func newWalletFixture(now time.Time) (*fakeUserRepo, *fakeWalletRepo, *WalletService) {
	users := newFakeUserRepo()
	wallet := &fakeWalletRepo{users: users}
	atomic := &fakeAtomic{repos: repository.TxRepositories{Wallet: wallet}}
	svc := NewWalletService(users, wallet, atomic, fixedClock(now))
	return users, wallet, svc
}

func TestAddFundsCreditsAndRecordsTransaction(t *testing.T) {
	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	users, wallet, svc := newWalletFixture(now)
	u, _ := users.Create(context.Background(), &domain.User{CarNumber: "51A-00001", Mobile: "0901", WalletBalance: 20})

	if err := svc.AddFunds(context.Background(), u.ID, 150.50); err != nil {
		t.Fatalf("AddFunds: %v", err)
	}

	got, _ := users.FindByID(context.Background(), u.ID)
	if got.WalletBalance != 170.50 {
		t.Errorf("số dư = %.2f, muốn 170.50", got.WalletBalance)
	}
	if len(wallet.txs) != 1 {
		t.Fatalf("số dòng sổ cái = %d, muốn 1", len(wallet.txs))
	}
	tx := wallet.txs[0]
	if tx.Type != domain.TransactionCredit || tx.Amount != 150.50 || !tx.Timestamp.Equal(now) {
		t.Errorf("dòng sổ cái sai: %+v", tx)
	}
}

func TestAddFundsRejectsNonPositiveAmount(t *testing.T) {
	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	users, wallet, svc := newWalletFixture(now)
	u, _ := users.Create(context.Background(), &domain.User{CarNumber: "51A-00001", Mobile: "0901"})

	for _, amount := range []float64{0, -10} {
		if err := svc.AddFunds(context.Background(), u.ID, amount); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("AddFunds(%.2f): lỗi = %v, muốn ErrInvalidAmount", amount, err)
		}
	}
	if len(wallet.txs) != 0 {
		t.Error("không được ghi sổ cái cho số tiền không hợp lệ")
	}
}

func TestConcurrentAddFundsConservesBalance(t *testing.T) {
	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	users, wallet, svc := newWalletFixture(now)
	u, _ := users.Create(context.Background(), &domain.User{CarNumber: "51A-00001", Mobile: "0901"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.AddFunds(context.Background(), u.ID, 10); err != nil {
				t.Errorf("AddFunds: %v", err)
			}
		}()
	}
	wg.Wait()

	// Số dư cuối = tổng các lần nạp, không mất cập nhật nào.
	got, _ := users.FindByID(context.Background(), u.ID)
	if got.WalletBalance != 100 {
		t.Errorf("số dư = %.2f, muốn 100.00", got.WalletBalance)
	}
	if len(wallet.txs) != 10 {
		t.Errorf("số dòng sổ cái = %d, muốn 10", len(wallet.txs))
	}
}

func TestGetWalletReturnsRecentTransactionsNewestFirst(t *testing.T) {
	now := time.Date(2025, 3, 15, 8, 0, 0, 0, time.UTC)
	users, _, svc := newWalletFixture(now)
	u, _ := users.Create(context.Background(), &domain.User{CarNumber: "51A-00001", Mobile: "0901"})

	for i := 1; i <= 12; i++ {
		if err := svc.AddFunds(context.Background(), u.ID, float64(i)); err != nil {
			t.Fatalf("AddFunds lần %d: %v", i, err)
		}
	}

	view, err := svc.GetWallet(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if view.Balance != 78 {
		t.Errorf("số dư = %.2f, muốn 78.00", view.Balance)
	}
	if len(view.Transactions) != 10 {
		t.Fatalf("số giao dịch trả về = %d, muốn 10 gần nhất", len(view.Transactions))
	}
	if view.Transactions[0].Amount != 12 {
		t.Errorf("giao dịch đầu danh sách = %.2f, muốn mới nhất (12)", view.Transactions[0].Amount)
	}
}
