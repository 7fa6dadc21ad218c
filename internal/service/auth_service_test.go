package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"
)

func newAuthFixture() (*fakeUserRepo, *AuthService) {
	users := newFakeUserRepo()
	svc := NewAuthService(users, "test-secret", 24*time.Hour, nil)
	return users, svc
}

func TestRegisterAndLogin(t *testing.T) {
	_, svc := newAuthFixture()

	user, err := svc.Register(context.Background(), domain.RegisterUserDTO{
		Name:      "Nguyen Van A",
		CarNumber: "51A-12345",
		Mobile:    "0901234567",
		Password:  "matkhau123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Password != "" {
		t.Error("phản hồi đăng ký không được chứa password hash")
	}
	if user.WalletBalance != 0 {
		t.Errorf("số dư khởi tạo = %.2f, muốn 0", user.WalletBalance)
	}

	resp, err := svc.Login(context.Background(), domain.LoginUserDTO{CarNumber: "51A-12345", Password: "matkhau123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("thiếu JWT trong phản hồi đăng nhập")
	}

	userID, isAdmin, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if userID != user.ID || isAdmin {
		t.Errorf("claims: userID=%d isAdmin=%t, muốn userID=%d isAdmin=false", userID, isAdmin, user.ID)
	}
}

func TestRegisterDuplicateCarNumber(t *testing.T) {
	_, svc := newAuthFixture()
	dto := domain.RegisterUserDTO{Name: "A", CarNumber: "51A-12345", Mobile: "0901234567", Password: "matkhau123"}

	if _, err := svc.Register(context.Background(), dto); err != nil {
		t.Fatalf("Register lần đầu: %v", err)
	}
	dto.Mobile = "0907654321"
	if _, err := svc.Register(context.Background(), dto); !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("biển số trùng: lỗi = %v, muốn ErrUserAlreadyExists", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, svc := newAuthFixture()
	if _, err := svc.Register(context.Background(), domain.RegisterUserDTO{
		Name: "A", CarNumber: "51A-12345", Mobile: "0901234567", Password: "matkhau123",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Login(context.Background(), domain.LoginUserDTO{CarNumber: "51A-12345", Password: "saimatkhau"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("sai mật khẩu: lỗi = %v, muốn ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(context.Background(), domain.LoginUserDTO{CarNumber: "99X-00000", Password: "matkhau123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("biển số lạ: lỗi = %v, muốn ErrInvalidCredentials", err)
	}
}

func TestValidateTokenRejectsGarbageAndWrongSecret(t *testing.T) {
	users, svc := newAuthFixture()

	if _, _, err := svc.ValidateToken("khong-phai-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("token rác: lỗi = %v, muốn ErrTokenInvalid", err)
	}

	other := NewAuthService(users, "secret-khac", 24*time.Hour, nil)
	if _, err := svc.Register(context.Background(), domain.RegisterUserDTO{
		Name: "A", CarNumber: "51A-12345", Mobile: "0901234567", Password: "matkhau123",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	resp, err := other.Login(context.Background(), domain.LoginUserDTO{CarNumber: "51A-12345", Password: "matkhau123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := svc.ValidateToken(resp.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("token ký bằng secret khác: lỗi = %v, muốn ErrTokenInvalid", err)
	}
}

func TestValidateTokenExpired(t *testing.T) {
	users := newFakeUserRepo()
	past := fixedClock(time.Now().UTC().Add(-48 * time.Hour))
	issuer := NewAuthService(users, "test-secret", 24*time.Hour, past)
	verifier := NewAuthService(users, "test-secret", 24*time.Hour, nil)

	if _, err := issuer.Register(context.Background(), domain.RegisterUserDTO{
		Name: "A", CarNumber: "51A-12345", Mobile: "0901234567", Password: "matkhau123",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	resp, err := issuer.Login(context.Background(), domain.LoginUserDTO{CarNumber: "51A-12345", Password: "matkhau123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := verifier.ValidateToken(resp.Token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("token phát hành 48 giờ trước với hạn 24 giờ: lỗi = %v, muốn ErrTokenInvalid", err)
	}
}
