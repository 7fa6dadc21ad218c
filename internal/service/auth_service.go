package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/domain"
	"github.com/Geetha20052006/ParkEase/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("biển số xe hoặc mật khẩu không đúng")
var ErrUserAlreadyExists = errors.New("biển số xe hoặc số điện thoại đã được đăng ký")
var ErrTokenInvalid = errors.New("token không hợp lệ hoặc đã hết hạn")

type AuthService struct {
	userRepo           repository.UserRepository
	jwtSecret          string
	jwtExpirationHours time.Duration
	now                Clock
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpHours time.Duration, now Clock) *AuthService {
	if now == nil {
		now = UTCClock
	}
	return &AuthService{
		userRepo:           userRepo,
		jwtSecret:          jwtSecret,
		jwtExpirationHours: jwtExpHours,
		now:                now,
	}
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("lỗi hash mật khẩu: %w", err)
	}

	user := &domain.User{
		Name:          dto.Name,
		CarNumber:     dto.CarNumber,
		Mobile:        dto.Mobile,
		Password:      string(hashedPassword), // Lưu password đã hash
		WalletBalance: 0,
		IsAdmin:       false,
	}

	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("lỗi khi tạo người dùng: %w", err)
	}
	createdUser.Password = "" // Không trả về password hash
	return createdUser, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByCarNumber(ctx, dto.CarNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lỗi khi tìm người dùng: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":        strconv.Itoa(user.ID),
		"exp":        now.Add(s.jwtExpirationHours).Unix(),
		"iat":        now.Unix(),
		"car_number": user.CarNumber,
		"is_admin":   user.IsAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("lỗi tạo token: %w", err)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Không chặn đăng nhập chỉ vì không ghi được last_login.
		log.Printf("Lỗi cập nhật last_login cho người dùng %d: %v", user.ID, err)
	}

	return &domain.AuthResponseDTO{
		Token:     tokenString,
		UserID:    user.ID,
		Name:      user.Name,
		CarNumber: user.CarNumber,
		IsAdmin:   user.IsAdmin,
	}, nil
}

// ValidateToken dùng cho middleware. Trả về userID và cờ admin từ claims.
func (s *AuthService) ValidateToken(tokenString string) (int, bool, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("phương thức ký không mong muốn: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return 0, false, fmt.Errorf("%w: token có định dạng sai", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, false, fmt.Errorf("%w: token đã hết hạn", ErrTokenInvalid)
		}
		return 0, false, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return 0, false, ErrTokenInvalid
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false, ErrTokenInvalid
	}
	userID, err := strconv.Atoi(sub)
	if err != nil {
		return 0, false, ErrTokenInvalid
	}
	isAdmin, _ := claims["is_admin"].(bool)
	return userID, isAdmin, nil
}
