package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type User struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	CarNumber     string    `json:"car_number"`
	Mobile        string    `json:"mobile"`
	Password      string    `json:"-"` // Không bao giờ trả về password hash trong JSON
	WalletBalance float64   `json:"wallet_balance"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
	LastLogin     null.Time `json:"last_login"`
}

type RegisterUserDTO struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	CarNumber string `json:"car_number" binding:"required,min=3,max=20"`
	Mobile    string `json:"mobile" binding:"required,min=8,max=15"`
	Password  string `json:"password" binding:"required,min=6,max=100"`
}

type LoginUserDTO struct {
	CarNumber string `json:"car_number" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type AuthResponseDTO struct {
	Token     string `json:"token"`
	UserID    int    `json:"user_id"`
	Name      string `json:"name"`
	CarNumber string `json:"car_number"`
	IsAdmin   bool   `json:"is_admin"`
}
