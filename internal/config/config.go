package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBDriver   string // "pgx" (mặc định) hoặc "postgres" (lib/pq)
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret          string        // Secret key cho JWT
	JWTExpirationHours time.Duration // Thời gian hết hạn của JWT

	// Các hằng số chính sách của bãi đỗ: QR hết hạn sau 10 phút, số dư
	// tối thiểu 100 để vào bãi, phí 50/giờ, hóa đơn từ 500 trở lên được
	// miễn phí ra.
	TotalSlots        int
	QRCodeTTL         time.Duration
	MinEntryBalance   float64
	HourlyRate        float64
	FreeExitThreshold float64

	ReclaimInterval time.Duration // Chu kỳ quét thu hồi chỗ đỗ bị giữ quá hạn
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))

	totalSlots, _ := strconv.Atoi(getEnv("TOTAL_SLOTS", "50"))
	qrTTLMinutes, _ := strconv.Atoi(getEnv("QR_CODE_TTL_MINUTES", "10"))
	minEntryBalance, _ := strconv.ParseFloat(getEnv("MIN_ENTRY_BALANCE", "100"), 64)
	hourlyRate, _ := strconv.ParseFloat(getEnv("HOURLY_RATE", "50"), 64)
	freeExitThreshold, _ := strconv.ParseFloat(getEnv("FREE_EXIT_THRESHOLD", "500"), 64)
	reclaimMinutes, _ := strconv.Atoi(getEnv("RECLAIM_INTERVAL_MINUTES", "1"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBDriver:   getEnv("DB_DRIVER", "pgx"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parkease"),
		DBPassword: getEnv("DB_PASSWORD", "parkease"),
		DBName:     getEnv("DB_NAME", "parkease_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:          getEnv("JWT_SECRET", "parkease-dev-secret-!@#$"), // << THAY BẰNG SECRET KEY MẠNH HƠN
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		TotalSlots:        totalSlots,
		QRCodeTTL:         time.Duration(qrTTLMinutes) * time.Minute,
		MinEntryBalance:   minEntryBalance,
		HourlyRate:        hourlyRate,
		FreeExitThreshold: freeExitThreshold,

		ReclaimInterval: time.Duration(reclaimMinutes) * time.Minute,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định: '%s'", key, fallback)
	return fallback
}
