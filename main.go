package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Geetha20052006/ParkEase/internal/api"
	"github.com/Geetha20052006/ParkEase/internal/api/handler"
	"github.com/Geetha20052006/ParkEase/internal/api/middleware"
	"github.com/Geetha20052006/ParkEase/internal/config"
	"github.com/Geetha20052006/ParkEase/internal/qr"
	"github.com/Geetha20052006/ParkEase/internal/repository/postgresql"
	"github.com/Geetha20052006/ParkEase/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Không thể kết nối database: %v", err)
	}
	defer db.Close()
	log.Println("Đã kết nối database thành công!")

	// 3. Schema và dữ liệu khởi tạo
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgresql.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("Không thể khởi tạo schema: %v", err)
	}

	// 4. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	slotRepo := postgresql.NewPgParkingSlotRepository(db)
	qrRepo := postgresql.NewPgQRCodeRepository(db)
	billRepo := postgresql.NewPgBillRepository(db)
	walletRepo := postgresql.NewPgWalletRepository(db)
	atomic := postgresql.NewAtomic(db)

	if err := slotRepo.Seed(ctx, cfg.TotalSlots); err != nil {
		cancel()
		log.Fatalf("Không thể seed chỗ đỗ: %v", err)
	}
	if err := billRepo.Seed(ctx); err != nil {
		cancel()
		log.Fatalf("Không thể seed hóa đơn mẫu: %v", err)
	}
	cancel()
	log.Printf("Schema sẵn sàng, bãi có %d chỗ đỗ.", cfg.TotalSlots)

	// init websocket manager
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket Manager đã được khởi động.")

	// 5. Initialize Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours, nil)
	billingService := service.NewBillingService(billRepo, cfg.HourlyRate, cfg.FreeExitThreshold)
	walletService := service.NewWalletService(userRepo, walletRepo, atomic, nil)
	parkingService := service.NewParkingService(userRepo, slotRepo, qrRepo, billRepo, atomic,
		billingService, qr.NewPNGEncoder(), webSocketManager,
		cfg.QRCodeTTL, cfg.MinEntryBalance, cfg.FreeExitThreshold, nil)

	// 6. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// start background job thu hồi chỗ đỗ bị giữ bởi QR vào quá hạn
	go startReclaimJob(parkingService, cfg.ReclaimInterval)

	// 7. Setup HTTP Router
	router := api.SetupRouter(authService, parkingService, billingService, walletService, authMiddleware, webSocketManager)

	// 8. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}

func startReclaimJob(parkingService *service.ParkingService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		count, err := parkingService.ReclaimExpiredReservations(ctx)
		if err != nil {
			log.Printf("Lỗi thu hồi chỗ đỗ quá hạn: %v", err)
		} else if count > 0 {
			log.Printf("Đã thu hồi %d chỗ đỗ bị giữ bởi QR vào quá hạn", count)
		}
		cancel()
	}
}
