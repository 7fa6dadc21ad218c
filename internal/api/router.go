package api

import (
	"github.com/Geetha20052006/ParkEase/internal/api/handler"
	"github.com/Geetha20052006/ParkEase/internal/api/middleware"
	"github.com/Geetha20052006/ParkEase/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(as *service.AuthService, ps *service.ParkingService, bs *service.BillingService,
	ws *service.WalletService, authMw *middleware.AuthMiddleware, wsManager *handler.WebSocketManager) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// WebSocket endpoint (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		parkingH := handler.NewParkingHandler(ps)
		parkingRoutes := v1.Group("/parking")
		{
			parkingRoutes.POST("/entry/request", parkingH.RequestEntry)
			parkingRoutes.POST("/entry/confirm/:qr_id", parkingH.ConfirmEntry)
			parkingRoutes.GET("/status", parkingH.ParkingStatus)
			parkingRoutes.POST("/exit/request", parkingH.RequestExit)
			parkingRoutes.POST("/exit/confirm/:qr_id", parkingH.ConfirmExit)
		}

		billH := handler.NewBillHandler(bs, ps)
		billRoutes := v1.Group("/bills")
		{
			billRoutes.POST("/verify", billH.Verify)
			billRoutes.POST("/scan", billH.Scan)
		}

		walletH := handler.NewWalletHandler(ws)
		walletRoutes := v1.Group("/wallet")
		{
			walletRoutes.GET("", walletH.GetWallet)
			walletRoutes.POST("/add-funds", walletH.AddFunds)
		}

		adminH := handler.NewAdminHandler(ps)
		adminRoutes := v1.Group("/admin")
		adminRoutes.Use(authMw.RequireAdmin())
		{
			adminRoutes.GET("/slots", adminH.GetSlots)
		}
	}
	return r
}
