package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"vparking/database"
	"vparking/handlers"
	"vparking/models"
	"vparking/routes"
	"vparking/services"
	"vparking/utils"
)

func main() {
	// 載入 .env 檔案
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using default environment variables: %v", err)
	}

	// 初始化 JWTSecret
	utils.InitJWTSecret()

	// 初始化資料庫
	db := database.InitDB()

	// 執行資料庫遷移
	if err := db.AutoMigrate(
		&models.User{},
		&models.ParkingLot{},
		&models.ParkingSpot{},
		&models.Reservation{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	// 組裝服務
	userService := services.NewUserService(db)
	lotService := services.NewLotService(db)
	allocator := services.NewSpotAllocator(db)
	ledger := services.NewReservationLedger(db)
	bookingService := services.NewBookingService(db, allocator, ledger)
	reportService := services.NewReportService(db)

	// 確保預設管理員存在
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	if err := userService.EnsureAdmin(adminPassword); err != nil {
		log.Fatalf("Failed to ensure default admin: %v", err)
	}

	// 設置 Gin 模式
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "" {
		ginMode = gin.ReleaseMode
	}
	gin.SetMode(ginMode)
	log.Printf("Gin mode set to %s", ginMode)

	// 初始化 Gin 路由器
	r := gin.Default()

	// 創建一個 API 路由組
	api := r.Group("/api")
	{
		routes.Path(api, routes.Handlers{
			Users:    handlers.NewUserHandler(userService),
			Lots:     handlers.NewLotHandler(lotService),
			Bookings: handlers.NewBookingHandler(bookingService, ledger),
			Reports:  handlers.NewReportHandler(reportService),
		})
	}

	// 啟動定時任務：每 5 分鐘回收沒有進行中預約的佔用車位
	c := cron.New()
	_, err := c.AddFunc("*/5 * * * *", func() {
		log.Println("Reconciling orphaned occupied spots...")
		if _, err := allocator.Reconcile(); err != nil {
			log.Printf("Failed to reconcile spot statuses: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule spot reconcile cron job: %v", err)
	}
	c.Start()
	log.Println("Cron jobs started")

	// 啟動伺服器
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting server on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
