package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vparking/models"
)

// newTestDB 建立測試用的 in-memory SQLite 資料庫
// 單一連線是必要的：in-memory SQLite 每條連線各自一份資料
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 外鍵檢查打開，測試環境跟正式 MySQL 一樣會擋壞掉的參照
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.ParkingLot{},
		&models.ParkingSpot{},
		&models.Reservation{},
	))

	return db
}

type testEnv struct {
	db        *gorm.DB
	lots      *LotService
	allocator *SpotAllocator
	ledger    *ReservationLedger
	bookings  *BookingService
	users     *UserService
	reports   *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	allocator := NewSpotAllocator(db)
	ledger := NewReservationLedger(db)
	return &testEnv{
		db:        db,
		lots:      NewLotService(db),
		allocator: allocator,
		ledger:    ledger,
		bookings:  NewBookingService(db, allocator, ledger),
		users:     NewUserService(db),
		reports:   NewReportService(db),
	}
}

func (e *testEnv) createLot(t *testing.T, name string, hourlyRate float64, maxSpots int) *models.ParkingLot {
	t.Helper()

	lot := &models.ParkingLot{
		Name:       name,
		Address:    "123 Test Street",
		PinCode:    "123456",
		HourlyRate: hourlyRate,
		MaxSpots:   maxSpots,
	}
	require.NoError(t, e.lots.CreateLot(lot))
	return lot
}

// createUser 直接寫入使用者，略過 bcrypt，訂位測試用不到密碼
func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@test.com", username),
		Password: "not-a-real-hash",
		FullName: "Test User " + username,
		Role:     models.RoleUser,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) countSpots(t *testing.T, lotID int, status string) int {
	t.Helper()

	var count int64
	require.NoError(t, e.db.Model(&models.ParkingSpot{}).
		Where("lot_id = ? AND status = ?", lotID, status).
		Count(&count).Error)
	return int(count)
}
