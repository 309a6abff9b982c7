package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vparking/models"
)

func TestBookSpotsCreatesReservations(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Book Lot", 50.0, 3)
	user := env.createUser(t, "booker")

	ids, err := env.bookings.BookSpots(lot.LotID, user.UserID, []string{"V1", "V2"})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	var reservations []models.Reservation
	require.NoError(t, env.db.Order("reservation_id").Find(&reservations).Error)
	require.Len(t, reservations, 2)

	seenSpots := map[int]bool{}
	for i, r := range reservations {
		assert.Equal(t, ids[i], r.ReservationID)
		assert.Equal(t, models.ReservationActive, r.Status)
		assert.Equal(t, user.UserID, r.UserID)
		assert.False(t, seenSpots[r.SpotID], "spot %d assigned twice", r.SpotID)
		seenSpots[r.SpotID] = true
		assert.Nil(t, r.LeftAt)
		assert.Nil(t, r.Cost)
	}

	// 同一批共用進場時間與批次編號，車牌依輸入順序
	assert.Equal(t, "V1", reservations[0].VehicleNumber)
	assert.Equal(t, "V2", reservations[1].VehicleNumber)
	assert.Equal(t, reservations[0].BatchID, reservations[1].BatchID)
	assert.NotEmpty(t, reservations[0].BatchID)
	assert.True(t, reservations[0].ParkedAt.Equal(reservations[1].ParkedAt))

	assert.Equal(t, 2, env.countSpots(t, lot.LotID, models.SpotOccupied))
	assert.Equal(t, 1, env.countSpots(t, lot.LotID, models.SpotAvailable))
}

func TestBookSpotsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Small Lot", 50.0, 2)
	user := env.createUser(t, "greedy")

	_, err := env.bookings.BookSpots(lot.LotID, user.UserID, []string{"V1", "V2", "V3"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	// 整批失敗，沒有任何車位被佔用
	assert.Equal(t, 2, env.countSpots(t, lot.LotID, models.SpotAvailable))
	assert.Equal(t, 0, env.countSpots(t, lot.LotID, models.SpotOccupied))

	var reservations int64
	require.NoError(t, env.db.Model(&models.Reservation{}).Count(&reservations).Error)
	assert.Zero(t, reservations)
}

func TestBookSpotsValidation(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Valid Lot", 50.0, 2)
	user := env.createUser(t, "tester")

	_, err := env.bookings.BookSpots(lot.LotID, user.UserID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.bookings.BookSpots(lot.LotID, user.UserID, []string{"V1", ""})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.bookings.BookSpots(9999, user.UserID, []string{"V1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReleaseOneCompletesAndFreesSpot(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Release Lot", 50.0, 1)
	user := env.createUser(t, "leaver")

	ids, err := env.bookings.BookSpots(lot.LotID, user.UserID, []string{"V1"})
	require.NoError(t, err)

	cost, err := env.bookings.ReleaseOne(ids[0], user.UserID, nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cost, 0.0)

	var reservation models.Reservation
	require.NoError(t, env.db.First(&reservation, ids[0]).Error)
	assert.Equal(t, models.ReservationCompleted, reservation.Status)
	require.NotNil(t, reservation.LeftAt)
	require.NotNil(t, reservation.Cost)
	assert.InDelta(t, cost, *reservation.Cost, 1e-9)
	assert.WithinDuration(t, time.Now().UTC(), *reservation.LeftAt, 10*time.Second)

	assert.Equal(t, 1, env.countSpots(t, lot.LotID, models.SpotAvailable))
}

func TestReleaseOneRejectsDoubleRelease(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Double Lot", 50.0, 1)
	user := env.createUser(t, "repeater")

	ids, err := env.bookings.BookSpots(lot.LotID, user.UserID, []string{"V1"})
	require.NoError(t, err)

	first, err := env.bookings.ReleaseOne(ids[0], user.UserID, nil)
	require.NoError(t, err)

	// active-only 查詢擋下重複結算，費用不會被重算
	_, err = env.bookings.ReleaseOne(ids[0], user.UserID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var reservation models.Reservation
	require.NoError(t, env.db.First(&reservation, ids[0]).Error)
	require.NotNil(t, reservation.Cost)
	assert.InDelta(t, first, *reservation.Cost, 1e-9)
	assert.Equal(t, 1, env.countSpots(t, lot.LotID, models.SpotAvailable))
}

func TestReleaseOneRejectsForeignUser(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Owner Lot", 50.0, 1)
	owner := env.createUser(t, "owner")
	intruder := env.createUser(t, "intruder")

	ids, err := env.bookings.BookSpots(lot.LotID, owner.UserID, []string{"V1"})
	require.NoError(t, err)

	_, err = env.bookings.ReleaseOne(ids[0], intruder.UserID, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	// 預約維持進行中
	var reservation models.Reservation
	require.NoError(t, env.db.First(&reservation, ids[0]).Error)
	assert.Equal(t, models.ReservationActive, reservation.Status)
	assert.Equal(t, 1, env.countSpots(t, lot.LotID, models.SpotOccupied))
}

func TestReleaseManySkipsBadIDs(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Batch Lot", 50.0, 3)
	user := env.createUser(t, "batcher")

	ids, err := env.bookings.BookSpots(lot.LotID, user.UserID, []string{"A", "C"})
	require.NoError(t, err)

	released, err := env.bookings.ReleaseMany([]int{ids[0], 99999, ids[1]}, user.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	assert.Equal(t, 3, env.countSpots(t, lot.LotID, models.SpotAvailable))
}

func TestListForUserOrdersByEntryDescending(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "History Lot", 50.0, 3)
	user := env.createUser(t, "historian")

	// 手動鋪三筆不同進場時間的記錄
	base := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	var spotIDs []int
	require.NoError(t, env.db.Model(&models.ParkingSpot{}).
		Where("lot_id = ?", lot.LotID).Order("spot_id").Pluck("spot_id", &spotIDs).Error)
	for i, spotID := range spotIDs {
		require.NoError(t, env.db.Create(&models.Reservation{
			SpotID:        spotID,
			UserID:        user.UserID,
			VehicleNumber: "V",
			ParkedAt:      base.Add(time.Duration(i) * time.Hour),
			Status:        models.ReservationCompleted,
		}).Error)
	}

	reservations, err := env.ledger.ListForUser(user.UserID)
	require.NoError(t, err)
	require.Len(t, reservations, 3)
	for i := 1; i < len(reservations); i++ {
		assert.False(t, reservations[i].ParkedAt.After(reservations[i-1].ParkedAt),
			"reservations must be ordered newest first")
	}
}

func TestCompleteReservationRejectsNonActive(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Ledger Lot", 50.0, 1)
	user := env.createUser(t, "ledgerer")

	ids, err := env.bookings.BookSpots(lot.LotID, user.UserID, []string{"V1"})
	require.NoError(t, err)
	_, err = env.bookings.ReleaseOne(ids[0], user.UserID, nil)
	require.NoError(t, err)

	err = env.ledger.CompleteReservation(env.db, ids[0], time.Now().UTC(), 10.0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReleaseSpotRejectsAvailableSpot(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Free Lot", 50.0, 1)

	var spotIDs []int
	require.NoError(t, env.db.Model(&models.ParkingSpot{}).
		Where("lot_id = ?", lot.LotID).Pluck("spot_id", &spotIDs).Error)
	require.Len(t, spotIDs, 1)

	err := env.allocator.ReleaseSpot(env.db, spotIDs[0])
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestReconcileFreesOrphanedSpots(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Orphan Lot", 50.0, 2)
	user := env.createUser(t, "orphaner")

	// 一個正常訂位，一個人為製造的孤兒佔用
	_, err := env.bookings.BookSpots(lot.LotID, user.UserID, []string{"V1"})
	require.NoError(t, err)

	var spotIDs []int
	require.NoError(t, env.db.Model(&models.ParkingSpot{}).
		Where("lot_id = ? AND status = ?", lot.LotID, models.SpotAvailable).
		Pluck("spot_id", &spotIDs).Error)
	require.Len(t, spotIDs, 1)
	require.NoError(t, env.db.Model(&models.ParkingSpot{}).
		Where("spot_id = ?", spotIDs[0]).
		Update("status", models.SpotOccupied).Error)

	freed, err := env.allocator.Reconcile()
	require.NoError(t, err)
	assert.Equal(t, 1, freed)

	// 有進行中預約的車位不受影響
	assert.Equal(t, 1, env.countSpots(t, lot.LotID, models.SpotOccupied))
	assert.Equal(t, 1, env.countSpots(t, lot.LotID, models.SpotAvailable))
}

func TestConcurrentBookingsNeverShareSpots(t *testing.T) {
	env := newTestEnv(t)
	lot := env.createLot(t, "Race Lot", 50.0, 4)

	const workers = 4
	users := make([]*models.User, workers)
	for i := range users {
		users[i] = env.createUser(t, "racer"+string(rune('a'+i)))
	}

	var wg sync.WaitGroup
	results := make([][]int, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.bookings.BookSpots(lot.LotID, users[i].UserID, []string{"R1", "R2"})
		}(i)
	}
	wg.Wait()

	// 4 個位子、每人要 2 個：恰好兩人成功，其餘因容量不足失敗
	succeeded := 0
	seenSpots := map[int]bool{}
	for i := 0; i < workers; i++ {
		if errs[i] == nil {
			succeeded++
			require.Len(t, results[i], 2)
		} else {
			assert.ErrorIs(t, errs[i], ErrInsufficientCapacity)
		}
	}
	assert.Equal(t, 2, succeeded)

	var reservations []models.Reservation
	require.NoError(t, env.db.Find(&reservations).Error)
	require.Len(t, reservations, 4)
	for _, r := range reservations {
		assert.False(t, seenSpots[r.SpotID], "spot %d double-booked", r.SpotID)
		seenSpots[r.SpotID] = true
	}

	assert.Equal(t, 4, env.countSpots(t, lot.LotID, models.SpotOccupied))
}
