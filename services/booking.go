package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vparking/models"
)

// BookingService 是對外的唯一進入點，組合車位認領、預約帳本與計費
type BookingService struct {
	db        *gorm.DB
	allocator *SpotAllocator
	ledger    *ReservationLedger
}

func NewBookingService(db *gorm.DB, allocator *SpotAllocator, ledger *ReservationLedger) *BookingService {
	return &BookingService{db: db, allocator: allocator, ledger: ledger}
}

// BookSpots 一次訂 N 個車位，每台車一個位子
// 認領與建立預約在同一事務內完成，任何一步失敗就全部回滾，
// 不會留下已佔用但沒有預約的車位
func (s *BookingService) BookSpots(lotID, userID int, vehicleNumbers []string) ([]int, error) {
	if len(vehicleNumbers) == 0 {
		return nil, fmt.Errorf("at least one vehicle_number is required: %w", ErrValidation)
	}
	for i, v := range vehicleNumbers {
		if v == "" {
			return nil, fmt.Errorf("vehicle_number at index %d is empty: %w", i, ErrValidation)
		}
	}

	tx := s.db.Begin()

	var lot models.ParkingLot
	if err := tx.First(&lot, lotID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("parking lot %d: %w", lotID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find parking lot %d: %v: %w", lotID, err, ErrStorage)
	}

	spotIDs, err := s.allocator.ClaimSpots(tx, lotID, len(vehicleNumbers))
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// 同一批訂位共用進場時間與批次編號
	parkedAt := time.Now().UTC()
	batchID := uuid.NewString()

	reservationIDs := make([]int, 0, len(vehicleNumbers))
	for i, vehicleNumber := range vehicleNumbers {
		reservationID, err := s.ledger.OpenReservation(tx, spotIDs[i], userID, vehicleNumber, batchID, parkedAt)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		reservationIDs = append(reservationIDs, reservationID)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit booking transaction: %v: %w", err, ErrStorage)
	}

	log.Printf("User %d booked %d spots in lot %d, batch %s", userID, len(reservationIDs), lotID, batchID)
	return reservationIDs, nil
}

// ReleaseOne 結算一筆預約：計算費用、標記完成並釋放車位
// 完成與釋放在同一事務內，不會出現已完成的預約還佔著車位
// exitAt 給 nil 表示以當下時間結算；指定時間早於進場會被拒絕
func (s *BookingService) ReleaseOne(reservationID, userID int, exitAt *time.Time) (float64, error) {
	tx := s.db.Begin()

	reservation, err := s.ledger.FindActiveReservation(tx, reservationID, userID)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	var spot models.ParkingSpot
	if err := tx.First(&spot, reservation.SpotID).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to find spot %d for reservation %d: %v", reservation.SpotID, reservationID, err)
		return 0, fmt.Errorf("failed to find spot %d: %v: %w", reservation.SpotID, err, ErrStorage)
	}
	var lot models.ParkingLot
	if err := tx.First(&lot, spot.LotID).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to find lot %d for spot %d: %v", spot.LotID, spot.SpotID, err)
		return 0, fmt.Errorf("failed to find lot %d: %v: %w", spot.LotID, err, ErrStorage)
	}

	leftAt := time.Now().UTC()
	if exitAt != nil {
		leftAt = exitAt.UTC()
	}
	cost, err := ComputeCost(reservation.ParkedAt, leftAt, lot.HourlyRate)
	if err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := s.ledger.CompleteReservation(tx, reservationID, leftAt, cost); err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := s.allocator.ReleaseSpot(tx, reservation.SpotID); err != nil {
		tx.Rollback()
		return 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit release transaction: %v: %w", err, ErrStorage)
	}

	log.Printf("User %d released reservation %d, parked %.2f hours, cost %.2f",
		userID, reservationID, leftAt.Sub(reservation.ParkedAt).Hours(), cost)
	return cost, nil
}

// ReleaseMany 批次結算，查不到/不是本人/已完成的跳過不計，回傳實際結算筆數
func (s *BookingService) ReleaseMany(reservationIDs []int, userID int) (int, error) {
	released := 0
	for _, reservationID := range reservationIDs {
		if _, err := s.ReleaseOne(reservationID, userID, nil); err != nil {
			if errors.Is(err, ErrStorage) {
				return released, err
			}
			log.Printf("Skipping reservation %d in batch release: %v", reservationID, err)
			continue
		}
		released++
	}
	log.Printf("Batch release for user %d: %d of %d reservations released", userID, released, len(reservationIDs))
	return released, nil
}
