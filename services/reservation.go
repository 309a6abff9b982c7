package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"vparking/models"
)

// ReservationLedger 獨佔管理預約記錄與其生命週期轉換
type ReservationLedger struct {
	db *gorm.DB
}

func NewReservationLedger(db *gorm.DB) *ReservationLedger {
	return &ReservationLedger{db: db}
}

// OpenReservation 建立進行中的預約，呼叫端必須先透過 SpotAllocator 認領車位
func (l *ReservationLedger) OpenReservation(tx *gorm.DB, spotID, userID int, vehicleNumber, batchID string, parkedAt time.Time) (int, error) {
	if vehicleNumber == "" {
		return 0, fmt.Errorf("vehicle_number is required: %w", ErrValidation)
	}

	reservation := models.Reservation{
		SpotID:        spotID,
		UserID:        userID,
		VehicleNumber: vehicleNumber,
		BatchID:       batchID,
		ParkedAt:      parkedAt,
		Status:        models.ReservationActive,
	}
	if err := tx.Create(&reservation).Error; err != nil {
		log.Printf("Failed to open reservation for spot %d: %v", spotID, err)
		return 0, fmt.Errorf("failed to open reservation: %v: %w", err, ErrStorage)
	}

	return reservation.ReservationID, nil
}

// FindActiveReservation 查詢使用者自己的進行中預約，查不到或不是本人的都回 ErrNotFound
func (l *ReservationLedger) FindActiveReservation(tx *gorm.DB, reservationID, userID int) (*models.Reservation, error) {
	var reservation models.Reservation
	err := tx.Where("reservation_id = ? AND user_id = ? AND status = ?",
		reservationID, userID, models.ReservationActive).
		First(&reservation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("active reservation %d for user %d: %w", reservationID, userID, ErrNotFound)
		}
		log.Printf("Failed to find reservation %d: %v", reservationID, err)
		return nil, fmt.Errorf("failed to find reservation %d: %v: %w", reservationID, err, ErrStorage)
	}
	return &reservation, nil
}

// CompleteReservation 一次性寫入離場時間與費用並轉為已完成
// 條件式 UPDATE 擋下重複結算：非 active 狀態時 RowsAffected 為 0
func (l *ReservationLedger) CompleteReservation(tx *gorm.DB, reservationID int, leftAt time.Time, cost float64) error {
	res := tx.Model(&models.Reservation{}).
		Where("reservation_id = ? AND status = ?", reservationID, models.ReservationActive).
		Updates(map[string]interface{}{
			"left_at": leftAt,
			"cost":    cost,
			"status":  models.ReservationCompleted,
		})
	if res.Error != nil {
		log.Printf("Failed to complete reservation %d: %v", reservationID, res.Error)
		return fmt.Errorf("failed to complete reservation %d: %v: %w", reservationID, res.Error, ErrStorage)
	}
	if res.RowsAffected == 0 {
		log.Printf("Reservation %d is not active, cannot complete", reservationID)
		return fmt.Errorf("reservation %d is not active: %w", reservationID, ErrInvalidState)
	}
	return nil
}

// ListForUser 查詢使用者的全部預約記錄，依進場時間由新到舊
func (l *ReservationLedger) ListForUser(userID int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := l.db.
		Where("user_id = ?", userID).
		Order("parked_at DESC").
		Find(&reservations).Error; err != nil {
		log.Printf("Failed to list reservations for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to list reservations: %v: %w", err, ErrStorage)
	}
	return reservations, nil
}
