package services

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"vparking/models"
)

// SpotAllocator 負責車位的認領與釋放
// ClaimSpots 與 ReleaseSpot 必須在呼叫端的事務內執行，
// 條件式 UPDATE 加上 RowsAffected 檢查確保同一車位不會被兩個請求同時認領
type SpotAllocator struct {
	db *gorm.DB
}

func NewSpotAllocator(db *gorm.DB) *SpotAllocator {
	return &SpotAllocator{db: db}
}

// claimAttempts 與其他請求搶同一批車位時的重選次數上限
const claimAttempts = 3

// ClaimSpots 原子性認領 count 個可用車位（由小到大），不足時整批失敗
// 搶輸其他請求時重新選位再試，只有真的沒位子才回報容量不足
func (a *SpotAllocator) ClaimSpots(tx *gorm.DB, lotID, count int) ([]int, error) {
	if count <= 0 {
		return nil, fmt.Errorf("claim count must be positive, got %d: %w", count, ErrValidation)
	}

	claimed := make([]int, 0, count)
	for attempt := 0; attempt < claimAttempts; attempt++ {
		need := count - len(claimed)

		var candidates []int
		if err := tx.Model(&models.ParkingSpot{}).
			Where("lot_id = ? AND status = ?", lotID, models.SpotAvailable).
			Order("spot_id").
			Limit(need).
			Pluck("spot_id", &candidates).Error; err != nil {
			log.Printf("Failed to query available spots for lot %d: %v", lotID, err)
			return nil, fmt.Errorf("failed to query available spots: %v: %w", err, ErrStorage)
		}

		// 不足就整批失敗，已翻成佔用的車位由呼叫端回滾還原
		if len(candidates) < need {
			available := len(claimed) + len(candidates)
			log.Printf("Lot %d has only %d available spots, requested %d", lotID, available, count)
			return nil, fmt.Errorf("lot %d has %d available spots, requested %d: %w", lotID, available, count, ErrInsufficientCapacity)
		}

		// 逐一認領，搶輸的車位下一輪重選；只登記真正翻到手的
		for _, spotID := range candidates {
			res := tx.Model(&models.ParkingSpot{}).
				Where("spot_id = ? AND status = ?", spotID, models.SpotAvailable).
				Update("status", models.SpotOccupied)
			if res.Error != nil {
				log.Printf("Failed to mark spot %d occupied: %v", spotID, res.Error)
				return nil, fmt.Errorf("failed to mark spot occupied: %v: %w", res.Error, ErrStorage)
			}
			if res.RowsAffected == 1 {
				claimed = append(claimed, spotID)
			}
		}

		if len(claimed) == count {
			return claimed, nil
		}
		log.Printf("Claim race on lot %d: wanted %d spots, got %d so far, retrying", lotID, count, len(claimed))
	}

	log.Printf("Gave up claiming %d spots on lot %d after %d attempts", count, lotID, claimAttempts)
	return nil, fmt.Errorf("claim contention on lot %d: %w", lotID, ErrConflict)
}

// ReleaseSpot 將佔用中的車位釋放回可用
func (a *SpotAllocator) ReleaseSpot(tx *gorm.DB, spotID int) error {
	res := tx.Model(&models.ParkingSpot{}).
		Where("spot_id = ? AND status = ?", spotID, models.SpotOccupied).
		Update("status", models.SpotAvailable)
	if res.Error != nil {
		log.Printf("Failed to release spot %d: %v", spotID, res.Error)
		return fmt.Errorf("failed to release spot %d: %v: %w", spotID, res.Error, ErrStorage)
	}
	if res.RowsAffected == 0 {
		log.Printf("Spot %d is not occupied, cannot release", spotID)
		return fmt.Errorf("spot %d is not occupied: %w", spotID, ErrInvalidState)
	}
	return nil
}

// Reconcile 釋放沒有對應進行中預約的佔用車位，定時任務每五分鐘呼叫一次
func (a *SpotAllocator) Reconcile() (int, error) {
	res := a.db.Model(&models.ParkingSpot{}).
		Where("status = ?", models.SpotOccupied).
		Where("spot_id NOT IN (?)",
			a.db.Model(&models.Reservation{}).
				Select("spot_id").
				Where("status = ?", models.ReservationActive)).
		Update("status", models.SpotAvailable)
	if res.Error != nil {
		log.Printf("Failed to reconcile spot statuses: %v", res.Error)
		return 0, fmt.Errorf("failed to reconcile spot statuses: %v: %w", res.Error, ErrStorage)
	}

	if res.RowsAffected > 0 {
		log.Printf("Reconciled %d orphaned occupied spots back to available", res.RowsAffected)
	}
	return int(res.RowsAffected), nil
}
