package services

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"vparking/models"
)

// LotService 管理停車場與其車位，車位隨停車場建立/調整批次產生
type LotService struct {
	db *gorm.DB
}

func NewLotService(db *gorm.DB) *LotService {
	return &LotService{db: db}
}

// CreateLot 建立停車場並產生 MaxSpots 個可用車位
func (s *LotService) CreateLot(lot *models.ParkingLot) error {
	if lot.HourlyRate < 0 {
		return fmt.Errorf("hourly_rate must be non-negative, got %.2f: %w", lot.HourlyRate, ErrValidation)
	}
	if lot.MaxSpots < 0 {
		return fmt.Errorf("max_spots must be non-negative, got %d: %w", lot.MaxSpots, ErrValidation)
	}

	// 開始事務：停車場與車位要嘛一起建立，要嘛都不建立
	tx := s.db.Begin()

	if err := tx.Create(lot).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to create parking lot: %v", err)
		return fmt.Errorf("failed to create parking lot: %v: %w", err, ErrStorage)
	}

	if lot.MaxSpots > 0 {
		spots := make([]models.ParkingSpot, lot.MaxSpots)
		for i := range spots {
			spots[i] = models.ParkingSpot{LotID: lot.LotID, Status: models.SpotAvailable}
		}
		if err := tx.Create(&spots).Error; err != nil {
			tx.Rollback()
			log.Printf("Failed to create spots for lot %d: %v", lot.LotID, err)
			return fmt.Errorf("failed to create parking spots: %v: %w", err, ErrStorage)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %v: %w", err, ErrStorage)
	}

	log.Printf("Successfully created parking lot %d with %d spots", lot.LotID, lot.MaxSpots)
	return nil
}

// countOccupied 計算停車場目前佔用中的車位數，需在同一事務內呼叫
func countOccupied(tx *gorm.DB, lotID int) (int64, error) {
	var occupied int64
	err := tx.Model(&models.ParkingSpot{}).
		Where("lot_id = ? AND status = ?", lotID, models.SpotOccupied).
		Count(&occupied).Error
	return occupied, err
}

// UpdateLot 更新停車場資料並重建車位
// 注意：與原系統相容，只要編輯就會捨棄全部車位重新產生（即使容量沒變）
func (s *LotService) UpdateLot(lotID int, req *models.UpdateParkingLotRequest) (*models.ParkingLot, error) {
	tx := s.db.Begin()

	var lot models.ParkingLot
	if err := tx.First(&lot, lotID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("parking lot %d: %w", lotID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find parking lot %d: %v: %w", lotID, err, ErrStorage)
	}

	// 有車位佔用中就不允許編輯
	occupied, err := countOccupied(tx, lotID)
	if err != nil {
		tx.Rollback()
		log.Printf("Failed to count occupied spots for lot %d: %v", lotID, err)
		return nil, fmt.Errorf("failed to count occupied spots: %v: %w", err, ErrStorage)
	}
	if occupied > 0 {
		tx.Rollback()
		log.Printf("Cannot edit lot %d: %d spots occupied", lotID, occupied)
		return nil, fmt.Errorf("lot has occupied spots: %w", ErrConflict)
	}

	if req.Name != nil {
		lot.Name = *req.Name
	}
	if req.Address != nil {
		lot.Address = *req.Address
	}
	if req.PinCode != nil {
		lot.PinCode = *req.PinCode
	}
	if req.HourlyRate != nil {
		if *req.HourlyRate < 0 {
			tx.Rollback()
			return nil, fmt.Errorf("hourly_rate must be non-negative, got %.2f: %w", *req.HourlyRate, ErrValidation)
		}
		lot.HourlyRate = *req.HourlyRate
	}
	if req.MaxSpots != nil {
		if *req.MaxSpots < 0 {
			tx.Rollback()
			return nil, fmt.Errorf("max_spots must be non-negative, got %d: %w", *req.MaxSpots, ErrValidation)
		}
		lot.MaxSpots = *req.MaxSpots
	}

	if err := tx.Save(&lot).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to update parking lot %d: %v", lotID, err)
		return nil, fmt.Errorf("failed to update parking lot: %v: %w", err, ErrStorage)
	}

	// 捨棄既有車位，依新容量重建
	if err := tx.Where("lot_id = ?", lotID).Delete(&models.ParkingSpot{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete spots for lot %d: %v", lotID, err)
		return nil, fmt.Errorf("failed to delete parking spots: %v: %w", err, ErrStorage)
	}
	if lot.MaxSpots > 0 {
		spots := make([]models.ParkingSpot, lot.MaxSpots)
		for i := range spots {
			spots[i] = models.ParkingSpot{LotID: lot.LotID, Status: models.SpotAvailable}
		}
		if err := tx.Create(&spots).Error; err != nil {
			tx.Rollback()
			log.Printf("Failed to recreate spots for lot %d: %v", lotID, err)
			return nil, fmt.Errorf("failed to recreate parking spots: %v: %w", err, ErrStorage)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %v: %w", err, ErrStorage)
	}

	log.Printf("Successfully updated parking lot %d, spots rebuilt to %d", lotID, lot.MaxSpots)
	return &lot, nil
}

// DeleteLot 刪除停車場，有佔用中車位時拒絕
func (s *LotService) DeleteLot(lotID int) error {
	tx := s.db.Begin()

	var lot models.ParkingLot
	if err := tx.First(&lot, lotID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("parking lot %d: %w", lotID, ErrNotFound)
		}
		return fmt.Errorf("failed to find parking lot %d: %v: %w", lotID, err, ErrStorage)
	}

	occupied, err := countOccupied(tx, lotID)
	if err != nil {
		tx.Rollback()
		log.Printf("Failed to count occupied spots for lot %d: %v", lotID, err)
		return fmt.Errorf("failed to count occupied spots: %v: %w", err, ErrStorage)
	}
	if occupied > 0 {
		tx.Rollback()
		log.Printf("Cannot delete lot %d: %d spots occupied", lotID, occupied)
		return fmt.Errorf("lot has occupied spots: %w", ErrConflict)
	}

	// 先刪車位再刪停車場
	if err := tx.Where("lot_id = ?", lotID).Delete(&models.ParkingSpot{}).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete spots for lot %d: %v", lotID, err)
		return fmt.Errorf("failed to delete parking spots: %v: %w", err, ErrStorage)
	}
	if err := tx.Delete(&lot).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete parking lot %d: %v", lotID, err)
		return fmt.Errorf("failed to delete parking lot: %v: %w", err, ErrStorage)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %v: %w", err, ErrStorage)
	}

	log.Printf("Successfully deleted parking lot %d", lotID)
	return nil
}

// 聚合查詢：每個停車場的總位數與各狀態數量
const lotSummarySQL = `
	SELECT pl.lot_id, pl.name, pl.address, pl.pin_code, pl.hourly_rate, pl.max_spots,
	       COUNT(ps.spot_id) AS total_spots,
	       COALESCE(SUM(CASE WHEN ps.status = 'available' THEN 1 ELSE 0 END), 0) AS available_spots,
	       COALESCE(SUM(CASE WHEN ps.status = 'occupied' THEN 1 ELSE 0 END), 0) AS occupied_spots
	FROM parking_lot pl
	LEFT JOIN parking_spot ps ON pl.lot_id = ps.lot_id
	GROUP BY pl.lot_id, pl.name, pl.address, pl.pin_code, pl.hourly_rate, pl.max_spots
	ORDER BY pl.lot_id
`

// ListLots 列出所有停車場與車位統計
func (s *LotService) ListLots() ([]models.ParkingLotSummary, error) {
	var summaries []models.ParkingLotSummary
	if err := s.db.Raw(lotSummarySQL).Scan(&summaries).Error; err != nil {
		log.Printf("Failed to list parking lots: %v", err)
		return nil, fmt.Errorf("failed to list parking lots: %v: %w", err, ErrStorage)
	}
	return summaries, nil
}

// 車位明細查詢：佔用中的車位帶出進行中的預約與使用者
const spotDetailSQL = `
	SELECT ps.spot_id, ps.status, r.reservation_id, r.vehicle_number,
	       u.full_name AS user_full_name, r.parked_at
	FROM parking_spot ps
	LEFT JOIN reservations r ON ps.spot_id = r.spot_id AND r.status = 'active'
	LEFT JOIN users u ON r.user_id = u.user_id
	WHERE ps.lot_id = ?
	ORDER BY ps.spot_id
`

// GetLotSpots 查詢停車場的全部車位與佔用明細
func (s *LotService) GetLotSpots(lotID int) (*models.ParkingLot, []models.SpotDetail, error) {
	var lot models.ParkingLot
	if err := s.db.First(&lot, lotID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("parking lot %d: %w", lotID, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to find parking lot %d: %v: %w", lotID, err, ErrStorage)
	}

	var details []models.SpotDetail
	if err := s.db.Raw(spotDetailSQL, lotID).Scan(&details).Error; err != nil {
		log.Printf("Failed to fetch spot details for lot %d: %v", lotID, err)
		return nil, nil, fmt.Errorf("failed to fetch spot details: %v: %w", err, ErrStorage)
	}

	return &lot, details, nil
}
