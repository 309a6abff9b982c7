package models

// ParkingLot 定義停車場模型
type ParkingLot struct {
	LotID        int           `json:"lot_id" gorm:"primaryKey;autoIncrement;type:INT"`
	Name         string        `json:"name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Address      string        `json:"address" gorm:"type:varchar(200);not null" binding:"required,max=200"`
	PinCode      string        `json:"pin_code" gorm:"type:varchar(10);not null" binding:"required,max=10"`
	HourlyRate   float64       `json:"hourly_rate" gorm:"type:decimal(10,2);not null" binding:"gte=0"`
	MaxSpots     int           `json:"max_spots" gorm:"type:INT;not null" binding:"gte=0"`
	// 車位掛在停車場下，parking_spot.lot_id 帶外鍵
	ParkingSpots []ParkingSpot `json:"-" gorm:"foreignKey:LotID"`
}

func (ParkingLot) TableName() string {
	return "parking_lot"
}

// ParkingLotSummary 停車場聚合視圖：總位數與各狀態數量
type ParkingLotSummary struct {
	LotID          int     `json:"lot_id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	PinCode        string  `json:"pin_code"`
	HourlyRate     float64 `json:"hourly_rate"`
	MaxSpots       int     `json:"max_spots"`
	TotalSpots     int     `json:"total_spots"`
	AvailableSpots int     `json:"available_spots"`
	OccupiedSpots  int     `json:"occupied_spots"`
}

// UpdateParkingLotRequest 用於 PUT 更新停車場
type UpdateParkingLotRequest struct {
	Name       *string  `json:"name" binding:"omitempty,max=100"`
	Address    *string  `json:"address" binding:"omitempty,max=200"`
	PinCode    *string  `json:"pin_code" binding:"omitempty,max=10"`
	HourlyRate *float64 `json:"hourly_rate" binding:"omitempty,gte=0"`
	MaxSpots   *int     `json:"max_spots" binding:"omitempty,gte=0"`
}
