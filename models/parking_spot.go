package models

import "time"

// 車位佔用狀態
const (
	SpotAvailable = "available"
	SpotOccupied  = "occupied"
)

// ParkingSpot 定義車位模型，隨停車場建立/調整時批次產生
type ParkingSpot struct {
	SpotID int    `json:"spot_id" gorm:"primaryKey;autoIncrement;type:INT"`
	LotID  int    `json:"lot_id" gorm:"index;not null;type:INT"`
	Status string `json:"status" gorm:"type:varchar(10);not null;default:available"`

	Lot ParkingLot `json:"-"`
}

func (ParkingSpot) TableName() string {
	return "parking_spot"
}

// SpotDetail 管理端車位檢視：佔用中的車位帶出進行中的預約
type SpotDetail struct {
	SpotID        int        `json:"spot_id"`
	Status        string     `json:"status"`
	ReservationID *int       `json:"reservation_id,omitempty"`
	VehicleNumber *string    `json:"vehicle_number,omitempty"`
	UserFullName  *string    `json:"user_full_name,omitempty"`
	ParkedAt      *time.Time `json:"parked_at,omitempty"`
}
