package models

import "time"

// 預約生命週期狀態
const (
	ReservationActive    = "active"
	ReservationCompleted = "completed"
)

// Reservation 定義預約模型：一筆預約綁定一個車位與一位使用者
// LeftAt 與 Cost 只在結算時一起寫入，之後不再變動
type Reservation struct {
	ReservationID int         `json:"reservation_id" gorm:"primaryKey;autoIncrement;type:INT"`
	SpotID        int         `json:"spot_id" gorm:"index;not null;type:INT"`
	UserID        int         `json:"user_id" gorm:"index;not null;type:INT"`
	VehicleNumber string      `json:"vehicle_number" gorm:"type:varchar(20);not null"`
	BatchID       string      `json:"batch_id" gorm:"type:varchar(36);index"` // 同一次訂位共用
	ParkedAt      time.Time   `json:"parked_at" gorm:"type:datetime;not null"`
	LeftAt        *time.Time  `json:"left_at" gorm:"type:datetime;default:null"`
	Cost          *float64    `json:"cost" gorm:"type:decimal(10,2);default:null"`
	Status        string      `json:"status" gorm:"type:varchar(10);not null;default:active"`

	// 歷史帳要在車位或使用者刪除後留存，預約側不建外鍵約束
	User User        `json:"-" gorm:"constraint:-"`
	Spot ParkingSpot `json:"-" gorm:"constraint:-"`
}

func (Reservation) TableName() string {
	return "reservations"
}

type ReservationResponse struct {
	ReservationID int        `json:"reservation_id"`
	SpotID        int        `json:"spot_id"`
	UserID        int        `json:"user_id"`
	VehicleNumber string     `json:"vehicle_number"`
	BatchID       string     `json:"batch_id"`
	ParkedAt      time.Time  `json:"parked_at"`
	LeftAt        *time.Time `json:"left_at"`
	Cost          *float64   `json:"cost"`
	Status        string     `json:"status"`
}

func (r *Reservation) ToResponse() ReservationResponse {
	return ReservationResponse{
		ReservationID: r.ReservationID,
		SpotID:        r.SpotID,
		UserID:        r.UserID,
		VehicleNumber: r.VehicleNumber,
		BatchID:       r.BatchID,
		ParkedAt:      r.ParkedAt,
		LeftAt:        r.LeftAt,
		Cost:          r.Cost,
		Status:        r.Status,
	}
}
