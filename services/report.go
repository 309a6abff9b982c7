package services

import (
	"fmt"
	"log"
	"sort"

	"gorm.io/gorm"

	"vparking/models"
)

// ReportService 產生管理端與使用者端的統計報表
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// AdminReport 管理端總覽
type AdminReport struct {
	TotalLots      int                        `json:"total_lots"`
	TotalSpots     int                        `json:"total_spots"`
	AvailableSpots int                        `json:"available_spots"`
	OccupiedSpots  int                        `json:"occupied_spots"`
	Lots           []models.ParkingLotSummary `json:"lots"`
	RecentHistory  []models.Reservation       `json:"recent_history"`
}

// BuildAdminReport 彙整全站車位統計與最近十筆預約
func (s *ReportService) BuildAdminReport() (*AdminReport, error) {
	var summaries []models.ParkingLotSummary
	if err := s.db.Raw(lotSummarySQL).Scan(&summaries).Error; err != nil {
		log.Printf("Failed to build lot summaries for report: %v", err)
		return nil, fmt.Errorf("failed to build lot summaries: %v: %w", err, ErrStorage)
	}

	report := &AdminReport{TotalLots: len(summaries), Lots: summaries}
	for _, summary := range summaries {
		report.TotalSpots += summary.TotalSpots
		report.AvailableSpots += summary.AvailableSpots
		report.OccupiedSpots += summary.OccupiedSpots
	}

	if err := s.db.Order("parked_at DESC").Limit(10).Find(&report.RecentHistory).Error; err != nil {
		log.Printf("Failed to fetch recent history for report: %v", err)
		return nil, fmt.Errorf("failed to fetch recent history: %v: %w", err, ErrStorage)
	}

	return report, nil
}

// UserReport 使用者統計
type UserReport struct {
	TotalReservations     int            `json:"total_reservations"`
	ActiveReservations    int            `json:"active_reservations"`
	CompletedReservations int            `json:"completed_reservations"`
	TotalSpent            float64        `json:"total_spent"`
	Monthly               []MonthlyUsage `json:"monthly"`
}

// MonthlyUsage 單月統計，月份格式 YYYY-MM
type MonthlyUsage struct {
	Month        string  `json:"month"`
	Reservations int     `json:"reservations"`
	TotalCost    float64 `json:"total_cost"`
}

// BuildUserReport 彙整使用者的預約統計
// 月份彙總在程式內計算，避免依賴各資料庫方言的日期函式
func (s *ReportService) BuildUserReport(userID int) (*UserReport, error) {
	var reservations []models.Reservation
	if err := s.db.Where("user_id = ?", userID).Find(&reservations).Error; err != nil {
		log.Printf("Failed to fetch reservations for user %d report: %v", userID, err)
		return nil, fmt.Errorf("failed to fetch reservations: %v: %w", err, ErrStorage)
	}

	report := &UserReport{TotalReservations: len(reservations)}
	monthly := make(map[string]*MonthlyUsage)
	for _, r := range reservations {
		switch r.Status {
		case models.ReservationActive:
			report.ActiveReservations++
		case models.ReservationCompleted:
			report.CompletedReservations++
			if r.Cost != nil {
				report.TotalSpent += *r.Cost
			}
			month := r.ParkedAt.Format("2006-01")
			usage, ok := monthly[month]
			if !ok {
				usage = &MonthlyUsage{Month: month}
				monthly[month] = usage
			}
			usage.Reservations++
			if r.Cost != nil {
				usage.TotalCost += *r.Cost
			}
		}
	}

	for _, usage := range monthly {
		report.Monthly = append(report.Monthly, *usage)
	}
	sort.Slice(report.Monthly, func(i, j int) bool {
		return report.Monthly[i].Month > report.Monthly[j].Month
	})

	return report, nil
}
