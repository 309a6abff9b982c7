package services

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// ComputeCost 依進場與出場時間計算停車費用：時數（含小數）乘以每小時費率，不做進位
func ComputeCost(parkedAt, leftAt time.Time, hourlyRate float64) (float64, error) {
	if leftAt.Before(parkedAt) {
		log.Printf("left_at %v is before parked_at %v", leftAt, parkedAt)
		return 0, fmt.Errorf("left_at %v cannot be earlier than parked_at %v: %w", leftAt, parkedAt, ErrValidation)
	}

	if hourlyRate < 0 {
		return 0, fmt.Errorf("invalid hourly_rate %.2f: %w", hourlyRate, ErrValidation)
	}

	hours := leftAt.Sub(parkedAt).Hours()
	return hours * hourlyRate, nil
}

// 可接受的時間戳格式，依序嘗試
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseTimestamp 解析時間字串，容許日期與時間之間用空格或 T 分隔
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("time %q must be in 'YYYY-MM-DDThh:mm:ss', 'YYYY-MM-DD hh:mm:ss' or RFC 3339 format: %w", s, ErrParse)
}
