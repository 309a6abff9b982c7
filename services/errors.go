package services

import "errors"

// 核心錯誤分類，handler 層用 errors.Is 轉成對應的 HTTP 狀態碼
var (
	// ErrValidation 輸入格式或範圍錯誤
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientCapacity 可用車位不足
	ErrInsufficientCapacity = errors.New("not enough available spots")
	// ErrConflict 操作被佔用中的車位擋下
	ErrConflict = errors.New("operation blocked by occupied spots")
	// ErrNotFound 資料不存在或無權限存取
	ErrNotFound = errors.New("record not found")
	// ErrInvalidState 不合法的生命週期轉換（例如重複結算）
	ErrInvalidState = errors.New("invalid lifecycle state")
	// ErrParse 時間戳格式錯誤
	ErrParse = errors.New("malformed timestamp")
	// ErrStorage 資料庫層失敗
	ErrStorage = errors.New("storage failure")
)
