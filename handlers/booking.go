package handlers

import (
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"vparking/models"
	"vparking/services"
)

// BookingInput 定義訂位請求：一台車一個位子
type BookingInput struct {
	LotID          int      `json:"lot_id" binding:"required,gt=0"`
	VehicleNumbers []string `json:"vehicle_numbers" binding:"required,min=1"`
}

type BookingHandler struct {
	bookings *services.BookingService
	ledger   *services.ReservationLedger
}

func NewBookingHandler(bookings *services.BookingService, ledger *services.ReservationLedger) *BookingHandler {
	return &BookingHandler{bookings: bookings, ledger: ledger}
}

// BookSpots 訂位資料檢查
func (h *BookingHandler) BookSpots(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid booking input: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "ERR_INVALID_INPUT", "請提供停車場 ID 與每台車的車牌號碼")
		return
	}

	reservationIDs, err := h.bookings.BookSpots(input.LotID, userID, input.VehicleNumbers)
	if err != nil {
		log.Printf("Failed to book %d spots in lot %d for user %d: %v", len(input.VehicleNumbers), input.LotID, userID, err)
		ServiceErrorResponse(c, "訂位失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "訂位成功", gin.H{
		"reservation_ids": reservationIDs,
	})
}

// ReleaseOne 結算單筆預約
func (h *BookingHandler) ReleaseOne(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的預約ID", "ERR_INVALID_ID", err.Error())
		return
	}

	// 選填的離場時間，沒給就以當下時間結算
	var input struct {
		LeftAt string `json:"left_at"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && err != io.EOF {
		log.Printf("Invalid release input for reservation %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "ERR_INVALID_INPUT", "left_at 需為時間字串")
		return
	}
	var exitAt *time.Time
	if input.LeftAt != "" {
		parsed, err := services.ParseTimestamp(input.LeftAt)
		if err != nil {
			log.Printf("Invalid left_at for reservation %d: %v", id, err)
			ServiceErrorResponse(c, "無效的離場時間", err)
			return
		}
		exitAt = &parsed
	}

	cost, err := h.bookings.ReleaseOne(id, userID, exitAt)
	if err != nil {
		log.Printf("Failed to release reservation %d for user %d: %v", id, userID, err)
		ServiceErrorResponse(c, "結算失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "車位釋放成功", gin.H{
		"reservation_id": id,
		"cost":           cost,
	})
}

// ReleaseMany 批次結算
func (h *BookingHandler) ReleaseMany(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		ReservationIDs []int `json:"reservation_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		log.Printf("Invalid batch release input: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "ERR_INVALID_INPUT", "請提供要結算的預約 ID 清單")
		return
	}

	released, err := h.bookings.ReleaseMany(input.ReservationIDs, userID)
	if err != nil {
		log.Printf("Batch release failed for user %d: %v", userID, err)
		ServiceErrorResponse(c, "批次結算失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "批次結算完成", gin.H{
		"released_count": released,
	})
}

// ListMyReservations 查詢自己的預約記錄
func (h *BookingHandler) ListMyReservations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reservations, err := h.ledger.ListForUser(userID)
	if err != nil {
		ServiceErrorResponse(c, "查詢預約記錄失敗", err)
		return
	}

	responses := make([]models.ReservationResponse, len(reservations))
	for i := range reservations {
		responses[i] = reservations[i].ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}
