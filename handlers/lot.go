package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vparking/models"
	"vparking/services"
)

type LotHandler struct {
	lots *services.LotService
}

func NewLotHandler(lots *services.LotService) *LotHandler {
	return &LotHandler{lots: lots}
}

// CreateLot 新增停車場資料檢查
func (h *LotHandler) CreateLot(c *gin.Context) {
	var lot models.ParkingLot
	if err := c.ShouldBindJSON(&lot); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "ERR_INVALID_INPUT", err.Error())
		return
	}

	if err := h.lots.CreateLot(&lot); err != nil {
		log.Printf("Failed to create parking lot %s: %v", lot.Name, err)
		ServiceErrorResponse(c, "新增停車場失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "停車場新增成功", lot)
}

// UpdateLot 更新停車場資料檢查
func (h *LotHandler) UpdateLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場ID", "ERR_INVALID_ID", err.Error())
		return
	}

	var req models.UpdateParkingLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "ERR_INVALID_INPUT", err.Error())
		return
	}

	lot, err := h.lots.UpdateLot(id, &req)
	if err != nil {
		log.Printf("Failed to update parking lot %d: %v", id, err)
		ServiceErrorResponse(c, "更新停車場失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "停車場更新成功", lot)
}

// DeleteLot 刪除停車場
func (h *LotHandler) DeleteLot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場ID", "ERR_INVALID_ID", err.Error())
		return
	}

	if err := h.lots.DeleteLot(id); err != nil {
		log.Printf("Failed to delete parking lot %d: %v", id, err)
		ServiceErrorResponse(c, "刪除停車場失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "停車場刪除成功", nil)
}

// ListLots 查詢所有停車場與車位統計
func (h *LotHandler) ListLots(c *gin.Context) {
	summaries, err := h.lots.ListLots()
	if err != nil {
		ServiceErrorResponse(c, "查詢停車場失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", summaries)
}

// GetLotSpots 管理端查詢停車場的車位明細
func (h *LotHandler) GetLotSpots(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的停車場ID", "ERR_INVALID_ID", err.Error())
		return
	}

	lot, spots, err := h.lots.GetLotSpots(id)
	if err != nil {
		ServiceErrorResponse(c, "查詢車位明細失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", gin.H{
		"lot":   lot,
		"spots": spots,
	})
}
