package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vparking/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// AdminReport 管理端總覽報表
func (h *ReportHandler) AdminReport(c *gin.Context) {
	report, err := h.reports.BuildAdminReport()
	if err != nil {
		ServiceErrorResponse(c, "產生報表失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", report)
}

// MyReport 使用者個人統計報表
func (h *ReportHandler) MyReport(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	report, err := h.reports.BuildUserReport(userID)
	if err != nil {
		ServiceErrorResponse(c, "產生報表失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", report)
}
