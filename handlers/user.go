package handlers

import (
	"log"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"vparking/models"
	"vparking/services"
	"vparking/utils"
)

// 電子郵件驗證 regex
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// currentUserID 從 token 解析出的 context 取得使用者 ID
func currentUserID(c *gin.Context) (int, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		ErrorResponse(c, http.StatusUnauthorized, "未授權", "ERR_NO_USER_ID", "user_id not found in token")
		return 0, false
	}
	userID, ok := value.(int)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未授權", "ERR_INVALID_USER_ID", "invalid user_id type")
		return 0, false
	}
	return userID, true
}

// Register 註冊使用者資料檢查
func (h *UserHandler) Register(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "ERR_INVALID_INPUT", err.Error())
		return
	}

	if !emailRegex.MatchString(user.Email) {
		ErrorResponse(c, http.StatusBadRequest, "請提供有效的電子郵件地址", "ERR_INVALID_EMAIL", "invalid email format")
		return
	}

	// 驗證密碼：至少 8 個字元，包含字母和數字
	if len(user.Password) < 8 ||
		!regexp.MustCompile(`[a-zA-Z]`).MatchString(user.Password) ||
		!regexp.MustCompile(`[0-9]`).MatchString(user.Password) {
		ErrorResponse(c, http.StatusBadRequest, "密碼必須至少8個字符，包含字母和數字", "ERR_WEAK_PASSWORD", "password must be at least 8 characters with letters and digits")
		return
	}

	// 註冊走一般使用者，管理員只在啟動時建立
	user.Role = models.RoleUser

	if err := h.users.Register(&user); err != nil {
		log.Printf("Failed to register user %s: %v", user.Username, err)
		ServiceErrorResponse(c, "會員註冊失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "會員註冊成功", user.ToResponse())
}

// Login 登入並簽發 token
func (h *UserHandler) Login(c *gin.Context) {
	var loginData struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginData); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "ERR_INVALID_INPUT", err.Error())
		return
	}

	user, err := h.users.Login(loginData.Username, loginData.Password)
	if err != nil {
		log.Printf("Login failed for username %s: %v", loginData.Username, err)
		ErrorResponse(c, http.StatusUnauthorized, "登入失敗，檢查帳號或密碼", "ERR_LOGIN_FAILED", "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(user.UserID, user.Role)
	if err != nil {
		log.Printf("Failed to generate token for user %d: %v", user.UserID, err)
		ErrorResponse(c, http.StatusInternalServerError, "簽發 token 失敗", "ERR_TOKEN", err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "登入成功", gin.H{
		"token": token,
		"user":  user.ToResponse(),
	})
}

// GetProfile 查詢個人資料
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		ServiceErrorResponse(c, "查詢個人資料失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", user.ToResponse())
}

// UpdateProfile 更新個人資料
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("Invalid input data: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "無效的輸入資料", "ERR_INVALID_INPUT", err.Error())
		return
	}

	user, err := h.users.UpdateProfile(userID, &req)
	if err != nil {
		ServiceErrorResponse(c, "更新個人資料失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "個人資料更新成功", user.ToResponse())
}

// GetAllUsers 管理端查詢所有使用者
func (h *UserHandler) GetAllUsers(c *gin.Context) {
	users, err := h.users.ListUsers()
	if err != nil {
		ServiceErrorResponse(c, "查詢所有會員失敗", err)
		return
	}

	responses := make([]models.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}

	SuccessResponse(c, http.StatusOK, "查詢成功", responses)
}

// DeleteUser 管理端刪除使用者
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "無效的會員ID", "ERR_INVALID_ID", err.Error())
		return
	}

	if err := h.users.DeleteUser(id); err != nil {
		log.Printf("Failed to delete user %d: %v", id, err)
		ServiceErrorResponse(c, "刪除會員失敗", err)
		return
	}

	SuccessResponse(c, http.StatusOK, "會員刪除成功", nil)
}
