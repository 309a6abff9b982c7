package routes

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"vparking/handlers"
	"vparking/models"
	"vparking/utils"
)

// AuthMiddleware 驗證 JWT token，並提取 user_id 和 role
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "缺少 Authorization 標頭",
				"error":   "Authorization header is required",
				"code":    "ERR_NO_AUTH_HEADER",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 Authorization 格式",
				"error":   "Authorization header must be in the format 'Bearer <token>'",
				"code":    "ERR_INVALID_AUTH_FORMAT",
			})
			c.Abort()
			return
		}

		tokenString := parts[1]

		// 明確要求檢查 exp 字段
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return utils.JWTSecret, nil
		}, jwt.WithExpirationRequired())

		if err != nil {
			log.Printf("Token parsing error: %v", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "token 已過期",
					"error":   "Token has expired",
					"code":    "ERR_TOKEN_EXPIRED",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"status":  false,
					"message": "無效的 token",
					"error":   err.Error(),
					"code":    "ERR_INVALID_TOKEN",
				})
			}
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的 token 內容",
				"error":   "Invalid token claims or token is not valid",
				"code":    "ERR_INVALID_CLAIMS",
			})
			c.Abort()
			return
		}

		userID, ok := claims["user_id"].(float64)
		if !ok {
			log.Printf("Missing or invalid user_id in token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的會員 ID",
				"error":   "Invalid user_id in token",
				"code":    "ERR_INVALID_USER_ID",
			})
			c.Abort()
			return
		}

		role, ok := claims["role"].(string)
		if !ok || (role != models.RoleUser && role != models.RoleAdmin) {
			log.Printf("Missing or invalid role in token: %v", role)
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色",
				"error":   "Invalid role in token",
				"code":    "ERR_INVALID_ROLE",
			})
			c.Abort()
			return
		}

		log.Printf("Token verified for user_id: %d, role: %s, exp=%v, current_time=%v",
			int(userID), role, claims["exp"], time.Now().Unix())
		c.Set("user_id", int(userID))
		c.Set("role", role)

		c.Next()
	}
}

// RoleMiddleware 檢查使用者角色是否符合要求，admin 一律放行
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無法獲取角色資訊",
				"error":   "Role not found in context",
				"code":    "ERR_ROLE_NOT_FOUND",
			})
			c.Abort()
			return
		}

		roleStr, ok := role.(string)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"status":  false,
				"message": "無效的角色類型",
				"error":   "Invalid role type",
				"code":    "ERR_INVALID_ROLE_TYPE",
			})
			c.Abort()
			return
		}

		if roleStr == models.RoleAdmin {
			c.Next()
			return
		}

		allowed := false
		for _, allowedRole := range allowedRoles {
			if roleStr == allowedRole {
				allowed = true
				break
			}
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"status":  false,
				"message": "權限不足",
				"error":   "Insufficient role permissions",
				"code":    "ERR_INSUFFICIENT_PERMISSIONS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Handlers 彙整註冊路由所需的 handler
type Handlers struct {
	Users    *handlers.UserHandler
	Lots     *handlers.LotHandler
	Bookings *handlers.BookingHandler
	Reports  *handlers.ReportHandler
}

func Path(router *gin.RouterGroup, h Handlers) {
	// 版本控制
	v1 := router.Group("/v1")
	{
		// 測試路由
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "pong"})
		})

		// 會員路由
		users := v1.Group("/users")
		{
			// 公開路由：不需要 token 驗證
			users.POST("/register", h.Users.Register) // 註冊會員
			users.POST("/login", h.Users.Login)       // 登入並獲取 token

			// 受保護路由：需要 token 驗證
			usersWithAuth := users.Group("")
			usersWithAuth.Use(AuthMiddleware())
			{
				usersWithAuth.GET("/profile", h.Users.GetProfile)
				usersWithAuth.PUT("/profile", h.Users.UpdateProfile)
				// 管理員專屬路由
				usersWithAuth.GET("/all", RoleMiddleware(models.RoleAdmin), h.Users.GetAllUsers)
				usersWithAuth.DELETE("/:id", RoleMiddleware(models.RoleAdmin), h.Users.DeleteUser)
			}
		}

		// 停車場路由
		lots := v1.Group("/lots")
		lots.Use(AuthMiddleware())
		{
			// 查詢停車場與剩餘車位：所有已認證使用者
			lots.GET("", h.Lots.ListLots)
			// 管理員專屬：新增/編輯/刪除停車場與車位明細
			lots.POST("", RoleMiddleware(models.RoleAdmin), h.Lots.CreateLot)
			lots.PUT("/:id", RoleMiddleware(models.RoleAdmin), h.Lots.UpdateLot)
			lots.DELETE("/:id", RoleMiddleware(models.RoleAdmin), h.Lots.DeleteLot)
			lots.GET("/:id/spots", RoleMiddleware(models.RoleAdmin), h.Lots.GetLotSpots)
		}

		// 預約路由
		reservations := v1.Group("/reservations")
		reservations.Use(AuthMiddleware())
		{
			reservations.POST("", RoleMiddleware(models.RoleUser), h.Bookings.BookSpots)              // 訂位
			reservations.POST("/release", RoleMiddleware(models.RoleUser), h.Bookings.ReleaseMany)    // 批次結算
			reservations.POST("/:id/release", RoleMiddleware(models.RoleUser), h.Bookings.ReleaseOne) // 結算並釋放
			reservations.GET("", RoleMiddleware(models.RoleUser), h.Bookings.ListMyReservations)      // 查詢自己的記錄
		}

		// 報表路由
		reports := v1.Group("/reports")
		reports.Use(AuthMiddleware())
		{
			reports.GET("/summary", RoleMiddleware(models.RoleAdmin), h.Reports.AdminReport)
			reports.GET("/me", RoleMiddleware(models.RoleUser), h.Reports.MyReport)
		}
	}
}
