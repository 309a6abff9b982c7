package utils

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTSecret 簽發與驗證 token 用的密鑰，啟動時由 InitJWTSecret 載入
var JWTSecret []byte

// InitJWTSecret 從環境變數載入 JWT 密鑰
func InitJWTSecret() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "vparking-dev-secret"
		log.Println("JWT_SECRET not set, using development default")
	}
	JWTSecret = []byte(secret)
}

// GenerateToken 簽發帶 user_id 與 role 的 token，24 小時後過期
func GenerateToken(userID int, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(JWTSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
