package models

// User 定義使用者模型，admin 也是一筆 user（role 區分）
type User struct {
	UserID       int           `json:"user_id" gorm:"primaryKey;autoIncrement;type:INT"`
	Username     string        `json:"username" gorm:"type:varchar(50);uniqueIndex;not null" binding:"required,max=50"`
	Email        string        `json:"email" gorm:"type:varchar(100);uniqueIndex;not null" binding:"required,email"`
	Password     string        `json:"password" gorm:"type:varchar(100);not null" binding:"required,min=8"`
	FullName     string        `json:"full_name" gorm:"type:varchar(100);not null" binding:"required,max=100"`
	Address      string        `json:"address" gorm:"type:varchar(200)" binding:"omitempty,max=200"`
	PinCode      string        `json:"pin_code" gorm:"type:varchar(10)" binding:"omitempty,max=10"`
	Mobile       string        `json:"mobile" gorm:"type:varchar(20)" binding:"omitempty,max=20"`
	Role         string        `json:"role" gorm:"type:varchar(10);not null;default:user"`
	// 預約是歷史帳，使用者刪除後仍保留，不建外鍵約束
	Reservations []Reservation `json:"-" gorm:"foreignKey:UserID;constraint:-"`
}

func (User) TableName() string {
	return "users"
}

// 角色常數
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type UserResponse struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	PinCode  string `json:"pin_code"`
	Mobile   string `json:"mobile"`
	Role     string `json:"role"`
}

// ToResponse 轉換為回應格式，不帶密碼
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		UserID:   u.UserID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Address:  u.Address,
		PinCode:  u.PinCode,
		Mobile:   u.Mobile,
		Role:     u.Role,
	}
}

// UpdateProfileRequest 用於 PUT 更新個人資料
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
	Address  *string `json:"address" binding:"omitempty,max=200"`
	PinCode  *string `json:"pin_code" binding:"omitempty,max=10"`
	Mobile   *string `json:"mobile" binding:"omitempty,max=20"`
}
