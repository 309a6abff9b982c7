package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"vparking/models"
	"vparking/utils"
)

// UserService 管理帳號：註冊、登入、個人資料與管理端操作
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register 註冊使用者，username 與 email 不可重複，密碼以 bcrypt 雜湊
func (s *UserService) Register(user *models.User) error {
	var existing models.User
	if err := s.db.Where("username = ?", user.Username).First(&existing).Error; err == nil {
		return fmt.Errorf("username %s is already in use: %w", user.Username, ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to check for duplicate username: %v", err)
		return fmt.Errorf("failed to check for duplicate username: %v: %w", err, ErrStorage)
	}
	if err := s.db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		return fmt.Errorf("email %s is already in use: %w", user.Email, ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Failed to check for duplicate email: %v", err)
		return fmt.Errorf("failed to check for duplicate email: %v: %w", err, ErrStorage)
	}

	hashedPassword, err := utils.HashPassword(user.Password)
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return fmt.Errorf("failed to hash password: %v: %w", err, ErrStorage)
	}
	user.Password = hashedPassword

	if user.Role == "" {
		user.Role = models.RoleUser
	}

	if err := s.db.Create(user).Error; err != nil {
		// 競態下先查再寫仍可能撞到唯一索引
		if mysqlErr, ok := err.(*mysql.MySQLError); ok && mysqlErr.Number == 1062 {
			return fmt.Errorf("username or email already in use: %w", ErrConflict)
		}
		log.Printf("Failed to register user: %v", err)
		return fmt.Errorf("failed to register user: %v: %w", err, ErrStorage)
	}

	log.Printf("Successfully registered user %d (%s)", user.UserID, user.Username)
	return nil
}

// Login 驗證帳號密碼，成功時回傳使用者
func (s *UserService) Login(username, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("User %s not found", username)
			return nil, fmt.Errorf("invalid username or password: %w", ErrNotFound)
		}
		log.Printf("Failed to query user %s: %v", username, err)
		return nil, fmt.Errorf("failed to query user: %v: %w", err, ErrStorage)
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		log.Printf("Invalid password for user %s", username)
		return nil, fmt.Errorf("invalid username or password: %w", ErrNotFound)
	}

	log.Printf("User %d (%s) logged in successfully", user.UserID, user.Username)
	return &user, nil
}

// GetByID 查詢使用者
func (s *UserService) GetByID(userID int) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		log.Printf("Failed to get user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to get user %d: %v: %w", userID, err, ErrStorage)
	}
	return &user, nil
}

// UpdateProfile 更新個人資料，帳號與密碼不在此處變更
func (s *UserService) UpdateProfile(userID int, req *models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.PinCode != nil {
		user.PinCode = *req.PinCode
	}
	if req.Mobile != nil {
		user.Mobile = *req.Mobile
	}

	if err := s.db.Save(user).Error; err != nil {
		log.Printf("Failed to update profile for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to update profile: %v: %w", err, ErrStorage)
	}

	log.Printf("Successfully updated profile for user %d", userID)
	return user, nil
}

// ListUsers 管理端：列出所有非 admin 使用者
func (s *UserService) ListUsers() ([]models.User, error) {
	var users []models.User
	if err := s.db.Where("role != ?", models.RoleAdmin).Order("user_id").Find(&users).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		return nil, fmt.Errorf("failed to list users: %v: %w", err, ErrStorage)
	}
	return users, nil
}

// DeleteUser 管理端：刪除使用者，有進行中預約時拒絕
func (s *UserService) DeleteUser(userID int) error {
	tx := s.db.Begin()

	var user models.User
	if err := tx.Where("user_id = ? AND role != ?", userID, models.RoleAdmin).First(&user).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return fmt.Errorf("failed to find user %d: %v: %w", userID, err, ErrStorage)
	}

	var active int64
	if err := tx.Model(&models.Reservation{}).
		Where("user_id = ? AND status = ?", userID, models.ReservationActive).
		Count(&active).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to count active reservations for user %d: %v", userID, err)
		return fmt.Errorf("failed to count active reservations: %v: %w", err, ErrStorage)
	}
	if active > 0 {
		tx.Rollback()
		log.Printf("Cannot delete user %d: %d active reservations", userID, active)
		return fmt.Errorf("user %d has %d active reservations: %w", userID, active, ErrConflict)
	}

	if err := tx.Delete(&user).Error; err != nil {
		tx.Rollback()
		log.Printf("Failed to delete user %d: %v", userID, err)
		return fmt.Errorf("failed to delete user: %v: %w", err, ErrStorage)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %v: %w", err, ErrStorage)
	}

	log.Printf("Successfully deleted user %d", userID)
	return nil
}

// EnsureAdmin 確保預設管理員存在，啟動時呼叫
func (s *UserService) EnsureAdmin(password string) error {
	var admin models.User
	if err := s.db.Where("role = ?", models.RoleAdmin).First(&admin).Error; err == nil {
		log.Printf("Admin already exists: username=%s", admin.Username)
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin: %v: %w", err, ErrStorage)
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %v: %w", err, ErrStorage)
	}

	admin = models.User{
		Username: "admin",
		Email:    "admin@parking.com",
		Password: hashedPassword,
		FullName: "Administrator",
		Role:     models.RoleAdmin,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create default admin: %v: %w", err, ErrStorage)
	}

	log.Printf("Default admin created: username=%s", admin.Username)
	return nil
}
