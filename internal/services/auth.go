package services

import (
	"errors"
	"regexp"
	"time"

	"github.com/coletiva/backend/internal/config"
	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/utils"
	"github.com/coletiva/backend/pkg/logger"
	"github.com/coletiva/backend/pkg/response"
	"gorm.io/gorm"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

// AuthService handles registration, login and the seeded admin account.
type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// RegisterInput is the self-service participant signup payload.
type RegisterInput struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
}

// LoginInput authenticates by phone number.
type LoginInput struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is a signed token plus the authenticated user.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a participant account. Phone numbers are the login
// identity and must be unique.
func (s *AuthService) Register(in *RegisterInput) (*AuthResult, error) {
	if !phonePattern.MatchString(in.Phone) {
		return nil, response.NewBadRequest("invalid phone number")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Password:  hash,
		Role:      "participant",
		IsActive:  true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("phone number already registered")
		}
		return nil, err
	}

	token, err := utils.GenerateToken(user.ID, user.Phone, user.Role, s.cfg.JWT.ExpireHour)
	if err != nil {
		return nil, err
	}

	logger.Info().Uint("user_id", user.ID).Msg("user registered")
	return &AuthResult{Token: token, User: &user}, nil
}

// Login verifies credentials and issues a token. Failures stay deliberately
// vague so the response does not reveal whether the phone exists.
func (s *AuthService) Login(in *LoginInput) (*AuthResult, error) {
	var user models.User
	err := s.db.Where("phone = ?", in.Phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewUnauthorized("invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, response.NewUnauthorized("account is disabled")
	}
	if !utils.CheckPassword(in.Password, user.Password) {
		return nil, response.NewUnauthorized("invalid credentials")
	}

	token, err := utils.GenerateToken(user.ID, user.Phone, user.Role, s.cfg.JWT.ExpireHour)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s.db.Model(&user).Update("last_login", now)
	user.LastLogin = &now

	return &AuthResult{Token: token, User: &user}, nil
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(userID uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("user not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateAdminIfNotExists seeds the bootstrap admin account on first start.
func (s *AuthService) CreateAdminIfNotExists() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}

	admin := models.User{
		FirstName: "Admin",
		LastName:  "Coletiva",
		Phone:     "+0000000000",
		Password:  hash,
		Role:      "admin",
		IsActive:  true,
	}
	if err := s.db.Create(&admin).Error; err != nil {
		return err
	}

	logger.Warn().Msg("seeded default admin account (+0000000000 / admin123), change the password")
	return nil
}
