package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"reda-store/internal/apperr"
	"reda-store/internal/audit"
	"reda-store/internal/models"
)

var errBadLogin = apperr.New(apperr.Unauthorized, "Invalid email or password")

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role" binding:"required,oneof=OWNER ADMIN CASHIER"`
	RegisterCode string `json:"registerCode" binding:"required"`
}

// Session is a freshly signed token and the admin it belongs to.
type Session struct {
	Token string
	Admin models.Admin
}

type Service struct {
	db           *gorm.DB
	tokens       *Tokens
	registerCode string
}

func NewService(db *gorm.DB, tokens *Tokens, registerCode string) *Service {
	return &Service{db: db, tokens: tokens, registerCode: registerCode}
}

func (s *Service) Tokens() *Tokens { return s.tokens }

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Login verifies the credentials and issues a session token. Unknown email and
// wrong password give the same error.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	var admin models.Admin
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBadLogin
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if !CheckPassword(admin.PasswordHash, req.Password) {
		return nil, errBadLogin
	}

	token, err := s.tokens.Generate(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	if err := audit.Record(ctx, s.db, admin.ID, audit.Login, map[string]interface{}{"email": admin.Email}); err != nil {
		return nil, err
	}
	return &Session{Token: token, Admin: admin}, nil
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	if s.registerCode == "" || req.RegisterCode != s.registerCode {
		return nil, apperr.New(apperr.Forbidden, "Invalid register code")
	}
	switch req.Role {
	case models.RoleOwner, models.RoleAdmin, models.RoleCashier:
	default:
		return nil, apperr.Validation("Invalid role")
	}
	if len(req.Password) < 6 {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validation("Name is required")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	admin := models.Admin{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.New(apperr.Conflict, "Email already registered")
		}
		return nil, apperr.Storage(err)
	}

	token, err := s.tokens.Generate(admin.ID, admin.Email, admin.Role)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &Session{Token: token, Admin: admin}, nil
}

// Me loads the admin behind a validated token.
func (s *Service) Me(ctx context.Context, adminID string) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.WithContext(ctx).Where("id = ?", adminID).Take(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &admin, nil
}

// Seed creates the first owner account when the admins table is empty.
func (s *Service) Seed(ctx context.Context, name, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Admin{}).Count(&n).Error; err != nil {
		return false, apperr.Storage(err)
	}
	if n > 0 {
		return false, nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return false, apperr.Storage(err)
	}
	admin := models.Admin{Name: name, Email: strings.ToLower(email), PasswordHash: hash, Role: models.RoleOwner}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return false, apperr.Storage(err)
	}
	return true, nil
}
