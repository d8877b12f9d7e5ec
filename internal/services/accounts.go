package services

import (
	"context"
	"errors"
	"strings"

	"github.com/diewo77/go-taxprep/auth"
	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/validation"
	"gorm.io/gorm"
)

// RegisterInput is a sign-up request.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// AccountService registers and authenticates accounts.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// Register creates a customer account.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validation.Struct(in).Err("invalid account"); err != nil {
		return nil, err
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
		return nil, apperr.Storage("check email", err)
	}
	if count > 0 {
		return nil, apperr.Validation("invalid account", map[string]string{"email": "taken"})
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Storage("hash password", err)
	}
	a := models.Account{
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, apperr.Storage("create account", err)
	}
	return &a, nil
}

// Authenticate checks credentials and returns the account.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	var a models.Account
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, apperr.Storage("load account", err)
	}
	if !auth.CheckPassword(a.Password, password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return &a, nil
}

// Exists reports whether the account is still present.
func (s *AccountService) Exists(ctx context.Context, id uint) bool {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// Get returns an account by id.
func (s *AccountService) Get(ctx context.Context, id uint) (*models.Account, error) {
	return loadAccount(ctx, s.db, id)
}

// EnsureAdmin creates a staff account with the given credentials, or promotes
// the account already registered under email. An existing password is kept.
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var existing models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != models.RoleAdmin {
			if err := s.db.WithContext(ctx).Model(&existing).Update("role", models.RoleAdmin).Error; err != nil {
				return nil, apperr.Storage("promote admin", err)
			}
			existing.Role = models.RoleAdmin
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Storage("load account", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperr.Storage("hash password", err)
	}
	a := models.Account{Email: email, Password: hash, Role: models.RoleAdmin}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, apperr.Storage("create admin", err)
	}
	return &a, nil
}
