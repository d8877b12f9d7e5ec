package services

import (
	"context"
	"errors"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/reference"
	"github.com/diewo77/go-taxprep/validation"
	"gorm.io/gorm"
)

// initialStatus is assigned to new tax returns.
const initialStatus = "new"

// TaxReturnInput describes a filer to add to an account.
type TaxReturnInput struct {
	ProductID uint   `json:"product_id" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	FilerType string `json:"filer_type" validate:"required,oneof=primary spouse dependent"`
}

// TaxReturnService manages filers.
type TaxReturnService struct {
	db  *gorm.DB
	ref *reference.Store
}

func NewTaxReturnService(db *gorm.DB, ref *reference.Store) *TaxReturnService {
	return &TaxReturnService{db: db, ref: ref}
}

// Create adds a filer to the account under a product.
func (s *TaxReturnService) Create(ctx context.Context, accountID uint, in TaxReturnInput) (*models.TaxReturn, error) {
	if err := validation.Struct(in).Err("invalid tax return"); err != nil {
		return nil, err
	}
	if _, err := loadAccount(ctx, s.db, accountID); err != nil {
		return nil, err
	}
	if _, err := s.ref.Product(ctx, in.ProductID); err != nil {
		return nil, err
	}
	status, err := s.ref.StatusByName(ctx, initialStatus)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Configuration("initial tax return status %q is not configured", initialStatus)
	}
	if err != nil {
		return nil, err
	}
	tr := models.TaxReturn{
		AccountID: accountID,
		ProductID: in.ProductID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		FilerType: in.FilerType,
		StatusID:  status.ID,
	}
	if err := s.db.WithContext(ctx).Create(&tr).Error; err != nil {
		return nil, apperr.Storage("create tax return", err)
	}
	tr.Status = status
	return &tr, nil
}

// List returns the account's filers, optionally limited to one product.
func (s *TaxReturnService) List(ctx context.Context, accountID, productID uint) ([]models.TaxReturn, error) {
	q := s.db.WithContext(ctx).Preload("Status").Where("account_id = ?", accountID)
	if productID > 0 {
		q = q.Where("product_id = ?", productID)
	}
	var out []models.TaxReturn
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Storage("list tax returns", err)
	}
	return out, nil
}

// Get returns a tax return by id.
func (s *TaxReturnService) Get(ctx context.Context, id uint) (*models.TaxReturn, error) {
	return loadTaxReturn(ctx, s.db, id)
}

// UpdateStatus moves a tax return to the named status.
func (s *TaxReturnService) UpdateStatus(ctx context.Context, id uint, statusName string) (*models.TaxReturn, error) {
	if statusName == "" {
		return nil, apperr.Validation("invalid status", map[string]string{"status": "required"})
	}
	tr, err := loadTaxReturn(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	status, err := s.ref.StatusByName(ctx, statusName)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Validation("invalid status", map[string]string{"status": "unknown"})
	}
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(tr).Update("status_id", status.ID).Error; err != nil {
		return nil, apperr.Storage("update status", err)
	}
	tr.StatusID = status.ID
	tr.Status = status
	return tr, nil
}
