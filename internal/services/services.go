// Package services implements the quote pricing and checklist engines and the
// account, filer, answer, document and message operations around them.
package services

import (
	"context"
	"errors"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Money marshals as a string with exactly two decimals, e.g. "192.10".
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(m).StringFixed(2) + `"`), nil
}

func (m Money) String() string { return decimal.Decimal(m).StringFixed(2) }

// filers returns the tax returns sharing the account and product, ordered by id.
func filers(ctx context.Context, db *gorm.DB, accountID, productID uint) ([]models.TaxReturn, error) {
	var rows []models.TaxReturn
	err := db.WithContext(ctx).
		Where("account_id = ? AND product_id = ?", accountID, productID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Storage("load filers", err)
	}
	return rows, nil
}

func filerIDs(rows []models.TaxReturn) map[uint]bool {
	ids := make(map[uint]bool, len(rows))
	for _, r := range rows {
		ids[r.ID] = true
	}
	return ids
}

// loadQuote fetches a quote or returns a not found error.
func loadQuote(ctx context.Context, db *gorm.DB, quoteID uint) (*models.Quote, error) {
	var q models.Quote
	err := db.WithContext(ctx).First(&q, quoteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("quote %d not found", quoteID)
	}
	if err != nil {
		return nil, apperr.Storage("load quote", err)
	}
	return &q, nil
}

// loadTaxReturn fetches a tax return or returns a not found error.
func loadTaxReturn(ctx context.Context, db *gorm.DB, id uint) (*models.TaxReturn, error) {
	var tr models.TaxReturn
	err := db.WithContext(ctx).First(&tr, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("tax return %d not found", id)
	}
	if err != nil {
		return nil, apperr.Storage("load tax return", err)
	}
	return &tr, nil
}

func loadAccount(ctx context.Context, db *gorm.DB, id uint) (*models.Account, error) {
	var a models.Account
	err := db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("account %d not found", id)
	}
	if err != nil {
		return nil, apperr.Storage("load account", err)
	}
	return &a, nil
}
