package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/metrics"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/notify"
	"github.com/diewo77/go-taxprep/internal/reference"
	"github.com/diewo77/go-taxprep/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaxRate is applied to billable line items.
var TaxRate = decimal.RequireFromString("0.13")

// FilerLineItem is the price requested for one filer's tax preparation.
type FilerLineItem struct {
	TaxReturnID uint            `json:"taxReturnId" validate:"required"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Notes       string          `json:"notes,omitempty" validate:"max=1000"`
}

// BuildQuoteInput is the request to build or rebuild a quote.
type BuildQuoteInput struct {
	AccountID uint            `json:"accountId" validate:"required"`
	ProductID uint            `json:"productId" validate:"required"`
	LineItems []FilerLineItem `json:"lineItems" validate:"required,min=1,dive"`
}

// AdminLineItemInput is a staff-entered charge. Negative values are credits.
type AdminLineItemInput struct {
	TaxReturnID *uint           `json:"taxReturnId"`
	Text        string          `json:"text" validate:"required,max=255"`
	Value       decimal.Decimal `json:"value"`
	Notes       string          `json:"notes,omitempty" validate:"max=1000"`
}

// QuoteTotals is a quote with its line items and computed amounts.
type QuoteTotals struct {
	ID             uint                        `json:"id"`
	AccountID      uint                        `json:"accountId"`
	ProductID      uint                        `json:"productId"`
	TaxReturns     []models.TaxReturn          `json:"taxReturns"`
	QuoteLineItems []models.QuoteLineItem      `json:"quoteLineItems"`
	AdminLineItems []models.AdminQuoteLineItem `json:"adminLineitems"`
	Subtotal       Money                       `json:"subtotal"`
	Tax            Money                       `json:"tax"`
	Total          Money                       `json:"total"`
}

// QuoteService prices quotes.
type QuoteService struct {
	db       *gorm.DB
	ref      *reference.Store
	log      *slog.Logger
	notifier notify.Notifier
}

func NewQuoteService(db *gorm.DB, ref *reference.Store, log *slog.Logger, n notify.Notifier) *QuoteService {
	return &QuoteService{db: db, ref: ref, log: log, notifier: n}
}

var lineItemKey = []clause.Column{{Name: "quote_id"}, {Name: "tax_return_id"}, {Name: "text"}}

// BuildQuote creates or refreshes the quote for an account and product. Each
// filer gets a "Tax Prep." item at the requested price and a "Direct Deposit"
// item at the product's fee. Direct deposit starts disabled; a rebuild keeps the
// customer's choice. All writes happen in one transaction.
func (s *QuoteService) BuildQuote(ctx context.Context, in BuildQuoteInput) (uint, error) {
	if err := validation.Struct(in).Err("invalid quote request"); err != nil {
		return 0, err
	}
	seen := make(map[uint]bool, len(in.LineItems))
	for i, li := range in.LineItems {
		if seen[li.TaxReturnID] {
			return 0, apperr.Validation("invalid quote request", map[string]string{
				fmt.Sprintf("lineItems[%d].taxReturnId", i): "duplicate",
			})
		}
		seen[li.TaxReturnID] = true
	}

	account, err := loadAccount(ctx, s.db, in.AccountID)
	if err != nil {
		return 0, err
	}
	if _, err := s.ref.Product(ctx, in.ProductID); err != nil {
		return 0, err
	}
	fee, err := s.ref.DirectDepositFee(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, apperr.ErrConfiguration) {
			metrics.ConfigurationErrors.WithLabelValues("build_quote").Inc()
			s.log.ErrorContext(ctx, "cannot build quote", "account_id", in.AccountID, "product_id", in.ProductID, "error", err)
		}
		return 0, err
	}
	rows, err := filers(ctx, s.db, in.AccountID, in.ProductID)
	if err != nil {
		return 0, err
	}
	owned := filerIDs(rows)
	for _, li := range in.LineItems {
		if !owned[li.TaxReturnID] {
			return 0, apperr.NotFound("tax return %d not found for account %d and product %d", li.TaxReturnID, in.AccountID, in.ProductID)
		}
	}

	var quoteID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quote := models.Quote{AccountID: in.AccountID, ProductID: in.ProductID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&quote).Error; err != nil {
			return fmt.Errorf("create quote: %w", err)
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_id = ? AND product_id = ?", in.AccountID, in.ProductID).
			First(&quote).Error; err != nil {
			return fmt.Errorf("lock quote: %w", err)
		}
		quoteID = quote.ID

		for _, li := range in.LineItems {
			if err := ctx.Err(); err != nil {
				return err
			}
			trID := li.TaxReturnID
			prep := models.QuoteLineItem{
				QuoteID:     quote.ID,
				TaxReturnID: &trID,
				Text:        models.LineItemTaxPrep,
				Value:       li.Price,
				Enabled:     true,
				Notes:       li.Notes,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   lineItemKey,
				DoUpdates: clause.AssignmentColumns([]string{"value", "enabled", "notes", "updated_at"}),
			}).Create(&prep).Error; err != nil {
				return fmt.Errorf("upsert tax prep for return %d: %w", trID, err)
			}

			deposit := models.QuoteLineItem{
				QuoteID:     quote.ID,
				TaxReturnID: &trID,
				Text:        models.LineItemDirectDeposit,
				Value:       fee,
				Enabled:     false,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   lineItemKey,
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&deposit).Error; err != nil {
				return fmt.Errorf("upsert direct deposit for return %d: %w", trID, err)
			}
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, apperr.Storage("build quote", ctxErr)
		}
		return 0, apperr.Storage("build quote", err)
	}

	metrics.QuotesBuilt.Inc()
	s.log.InfoContext(ctx, "quote built", "quote_id", quoteID, "account_id", in.AccountID, "product_id", in.ProductID, "filers", len(in.LineItems))
	notify.Send(ctx, s.notifier, s.log, notify.Notification{
		To:      account.Email,
		Subject: "Your tax preparation quote is ready",
		Body:    fmt.Sprintf("Hello %s,\n\nYour quote #%d has been prepared. Sign in to review it and choose direct deposit.\n", account.FirstName, quoteID),
	})
	return quoteID, nil
}

// GetQuoteTotals loads a quote with its filers and line items and computes
// subtotal, tax and total. Disabled items are listed only when includeDisabled
// is set and never count toward the amounts.
func (s *QuoteService) GetQuoteTotals(ctx context.Context, quoteID uint, includeDisabled bool) (*QuoteTotals, error) {
	quote, err := loadQuote(ctx, s.db, quoteID)
	if err != nil {
		return nil, err
	}
	returns, err := filers(ctx, s.db, quote.AccountID, quote.ProductID)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("quote_id = ?", quote.ID)
	if !includeDisabled {
		q = q.Where("enabled = ?", true)
	}
	var items []models.QuoteLineItem
	if err := q.Find(&items).Error; err != nil {
		return nil, apperr.Storage("load line items", err)
	}
	sortLineItems(items)

	var admin []models.AdminQuoteLineItem
	if err := s.db.WithContext(ctx).Where("quote_id = ?", quote.ID).Order("id").Find(&admin).Error; err != nil {
		return nil, apperr.Storage("load admin line items", err)
	}

	subtotal, tax, total := computeTotals(filerIDs(returns), items, admin)
	return &QuoteTotals{
		ID:             quote.ID,
		AccountID:      quote.AccountID,
		ProductID:      quote.ProductID,
		TaxReturns:     returns,
		QuoteLineItems: items,
		AdminLineItems: admin,
		Subtotal:       Money(subtotal),
		Tax:            Money(tax),
		Total:          Money(total),
	}, nil
}

// computeTotals sums exactly and rounds half-up to cents once at the end.
// Only enabled items are billed; tax applies to items of the quote's filers.
// Admin items are always billed and taxed.
func computeTotals(filerSet map[uint]bool, items []models.QuoteLineItem, admin []models.AdminQuoteLineItem) (subtotal, tax, total decimal.Decimal) {
	for _, li := range items {
		if !li.Enabled {
			continue
		}
		subtotal = subtotal.Add(li.Value)
		if li.TaxReturnID != nil && filerSet[*li.TaxReturnID] {
			tax = tax.Add(li.Value.Mul(TaxRate))
		}
	}
	for _, a := range admin {
		subtotal = subtotal.Add(a.Value)
		tax = tax.Add(a.Value.Mul(TaxRate))
	}
	total = subtotal.Add(tax).Round(2)
	return subtotal.Round(2), tax.Round(2), total
}

// sortLineItems orders by tax return (unassigned first), then value
// descending, then id.
func sortLineItems(items []models.QuoteLineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.TaxReturnID == nil && b.TaxReturnID != nil:
			return true
		case a.TaxReturnID != nil && b.TaxReturnID == nil:
			return false
		case a.TaxReturnID != nil && *a.TaxReturnID != *b.TaxReturnID:
			return *a.TaxReturnID < *b.TaxReturnID
		}
		if c := a.Value.Cmp(b.Value); c != 0 {
			return c > 0
		}
		return a.ID < b.ID
	})
}

// SetLineItemEnabled opts a filer in or out of direct deposit.
func (s *QuoteService) SetLineItemEnabled(ctx context.Context, quoteID, itemID uint, enabled bool) (*models.QuoteLineItem, error) {
	var item models.QuoteLineItem
	err := s.db.WithContext(ctx).Where("id = ? AND quote_id = ?", itemID, quoteID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("line item %d not found on quote %d", itemID, quoteID)
	}
	if err != nil {
		return nil, apperr.Storage("load line item", err)
	}
	if item.Text != models.LineItemDirectDeposit {
		return nil, apperr.Validation("only direct deposit can be toggled", map[string]string{"itemId": "not_optional"})
	}
	if err := s.db.WithContext(ctx).Model(&item).Update("enabled", enabled).Error; err != nil {
		return nil, apperr.Storage("update line item", err)
	}
	item.Enabled = enabled
	return &item, nil
}

// AddAdminLineItem attaches a staff charge to a quote. A tax return, when
// given, must be one of the quote's filers.
func (s *QuoteService) AddAdminLineItem(ctx context.Context, quoteID uint, in AdminLineItemInput) (*models.AdminQuoteLineItem, error) {
	if err := validation.Struct(in).Err("invalid admin line item"); err != nil {
		return nil, err
	}
	quote, err := loadQuote(ctx, s.db, quoteID)
	if err != nil {
		return nil, err
	}
	if in.TaxReturnID != nil {
		returns, err := filers(ctx, s.db, quote.AccountID, quote.ProductID)
		if err != nil {
			return nil, err
		}
		if !filerIDs(returns)[*in.TaxReturnID] {
			return nil, apperr.NotFound("tax return %d is not a filer of quote %d", *in.TaxReturnID, quoteID)
		}
	}
	item := models.AdminQuoteLineItem{
		QuoteID:     quote.ID,
		TaxReturnID: in.TaxReturnID,
		Text:        in.Text,
		Value:       in.Value,
		Notes:       in.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, apperr.Storage("create admin line item", err)
	}
	return &item, nil
}

// DeleteAdminLineItem removes a staff charge from a quote.
func (s *QuoteService) DeleteAdminLineItem(ctx context.Context, quoteID, itemID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND quote_id = ?", itemID, quoteID).Delete(&models.AdminQuoteLineItem{})
	if res.Error != nil {
		return apperr.Storage("delete admin line item", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("admin line item %d not found on quote %d", itemID, quoteID)
	}
	return nil
}

// Quote returns the bare quote, used for ownership checks.
func (s *QuoteService) Quote(ctx context.Context, quoteID uint) (*models.Quote, error) {
	return loadQuote(ctx, s.db, quoteID)
}
