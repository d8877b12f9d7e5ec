package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Standard line item labels created per filer when a quote is built.
const (
	LineItemTaxPrep       = "Tax Prep."
	LineItemDirectDeposit = "Direct Deposit"
)

// Quote is the priced proposal for all filers of one account and product.
type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	AccountID uint      `gorm:"uniqueIndex:idx_quote_account_product;not null" json:"account_id"`
	ProductID uint      `gorm:"uniqueIndex:idx_quote_account_product;not null" json:"product_id"`
}

// GetAccountID returns the owning account, used for ownership checks.
func (q *Quote) GetAccountID() uint {
	return q.AccountID
}

// QuoteLineItem is a priced line of a quote, keyed by (QuoteID, TaxReturnID, Text).
type QuoteLineItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	QuoteID     uint            `gorm:"uniqueIndex:idx_quote_line_item_key;not null" json:"quote_id"`
	TaxReturnID *uint           `gorm:"uniqueIndex:idx_quote_line_item_key" json:"tax_return_id"`
	Text        string          `gorm:"uniqueIndex:idx_quote_line_item_key;size:100;not null" json:"text"`
	Value       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"value"`
	Enabled     bool            `gorm:"not null" json:"enabled"`
	Notes       string          `gorm:"size:1000" json:"notes,omitempty"`
}

// MarshalJSON renders Value with exactly two decimals, e.g. "80.00".
func (li QuoteLineItem) MarshalJSON() ([]byte, error) {
	type plain QuoteLineItem
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{plain(li), li.Value.StringFixed(2)})
}

// AdminQuoteLineItem is a freeform charge added by staff. It is always billed.
type AdminQuoteLineItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	QuoteID     uint            `gorm:"index;not null" json:"quote_id"`
	TaxReturnID *uint           `json:"tax_return_id"`
	Text        string          `gorm:"size:255;not null" json:"text"`
	Value       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"value"`
	Notes       string          `gorm:"size:1000" json:"notes,omitempty"`
}

// MarshalJSON renders Value with exactly two decimals.
func (li AdminQuoteLineItem) MarshalJSON() ([]byte, error) {
	type plain AdminQuoteLineItem
	return json.Marshal(struct {
		plain
		Value string `json:"value"`
	}{plain(li), li.Value.StringFixed(2)})
}
