package models

import "time"

// Document is an uploaded file registered against a quote. A document with no
// checklist item is an additional document.
type Document struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	QuoteID         uint      `gorm:"index;not null" json:"quote_id"`
	TaxReturnID     *uint     `gorm:"index" json:"tax_return_id"`
	ChecklistItemID *uint     `json:"checklist_item_id"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	StorageKey      string    `gorm:"size:64;uniqueIndex" json:"-"`
	URL             string    `gorm:"size:1000;not null" json:"url"`
	ThumbnailURL    string    `gorm:"size:1000" json:"thumbnail_url,omitempty"`
}

// IsAdditional reports whether the document is not tied to a checklist item.
func (d *Document) IsAdditional() bool {
	return d.ChecklistItemID == nil || *d.ChecklistItemID == 0
}

// Message is a note exchanged between a customer and staff on a quote.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	QuoteID   uint      `gorm:"index;not null" json:"quote_id"`
	AccountID uint      `gorm:"not null" json:"account_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	FromAdmin bool      `gorm:"not null" json:"from_admin"`
}
