package models

import "time"

// Filer types.
const (
	FilerPrimary   = "primary"
	FilerSpouse    = "spouse"
	FilerDependent = "dependent"
)

// TaxReturn is one filer's return under an account and product.
// The filers of a quote are the tax returns sharing its account and product.
type TaxReturn struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	AccountID uint             `gorm:"index:idx_tax_return_filer;not null" json:"account_id"`
	ProductID uint             `gorm:"index:idx_tax_return_filer;not null" json:"product_id"`
	FirstName string           `gorm:"size:100;not null" json:"first_name"`
	LastName  string           `gorm:"size:100" json:"last_name"`
	FilerType string           `gorm:"size:20;not null" json:"filer_type"`
	StatusID  uint             `gorm:"index" json:"status_id"`
	Status    *TaxReturnStatus `gorm:"foreignKey:StatusID" json:"status,omitempty"`
}

// GetAccountID returns the owning account, used for ownership checks.
func (t *TaxReturn) GetAccountID() uint {
	return t.AccountID
}

// Answer is a filer's response to a question. There is at most one per
// (TaxReturnID, QuestionID).
type Answer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	TaxReturnID uint      `gorm:"uniqueIndex:idx_answer_return_question;not null" json:"tax_return_id"`
	QuestionID  uint      `gorm:"uniqueIndex:idx_answer_return_question;not null" json:"question_id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
}
