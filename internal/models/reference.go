package models

import (
	"github.com/shopspring/decimal"
)

// Reference data below is seeded by migrations and only read by the application.

// Product is a sellable tax-preparation offering, usually one per tax year.
type Product struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	Year int    `gorm:"not null" json:"year"`
}

// DirectDepositFee is the per-product charge for the opt-in direct deposit line item.
type DirectDepositFee struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ProductID uint            `gorm:"uniqueIndex;not null" json:"product_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
}

// Category groups questionnaire questions into sections.
type Category struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Position int    `gorm:"default:0" json:"position"`
}

// Question types.
const (
	QuestionYesNo = "yes_no"
	QuestionText  = "text"
	QuestionEnum  = "enum"
)

// Question is a questionnaire entry. When LinkedQuestionID is set, answers saved
// for this question are copied to the linked question for the same tax return.
type Question struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	CategoryID       uint   `gorm:"index;not null" json:"category_id"`
	LinkedQuestionID *uint  `json:"linked_question_id,omitempty"`
	Type             string `gorm:"size:20;not null" json:"type"`
	Text             string `gorm:"size:500;not null" json:"text"`
	Position         int    `gorm:"default:0" json:"position"`
}

// ChecklistItem is a document type a filer may be required to provide.
type ChecklistItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"size:1000" json:"description"`
}

// ChecklistRule maps an answer (QuestionID, Value) to a required ChecklistItem.
type ChecklistRule struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	QuestionID      uint   `gorm:"index:idx_rule_question_value;not null" json:"question_id"`
	Value           string `gorm:"index:idx_rule_question_value;size:255;not null" json:"value"`
	ChecklistItemID uint   `gorm:"not null" json:"checklist_item_id"`
}

// TaxReturnStatus is an entry of the tax return workflow, e.g. "in_review".
type TaxReturnStatus struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:50;not null" json:"name"`
	DisplayName string `gorm:"size:100;not null" json:"display_name"`
	Position    int    `gorm:"default:0" json:"position"`
}
