package db

import (
	"fmt"

	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seed inserts the baseline reference data. It is idempotent: rows are matched on
// their natural key and only created when missing.
func Seed(conn *gorm.DB) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := seedStatuses(tx); err != nil {
			return err
		}
		products, err := seedProducts(tx)
		if err != nil {
			return err
		}
		for _, p := range products {
			fee := models.DirectDepositFee{ProductID: p.ID, Amount: decimal.RequireFromString("5.00")}
			if err := tx.Where("product_id = ?", p.ID).FirstOrCreate(&fee).Error; err != nil {
				return fmt.Errorf("seed direct deposit fee: %w", err)
			}
		}
		return seedQuestionnaire(tx)
	})
}

func seedStatuses(tx *gorm.DB) error {
	statuses := []models.TaxReturnStatus{
		{Name: "new", DisplayName: "New", Position: 1},
		{Name: "questionnaire", DisplayName: "Answering questionnaire", Position: 2},
		{Name: "documents", DisplayName: "Uploading documents", Position: 3},
		{Name: "in_review", DisplayName: "In review", Position: 4},
		{Name: "filed", DisplayName: "Filed", Position: 5},
	}
	for i := range statuses {
		if err := tx.Where("name = ?", statuses[i].Name).FirstOrCreate(&statuses[i]).Error; err != nil {
			return fmt.Errorf("seed status %s: %w", statuses[i].Name, err)
		}
	}
	return nil
}

func seedProducts(tx *gorm.DB) ([]models.Product, error) {
	products := []models.Product{
		{Name: "Personal Tax Return 2025", Year: 2025},
		{Name: "Personal Tax Return 2026", Year: 2026},
	}
	for i := range products {
		if err := tx.Where("name = ?", products[i].Name).FirstOrCreate(&products[i]).Error; err != nil {
			return nil, fmt.Errorf("seed product %s: %w", products[i].Name, err)
		}
	}
	return products, nil
}

type seedQuestion struct {
	text   string
	typ    string
	rules  map[string]string // answer value -> checklist item name
	linked string            // text of the question receiving the same answer
}

func seedQuestionnaire(tx *gorm.DB) error {
	items := []models.ChecklistItem{
		{Name: "T4", Description: "Statement of remuneration paid by each employer"},
		{Name: "T5", Description: "Statement of investment income"},
		{Name: "RRSP receipts", Description: "Contribution receipts for registered retirement savings plans"},
		{Name: "Tuition slip (T2202)", Description: "Tuition and enrolment certificate"},
		{Name: "Rent receipts", Description: "Receipts or lease showing rent paid during the year"},
		{Name: "Medical receipts", Description: "Receipts for eligible medical expenses"},
	}
	itemIDs := make(map[string]uint, len(items))
	for i := range items {
		if err := tx.Where("name = ?", items[i].Name).FirstOrCreate(&items[i]).Error; err != nil {
			return fmt.Errorf("seed checklist item %s: %w", items[i].Name, err)
		}
		itemIDs[items[i].Name] = items[i].ID
	}

	sections := []struct {
		category  models.Category
		questions []seedQuestion
	}{
		{
			category: models.Category{Name: "Income", Position: 1},
			questions: []seedQuestion{
				{text: "Were you employed during the year?", typ: models.QuestionYesNo, rules: map[string]string{"Yes": "T4"}},
				{text: "Did you earn interest or dividends?", typ: models.QuestionYesNo, rules: map[string]string{"Yes": "T5"}},
			},
		},
		{
			category: models.Category{Name: "Deductions", Position: 2},
			questions: []seedQuestion{
				{text: "Did you contribute to an RRSP?", typ: models.QuestionYesNo, rules: map[string]string{"Yes": "RRSP receipts"}},
				{text: "Were you a student?", typ: models.QuestionYesNo, rules: map[string]string{"Yes": "Tuition slip (T2202)"}},
				{text: "Did you have medical expenses?", typ: models.QuestionYesNo, rules: map[string]string{"Yes": "Medical receipts"}},
			},
		},
		{
			category: models.Category{Name: "Housing", Position: 3},
			questions: []seedQuestion{
				{text: "Did you rent your home?", typ: models.QuestionYesNo, rules: map[string]string{"Yes": "Rent receipts"}, linked: "Do you claim the rent credit?"},
				{text: "Do you claim the rent credit?", typ: models.QuestionYesNo},
			},
		},
	}

	questionIDs := make(map[string]uint)
	for _, s := range sections {
		cat := s.category
		if err := tx.Where("name = ?", cat.Name).FirstOrCreate(&cat).Error; err != nil {
			return fmt.Errorf("seed category %s: %w", cat.Name, err)
		}
		for pos, sq := range s.questions {
			q := models.Question{CategoryID: cat.ID, Type: sq.typ, Text: sq.text, Position: pos + 1}
			if err := tx.Where("text = ?", sq.text).FirstOrCreate(&q).Error; err != nil {
				return fmt.Errorf("seed question %q: %w", sq.text, err)
			}
			questionIDs[sq.text] = q.ID
		}
	}

	for _, s := range sections {
		for _, sq := range s.questions {
			qid := questionIDs[sq.text]
			if sq.linked != "" {
				linked := questionIDs[sq.linked]
				if err := tx.Model(&models.Question{}).Where("id = ?", qid).Update("linked_question_id", linked).Error; err != nil {
					return fmt.Errorf("link question %q: %w", sq.text, err)
				}
			}
			for value, itemName := range sq.rules {
				rule := models.ChecklistRule{QuestionID: qid, Value: value, ChecklistItemID: itemIDs[itemName]}
				if err := tx.Where("question_id = ? AND value = ? AND checklist_item_id = ?", qid, value, rule.ChecklistItemID).
					FirstOrCreate(&rule).Error; err != nil {
					return fmt.Errorf("seed rule for %q: %w", sq.text, err)
				}
			}
		}
	}
	return nil
}
