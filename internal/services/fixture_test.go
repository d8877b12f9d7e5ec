package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/notify"
	"github.com/diewo77/go-taxprep/internal/reference"
	"github.com/diewo77/go-taxprep/internal/testdb"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

type fixture struct {
	db        *gorm.DB
	ref       *reference.Store
	quotes    *QuoteService
	checklist *ChecklistService
	answers   *AnswerService
	sent      *recordingNotifier
}

func uintPtr(v uint) *uint { return &v }

// newFixture builds account 10 with filers 100 and 101 under product 5 (direct
// deposit fee 5.00), filer 102 under product 6 (no fee), and a small
// questionnaire where (7, "Yes") requires checklist item 3 "T4".
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return seedFixture(t, testdb.Open(t))
}

func seedFixture(t *testing.T, conn *gorm.DB) *fixture {
	t.Helper()
	rows := []any{
		&models.Account{ID: 10, Email: "jane@example.com", Password: "x", FirstName: "Jane", LastName: "Doe", Role: models.RoleUser},
		&models.Account{ID: 20, Email: "other@example.com", Password: "x", Role: models.RoleUser},
		&models.Product{ID: 5, Name: "Personal Tax Return 2025", Year: 2025},
		&models.Product{ID: 6, Name: "Unpriced product", Year: 2025},
		&models.DirectDepositFee{ProductID: 5, Amount: decimal.RequireFromString("5.00")},
		&models.TaxReturnStatus{ID: 1, Name: "new", DisplayName: "New", Position: 1},
		&models.TaxReturnStatus{ID: 2, Name: "filed", DisplayName: "Filed", Position: 2},
		&models.TaxReturn{ID: 100, AccountID: 10, ProductID: 5, FirstName: "Jane", LastName: "Doe", FilerType: models.FilerPrimary, StatusID: 1},
		&models.TaxReturn{ID: 101, AccountID: 10, ProductID: 5, FirstName: "John", LastName: "Doe", FilerType: models.FilerSpouse, StatusID: 1},
		&models.TaxReturn{ID: 102, AccountID: 10, ProductID: 6, FirstName: "Jane", LastName: "Doe", FilerType: models.FilerPrimary, StatusID: 1},
		&models.Category{ID: 1, Name: "Income", Position: 1},
		&models.Question{ID: 9, CategoryID: 1, Type: models.QuestionYesNo, Text: "Do you claim the rent credit?", Position: 3},
		&models.Question{ID: 7, CategoryID: 1, Type: models.QuestionYesNo, Text: "Were you employed?", Position: 1},
		&models.Question{ID: 8, CategoryID: 1, LinkedQuestionID: uintPtr(9), Type: models.QuestionYesNo, Text: "Did you rent your home?", Position: 2},
		&models.ChecklistItem{ID: 3, Name: "T4", Description: "Employment income slip"},
		&models.ChecklistItem{ID: 4, Name: "Rent receipts", Description: "Receipts for rent paid"},
		&models.ChecklistRule{QuestionID: 7, Value: "Yes", ChecklistItemID: 3},
		&models.ChecklistRule{QuestionID: 7, Value: "No", ChecklistItemID: 4},
		&models.ChecklistRule{QuestionID: 8, Value: "Yes", ChecklistItemID: 4},
	}
	for _, r := range rows {
		if err := conn.Create(r).Error; err != nil {
			t.Fatalf("fixture %T: %v", r, err)
		}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ref := reference.NewStore(conn, time.Minute)
	sent := &recordingNotifier{}
	return &fixture{
		db:        conn,
		ref:       ref,
		quotes:    NewQuoteService(conn, ref, log, sent),
		checklist: NewChecklistService(conn, ref, log),
		answers:   NewAnswerService(conn, ref),
		sent:      sent,
	}
}

func scenarioInput() BuildQuoteInput {
	return BuildQuoteInput{
		AccountID: 10,
		ProductID: 5,
		LineItems: []FilerLineItem{
			{TaxReturnID: 100, Price: decimal.RequireFromString("80.00")},
			{TaxReturnID: 101, Price: decimal.RequireFromString("90.00")},
		},
	}
}
