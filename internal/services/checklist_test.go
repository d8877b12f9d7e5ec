package services

import (
	"context"
	"testing"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildScenarioQuote(t *testing.T, f *fixture) uint {
	t.Helper()
	id, err := f.quotes.BuildQuote(context.Background(), scenarioInput())
	require.NoError(t, err)
	return id
}

func TestChecklistScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quoteID := buildScenarioQuote(t, f)

	_, err := f.answers.SaveAnswer(ctx, 100, 7, "Yes")
	require.NoError(t, err)

	got, err := f.checklist.GetChecklistForQuote(ctx, quoteID)
	require.NoError(t, err)
	require.Len(t, got.ChecklistItems, 1)
	item := got.ChecklistItems[0]
	assert.Equal(t, uint(3), item.ChecklistItemID)
	assert.Equal(t, "T4", item.Name)
	assert.Equal(t, []ChecklistFiler{{TaxReturnID: 100, FirstName: "Jane", LastName: "Doe"}}, item.Filers)
	assert.NotNil(t, item.Documents)
	assert.Empty(t, item.Documents)
	assert.Empty(t, got.AdditionalDocuments)
}

func TestChecklistIgnoresNoAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quoteID := buildScenarioQuote(t, f)

	// a rule exists for (7, "No"), it must still never fire
	_, err := f.answers.SaveAnswer(ctx, 100, 7, "No")
	require.NoError(t, err)

	got, err := f.checklist.GetChecklistForQuote(ctx, quoteID)
	require.NoError(t, err)
	assert.Empty(t, got.ChecklistItems)
}

func TestChecklistDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quoteID := buildScenarioQuote(t, f)

	for _, trID := range []uint{101, 100} {
		_, err := f.answers.SaveAnswer(ctx, trID, 7, "Yes")
		require.NoError(t, err)
	}
	docs := []models.Document{
		{QuoteID: quoteID, TaxReturnID: uintPtr(100), ChecklistItemID: uintPtr(3), Name: "t4-jane.pdf", StorageKey: "k1", URL: "https://files.example.com/k1"},
		{QuoteID: quoteID, Name: "notes.pdf", StorageKey: "k2", URL: "https://files.example.com/k2"},
		{QuoteID: quoteID, TaxReturnID: uintPtr(101), ChecklistItemID: uintPtr(4), Name: "lease.pdf", StorageKey: "k3", URL: "https://files.example.com/k3"},
		{QuoteID: quoteID, ChecklistItemID: uintPtr(0), Name: "misc.pdf", StorageKey: "k4", URL: "https://files.example.com/k4"},
		{QuoteID: quoteID, ChecklistItemID: uintPtr(3), Name: "t4-unassigned.pdf", StorageKey: "k5", URL: "https://files.example.com/k5"},
	}
	require.NoError(t, f.db.Create(&docs).Error)

	got, err := f.checklist.GetChecklistForQuote(ctx, quoteID)
	require.NoError(t, err)
	require.Len(t, got.ChecklistItems, 1)
	item := got.ChecklistItems[0]
	require.Len(t, item.Filers, 2)
	assert.Equal(t, uint(100), item.Filers[0].TaxReturnID)
	assert.Equal(t, uint(101), item.Filers[1].TaxReturnID)
	require.Len(t, item.Documents, 1)
	assert.Equal(t, "t4-jane.pdf", item.Documents[0].Name)

	var extra []string
	for _, d := range got.AdditionalDocuments {
		extra = append(extra, d.Name)
	}
	// lease.pdf belongs to an item nobody triggered, t4-unassigned.pdf has no filer
	assert.Equal(t, []string{"notes.pdf", "lease.pdf", "misc.pdf", "t4-unassigned.pdf"}, extra)

	again, err := f.checklist.GetChecklistForQuote(ctx, quoteID)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestChecklistMultipleItemsOrdered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quoteID := buildScenarioQuote(t, f)

	_, err := f.answers.SaveAnswer(ctx, 101, 8, "Yes")
	require.NoError(t, err)
	_, err = f.answers.SaveAnswer(ctx, 100, 7, "Yes")
	require.NoError(t, err)

	got, err := f.checklist.GetChecklistForQuote(ctx, quoteID)
	require.NoError(t, err)
	require.Len(t, got.ChecklistItems, 2)
	assert.Equal(t, uint(3), got.ChecklistItems[0].ChecklistItemID)
	assert.Equal(t, uint(4), got.ChecklistItems[1].ChecklistItemID)
	assert.Equal(t, uint(101), got.ChecklistItems[1].Filers[0].TaxReturnID)
}

func TestChecklistUnknownQuote(t *testing.T) {
	f := newFixture(t)
	_, err := f.checklist.GetChecklistForQuote(context.Background(), 777)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSaveAnswerLinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.answers.SaveAnswer(ctx, 100, 8, "Yes")
	require.NoError(t, err)
	assert.Equal(t, uint(8), a.QuestionID)

	var linked models.Answer
	require.NoError(t, f.db.Where("tax_return_id = ? AND question_id = ?", 100, 9).First(&linked).Error)
	assert.Equal(t, "Yes", linked.Text)

	_, err = f.answers.SaveAnswer(ctx, 100, 8, "No")
	require.NoError(t, err)
	require.NoError(t, f.db.Where("tax_return_id = ? AND question_id = ?", 100, 9).First(&linked).Error)
	assert.Equal(t, "No", linked.Text)

	all, err := f.answers.ListAnswers(ctx, 100)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint(8), all[0].QuestionID)
	assert.Equal(t, "No", all[0].Text)
}

func TestSaveAnswerRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tests := []struct {
		name     string
		returnID uint
		question uint
		text     string
		want     error
	}{
		{"blank text", 100, 7, "  ", apperr.ErrValidation},
		{"unknown return", 999, 7, "Yes", apperr.ErrNotFound},
		{"unknown question", 100, 999, "Yes", apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.answers.SaveAnswer(ctx, tt.returnID, tt.question, tt.text)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	_, err := f.answers.ListAnswers(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
