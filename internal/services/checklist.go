package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/metrics"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/reference"
	"gorm.io/gorm"
)

// answerNo never triggers a checklist rule.
const answerNo = "No"

// ChecklistFiler identifies a filer that needs a checklist item.
type ChecklistFiler struct {
	TaxReturnID uint   `json:"tax_return_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

// ChecklistEntry is a required document type with its uploads.
type ChecklistEntry struct {
	ChecklistItemID uint              `json:"checklist_item_id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Documents       []models.Document `json:"documents"`
	Filers          []ChecklistFiler  `json:"filers"`
}

// Checklist lists the documents a quote still needs.
type Checklist struct {
	ChecklistItems      []ChecklistEntry  `json:"checklistitems"`
	AdditionalDocuments []models.Document `json:"additionalDocuments"`
}

// ChecklistService derives checklists from questionnaire answers.
type ChecklistService struct {
	db  *gorm.DB
	ref *reference.Store
	log *slog.Logger
}

func NewChecklistService(db *gorm.DB, ref *reference.Store, log *slog.Logger) *ChecklistService {
	return &ChecklistService{db: db, ref: ref, log: log}
}

// GetChecklistForQuote returns the checklist items triggered by the answers of
// the quote's filers, ordered by item id, with the documents uploaded for each.
// Documents without an item or a filer, or whose item is no longer required,
// are returned as additional documents. Answers and documents are always read fresh.
func (s *ChecklistService) GetChecklistForQuote(ctx context.Context, quoteID uint) (*Checklist, error) {
	quote, err := loadQuote(ctx, s.db, quoteID)
	if err != nil {
		return nil, err
	}
	returns, err := filers(ctx, s.db, quote.AccountID, quote.ProductID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.TaxReturn, len(returns))
	ids := make([]uint, 0, len(returns))
	for _, r := range returns {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}

	var answers []models.Answer
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("tax_return_id IN ?", ids).Order("tax_return_id, id").Find(&answers).Error; err != nil {
			return nil, apperr.Storage("load answers", err)
		}
	}

	rules, err := s.ref.Rules(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := s.ref.ChecklistItems(ctx)
	if err != nil {
		return nil, err
	}

	triggered := map[uint]map[uint]bool{}
	for _, a := range answers {
		if strings.TrimSpace(a.Text) == answerNo {
			continue
		}
		for _, itemID := range rules.Match(a.QuestionID, a.Text) {
			if _, ok := catalog[itemID]; !ok {
				s.log.WarnContext(ctx, "checklist rule points at missing item", "question_id", a.QuestionID, "checklist_item_id", itemID)
				continue
			}
			if triggered[itemID] == nil {
				triggered[itemID] = map[uint]bool{}
			}
			triggered[itemID][a.TaxReturnID] = true
		}
	}

	var docs []models.Document
	if err := s.db.WithContext(ctx).Where("quote_id = ?", quote.ID).Order("id").Find(&docs).Error; err != nil {
		return nil, apperr.Storage("load documents", err)
	}

	out := &Checklist{
		ChecklistItems:      make([]ChecklistEntry, 0, len(triggered)),
		AdditionalDocuments: []models.Document{},
	}
	attached := map[uint][]models.Document{}
	for _, d := range docs {
		if d.IsAdditional() || d.TaxReturnID == nil || triggered[*d.ChecklistItemID] == nil {
			out.AdditionalDocuments = append(out.AdditionalDocuments, d)
			continue
		}
		attached[*d.ChecklistItemID] = append(attached[*d.ChecklistItemID], d)
	}

	itemIDs := make([]uint, 0, len(triggered))
	for id := range triggered {
		itemIDs = append(itemIDs, id)
	}
	sort.Slice(itemIDs, func(i, j int) bool { return itemIDs[i] < itemIDs[j] })

	for _, id := range itemIDs {
		item := catalog[id]
		entry := ChecklistEntry{
			ChecklistItemID: item.ID,
			Name:            item.Name,
			Description:     item.Description,
			Documents:       attached[id],
			Filers:          make([]ChecklistFiler, 0, len(triggered[id])),
		}
		if entry.Documents == nil {
			entry.Documents = []models.Document{}
		}
		for _, trID := range ids {
			if !triggered[id][trID] {
				continue
			}
			tr := byID[trID]
			entry.Filers = append(entry.Filers, ChecklistFiler{TaxReturnID: tr.ID, FirstName: tr.FirstName, LastName: tr.LastName})
		}
		out.ChecklistItems = append(out.ChecklistItems, entry)
	}

	metrics.ChecklistsDerived.Inc()
	return out, nil
}
