package services

import (
	"context"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/reference"
	"github.com/diewo77/go-taxprep/validation"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentInput registers an uploaded file against a quote. Leave
// ChecklistItemID empty for an additional document.
type DocumentInput struct {
	TaxReturnID     *uint  `json:"tax_return_id"`
	ChecklistItemID *uint  `json:"checklist_item_id"`
	Name            string `json:"name" validate:"required,max=255"`
	URL             string `json:"url" validate:"required,url,max=1000"`
	ThumbnailURL    string `json:"thumbnail_url" validate:"omitempty,url,max=1000"`
}

// DocumentService records document uploads.
type DocumentService struct {
	db  *gorm.DB
	ref *reference.Store
}

func NewDocumentService(db *gorm.DB, ref *reference.Store) *DocumentService {
	return &DocumentService{db: db, ref: ref}
}

// Register stores document metadata for a quote.
func (s *DocumentService) Register(ctx context.Context, quoteID uint, in DocumentInput) (*models.Document, error) {
	if err := validation.Struct(in).Err("invalid document"); err != nil {
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
	if in.ChecklistItemID != nil && *in.ChecklistItemID != 0 {
		items, err := s.ref.ChecklistItems(ctx)
		if err != nil {
			return nil, err
		}
		if _, ok := items[*in.ChecklistItemID]; !ok {
			return nil, apperr.NotFound("checklist item %d not found", *in.ChecklistItemID)
		}
	}
	doc := models.Document{
		QuoteID:         quote.ID,
		TaxReturnID:     in.TaxReturnID,
		ChecklistItemID: in.ChecklistItemID,
		Name:            in.Name,
		StorageKey:      uuid.NewString(),
		URL:             in.URL,
		ThumbnailURL:    in.ThumbnailURL,
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, apperr.Storage("create document", err)
	}
	return &doc, nil
}
