// Package reference gives read access to the static tables the engines depend on:
// products, direct-deposit fees, questions, checklist rules and items, statuses.
// Reads go through TTL caches; call Invalidate after editing these tables.
package reference

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/refcache"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const allKey = "all"

// RuleKey identifies the answer a checklist rule fires on.
type RuleKey struct {
	QuestionID uint
	Value      string
}

// RuleIndex maps an answer to the checklist items it requires.
type RuleIndex map[RuleKey][]uint

// Match returns the checklist item ids triggered by answering questionID with text.
func (idx RuleIndex) Match(questionID uint, text string) []uint {
	return idx[RuleKey{QuestionID: questionID, Value: text}]
}

// Store reads reference data through per-table caches.
type Store struct {
	db *gorm.DB

	fees       *refcache.Cache[uint, decimal.Decimal]
	products   *refcache.Cache[string, map[uint]models.Product]
	categories *refcache.Cache[string, []models.Category]
	questions  *refcache.Cache[string, map[uint]models.Question]
	rules      *refcache.Cache[string, RuleIndex]
	items      *refcache.Cache[string, map[uint]models.ChecklistItem]
	statuses   *refcache.Cache[string, []models.TaxReturnStatus]
}

// NewStore builds a Store whose caches expire after ttl.
func NewStore(db *gorm.DB, ttl time.Duration, opts ...refcache.Option) *Store {
	return &Store{
		db:         db,
		fees:       refcache.New[uint, decimal.Decimal]("direct_deposit_fees", ttl, opts...),
		products:   refcache.New[string, map[uint]models.Product]("products", ttl, opts...),
		categories: refcache.New[string, []models.Category]("categories", ttl, opts...),
		questions:  refcache.New[string, map[uint]models.Question]("questions", ttl, opts...),
		rules:      refcache.New[string, RuleIndex]("checklist_rules", ttl, opts...),
		items:      refcache.New[string, map[uint]models.ChecklistItem]("checklist_items", ttl, opts...),
		statuses:   refcache.New[string, []models.TaxReturnStatus]("tax_return_statuses", ttl, opts...),
	}
}

// Invalidate drops every cached table.
func (s *Store) Invalidate() {
	s.fees.InvalidateAll()
	s.products.InvalidateAll()
	s.categories.InvalidateAll()
	s.questions.InvalidateAll()
	s.rules.InvalidateAll()
	s.items.InvalidateAll()
	s.statuses.InvalidateAll()
}

// DirectDepositFee returns the direct deposit charge configured for productID.
// A product without a fee is a configuration error, never a zero fee.
func (s *Store) DirectDepositFee(ctx context.Context, productID uint) (decimal.Decimal, error) {
	return s.fees.Get(ctx, productID, func(ctx context.Context) (decimal.Decimal, error) {
		var fee models.DirectDepositFee
		err := s.db.WithContext(ctx).Where("product_id = ?", productID).First(&fee).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, apperr.Configuration("no direct deposit fee configured for product %d", productID)
		}
		if err != nil {
			return decimal.Zero, apperr.Storage("load direct deposit fee", err)
		}
		return fee.Amount, nil
	})
}

func (s *Store) productMap(ctx context.Context) (map[uint]models.Product, error) {
	return s.products.Get(ctx, allKey, func(ctx context.Context) (map[uint]models.Product, error) {
		var rows []models.Product
		if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
			return nil, apperr.Storage("load products", err)
		}
		m := make(map[uint]models.Product, len(rows))
		for _, p := range rows {
			m[p.ID] = p
		}
		return m, nil
	})
}

// Product returns a product by id.
func (s *Store) Product(ctx context.Context, id uint) (*models.Product, error) {
	m, err := s.productMap(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := m[id]
	if !ok {
		return nil, apperr.NotFound("product %d not found", id)
	}
	return &p, nil
}

// Products lists products by id.
func (s *Store) Products(ctx context.Context) ([]models.Product, error) {
	m, err := s.productMap(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Product, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Categories lists questionnaire sections in display order.
func (s *Store) Categories(ctx context.Context) ([]models.Category, error) {
	return s.categories.Get(ctx, allKey, func(ctx context.Context) ([]models.Category, error) {
		var rows []models.Category
		if err := s.db.WithContext(ctx).Order("position, id").Find(&rows).Error; err != nil {
			return nil, apperr.Storage("load categories", err)
		}
		return rows, nil
	})
}

func (s *Store) questionMap(ctx context.Context) (map[uint]models.Question, error) {
	return s.questions.Get(ctx, allKey, func(ctx context.Context) (map[uint]models.Question, error) {
		var rows []models.Question
		if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
			return nil, apperr.Storage("load questions", err)
		}
		m := make(map[uint]models.Question, len(rows))
		for _, q := range rows {
			m[q.ID] = q
		}
		return m, nil
	})
}

// Question returns a question by id.
func (s *Store) Question(ctx context.Context, id uint) (*models.Question, error) {
	m, err := s.questionMap(ctx)
	if err != nil {
		return nil, err
	}
	q, ok := m[id]
	if !ok {
		return nil, apperr.NotFound("question %d not found", id)
	}
	return &q, nil
}

// QuestionsByCategory lists the questions of a category in display order.
func (s *Store) QuestionsByCategory(ctx context.Context, categoryID uint) ([]models.Question, error) {
	m, err := s.questionMap(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Question, 0)
	for _, q := range m {
		if q.CategoryID == categoryID {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("category %d has no questions", categoryID)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Rules returns the checklist rule table indexed by (question, value).
func (s *Store) Rules(ctx context.Context) (RuleIndex, error) {
	return s.rules.Get(ctx, allKey, func(ctx context.Context) (RuleIndex, error) {
		var rows []models.ChecklistRule
		if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
			return nil, apperr.Storage("load checklist rules", err)
		}
		idx := make(RuleIndex, len(rows))
		for _, r := range rows {
			k := RuleKey{QuestionID: r.QuestionID, Value: r.Value}
			idx[k] = append(idx[k], r.ChecklistItemID)
		}
		return idx, nil
	})
}

// ChecklistItems returns every checklist item by id.
func (s *Store) ChecklistItems(ctx context.Context) (map[uint]models.ChecklistItem, error) {
	return s.items.Get(ctx, allKey, func(ctx context.Context) (map[uint]models.ChecklistItem, error) {
		var rows []models.ChecklistItem
		if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
			return nil, apperr.Storage("load checklist items", err)
		}
		m := make(map[uint]models.ChecklistItem, len(rows))
		for _, it := range rows {
			m[it.ID] = it
		}
		return m, nil
	})
}

// Statuses lists tax return statuses in workflow order.
func (s *Store) Statuses(ctx context.Context) ([]models.TaxReturnStatus, error) {
	return s.statuses.Get(ctx, allKey, func(ctx context.Context) ([]models.TaxReturnStatus, error) {
		var rows []models.TaxReturnStatus
		if err := s.db.WithContext(ctx).Order("position, id").Find(&rows).Error; err != nil {
			return nil, apperr.Storage("load statuses", err)
		}
		return rows, nil
	})
}

// StatusByName looks a status up by its machine name.
func (s *Store) StatusByName(ctx context.Context, name string) (*models.TaxReturnStatus, error) {
	all, err := s.Statuses(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == name {
			st := all[i]
			return &st, nil
		}
	}
	return nil, apperr.NotFound("status %q not found", name)
}
