package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/reference"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnswerService stores questionnaire answers.
type AnswerService struct {
	db  *gorm.DB
	ref *reference.Store
}

func NewAnswerService(db *gorm.DB, ref *reference.Store) *AnswerService {
	return &AnswerService{db: db, ref: ref}
}

var answerKey = []clause.Column{{Name: "tax_return_id"}, {Name: "question_id"}}

// SaveAnswer records a filer's answer. When the question is linked to another
// question the same answer is written there too, in the same transaction.
func (s *AnswerService) SaveAnswer(ctx context.Context, taxReturnID, questionID uint, text string) (*models.Answer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("invalid answer", map[string]string{"text": "required"})
	}
	if _, err := loadTaxReturn(ctx, s.db, taxReturnID); err != nil {
		return nil, err
	}
	q, err := s.ref.Question(ctx, questionID)
	if err != nil {
		return nil, err
	}
	targets := []uint{q.ID}
	if q.LinkedQuestionID != nil && *q.LinkedQuestionID != q.ID {
		targets = append(targets, *q.LinkedQuestionID)
	}

	var saved models.Answer
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, qid := range targets {
			a := models.Answer{TaxReturnID: taxReturnID, QuestionID: qid, Text: text}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   answerKey,
				DoUpdates: clause.AssignmentColumns([]string{"text", "updated_at"}),
			}).Create(&a).Error; err != nil {
				return fmt.Errorf("upsert answer for question %d: %w", qid, err)
			}
			if i == 0 {
				if err := tx.Where("tax_return_id = ? AND question_id = ?", taxReturnID, qid).First(&saved).Error; err != nil {
					return fmt.Errorf("reload answer: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Storage("save answer", err)
	}
	return &saved, nil
}

// ListAnswers returns a filer's answers ordered by question.
func (s *AnswerService) ListAnswers(ctx context.Context, taxReturnID uint) ([]models.Answer, error) {
	if _, err := loadTaxReturn(ctx, s.db, taxReturnID); err != nil {
		return nil, err
	}
	var out []models.Answer
	if err := s.db.WithContext(ctx).Where("tax_return_id = ?", taxReturnID).Order("question_id").Find(&out).Error; err != nil {
		return nil, apperr.Storage("list answers", err)
	}
	return out, nil
}
