package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/diewo77/go-taxprep/internal/apperr"
	"github.com/diewo77/go-taxprep/internal/models"
	"github.com/diewo77/go-taxprep/internal/notify"
	"gorm.io/gorm"
)

const maxMessageLen = 5000

// MessageService handles the conversation attached to a quote.
type MessageService struct {
	db       *gorm.DB
	log      *slog.Logger
	notifier notify.Notifier
}

func NewMessageService(db *gorm.DB, log *slog.Logger, n notify.Notifier) *MessageService {
	return &MessageService{db: db, log: log, notifier: n}
}

// Post adds a message to a quote. Staff messages notify the quote's owner.
func (s *MessageService) Post(ctx context.Context, quoteID, authorID uint, fromAdmin bool, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	switch {
	case body == "":
		return nil, apperr.Validation("invalid message", map[string]string{"body": "required"})
	case len(body) > maxMessageLen:
		return nil, apperr.Validation("invalid message", map[string]string{"body": "too_long"})
	}
	quote, err := loadQuote(ctx, s.db, quoteID)
	if err != nil {
		return nil, err
	}
	m := models.Message{QuoteID: quote.ID, AccountID: authorID, Body: body, FromAdmin: fromAdmin}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, apperr.Storage("create message", err)
	}
	if fromAdmin {
		if owner, err := loadAccount(ctx, s.db, quote.AccountID); err == nil {
			notify.Send(ctx, s.notifier, s.log, notify.Notification{
				To:      owner.Email,
				Subject: fmt.Sprintf("New message about quote #%d", quote.ID),
				Body:    body,
			})
		} else {
			s.log.WarnContext(ctx, "quote owner missing, message not delivered", "quote_id", quote.ID, "error", err)
		}
	}
	return &m, nil
}

// List returns a quote's messages oldest first.
func (s *MessageService) List(ctx context.Context, quoteID uint) ([]models.Message, error) {
	if _, err := loadQuote(ctx, s.db, quoteID); err != nil {
		return nil, err
	}
	var out []models.Message
	if err := s.db.WithContext(ctx).Where("quote_id = ?", quoteID).Order("id").Find(&out).Error; err != nil {
		return nil, apperr.Storage("list messages", err)
	}
	return out, nil
}
