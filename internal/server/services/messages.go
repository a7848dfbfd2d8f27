package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/D-Abramoc/chatrelay/internal/server/models"
	"github.com/D-Abramoc/chatrelay/internal/server/repositories/repomanager"
)

// MessageService persists messages for the relay and serves conversation
// history for the HTTP API.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager) *MessageService {
	return &MessageService{db: db, repomanager: m}
}

// Save writes one message. Messages are written once and never mutated.
func (s *MessageService) Save(ctx context.Context, msg *models.Message) error {
	repo := s.repomanager.Messages(s.db)
	if _, err := repo.Create(ctx, msg); err != nil {
		return fmt.Errorf("error saving message: %w", err)
	}
	return nil
}

// History returns the conversation between two users, oldest first. An empty
// conversation is an empty slice, not an error.
func (s *MessageService) History(ctx context.Context, userID1, userID2 int64) ([]*models.Message, error) {
	repo := s.repomanager.Messages(s.db)
	msgs, err := repo.GetBetweenUsers(ctx, userID1, userID2)
	if err != nil {
		return nil, fmt.Errorf("error loading history: %w", err)
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return msgs, nil
}
