package messages

import (
	"context"

	"github.com/D-Abramoc/chatrelay/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetBetweenUsers(ctx context.Context, userID1, userID2 int64) ([]*models.Message, error)
}
