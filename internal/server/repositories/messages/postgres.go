package messages

import (
	"context"
	"fmt"

	"github.com/D-Abramoc/chatrelay/internal/dbx"
	"github.com/D-Abramoc/chatrelay/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a message row. Messages are append-only: there is no update
// or delete path anywhere in the server.
func (r *PostgresRepository) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {

	query :=
		`INSERT INTO messages (sender_id, recipient_id, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		msg.SenderID, msg.RecipientID, msg.Content).Scan(&msg.ID, &msg.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return msg, nil
}

// GetBetweenUsers returns the full conversation between two users in both
// directions, oldest first.
func (r *PostgresRepository) GetBetweenUsers(ctx context.Context, userID1, userID2 int64) ([]*models.Message, error) {
	query :=
		`SELECT id, sender_id, recipient_id, content, created_at FROM messages
		 WHERE (sender_id = $1 AND recipient_id = $2)
		    OR (sender_id = $2 AND recipient_id = $1)
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID1, userID2)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.RecipientID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
