package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
)

// CreateMessageParams carries the fields of a new message. ModelID is zero
// for plain user messages and references ai_models when the content was
// produced by a generative model.
type CreateMessageParams struct {
	ConversationID int64
	UserID         int64
	ModelID        int64
	Content        string
}

// CreateMessage persists a message and bumps the conversation's
// last_message_at inside one transaction.
func (q *Queries) CreateMessage(ctx context.Context, params CreateMessageParams) (model.Message, error) {
	var msg model.Message

	err := pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		const insert = `
			INSERT INTO messages (conversation_id, user_id, model_id, content)
			VALUES ($1, $2, NULLIF($3, 0), $4)
			RETURNING id, conversation_id, user_id, COALESCE(model_id, 0), content, created_at, edited_at`

		err := tx.QueryRow(ctx, insert,
			params.ConversationID, params.UserID, params.ModelID, params.Content).
			Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.ModelID,
				&msg.Content, &msg.CreatedAt, &msg.EditedAt)
		if err != nil {
			return err
		}

		const touch = `
			UPDATE conversations
			SET last_message_at = $2
			WHERE id = $1`

		_, err = tx.Exec(ctx, touch, params.ConversationID, msg.CreatedAt)
		return err
	})

	return msg, err
}

// GetMessage fetches a message by primary key.
func (q *Queries) GetMessage(ctx context.Context, id int64) (model.Message, error) {
	const query = `
		SELECT id, conversation_id, user_id, COALESCE(model_id, 0), content, created_at, edited_at
		FROM messages
		WHERE id = $1`

	var msg model.Message
	err := q.pool.QueryRow(ctx, query, id).
		Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.ModelID,
			&msg.Content, &msg.CreatedAt, &msg.EditedAt)
	return msg, err
}

// UpdateMessage replaces a message's content and stamps edited_at.
func (q *Queries) UpdateMessage(ctx context.Context, id int64, content string) (model.Message, error) {
	const query = `
		UPDATE messages
		SET content = $2, edited_at = now()
		WHERE id = $1
		RETURNING id, conversation_id, user_id, COALESCE(model_id, 0), content, created_at, edited_at`

	var msg model.Message
	err := q.pool.QueryRow(ctx, query, id, content).
		Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.ModelID,
			&msg.Content, &msg.CreatedAt, &msg.EditedAt)
	return msg, err
}

// DeleteMessage removes a message row.
func (q *Queries) DeleteMessage(ctx context.Context, id int64) error {
	const query = `DELETE FROM messages WHERE id = $1`

	tag, err := q.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListMessages returns up to limit messages of a conversation with ids
// strictly below beforeID, newest first. A zero beforeID means "from the
// newest message".
func (q *Queries) ListMessages(ctx context.Context, conversationID, beforeID int64, limit int32) ([]model.Message, error) {
	const query = `
		SELECT id, conversation_id, user_id, COALESCE(model_id, 0), content, created_at, edited_at
		FROM messages
		WHERE conversation_id = $1
		  AND ($2 = 0 OR id < $2)
		ORDER BY id DESC
		LIMIT $3`

	rows, err := q.pool.Query(ctx, query, conversationID, beforeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.UserID, &msg.ModelID,
			&msg.Content, &msg.CreatedAt, &msg.EditedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
