package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
)

// CreateConversation inserts a new conversation and its initial member set in
// one transaction. The creator is always a member; memberIDs may add invitees.
func (q *Queries) CreateConversation(ctx context.Context, creatorID int64, title string, memberIDs []int64) (model.Conversation, error) {
	var conv model.Conversation

	err := pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		const insertConv = `
			INSERT INTO conversations (title)
			VALUES ($1)
			RETURNING id, title, created_at, last_message_at`

		if err := tx.QueryRow(ctx, insertConv, title).
			Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.LastMessageAt); err != nil {
			return err
		}

		members := append([]int64{creatorID}, memberIDs...)
		seen := make(map[int64]struct{}, len(members))

		const insertMember = `
			INSERT INTO conversation_members (conversation_id, user_id, invited_by)
			VALUES ($1, $2, $3)`

		for _, id := range members {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			var invitedBy any
			if id != creatorID {
				invitedBy = creatorID
			}
			if _, err := tx.Exec(ctx, insertMember, conv.ID, id, invitedBy); err != nil {
				return err
			}
			conv.MemberIDs = append(conv.MemberIDs, id)
		}
		return nil
	})

	return conv, err
}

// GetConversation fetches conversation metadata together with its member ids.
func (q *Queries) GetConversation(ctx context.Context, id int64) (model.Conversation, error) {
	const query = `
		SELECT c.id, c.title, c.created_at, c.last_message_at,
		       array_agg(m.user_id ORDER BY m.user_id)
		FROM conversations c
		JOIN conversation_members m ON m.conversation_id = c.id
		WHERE c.id = $1
		GROUP BY c.id`

	var conv model.Conversation
	err := q.pool.QueryRow(ctx, query, id).
		Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.LastMessageAt, &conv.MemberIDs)
	return conv, err
}

// ListConversations returns the user's conversations ordered by recent
// activity, starting strictly before the given instant. A zero `before`
// means "from the newest".
func (q *Queries) ListConversations(ctx context.Context, userID int64, before time.Time, limit int32) ([]model.Conversation, error) {
	if before.IsZero() {
		before = time.Now().Add(time.Hour)
	}

	const query = `
		SELECT c.id, c.title, c.created_at, c.last_message_at,
		       array_agg(m2.user_id ORDER BY m2.user_id)
		FROM conversations c
		JOIN conversation_members m  ON m.conversation_id = c.id AND m.user_id = $1
		JOIN conversation_members m2 ON m2.conversation_id = c.id
		WHERE c.last_message_at < $2
		GROUP BY c.id
		ORDER BY c.last_message_at DESC
		LIMIT $3`

	rows, err := q.pool.Query(ctx, query, userID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.LastMessageAt, &conv.MemberIDs); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// IsMember reports whether the user belongs to the conversation.
func (q *Queries) IsMember(ctx context.Context, conversationID, userID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM conversation_members
			WHERE conversation_id = $1 AND user_id = $2
		)`

	var ok bool
	err := q.pool.QueryRow(ctx, query, conversationID, userID).Scan(&ok)
	return ok, err
}

// MemberIDs resolves the full member set of a conversation for event fan-out.
func (q *Queries) MemberIDs(ctx context.Context, conversationID int64) ([]int64, error) {
	const query = `
		SELECT user_id FROM conversation_members
		WHERE conversation_id = $1
		ORDER BY user_id`

	rows, err := q.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddMembers inserts the given users into a conversation in one transaction
// and returns the ids that were actually added. Users already present are
// skipped without error so invites are idempotent per invitee.
func (q *Queries) AddMembers(ctx context.Context, conversationID, inviterID int64, userIDs []int64) ([]int64, error) {
	var added []int64

	err := pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		const insert = `
			INSERT INTO conversation_members (conversation_id, user_id, invited_by)
			VALUES ($1, $2, $3)
			ON CONFLICT (conversation_id, user_id) DO NOTHING
			RETURNING user_id`

		for _, id := range userIDs {
			var inserted int64
			err := tx.QueryRow(ctx, insert, conversationID, id, inviterID).Scan(&inserted)
			if err != nil {
				if IsNotFound(err) {
					continue // already a member
				}
				return err
			}
			added = append(added, inserted)
		}
		return nil
	})

	return added, err
}
