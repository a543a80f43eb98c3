package db

import (
	"context"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
)

// SearchMessages runs a full-text query over messages visible to userID.
// The scope is always restricted to conversations the user is a member of;
// a non-empty conversationIDs narrows it further to that candidate set.
// Results come back by descending text rank.
func (q *Queries) SearchMessages(ctx context.Context, userID int64, conversationIDs []int64, query string, limit int32) ([]model.Message, error) {
	const sql = `
		SELECT msg.id, msg.conversation_id, msg.user_id, COALESCE(msg.model_id, 0),
		       msg.content, msg.created_at, msg.edited_at
		FROM messages msg
		JOIN conversation_members m
		  ON m.conversation_id = msg.conversation_id AND m.user_id = $1
		WHERE (cardinality($2::bigint[]) = 0 OR msg.conversation_id = ANY ($2::bigint[]))
		  AND msg.search @@ websearch_to_tsquery('english', $3)
		ORDER BY ts_rank(msg.search, websearch_to_tsquery('english', $3)) DESC, msg.id DESC
		LIMIT $4`

	if conversationIDs == nil {
		conversationIDs = []int64{}
	}

	rows, err := q.pool.Query(ctx, sql, userID, conversationIDs, query, limit)
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
