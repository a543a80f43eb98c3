package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
)

// ErrFriendRequestExists is returned when a request between the pair already
// exists in either direction.
var ErrFriendRequestExists = errors.New("friend request already exists")

// CreateFriendRequest inserts a pending request from sender to receiver.
// A request already existing in either direction yields ErrFriendRequestExists.
func (q *Queries) CreateFriendRequest(ctx context.Context, senderID, receiverID int64) (model.FriendRequest, error) {
	var fr model.FriendRequest

	err := pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		const reverse = `
			SELECT EXISTS (
				SELECT 1 FROM friend_requests
				WHERE sender_id = $1 AND receiver_id = $2
			)`

		var exists bool
		if err := tx.QueryRow(ctx, reverse, receiverID, senderID).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrFriendRequestExists
		}

		const insert = `
			INSERT INTO friend_requests (sender_id, receiver_id)
			VALUES ($1, $2)
			RETURNING sender_id, receiver_id, status, created_at`

		return tx.QueryRow(ctx, insert, senderID, receiverID).
			Scan(&fr.SenderID, &fr.ReceiverID, &fr.Status, &fr.CreatedAt)
	})

	if IsUniqueViolation(err) {
		return fr, ErrFriendRequestExists
	}
	return fr, err
}

// ResolveFriendRequest marks the pending request sent by senderID to
// receiverID as accepted or rejected. pgx.ErrNoRows means no pending request.
func (q *Queries) ResolveFriendRequest(ctx context.Context, senderID, receiverID int64, status model.FriendStatus) (model.FriendRequest, error) {
	const query = `
		UPDATE friend_requests
		SET status = $3
		WHERE sender_id = $1 AND receiver_id = $2 AND status = 'Pending'
		RETURNING sender_id, receiver_id, status, created_at`

	var fr model.FriendRequest
	err := q.pool.QueryRow(ctx, query, senderID, receiverID, string(status)).
		Scan(&fr.SenderID, &fr.ReceiverID, &fr.Status, &fr.CreatedAt)
	return fr, err
}

// ListFriends returns the ids of users with an accepted friendship with
// userID, in either direction.
func (q *Queries) ListFriends(ctx context.Context, userID int64) ([]model.Friend, error) {
	const query = `
		SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS friend_id,
		       created_at
		FROM friend_requests
		WHERE (sender_id = $1 OR receiver_id = $1) AND status = 'Accepted'
		ORDER BY created_at`

	rows, err := q.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []model.Friend
	for rows.Next() {
		var f model.Friend
		if err := rows.Scan(&f.ID, &f.CreatedAt); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

// ListFriendRequests returns pending requests involving userID, both sent
// and received.
func (q *Queries) ListFriendRequests(ctx context.Context, userID int64) ([]model.FriendRequest, error) {
	const query = `
		SELECT sender_id, receiver_id, status, created_at
		FROM friend_requests
		WHERE (sender_id = $1 OR receiver_id = $1) AND status = 'Pending'
		ORDER BY created_at`

	rows, err := q.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []model.FriendRequest
	for rows.Next() {
		var fr model.FriendRequest
		if err := rows.Scan(&fr.SenderID, &fr.ReceiverID, &fr.Status, &fr.CreatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, fr)
	}
	return reqs, rows.Err()
}

// UpsertRead records that the user has read the conversation up to the given
// instant.
func (q *Queries) UpsertRead(ctx context.Context, conversationID, userID int64, at time.Time) error {
	const query = `
		INSERT INTO message_reads (conversation_id, user_id, last_read_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (conversation_id, user_id)
		DO UPDATE SET last_read_at = GREATEST(message_reads.last_read_at, EXCLUDED.last_read_at)`

	_, err := q.pool.Exec(ctx, query, conversationID, userID, at)
	return err
}
