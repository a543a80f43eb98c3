/*
Package model contains the core domain types shared between the chat engine,
the storage layer, and the HTTP handlers.

All structs carry JSON tags because they are serialized directly into
WebSocket events sent to clients.
*/
package model

import "time"

// FriendStatus is the lifecycle state of a friend request.
type FriendStatus string

const (
	FriendPending  FriendStatus = "Pending"
	FriendAccepted FriendStatus = "Accepted"
	FriendRejected FriendStatus = "Rejected"
)

// User represents a registered account. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Conversation is persisted conversation metadata. MemberIDs is populated
// when the conversation is sent to clients as a snapshot.
type Conversation struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title,omitempty"`
	MemberIDs     []int64   `json:"members,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
}

// Message is a persisted chat message. ModelID is non-zero when the message
// was produced by a generative model on behalf of UserID.
type Message struct {
	ID             int64      `json:"id"`
	ConversationID int64      `json:"conversationId"`
	UserID         int64      `json:"userId"`
	ModelID        int64      `json:"aiModelId,omitempty"`
	Content        string     `json:"message"`
	CreatedAt      time.Time  `json:"createdAt"`
	EditedAt       *time.Time `json:"editedAt,omitempty"`
}

// FriendRequest tracks a pending or resolved friendship between two users.
// The (SenderID, ReceiverID) pair is unique regardless of direction.
type FriendRequest struct {
	SenderID   int64        `json:"senderId"`
	ReceiverID int64        `json:"receiverId"`
	Status     FriendStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
}

// Friend is the client-facing view of an accepted friendship.
type Friend struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// AIModel describes a generative model available for SendMessage commands.
type AIModel struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	ProviderModel string `json:"-"`
}
