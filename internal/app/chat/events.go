/*
Package chat contains the core logic of the real-time engine: the connection
registry, the per-user event bus, the connection pumps, command dispatch,
broadcast fan-out, and the per-user generation single-flight.

This file defines the closed set of domain events exchanged between server
and clients. Every event serializes flat with a "type" discriminator.
*/
package chat

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
)

// EventType is the wire discriminator of a server-to-client event.
type EventType string

const (
	EventMessage            EventType = "Message"
	EventConversation       EventType = "Conversation"
	EventDeleteMessage      EventType = "DeleteMessage"
	EventStreamData         EventType = "StreamData"
	EventInvite             EventType = "Invite"
	EventFriendRequest      EventType = "FriendRequest"
	EventFriendData         EventType = "FriendData"
	EventError              EventType = "Error"
	EventRead               EventType = "ReadEvent"
	EventCanceledGeneration EventType = "CanceledGeneration"
)

// Event is a value published on a per-user bus. Concrete events carry their
// own type tag so they serialize flat. cancelRequest is the only Event that
// is never written to a client.
type Event interface {
	isEvent()
}

// MessageEvent delivers a persisted message, both for new messages and for
// edit results (EditedAt set).
type MessageEvent struct {
	Type    EventType     `json:"type"`
	Message model.Message `json:"message"`
}

// ConversationEvent delivers a conversation metadata snapshot.
type ConversationEvent struct {
	Type         EventType          `json:"type"`
	Conversation model.Conversation `json:"conversation"`
}

// DeleteMessageEvent notifies that a message was removed.
type DeleteMessageEvent struct {
	Type           EventType `json:"type"`
	MessageID      int64     `json:"messageId"`
	ConversationID int64     `json:"conversationId"`
}

// StreamDataEvent carries one incremental chunk of an in-flight model
// completion. StreamID correlates chunks belonging to the same generation.
type StreamDataEvent struct {
	Type           EventType `json:"type"`
	StreamID       string    `json:"streamId"`
	ConversationID int64     `json:"conversationId"`
	Chunk          string    `json:"chunk"`
}

// InviteEvent notifies an invitee that they were added to a conversation.
type InviteEvent struct {
	Type           EventType `json:"type"`
	ConversationID int64     `json:"conversationId"`
	Inviter        int64     `json:"inviter"`
	InvitedAt      time.Time `json:"invitedAt"`
}

// FriendRequestEvent delivers the current state of a friend request.
type FriendRequestEvent struct {
	Type EventType `json:"type"`
	model.FriendRequest
}

// FriendDataEvent delivers one accepted friendship.
type FriendDataEvent struct {
	Type EventType `json:"type"`
	model.Friend
}

// ErrorEvent reports a per-command failure to the acting user only.
type ErrorEvent struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

// ReadEvent notifies conversation members of a read receipt.
type ReadEvent struct {
	Type           EventType `json:"type"`
	ConversationID int64     `json:"conversationId"`
	UserID         int64     `json:"userId"`
	Timestamp      time.Time `json:"timestamp"`
}

// CanceledGenerationEvent notifies that an in-flight generation was canceled.
type CanceledGenerationEvent struct {
	Type           EventType `json:"type"`
	ConversationID int64     `json:"conversationId"`
}

// cancelRequest is the internal-only cancel marker. It is published on the
// requesting user's own bus, observed exclusively by that user's cancel-watch
// task, and swallowed by connection writers.
type cancelRequest struct{}

func (MessageEvent) isEvent()            {}
func (ConversationEvent) isEvent()       {}
func (DeleteMessageEvent) isEvent()      {}
func (StreamDataEvent) isEvent()         {}
func (InviteEvent) isEvent()             {}
func (FriendRequestEvent) isEvent()      {}
func (FriendDataEvent) isEvent()         {}
func (ErrorEvent) isEvent()              {}
func (ReadEvent) isEvent()               {}
func (CanceledGenerationEvent) isEvent() {}
func (cancelRequest) isEvent()           {}

func newMessageEvent(msg model.Message) MessageEvent {
	return MessageEvent{Type: EventMessage, Message: msg}
}

func newConversationEvent(conv model.Conversation) ConversationEvent {
	return ConversationEvent{Type: EventConversation, Conversation: conv}
}

func newErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: message}
}

// MarshalEvent serializes an event to its client wire form. The internal
// cancel marker must be filtered out by the caller before serialization.
func MarshalEvent(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}
