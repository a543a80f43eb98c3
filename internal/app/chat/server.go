package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/db"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/logx"
)

// Store is the narrow contract the chat engine needs from the relational
// storage collaborator. internal/app/db implements it.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (model.User, error)

	CreateConversation(ctx context.Context, creatorID int64, title string, memberIDs []int64) (model.Conversation, error)
	GetConversation(ctx context.Context, id int64) (model.Conversation, error)
	ListConversations(ctx context.Context, userID int64, before time.Time, limit int32) ([]model.Conversation, error)
	IsMember(ctx context.Context, conversationID, userID int64) (bool, error)
	MemberIDs(ctx context.Context, conversationID int64) ([]int64, error)
	AddMembers(ctx context.Context, conversationID, inviterID int64, userIDs []int64) ([]int64, error)

	CreateMessage(ctx context.Context, params db.CreateMessageParams) (model.Message, error)
	GetMessage(ctx context.Context, id int64) (model.Message, error)
	UpdateMessage(ctx context.Context, id int64, content string) (model.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	ListMessages(ctx context.Context, conversationID, beforeID int64, limit int32) ([]model.Message, error)

	CreateFriendRequest(ctx context.Context, senderID, receiverID int64) (model.FriendRequest, error)
	ResolveFriendRequest(ctx context.Context, senderID, receiverID int64, status model.FriendStatus) (model.FriendRequest, error)
	ListFriends(ctx context.Context, userID int64) ([]model.Friend, error)
	ListFriendRequests(ctx context.Context, userID int64) ([]model.FriendRequest, error)
	UpsertRead(ctx context.Context, conversationID, userID int64, at time.Time) error

	GetModel(ctx context.Context, id int64) (model.AIModel, error)
	SearchMessages(ctx context.Context, userID int64, conversationIDs []int64, query string, limit int32) ([]model.Message, error)
}

// ModelClient is the narrow contract for the model-query collaborator.
// Implementations must honor context cancellation; that is how a canceled
// generation suppresses a late completion.
type ModelClient interface {
	Stream(ctx context.Context, aiModel model.AIModel, history []model.Message, onChunk func(string)) (string, error)
}

// Server wires the registry, the storage collaborator, and the model-query
// collaborator into the live connection engine.
type Server struct {
	registry *Registry
	store    Store
	models   ModelClient
	logger   zerolog.Logger

	// baseCtx scopes detached work (generations) to the server's lifetime
	// rather than to the connection that started it.
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer constructs the engine around its two collaborators.
func NewServer(store Store, models ModelClient) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		registry: NewRegistry(),
		store:    store,
		models:   models,
		logger:   logx.Logger().With().Str("component", "ChatServer").Logger(),
		baseCtx:  ctx,
		stop:     cancel,
	}
}

// Registry exposes the connection registry (handlers need connection counts,
// tests need direct access).
func (s *Server) Registry() *Registry {
	return s.registry
}

// Shutdown cancels all detached work and waits for it to finish.
func (s *Server) Shutdown() {
	s.logger.Info().Msg("Shutting down chat engine...")
	s.stop()
	s.wg.Wait()
	s.logger.Info().Msg("Chat engine shutdown complete.")
}

// PublishToUser delivers an event to every live connection of one user.
// An offline user is a no-op delivery.
func (s *Server) PublishToUser(userID int64, ev Event) {
	if state := s.registry.Lookup(userID); state != nil {
		state.Bus().Publish(ev)
	}
}

// PublishToConversation resolves the conversation's member set and delivers
// the event to every member that is currently online. A failed membership
// lookup propagates to the caller; offline members are skipped silently.
func (s *Server) PublishToConversation(ctx context.Context, conversationID int64, ev Event) error {
	memberIDs, err := s.store.MemberIDs(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to resolve members of conversation %d: %w", conversationID, err)
	}

	for _, id := range memberIDs {
		s.PublishToUser(id, ev)
	}
	return nil
}
