/*
This file maps each decoded client command to its storage mutation and the
broadcast events it produces. Every handler runs inside an independent
dispatch task; failures are converted to Error events for the acting user
and never unwind the connection pump.
*/
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/db"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/errs"
)

const (
	// defaultPageSize is used when a history request does not name a count.
	defaultPageSize = 50

	// maxPageSize caps a single history or search response.
	maxPageSize = 200

	// dispatchTimeout bounds one command's storage work.
	dispatchTimeout = 30 * time.Second
)

// dispatch decodes and executes one inbound frame on behalf of c's user.
func (s *Server) dispatch(ctx context.Context, c *Conn, frame []byte) {
	cmd, err := DecodeCommand(frame)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Client sent malformed frame")
		c.sendError(err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	if err := s.handleCommand(ctx, c, cmd); err != nil {
		var custom *errs.CustomError
		if errors.As(err, &custom) {
			c.sendError(custom.Message)
			return
		}

		c.logger.Error().Err(err).Msg("Command failed")
		c.sendError(errs.NewError(errs.ErrUnknown).Message)
	}
}

// handleCommand switches exhaustively over the closed command set.
func (s *Server) handleCommand(ctx context.Context, c *Conn, cmd Command) error {
	switch cmd := cmd.(type) {
	case *SendMessageCommand:
		return s.handleSendMessage(ctx, c, cmd)
	case *EditMessageCommand:
		return s.handleEditMessage(ctx, c, cmd)
	case *DeleteMessageCommand:
		return s.handleDeleteMessage(ctx, c, cmd)
	case *SendFriendRequestCommand:
		return s.handleSendFriendRequest(ctx, c, cmd)
	case *InviteUsersCommand:
		return s.handleInviteUsers(ctx, c, cmd)
	case *ReadMessageCommand:
		return s.handleReadMessage(ctx, c, cmd)
	case *RequestMessagesCommand:
		return s.handleRequestMessages(ctx, c, cmd)
	case *RequestConversationCommand:
		return s.handleRequestConversation(ctx, c, cmd)
	case *RequestConversationsCommand:
		return s.handleRequestConversations(ctx, c, cmd)
	case *RequestFriendsCommand:
		return s.handleRequestFriends(ctx, c)
	case *RequestFriendRequestsCommand:
		return s.handleRequestFriendRequests(ctx, c)
	case *CancelGenerationCommand:
		return s.handleCancelGeneration(c)
	case *SearchMessagesCommand:
		return s.handleSearchMessages(ctx, c, cmd)
	default:
		// DecodeCommand only produces the types above.
		return errs.NewError(errs.ErrUnknownCommand, "internal")
	}
}

// requireMembership rejects operations on conversations the user is not in.
func (s *Server) requireMembership(ctx context.Context, conversationID, userID int64) error {
	ok, err := s.store.IsMember(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NewError(errs.ErrNotConversationMember)
	}
	return nil
}

func (s *Server) handleSendMessage(ctx context.Context, c *Conn, cmd *SendMessageCommand) error {
	if cmd.Message == "" || len(cmd.Message) > MaxContentBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	conversationID := cmd.ConversationID
	if conversationID == 0 {
		conv, err := s.store.CreateConversation(ctx, c.user.ID, "", nil)
		if err != nil {
			return err
		}
		conversationID = conv.ID
		s.PublishToUser(c.user.ID, newConversationEvent(conv))
	} else if err := s.requireMembership(ctx, conversationID, c.user.ID); err != nil {
		return err
	}

	// A model request claims the single-flight slot before the triggering
	// message is persisted, so a losing concurrent send rejects cleanly
	// without starting a second racing pair. The cancel-watch subscription
	// is created before the claim: any CancelGeneration accepted against a
	// non-idle flag then has a live observer, even while the message insert
	// is still in flight.
	var aiModel model.AIModel
	var watch *Subscription
	if cmd.AIModelID != 0 {
		var err error
		aiModel, err = s.store.GetModel(ctx, cmd.AIModelID)
		if err != nil {
			if db.IsNotFound(err) {
				return errs.NewError(errs.ErrModelNotFound)
			}
			return err
		}

		watch = c.state.Bus().Subscribe()
		if !c.state.BeginGeneration(conversationID) {
			watch.Close()
			return errs.NewError(errs.ErrGenerationRunning)
		}
	}

	msg, err := s.store.CreateMessage(ctx, db.CreateMessageParams{
		ConversationID: conversationID,
		UserID:         c.user.ID,
		Content:        cmd.Message,
	})
	if err != nil {
		if cmd.AIModelID != 0 {
			c.state.EndGeneration(conversationID)
			watch.Close()
		}
		return err
	}

	// The triggering message is published immediately, independent of the
	// generation outcome.
	if err := s.PublishToConversation(ctx, conversationID, newMessageEvent(msg)); err != nil {
		if cmd.AIModelID != 0 {
			c.state.EndGeneration(conversationID)
			watch.Close()
		}
		return err
	}

	if cmd.AIModelID != 0 {
		s.startGeneration(c.state, c.user, conversationID, aiModel, watch)
	}
	return nil
}

func (s *Server) handleEditMessage(ctx context.Context, c *Conn, cmd *EditMessageCommand) error {
	if cmd.Message == "" || len(cmd.Message) > MaxContentBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	msg, err := s.store.GetMessage(ctx, cmd.ID)
	if err != nil {
		if db.IsNotFound(err) {
			return errs.NewError(errs.ErrMessageNotFound)
		}
		return err
	}

	if msg.UserID != c.user.ID || msg.ModelID != 0 {
		return errs.NewError(errs.ErrNotMessageAuthor)
	}

	updated, err := s.store.UpdateMessage(ctx, cmd.ID, cmd.Message)
	if err != nil {
		return err
	}

	return s.PublishToConversation(ctx, updated.ConversationID, newMessageEvent(updated))
}

func (s *Server) handleDeleteMessage(ctx context.Context, c *Conn, cmd *DeleteMessageCommand) error {
	msg, err := s.store.GetMessage(ctx, cmd.MessageID)
	if err != nil {
		if db.IsNotFound(err) {
			return errs.NewError(errs.ErrMessageNotFound)
		}
		return err
	}

	if msg.UserID != c.user.ID {
		return errs.NewError(errs.ErrNotMessageAuthor)
	}

	if err := s.store.DeleteMessage(ctx, cmd.MessageID); err != nil {
		return err
	}

	return s.PublishToConversation(ctx, msg.ConversationID, DeleteMessageEvent{
		Type:           EventDeleteMessage,
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
	})
}

func (s *Server) handleSendFriendRequest(ctx context.Context, c *Conn, cmd *SendFriendRequestCommand) error {
	if cmd.OtherUserID == 0 || cmd.OtherUserID == c.user.ID {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if _, err := s.store.GetUserByID(ctx, cmd.OtherUserID); err != nil {
		if db.IsNotFound(err) {
			return errs.NewError(errs.ErrUserNotFound)
		}
		return err
	}

	var fr model.FriendRequest
	var err error
	if cmd.Accept {
		// Accepting resolves the pending request the other user sent us.
		fr, err = s.store.ResolveFriendRequest(ctx, cmd.OtherUserID, c.user.ID, model.FriendAccepted)
		if err != nil {
			if db.IsNotFound(err) {
				return errs.NewError(errs.ErrFriendRequestNotFound)
			}
			return err
		}
	} else {
		// Not accepting either declines the pending request the other user
		// sent us, or opens a new outgoing one.
		fr, err = s.store.ResolveFriendRequest(ctx, cmd.OtherUserID, c.user.ID, model.FriendRejected)
		if err != nil {
			if !db.IsNotFound(err) {
				return err
			}
			fr, err = s.store.CreateFriendRequest(ctx, c.user.ID, cmd.OtherUserID)
			if err != nil {
				if errors.Is(err, db.ErrFriendRequestExists) {
					return errs.NewError(errs.ErrDuplicateFriendRequest)
				}
				return err
			}
		}
	}

	ev := FriendRequestEvent{Type: EventFriendRequest, FriendRequest: fr}
	s.PublishToUser(fr.SenderID, ev)
	s.PublishToUser(fr.ReceiverID, ev)

	if fr.Status == model.FriendAccepted {
		s.PublishToUser(fr.SenderID, FriendDataEvent{
			Type:   EventFriendData,
			Friend: model.Friend{ID: fr.ReceiverID, CreatedAt: fr.CreatedAt},
		})
		s.PublishToUser(fr.ReceiverID, FriendDataEvent{
			Type:   EventFriendData,
			Friend: model.Friend{ID: fr.SenderID, CreatedAt: fr.CreatedAt},
		})
	}
	return nil
}

func (s *Server) handleInviteUsers(ctx context.Context, c *Conn, cmd *InviteUsersCommand) error {
	if len(cmd.Invitees) == 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	invitedAt := time.Now()

	var conv model.Conversation
	var added []int64
	if cmd.ConversationID == 0 {
		var err error
		conv, err = s.store.CreateConversation(ctx, c.user.ID, "", cmd.Invitees)
		if err != nil {
			return err
		}
		added = cmd.Invitees
	} else {
		if err := s.requireMembership(ctx, cmd.ConversationID, c.user.ID); err != nil {
			return err
		}

		var err error
		added, err = s.store.AddMembers(ctx, cmd.ConversationID, c.user.ID, cmd.Invitees)
		if err != nil {
			return err
		}
		if len(added) == 0 {
			return errs.NewError(errs.ErrAlreadyMember)
		}

		conv, err = s.store.GetConversation(ctx, cmd.ConversationID)
		if err != nil {
			return err
		}
	}

	for _, id := range added {
		s.PublishToUser(id, InviteEvent{
			Type:           EventInvite,
			ConversationID: conv.ID,
			Inviter:        c.user.ID,
			InvitedAt:      invitedAt,
		})
	}

	return s.PublishToConversation(ctx, conv.ID, newConversationEvent(conv))
}

func (s *Server) handleReadMessage(ctx context.Context, c *Conn, cmd *ReadMessageCommand) error {
	if err := s.requireMembership(ctx, cmd.ConversationID, c.user.ID); err != nil {
		return err
	}

	readAt := time.Now()
	if err := s.store.UpsertRead(ctx, cmd.ConversationID, c.user.ID, readAt); err != nil {
		return err
	}

	return s.PublishToConversation(ctx, cmd.ConversationID, ReadEvent{
		Type:           EventRead,
		ConversationID: cmd.ConversationID,
		UserID:         c.user.ID,
		Timestamp:      readAt,
	})
}

func clampPageSize(n int32) int32 {
	switch {
	case n <= 0:
		return defaultPageSize
	case n > maxPageSize:
		return maxPageSize
	default:
		return n
	}
}

func (s *Server) handleRequestMessages(ctx context.Context, c *Conn, cmd *RequestMessagesCommand) error {
	if err := s.requireMembership(ctx, cmd.ConversationID, c.user.ID); err != nil {
		return err
	}

	msgs, err := s.store.ListMessages(ctx, cmd.ConversationID, cmd.MessageID, clampPageSize(cmd.MessageNum))
	if err != nil {
		return err
	}

	// History is delivered to the requester only; the bus is not a log.
	for _, msg := range msgs {
		s.PublishToUser(c.user.ID, newMessageEvent(msg))
	}
	return nil
}

func (s *Server) handleRequestConversation(ctx context.Context, c *Conn, cmd *RequestConversationCommand) error {
	if err := s.requireMembership(ctx, cmd.ConversationID, c.user.ID); err != nil {
		return err
	}

	conv, err := s.store.GetConversation(ctx, cmd.ConversationID)
	if err != nil {
		if db.IsNotFound(err) {
			return errs.NewError(errs.ErrConversationNotFound)
		}
		return err
	}

	s.PublishToUser(c.user.ID, newConversationEvent(conv))
	return nil
}

func (s *Server) handleRequestConversations(ctx context.Context, c *Conn, cmd *RequestConversationsCommand) error {
	convs, err := s.store.ListConversations(ctx, c.user.ID, cmd.LastMessageAt, clampPageSize(cmd.MessageNum))
	if err != nil {
		return err
	}

	for _, conv := range convs {
		s.PublishToUser(c.user.ID, newConversationEvent(conv))
	}
	return nil
}

func (s *Server) handleRequestFriends(ctx context.Context, c *Conn) error {
	friends, err := s.store.ListFriends(ctx, c.user.ID)
	if err != nil {
		return err
	}

	for _, f := range friends {
		s.PublishToUser(c.user.ID, FriendDataEvent{Type: EventFriendData, Friend: f})
	}
	return nil
}

func (s *Server) handleRequestFriendRequests(ctx context.Context, c *Conn) error {
	reqs, err := s.store.ListFriendRequests(ctx, c.user.ID)
	if err != nil {
		return err
	}

	for _, fr := range reqs {
		s.PublishToUser(c.user.ID, FriendRequestEvent{Type: EventFriendRequest, FriendRequest: fr})
	}
	return nil
}

func (s *Server) handleCancelGeneration(c *Conn) error {
	if c.state.GeneratingConversation() == 0 {
		return errs.NewError(errs.ErrNoGenerationToCancel)
	}

	// The marker rides the user's own bus so every cancel-watch task of this
	// user (there is at most one) observes it; connection writers swallow it.
	c.state.Bus().Publish(cancelRequest{})
	return nil
}

func (s *Server) handleSearchMessages(ctx context.Context, c *Conn, cmd *SearchMessagesCommand) error {
	if cmd.Query == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	msgs, err := s.store.SearchMessages(ctx, c.user.ID, cmd.ConversationIDs, cmd.Query, maxPageSize)
	if err != nil {
		return err
	}

	// Search results are private to the requester.
	for _, msg := range msgs {
		s.PublishToUser(c.user.ID, newMessageEvent(msg))
	}
	return nil
}
