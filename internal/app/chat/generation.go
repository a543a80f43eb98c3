/*
This file runs the per-user AI generation single-flight. The slot is claimed
by the dispatching command (CAS on the user's generating flag); the race
between the model query and a cancel request is resolved here.
*/
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/db"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/errs"
)

const (
	// historyWindow bounds the conversation context sent to the model.
	historyWindow = 50

	// generationTimeout bounds one model query end to end.
	generationTimeout = 5 * time.Minute
)

// startGeneration launches the detached generation task. The caller must
// already hold the user's single-flight slot (BeginGeneration succeeded)
// and hands over the cancel-watch subscription it created before claiming
// the slot, so a CancelGeneration accepted at any point after the claim is
// already buffered on the watch and cannot slip past the watcher.
func (s *Server) startGeneration(state *UserState, user model.User, conversationID int64, aiModel model.AIModel, watch *Subscription) {
	s.wg.Add(1)
	go s.runGeneration(state, user, conversationID, aiModel, watch)
}

type generationResult struct {
	content string
	err     error
}

// runGeneration executes one model query and races it against a cancel
// request on the user's bus. Exactly one terminal event is produced: a
// Message on success, a CanceledGeneration on cancel, or an Error to the
// requesting user on failure. The single-flight slot is released on every
// path.
func (s *Server) runGeneration(state *UserState, user model.User, conversationID int64, aiModel model.AIModel, watch *Subscription) {
	defer s.wg.Done()
	defer state.EndGeneration(conversationID)
	defer watch.Close()

	// The generation outlives the connection that started it; it is scoped
	// to the server, not to the socket.
	ctx, cancel := context.WithTimeout(s.baseCtx, generationTimeout)
	defer cancel()

	logger := s.logger.With().
		Int64("user_id", user.ID).
		Int64("conversation_id", conversationID).
		Str("model", aiModel.Name).
		Logger()

	// The member set is resolved once up front; stream chunks and the
	// terminal event go to the same audience.
	memberIDs, err := s.store.MemberIDs(ctx, conversationID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to resolve conversation members for generation")
		s.PublishToUser(user.ID, newErrorEvent(errs.NewError(errs.ErrModelQueryFailed).Message))
		return
	}

	history, err := s.store.ListMessages(ctx, conversationID, 0, historyWindow)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load conversation history for generation")
		s.PublishToUser(user.ID, newErrorEvent(errs.NewError(errs.ErrModelQueryFailed).Message))
		return
	}
	reverseMessages(history)

	streamID := uuid.NewString()
	publishAll := func(ev Event) {
		for _, id := range memberIDs {
			s.PublishToUser(id, ev)
		}
	}

	done := make(chan generationResult, 1)
	go func() {
		content, err := s.models.Stream(ctx, aiModel, history, func(chunk string) {
			publishAll(StreamDataEvent{
				Type:           EventStreamData,
				StreamID:       streamID,
				ConversationID: conversationID,
				Chunk:          chunk,
			})
		})
		done <- generationResult{content: content, err: err}
	}()

	watchCh := watch.Events()
	for {
		select {
		case res := <-done:
			if res.err != nil {
				// A canceled context here means the server is shutting
				// down or the deadline passed, not a user cancel.
				logger.Warn().Err(res.err).Msg("Model query failed")
				s.PublishToUser(user.ID, newErrorEvent(errs.NewError(errs.ErrModelQueryFailed).Message))
				return
			}

			msg, err := s.store.CreateMessage(ctx, db.CreateMessageParams{
				ConversationID: conversationID,
				UserID:         user.ID,
				ModelID:        aiModel.ID,
				Content:        res.content,
			})
			if err != nil {
				logger.Error().Err(err).Msg("Failed to persist model response")
				s.PublishToUser(user.ID, newErrorEvent(errs.NewError(errs.ErrModelQueryFailed).Message))
				return
			}

			publishAll(newMessageEvent(msg))
			return

		case ev, ok := <-watchCh:
			if !ok {
				// The bus closed because the user's last connection left.
				// That is not a cancel; the generation keeps running and
				// its result is persisted for later retrieval.
				watchCh = nil
				continue
			}
			if _, isCancel := ev.(cancelRequest); !isCancel {
				continue
			}

			// Cancel wins. Tearing down the context suppresses any late
			// completion from the model task.
			cancel()
			logger.Info().Msg("Generation canceled by user")
			publishAll(CanceledGenerationEvent{
				Type:           EventCanceledGeneration,
				ConversationID: conversationID,
			})
			return
		}
	}
}

// reverseMessages flips a newest-first page into chronological order.
func reverseMessages(msgs []model.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}
