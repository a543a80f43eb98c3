package chat

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/logx"
)

// UserState is the per-user entry shared by all of a user's physical
// connections. It is created when the first connection registers and removed
// when the last one unregisters.
type UserState struct {
	userID int64

	// mu makes the connection count and the entry's lifecycle transitions
	// one atomic step: a registration can never observe a positive count
	// without the bus existing, and teardown can never race a concurrent
	// registration into a half-dead entry.
	mu     sync.Mutex
	conns  int
	closed bool

	bus *Bus

	// generating holds the conversation id of the in-flight model query,
	// zero meaning idle. Real conversation ids are always positive.
	generating atomic.Int64
}

func newUserState(userID int64) *UserState {
	return &UserState{userID: userID, bus: NewBus()}
}

// Bus returns the user's multicast bus. The handle is immutable for the
// lifetime of the entry.
func (s *UserState) Bus() *Bus {
	return s.bus
}

// BeginGeneration atomically claims the generation slot for a conversation.
// It fails if any generation is already in flight, regardless of conversation.
func (s *UserState) BeginGeneration(conversationID int64) bool {
	return s.generating.CompareAndSwap(0, conversationID)
}

// EndGeneration releases the generation slot claimed for conversationID.
func (s *UserState) EndGeneration(conversationID int64) {
	s.generating.CompareAndSwap(conversationID, 0)
}

// GeneratingConversation returns the conversation id of the in-flight
// generation, or zero when idle.
func (s *UserState) GeneratingConversation() int64 {
	return s.generating.Load()
}

// Registry is the process-wide map from user id to UserState. Lookups are
// lock-free via sync.Map; mutations synchronize per entry, so traffic for
// distinct users never contends on a shared lock.
type Registry struct {
	users  sync.Map // int64 -> *UserState
	logger zerolog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: logx.Logger().With().Str("component", "Registry").Logger(),
	}
}

// Register records one new physical connection for the user and returns the
// shared state plus whether this was the user's first connection. Creation
// of the bus and the 0→1 count transition happen under the same entry lock.
func (r *Registry) Register(userID int64) (*UserState, bool) {
	for {
		value, _ := r.users.LoadOrStore(userID, newUserState(userID))
		state := value.(*UserState)

		state.mu.Lock()
		if state.closed {
			// Lost a race against the teardown of the previous entry;
			// it is already deleted from the map, so retry with a fresh one.
			state.mu.Unlock()
			continue
		}

		state.conns++
		first := state.conns == 1
		state.mu.Unlock()

		r.logger.Debug().Int64("user_id", userID).Bool("first", first).Msg("Connection registered.")
		return state, first
	}
}

// Unregister records one closed connection and returns the remaining count.
// The decrement and the post-decrement observation are one atomic step: the
// caller that sees zero is the one that tears the entry down, and no
// concurrent Register can slip in between.
//
// Unregistering a user with no live entry is a bookkeeping bug, not an
// environment error, and panics.
func (r *Registry) Unregister(userID int64) int {
	value, ok := r.users.Load(userID)
	if !ok {
		panic(fmt.Sprintf("chat: unregister of unknown user %d", userID))
	}
	state := value.(*UserState)

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.closed || state.conns == 0 {
		panic(fmt.Sprintf("chat: unregister without matching register for user %d", userID))
	}

	state.conns--
	remaining := state.conns
	if remaining == 0 {
		state.closed = true
		r.users.Delete(userID)
		state.bus.Close()
		r.logger.Debug().Int64("user_id", userID).Msg("Last connection gone, user state removed.")
	}

	return remaining
}

// Lookup returns the live state for a user, or nil if the user has no open
// connections. Used by fan-out: a nil result is a no-op delivery, not an
// error.
func (r *Registry) Lookup(userID int64) *UserState {
	value, ok := r.users.Load(userID)
	if !ok {
		return nil
	}
	return value.(*UserState)
}

// Connections reports the user's current connection count. Zero for unknown
// users.
func (r *Registry) Connections(userID int64) int {
	value, ok := r.users.Load(userID)
	if !ok {
		return 0
	}
	state := value.(*UserState)

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.conns
}
