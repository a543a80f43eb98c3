package chat

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// CommandType is the wire discriminator of a client-to-server command.
type CommandType string

const (
	CmdSendMessage           CommandType = "SendMessage"
	CmdEditMessage           CommandType = "EditMessage"
	CmdDeleteMessage         CommandType = "DeleteMessage"
	CmdSendFriendRequest     CommandType = "SendFriendRequest"
	CmdInviteUsers           CommandType = "InviteUsers"
	CmdReadMessage           CommandType = "ReadMessage"
	CmdRequestMessages       CommandType = "RequestMessages"
	CmdRequestConversation   CommandType = "RequestConversation"
	CmdRequestConversations  CommandType = "RequestConversations"
	CmdRequestFriends        CommandType = "RequestFriends"
	CmdRequestFriendRequests CommandType = "RequestFriendRequests"
	CmdCancelGeneration      CommandType = "CancelGeneration"
	CmdSearchMessages        CommandType = "SearchMessages"
)

// Command is a decoded client command. The concrete type is one of the
// *Command structs below; dispatch switches over it exhaustively.
type Command interface {
	isCommand()
}

// SendMessageCommand posts a message. A zero ConversationID starts a new
// conversation; a non-zero AIModelID additionally requests a model response.
type SendMessageCommand struct {
	ConversationID int64  `json:"conversationId,omitempty"`
	Message        string `json:"message"`
	AIModelID      int64  `json:"aiModelId,omitempty"`
}

// EditMessageCommand replaces the content of the caller's own message.
type EditMessageCommand struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

// DeleteMessageCommand removes the caller's own message.
type DeleteMessageCommand struct {
	MessageID int64 `json:"messageId"`
}

// SendFriendRequestCommand creates a request toward another user, accepts a
// pending incoming one when Accept is set, or declines it when Accept is
// unset and such a request exists.
type SendFriendRequestCommand struct {
	OtherUserID int64 `json:"otherUserId"`
	Accept      bool  `json:"accept"`
}

// InviteUsersCommand adds users to a conversation. A zero ConversationID
// creates a new conversation containing the caller and the invitees.
type InviteUsersCommand struct {
	ConversationID int64   `json:"conversationId,omitempty"`
	Invitees       []int64 `json:"invitees"`
}

// ReadMessageCommand records a read receipt for the whole conversation.
type ReadMessageCommand struct {
	ConversationID int64 `json:"conversationId"`
}

// RequestMessagesCommand pages backward through a conversation's history.
// MessageID is an exclusive upper cursor; zero starts at the newest message.
type RequestMessagesCommand struct {
	MessageID      int64 `json:"messageId,omitempty"`
	ConversationID int64 `json:"conversationId"`
	MessageNum     int32 `json:"messageNum,omitempty"`
}

// RequestConversationCommand fetches one conversation snapshot.
type RequestConversationCommand struct {
	ConversationID int64 `json:"conversationId"`
}

// RequestConversationsCommand pages through the caller's conversations by
// recent activity.
type RequestConversationsCommand struct {
	LastMessageAt time.Time `json:"lastMessageAt,omitempty"`
	MessageNum    int32     `json:"messageNum,omitempty"`
}

// RequestFriendsCommand lists accepted friendships.
type RequestFriendsCommand struct{}

// RequestFriendRequestsCommand lists pending friend requests.
type RequestFriendRequestsCommand struct{}

// CancelGenerationCommand aborts the caller's in-flight model generation.
type CancelGenerationCommand struct{}

// SearchMessagesCommand runs a full-text query over the caller's
// conversations, optionally narrowed to a candidate set. Results are
// delivered only to the caller.
type SearchMessagesCommand struct {
	Query           string  `json:"query"`
	ConversationIDs []int64 `json:"conversationIds,omitempty"`
}

func (SendMessageCommand) isCommand()           {}
func (EditMessageCommand) isCommand()           {}
func (DeleteMessageCommand) isCommand()         {}
func (SendFriendRequestCommand) isCommand()     {}
func (InviteUsersCommand) isCommand()           {}
func (ReadMessageCommand) isCommand()           {}
func (RequestMessagesCommand) isCommand()       {}
func (RequestConversationCommand) isCommand()   {}
func (RequestConversationsCommand) isCommand()  {}
func (RequestFriendsCommand) isCommand()        {}
func (RequestFriendRequestsCommand) isCommand() {}
func (CancelGenerationCommand) isCommand()      {}
func (SearchMessagesCommand) isCommand()        {}

// DecodeCommand parses one inbound frame. Unknown type tags are a decode
// error, never a silent no-op.
func DecodeCommand(frame []byte) (Command, error) {
	var envelope struct {
		Type CommandType `json:"type"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	decode := func(dst Command) (Command, error) {
		if err := json.Unmarshal(frame, dst); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", envelope.Type, err)
		}
		return dst, nil
	}

	switch envelope.Type {
	case CmdSendMessage:
		return decode(&SendMessageCommand{})
	case CmdEditMessage:
		return decode(&EditMessageCommand{})
	case CmdDeleteMessage:
		return decode(&DeleteMessageCommand{})
	case CmdSendFriendRequest:
		return decode(&SendFriendRequestCommand{})
	case CmdInviteUsers:
		return decode(&InviteUsersCommand{})
	case CmdReadMessage:
		return decode(&ReadMessageCommand{})
	case CmdRequestMessages:
		return decode(&RequestMessagesCommand{})
	case CmdRequestConversation:
		return decode(&RequestConversationCommand{})
	case CmdRequestConversations:
		return decode(&RequestConversationsCommand{})
	case CmdRequestFriends:
		return decode(&RequestFriendsCommand{})
	case CmdRequestFriendRequests:
		return decode(&RequestFriendRequestsCommand{})
	case CmdCancelGeneration:
		return decode(&CancelGenerationCommand{})
	case CmdSearchMessages:
		return decode(&SearchMessagesCommand{})
	default:
		return nil, fmt.Errorf("unknown command type %q", envelope.Type)
	}
}
