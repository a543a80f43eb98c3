package chat

import (
	"testing"
	"time"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Command
		wantErr bool
	}{
		{
			name:  "send message",
			frame: `{"type":"SendMessage","conversationId":3,"message":"hi","aiModelId":2}`,
			want:  &SendMessageCommand{ConversationID: 3, Message: "hi", AIModelID: 2},
		},
		{
			name:  "send message without conversation",
			frame: `{"type":"SendMessage","message":"hi"}`,
			want:  &SendMessageCommand{Message: "hi"},
		},
		{
			name:  "edit message",
			frame: `{"type":"EditMessage","id":9,"message":"fixed"}`,
			want:  &EditMessageCommand{ID: 9, Message: "fixed"},
		},
		{
			name:  "delete message",
			frame: `{"type":"DeleteMessage","messageId":4}`,
			want:  &DeleteMessageCommand{MessageID: 4},
		},
		{
			name:  "friend request accept",
			frame: `{"type":"SendFriendRequest","otherUserId":8,"accept":true}`,
			want:  &SendFriendRequestCommand{OtherUserID: 8, Accept: true},
		},
		{
			name:  "cancel generation",
			frame: `{"type":"CancelGeneration"}`,
			want:  &CancelGenerationCommand{},
		},
		{
			name:  "search messages",
			frame: `{"type":"SearchMessages","query":"blood pressure","conversationIds":[1,2]}`,
			want:  &SearchMessagesCommand{Query: "blood pressure", ConversationIDs: []int64{1, 2}},
		},
		{
			name:  "request messages with cursor",
			frame: `{"type":"RequestMessages","conversationId":5,"messageId":100,"messageNum":20}`,
			want:  &RequestMessagesCommand{ConversationID: 5, MessageID: 100, MessageNum: 20},
		},
		{
			name:    "unknown type",
			frame:   `{"type":"Nonsense"}`,
			wantErr: true,
		},
		{
			name:    "missing type",
			frame:   `{"message":"hi"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			frame:   `hello`,
			wantErr: true,
		},
		{
			name:    "wrong field type",
			frame:   `{"type":"DeleteMessage","messageId":"four"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCommand([]byte(tt.frame))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeCommand(%q) succeeded, want error", tt.frame)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeCommand(%q) failed: %v", tt.frame, err)
			}

			switch want := tt.want.(type) {
			case *SendMessageCommand:
				assertEqual(t, *got.(*SendMessageCommand), *want)
			case *EditMessageCommand:
				assertEqual(t, *got.(*EditMessageCommand), *want)
			case *DeleteMessageCommand:
				assertEqual(t, *got.(*DeleteMessageCommand), *want)
			case *SendFriendRequestCommand:
				assertEqual(t, *got.(*SendFriendRequestCommand), *want)
			case *CancelGenerationCommand:
				if _, ok := got.(*CancelGenerationCommand); !ok {
					t.Fatalf("got %T, want *CancelGenerationCommand", got)
				}
			case *SearchMessagesCommand:
				gotCmd := got.(*SearchMessagesCommand)
				if gotCmd.Query != want.Query || len(gotCmd.ConversationIDs) != len(want.ConversationIDs) {
					t.Fatalf("got %+v, want %+v", gotCmd, want)
				}
			case *RequestMessagesCommand:
				assertEqual(t, *got.(*RequestMessagesCommand), *want)
			default:
				t.Fatalf("unhandled want type %T", tt.want)
			}
		})
	}
}

func assertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestDecodeCommandTimeCursor(t *testing.T) {
	frame := `{"type":"RequestConversations","lastMessageAt":"2026-01-02T15:04:05Z","messageNum":10}`

	got, err := DecodeCommand([]byte(frame))
	if err != nil {
		t.Fatalf("DecodeCommand failed: %v", err)
	}

	cmd := got.(*RequestConversationsCommand)
	want := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	if !cmd.LastMessageAt.Equal(want) {
		t.Fatalf("LastMessageAt = %v, want %v", cmd.LastMessageAt, want)
	}
	if cmd.MessageNum != 10 {
		t.Fatalf("MessageNum = %d, want 10", cmd.MessageNum)
	}
}
