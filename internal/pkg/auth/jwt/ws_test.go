package jwt

import (
	"errors"
	"net/http/httptest"
	"testing"
)

func TestTokenFromWSProtocols(t *testing.T) {
	token := "eyJhbGciOiJIUzI1NiJ9.payload.signature"
	encoded := EncodeWSProtocol(token)

	tests := []struct {
		name      string
		protocols []string
		wantToken string
		wantErr   error
	}{
		{
			name:      "version tag then token",
			protocols: []string{WebSocketSubprotocol + ", " + encoded},
			wantToken: token,
		},
		{
			name:      "token then version tag",
			protocols: []string{encoded + ", " + WebSocketSubprotocol},
			wantToken: token,
		},
		{
			name:      "separate header lines",
			protocols: []string{WebSocketSubprotocol, encoded},
			wantToken: token,
		},
		{
			name:      "no protocols",
			protocols: nil,
			wantErr:   ErrNoWSToken,
		},
		{
			name:      "only version tag",
			protocols: []string{WebSocketSubprotocol},
			wantErr:   ErrNoWSToken,
		},
		{
			name:      "undecodable entries skipped",
			protocols: []string{"!!not-base64!!, " + encoded},
			wantToken: token,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			for _, p := range tt.protocols {
				r.Header.Add("Sec-Websocket-Protocol", p)
			}

			gotToken, gotProto, err := TokenFromWSProtocols(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotToken != tt.wantToken {
				t.Errorf("token = %q, want %q", gotToken, tt.wantToken)
			}
			if gotProto != EncodeWSProtocol(tt.wantToken) {
				t.Errorf("proto = %q, want the encoded token entry", gotProto)
			}
		})
	}
}

func TestGenerateAndParseToken(t *testing.T) {
	secret := "test-secret"

	payload := &Payload{UserID: 42, Username: "alice"}
	tokenString, err := GenerateToken(payload, secret, UserIdentityExpiration)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	parsed, err := ParseToken(tokenString, secret)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if parsed.UserID != 42 || parsed.Username != "alice" {
		t.Fatalf("parsed payload = %+v", parsed)
	}
	if parsed.Expiry().IsZero() {
		t.Fatal("parsed token has no expiry")
	}

	if _, err := ParseToken(tokenString, "wrong-secret"); err == nil {
		t.Fatal("token parsed with wrong secret")
	}
}
