package jwt

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// WebSocketSubprotocol is the application subprotocol clients must offer
// alongside their encoded credential during the WebSocket handshake.
const WebSocketSubprotocol = "assistant-chat-v1"

// ErrNoWSToken is returned when no offered subprotocol decodes to a bearer token.
var ErrNoWSToken = errors.New("no bearer token found in Sec-WebSocket-Protocol")

// TokenFromWSProtocols extracts a bearer token from the Sec-WebSocket-Protocol
// request header. Browser WebSocket clients cannot set an Authorization header,
// so the token travels as an extra offered subprotocol, base64 raw-URL encoded
// (unpadded) because '=' and '/' are not valid subprotocol characters.
//
// It returns the decoded token and the exact protocol entry that carried it;
// the handshake response must echo that entry back as the selected protocol.
func TokenFromWSProtocols(r *http.Request) (token string, proto string, err error) {
	for _, header := range r.Header.Values("Sec-Websocket-Protocol") {
		for _, candidate := range strings.Split(header, ",") {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" || candidate == WebSocketSubprotocol {
				continue
			}

			decoded, decodeErr := base64.RawURLEncoding.DecodeString(candidate)
			if decodeErr != nil {
				continue
			}

			return string(decoded), candidate, nil
		}
	}

	return "", "", ErrNoWSToken
}

// EncodeWSProtocol encodes a bearer token into the subprotocol form produced
// by clients. Kept beside TokenFromWSProtocols so the two stay in sync.
func EncodeWSProtocol(token string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(token))
}
