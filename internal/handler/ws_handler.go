/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
authenticating the bearer token carried in the subprotocol list, upgrading the HTTP
connection to WebSocket, and handing the socket to the chat engine.
*/
package handler

import (
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/auth/jwt"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/errs"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/limiter"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/logx"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/resp"
)

// HandleWebSocket processes WebSocket connection requests.
//
// Browser WebSocket clients cannot set an Authorization header, so the bearer
// token travels base64url-encoded in the Sec-WebSocket-Protocol list next to
// the protocol version tag. The matched token protocol is echoed back in the
// upgrade response, as the browser API requires.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		tokenString, tokenProto, err := jwt.TokenFromWSProtocols(r)
		if err != nil {
			if !errors.Is(err, jwt.ErrNoWSToken) {
				logx.Warn("WebSocket request rejected: Malformed subprotocol token", "error", err)
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
		if err != nil {
			logx.Warn("WebSocket request rejected: Invalid token", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		user, err := deps.DB.GetUserByID(r.Context(), payload.UserID)
		if err != nil {
			logx.Warn("WebSocket request rejected: Unknown user", "user_id", payload.UserID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, http.Header{
			"Sec-Websocket-Protocol": []string{tokenProto},
		})
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		logx.Info("WebSocket connection established", "user_id", user.ID, "ip", ip)

		deps.Chat.HandleConn(r.Context(), conn, user, payload.Expiry())
	}
}
