package handler

import (
	"net/http"
	"time"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/auth/jwt"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/errs"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/logx"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/resp"
)

// HandleGetUserProfile retrieves the current authenticated user's profile.
func HandleGetUserProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		user, err := deps.DB.GetUserByID(r.Context(), identity.UserID)
		if err != nil {
			logx.Warn("Profile lookup failed", "user_id", identity.UserID, "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": map[string]any{
				"id":          user.ID,
				"username":    user.Username,
				"createdAt":   user.CreatedAt.Format(time.RFC3339),
				"connections": deps.Chat.Registry().Connections(user.ID),
			},
		})
	}
}

// HandleListModels lists the generative models clients may request in
// SendMessage commands.
func HandleListModels(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		models, err := deps.DB.ListModels(r.Context())
		if err != nil {
			logx.Error(err, "Failed to list AI models")
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"models": models,
		})
	}
}
