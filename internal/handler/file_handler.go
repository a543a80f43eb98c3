package handler

import (
	"net/http"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/storage"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/auth/jwt"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/errs"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/req"
	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating an
// attachment upload URL.
type PresignUploadInput struct {
	ConversationID int64  `json:"conversationId"`
	FileName       string `json:"fileName"`
	MimeType       string `json:"mimeType"`
	FileSize       int64  `json:"fileSize"`
}

// HandlePresignUpload generates a time-limited, pre-signed URL for uploading
// an attachment into one of the caller's conversations.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.FileSize <= 0 || input.FileSize > storage.MaxAttachmentSize {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileSizeTooLarge))
			return
		}

		if !storage.AllowedMIMEType(input.MimeType) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		member, err := deps.DB.IsMember(r.Context(), input.ConversationID, identity.UserID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}
		if !member {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotConversationMember))
			return
		}

		fileKey := storage.BuildAttachmentKey(input.ConversationID, input.FileName)

		url, err := deps.Storage.PresignUpload(r.Context(), fileKey, input.MimeType, input.FileSize)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		})
	}
}

// HandlePresignDownload generates a time-limited, pre-signed URL for
// downloading an attachment. The attachment key encodes the conversation it
// belongs to; the caller must be a member of that conversation.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		fileKey := r.URL.Query().Get("k")
		if fileKey == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		conversationID, err := storage.ParseAttachmentKey(fileKey)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAttachmentKeyInvalid))
			return
		}

		member, err := deps.DB.IsMember(r.Context(), conversationID, identity.UserID)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}
		if !member {
			resp.RespondError(w, r, errs.NewError(errs.ErrNotConversationMember))
			return
		}

		url, err := deps.Storage.PresignDownload(r.Context(), fileKey)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		http.Redirect(w, r, url, http.StatusFound)
	}
}
