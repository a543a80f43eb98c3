/*
Package storage handles attachment storage on S3-compatible object stores.

Attachments are keyed under the conversation they belong to, so access
control reduces to a conversation membership check on the key prefix.
*/
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// MaxAttachmentSize is the largest attachment a client may upload.
	MaxAttachmentSize = 25 << 20 // 25 MiB

	// PresignDuration is how long a presigned upload or download URL
	// stays valid.
	PresignDuration = 15 * time.Minute

	// attachmentPrefix is the key namespace for conversation attachments.
	attachmentPrefix = "conversations"
)

// allowedMIMETypes are the attachment content types clients may upload.
var allowedMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/gif":       {},
	"image/webp":      {},
	"application/pdf": {},
	"text/plain":      {},
}

// ErrInvalidAttachmentKey reports a key outside the attachment namespace.
var ErrInvalidAttachmentKey = errors.New("invalid attachment key")

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// AttachmentService is the public interface for conversation attachment storage.
type AttachmentService interface {
	// PresignUpload generates a pre-signed URL for uploading an attachment.
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64) (string, error)

	// PresignDownload generates a pre-signed URL for downloading an attachment.
	PresignDownload(ctx context.Context, key string) (string, error)

	// Delete removes the attachment specified by the given key.
	Delete(ctx context.Context, key string) error

	// ObjectMetadata retrieves the Content-Type and Content-Length of a
	// stored attachment.
	ObjectMetadata(ctx context.Context, key string) (map[string]string, error)
}

// NewAttachmentService initializes a concrete implementation based on the
// provided configuration. Only S3-compatible backends are supported.
func NewAttachmentService(cfg ServiceConfig) (AttachmentService, error) {
	return newS3Client(cfg)
}

// AllowedMIMEType reports whether clients may upload this content type.
func AllowedMIMEType(mimeType string) bool {
	_, ok := allowedMIMETypes[mimeType]
	return ok
}

// BuildAttachmentKey mints a fresh object key for an attachment in the given
// conversation. The original filename contributes only its extension.
func BuildAttachmentKey(conversationID int64, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d/%s%s", attachmentPrefix, conversationID, uuid.NewString(), ext)
}

// ParseAttachmentKey extracts the conversation ID an attachment key belongs
// to. Keys outside the attachment namespace are rejected.
func ParseAttachmentKey(key string) (int64, error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[0] != attachmentPrefix || parts[2] == "" {
		return 0, ErrInvalidAttachmentKey
	}

	conversationID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || conversationID <= 0 {
		return 0, ErrInvalidAttachmentKey
	}
	if strings.Contains(parts[2], "/") || strings.Contains(parts[2], "..") {
		return 0, ErrInvalidAttachmentKey
	}

	return conversationID, nil
}
