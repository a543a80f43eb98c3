package storage

import (
	"strings"
	"testing"
)

func TestBuildAndParseAttachmentKey(t *testing.T) {
	key := BuildAttachmentKey(42, "report.PDF")

	if !strings.HasPrefix(key, "conversations/42/") {
		t.Fatalf("key = %q, want conversations/42/ prefix", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("key = %q, want lowercase .pdf extension", key)
	}

	conversationID, err := ParseAttachmentKey(key)
	if err != nil {
		t.Fatalf("ParseAttachmentKey(%q) failed: %v", key, err)
	}
	if conversationID != 42 {
		t.Fatalf("conversationID = %d, want 42", conversationID)
	}
}

func TestParseAttachmentKeyRejectsBadKeys(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"wrong prefix", "avatars/42/f.png"},
		{"missing conversation", "conversations//f.png"},
		{"non numeric conversation", "conversations/abc/f.png"},
		{"negative conversation", "conversations/-1/f.png"},
		{"missing object", "conversations/42/"},
		{"nested path", "conversations/42/a/b.png"},
		{"traversal", "conversations/42/..secret"},
		{"bare prefix", "conversations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAttachmentKey(tt.key); err == nil {
				t.Fatalf("ParseAttachmentKey(%q) succeeded, want error", tt.key)
			}
		})
	}
}

func TestAllowedMIMEType(t *testing.T) {
	for _, mime := range []string{"image/png", "application/pdf", "text/plain"} {
		if !AllowedMIMEType(mime) {
			t.Errorf("AllowedMIMEType(%q) = false, want true", mime)
		}
	}
	for _, mime := range []string{"application/x-sh", "text/html", ""} {
		if AllowedMIMEType(mime) {
			t.Errorf("AllowedMIMEType(%q) = true, want false", mime)
		}
	}
}

func TestBuildAttachmentKeyUnique(t *testing.T) {
	a := BuildAttachmentKey(1, "x.png")
	b := BuildAttachmentKey(1, "x.png")
	if a == b {
		t.Fatal("two keys for the same file must not collide")
	}
}
