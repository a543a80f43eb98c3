package pow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
)

// solve brute-forces a counter whose hash satisfies the difficulty.
func solve(nonce string, difficulty int) string {
	prefix := strings.Repeat("0", difficulty)
	for i := 0; ; i++ {
		counter := fmt.Sprintf("%d", i)
		hash := sha256.Sum256([]byte(nonce + counter))
		if strings.HasPrefix(hex.EncodeToString(hash[:]), prefix) {
			return counter
		}
	}
}

func TestValidateProofIssuesToken(t *testing.T) {
	mgr := NewPoWManager(1)

	nonce := mgr.GenerateNonce()
	counter := solve(nonce, 1)

	token, err := mgr.ValidateProof(nonce, counter)
	if err != nil {
		t.Fatalf("ValidateProof failed: %v", err)
	}
	if token == "" {
		t.Fatal("empty proof token")
	}

	r := httptest.NewRequest("POST", "/api/auth/register", nil)
	r.Header.Set(TokenHeaderKey, token)
	if !mgr.CheckProofToken(r) {
		t.Fatal("issued token not accepted")
	}
}

func TestValidateProofRejectsBadCounter(t *testing.T) {
	mgr := NewPoWManager(4)

	nonce := mgr.GenerateNonce()
	if _, err := mgr.ValidateProof(nonce, "definitely-wrong"); err == nil {
		t.Fatal("invalid counter accepted")
	}
}

func TestNonceIsSingleUse(t *testing.T) {
	mgr := NewPoWManager(1)

	nonce := mgr.GenerateNonce()
	counter := solve(nonce, 1)

	if _, err := mgr.ValidateProof(nonce, counter); err != nil {
		t.Fatalf("first validation failed: %v", err)
	}
	if _, err := mgr.ValidateProof(nonce, counter); err == nil {
		t.Fatal("nonce reuse accepted")
	}
}

func TestCheckProofTokenUnknown(t *testing.T) {
	mgr := NewPoWManager(1)

	r := httptest.NewRequest("POST", "/api/auth/register", nil)
	r.Header.Set(TokenHeaderKey, "made-up")
	if mgr.CheckProofToken(r) {
		t.Fatal("unknown token accepted")
	}

	if mgr.CheckProofToken(httptest.NewRequest("POST", "/", nil)) {
		t.Fatal("missing token accepted")
	}
}
