/*
Package req provides helper functions for HTTP request parsing and data binding.

It encapsulates the logic for parsing JSON request bodies with strict field
checking, and integrates error handling to ensure data format correctness and
size constraints, facilitating subsequent business logic processing.
*/
package req

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/pkg/errs"
)

// MaxBodySize defines the maximum allowed size for a JSON request body.
const MaxBodySize int64 = 1 << 20 // 1 MB

// BindJSON attempts to bind the JSON data from the HTTP request body to the destination struct dst.
func BindJSON(r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	body := http.MaxBytesReader(nil, r.Body, MaxBodySize)

	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			return errs.NewError(errs.ErrRequestEntityTooLarge)
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
