package router

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/shandysiswandi/safex/internal/pkg/goerror"
)

const maxBodyBytes = 1 << 20

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	// Request is the underlying http.Request.
	*http.Request
}

// GetHeader returns the trimmed value of the named header.
func (r *Request) GetHeader(key string) string {
	return strings.TrimSpace(r.Header.Get(key))
}

// DecodeBody decodes the JSON body into dst. Unknown fields and trailing
// data are rejected.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Request == nil || r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return goerror.NewInvalidFormat()
	}

	return nil
}
