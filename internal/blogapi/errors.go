package blogapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrConnection wraps every failure to reach the remote API at all.
var ErrConnection = errors.New("connection error")

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	StatusCode int
	Message    string
	// Field-level validation messages keyed by form field name
	Fields map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote api returned %d: %s", e.StatusCode, e.Message)
}

// errorBody covers the three error shapes the API uses:
// {"error": ...}, {"message": ...} and {"errors": [{"path", "msg"}]}.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Errors  []struct {
		Path string `json:"path"`
		Msg  string `json:"msg"`
	} `json:"errors"`
}

func (b *errorBody) toAPIError(status int) *APIError {
	apiErr := &APIError{StatusCode: status}

	var msgs []string
	for _, fe := range b.Errors {
		if fe.Msg == "" {
			continue
		}
		msgs = append(msgs, fe.Msg)
		if fe.Path != "" {
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string]string)
			}
			if _, seen := apiErr.Fields[fe.Path]; !seen {
				apiErr.Fields[fe.Path] = fe.Msg
			}
		}
	}

	switch {
	case b.Error != "":
		apiErr.Message = b.Error
	case b.Message != "":
		apiErr.Message = b.Message
	case len(msgs) > 0:
		apiErr.Message = strings.Join(msgs, "\n")
	default:
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

// AsAPIError unwraps err to an *APIError if it is one.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether the API rejected the bearer token.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.StatusCode == http.StatusUnauthorized
}
