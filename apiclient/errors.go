package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string // per-field validation messages, if any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == code
}

// newAPIError reads the error body: {"error": "msg"}, a {"field": "msg"} map or plain text.
func newAPIError(code int, body string) *APIError {
	apiErr := &APIError{StatusCode: code}

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(body), &obj); err == nil && len(obj) > 0 {
		if msg, ok := obj["error"].(string); ok && len(obj) == 1 {
			apiErr.Message = msg
			return apiErr
		}
		if msg, ok := obj["message"].(string); ok && len(obj) == 1 {
			apiErr.Message = msg
			return apiErr
		}
		apiErr.Fields = make(map[string]string, len(obj))
		msgs := make([]string, 0, len(obj))
		for fld, val := range obj {
			s := fmt.Sprint(val)
			apiErr.Fields[fld] = s
			msgs = append(msgs, fld+": "+s)
		}
		sort.Strings(msgs)
		apiErr.Message = strings.Join(msgs, "; ")
		return apiErr
	}

	if msg := strings.TrimSpace(body); msg != "" {
		apiErr.Message = msg
	} else {
		apiErr.Message = http.StatusText(code)
	}
	return apiErr
}
