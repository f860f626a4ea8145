// internal/apiclient/errors.go
package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const fallbackMessage = "Request failed"

// APIError is returned for transport failures and non-2xx responses.
// StatusCode is zero when the request never got a response.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is an APIError carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

func newResponseError(status int, body []byte) *APIError {
	msg := ExtractDetail(body)
	if msg == "" {
		msg = fmt.Sprintf("request failed with status code %d", status)
		if text := http.StatusText(status); text != "" {
			msg = fmt.Sprintf("%s (%s)", msg, text)
		}
	}
	return &APIError{StatusCode: status, Message: msg}
}

func newTransportError(err error) *APIError {
	msg := fallbackMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &APIError{Message: msg, Err: err}
}

// ExtractDetail pulls a human readable message out of a `{"detail": ...}` body.
// detail may be a string, a list of {msg} entries or strings, or an object.
// It returns "" when the body carries no usable detail.
func ExtractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	detail := bytes.TrimSpace(payload.Detail)
	if len(detail) == 0 || string(detail) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(detail, &s); err == nil {
		return s
	}

	var list []json.RawMessage
	if err := json.Unmarshal(detail, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, listItemMessage(item))
		}
		return strings.Join(parts, ", ")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(detail, &obj); err == nil {
		if raw, ok := obj["message"]; ok {
			var m string
			if err := json.Unmarshal(raw, &m); err == nil {
				return m
			}
		}
	}

	return compactJSON(detail)
}

func listItemMessage(item json.RawMessage) string {
	var entry struct {
		Msg *string `json:"msg"`
	}
	if err := json.Unmarshal(item, &entry); err == nil && entry.Msg != nil {
		return *entry.Msg
	}
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}
	return compactJSON(item)
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
