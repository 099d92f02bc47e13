package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// apiErrorBody is the JSON error envelope returned by the upstream API.
type apiErrorBody struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// RateLimitError reports an upstream 429 raised before any chunk was streamed.
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("upstream rate limit: %s", e.Message)
}

// APIError reports any other upstream open-time failure.
type APIError struct {
	StatusCode int
	Message    string
	Status     string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("upstream API error [%d]: %s (status: %s)", e.StatusCode, e.Message, e.Status)
	}
	return fmt.Sprintf("upstream API error [%d]: %s", e.StatusCode, e.Message)
}

// classifyStatus maps an upstream non-200 response to a typed error.
func classifyStatus(statusCode int, body []byte) error {
	msg := string(body)
	status := ""

	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		msg = envelope.Error.Message
		status = envelope.Error.Status
	}

	if statusCode == http.StatusTooManyRequests {
		return &RateLimitError{Message: msg}
	}
	return &APIError{StatusCode: statusCode, Message: msg, Status: status}
}
