package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// maxErrorBody bounds how much of an error body is read.
const maxErrorBody = 1 << 20

// backendErrorBody covers the error shapes the catalog backend emits: its own
// {"message": ...} maps and the framework default {"error": ..., "message": ...}.
type backendErrorBody struct {
	Message string `json:"message"`
	Error   any    `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an *AppError whose Message is the backend's own text. Structured
// bodies contribute their message field; anything else is kept verbatim.
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		appErr := apperrors.FromStatus(resp.StatusCode, "")
		appErr.Err = fmt.Errorf("read error body: %w", err)
		return appErr
	}

	return apperrors.FromStatus(resp.StatusCode, messageFromBody(bodyBytes))
}

func messageFromBody(body []byte) string {
	raw := strings.TrimSpace(string(body))
	if raw == "" {
		return ""
	}

	var parsed backendErrorBody
	if json.Unmarshal(body, &parsed) == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		switch e := parsed.Error.(type) {
		case string:
			if e != "" {
				return e
			}
		case map[string]any:
			if msg, ok := e["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}

	return raw
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}

// IsSuccess returns true for 2xx statuses.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}
