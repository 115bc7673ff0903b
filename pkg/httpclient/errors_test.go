package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
)

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		contains string
	}{
		{"gateway bad request", 400, `{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least 100"}}`, apperrors.ErrInvalidInput, "amount must be at least 100"},
		{"bad credentials", 401, `{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`, apperrors.ErrConfiguration, "Authentication failed"},
		{"envelope shape", 409, `{"success":false,"message":"busy","errors":{"code":"CONFLICT"}}`, apperrors.ErrConflict, "busy"},
		{"unavailable", 503, `{"error":{"code":"SERVER_ERROR","description":"down"}}`, apperrors.ErrServiceUnavail, "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(response(tt.status, tt.body), "razorpay")
			assert.True(t, errors.Is(err, tt.sentinel), "got %v", err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParseResponseError_Unstructured(t *testing.T) {
	err := ParseResponseError(response(502, "<html>bad gateway</html>"), "razorpay")

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Contains(t, err.Error(), "status 502")
}
