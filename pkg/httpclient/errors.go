package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
)

// upstreamError accepts both error body shapes seen from upstreams:
// {"error":{"code","description"}} and {"errors":{"code"},"message"}.
type upstreamError struct {
	Error *struct {
		Code        string `json:"code"`
		Description string `json:"description"`
		Message     string `json:"message"`
	} `json:"error"`
	Errors *struct {
		Code string `json:"code"`
	} `json:"errors"`
	Message string `json:"message"`
}

func (u upstreamError) codeAndMessage() (string, string, bool) {
	switch {
	case u.Error != nil:
		msg := u.Error.Description
		if msg == "" {
			msg = u.Error.Message
		}
		return u.Error.Code, msg, true
	case u.Errors != nil:
		return u.Errors.Code, u.Message, true
	}
	return "", "", false
}

// ParseResponseError consumes and closes a non-2xx response body and maps
// it to an error that keeps the upstream's meaning.
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", upstream, resp.StatusCode, err)
	}

	var parsed upstreamError
	if json.Unmarshal(body, &parsed) == nil {
		if code, msg, ok := parsed.codeAndMessage(); ok {
			return mapUpstreamError(resp.StatusCode, code, msg, upstream)
		}
	}
	return fmt.Errorf("%s returned status %d: %s", upstream, resp.StatusCode, body)
}

func mapUpstreamError(status int, code, message, upstream string) error {
	msg := fmt.Sprintf("%s: %s", upstream, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(upstream, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case status == http.StatusUnauthorized:
		// Rejected merchant credentials are our misconfiguration, not the caller's.
		return apperrors.Configuration(msg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case status == http.StatusConflict:
		return apperrors.Conflict(msg)
	case status == http.StatusGone:
		return apperrors.Gone(msg)
	case status == http.StatusUnprocessableEntity:
		return apperrors.PaymentFailed(msg)
	case status == http.StatusServiceUnavailable:
		return &apperrors.AppError{Code: code, Message: msg, Status: status, Err: apperrors.ErrServiceUnavail}
	case status >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", upstream, status, code, message)
	}
	return &apperrors.AppError{Code: code, Message: msg, Status: status}
}
