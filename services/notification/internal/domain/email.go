package domain

import (
	"net/mail"
	"strings"

	apperrors "github.com/kitchencart/ecommerce/pkg/errors"
)

// Attachment references a file stored by the producing service.
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Email is a request to deliver one email. Its JSON form is the payload of
// the email_requested event.
type Email struct {
	To         string      `json:"to"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
	OrderID    string      `json:"order_id,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Validate rejects emails that no sender could deliver.
func (e *Email) Validate() error {
	if strings.TrimSpace(e.To) == "" {
		return apperrors.InvalidInput("email recipient is required")
	}
	if _, err := mail.ParseAddress(e.To); err != nil {
		return apperrors.InvalidInput("invalid email recipient: " + e.To)
	}
	if strings.TrimSpace(e.Subject) == "" {
		return apperrors.InvalidInput("email subject is required")
	}
	if e.Attachment != nil && (e.Attachment.Name == "" || e.Attachment.Path == "") {
		return apperrors.InvalidInput("email attachment needs a name and a path")
	}
	return nil
}
