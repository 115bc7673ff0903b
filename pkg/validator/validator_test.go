package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifyRequest struct {
	OrderID   string `json:"order_id" validate:"required,uuid"`
	Signature string `json:"signature" validate:"notblank,hexadecimal"`
	Quantity  int    `json:"quantity" validate:"gte=1,lte=100"`
	Internal  string `json:"-"`
}

func validRequest() verifyRequest {
	return verifyRequest{
		OrderID:   "0d6a4b5e-0a6f-4a8a-9a1f-0a5d3c1e2b7f",
		Signature: "deadbeef",
		Quantity:  2,
	}
}

func TestValidate_Success(t *testing.T) {
	assert.NoError(t, Validate(validRequest()))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	req := validRequest()
	req.OrderID = ""

	err := Validate(req)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["order_id"])
}

func TestValidate_NotBlankRejectsWhitespace(t *testing.T) {
	req := validRequest()
	req.Signature = "   "

	err := Validate(req)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "is required", valErr.Fields()["signature"])
}

func TestValidate_RangeMessages(t *testing.T) {
	req := validRequest()
	req.Quantity = 0

	err := Validate(req)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["quantity"], "1")
	assert.Contains(t, err.Error(), "field 'quantity'")
}

func TestDecodeAndValidate_Success(t *testing.T) {
	body := `{"order_id":"0d6a4b5e-0a6f-4a8a-9a1f-0a5d3c1e2b7f","signature":"ab12","quantity":3}`
	r := httptest.NewRequest("POST", "/", strings.NewReader(body))
	w := httptest.NewRecorder()

	var dst verifyRequest
	require.NoError(t, DecodeAndValidate(w, r, &dst))
	assert.Equal(t, 3, dst.Quantity)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"order_id":`))
	w := httptest.NewRecorder()

	var dst verifyRequest
	err := DecodeAndValidate(w, r, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}

func TestDecodeAndValidate_EmptyBodyStillValidated(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(""))
	w := httptest.NewRecorder()

	var dst verifyRequest
	err := DecodeAndValidate(w, r, &dst)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}
