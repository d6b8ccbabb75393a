package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		domain string
		want   string
	}{
		{"VALIDATION_ERROR", ErrCodeValidation},
		{"NOT_FOUND", ErrCodeNotFound},
		{"OVERPAYMENT_REJECTED", ErrCodeOverpaymentRejected},
		{"INVALID_RECEIPT_STATE", ErrCodeInvalidReceiptState},
		{"AMOUNT_MISMATCH", ErrCodeAmountMismatch},
		{"DUPLICATE_REQUEST", ErrCodeDuplicateRequest},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"ERR_ALREADY_NORMALIZED", "ERR_ALREADY_NORMALIZED"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeErrorCode(tt.domain), tt.domain)
	}
}

func TestGetHTTPStatus(t *testing.T) {
	// business rule violations are unprocessable, not bad request
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeOverpaymentRejected))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeInvalidReceiptState))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeAmountMismatch))

	// retries and races are conflicts
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeDuplicateRequest))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeConcurrencyConflict))

	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeValidation))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("ERR_SOMETHING_NEW"))
}
