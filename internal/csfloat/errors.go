package csfloat

import (
	"errors"
	"fmt"
	"net/http"
)

// kycErrorCode is the marketplace's error code for listings that exceed the
// price allowed without identity verification.
const kycErrorCode = 4

// ErrKYCRequired is returned when a listing or reprice is rejected because the
// account has not completed identity verification.
var ErrKYCRequired = errors.New("item overpriced, you need to complete KYC")

// APIError is a non-2xx response from the marketplace.
type APIError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("csfloat API error: %d - %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("csfloat API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets errors.Is match ErrKYCRequired against the marketplace's KYC rejection.
func (e *APIError) Is(target error) bool {
	return target == ErrKYCRequired && e.StatusCode == http.StatusBadRequest && e.Code == kycErrorCode
}

func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}
