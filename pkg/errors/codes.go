package errors

import "net/http"

// Code classifies an error for transport. Each code maps to one HTTP status.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata is how a code is presented to clients. When DetailsAllowed is
// false the error's details never leave the process.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var catalogue = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, false, "validation failed", true},
	CodeUnauthorized:  {http.StatusUnauthorized, false, "authentication required", false},
	CodeForbidden:     {http.StatusForbidden, false, "access denied", true},
	CodeNotFound:      {http.StatusNotFound, false, "resource not found", true},
	CodeConflict:      {http.StatusConflict, false, "conflict detected", true},
	CodeStateConflict: {http.StatusUnprocessableEntity, false, "state transition disallowed", true},
	CodeIdempotency:   {http.StatusConflict, false, "idempotency key reused", true},
	CodeRateLimit:     {http.StatusTooManyRequests, true, "rate limit exceeded", true},
	CodeInternal:      {http.StatusInternalServerError, true, "internal server error", false},
	CodeDependency:    {http.StatusServiceUnavailable, true, "dependency unavailable", true},
}

// MetadataFor treats unknown codes as internal errors.
func MetadataFor(code Code) Metadata {
	if meta, ok := catalogue[code]; ok {
		return meta
	}
	return catalogue[CodeInternal]
}

// Reason is a stable machine-readable failure identifier surfaced to clients
// as details.reason.
type Reason string

const (
	ReasonInsufficientStock   Reason = "insufficient_stock"
	ReasonProductNotFound     Reason = "product_not_found"
	ReasonOrderNotFound       Reason = "order_not_found"
	ReasonAddressNotFound     Reason = "address_not_found"
	ReasonOTPExpired          Reason = "otp_expired"
	ReasonInvalidOTP          Reason = "invalid_otp"
	ReasonAttemptsExceeded    Reason = "attempts_exceeded"
	ReasonResendLimitExceeded Reason = "resend_limit_exceeded"
	ReasonResendTooSoon       Reason = "resend_too_soon"
	ReasonAlreadyCancelled    Reason = "already_cancelled"
	ReasonAlreadyDelivered    Reason = "already_delivered"
	ReasonOTPNotIssued        Reason = "otp_not_issued"
	ReasonInvalidOrderState   Reason = "invalid_order_state"
	ReasonInvalidSignature    Reason = "invalid_signature"
	ReasonStatusRegression    Reason = "status_regression"
	ReasonCouponInvalid       Reason = "coupon_invalid"
	ReasonCouponNotEligible   Reason = "coupon_not_eligible"
	ReasonNotOrderParty       Reason = "not_order_party"
	ReasonGatewayFailed       Reason = "gateway_failed"
)
