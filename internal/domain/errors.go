package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Commission Errors (COMMISSION_*)
	ErrorCodeCommissionNotFound       ErrorCode = "COMMISSION_NOT_FOUND"
	ErrorCodeCommissionNotPayable     ErrorCode = "COMMISSION_NOT_PAYABLE"
	ErrorCodeCommissionAlreadyBatched ErrorCode = "COMMISSION_ALREADY_BATCHED"
	ErrorCodeCommissionInvalidState   ErrorCode = "COMMISSION_INVALID_STATE"

	// Payout Errors (PAYOUT_*)
	ErrorCodePayoutNotFound      ErrorCode = "PAYOUT_NOT_FOUND"
	ErrorCodePayoutBelowMinimum  ErrorCode = "PAYOUT_BELOW_MINIMUM"
	ErrorCodePayoutHeld          ErrorCode = "PAYOUT_HELD"
	ErrorCodePayoutNothingToPay  ErrorCode = "PAYOUT_NOTHING_TO_PAY"
	ErrorCodePayoutInvalidState  ErrorCode = "PAYOUT_INVALID_STATE"
	ErrorCodePayoutsDisabled     ErrorCode = "PAYOUTS_DISABLED"
	ErrorCodePayoutOpenExists    ErrorCode = "PAYOUT_OPEN_EXISTS"
	ErrorCodePayoutMethodMissing ErrorCode = "PAYOUT_METHOD_MISSING"

	// Invoice Errors (INVOICE_*)
	ErrorCodeInvoiceNotFound       ErrorCode = "INVOICE_NOT_FOUND"
	ErrorCodeInvoiceNotRetryable   ErrorCode = "INVOICE_NOT_RETRYABLE"
	ErrorCodeInvoiceRetryExhausted ErrorCode = "INVOICE_RETRY_EXHAUSTED"
	ErrorCodeInvoiceNoBilling      ErrorCode = "INVOICE_NO_BILLING_ACCOUNT"

	// Payout Rail Errors (RAIL_*)
	ErrorCodeRailLookupFailed ErrorCode = "RAIL_LOOKUP_FAILED"

	// Partner Errors (PARTNER_*)
	ErrorCodePartnerNotFound ErrorCode = "PARTNER_NOT_FOUND"

	// Reward Errors (REWARD_*)
	ErrorCodeRewardNotFound ErrorCode = "REWARD_NOT_FOUND"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"

	// Funding Dispatch Errors (FUNDING_*)
	ErrorCodeFundingDispatchFailed ErrorCode = "FUNDING_DISPATCH_FAILED"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeCommissionNotFound ||
		code == ErrorCodePayoutNotFound ||
		code == ErrorCodeInvoiceNotFound ||
		code == ErrorCodePartnerNotFound ||
		code == ErrorCodeRewardNotFound
}

// IsConsistencyError checks if an error is a settlement consistency rejection.
// These are never silently skipped: skipping would under- or double-pay a
// partner.
func IsConsistencyError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeCommissionAlreadyBatched ||
		code == ErrorCodeCommissionInvalidState ||
		code == ErrorCodePayoutInvalidState ||
		code == ErrorCodeInvoiceNotRetryable ||
		code == ErrorCodePayoutOpenExists
}

// IsTerminalRetryError checks if an error reports an exhausted retry budget
func IsTerminalRetryError(err error) bool {
	return GetErrorCode(err) == ErrorCodeInvoiceRetryExhausted
}

// Structured error instances
var (
	ErrCommissionNotFound       = NewDomainError(ErrorCodeCommissionNotFound, "commission not found")
	ErrCommissionNotPayable     = NewDomainError(ErrorCodeCommissionNotPayable, "commission is not in a payable status")
	ErrCommissionAlreadyBatched = NewDomainError(ErrorCodeCommissionAlreadyBatched, "commission is already linked to a payout")
	ErrCommissionInvalidState   = NewDomainError(ErrorCodeCommissionInvalidState, "commission is in invalid state for this operation")

	ErrPayoutNotFound      = NewDomainError(ErrorCodePayoutNotFound, "payout not found")
	ErrPayoutBelowMinimum  = NewDomainError(ErrorCodePayoutBelowMinimum, "payout amount is below the program minimum")
	ErrPayoutHeld          = NewDomainError(ErrorCodePayoutHeld, "payouts are held pending fraud review")
	ErrPayoutNothingToPay  = NewDomainError(ErrorCodePayoutNothingToPay, "no payable commissions in the accrual window")
	ErrPayoutInvalidState  = NewDomainError(ErrorCodePayoutInvalidState, "payout is in invalid state for this operation")
	ErrPayoutsDisabled     = NewDomainError(ErrorCodePayoutsDisabled, "partner has no enabled payout method")
	ErrPayoutOpenExists    = NewDomainError(ErrorCodePayoutOpenExists, "an open payout already exists for this partner and program")
	ErrPayoutMethodMissing = NewDomainError(ErrorCodePayoutMethodMissing, "payout has no resolved payout method")

	ErrInvoiceNotFound       = NewDomainError(ErrorCodeInvoiceNotFound, "invoice not found")
	ErrInvoiceNotRetryable   = NewDomainError(ErrorCodeInvoiceNotRetryable, "invoice is not eligible for funding retry")
	ErrInvoiceRetryExhausted = NewDomainError(ErrorCodeInvoiceRetryExhausted, "invoice funding retries exhausted")
	ErrInvoiceNoBilling      = NewDomainError(ErrorCodeInvoiceNoBilling, "workspace has no active billing account")

	ErrRailLookupFailed = NewDomainError(ErrorCodeRailLookupFailed, "payout rail capability lookup failed")

	ErrPartnerNotFound = NewDomainError(ErrorCodePartnerNotFound, "partner not found")
	ErrRewardNotFound  = NewDomainError(ErrorCodeRewardNotFound, "reward not found")

	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "invalid amount")

	ErrFundingDispatchFailed = NewDomainError(ErrorCodeFundingDispatchFailed, "funding dispatch failed")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
