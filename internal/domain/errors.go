package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeValidation        ErrorCode = "validation"
	CodeProductNotFound   ErrorCode = "product_not_found"
	CodeInsufficientStock ErrorCode = "insufficient_stock"
	CodePriceMismatch     ErrorCode = "price_mismatch"
	CodeTotalMismatch     ErrorCode = "total_mismatch"
	CodeOrderNotFound     ErrorCode = "order_not_found"
	CodeUnauthorized      ErrorCode = "unauthorized"
	CodeForbidden         ErrorCode = "forbidden"
	CodeInvalidTransition ErrorCode = "invalid_transition"
	CodeAlreadyPaid       ErrorCode = "already_paid"
	CodeAlreadyRefunded   ErrorCode = "already_refunded"
	CodeInvalidAmount     ErrorCode = "invalid_amount"
	CodeSignatureMismatch ErrorCode = "signature_mismatch"
	CodePaymentProvider   ErrorCode = "payment_provider"
	CodeRefundProvider    ErrorCode = "refund_provider"
	CodeRateLimited       ErrorCode = "rate_limited"
)

// Error is a classified failure. Two Errors match under errors.Is when their
// codes are equal, so a detailed error still matches its sentinel.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WrapError(code ErrorCode, err error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var (
	ErrInvalidInput      = NewError(CodeValidation, "invalid input")
	ErrProductNotFound   = NewError(CodeProductNotFound, "product not found")
	ErrInsufficientStock = NewError(CodeInsufficientStock, "insufficient stock")
	ErrPriceMismatch     = NewError(CodePriceMismatch, "price has changed")
	ErrTotalMismatch     = NewError(CodeTotalMismatch, "order totals do not add up")
	ErrOrderNotFound     = NewError(CodeOrderNotFound, "order not found")
	ErrUnauthorized      = NewError(CodeUnauthorized, "authentication required")
	ErrForbidden         = NewError(CodeForbidden, "forbidden")
	ErrInvalidTransition = NewError(CodeInvalidTransition, "invalid order status transition")
	ErrAlreadyPaid       = NewError(CodeAlreadyPaid, "order is already paid")
	ErrAlreadyRefunded   = NewError(CodeAlreadyRefunded, "order is already refunded")
	ErrInvalidAmount     = NewError(CodeInvalidAmount, "invalid amount")
	ErrSignatureMismatch = NewError(CodeSignatureMismatch, "payment signature verification failed")
	ErrPaymentProvider   = NewError(CodePaymentProvider, "payment provider error")
	ErrRefundProvider    = NewError(CodeRefundProvider, "refund provider error")
	ErrRateLimited       = NewError(CodeRateLimited, "rate limit exceeded")
)
