package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error independently of its message.
type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindInvalidReference    Kind = "invalid_reference"
	KindInvalidRequest      Kind = "invalid_request"
	KindInvalidAmount       Kind = "invalid_amount"
	KindMissingFields       Kind = "missing_fields"
	KindNotFound            Kind = "not_found"
	KindProductUnavailable  Kind = "product_unavailable"
	KindNotEligible         Kind = "not_eligible"
	KindDuplicateReview     Kind = "duplicate_review"
	KindDuplicate           Kind = "duplicate"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindPaymentVerification Kind = "payment_verification_failed"
	KindStorage             Kind = "storage_error"
	KindInternal            Kind = "internal_error"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the sentinels
// below can be matched with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// Public returns the message safe to show to a client. Server-side failures
// never leak their detail.
func (e *Error) Public() string {
	switch {
	case e.Code >= http.StatusInternalServerError:
		return "Internal server error"
	case e.Code == http.StatusUnauthorized:
		return "Unauthorized"
	default:
		return e.Message
	}
}

// New creates a new Error
func New(code int, kind Kind, message string, err error) *Error {
	return &Error{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is matching.
var (
	ErrValidation          = New(http.StatusBadRequest, KindValidation, "Validation error", nil)
	ErrInvalidReference    = New(http.StatusBadRequest, KindInvalidReference, "Invalid product reference", nil)
	ErrInvalidRequest      = New(http.StatusBadRequest, KindInvalidRequest, "Invalid request", nil)
	ErrInvalidAmount       = New(http.StatusBadRequest, KindInvalidAmount, "Amount must be greater than zero", nil)
	ErrMissingFields       = New(http.StatusBadRequest, KindMissingFields, "Missing payment details", nil)
	ErrNotFound            = New(http.StatusNotFound, KindNotFound, "Not found", nil)
	ErrProductUnavailable  = New(http.StatusNotFound, KindProductUnavailable, "Product unavailable", nil)
	ErrNotEligible         = New(http.StatusForbidden, KindNotEligible, "You can only review products from your orders", nil)
	ErrDuplicateReview     = New(http.StatusConflict, KindDuplicateReview, "You have already reviewed this product for this order", nil)
	ErrDuplicate           = New(http.StatusConflict, KindDuplicate, "Already exists", nil)
	ErrUnauthorized        = New(http.StatusUnauthorized, KindUnauthorized, "Unauthorized", nil)
	ErrForbidden           = New(http.StatusForbidden, KindForbidden, "Forbidden", nil)
	ErrPaymentVerification = New(http.StatusBadRequest, KindPaymentVerification, "Payment verification failed", nil)
	ErrStorage             = New(http.StatusInternalServerError, KindStorage, "Storage error", nil)
	ErrInternalServer      = New(http.StatusInternalServerError, KindInternal, "Internal server error", nil)
)

func Validation(message string) *Error {
	return New(http.StatusBadRequest, KindValidation, message, nil)
}

func InvalidReference(id string) *Error {
	return New(http.StatusBadRequest, KindInvalidReference, "Invalid product reference: "+id, nil)
}

func InvalidRequest(message string) *Error {
	return New(http.StatusBadRequest, KindInvalidRequest, message, nil)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, KindNotFound, message, nil)
}

func ProductUnavailable(id string) *Error {
	return New(http.StatusNotFound, KindProductUnavailable, "Product unavailable: "+id, nil)
}

func PaymentVerification(message string) *Error {
	return New(http.StatusBadRequest, KindPaymentVerification, message, nil)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, KindForbidden, message, nil)
}

// Storage wraps a persistence failure.
func Storage(err error) *Error {
	return New(http.StatusInternalServerError, KindStorage, "Storage error", err)
}

// From converts any error into an *Error, treating unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return New(http.StatusInternalServerError, KindInternal, "Internal server error", err)
}

// Respond writes the {success:false, message} envelope for err.
func Respond(c *gin.Context, err error) {
	appErr := From(err)
	body := gin.H{"success": false, "message": appErr.Public()}
	if appErr.Kind == KindPaymentVerification || appErr.Kind == KindMissingFields {
		body["retryPayment"] = true
	}
	c.JSON(appErr.Code, body)
}

// Error middleware for Gin
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			Respond(c, c.Errors.Last().Err)
			c.Abort()
		}
	}
}
