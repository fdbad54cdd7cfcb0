// Package server's error mapping, adapted (not copied) from
// internal/server/errors.go's sentinel-dispatch idiom: package-level
// sentinel errors per domain, unwrapped via errors.Is/errors.As in one
// HTTP-layer dispatcher, but reshaped from the teacher's {"error":{...}}
// envelope into the spec's {success, message, data?} shape.
package server

import (
	"errors"
	"net/http"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	customerdomain "github.com/railzway/billing/internal/customer/domain"
	identitydomain "github.com/railzway/billing/internal/identity/domain"
	ledgerdomain "github.com/railzway/billing/internal/ledger/domain"
	orderdomain "github.com/railzway/billing/internal/order/domain"
	referraldomain "github.com/railzway/billing/internal/referral/domain"
	"github.com/railzway/billing/pkg/db"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

// response is the uniform envelope of spec §6: {success, message, data?}.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Success writes a 200 with the given payload.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Success: true, Data: data})
}

// ErrorHandlingMiddleware converts the last error recorded on the gin
// context (via AbortWithError) into the uniform envelope and status code.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message, data := mapError(lastErr.Err)
		c.JSON(status, response{Success: false, Message: message, Data: data})
	}
}

// AbortWithError records err on the context and halts the handler chain;
// ErrorHandlingMiddleware renders the response after Next() returns.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// mapError dispatches a domain sentinel error to an HTTP status, a
// human-readable message, and an optional machine-readable data payload
// (populated for QuotaError per spec §7: "machine-readable data.error for
// quota failures").
func mapError(err error) (int, string, any) {
	if err == nil {
		return http.StatusInternalServerError, "internal server error", nil
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized", nil

	case errors.Is(err, ledgerdomain.ErrQuotaExhausted):
		return http.StatusBadRequest, "quota exhausted", gin.H{"error": "quota_exhausted"}
	case errors.Is(err, ledgerdomain.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient funds", gin.H{"error": "insufficient_funds"}

	case isNotFound(err):
		return http.StatusNotFound, "not found", nil

	case isValidation(err):
		return http.StatusBadRequest, err.Error(), nil

	case isConflict(err):
		return http.StatusBadRequest, err.Error(), nil

	case isState(err):
		return http.StatusBadRequest, err.Error(), nil

	case db.IsDuplicateKeyErr(err):
		return http.StatusBadRequest, "conflict", nil

	default:
		return http.StatusInternalServerError, "internal server error", nil
	}
}

func isNotFound(err error) bool {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, catalogdomain.ErrProductNotFound),
		errors.Is(err, catalogdomain.ErrOfferNotFound),
		errors.Is(err, identitydomain.ErrIdentityNotFound),
		errors.Is(err, orderdomain.ErrOrderNotFound),
		errors.Is(err, referraldomain.ErrTrialOfferNotFound),
		errors.Is(err, customerdomain.ErrUserNotFound):
		return true
	default:
		return false
	}
}

func isValidation(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, identitydomain.ErrEmptyExternalID),
		errors.Is(err, identitydomain.ErrResolveParamsRequired),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrOfferEmpty),
		errors.Is(err, ledgerdomain.ErrNotCurrency),
		errors.Is(err, catalogdomain.ErrNotCurrency),
		errors.Is(err, orderdomain.ErrEmptyItems),
		errors.Is(err, orderdomain.ErrOfferNotFound),
		errors.Is(err, referraldomain.ErrNoIdentities):
		return true
	default:
		return false
	}
}

func isState(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrNotPending),
		errors.Is(err, orderdomain.ErrNotPaid),
		errors.Is(err, orderdomain.ErrAlreadyRefunded),
		errors.Is(err, orderdomain.ErrAlreadyCancelled),
		errors.Is(err, referraldomain.ErrTrialAlreadyUsed),
		errors.Is(err, customerdomain.ErrIdentityConflict):
		return true
	default:
		return false
	}
}

func isConflict(err error) bool {
	switch {
	case errors.Is(err, referraldomain.ErrSelfReferral),
		errors.Is(err, customerdomain.ErrSameUser),
		errors.Is(err, catalogdomain.ErrSharedNamespace):
		return true
	default:
		return false
	}
}
