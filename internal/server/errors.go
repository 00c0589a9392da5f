package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apikeydomain "github.com/smallbiznis/possaas/internal/apikey/domain"
	auditdomain "github.com/smallbiznis/possaas/internal/audit/domain"
	"github.com/smallbiznis/possaas/internal/importer"
	"github.com/smallbiznis/possaas/internal/ratelimit"
	"github.com/smallbiznis/possaas/internal/receipt"
	provisioningdomain "github.com/smallbiznis/possaas/internal/provisioning/domain"
	settingdomain "github.com/smallbiznis/possaas/internal/setting/domain"
	tenantdomain "github.com/smallbiznis/possaas/internal/tenant/domain"
	"github.com/smallbiznis/possaas/pkg/validator"
	"gorm.io/gorm"
)

type ValidationError = validator.FieldError

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

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

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if fields := asFieldErrors(err); fields != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  fields,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, provisioningdomain.ErrInvalidRequest),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrMissingHeading),
		errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTenant),
		errors.Is(err, receipt.ErrInvalidPayment):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, apikeydomain.ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "a valid api key is required",
		}
	case errors.Is(err, importer.ErrForbidden),
		errors.Is(err, apikeydomain.ErrScopeForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, tenantdomain.ErrTenantExists):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "tenant already exists",
		}
	case errors.Is(err, importer.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "payload_too_large",
			Message: "import file is too large",
		}
	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many imports, retry later",
		}
	case errors.Is(err, provisioningdomain.ErrConfigurationMissing),
		errors.Is(err, settingdomain.ErrGeneralSettingMissing):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "configuration_missing",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// asFieldErrors flattens both handler-built and validator errors.
func asFieldErrors(err error) []ValidationError {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr.Errors
	}
	var fieldErrs validator.Errors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, tenantdomain.ErrPackageNotFound),
		errors.Is(err, tenantdomain.ErrPaymentNotFound),
		errors.Is(err, importer.ErrUnknownEntity),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
