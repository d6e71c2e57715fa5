package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingreportdomain "github.com/smallbiznis/orderbill/internal/billingreport/domain"
	customerdomain "github.com/smallbiznis/orderbill/internal/customer/domain"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	productdomain "github.com/smallbiznis/orderbill/internal/product/domain"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

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
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
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

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var reportErr *billingreportdomain.ValidationError
	if errors.As(err, &reportErr) {
		code := reportErr.Err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: reportErr.Error(),
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: reportErr.Message,
				},
			},
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
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

// classifyErrorForLog feeds the access log with the mapped error type.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, billingreportdomain.ErrInvalidID),
		errors.Is(err, billingreportdomain.ErrInvalidFormat):
		return true
	case isCustomerValidationError(err),
		isProductValidationError(err),
		isCustomerServiceValidationError(err),
		isRuleValidationError(err):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, csdomain.ErrDuplicateAssignment),
		errors.Is(err, productdomain.ErrDuplicateSKU):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, csdomain.ErrNotFound),
		errors.Is(err, csdomain.ErrServiceNotFound),
		errors.Is(err, csdomain.ErrCustomerNotFound),
		errors.Is(err, ruledomain.ErrNotFound),
		errors.Is(err, ruledomain.ErrCustomerServiceMissing),
		errors.Is(err, billingreportdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		if code := sentinelCode(err); code != "" {
			return code
		}
		return err.Error()
	}
}

// sentinelCode strips the detail domain errors append after the sentinel.
func sentinelCode(err error) string {
	code, _, _ := strings.Cut(err.Error(), ":")
	return strings.TrimSpace(code)
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

func isCustomerValidationError(err error) bool {
	switch {
	case errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidEmail),
		errors.Is(err, customerdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isProductValidationError(err error) bool {
	switch {
	case errors.Is(err, productdomain.ErrInvalidCustomer),
		errors.Is(err, productdomain.ErrInvalidSKU),
		errors.Is(err, productdomain.ErrInvalidCaseSize):
		return true
	default:
		return false
	}
}

func isCustomerServiceValidationError(err error) bool {
	switch {
	case errors.Is(err, csdomain.ErrInvalidID),
		errors.Is(err, csdomain.ErrInvalidName),
		errors.Is(err, csdomain.ErrInvalidChargeType),
		errors.Is(err, csdomain.ErrInvalidUnitPrice):
		return true
	default:
		return false
	}
}

func isRuleValidationError(err error) bool {
	switch {
	case errors.Is(err, ruledomain.ErrInvalidID),
		errors.Is(err, ruledomain.ErrInvalidField),
		errors.Is(err, ruledomain.ErrInvalidOperator),
		errors.Is(err, ruledomain.ErrInvalidLogicOperator),
		errors.Is(err, ruledomain.ErrInvalidTierConfig),
		errors.Is(err, ruledomain.ErrInvalidCalculation),
		errors.Is(err, ruledomain.ErrEmptyRuleGroup):
		return true
	default:
		return false
	}
}
