package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/axiestudio/embedded-chat/internal/services"
	"github.com/axiestudio/embedded-chat/pkg/utils"
)

var registerOnce sync.Once

// RegisterValidation reports validation errors by JSON field name and adds
// the custom tags request structs use. Safe to call more than once.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("url_or_empty", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || isURL(s)
		})
	})
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return false
	}
	return u.Host != "" || u.Opaque != ""
}

// bindJSON decodes and validates the body, mapping failures to a
// validation AppError with field-level detail.
func bindJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) *services.AppError {
	var (
		verrs     validator.ValidationErrors
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
	)

	var details []utils.ErrorDetail
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			details = append(details, utils.ErrorDetail{Field: fe.Field(), Message: fieldMessage(fe)})
		}
	case errors.As(err, &typeErr):
		details = append(details, utils.ErrorDetail{
			Field:   typeErr.Field,
			Message: "Expected " + typeErr.Type.String() + ", received " + typeErr.Value,
		})
	case errors.As(err, &syntaxErr):
		details = append(details, utils.ErrorDetail{Field: "body", Message: "Malformed JSON"})
	default:
		details = append(details, utils.ErrorDetail{Field: "body", Message: "Invalid request body"})
	}

	return services.NewValidationError("Validation error", details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "url", "url_or_empty":
		return "Please enter a valid URL"
	case "min":
		return fe.Field() + " cannot be empty"
	case "gt":
		return fe.Field() + " must be a positive integer"
	default:
		return fe.Field() + " is invalid"
	}
}

// respondError is the single place errors become responses. Non-AppErrors are
// treated as internal and never echoed to the caller.
func respondError(c *gin.Context, logger utils.Logger, err error) {
	var appErr *services.AppError
	if !errors.As(err, &appErr) {
		appErr = services.NewInternalError(err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error(appErr.Message, err, utils.LogFields{
			"kind":   string(appErr.Kind),
			"path":   c.FullPath(),
			"method": c.Request.Method,
		})
		_ = c.Error(err)
	}

	var details interface{}
	if appErr.Kind != services.KindInternal {
		details = appErr.Details
	}
	utils.Error(c, status, appErr.Message, details)
}
