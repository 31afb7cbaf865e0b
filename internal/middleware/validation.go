package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	apierrors "policydash/internal/errors"
	api "policydash/pkg/contracts/api/v1"
	"policydash/pkg/contracts/domain"
)

// Validator checks request DTOs against their struct tags.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a validator that reports fields by their JSON names
// and knows the filter column and range-order rules.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("filtercolumn", isFilterColumn)
	v.RegisterStructValidation(validateDateRange, api.DateRangeRequest{})
	v.RegisterStructValidation(validateNumericRange, api.NumericRangeRequest{})

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate: v,
		logger:   logger.With(slog.String("component", "validation")),
	}
}

// ValidateStruct validates v and returns an APIError listing every invalid
// field.
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fieldPath(fe),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// fieldPath returns the JSON path of the field. Go names in the namespace,
// the top-level struct and embedded structs, are dropped.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" && unicode.IsUpper(rune(p[0])) {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}

func formatValidationError(fe validator.FieldError) string {
	field := fe.Field()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted YYYY-MM-DD", field)
	case "filtercolumn":
		return fmt.Sprintf("%q is not a filterable column; use one of: %s", fe.Value(), strings.Join(domain.FilterDimensions, ", "))
	case "daterange":
		return "from must not be after to"
	case "numrange":
		return "min must not exceed max"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

func isFilterColumn(fl validator.FieldLevel) bool {
	return slices.Contains(domain.FilterDimensions, fl.Field().String())
}

func validateDateRange(sl validator.StructLevel) {
	dr := sl.Current().Interface().(api.DateRangeRequest)
	from, errFrom := time.Parse(api.DateLayout, dr.From)
	to, errTo := time.Parse(api.DateLayout, dr.To)
	if errFrom != nil || errTo != nil {
		return
	}
	if from.After(to) {
		sl.ReportError(dr.From, "from", "From", "daterange", "")
	}
}

func validateNumericRange(sl validator.StructLevel) {
	nr := sl.Current().Interface().(api.NumericRangeRequest)
	if nr.Min == nil || nr.Max == nil {
		return
	}
	if *nr.Min > *nr.Max {
		sl.ReportError(*nr.Min, "min", "Min", "numrange", "")
	}
}

// ContentTypeValidator rejects bodies whose media type is not one of
// contentTypes. GET, HEAD, DELETE, OPTIONS and empty bodies pass through.
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(header)
			if header == "" || err != nil || !slices.Contains(contentTypes, mediaType) {
				problem := apierrors.NewProblemDetails(
					http.StatusUnsupportedMediaType,
					apierrors.TypeUnsupportedMedia,
					"Unsupported Media Type",
					fmt.Sprintf("Content-Type %q is not accepted; use one of: %s", header, strings.Join(contentTypes, ", ")),
					r.URL.Path,
				).WithExtension("trace_id", GetRequestID(r.Context()))
				apierrors.WriteProblem(w, problem)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// QueryParamValidator validates query parameters
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewQueryParamValidator creates a new query parameter validator
func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryParamValidator{
		logger:       logger.With(slog.String("component", "query_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateEnum validates an enum query parameter. On failure the problem
// response has been written and ok is false.
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return defaultValue, true
	}
	if slices.Contains(allowed, value) {
		return value, true
	}

	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, fmt.Sprintf("%s must be one of: %s", param, strings.Join(allowed, ", "))))
	return "", false
}
