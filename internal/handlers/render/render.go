package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/vidtube/internal/apperrors"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
)

var validate = newValidator()

type Struct any

// Response is the success envelope
type Response struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the failure envelope
// Error is a stable machine readable code, Message is for humans
type ErrorResponse struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Success    bool              `json:"success"`
	Error      string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// JSON renders data in success envelope with status code
func JSON(w http.ResponseWriter, code int, data any, message string) {
	if data == nil {
		data = struct{}{}
	}

	jsonWithStatus(w, Response{
		StatusCode: code,
		Data:       data,
		Message:    message,
		Success:    true,
	}, code)
}

// Error renders service error
// Only *apperrors.Error message reaches the client, everything else is rendered as internal error
func Error(w http.ResponseWriter, err error) {
	appErr := &apperrors.Error{}
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}

	code := appErr.Kind.HTTPStatus()
	jsonWithStatus(w, ErrorResponse{
		StatusCode: code,
		Message:    appErr.Message,
		Error:      appErr.ErrorCode(),
	}, code)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Error:      DecodingErrorType,
	}

	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		response.Message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	default:
		response.Message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Error:      ValidationErrorType,
		Message:    "Request validation failed",
		Fields:     make(map[string]string, len(errs)),
	}

	// Create user-friendly error messages based on validation tag
	for _, fieldError := range errs {
		var message string
		switch fieldError.Tag() {
		case "required", "notblank":
			message = "This field is required"
		case "min":
			message = fmt.Sprintf("Value is too short (minimum %s)", fieldError.Param())
		case "max":
			message = fmt.Sprintf("Value is too long (maximum %s)", fieldError.Param())
		case "email":
			message = "Invalid email address"
		case "excludes":
			message = fmt.Sprintf("Value must not contain '%s'", fieldError.Param())
		default:
			message = "Invalid value"
		}

		response.Fields[fieldError.Field()] = message
	}

	jsonWithStatus(w, response, http.StatusBadRequest)
}

// Request types may clean up decoded values (e.g. trim spaces) before they are validated
type normalizer interface {
	Normalize()
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	err := json.NewDecoder(r.Body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	if n, ok := any(&value).(normalizer); ok {
		n.Normalize()
	}

	err = validate.Struct(value)
	if err != nil {
		// pretty sure cast will be ok cause expecting T is valid struct
		errs := err.(validator.ValidationErrors)
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// renderJSONWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
