package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps err to a status code. Server errors are logged and their detail hidden.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError && log != nil {
		log.Error("request failed", zap.Error(err))
	}

	resp := ErrorResponse{Error: PublicMessage(err)}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		resp.Error = "validation failed"
		resp.Fields = formatValidationErrors(ve)
	}
	WriteJSON(w, status, resp)
}

// DecodeJSON reads a JSON body into dst and runs struct validation on it.
// An empty body is treated as "{}".
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return NewValidationError(fmt.Sprintf("invalid JSON body: %v", err))
		}
	}
	return Validate(dst)
}

func Validate(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return &validationErrors{ve}
		}
		return NewValidationError(err.Error())
	}
	return nil
}

type validationErrors struct {
	validator.ValidationErrors
}

func (v *validationErrors) Error() string {
	msgs := make([]string, 0, len(v.ValidationErrors))
	for _, fe := range formatValidationErrors(v.ValidationErrors) {
		msgs = append(msgs, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

func (v *validationErrors) Unwrap() error { return v.ValidationErrors }

func formatValidationErrors(ve validator.ValidationErrors) []FieldError {
	out := make([]FieldError, len(ve))
	for i, fe := range ve {
		out[i] = FieldError{Field: fe.Field(), Tag: fe.Tag()}
		switch fe.Tag() {
		case "required":
			out[i].Message = fmt.Sprintf("%s is required", fe.Field())
		case "min":
			out[i].Message = fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			out[i].Message = fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
		case "oneof":
			out[i].Message = fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
		default:
			out[i].Message = fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
		}
	}
	return out
}
