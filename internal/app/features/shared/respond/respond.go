// Package respond writes the JSON bodies every feature returns and maps the
// apperr taxonomy onto HTTP status codes.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/loyaltyhub/internal/app/system/apperr"
	"github.com/dalemusser/loyaltyhub/internal/app/system/inputval"
	"go.uber.org/zap"
)

const maxBody = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Fields  []inputval.FieldError `json:"fields,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// OK writes v with 200.
func OK(w http.ResponseWriter, v any) { JSON(w, http.StatusOK, v) }

// Fail writes an error body with an explicit status and code.
func Fail(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}

// Invalid writes 400 with every field error from res.
func Invalid(w http.ResponseWriter, res *inputval.Result) {
	JSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    string(apperr.KindValidation),
		Message: res.First(),
		Fields:  res.Errors,
	}})
}

// Status maps an error to the HTTP status it is reported with.
func Status(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindStore:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error logs err at a level matching its kind and writes the error body.
// Store and unclassified failures hide their cause from the client.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	status := Status(err)
	code := string(apperr.KindOf(err))
	msg := err.Error()

	if log != nil {
		fields := []zap.Field{zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err)}
		if status >= 500 {
			log.Error("request failed", fields...)
		} else {
			log.Info("request rejected", fields...)
		}
	}
	if status >= 500 {
		if code == "" {
			code = "internal"
		}
		msg = "The service is temporarily unavailable. Please try again."
	} else {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Message != "" {
			msg = ae.Message
		}
	}
	Fail(w, status, code, msg)
}

// Decode reads a JSON body into v. Malformed or oversized bodies are
// validation errors.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("malformed request body: %v", err)
	}
	return nil
}
