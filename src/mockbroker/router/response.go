package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/mockbroker/src/mockbroker/models"
	"github.com/jiaming2012/mockbroker/src/mockbroker/services"
)

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func NewErrorResponse(errType string, message string) *errorResponse {
	return &errorResponse{
		Type: errType,
		Msg:  message,
	}
}

// WebError carries the HTTP status a handler error should be reported with.
type WebError struct {
	StatusCode int
	Err        error
}

func (e *WebError) Error() string {
	return e.Err.Error()
}

func (e *WebError) Unwrap() error {
	return e.Err
}

func badRequest(format string, args ...interface{}) *WebError {
	return &WebError{StatusCode: http.StatusBadRequest, Err: fmt.Errorf(format, args...)}
}

func statusCode(err error) int {
	var webErr *WebError
	switch {
	case errors.As(err, &webErr):
		return webErr.StatusCode
	case errors.Is(err, services.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnsupportedPlaybackSpeed):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotConnected):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

func setResponse(response interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("SetResponse: encode: %w", err)
	}

	return nil
}

func setErrorResponse(errType string, err error, w http.ResponseWriter) {
	code := statusCode(err)
	if code >= 500 {
		log.Errorf("%s: %v", errType, err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	resp := NewErrorResponse(errType, err.Error())
	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		log.Errorf("setErrorResponse: encode: %v", encodeErr)
	}
}

func respond(errType string, response interface{}, err error, w http.ResponseWriter) {
	if err != nil {
		setErrorResponse(errType, err, w)
		return
	}

	if err := setResponse(response, w); err != nil {
		log.Errorf("%s: failed to set response: %v", errType, err)
	}
}
