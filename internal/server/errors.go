package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/KaramelBytes/ctrlchart-cli/internal/ingest"
	"github.com/KaramelBytes/ctrlchart-cli/internal/pipeline"
	"github.com/go-chi/render"
)

// APIError is the JSON body of every error response.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// Error codes returned by the API.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeMissingColumn   = "MISSING_COLUMN"
	CodeProcessingError = "PROCESSING_ERROR"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeInternal        = "INTERNAL_SERVER_ERROR"
)

// MissingColumnDetails lists the absent column and the required ones.
type MissingColumnDetails struct {
	Column   string   `json:"column"`
	Required []string `json:"required"`
}

// ProcessingDetails names the failing pipeline stage.
type ProcessingDetails struct {
	Stage string `json:"stage"`
}

// InvalidRequest wraps a malformed request.
func InvalidRequest(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusBadRequest,
		ErrorCode:  CodeInvalidRequest,
		Message:    "Invalid request format",
		Details:    err.Error(),
	}
}

// FromError maps a pipeline error to its API error.
func FromError(err error) *APIError {
	var (
		mce *ingest.MissingColumnError
		pe  *pipeline.ProcessingError
		mbe *http.MaxBytesError
	)
	switch {
	case errors.As(err, &mce):
		return &APIError{
			StatusCode: http.StatusUnprocessableEntity,
			ErrorCode:  CodeMissingColumn,
			Message:    mce.Error(),
			Details:    MissingColumnDetails{Column: mce.Column, Required: mce.Required},
		}
	case errors.As(err, &mbe):
		return &APIError{
			StatusCode: http.StatusRequestEntityTooLarge,
			ErrorCode:  CodePayloadTooLarge,
			Message:    fmt.Sprintf("request body exceeds %d bytes", mbe.Limit),
		}
	case errors.As(err, &pe):
		return &APIError{
			StatusCode: http.StatusUnprocessableEntity,
			ErrorCode:  CodeProcessingError,
			Message:    fmt.Sprintf("error processing data: %v", pe.Err),
			Details:    ProcessingDetails{Stage: string(pe.Stage)},
		}
	default:
		return &APIError{
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  CodeInternal,
			Message:    "Internal server error",
		}
	}
}
