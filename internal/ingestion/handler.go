package ingestion

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	httperr "github.com/Tab-and-Quill/spotify-music-history/internal/core/errors"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/schema"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist file"
	msgDuplicateFile  = "File already exists"
	msgCountFailed    = "Failed to count files"
)

// addFileRequest is the body of POST /v1/files.
type addFileRequest struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

// ingestionError carries the structured HTTP error shape from a helper back to the orchestrator.
// Helpers return this instead of writing to gin.Context directly, keeping them decoupled from HTTP.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// AddFileHandler handles POST /v1/files.
func (s *Service) AddFileHandler(c *gin.Context) {
	req, ierr := s.parseRequest(c)
	if ierr != nil {
		writeError(c, ierr)
		return
	}

	file, err := s.AddFile(c.Request.Context(), req.Name, req.Data)
	if err != nil {
		writeError(c, toIngestionError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "fileAdded",
		"file": gin.H{
			"name":         file.Name,
			"record_count": file.RecordCount,
			"added_at":     file.AddedAt,
		},
	})
}

// CountHandler handles GET /v1/files/count.
func (s *Service) CountHandler(c *gin.Context) {
	n, err := s.store.CountFiles(c.Request.Context())
	if err != nil {
		slog.Error("Failed to count files", "error", err)
		ierr := toIngestionError(err)
		if ierr.statusCode == http.StatusInternalServerError {
			ierr.message = msgCountFailed
		}
		writeError(c, ierr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n, "has_files": n > 0})
}

// parseRequest reads the body under the size limit and decodes the envelope.
func (s *Service) parseRequest(c *gin.Context) (*addFileRequest, *ingestionError) {
	// Enforce maximum body size to prevent OOM attacks
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("Failed to read request body", "error", err)
		return nil, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	var req addFileRequest
	if err := json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&req); err != nil {
		slog.Warn("Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return &req, nil
}

// toIngestionError maps service errors onto the HTTP error shape.
func toIngestionError(err error) *ingestionError {
	var ve *schema.ValidationError
	switch {
	case errors.As(err, &ve):
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpSchemaValidationError,
			message:    err.Error(),
			details:    ve.Details(),
		}
	case errors.Is(err, ErrInvalidFile):
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRequestError,
			message:    err.Error(),
		}
	case errors.Is(err, ErrTooManyRecords):
		return &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpTooManyRecordsError,
			message:    err.Error(),
		}
	case errors.Is(err, storage.ErrDuplicate):
		return &ingestionError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpDuplicateFileError,
			message:    msgDuplicateFile,
		}
	case errors.Is(err, storage.ErrUnavailable):
		return &ingestionError{
			statusCode: http.StatusServiceUnavailable,
			errorType:  httperr.HttpStorageUnavailable,
			message:    err.Error(),
		}
	default:
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
