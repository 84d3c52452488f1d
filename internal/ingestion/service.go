package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/Tab-and-Quill/spotify-music-history/internal/metrics"
	"github.com/Tab-and-Quill/spotify-music-history/internal/schema"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

var (
	// ErrInvalidFile is returned for a missing name or a payload that is not JSON.
	ErrInvalidFile = errors.New("invalid file")

	// ErrTooManyRecords is returned when a batch exceeds the configured record limit.
	ErrTooManyRecords = errors.New("file exceeds maximum record count")
)

type Service struct {
	validator        *schema.Validator
	store            storage.FileStore
	maxBodySizeBytes int
	maxRecords       int
}

// NewService wires the ingestion path. maxRecords <= 0 disables the record limit.
func NewService(val *schema.Validator, repo storage.FileStore, maxBodySizeMB, maxRecords int) *Service {
	if val == nil {
		panic("ingestion: validator must not be nil")
	}
	if repo == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		validator:        val,
		store:            repo,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		maxRecords:       maxRecords,
	}
}

// RegisterRoutes registers the ingestion service routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/files", s.AddFileHandler)
	r.GET("/v1/files/count", s.CountHandler)
}

// AddFile validates a raw batch and stores it under name. A batch that fails validation
// is rejected in full; nothing reaches the store.
func (s *Service) AddFile(ctx context.Context, name string, data []byte) (*v1.File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		metrics.RecordFileRejected("invalid")
		return nil, fmt.Errorf("%w: name is required", ErrInvalidFile)
	}

	var batch interface{}
	if err := json.Unmarshal(data, &batch); err != nil {
		metrics.RecordFileRejected("invalid")
		return nil, fmt.Errorf("%w: %q is not valid JSON: %v", ErrInvalidFile, name, err)
	}

	if err := s.validator.ValidateBatch(batch); err != nil {
		slog.Warn("Schema validation failed for file", "name", name, "error", err)
		metrics.RecordFileRejected("schema")
		return nil, fmt.Errorf("file %q rejected: %w", name, err)
	}

	records, _ := batch.([]interface{})
	if s.maxRecords > 0 && len(records) > s.maxRecords {
		metrics.RecordFileRejected("too_many_records")
		return nil, fmt.Errorf("%w: %q has %d records (max %d)", ErrTooManyRecords, name, len(records), s.maxRecords)
	}

	file := &v1.File{
		Name:        name,
		Data:        json.RawMessage(data),
		RecordCount: len(records),
	}
	if err := file.Validate(); err != nil {
		metrics.RecordFileRejected("invalid")
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	if err := s.store.AddFile(ctx, file); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			slog.Info("Duplicate file rejected", "name", name)
			metrics.RecordFileRejected("duplicate")
			return nil, fmt.Errorf("file %q: %w", name, err)
		}
		slog.Error("Failed to persist file", "name", name, "error", err)
		metrics.RecordFileRejected("storage")
		return nil, fmt.Errorf("persist file %q: %w", name, err)
	}

	slog.Info("File added", "name", name, "record_count", file.RecordCount)
	metrics.RecordFileIngested(file.RecordCount)
	return file, nil
}

// HasFiles reports whether at least one file is stored.
func (s *Service) HasFiles(ctx context.Context) (bool, error) {
	n, err := s.store.CountFiles(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
