package pipeline

import (
	"time"

	"github.com/goccy/go-json"
)

// RequestType names an operation of the message protocol.
type RequestType string

const (
	TypeAddFile             RequestType = "addFile"
	TypeCheckAndAggregate   RequestType = "checkAndAggregateFiles"
	TypeCheckData           RequestType = "checkData"
	TypeFetchKeys           RequestType = "fetchKeys"
	TypeFetchAggregatedData RequestType = "fetchAggregatedData"
)

// Status tags every response.
type Status string

const (
	StatusFileAdded           Status = "fileAdded"
	StatusAggregationComplete Status = "aggregationComplete"
	StatusFileCountCheck      Status = "fileCountCheck"
	StatusKeysFetched         Status = "keysFetched"
	StatusAggregatedData      Status = "aggregatedData"
	StatusNoAggregatedData    Status = "noAggregatedData"
	StatusError               Status = "error"
)

// Request is one message sent to a Worker. Name and Data are used by addFile,
// Filter by fetchAggregatedData.
type Request struct {
	ID     string          `json:"id,omitempty"`
	Type   RequestType     `json:"type"`
	Name   string          `json:"name,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
	Filter string          `json:"filter,omitempty"`
}

// FileInfo describes a stored file without its payload.
type FileInfo struct {
	Name        string    `json:"name"`
	RecordCount int       `json:"record_count"`
	AddedAt     time.Time `json:"added_at"`
}

// Response answers exactly one Request and carries its ID.
//
// Results holds a *aggregation.RunResult for aggregationComplete, a bool for
// fileCountCheck, a []string for keysFetched and a *aggregation.PeriodSummary
// for aggregatedData.
type Response struct {
	ID      string      `json:"id"`
	Type    RequestType `json:"type"`
	Status  Status      `json:"status"`
	File    *FileInfo   `json:"file,omitempty"`
	Results any         `json:"results,omitempty"`
	Message string      `json:"message,omitempty"`
}

// IsError reports whether the response carries a failure.
func (r Response) IsError() bool {
	return r.Status == StatusError
}
