package v1

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// File is one uploaded streaming-history export, keyed by its file name.
type File struct {
	// Name is the unique key of the file. Re-uploading the same name is rejected.
	Name string `json:"name"`

	// Data is the validated JSON array of raw records, stored verbatim.
	Data json.RawMessage `json:"data"`

	// RecordCount is the number of records in Data, computed on ingestion.
	RecordCount int `json:"record_count"`

	// AddedAt is set by the store when the file is persisted.
	AddedAt time.Time `json:"added_at"`
}

// Validate ensures the file carries a name and a payload.
func (f *File) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(f.Data) == 0 {
		return fmt.Errorf("data is required")
	}
	return nil
}

// Records decodes the stored payload into generic records.
func (f *File) Records() ([]map[string]interface{}, error) {
	var records []map[string]interface{}
	if err := json.Unmarshal(f.Data, &records); err != nil {
		return nil, fmt.Errorf("decode records of %q: %w", f.Name, err)
	}
	return records, nil
}
