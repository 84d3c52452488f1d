package sqlite

import "time"

// fileRow mirrors the postgres files table.
type fileRow struct {
	IngestSeq   uint      `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Data        []byte    `gorm:"not null"`
	RecordCount int       `gorm:"not null;default:0"`
	AddedAt     time.Time `gorm:"not null"`
}

func (fileRow) TableName() string { return "files" }

// summaryRow mirrors the postgres aggregated_data table.
type summaryRow struct {
	Period        string `gorm:"primaryKey"`
	SchemaVersion int    `gorm:"not null"`
	Payload       []byte `gorm:"not null"`
	UpdatedAt     time.Time
}

func (summaryRow) TableName() string { return "aggregated_data" }
