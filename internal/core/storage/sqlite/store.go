// Package sqlite stores files and summaries in a single SQLite database file through GORM.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/goccy/go-json"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store implements storage.Store on SQLite.
type Store struct {
	db    *gorm.DB
	nowFn func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open opens the database at path (":memory:" for a throwaway instance) and migrates
// the files and aggregated_data tables.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:" on one database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&fileRow{}, &summaryRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("[SQLite] Store opened", "path", path)
	return &Store{db: db, nowFn: func() time.Time { return time.Now().UTC() }}, nil
}

// AddFile inserts the file, returning storage.ErrDuplicate when the name exists.
func (s *Store) AddFile(ctx context.Context, file *v1.File) error {
	row := fileRow{
		Name:        file.Name,
		Data:        []byte(file.Data),
		RecordCount: file.RecordCount,
		AddedAt:     s.nowFn(),
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return fmt.Errorf("failed to add file: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrDuplicate
	}

	file.AddedAt = row.AddedAt
	return nil
}

func (s *Store) GetAllFiles(ctx context.Context) ([]*v1.File, error) {
	var rows []fileRow
	if err := s.db.WithContext(ctx).Order("ingest_seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}

	files := make([]*v1.File, 0, len(rows))
	for _, r := range rows {
		files = append(files, &v1.File{
			Name:        r.Name,
			Data:        json.RawMessage(r.Data),
			RecordCount: r.RecordCount,
			AddedAt:     r.AddedAt,
		})
	}
	return files, nil
}

func (s *Store) CountFiles(ctx context.Context) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&fileRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return int(n), nil
}

// PutSummaries upserts every record inside one transaction.
func (s *Store) PutSummaries(ctx context.Context, records map[string]*aggregation.PeriodSummary) error {
	now := s.nowFn()
	rows := make([]summaryRow, 0, len(records))
	for _, key := range storage.SortKeys(keysOf(records)) {
		rec := records[key]
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal summary %q: %w", key, err)
		}
		rows = append(rows, summaryRow{
			Period:        aggregation.NormalizeKey(key),
			SchemaVersion: rec.SchemaVersion,
			Payload:       payload,
			UpdatedAt:     now,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "period"}},
			DoUpdates: clause.AssignmentColumns([]string{"schema_version", "payload", "updated_at"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("upsert summaries: %w", err)
		}
		return nil
	})
}

func (s *Store) GetSummary(ctx context.Context, key string) (*aggregation.PeriodSummary, error) {
	var row summaryRow
	err := s.db.WithContext(ctx).
		Where("period = ?", aggregation.NormalizeKey(key)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get summary %q: %w", key, err)
	}

	var rec aggregation.PeriodSummary
	if err := json.Unmarshal(row.Payload, &rec); err != nil {
		return nil, fmt.Errorf("decode summary %q: %w", key, err)
	}
	rec.SchemaVersion = row.SchemaVersion
	return &rec, nil
}

func (s *Store) ListSummaryKeys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&summaryRow{}).Pluck("period", &keys).Error; err != nil {
		return nil, fmt.Errorf("list summary keys: %w", err)
	}
	return storage.SortKeys(keys), nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func keysOf(records map[string]*aggregation.PeriodSummary) []string {
	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	return keys
}
