// Package badger stores files and summaries in an embedded BadgerDB.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/Tab-and-Quill/spotify-music-history/internal/api/v1"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/aggregation"
	"github.com/Tab-and-Quill/spotify-music-history/internal/core/storage"
	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	fileKeyPrefix     = "file:"      // file:<seq> -> File JSON
	fileNameKeyPrefix = "file_name:" // file_name:<name> -> seq
	summaryKeyPrefix  = "summary:"   // summary:<period> -> PeriodSummary JSON
	fileSeqKey        = "meta:file_seq"
)

// Store implements storage.Store on BadgerDB.
type Store struct {
	db *badger.DB

	// addMu serializes AddFile so the sequence counter and name index move together.
	addMu sync.Mutex
	nowFn func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open opens (or creates) a BadgerDB at path. An empty path opens an in-memory instance.
func Open(path string) (*Store, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	slog.Info("[Badger] Store opened", "path", path, "in_memory", path == "")
	return New(db), nil
}

// New wraps an already opened BadgerDB.
func New(db *badger.DB) *Store {
	return &Store{db: db, nowFn: func() time.Time { return time.Now().UTC() }}
}

// AddFile stores the file under the next sequence number.
// Returns storage.ErrDuplicate if the name is already indexed.
func (s *Store) AddFile(ctx context.Context, file *v1.File) error {
	s.addMu.Lock()
	defer s.addMu.Unlock()

	stored := *file
	stored.AddedAt = s.nowFn()

	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshal file: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(fileNameKeyPrefix + file.Name)
		if _, err := txn.Get(nameKey); err == nil {
			return storage.ErrDuplicate
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check file name: %w", err)
		}

		seq, err := nextSeq(txn)
		if err != nil {
			return err
		}

		if err := txn.Set(seqKey(seq), data); err != nil {
			return fmt.Errorf("set file: %w", err)
		}
		if err := txn.Set(nameKey, encodeSeq(seq)); err != nil {
			return fmt.Errorf("set file name index: %w", err)
		}
		return txn.Set([]byte(fileSeqKey), encodeSeq(seq))
	})
	if err != nil {
		return err
	}

	file.AddedAt = stored.AddedAt
	return nil
}

// GetAllFiles iterates file:<seq> keys, which sort in insertion order.
func (s *Store) GetAllFiles(ctx context.Context) ([]*v1.File, error) {
	var files []*v1.File

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(fileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var f v1.File
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &f)
			}); err != nil {
				return fmt.Errorf("decode file: %w", err)
			}
			files = append(files, &f)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// CountFiles counts name index entries without loading file payloads.
func (s *Store) CountFiles(ctx context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(fileNameKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return n, nil
}

// PutSummaries writes every record in one transaction.
func (s *Store) PutSummaries(ctx context.Context, records map[string]*aggregation.PeriodSummary) error {
	encoded := make(map[string][]byte, len(records))
	for key, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal summary %q: %w", key, err)
		}
		encoded[aggregation.NormalizeKey(key)] = data
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for key, data := range encoded {
			if err := txn.Set([]byte(summaryKeyPrefix+key), data); err != nil {
				return fmt.Errorf("set summary %q: %w", key, err)
			}
		}
		return nil
	})
}

func (s *Store) GetSummary(ctx context.Context, key string) (*aggregation.PeriodSummary, error) {
	var rec aggregation.PeriodSummary

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(summaryKeyPrefix + aggregation.NormalizeKey(key)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return storage.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get summary: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) ListSummaryKeys(ctx context.Context) ([]string, error) {
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(summaryKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list summary keys: %w", err)
	}
	return storage.SortKeys(keys), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nextSeq(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get([]byte(fileSeqKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get file sequence: %w", err)
	}

	var seq uint64
	if err := item.Value(func(val []byte) error {
		if len(val) != 8 {
			return fmt.Errorf("corrupt file sequence of length %d", len(val))
		}
		seq = binary.BigEndian.Uint64(val)
		return nil
	}); err != nil {
		return 0, err
	}
	return seq + 1, nil
}

func encodeSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// seqKey is big-endian so lexical key order equals numeric order.
func seqKey(seq uint64) []byte {
	return append([]byte(fileKeyPrefix), encodeSeq(seq)...)
}
