// Package catalog caches hazardous-object data from the remote small-body
// catalog on local disk, serving stale data when the upstream is down.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deimos-sim/impact-engine/internal/domain"
)

const (
	summaryFile = "summaries.json"
	detailDir   = "details"
)

// summarySnapshot is the on-disk shape of the summary list.
type summarySnapshot struct {
	FetchedAt time.Time               `json:"fetched_at"`
	Items     []domain.CatalogSummary `json:"items"`
}

// FileStore persists catalog snapshots under a single directory:
// summaries.json for the list and details/<id>.json per object. Writes go
// through a temp file and rename so a crash never leaves a torn record.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the store directory tree if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, detailDir), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// LoadSummaries returns the persisted snapshot, or ok=false when none exists.
func (s *FileStore) LoadSummaries() (summarySnapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, summaryFile))
	if errors.Is(err, os.ErrNotExist) {
		return summarySnapshot{}, false, nil
	}
	if err != nil {
		return summarySnapshot{}, false, fmt.Errorf("read summary snapshot: %w", err)
	}

	var snap summarySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return summarySnapshot{}, false, fmt.Errorf("decode summary snapshot: %w", err)
	}
	return snap, true, nil
}

// SaveSummaries atomically replaces the summary snapshot and reports the
// persisted payload size.
func (s *FileStore) SaveSummaries(snap summarySnapshot) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("encode summary snapshot: %w", err)
	}
	if err := s.writeAtomic(filepath.Join(s.dir, summaryFile), raw); err != nil {
		return 0, err
	}
	return len(raw), nil
}

// LoadDetail returns the persisted detail record, or ok=false when absent.
func (s *FileStore) LoadDetail(id string) (domain.CatalogDetail, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.detailPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return domain.CatalogDetail{}, false, nil
	}
	if err != nil {
		return domain.CatalogDetail{}, false, fmt.Errorf("read detail %s: %w", id, err)
	}

	var detail domain.CatalogDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return domain.CatalogDetail{}, false, fmt.Errorf("decode detail %s: %w", id, err)
	}
	return detail, true, nil
}

// SaveDetail atomically persists one detail record.
func (s *FileStore) SaveDetail(detail domain.CatalogDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encode detail %s: %w", detail.ID, err)
	}
	return s.writeAtomic(s.detailPath(detail.ID), raw)
}

func (s *FileStore) detailPath(id string) string {
	// Identifiers are SPK-IDs (digits) or designations; flatten any path
	// separators rather than trusting the remote.
	safe := filepath.Base(id)
	return filepath.Join(s.dir, detailDir, safe+".json")
}

func (s *FileStore) writeAtomic(path string, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".catalog-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
