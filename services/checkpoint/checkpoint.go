// Package checkpoint persists the accumulated result set as a single JSON
// artifact that is atomically replaced on every save, so a crash leaves at
// most one stale artifact and never a corrupted one.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/UH-CI/course-text-extraction/internal/catalog"
	"github.com/UH-CI/course-text-extraction/logger"
	pkgerrors "github.com/UH-CI/course-text-extraction/pkg/errors"
)

// Run statuses recorded in checkpoint metadata.
const (
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
)

// Metadata describes the run that produced the records.
type Metadata struct {
	Source         string `json:"source"`
	TotalUnits     int    `json:"total_units"`
	UnitsProcessed int    `json:"units_processed"`
	RecordCount    int    `json:"record_count"`
	Timestamp      string `json:"extraction_timestamp"`
	Extractor      string `json:"extractor"`
	Model          string `json:"model,omitempty"`
	Status         string `json:"status"`
}

// Artifact is the durable snapshot: run metadata plus the full record set.
type Artifact struct {
	Metadata Metadata         `json:"metadata"`
	Records  []catalog.Course `json:"records"`
}

// Store writes artifacts to a fixed path.
type Store struct {
	path string
	log  *logger.Logger
}

// NewStore creates a store writing to the given path.
func NewStore(path string) *Store {
	return &Store{path: path, log: logger.ForCheckpoint()}
}

// Path returns the artifact location.
func (s *Store) Path() string {
	return s.path
}

// Save overwrites the previous artifact with the full current result set.
// The artifact is written to a temporary file first and renamed into place,
// so a crash mid-write leaves the prior artifact readable.
func (s *Store) Save(records []catalog.Course, meta Metadata) error {
	if meta.Timestamp == "" {
		meta.Timestamp = time.Now().Format(time.RFC3339)
	}
	meta.RecordCount = len(records)

	if records == nil {
		records = []catalog.Course{}
	}
	artifact := Artifact{Metadata: meta, Records: records}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return pkgerrors.NewPersistence(meta.Source, "marshal checkpoint", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return pkgerrors.NewPersistence(meta.Source, "create checkpoint directory", err)
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return pkgerrors.NewPersistence(meta.Source, "create temporary checkpoint", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return pkgerrors.NewPersistence(meta.Source, "write temporary checkpoint", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return pkgerrors.NewPersistence(meta.Source, "sync temporary checkpoint", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return pkgerrors.NewPersistence(meta.Source, "close temporary checkpoint", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return pkgerrors.NewPersistence(meta.Source, "replace checkpoint", err)
	}

	s.log.Debug().
		Str("source", meta.Source).
		Int("records", len(records)).
		Str("status", meta.Status).
		Msg("Checkpoint saved")

	return nil
}

// Load reads the current artifact, if any. A missing artifact is not an
// error; it returns (nil, nil) so a fresh run starts empty.
func (s *Store) Load() (*Artifact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, pkgerrors.NewPersistence("", "read checkpoint", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, pkgerrors.NewPersistence("", fmt.Sprintf("parse checkpoint %s", s.path), err)
	}
	return &artifact, nil
}
