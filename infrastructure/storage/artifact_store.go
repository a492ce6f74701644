package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bmc_collect/domain/entities"
	"bmc_collect/domain/interfaces"
)

// ArtifactBaseName prefixes every artifact file; each failure overwrites the last one
const ArtifactBaseName = "bmc_collect_last"

type artifactStore struct {
	snapshotPath string
	documentPath string
	recordPath   string
}

// NewArtifactStore - creates a failure artifact store in dir
func NewArtifactStore(dir string) (interfaces.ArtifactStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	base := filepath.Join(dir, ArtifactBaseName)

	return &artifactStore{
		snapshotPath: base + ".png",
		documentPath: base + ".html",
		recordPath:   base + ".json",
	}, nil
}

// Reset - removes every artifact file so a partial capture never mixes with an older failure
func (s *artifactStore) Reset() error {
	var errs []error
	for _, path := range []string{s.snapshotPath, s.documentPath, s.recordPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaveSnapshot - writes the screenshot
func (s *artifactStore) SaveSnapshot(data []byte) (string, error) {
	if err := writeFile(s.snapshotPath, data); err != nil {
		return "", err
	}
	return s.snapshotPath, nil
}

// SaveDocument - writes the page markup
func (s *artifactStore) SaveDocument(markup string) (string, error) {
	if err := writeFile(s.documentPath, []byte(markup)); err != nil {
		return "", err
	}
	return s.documentPath, nil
}

// SaveRecord - writes the artifact description as JSON
func (s *artifactStore) SaveRecord(artifact entities.FailureArtifact) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(s.recordPath, data)
}

// LoadRecord - reads the last artifact description
func (s *artifactStore) LoadRecord() (entities.FailureArtifact, error) {
	var artifact entities.FailureArtifact

	data, err := os.ReadFile(s.recordPath)
	if err != nil {
		return artifact, err
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return artifact, fmt.Errorf("failed to decode %s: %w", s.recordPath, err)
	}
	return artifact, nil
}

// writeFile replaces path atomically so a reader never sees a half-written artifact
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
