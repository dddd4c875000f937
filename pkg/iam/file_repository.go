package iam

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const fileName = "iam.json"

// FileIamRepository implements IamRepository on top of the in-memory
// repository, writing a JSON snapshot of all data after every change.
type FileIamRepository struct {
	*InMemoryIamRepository
	dataDir string
}

// NewFileIamRepository creates a new file-based IAM repository
func NewFileIamRepository(dataDir string) (*FileIamRepository, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	repo := &FileIamRepository{
		InMemoryIamRepository: NewInMemoryIamRepository(),
		dataDir:               dataDir,
	}

	data, err := repo.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}
	data.ensureCatalog()
	repo.data = data
	repo.store = repo

	return repo, nil
}

// load reads IAM data from file. A missing or empty file yields an empty data set.
func (r *FileIamRepository) load() (*iamData, error) {
	data := newIamData()

	raw, err := os.ReadFile(filepath.Join(r.dataDir, fileName))
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) == 0 {
		return data, nil
	}

	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	data.init()
	return data, nil
}

// save writes IAM data to file atomically
func (r *FileIamRepository) save(data *iamData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	tempFile := filepath.Join(r.dataDir, fileName+".tmp")
	if err := os.WriteFile(tempFile, raw, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, filepath.Join(r.dataDir, fileName)); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}
