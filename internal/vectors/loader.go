package vectors

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadBatchVectors loads batch-insertion fixtures from a JSON file.
func LoadBatchVectors(filename string) ([]BatchVector, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch vectors file %s: %w", filename, err)
	}

	var vecs []BatchVector
	if err := json.Unmarshal(data, &vecs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch vectors: %w", err)
	}

	return vecs, nil
}

// SaveBatchVectors writes batch-insertion fixtures to a JSON file, creating
// parent directories as needed.
func SaveBatchVectors(filename string, vecs []BatchVector) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(vecs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batch vectors: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write batch vectors file: %w", err)
	}

	return nil
}
