package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrDocumentNotFound is returned by readDocument when no file exists
// at the path. Callers decide whether that means "use defaults" or a
// real failure.
var ErrDocumentNotFound = errors.New("document not found")

// documentMode is owner-only: the config document carries credentials
// and the state/cache documents describe account activity.
const documentMode fs.FileMode = 0o600

// readDocument loads a JSON document from path into target.
func readDocument(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to read document %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", path, err)
	}
	return nil
}

// writeDocument persists a JSON document atomically: the content is
// written to a temporary file in the same directory and renamed over
// the target path. A crash mid-write leaves the previous document
// intact and readers never observe partial JSON.
func writeDocument(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create document directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(documentMode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on %s: %w", tmpPath, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace document %s: %w", path, err)
	}
	return nil
}
