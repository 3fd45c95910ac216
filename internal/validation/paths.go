package validation

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathHandler validates the on-disk locations folio reads and writes.
type PathHandler struct {
	validator *FilePathValidator
}

func NewSecurePathHandler() *PathHandler {
	return &PathHandler{validator: NewFilePathValidator()}
}

func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{validator: NewPermissiveFilePathValidator()}
}

func (ph *PathHandler) ExpandAndValidatePath(path string) (string, error) {
	return ph.validator.ValidateAndSanitize(path)
}

// PostsDir validates the markdown posts directory. It must exist.
func (ph *PathHandler) PostsDir(path string) (string, error) {
	dir, err := ph.validator.ValidateDirectory(path, false)
	if err != nil {
		return "", fmt.Errorf("posts dir: %w", err)
	}
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("posts dir: %w", err)
	}
	return dir, nil
}

// DBPath validates a bbolt file path and creates its parent directory.
func (ph *PathHandler) DBPath(path string) (string, error) {
	file, err := ph.validator.ValidateFile(path)
	if err != nil {
		return "", fmt.Errorf("database path: %w", err)
	}
	if _, err := ph.validator.ValidateDirectory(filepath.Dir(file), true); err != nil {
		return "", fmt.Errorf("database dir: %w", err)
	}
	return file, nil
}

// IndexPath validates a bleve index location. Bleve indexes are
// directories, so only the parent is created.
func (ph *PathHandler) IndexPath(path string) (string, error) {
	dir, err := ph.validator.ValidateDirectory(path, false)
	if err != nil {
		return "", fmt.Errorf("index path: %w", err)
	}
	if _, err := ph.validator.ValidateDirectory(filepath.Dir(dir), true); err != nil {
		return "", fmt.Errorf("index parent dir: %w", err)
	}
	return dir, nil
}
