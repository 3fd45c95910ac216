package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxPathLength = 4096

// FilePathValidator checks paths taken from configuration or flags.
type FilePathValidator struct {
	// AllowedBaseDirs, when non-empty, confines paths to these directories.
	AllowedBaseDirs []string
	MaxPathLength   int
}

// NewFilePathValidator confines paths to folio's data and config
// directories plus the temp dir.
func NewFilePathValidator() *FilePathValidator {
	homeDir, _ := os.UserHomeDir()
	return &FilePathValidator{
		AllowedBaseDirs: []string{
			filepath.Join(homeDir, ".folio"),
			filepath.Join(homeDir, ".config", "folio"),
			os.TempDir(),
		},
		MaxPathLength: maxPathLength,
	}
}

// NewPermissiveFilePathValidator allows any directory.
func NewPermissiveFilePathValidator() *FilePathValidator {
	return &FilePathValidator{MaxPathLength: maxPathLength}
}

// ValidateAndSanitize expands a leading ~/, makes path absolute and
// cleans it. Paths containing NUL or control characters, or ".."
// components, are rejected.
func (v *FilePathValidator) ValidateAndSanitize(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	for _, r := range path {
		if r == 0 {
			return "", fmt.Errorf("path contains null bytes")
		}
		if r < 32 && r != '\t' {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("unsupported tilde form in %q", path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}

	if err := v.checkBaseDirs(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (v *FilePathValidator) checkBaseDirs(abs string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(absBase, abs)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("path %s not within allowed directories %v", abs, v.AllowedBaseDirs)
}

// ValidateDirectory validates path as a directory, creating it when
// create is set. A missing directory is not an error otherwise.
func (v *FilePathValidator) ValidateDirectory(path string, create bool) (string, error) {
	clean, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(clean)
	switch {
	case err == nil && !info.IsDir():
		return "", fmt.Errorf("path exists but is not a directory: %s", clean)
	case err == nil:
		return clean, nil
	case !os.IsNotExist(err):
		return "", fmt.Errorf("checking directory: %w", err)
	case create:
		if err := os.MkdirAll(clean, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return clean, nil
}

// ValidateFile validates path as a regular file location. The file need
// not exist, but a directory at path is rejected.
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	clean, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", clean)
	}
	return clean, nil
}
