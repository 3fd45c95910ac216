package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateAndSanitize(t *testing.T) {
	base := t.TempDir()
	v := &FilePathValidator{AllowedBaseDirs: []string{base}, MaxPathLength: maxPathLength}

	tests := []struct {
		name     string
		path     string
		want     string
		errorMsg string
	}{
		{name: "inside base", path: filepath.Join(base, "posts.db"), want: filepath.Join(base, "posts.db")},
		{name: "base itself", path: base, want: base},
		{name: "cleaned", path: base + "/./nested//file", want: filepath.Join(base, "nested", "file")},
		{name: "empty", path: "", errorMsg: "cannot be empty"},
		{name: "null byte", path: base + "/a\x00b", errorMsg: "null bytes"},
		{name: "control char", path: base + "/a\x01b", errorMsg: "control characters"},
		{name: "traversal", path: base + "/../etc/passwd", errorMsg: "directory traversal"},
		{name: "outside base", path: "/etc/passwd", errorMsg: "not within allowed directories"},
		{name: "sibling prefix", path: base + "-other/file", errorMsg: "not within allowed directories"},
		{name: "tilde user", path: "~root/file", errorMsg: "unsupported tilde"},
		{name: "too long", path: base + "/" + strings.Repeat("a", maxPathLength), errorMsg: "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateAndSanitize(tt.path)
			if tt.errorMsg != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errorMsg) {
					t.Fatalf("expected error containing %q, got %v (%q)", tt.errorMsg, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidateAndSanitize_HomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := NewPermissiveFilePathValidator().ValidateAndSanitize("~/.folio/posts.db")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".folio", "posts.db"); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestValidateAndSanitize_RelativeMadeAbsolute(t *testing.T) {
	got, err := NewPermissiveFilePathValidator().ValidateAndSanitize("content/posts")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) {
		t.Errorf("expected absolute path, got %q", got)
	}
}

func TestNewFilePathValidator_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	v := NewFilePathValidator()

	if _, err := v.ValidateAndSanitize(filepath.Join(home, ".folio", "posts.db")); err != nil {
		t.Errorf("data dir should be allowed: %v", err)
	}
	if _, err := v.ValidateAndSanitize("/etc/folio/x.db"); err == nil {
		t.Error("paths outside the data dirs should be rejected")
	}
}

func TestValidateDirectory(t *testing.T) {
	base := t.TempDir()
	v := NewPermissiveFilePathValidator()

	missing := filepath.Join(base, "missing")
	if _, err := v.ValidateDirectory(missing, false); err != nil {
		t.Errorf("missing dir without create should pass: %v", err)
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Error("directory should not have been created")
	}

	created := filepath.Join(base, "a", "b")
	if _, err := v.ValidateDirectory(created, true); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(created); err != nil || !info.IsDir() {
		t.Errorf("expected directory %s to exist", created)
	}

	file := filepath.Join(base, "file")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := v.ValidateDirectory(file, false); err == nil {
		t.Error("expected error for regular file")
	}
}

func TestValidateFile(t *testing.T) {
	base := t.TempDir()
	v := NewPermissiveFilePathValidator()

	if _, err := v.ValidateFile(filepath.Join(base, "new.db")); err != nil {
		t.Errorf("non-existent file should pass: %v", err)
	}
	if _, err := v.ValidateFile(base); err == nil {
		t.Error("expected error for directory")
	}
}
