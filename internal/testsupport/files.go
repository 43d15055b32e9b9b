package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes text to path, creating parent directories.
func WriteFile(t testing.TB, path, text string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
