package avatar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSavePublishesFileAndReturnsServedPath(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorage(dir, "/avatars")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := storage.Save(strings.NewReader("png-bytes"), "me.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/avatars/") {
		t.Fatalf("expected served path under /avatars/, got %q", url)
	}
	if !strings.HasSuffix(url, "_me.png") {
		t.Fatalf("expected original name preserved, got %q", url)
	}

	onDisk := filepath.Join(dir, strings.TrimPrefix(url, "/avatars/"))
	data, err := os.ReadFile(onDisk)
	if err != nil {
		t.Fatalf("read published file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected file contents: %q", data)
	}

	// No staging leftovers.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".upload-") {
			t.Fatalf("staging file left behind: %s", e.Name())
		}
	}
}

func TestSaveSanitizesHostileFilename(t *testing.T) {
	storage, err := NewStorage(t.TempDir(), "/avatars")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	url, err := storage.Save(strings.NewReader("x"), "../../etc/pass wd.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if strings.Contains(url, "..") || strings.Contains(url, " ") {
		t.Fatalf("filename not sanitized: %q", url)
	}
}
