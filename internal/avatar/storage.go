// Package avatar stores uploaded profile images on local disk under a
// public-serving directory.
package avatar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage relocates uploads into the public avatars directory.
type Storage struct {
	dir     string
	urlPath string
}

// NewStorage creates the avatars directory if needed and returns a Storage
// serving files under the given URL path.
func NewStorage(dir, urlPath string) (*Storage, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("empty avatar directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create avatar dir: %w", err)
	}
	return &Storage{dir: dir, urlPath: strings.TrimRight(urlPath, "/")}, nil
}

// Dir returns the on-disk directory avatars are served from.
func (s *Storage) Dir() string {
	return s.dir
}

// URLPath returns the URL prefix avatars are served under.
func (s *Storage) URLPath() string {
	return s.urlPath
}

// Save stages the upload in a temp file within the avatars directory and
// renames it into place under a unique name, so a partially written file is
// never visible at a served path. It returns the public URL path.
func (s *Storage) Save(src io.Reader, originalName string) (string, error) {
	name := uuid.NewString() + "_" + sanitizeFilename(originalName)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("stage avatar: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close avatar: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("publish avatar: %w", err)
	}
	return path.Join(s.urlPath, name), nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "avatar"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
}
