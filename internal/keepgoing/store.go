package keepgoing

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Flag file contents as written. Reads are case-insensitive.
const (
	ValueTrue  = "True"
	ValueFalse = "False"
)

// Store reads and writes the raw flag text. A missing flag must be reported
// with an error wrapping fs.ErrNotExist.
type Store interface {
	Read() (string, error)
	Write(value string) error
}

// FileStore keeps the flag in a plain text file. Writes replace the whole
// file; concurrent writers race and the last one wins.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("read flag %s: %w", f.path, err)
	}
	return string(data), nil
}

func (f *FileStore) Write(value string) error {
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create flag dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(f.path, []byte(value), 0o644); err != nil {
		return fmt.Errorf("write flag %s: %w", f.path, err)
	}
	return nil
}

// Format renders a flag value exactly as it is written to disk.
func Format(active bool) string {
	if active {
		return ValueTrue
	}
	return ValueFalse
}

// IsActive reports whether raw flag text means "keep going".
func IsActive(content string) bool {
	return strings.ToLower(strings.TrimSpace(content)) == "true"
}

// SetFlag writes True or False to the store.
func SetFlag(s Store, active bool) error {
	return s.Write(Format(active))
}

// ReadFlag returns the current flag state. A missing flag is an error.
func ReadFlag(s Store) (bool, error) {
	content, err := s.Read()
	if err != nil {
		return false, err
	}
	return IsActive(content), nil
}
