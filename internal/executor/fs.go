package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Execution conflict errors. They surface as a failed fix and are never
// silently skipped.
var (
	// ErrAlreadyExists means a create targeted a path that already has content
	ErrAlreadyExists = errors.New("target already exists")
	// ErrContentMismatch means a modify found content different from the
	// fix's recorded original (stale-fix protection).
	ErrContentMismatch = errors.New("on-disk content does not match original")
	// ErrNotFound means a delete targeted a path that does not exist
	ErrNotFound = errors.New("target does not exist")
)

// FileSystem is the filesystem port the executor applies changes through
type FileSystem interface {
	Read(ctx context.Context, path string) (string, error)
	Write(ctx context.Context, path, content string) error
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

// OSFileSystem applies changes to a real directory tree rooted at Root.
// Paths are slash-separated and relative; escapes above the root are
// rejected.
type OSFileSystem struct {
	Root string
}

// NewOSFileSystem creates a filesystem port rooted at root
func NewOSFileSystem(root string) (*OSFileSystem, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	return &OSFileSystem{Root: abs}, nil
}

func (f *OSFileSystem) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return filepath.Join(f.Root, clean), nil
}

// Read returns the content of path
func (f *OSFileSystem) Read(ctx context.Context, path string) (string, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Write creates or replaces path with content, creating parent directories
func (f *OSFileSystem) Write(ctx context.Context, path, content string) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create parent directories for %s: %w", path, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Delete removes path
func (f *OSFileSystem) Delete(ctx context.Context, path string) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(abs)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path is present
func (f *OSFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return true, nil
}

// MemFileSystem is an in-memory filesystem port for tests
type MemFileSystem struct {
	mu    sync.RWMutex
	files map[string]string
}

// NewMemFileSystem creates an in-memory filesystem seeded with files
func NewMemFileSystem(files map[string]string) *MemFileSystem {
	fs := &MemFileSystem{files: make(map[string]string)}
	for k, v := range files {
		fs.files[k] = v
	}
	return fs
}

// Read returns the content of path
func (f *MemFileSystem) Read(ctx context.Context, path string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	content, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return content, nil
}

// Write creates or replaces path with content
func (f *MemFileSystem) Write(ctx context.Context, path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
	return nil
}

// Delete removes path
func (f *MemFileSystem) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; !ok {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	delete(f.files, path)
	return nil
}

// Exists reports whether path is present
func (f *MemFileSystem) Exists(ctx context.Context, path string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.files[path]
	return ok, nil
}
