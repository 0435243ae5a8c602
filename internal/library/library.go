package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"configllm/internal/domain"
)

// File describes one library entry.
type File struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Library is the directory of input files a run processes.
type Library struct {
	dir string
}

// New creates a Library rooted at dir.
func New(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the library directory.
func (l *Library) Dir() string { return l.dir }

// List returns regular, non-hidden files sorted by name. A missing
// directory is an empty library.
func (l *Library) List() ([]File, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}

	var files []File
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{
			Name:     e.Name(),
			Path:     filepath.Join(l.dir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Paths returns the full paths of List.
func (l *Library) Paths() ([]string, error) {
	files, err := l.List()
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths, nil
}

// Add copies src into the library under its base name. An existing entry
// is replaced only when overwrite is set.
func (l *Library) Add(src string, overwrite bool) (*File, error) {
	name := filepath.Base(src)
	dest := filepath.Join(l.dir, name)
	if _, err := os.Stat(dest); err == nil && !overwrite {
		return nil, fmt.Errorf("%s: %w", name, domain.ErrFileExists)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating library: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", src)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return nil, fmt.Errorf("copying %s: %w", name, err)
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("closing %s: %w", dest, err)
	}
	_ = os.Chtimes(dest, time.Now(), info.ModTime())

	return &File{Name: name, Path: dest, Size: info.Size(), Modified: info.ModTime().UTC()}, nil
}

// Remove deletes the named entries and returns how many were removed.
// Names must be bare file names inside the library.
func (l *Library) Remove(names ...string) (int, error) {
	removed := 0
	for _, name := range names {
		if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
			return removed, fmt.Errorf("%q: %w", name, domain.ErrNotFound)
		}
		err := os.Remove(filepath.Join(l.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("%s: %w", name, domain.ErrNotFound)
		}
		if err != nil {
			return removed, fmt.Errorf("removing %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// RemoveAll deletes every listed entry.
func (l *Library) RemoveAll() (int, error) {
	files, err := l.List()
	if err != nil {
		return 0, err
	}
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return l.Remove(names...)
}
