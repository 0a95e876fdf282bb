package filestate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/vk/recongraph/internal/ctxlog"
	"github.com/vk/recongraph/internal/fsutil"
)

// File is one loaded input file. It is the handle the layer graph keys its
// input data by, so a File is never copied: the store hands out the same
// pointer for the whole time the file stays loaded.
type File struct {
	id     string
	path   string
	format Format

	mu      sync.RWMutex
	size    int64
	modTime time.Time
}

// FileID is the cleaned absolute path of the file.
func (f *File) FileID() string { return f.id }

func (f *File) Path() string { return f.path }

func (f *File) Format() Format { return f.format }

func (f *File) ModTime() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.modTime
}

func (f *File) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size
}

func (f *File) String() string { return f.id }

func (f *File) stat() (changed bool, err error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	changed = !info.ModTime().Equal(f.modTime) || info.Size() != f.size
	f.size = info.Size()
	f.modTime = info.ModTime()
	return changed, nil
}

// Listener is told about every load, unload and modification, synchronously
// on the goroutine that changed the store.
type Listener interface {
	FileLoaded(ctx context.Context, f *File) error
	FileUnloaded(ctx context.Context, f *File) error
	FileModified(ctx context.Context, f *File) error
}

// Store tracks the files loaded into a session.
type Store struct {
	mu        sync.RWMutex
	files     map[string]*File
	order     []string
	listeners []Listener
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{files: make(map[string]*File)}
}

// AddListener registers l for all future changes.
func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) snapshotListeners() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.listeners)
}

// ID returns the identifier a file at path would get.
func ID(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// Load loads the file at path. Loading an already loaded file returns it
// without notifying listeners again.
func (s *Store) Load(ctx context.Context, path string) (*File, error) {
	logger := ctxlog.FromContext(ctx)

	id, err := ID(path)
	if err != nil {
		return nil, err
	}
	if f, ok := s.Get(id); ok {
		return f, nil
	}

	format, err := DetectFormat(id)
	if err != nil {
		return nil, err
	}
	f := &File{id: id, path: id, format: format}
	if _, err := f.stat(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	s.mu.Lock()
	if existing, ok := s.files[id]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.files[id] = f
	s.order = append(s.order, id)
	s.mu.Unlock()

	logger.Debug("File loaded.", "file", id, "format", format, "size", f.Size())
	for _, l := range s.snapshotListeners() {
		if err := l.FileLoaded(ctx, f); err != nil {
			return f, fmt.Errorf("file %s loaded but a listener failed: %w", id, err)
		}
	}
	return f, nil
}

// LoadPaths loads every path in order. Directories are expanded to the
// supported files beneath them.
func (s *Store) LoadPaths(ctx context.Context, paths []string) ([]*File, error) {
	var loaded []*File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return loaded, fmt.Errorf("loading %s: %w", p, err)
		}
		candidates := []string{p}
		if info.IsDir() {
			candidates, err = fsutil.FindFilesByExtension(p, SupportedExtensions()...)
			if err != nil {
				return loaded, fmt.Errorf("scanning %s: %w", p, err)
			}
		}
		for _, c := range candidates {
			f, err := s.Load(ctx, c)
			if err != nil {
				return loaded, err
			}
			loaded = append(loaded, f)
		}
	}
	return loaded, nil
}

// Unload forgets the file with the given id.
func (s *Store) Unload(ctx context.Context, id string) error {
	logger := ctxlog.FromContext(ctx)

	s.mu.Lock()
	f, ok := s.files[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("file %s is not loaded", id)
	}
	delete(s.files, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	s.mu.Unlock()

	logger.Debug("File unloaded.", "file", id)
	for _, l := range s.snapshotListeners() {
		if err := l.FileUnloaded(ctx, f); err != nil {
			return fmt.Errorf("file %s unloaded but a listener failed: %w", id, err)
		}
	}
	return nil
}

// Reload re-stats the file and tells listeners when its size or
// modification time changed. It reports whether a change was seen.
func (s *Store) Reload(ctx context.Context, id string) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	f, ok := s.Get(id)
	if !ok {
		return false, fmt.Errorf("file %s is not loaded", id)
	}
	changed, err := f.stat()
	if err != nil {
		return false, fmt.Errorf("reloading %s: %w", id, err)
	}
	if !changed {
		return false, nil
	}

	logger.Debug("File modified.", "file", id, "size", f.Size())
	for _, l := range s.snapshotListeners() {
		if err := l.FileModified(ctx, f); err != nil {
			return true, fmt.Errorf("file %s modified but a listener failed: %w", id, err)
		}
	}
	return true, nil
}

// Get returns the loaded file with the given id.
func (s *Store) Get(id string) (*File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	return f, ok
}

// Files lists loaded files in load order.
func (s *Store) Files() []*File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*File, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.files[id])
	}
	return out
}
