// Package registry tracks open captures and names them.
//
// It is the naming authority for detected layers: each accepted capture
// gets a unique short name for humans plus a UUID for API clients, and
// stays registered until closed.
package registry

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/samcharles93/limeview/internal/logger"
	"github.com/samcharles93/limeview/pkg/lime"
)

var (
	// ErrNotDetected means the probe rejected the source. During
	// autodetection that is a routine outcome, not a format diagnosis.
	ErrNotDetected = errors.New("format not recognised")

	// ErrUnknownImage means no capture is registered under the given name.
	ErrUnknownImage = errors.New("unknown image")
)

// Entry is one registered capture.
type Entry struct {
	Name  string
	ID    uuid.UUID
	Path  string
	Image *lime.Image
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	log     logger.Logger
	entries map[string]*Entry
}

// New creates an empty registry.
func New(log logger.Logger) *Registry {
	if log == nil {
		log = logger.Default()
	}
	return &Registry{
		log:     log,
		entries: make(map[string]*Entry),
	}
}

// Stack probes the file at path and, when the detector accepts it, builds
// the fully indexed view and registers it under a fresh name. A probe
// rejection maps to ErrNotDetected so callers trying several formats can
// move on; an acceptance followed by an index failure surfaces the format
// error, since at that point the file claimed to be a capture and is not.
func (r *Registry) Stack(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	_, ok := lime.Probe(f)
	_ = f.Close()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDetected, path)
	}

	img, err := lime.Open(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &Entry{
		Name:  r.freeName(),
		ID:    uuid.New(),
		Path:  path,
		Image: img,
	}
	r.entries[entry.Name] = entry

	r.log.Info("registered capture",
		"name", entry.Name,
		"id", entry.ID.String(),
		"path", path,
		"segments", len(img.Segments()))
	return entry, nil
}

// freeName returns the lowest unused layer name: lime, lime-2, lime-3, ...
// Callers must hold the write lock.
func (r *Registry) freeName() string {
	if _, taken := r.entries["lime"]; !taken {
		return "lime"
	}
	for i := 2; ; i++ {
		name := fmt.Sprintf("lime-%d", i)
		if _, taken := r.entries[name]; !taken {
			return name
		}
	}
}

// Get returns the entry registered under name.
func (r *Registry) Get(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// List returns all entries sorted by name.
func (r *Registry) List() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close releases the named capture and frees its name.
func (r *Registry) Close(name string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	if ok {
		delete(r.entries, name)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownImage, name)
	}
	r.log.Info("closed capture", "name", name, "id", e.ID.String())
	return e.Image.Close()
}

// CloseAll releases every registered capture, keeping the first error.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*Entry)
	r.mu.Unlock()

	var err error
	for _, e := range entries {
		if cerr := e.Image.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
