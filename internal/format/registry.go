package format

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry maps format names and file extensions to codecs
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[string]Codec)}
}

// DefaultRegistry returns a registry holding the bundled formats
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.mustRegister("edf", NewEDFCodec())
	r.mustRegister("smv", NewSMVCodec())
	return r
}

func (r *Registry) mustRegister(name string, c Codec) {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
}

// Register adds a codec under name
func (r *Registry) Register(name string, c Codec) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("format name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.codecs[name]; exists {
		return fmt.Errorf("format %s already registered", name)
	}
	r.codecs[name] = c
	return nil
}

// Lookup returns the codec registered under name
func (r *Registry) Lookup(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.codecs[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return c, nil
}

// ForPath returns the name and codec whose canonical extension matches path
func (r *Registry) ForPath(path string) (string, Codec, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.sortedNames() {
		if c := r.codecs[name]; strings.EqualFold(c.Extension(), ext) {
			return name, c, nil
		}
	}
	return "", nil, fmt.Errorf("%w: no codec for extension %q of %s", ErrUnknownFormat, ext, path)
}

// Names returns the registered format names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
