package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jjfwang/aceceed-edge/rag"
)

// DocumentLoader is the unified interface for loading documents from a file.
type DocumentLoader interface {
	Load(ctx context.Context, source string) ([]rag.Document, error)

	// SupportedTypes returns the file extensions this loader handles (e.g. ".txt").
	SupportedTypes() []string
}

// LoaderRegistry routes Load calls to the appropriate DocumentLoader based on file extension.
type LoaderRegistry struct {
	mu      sync.RWMutex
	loaders map[string]DocumentLoader // extension (lowercase, with dot) -> loader
}

// NewLoaderRegistry creates a registry pre-populated with the built-in loaders.
func NewLoaderRegistry() *LoaderRegistry {
	r := &LoaderRegistry{loaders: make(map[string]DocumentLoader)}
	for _, l := range []DocumentLoader{NewTextLoader(), NewMarkdownLoader()} {
		for _, ext := range l.SupportedTypes() {
			r.loaders[strings.ToLower(ext)] = l
		}
	}
	return r
}

// Register adds or replaces a loader for the given file extension.
func (r *LoaderRegistry) Register(ext string, loader DocumentLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[strings.ToLower(ext)] = loader
}

// Load determines the loader from the source's file extension and delegates to it.
func (r *LoaderRegistry) Load(ctx context.Context, source string) ([]rag.Document, error) {
	ext := strings.ToLower(filepath.Ext(source))
	if ext == "" {
		return nil, fmt.Errorf("loader: cannot determine file type for %q (no extension)", source)
	}

	r.mu.RLock()
	l, ok := r.loaders[ext]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("loader: no loader registered for extension %q", ext)
	}
	return l.Load(ctx, source)
}

// SupportedTypes returns all registered extensions, sorted.
func (r *LoaderRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		types = append(types, ext)
	}
	sort.Strings(types)
	return types
}

// LoadDir loads every regular file in dir (non-recursive) whose extension is in
// exts, in lexical file-name order. An empty exts means all registered types.
func (r *LoaderRegistry) LoadDir(ctx context.Context, dir string, exts ...string) ([]rag.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loader: reading %s: %w", dir, err)
	}
	if len(exts) == 0 {
		exts = r.SupportedTypes()
	} else {
		exts = slices.Clone(exts)
	}
	for i := range exts {
		exts[i] = strings.ToLower(exts[i])
	}

	var docs []rag.Document
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(exts, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		loaded, err := r.Load(ctx, filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, loaded...)
	}
	return docs, nil
}
