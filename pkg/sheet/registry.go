package sheet

import (
	"errors"
	"sync"
)

// Registry hands out one Sheet per resolved file path.
type Registry struct {
	opts Options

	mu     sync.Mutex
	sheets map[string]*Sheet
}

// NewRegistry returns a registry whose sheets share opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, sheets: make(map[string]*Sheet)}
}

// Open returns the sheet for path, creating it on first use. Different
// spellings of the same file share one sheet.
func (r *Registry) Open(path string) (*Sheet, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, newOperationError("open", path, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sheets[resolved]; ok {
		return s, nil
	}
	s, err := Open(resolved, r.opts)
	if err != nil {
		return nil, err
	}
	r.sheets[resolved] = s
	return s, nil
}

// Close closes every sheet and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	sheets := r.sheets
	r.sheets = make(map[string]*Sheet)
	r.mu.Unlock()

	var errs []error
	for _, s := range sheets {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
