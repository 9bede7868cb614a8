// Package datasource defines the fetch collaborator contract: given an SCO
// type and a source URI, return raw entity rows. Implementations register
// by URI scheme.
package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/huntflow-lang/huntflow/symtable"
)

// Interface fetches raw entity rows of one SCO type from a source URI.
// Fetches are blocking; there is no built-in timeout or cancellation beyond
// what the passed context provides.
type Interface interface {
	Fetch(ctx context.Context, scoType, uri string) ([]symtable.Row, error)
}

// Registry routes source URIs to a fetcher by scheme.
type Registry struct {
	sources map[string]Interface
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Interface)}
}

// Register binds a scheme (e.g. "file") to a fetcher, replacing any
// previous binding.
func (r *Registry) Register(scheme string, src Interface) {
	r.sources[scheme] = src
}

// Lookup resolves a URI to its registered fetcher.
func (r *Registry) Lookup(uri string) (Interface, error) {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, fmt.Errorf("source %q has no scheme", uri)
	}
	src, ok := r.sources[scheme]
	if !ok {
		return nil, fmt.Errorf("no data source registered for scheme %q (have %s)",
			scheme, strings.Join(r.Schemes(), ", "))
	}
	return src, nil
}

// Schemes returns the registered schemes in sorted order.
func (r *Registry) Schemes() []string {
	schemes := make([]string, 0, len(r.sources))
	for scheme := range r.sources {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}
