// Package session ties the huntflow interpreter together: it owns the
// variable symbol table, the runtime directory, and the data source
// registry, and executes scripts statement by statement.
package session

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/huntflow-lang/huntflow/config"
	"github.com/huntflow-lang/huntflow/datasource"
	"github.com/huntflow-lang/huntflow/datasource/cache"
	"github.com/huntflow-lang/huntflow/datasource/stixbundle"
	"github.com/huntflow-lang/huntflow/symtable"
)

// Session is a single-threaded huntflow interpreter instance. It is a
// scoped resource: New materializes the runtime directory, Close tears it
// down according to the ownership decision made at construction. A Session
// must not be used from more than one goroutine.
type Session struct {
	id      string
	debug   bool
	dir     *runtimeDir
	store   *symtable.Store
	sources *datasource.Registry
	cache   *cache.Store
	logger  *slog.Logger
	closed  bool
}

type options struct {
	debug      *bool
	runtimeDir string
	cfg        *config.Config
	sources    map[string]datasource.Interface
}

// Option configures a Session at construction.
type Option func(*options)

// WithDebug forces debug mode on or off. The HUNTFLOW_DEBUG environment
// variable still forces it on.
func WithDebug(debug bool) Option {
	return func(o *options) { o.debug = &debug }
}

// WithRuntimeDir pins the session runtime directory. A pre-existing
// directory is never removed by the session; one the session has to create
// is removed at Close.
func WithRuntimeDir(path string) Option {
	return func(o *options) { o.runtimeDir = path }
}

// WithConfig supplies a configuration instead of loading one from disk and
// the environment.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithDataSource registers an additional fetcher for a URI scheme,
// replacing any default binding for that scheme. Intended for embedding
// and tests.
func WithDataSource(scheme string, src datasource.Interface) Option {
	return func(o *options) {
		if o.sources == nil {
			o.sources = make(map[string]datasource.Interface)
		}
		o.sources[scheme] = src
	}
}

// New creates a session and materializes its runtime directory.
func New(opts ...Option) (*Session, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.cfg
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	debug := cfg.Debug
	if o.debug != nil {
		debug = *o.debug
	}
	if config.DebugFromEnv() {
		debug = true
	}

	runtimePath := o.runtimeDir
	if runtimePath == "" {
		runtimePath = cfg.RuntimeDir
	}

	id := uuid.NewString()
	dir, err := newRuntimeDir(debug, runtimePath, id)
	if err != nil {
		return nil, err
	}

	fetchCache, err := cache.Open(filepath.Join(dir.path, "cache.db"))
	if err != nil {
		dir.Close()
		return nil, err
	}

	sources := datasource.NewRegistry()
	sources.Register(stixbundle.Scheme, cache.Wrap(stixbundle.New(), fetchCache))
	for scheme, src := range o.sources {
		sources.Register(scheme, src)
	}

	s := &Session{
		id:      id,
		debug:   debug,
		dir:     dir,
		store:   symtable.NewStore(),
		sources: sources,
		cache:   fetchCache,
		logger:  newLogger(debug).With("session", id),
	}
	s.logger.Debug("session created", "runtime_dir", dir.path, "debug", debug)
	return s, nil
}

// Close tears the session down. The runtime directory is removed only when
// the session owns it; closing twice is harmless.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.cache.Close(); err != nil {
		s.logger.Debug("closing fetch cache", "error", err)
	}
	return s.dir.Close()
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// DebugMode reports whether the session runs in debug mode.
func (s *Session) DebugMode() bool { return s.debug }

// RuntimeDirectory returns the session working directory path.
func (s *Session) RuntimeDirectory() string { return s.dir.path }

// Symtable returns the current variable bindings. The map is a copy; the
// variables are live.
func (s *Session) Symtable() map[string]*symtable.Variable {
	return s.store.All()
}

// GetVariable materializes a variable's entity table as plain records.
func (s *Session) GetVariable(name string) ([]symtable.Row, error) {
	v, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}
	return v.Table().Rows(), nil
}

// GetVariableNames returns the names currently bound, sorted.
func (s *Session) GetVariableNames() []string {
	return s.store.Names()
}

// CreateVariable binds a variable directly from caller-supplied records,
// bypassing GET. Each record gains a type attribute when it lacks one.
func (s *Session) CreateVariable(name string, records []map[string]any, objectType string) error {
	if name == "" {
		return fmt.Errorf("variable name must not be empty")
	}
	if objectType == "" {
		return fmt.Errorf("object type must not be empty")
	}

	rows := make([]symtable.Row, len(records))
	for i, rec := range records {
		row := make(symtable.Row, len(rec)+1)
		for k, v := range rec {
			row[k] = v
		}
		if _, ok := row["type"]; !ok {
			row["type"] = objectType
		}
		rows[i] = row
	}
	s.store.Create(name, objectType, rows)
	s.logger.Debug("variable created", "name", name, "type", objectType, "rows", len(rows))
	return nil
}
