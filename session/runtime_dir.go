package session

import (
	"fmt"
	"os"
	"path/filepath"
)

// sharedDirName is the well-known directory under the system temp dir used
// by every debug-mode session. It outlives sessions and is never removed;
// concurrent debug sessions share it last-writer-wins.
const sharedDirName = "huntflow"

// runtimeDir is a session's working directory together with its ownership
// decision. The decision is made once at construction: a directory the
// session created is removed at Close, a pre-existing or shared one is
// left alone.
type runtimeDir struct {
	path  string
	owned bool
}

func newRuntimeDir(debug bool, supplied, sessionID string) (*runtimeDir, error) {
	switch {
	case supplied != "":
		existed := false
		if info, err := os.Stat(supplied); err == nil && info.IsDir() {
			existed = true
		}
		if err := os.MkdirAll(supplied, 0o755); err != nil {
			return nil, fmt.Errorf("creating runtime directory: %w", err)
		}
		return &runtimeDir{path: supplied, owned: !existed}, nil

	case debug:
		path := filepath.Join(os.TempDir(), sharedDirName)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating shared runtime directory: %w", err)
		}
		return &runtimeDir{path: path, owned: false}, nil

	default:
		path := filepath.Join(os.TempDir(), "huntflow-session-"+sessionID)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating runtime directory: %w", err)
		}
		return &runtimeDir{path: path, owned: true}, nil
	}
}

func (d *runtimeDir) Close() error {
	if !d.owned {
		return nil
	}
	return os.RemoveAll(d.path)
}
