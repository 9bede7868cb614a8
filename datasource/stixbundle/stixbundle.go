// Package stixbundle fetches entities from STIX-style JSON bundle files
// addressed by file:// URIs.
//
// Each observed-data object in the bundle wraps a numbered map of cyber
// observables. Fetching a type extracts every observable of that type,
// flattens its scalar attributes, dereferences *_ref attributes into dotted
// columns (src_ref -> src_ref.value), and stamps the row with the
// observation's first_observed/last_observed timestamps.
package stixbundle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/huntflow-lang/huntflow/symtable"
)

// Scheme is the URI scheme this source serves.
const Scheme = "file"

// Source reads bundles from the local filesystem. It is stateless and safe
// to share.
type Source struct{}

// New creates a file bundle source.
func New() *Source {
	return &Source{}
}

type bundle struct {
	Type    string           `json:"type"`
	Objects []map[string]any `json:"objects"`
}

// Fetch loads the bundle at uri and returns the flattened rows of scoType.
func (s *Source) Fetch(_ context.Context, scoType, uri string) ([]symtable.Row, error) {
	path := strings.TrimPrefix(uri, Scheme+"://")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bundle: %w", err)
	}

	var b bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing bundle %s: %w", path, err)
	}
	if b.Type != "bundle" {
		return nil, fmt.Errorf("%s is not a STIX bundle (type %q)", path, b.Type)
	}

	var rows []symtable.Row
	for _, obj := range b.Objects {
		if obj["type"] != "observed-data" {
			continue
		}
		observables, ok := obj["objects"].(map[string]any)
		if !ok {
			continue
		}
		first, _ := obj["first_observed"].(string)
		last, _ := obj["last_observed"].(string)

		for _, idx := range sortedKeys(observables) {
			observable, ok := observables[idx].(map[string]any)
			if !ok || observable["type"] != scoType {
				continue
			}
			row := flatten(observable, observables)
			if first != "" {
				row[symtable.FirstObserved] = first
			}
			if last != "" {
				row[symtable.LastObserved] = last
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// sortedKeys orders the observation's object indices so fetches are
// deterministic. Indices are decimal strings; compare numerically when
// possible.
func sortedKeys(observables map[string]any) []string {
	keys := make([]string, 0, len(observables))
	for k := range observables {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(keys[i])
		b, berr := strconv.Atoi(keys[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		return keys[i] < keys[j]
	})
	return keys
}

// flatten copies an observable's scalar attributes into a row. A *_ref
// attribute is resolved against the observation's object map and its scalar
// attributes appear under dotted paths (dst_ref.value). Non-scalar values
// other than refs are dropped.
func flatten(observable map[string]any, observables map[string]any) symtable.Row {
	row := make(symtable.Row, len(observable)+2)
	for key, val := range observable {
		switch v := val.(type) {
		case string:
			if strings.HasSuffix(key, "_ref") {
				deref(row, key, v, observables)
				continue
			}
			row[key] = v
		case float64, bool:
			row[key] = v
		}
	}
	return row
}

func deref(row symtable.Row, key, index string, observables map[string]any) {
	target, ok := observables[index].(map[string]any)
	if !ok {
		return
	}
	for tk, tv := range target {
		if tk == "type" || strings.HasSuffix(tk, "_ref") {
			continue
		}
		switch tv.(type) {
		case string, float64, bool:
			row[key+"."+tk] = tv
		}
	}
}
