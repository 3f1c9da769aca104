// Package loader reads seed files into records.
package loader

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/leapstack-labs/treegrid/internal/forest"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"gopkg.in/yaml.v3"
)

// Keys names the structural keys in seed entries.
type Keys struct {
	ID        string
	Parent    string
	Container string
}

// DefaultKeys returns the keys used when none are configured.
func DefaultKeys() Keys {
	return Keys{ID: "id", Parent: "parentId", Container: "isContainer"}
}

// withDefaults fills empty keys.
func (k Keys) withDefaults() Keys {
	d := DefaultKeys()
	if k.ID == "" {
		k.ID = d.ID
	}
	if k.Parent == "" {
		k.Parent = d.Parent
	}
	if k.Container == "" {
		k.Container = d.Container
	}
	return k
}

// listKeys are the mapping keys that may hold the record list.
var listKeys = []string{"records", "people"}

// ParseError reports a malformed seed entry.
type ParseError struct {
	File    string
	Index   int
	Message string
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: entry %d: %s", e.File, e.Index, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// SupportedExt reports whether path has a seed file extension.
func SupportedExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadFile reads a .yaml, .yml or .json seed file.
func LoadFile(path string, keys Keys) ([]core.Record, error) {
	if !SupportedExt(path) {
		return nil, &ParseError{File: path, Index: -1, Message: "unsupported seed file extension"}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(path, content, keys)
}

// Parse decodes seed content. JSON is valid YAML, so both go through yaml.v3.
// The document is either a sequence of entries or a mapping holding one under
// "records" or "people". Entry order is preserved.
func Parse(name string, content []byte, keys Keys) ([]core.Record, error) {
	keys = keys.withDefaults()

	if len(bytes.TrimSpace(content)) == 0 {
		return []core.Record{}, nil
	}

	var doc any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, &ParseError{File: name, Index: -1, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	entries, err := entryList(doc)
	if err != nil {
		return nil, &ParseError{File: name, Index: -1, Message: err.Error()}
	}

	records := make([]core.Record, 0, len(entries))
	for i, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, &ParseError{File: name, Index: i, Message: fmt.Sprintf("expected a mapping, got %T", raw)}
		}
		rec, err := toRecord(entry, keys)
		if err != nil {
			return nil, &ParseError{File: name, Index: i, Message: err.Error()}
		}
		records = append(records, rec)
	}
	return records, nil
}

func entryList(doc any) ([]any, error) {
	switch v := doc.(type) {
	case []any:
		return v, nil
	case map[string]any:
		for _, k := range listKeys {
			if list, ok := v[k]; ok {
				entries, ok := list.([]any)
				if !ok {
					return nil, fmt.Errorf("%q must be a list", k)
				}
				return entries, nil
			}
		}
		return nil, fmt.Errorf("expected a list or a mapping with one of %v", listKeys)
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("expected a list of records, got %T", doc)
	}
}

func toRecord(entry map[string]any, keys Keys) (core.Record, error) {
	var rec core.Record

	id, err := idString(entry[keys.ID])
	if err != nil {
		return rec, fmt.Errorf("%s: %w", keys.ID, err)
	}
	if id == "" {
		return rec, fmt.Errorf("missing %q", keys.ID)
	}
	rec.ID = core.RecordID(id)

	parent, err := idString(entry[keys.Parent])
	if err != nil {
		return rec, fmt.Errorf("%s: %w", keys.Parent, err)
	}
	rec.ParentID = core.RecordID(parent)

	switch c := entry[keys.Container].(type) {
	case nil:
	case bool:
		rec.IsContainer = c
	default:
		return rec, fmt.Errorf("%s must be a bool, got %T", keys.Container, c)
	}

	for k, v := range entry {
		if k == keys.ID || k == keys.Parent || k == keys.Container {
			continue
		}
		if rec.Fields == nil {
			rec.Fields = make(map[string]any, len(entry))
		}
		rec.Fields[k] = v
	}
	return rec, nil
}

// idString accepts string and integer ids.
func idString(v any) (string, error) {
	switch id := v.(type) {
	case nil:
		return "", nil
	case string:
		return id, nil
	case int:
		return strconv.Itoa(id), nil
	case int64:
		return strconv.FormatInt(id, 10), nil
	case uint64:
		return strconv.FormatUint(id, 10), nil
	case float64:
		if id != float64(int64(id)) {
			return "", fmt.Errorf("id %v is not an integer", id)
		}
		return strconv.FormatInt(int64(id), 10), nil
	default:
		return "", fmt.Errorf("unsupported id type %T", v)
	}
}

// Validate checks that records satisfy the forest invariants.
func Validate(records []core.Record) error {
	return forest.Validate(records)
}
