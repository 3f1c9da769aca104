// Package policy loads Starlark drop policies.
//
// A policy script defines a function
//
//	def can_drop(candidate, target):
//	    return target["department"] == candidate["department"]
//
// Records are passed as frozen dicts holding "id", "parent", "container" and
// every payload field. The function must return a bool.
package policy

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/leapstack-labs/treegrid/pkg/core"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// FuncName is the function a policy script must define.
const FuncName = "can_drop"

// LoadError reports a policy script that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("policy %s: %s", e.File, e.Message)
}

// Policy evaluates a Starlark can_drop function.
// It is safe for concurrent use: module globals are frozen after loading and
// every call runs on its own thread.
type Policy struct {
	name   string
	fn     *starlark.Function
	logger *slog.Logger
}

// LoadFile reads and compiles the policy script at path.
func LoadFile(path string, logger *slog.Logger) (*Policy, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}
	return Load(path, src, logger)
}

// Load compiles a policy from source. name is used in error messages.
func Load(name string, src []byte, logger *slog.Logger) (*Policy, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	thread := newThread("load:"+name, logger)
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, name, src, nil)
	if err != nil {
		return nil, &LoadError{File: name, Message: fmt.Sprintf("Starlark execution error: %v", err)}
	}

	v, ok := globals[FuncName]
	if !ok {
		return nil, &LoadError{File: name, Message: fmt.Sprintf("function %s is not defined", FuncName)}
	}
	fn, ok := v.(*starlark.Function)
	if !ok {
		return nil, &LoadError{File: name, Message: fmt.Sprintf("%s must be a function, got %s", FuncName, v.Type())}
	}
	if fn.NumParams() != 2 {
		return nil, &LoadError{File: name, Message: fmt.Sprintf("%s must take 2 parameters, takes %d", FuncName, fn.NumParams())}
	}

	return &Policy{name: name, fn: fn, logger: logger}, nil
}

// Name returns the script name the policy was loaded from.
func (p *Policy) Name() string {
	return p.name
}

// AllowDrop calls can_drop(candidate, target).
func (p *Policy) AllowDrop(candidate, target core.Record) (bool, error) {
	c, err := recordValue(candidate)
	if err != nil {
		return false, err
	}
	t, err := recordValue(target)
	if err != nil {
		return false, err
	}

	thread := newThread(p.name, p.logger)
	result, err := starlark.Call(thread, p.fn, starlark.Tuple{c, t}, nil)
	if err != nil {
		var evalErr *starlark.EvalError
		if errors.As(err, &evalErr) {
			return false, fmt.Errorf("%s: %s", FuncName, evalErr.Backtrace())
		}
		return false, fmt.Errorf("%s: %w", FuncName, err)
	}

	allowed, ok := result.(starlark.Bool)
	if !ok {
		return false, fmt.Errorf("%s must return a bool, got %s", FuncName, result.Type())
	}
	return bool(allowed), nil
}

func newThread(name string, logger *slog.Logger) *starlark.Thread {
	return &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			logger.Debug("policy print", "script", name, "msg", msg)
		},
	}
}

// recordValue converts a record into a frozen dict.
func recordValue(rec core.Record) (starlark.Value, error) {
	dict := starlark.NewDict(len(rec.Fields) + 3)

	keys := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := toStarlark(rec.Fields[k])
		if err != nil {
			return nil, fmt.Errorf("record %q field %q: %w", rec.ID, k, err)
		}
		if err := dict.SetKey(starlark.String(k), v); err != nil {
			return nil, err
		}
	}

	// structural keys win over payload fields of the same name
	_ = dict.SetKey(starlark.String("id"), starlark.String(rec.ID))
	_ = dict.SetKey(starlark.String("parent"), starlark.String(rec.ParentID))
	_ = dict.SetKey(starlark.String("container"), starlark.Bool(rec.IsContainer))

	dict.Freeze()
	return dict, nil
}

// toStarlark converts decoded YAML/JSON values.
func toStarlark(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case string:
		return starlark.String(val), nil
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case uint64:
		return starlark.MakeUint64(val), nil
	case float64:
		return starlark.Float(val), nil
	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return starlark.String(fmt.Sprint(val)), nil
	}
}
