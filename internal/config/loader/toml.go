package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// IncludeKey lists other TOML files merged beneath the current one.
const IncludeKey = "@include"

// LoadTOML reads the TOML file at path and merges its @include files
// beneath it. Relative includes resolve against the including file's
// directory. maxDepth bounds the include nesting.
//
// A missing file returns nil, nil.
func LoadTOML(fsys afero.Fs, path string, maxDepth int) (map[string]any, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("include depth exceeded for %s", path)
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg, err := decodeTOML(path, data)
	if err != nil {
		return nil, err
	}

	includes, err := includeList(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Includes are lower priority than the including file.
	baseDir := filepath.Dir(path)
	for _, inc := range includes {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(baseDir, inc)
		}
		incCfg, err := LoadTOML(fsys, inc, maxDepth-1)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", inc, err)
		}
		cfg = DeepMerge(incCfg, cfg)
	}

	return cfg, nil
}

// decodeTOML parses data into a map. An empty document is an empty map.
func decodeTOML(source string, data []byte) (map[string]any, error) {
	var cfg map[string]any
	if err := toml.Unmarshal(data, &cfg); err != nil {
		perr := &ParseError{
			Path:    source,
			Message: err.Error(),
			Err:     err,
		}
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			perr.Line, perr.Column = decErr.Position()
		}
		return nil, perr
	}
	if cfg == nil {
		cfg = make(map[string]any)
	}
	return cfg, nil
}

// includeList removes IncludeKey from cfg and returns the paths it named.
func includeList(cfg map[string]any) ([]string, error) {
	raw, ok := cfg[IncludeKey]
	if !ok {
		return nil, nil
	}
	delete(cfg, IncludeKey)

	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []any:
		paths := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be string or array of strings", IncludeKey)
			}
			paths = append(paths, s)
		}
		return paths, nil
	default:
		return nil, fmt.Errorf("%s must be string or array of strings, got %T", IncludeKey, raw)
	}
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
