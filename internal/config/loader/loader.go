// Package loader reads luaseri configuration sources into plain maps.
//
// File and environment sources both produce map[string]any trees keyed by
// dotted section paths (for example encoder.maxDepth). Callers merge them
// with DeepMerge, lowest priority first, and decode the result.
package loader

import "github.com/spf13/afero"

// DefaultFS returns the default file system (OS).
func DefaultFS() afero.Fs {
	return afero.NewOsFs()
}
