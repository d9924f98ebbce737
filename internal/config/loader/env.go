package loader

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultEnvPrefix is the prefix of environment variables read by EnvLoader.
const DefaultEnvPrefix = "LUASERI_"

// envSettings maps variable names, without the prefix, to setting paths.
var envSettings = map[string]string{
	"LOG_LEVEL":      "log.level",
	"BUFFER":         "encoder.buffer",
	"CHUNK_SIZE":     "encoder.chunkSize",
	"MAX_DEPTH":      "encoder.maxDepth",
	"INTEGER_KEYS":   "encoder.integerKeys",
	"POSITIONAL":     "encoder.positional",
	"FORMAT":         "input.format",
	"TIMEOUT":        "input.timeout",
	"WATCH_DEBOUNCE": "watch.debounce",
}

// EnvLoader loads configuration from environment variables.
//
// Only the variables listed in its mapping are read. Other variables
// sharing the prefix belong to the environment, not to luaseri, and are
// ignored.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "LUASERI_")
	mapping map[string]string // Unprefixed name -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "LUASERI_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: envSettings,
		environ: os.Environ,
	}
}

// Load reads environment variables and returns a configuration map.
// Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		short, ok := strings.CutPrefix(name, l.prefix)
		if !ok {
			continue
		}
		path, ok := l.mapping[short]
		if !ok {
			continue
		}
		SetByPath(config, path, l.parseValue(value))
	}

	return config, nil
}

// parseValue attempts to parse the string value into an appropriate type.
func (l *EnvLoader) parseValue(s string) any {
	if s == "" {
		return s
	}

	lower := strings.ToLower(s)
	if lower == "true" || lower == "yes" || lower == "on" {
		return true
	}
	if lower == "false" || lower == "no" || lower == "off" {
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only parse floats that contain a decimal point to avoid misreading ints.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	return s
}
