package loader

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestLoadTOML(t *testing.T) {
	fs := writeFiles(t, map[string]string{"/etc/luaseri.toml": `
[encoder]
buffer = "fragments"
maxDepth = 12

[log]
level = "debug"
`})

	cfg, err := LoadTOML(fs, "/etc/luaseri.toml", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"encoder": map[string]any{"buffer": "fragments", "maxDepth": int64(12)},
		"log":     map[string]any{"level": "debug"},
	}, cfg)
}

func TestLoadTOMLMissingFile(t *testing.T) {
	cfg, err := LoadTOML(afero.NewMemMapFs(), "/nope.toml", 1)
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadTOMLEmptyFile(t *testing.T) {
	fs := writeFiles(t, map[string]string{"/empty.toml": ""})

	cfg, err := LoadTOML(fs, "/empty.toml", 1)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Empty(t, cfg)
}

func TestLoadTOMLParseError(t *testing.T) {
	fs := writeFiles(t, map[string]string{"/bad.toml": "[encoder\nbuffer = 1\n"})

	_, err := LoadTOML(fs, "/bad.toml", 1)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "/bad.toml", perr.Path)
	assert.Greater(t, perr.Line, 0)
	assert.Contains(t, err.Error(), "/bad.toml")
}

func TestLoadTOMLIncludes(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/cfg/base.toml": `
[encoder]
buffer = "fragments"
maxDepth = 8
`,
		"/cfg/main.toml": `
"@include" = ["base.toml"]

[encoder]
maxDepth = 64
`,
	})

	cfg, err := LoadTOML(fs, "/cfg/main.toml", 4)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"encoder": map[string]any{"buffer": "fragments", "maxDepth": int64(64)},
	}, cfg)
}

func TestLoadTOMLIncludeErrors(t *testing.T) {
	fs := writeFiles(t, map[string]string{
		"/a.toml":   `"@include" = "b.toml"`,
		"/b.toml":   `"@include" = "a.toml"`,
		"/num.toml": `"@include" = 3`,
		"/mix.toml": `"@include" = ["a.toml", 1]`,
	})

	tests := []struct {
		path string
		want string
	}{
		{"/a.toml", "include depth exceeded"},
		{"/num.toml", "must be string or array of strings, got int64"},
		{"/mix.toml", "must be string or array of strings"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := LoadTOML(fs, tt.path, 3)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvLoader(t *testing.T) {
	t.Setenv("LUASERI_BUFFER", "fragments")
	t.Setenv("LUASERI_MAX_DEPTH", "32")
	t.Setenv("LUASERI_POSITIONAL", "yes")
	t.Setenv("LUASERI_TIMEOUT", "2s")
	t.Setenv("LUASERI_WATCH_DEBOUNCE", "50ms")
	t.Setenv("OTHER_BUFFER", "chunked")

	cfg, err := NewEnvLoader(DefaultEnvPrefix).Load()
	require.NoError(t, err)

	assert.Equal(t, "fragments", cfg["encoder"].(map[string]any)["buffer"])
	assert.Equal(t, int64(32), cfg["encoder"].(map[string]any)["maxDepth"])
	assert.Equal(t, true, cfg["encoder"].(map[string]any)["positional"])
	assert.Equal(t, 2*time.Second, cfg["input"].(map[string]any)["timeout"])
	assert.Equal(t, 50*time.Millisecond, cfg["watch"].(map[string]any)["debounce"])
}

func TestEnvLoaderIgnoresUnmapped(t *testing.T) {
	l := NewEnvLoader(DefaultEnvPrefix)
	l.environ = func() []string {
		return []string{
			"LUASERI_CONFIG=/home/me/luaseri.toml",
			"LUASERI_HOME=/opt/luaseri",
			"LUASERI_WATCH_DEBOUNCE_TIME=abc",
			"LUASERI_LOG_LEVEL=warn",
			"LUASERI_NOVALUE",
			"PATH=/usr/bin",
		}
	}

	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"log": map[string]any{"level": "warn"},
	}, cfg)
}

func TestEnvParseValue(t *testing.T) {
	l := NewEnvLoader(DefaultEnvPrefix)

	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"ON", true},
		{"off", false},
		{"42", int64(42)},
		{"1.5", 1.5},
		{"250ms", 250 * time.Millisecond},
		{"chunked", "chunked"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, l.parseValue(tt.in), tt.in)
	}
}

func TestDeepMerge(t *testing.T) {
	base := map[string]any{
		"encoder": map[string]any{"buffer": "chunked", "maxDepth": 256},
		"input":   "scalar",
	}

	merged := DeepMerge(base, map[string]any{
		"encoder": map[string]any{"maxDepth": 10},
		"input":   map[string]any{"format": "json"},
		"log":     map[string]any{"level": "debug"},
	})

	assert.Equal(t, map[string]any{
		"encoder": map[string]any{"buffer": "chunked", "maxDepth": 10},
		"input":   map[string]any{"format": "json"},
		"log":     map[string]any{"level": "debug"},
	}, merged)

	assert.Equal(t, map[string]any{"a": 1}, DeepMerge(nil, map[string]any{"a": 1}))
	assert.Equal(t, map[string]any{"a": 1}, DeepMerge(map[string]any{"a": 1}, nil))
}

func TestSetByPath(t *testing.T) {
	m := map[string]any{"encoder": "scalar"}
	SetByPath(m, "encoder.chunkSize", 64)
	SetByPath(m, "log.level", "warn")
	SetByPath(m, "", 1)

	assert.Equal(t, map[string]any{
		"encoder": map[string]any{"chunkSize": 64},
		"log":     map[string]any{"level": "warn"},
	}, m)
}
