package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunFiles(t *testing.T) {
	lua := writeInput(t, "a.lua", `return {1, 2, k = "v"}`)
	json := writeInput(t, "b.json", `{"x": [3]}`)

	code, out, _ := runCLI(t, "", lua, json)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "{[1]=1,[2]=2,k=\"v\"}\n{x={[1]=3}}\n", out)
}

func TestRunStdinFlags(t *testing.T) {
	code, out, _ := runCLI(t, `[7, 8]`, "--format", "json", "--positional", "--buffer=fragments")
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "{7,8}\n", out)
}

func TestRunEncodeFailure(t *testing.T) {
	path := writeInput(t, "bad.lua", `return {ok = true}`)

	code, out, errOut := runCLI(t, "", path)
	assert.Equal(t, exitFailed, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "type violation")
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"--nope"}, "unknown flag"},
		{"bad buffer", []string{"--buffer", "rope", "-"}, "encoder.buffer"},
		{"bad chunk size", []string{"--chunk-size", "0", "-"}, "encoder.chunkSize"},
		{"missing config", []string{"-c", "/nonexistent/luaseri.toml"}, "config file not found"},
		{"watch without file", []string{"--watch"}, "exactly one file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, "", tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, errOut, tt.want)
		})
	}
}

func TestRunConfigFile(t *testing.T) {
	cfg := writeInput(t, "luaseri.toml", "[encoder]\nmaxDepth = 1\n")
	in := writeInput(t, "n.lua", `return {{}}`)

	code, _, errOut := runCLI(t, "", "-c", cfg, in)
	assert.Equal(t, exitFailed, code)
	assert.Contains(t, errOut, "depth")

	// Flags override the file.
	code, out, _ := runCLI(t, "", "-c", cfg, "--max-depth", "0", in)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "{[1]={}}\n", out)
}

func TestRunVersionHelp(t *testing.T) {
	code, out, _ := runCLI(t, "", "--version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "luaseri dev")

	code, _, errOut := runCLI(t, "", "-h")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, errOut, "Usage: luaseri")
}

func TestParseFlagsOnlyChanged(t *testing.T) {
	opts, err := parseFlags(newFlagSet(io.Discard), []string{"--max-depth", "9", "a.lua", "b.lua"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"encoder.maxDepth": 9}, opts.app.Overrides)
	assert.Equal(t, []string{"a.lua", "b.lua"}, opts.files)
}
