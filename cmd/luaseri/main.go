// Package main is the entry point for the luaseri command.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/dshills/luaseri/internal/app"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK     = 0
	exitUsage  = 1
	exitFailed = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cliOptions holds parsed command line state.
type cliOptions struct {
	app         app.Options
	files       []string
	watch       bool
	showVersion bool
	showHelp    bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := newFlagSet(stderr)

	opts, err := parseFlags(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	if opts.showHelp {
		fs.Usage()
		return exitOK
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "luaseri %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return exitOK
	}

	opts.app.Stdin = stdin
	opts.app.LogOutput = stderr

	application, err := app.New(opts.app)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	defer application.Close()

	if opts.watch {
		if len(opts.files) != 1 {
			fmt.Fprintln(stderr, "Error: --watch needs exactly one file")
			return exitUsage
		}
		if err := application.Watch(ctx, opts.files[0], stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailed
		}
		return exitOK
	}

	if err := application.Run(ctx, opts.files, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

func newFlagSet(out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("luaseri", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "luaseri - serialize Lua and JSON tables to Lua table constructors\n\n")
		fmt.Fprintf(out, "Usage: luaseri [options] [files...]\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  luaseri data.lua            Serialize the table returned by data.lua\n")
		fmt.Fprintf(out, "  luaseri -f json < doc       Serialize JSON from standard input\n")
		fmt.Fprintf(out, "  luaseri -w data.lua         Serialize again on every save\n")
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) (cliOptions, error) {
	var opts cliOptions
	var (
		format      string
		bufferKind  string
		chunkSize   int
		maxDepth    int
		integerKeys bool
		positional  bool
		logLevel    string
		timeout     string
	)

	fs.StringVarP(&opts.app.ConfigPath, "config", "c", "", "Path to configuration file")
	fs.StringVarP(&format, "format", "f", "auto", "Input format (auto, lua, json)")
	fs.StringVar(&bufferKind, "buffer", "chunked", "Output buffer (chunked, fragments)")
	fs.IntVar(&chunkSize, "chunk-size", 128, "Block size of the chunked buffer")
	fs.IntVar(&maxDepth, "max-depth", 256, "Maximum table nesting, 0 for no limit")
	fs.BoolVar(&integerKeys, "integer-keys", false, "Reject numeric keys with a fractional part")
	fs.BoolVar(&positional, "positional", false, "Write 1..n runs without explicit keys")
	fs.StringVar(&timeout, "timeout", "5s", "Evaluation timeout for Lua inputs")
	fs.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	fs.BoolVarP(&opts.watch, "watch", "w", false, "Serialize again whenever the file changes")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show help message")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	// Only flags given explicitly override the config file and environment.
	overrides := make(map[string]any)
	set := func(name, path string, v any) {
		if fs.Changed(name) {
			overrides[path] = v
		}
	}
	set("format", "input.format", format)
	set("timeout", "input.timeout", timeout)
	set("buffer", "encoder.buffer", bufferKind)
	set("chunk-size", "encoder.chunkSize", chunkSize)
	set("max-depth", "encoder.maxDepth", maxDepth)
	set("integer-keys", "encoder.integerKeys", integerKeys)
	set("positional", "encoder.positional", positional)
	set("log-level", "log.level", logLevel)

	opts.app.Overrides = overrides
	opts.files = fs.Args()
	return opts, nil
}
