// Package app wires configuration, logging, input readers and the encoder
// into the operations behind the luaseri command.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dshills/luaseri/internal/config"
	"github.com/dshills/luaseri/internal/encoder"
	"github.com/dshills/luaseri/internal/jsonsrc"
	"github.com/dshills/luaseri/internal/logging"
	"github.com/dshills/luaseri/internal/lua"
	"github.com/dshills/luaseri/internal/watch"
)

// StdinName is the path that selects standard input.
const StdinName = "-"

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	// Empty reads the user config file if one exists.
	ConfigPath string

	// Overrides are settings from the command line, keyed by dotted path.
	Overrides map[string]any

	// Fs is the file system inputs and config are read from. Defaults to the OS.
	Fs afero.Fs

	// Stdin is read for the "-" input. Defaults to os.Stdin.
	Stdin io.Reader

	// LogOutput receives diagnostics. Defaults to os.Stderr.
	LogOutput io.Writer
}

// App serializes input files according to its configuration.
type App struct {
	cfg    *config.Config
	fs     afero.Fs
	stdin  io.Reader
	logger *zap.Logger
	enc    *encoder.Encoder

	closed atomic.Bool
}

// New loads configuration and builds the encoder.
func New(opts Options) (*App, error) {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	cfg, err := config.Load(fsys, opts.ConfigPath, opts.Overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	lc := cfg.Logging()
	if opts.LogOutput != nil {
		lc.Output = opts.LogOutput
	}
	logger := logging.New(lc)

	a := &App{
		cfg:    cfg,
		fs:     fsys,
		stdin:  stdin,
		logger: logging.WithComponent(logger, "app"),
		enc:    encoder.New(cfg.EncoderOptions(logging.WithComponent(logger, "encoder"))...),
	}

	a.logger.Debug("configured",
		zap.String("buffer", cfg.Encoder.Buffer),
		zap.Int("chunkSize", cfg.Encoder.ChunkSize),
		zap.Int("maxDepth", cfg.Encoder.MaxDepth),
		zap.String("format", cfg.Input.Format),
	)
	return a, nil
}

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Encoder returns the configured encoder.
func (a *App) Encoder() *encoder.Encoder {
	return a.enc
}

// Format resolves the input format of path. An explicit lua or json
// setting wins; otherwise .json files are JSON and everything else,
// including standard input, is Lua.
func (a *App) Format(path string) string {
	switch f := strings.ToLower(a.cfg.Input.Format); f {
	case config.FormatLua, config.FormatJSON:
		return f
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return config.FormatJSON
	}
	return config.FormatLua
}

// SerializeFile reads path, or standard input for "-", and serializes it.
func (a *App) SerializeFile(ctx context.Context, path string) (string, error) {
	if a.closed.Load() {
		return "", ErrClosed
	}

	name := path
	var r io.Reader
	if path == StdinName {
		name = "stdin"
		r = a.stdin
	} else {
		f, err := a.fs.Open(path)
		if err != nil {
			return "", NewOperationError("read", path, err)
		}
		defer f.Close()
		r = f
	}

	format := a.Format(path)
	out, err := a.Serialize(ctx, name, format, r)
	if err != nil {
		return "", NewOperationError("serialize", name, err).WithContext(format)
	}
	return out, nil
}

// Serialize reads one input in the given format and serializes it.
func (a *App) Serialize(ctx context.Context, name, format string, r io.Reader) (string, error) {
	switch format {
	case config.FormatJSON:
		data, err := io.ReadAll(r)
		if err != nil {
			return "", err
		}
		v, err := jsonsrc.Parse(data)
		if err != nil {
			return "", err
		}
		return a.enc.Encode(v)
	default:
		state := lua.NewState(
			lua.WithExecutionTimeout(a.cfg.Input.Timeout),
			lua.WithEncoder(a.enc),
			lua.WithLogger(logging.WithComponent(a.logger, "lua")),
		)
		defer state.Close()
		return state.Serialize(ctx, name, r)
	}
}

// Run serializes each path in order and writes one line per input to w.
// No paths means standard input. Run stops at the first failure.
func (a *App) Run(ctx context.Context, paths []string, w io.Writer) error {
	if len(paths) == 0 {
		paths = []string{StdinName}
	}

	bw := bufio.NewWriter(w)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := a.SerializeFile(ctx, p)
		if err != nil {
			_ = bw.Flush()
			return err
		}
		a.logger.Debug("serialized", zap.String("path", p), zap.Int("bytes", len(out)))
		if _, err := bw.WriteString(out); err != nil {
			return NewOperationError("write", p, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return NewOperationError("write", p, err)
		}
	}
	return bw.Flush()
}

// Watch serializes path to w, then again each time it changes, until ctx
// is done. Failures after the first run are logged and watching continues.
func (a *App) Watch(ctx context.Context, path string, w io.Writer) error {
	if path == StdinName {
		return ErrWatchStdin
	}
	if err := a.Run(ctx, []string{path}, w); err != nil {
		return err
	}

	watcher, err := watch.New(watch.WithDebounce(a.cfg.Watch.Debounce))
	if err != nil {
		return NewOperationError("watch", path, err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return NewOperationError("watch", path, err)
	}
	a.logger.Info("watching", zap.String("path", path))

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			a.logger.Debug("changed", zap.String("path", ev.Path), zap.Stringer("op", ev.Op))
			if err := a.Run(ctx, []string{path}, w); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				a.logger.Error("serialize failed", zap.String("path", path), zap.Error(err))
			}

		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", zap.Error(err))
		}
	}
}

// Close flushes the logger. The App cannot be used afterwards.
func (a *App) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	_ = a.logger.Sync()
	return nil
}
