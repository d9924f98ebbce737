package lua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/luaseri/internal/encoder"
)

// DefaultExecutionTimeout bounds a single script evaluation.
const DefaultExecutionTimeout = 5 * time.Second

// DataGlobal is the global read when a script returns no table.
const DataGlobal = "data"

// State wraps a sandboxed gopher-lua state that evaluates data scripts.
//
// gopher-lua's LState is not goroutine-safe; the mutex serializes every
// call made through State.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	encoder          *encoder.Encoder
	logger           *zap.Logger

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout for one evaluation.
// Zero disables the timeout; the caller's context still applies.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithEncoder sets the encoder used by Serialize and by the luaseri module.
func WithEncoder(enc *encoder.Encoder) StateOption {
	return func(s *State) {
		if enc != nil {
			s.encoder = enc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) StateOption {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewState creates a sandboxed Lua state with the luaseri module preloaded
// and also installed as a global of the same name.
func NewState(opts ...StateOption) *State {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
		encoder:          encoder.New(),
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)
	installSandbox(L)
	installPrint(L, state.logger)

	Preload(L, state.encoder)
	L.SetGlobal(ModuleName, NewModule(L, state.encoder))

	state.L = L
	return state
}

// openSafeLibraries opens only side-effect free standard libraries.
// io, os and debug are intentionally not opened.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenPackage(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// installSandbox removes loaders that reach the file system, leaving
// require able to resolve preloaded modules only.
func installSandbox(L *lua.LState) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}
}

// installPrint routes print to the logger so scripts never write to the
// output stream.
func installPrint(L *lua.LState, logger *zap.Logger) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info(strings.Join(parts, "\t"), zap.String("source", "print"))
		return 0
	}))
}

// Eval runs the script read from r and returns its results.
// name is used in Lua error messages.
func (s *State) Eval(ctx context.Context, name string, r io.Reader) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	fn, err := s.L.Load(r, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	stackTop := s.L.GetTop()
	s.L.Push(fn)

	callErr := s.doWithRecovery(func() error {
		return s.L.PCall(0, lua.MultRet, nil)
	})
	if callErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrExecutionTimeout, name)
		}
		return nil, fmt.Errorf("run %s: %w", name, callErr)
	}

	nRet := s.L.GetTop() - stackTop
	if nRet <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, nRet)
	for i := 0; i < nRet; i++ {
		results[i] = s.L.Get(stackTop + i + 1)
	}
	s.L.Pop(nRet)

	return results, nil
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// Table evaluates a script and returns the table it describes: the first
// return value if it is a table, otherwise the global named by DataGlobal.
func (s *State) Table(ctx context.Context, name string, r io.Reader) (*lua.LTable, error) {
	results, err := s.Eval(ctx, name, r)
	if err != nil {
		return nil, err
	}

	if len(results) > 0 {
		if t, ok := results[0].(*lua.LTable); ok {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %s returned %s", ErrNoTable, name, results[0].Type())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.L.GetGlobal(DataGlobal).(*lua.LTable); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s returned nothing and set no %q global", ErrNoTable, name, DataGlobal)
}

// Serialize evaluates a script and encodes the resulting table.
func (s *State) Serialize(ctx context.Context, name string, r io.Reader) (string, error) {
	t, err := s.Table(ctx, name, r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.encoder.Encode(FromLua(t))
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	s.logger.Debug("serialized lua script", zap.String("script", name), zap.Int("bytes", len(out)))
	return out, nil
}

// LuaState returns the underlying gopher-lua state.
// Direct access bypasses the mutex; the caller must keep to one goroutine.
func (s *State) LuaState() *lua.LState {
	return s.L
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.L.Close()
	s.closed = true
	return nil
}
