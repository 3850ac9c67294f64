package builtin

import (
	"context"
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/mattjoyce/mosaic/internal/widget"
)

// Script runs a Lua-backed widget. The manifest entry names a file that
// must define render(); init() and update() are optional. The state opens
// a trimmed stdlib (no io, os or debug) and print is routed to the widget
// logger, since stray stdout would corrupt the terminal.
//
// An LState is not goroutine-safe; every call into it holds mu.
type Script struct {
	widget.Base

	mu sync.Mutex
	L  *lua.LState

	renderFn *lua.LFunction
	updateFn *lua.LFunction
	initFn   *lua.LFunction
}

// NewScript compiles the script, installs the mosaic table and captures
// the lifecycle functions.
func NewScript(wctx widget.Context) (any, error) {
	if wctx.Manifest == nil || wctx.Manifest.EntryPath() == "" {
		return nil, fmt.Errorf("script widget %q has no script entry", wctx.Name)
	}
	path := wctx.Manifest.EntryPath()

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)

	s := &Script{Base: widget.Base{Ctx: wctx}, L: L}
	s.installAPI()

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("load script %s: %w", path, err)
	}

	render, ok := L.GetGlobal("render").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("script %s does not define render()", path)
	}
	s.renderFn = render
	s.updateFn, _ = L.GetGlobal("update").(*lua.LFunction)
	s.initFn, _ = L.GetGlobal("init").(*lua.LFunction)

	return s, nil
}

// openSafeLibs opens base, table, string and math. io, os and debug stay
// closed; dofile and loadfile are removed so scripts cannot chain-load.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("loadfile", lua.LNil)
}

// installAPI exposes the mosaic table: name, options, log(msg) and
// publish(topic, data).
func (s *Script) installAPI() {
	wctx := s.Ctx

	api := s.L.NewTable()
	api.RawSetString("name", lua.LString(wctx.Name))
	api.RawSetString("options", toLua(s.L, wctx.Options))

	api.RawSetString("log", s.L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		if wctx.Logger != nil {
			wctx.Logger.Info(msg, "source", "script")
		}
		return 0
	}))

	api.RawSetString("publish", s.L.NewFunction(func(L *lua.LState) int {
		topic := L.CheckString(1)
		payload := map[string]any{}
		if L.GetTop() >= 2 {
			switch v := toGo(L.Get(2)).(type) {
			case map[string]any:
				payload = v
			case nil:
			default:
				// Scalars and arrays ride under a single key.
				payload = map[string]any{"value": v}
			}
		}
		if wctx.Bus != nil {
			wctx.Bus.Publish(topic, payload)
		}
		return 0
	}))

	s.L.SetGlobal("mosaic", api)

	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.Get(i).String())
		}
		if wctx.Logger != nil {
			wctx.Logger.Info(strings.Join(parts, " "), "source", "script")
		}
		return 0
	}))
}

func (s *Script) Initialize(ctx context.Context) error {
	if s.initFn == nil {
		return nil
	}
	_, err := s.call(ctx, s.initFn, 0)
	return err
}

func (s *Script) Update(ctx context.Context) error {
	if s.updateFn == nil {
		return nil
	}
	_, err := s.call(ctx, s.updateFn, 0)
	return err
}

func (s *Script) Render(ctx context.Context) (string, error) {
	ret, err := s.call(ctx, s.renderFn, 1)
	if err != nil {
		return "", err
	}
	str, ok := ret.(lua.LString)
	if !ok {
		return "", fmt.Errorf("render() must return a string, got %s", ret.Type())
	}
	return string(str), nil
}

func (s *Script) Destroy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
	return nil
}

// call invokes fn under the state lock with ctx applied, so scheduler
// timeouts and shutdown interrupt long-running scripts.
func (s *Script) call(ctx context.Context, fn *lua.LFunction, nret int) (lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	if err := s.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true}); err != nil {
		return nil, fmt.Errorf("lua: %w", err)
	}
	if nret == 0 {
		return lua.LNil, nil
	}
	ret := s.L.Get(-1)
	s.L.Pop(1)
	return ret, nil
}
