// lua_host.go - Lua scripting host for driving an engine

package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"
)

func init() {
	compiledFeatures = append(compiledFeatures, "script:lua")
}

// LuaHost runs scripts against one engine through a global m68k table.
// Like the engine it belongs to a single goroutine.
type LuaHost struct {
	L      *lua.LState
	runner *M68KRunner
	cpu    *M68KEngine
	debug  *DebugM68K
	log    *logrus.Entry
}

func NewLuaHost(runner *M68KRunner, log *logrus.Entry) *LuaHost {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	h := &LuaHost{
		L:      lua.NewState(),
		runner: runner,
		cpu:    runner.CPU(),
		debug:  NewDebugM68K(runner),
		log:    log.WithField("component", "lua"),
	}
	mod := h.L.SetFuncs(h.L.NewTable(), map[string]lua.LGFunction{
		"run":         h.run,
		"step":        h.step,
		"frame":       h.frame,
		"irq":         h.irq,
		"exception":   h.exception,
		"reg":         h.reg,
		"peek8":       h.peek(SizeByte),
		"peek16":      h.peek(SizeWord),
		"peek32":      h.peek(SizeLong),
		"poke8":       h.poke(SizeByte),
		"poke16":      h.poke(SizeWord),
		"poke32":      h.poke(SizeLong),
		"clear_cache": h.clearCache,
		"end_field":   h.endField,
		"freeze":      h.freeze,
		"frozen":      h.frozen,
		"stats":       h.stats,
		"log":         h.print,
	})
	h.L.SetGlobal("m68k", mod)
	return h
}

func (h *LuaHost) Close() { h.L.Close() }

// DoString runs a chunk of Lua source.
func (h *LuaHost) DoString(src string) error {
	return errors.Wrap(h.L.DoString(src), "lua")
}

// DoFile runs a Lua script file.
func (h *LuaHost) DoFile(path string) error {
	return errors.Wrapf(h.L.DoFile(path), "lua %s", path)
}

// raise turns an engine error into a Lua error. It does not return.
func (h *LuaHost) raise(L *lua.LState, err error) int {
	if fe, ok := IsFatal(err); ok {
		L.RaiseError("%s at 0x%06X: %s", fe.Kind, fe.Addr, fe.Detail)
		return 0
	}
	L.RaiseError("%s", err.Error())
	return 0
}

// run(cycles) -> overrun
func (h *LuaHost) run(L *lua.LState) int {
	over, err := h.cpu.RunFor(L.CheckInt(1))
	if err != nil {
		return h.raise(L, err)
	}
	L.Push(lua.LNumber(over))
	return 1
}

// step() -> cycles
func (h *LuaHost) step(L *lua.LState) int {
	n, err := h.cpu.Step()
	if err != nil {
		return h.raise(L, err)
	}
	L.Push(lua.LNumber(n))
	return 1
}

// frame() -> frame count
func (h *LuaHost) frame(L *lua.LState) int {
	if err := h.runner.RunFrame(); err != nil {
		return h.raise(L, err)
	}
	L.Push(lua.LNumber(h.runner.Frames()))
	return 1
}

func (h *LuaHost) irq(L *lua.LState) int {
	level := L.CheckInt(1)
	if level < 1 || level > 7 {
		L.ArgError(1, "interrupt level must be 1-7")
		return 0
	}
	h.cpu.RequestAutovector(level)
	return 0
}

// exception(vector [, pc])
func (h *LuaHost) exception(L *lua.LState) int {
	vector := L.CheckInt(1)
	if vector < 0 || vector > 255 {
		L.ArgError(1, "vector must be 0-255")
		return 0
	}
	pc := uint32(L.OptInt64(2, int64(h.cpu.regs.PC)))
	h.cpu.RequestException(vector, pc)
	return 0
}

func (h *LuaHost) reg(L *lua.LState) int {
	name := L.CheckString(1)
	v, ok := h.debug.GetRegister(name)
	if !ok {
		L.ArgError(1, "unknown register "+name)
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (h *LuaHost) peek(size Size) lua.LGFunction {
	return func(L *lua.LState) int {
		addr := uint32(L.CheckInt64(1))
		L.Push(lua.LNumber(h.cpu.read(addr, size)))
		return 1
	}
}

func (h *LuaHost) poke(size Size) lua.LGFunction {
	return func(L *lua.LState) int {
		addr := uint32(L.CheckInt64(1))
		h.cpu.write(addr, size, uint32(L.CheckInt64(2)))
		return 0
	}
}

func (h *LuaHost) clearCache(L *lua.LState) int {
	h.cpu.ClearCache()
	return 0
}

func (h *LuaHost) endField(L *lua.LState) int {
	h.cpu.EndField()
	return 0
}

func (h *LuaHost) freeze(L *lua.LState) int {
	h.cpu.SetFrozen(L.OptBool(1, true))
	return 0
}

func (h *LuaHost) frozen(L *lua.LState) int {
	L.Push(lua.LBool(h.cpu.Frozen()))
	return 1
}

func (h *LuaHost) stats(L *lua.LState) int {
	s := h.cpu.Stats()
	t := L.NewTable()
	t.RawSetString("block_builds", lua.LNumber(s.BlockBuilds))
	t.RawSetString("block_hits", lua.LNumber(s.BlockHits))
	t.RawSetString("cached_blocks", lua.LNumber(s.CachedBlocks))
	t.RawSetString("instructions", lua.LNumber(s.Instructions))
	t.RawSetString("volatile_instructions", lua.LNumber(s.VolatileInstrs))
	t.RawSetString("interrupts", lua.LNumber(s.Interrupts))
	t.RawSetString("exceptions", lua.LNumber(s.Exceptions))
	t.RawSetString("clocks", lua.LNumber(h.cpu.Clocks()))
	t.RawSetString("field_clocks", lua.LNumber(h.cpu.FieldClocks()))
	L.Push(t)
	return 1
}

func (h *LuaHost) print(L *lua.LState) int {
	h.log.Info(L.CheckString(1))
	return 0
}
