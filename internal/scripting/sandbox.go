// Package scripting provides a sandboxed GopherLua execution environment for
// content-defined monster effect scripts. The Manager owns a single VM,
// loads every script in the content script directory, and dispatches effect
// lifecycle events to named Lua functions.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes allowed per
// script invocation when no override is configured.
const DefaultInstructionLimit = 100_000

// countingContext is a context.Context that cancels itself after Done() has
// been called limit times. GopherLua's main loop calls Done() once per
// opcode, making this an exact instruction-count limit.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done returns the underlying cancellation channel. Each call decrements the
// remaining counter; when it reaches zero the cancel function fires,
// terminating the Lua VM on the next opcode boundary.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// limitOpcodes attaches a fresh opcode budget to L. The returned cancel
// releases the context's resources; callers pair it with L.RemoveContext()
// once the guarded execution finishes.
//
// Precondition: limit > 0.
func limitOpcodes(L *lua.LState, limit int) context.CancelFunc {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	L.SetContext(&countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	})
	return cancel
}

// NewSandboxedState creates a GopherLua LState with:
//   - Only safe stdlib loaded: base, table, string, math
//   - Dangerous globals removed: dofile, loadfile, load, collectgarbage, require
//
// Opcode budgets are attached per invocation via limitOpcodes, not here, so
// a long-lived VM never exhausts its budget across calls.
//
// Postcondition: Returns a non-nil LState. The caller owns the LState and
// must call L.Close() when done.
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Open only safe standard libraries.
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// Strip dangerous globals left by OpenBase.
	for _, name := range []string{"dofile", "loadfile", "load", "collectgarbage", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	return L
}
