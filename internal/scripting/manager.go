package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/effect"
)

// Manager owns one sandboxed LState shared by all monster effect scripts and
// implements effect.ScriptRunner. The mutex serializes invocations; the
// combat resolver is single-threaded per session but independent sessions may
// share one Manager.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	limit  int
	logger *zap.Logger

	// active is the context of the invocation currently on the Lua stack.
	// The effect.* module functions read it; it is nil outside CallEffect.
	active       *effect.Context
	activeDamage int
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager; CallEffect fails until Load.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		limit:  DefaultInstructionLimit,
		logger: logger.Named("scripting"),
	}
}

// Load creates the sandboxed VM, registers the effect.* module, then executes
// every *.lua file in scriptDir in lexicographic order. Calling Load again
// replaces the previous VM.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: VM is ready for CallEffect; returns error on Lua load failure.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L := NewSandboxedState()
	m.registerEffectModule(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		cancel := limitOpcodes(L, limit)
		err := L.DoFile(path)
		cancel()
		L.RemoveContext()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		m.state.Close()
	}
	m.state = L
	m.limit = limit
	m.mu.Unlock()

	m.logger.Info("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
		zap.Int("instruction_limit", limit),
	)
	return nil
}

// Loaded reports whether a VM is ready for CallEffect.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil
}

// CallEffect invokes the named Lua global function for an effect lifecycle
// event. The function receives (event, damage) and acts on the combat state
// through the effect.* module.
//
// Precondition: ctx must be non-nil with Monster, Player, Roller, and Logger set.
// Postcondition: Returns an error if no VM is loaded, fn is undefined, the
// opcode budget is exhausted, or the script raises a Lua error.
func (m *Manager) CallEffect(fn, event string, ctx *effect.Context, damage int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return fmt.Errorf("scripting: no scripts loaded, cannot call %q", fn)
	}

	g := m.state.GetGlobal(fn)
	if g == lua.LNil {
		return fmt.Errorf("scripting: function %q not defined", fn)
	}

	m.active = ctx
	m.activeDamage = damage
	defer func() {
		m.active = nil
		m.activeDamage = 0
	}()

	cancel := limitOpcodes(m.state, m.limit)
	defer func() {
		cancel()
		m.state.RemoveContext()
	}()

	if err := m.state.CallByParam(lua.P{
		Fn:      g,
		NRet:    0,
		Protect: true,
	}, lua.LString(event), lua.LNumber(damage)); err != nil {
		return fmt.Errorf("scripting: %s(%s): %w", fn, event, err)
	}
	return nil
}

// Close releases the VM. The Manager is unusable afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		m.state.Close()
		m.state = nil
	}
}
