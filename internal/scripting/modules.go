package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/delve/internal/game/dice"
)

// registerEffectModule installs the effect global table into L. Every
// function reads the Manager's active invocation context; calls made outside
// an effect dispatch are no-ops that return zero values.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: effect global is defined in L.
func (m *Manager) registerEffectModule(L *lua.LState) {
	mod := L.NewTable()

	register := func(name string, fn lua.LGFunction) {
		L.SetField(mod, name, L.NewFunction(fn))
	}

	register("monster_name", func(L *lua.LState) int {
		if m.active == nil {
			L.Push(lua.LString(""))
			return 1
		}
		L.Push(lua.LString(m.active.Monster.Name()))
		return 1
	})

	register("monster_hp", func(L *lua.LState) int {
		if m.active == nil {
			L.Push(lua.LNumber(0))
			L.Push(lua.LNumber(0))
			return 2
		}
		cur, max := m.active.Monster.Health()
		L.Push(lua.LNumber(cur))
		L.Push(lua.LNumber(max))
		return 2
	})

	register("round", func(L *lua.LState) int {
		if m.active == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.active.Round))
		return 1
	})

	register("heal_monster", func(L *lua.LState) int {
		n := int(L.CheckNumber(1))
		if m.active == nil || n <= 0 {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.active.Monster.Heal(n)))
		return 1
	})

	register("wound_player", func(L *lua.LState) int {
		n := int(L.CheckNumber(1))
		if m.active == nil || n <= 0 {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.active.Player.Wound(n)))
		return 1
	})

	register("steal_silver", func(L *lua.LState) int {
		n := int(L.CheckNumber(1))
		if m.active == nil || n <= 0 {
			L.Push(lua.LNumber(0))
			return 1
		}
		L.Push(lua.LNumber(m.active.Player.StealSilver(n)))
		return 1
	})

	register("gain_silver", func(L *lua.LState) int {
		n := int(L.CheckNumber(1))
		if m.active != nil && n > 0 {
			m.active.Player.GainSilver(n)
		}
		return 0
	})

	register("kill_player", func(L *lua.LState) int {
		cause := L.OptString(1, "a scripted curse")
		if m.active != nil {
			m.active.Player.Kill(cause)
		}
		return 0
	})

	register("force_levelup", func(L *lua.LState) int {
		if m.active != nil {
			m.active.Player.ForceLevelUp()
		}
		return 0
	})

	register("grant_item", func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.active != nil {
			m.active.Player.GrantItem(id)
		}
		return 0
	})

	register("grant_weapon", func(L *lua.LState) int {
		tier := L.CheckString(1)
		if m.active != nil {
			m.active.Player.GrantRandomWeapon(tier)
		}
		return 0
	})

	register("roll", func(L *lua.LState) int {
		expr := L.CheckString(1)
		if m.active == nil {
			L.Push(lua.LNumber(0))
			return 1
		}
		f, err := dice.Parse(expr)
		if err != nil {
			L.RaiseError("invalid dice expression %q: %v", expr, err)
			return 0
		}
		L.Push(lua.LNumber(m.active.Roller.Roll(f)))
		return 1
	})

	register("damage", func(L *lua.LState) int {
		L.Push(lua.LNumber(m.activeDamage))
		return 1
	})

	register("log", func(L *lua.LState) int {
		msg := L.CheckString(1)
		logger := m.logger
		if m.active != nil && m.active.Logger != nil {
			logger = m.active.Logger
		}
		logger.Info("script log", zap.String("message", msg))
		return 0
	})

	L.SetGlobal("effect", mod)
}
