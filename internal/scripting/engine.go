package scripting

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed builtin/combat.lua
var builtinCombat string

// Engine wraps a single gopher-lua VM for damage rules.
// Single-goroutine access only (scheduler loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine with the built-in rules, then loads every
// .lua file in scriptsDir on top. A missing directory is not an error.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := vm.DoString(builtinCombat); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load builtin scripts: %w", err)
	}
	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk in the engine, e.g. to override a rule in tests.
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// ContactContext describes a damaging contact.
type ContactContext struct {
	BaseDamage   float64
	ImpactSpeed  float64 // |relative velocity along the normal|
	TargetHealth float64
	TargetShield float64
	Piercing     bool
}

// CalcContactDamage calls the Lua calc_contact_damage function.
// Falls back to BaseDamage when the script is missing or fails.
func (e *Engine) CalcContactDamage(ctx ContactContext) float64 {
	t := e.vm.NewTable()
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("impact_speed", lua.LNumber(math.Abs(ctx.ImpactSpeed)))
	t.RawSetString("target_health", lua.LNumber(ctx.TargetHealth))
	t.RawSetString("target_shield", lua.LNumber(ctx.TargetShield))
	t.RawSetString("piercing", lua.LBool(ctx.Piercing))

	v, ok := e.callNumber("calc_contact_damage", t)
	if !ok {
		return ctx.BaseDamage
	}
	return math.Max(v, 0)
}

// CalcExplosionFalloff calls the Lua calc_explosion_falloff function.
// Falls back to full damage inside the radius.
func (e *Engine) CalcExplosionFalloff(damage, radius, distance float64) float64 {
	t := e.vm.NewTable()
	t.RawSetString("damage", lua.LNumber(damage))
	t.RawSetString("radius", lua.LNumber(radius))
	t.RawSetString("distance", lua.LNumber(distance))

	v, ok := e.callNumber("calc_explosion_falloff", t)
	if !ok {
		if distance < radius {
			return damage
		}
		return 0
	}
	return math.Max(v, 0)
}

// callNumber calls a global Lua function with args and reads a numeric result.
func (e *Engine) callNumber(name string, args ...lua.LValue) (float64, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0, false
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua function returned non-number", zap.String("func", name),
			zap.String("type", result.Type().String()))
		return 0, false
	}
	return float64(n), true
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
