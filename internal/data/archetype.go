package data

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed archetypes.yaml
var builtinArchetypes []byte

// PhysicsSpec is the archetype form of component.Physics.
type PhysicsSpec struct {
	Mass      float64 `yaml:"mass"`
	Drag      float64 `yaml:"drag"`
	Radius    float64 `yaml:"radius"`
	Kinematic bool    `yaml:"kinematic"`
}

type HealthSpec struct {
	Max    float64 `yaml:"max"`
	Shield float64 `yaml:"shield"`
}

type WeaponSpec struct {
	Damage          float64       `yaml:"damage"`
	FireInterval    time.Duration `yaml:"fire_interval"`
	ProjectileSpeed float64       `yaml:"projectile_speed"`
	ProjectileTTL   time.Duration `yaml:"projectile_ttl"`
	Range           float64       `yaml:"range"`
	Projectile      string        `yaml:"projectile"` // archetype fired
}

type AISpec struct {
	AggroRange      float64       `yaml:"aggro_range"`
	AttackRange     float64       `yaml:"attack_range"`
	FleeHealthRatio float64       `yaml:"flee_health_ratio"`
	Speed           float64       `yaml:"speed"`
	ThinkInterval   time.Duration `yaml:"think_interval"`
}

type ProjectileSpec struct {
	Damage   float64       `yaml:"damage"`
	TTL      time.Duration `yaml:"ttl"`
	Piercing bool          `yaml:"piercing"`
}

type PowerUpSpec struct {
	Kind   string        `yaml:"kind"` // heal, shield, rapid_fire
	Amount float64       `yaml:"amount"`
	TTL    time.Duration `yaml:"ttl"`
}

type ExplosionSpec struct {
	Radius float64       `yaml:"radius"`
	Damage float64       `yaml:"damage"`
	TTL    time.Duration `yaml:"ttl"`
}

type RenderSpec struct {
	Sprite string `yaml:"sprite"`
	Layer  int    `yaml:"layer"`
	Tint   uint32 `yaml:"tint"`
}

// Archetype is a template the factory instantiates. Nil sections mean the
// component is not attached.
type Archetype struct {
	Name       string          `yaml:"name"`
	Kind       string          `yaml:"kind"` // player, enemy, projectile, powerup, explosion
	Render     RenderSpec      `yaml:"render"`
	Physics    *PhysicsSpec    `yaml:"physics"`
	Health     *HealthSpec     `yaml:"health"`
	Weapon     *WeaponSpec     `yaml:"weapon"`
	AI         *AISpec         `yaml:"ai"`
	Projectile *ProjectileSpec `yaml:"projectile"`
	PowerUp    *PowerUpSpec    `yaml:"powerup"`
	Explosion  *ExplosionSpec  `yaml:"explosion"`
}

type archetypeFile struct {
	Archetypes []Archetype `yaml:"archetypes"`
}

// ArchetypeTable holds archetypes indexed by name.
type ArchetypeTable struct {
	byName map[string]*Archetype
}

// Get returns the archetype with the given name.
func (t *ArchetypeTable) Get(name string) (*Archetype, bool) {
	a, ok := t.byName[name]
	return a, ok
}

// Count returns the number of archetypes.
func (t *ArchetypeTable) Count() int {
	return len(t.byName)
}

// LoadArchetypeTable reads archetypes from a YAML file. An empty path loads
// the built-in table.
func LoadArchetypeTable(path string) (*ArchetypeTable, error) {
	if path == "" {
		return ParseArchetypeTable(builtinArchetypes)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read archetypes: %w", err)
	}
	return ParseArchetypeTable(raw)
}

func ParseArchetypeTable(raw []byte) (*ArchetypeTable, error) {
	var f archetypeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse archetypes: %w", err)
	}
	t := &ArchetypeTable{byName: make(map[string]*Archetype, len(f.Archetypes))}
	for i := range f.Archetypes {
		a := &f.Archetypes[i]
		if a.Name == "" {
			return nil, fmt.Errorf("archetype %d: missing name", i)
		}
		if _, dup := t.byName[a.Name]; dup {
			return nil, fmt.Errorf("archetype %q: duplicate name", a.Name)
		}
		if err := a.validate(); err != nil {
			return nil, fmt.Errorf("archetype %q: %w", a.Name, err)
		}
		t.byName[a.Name] = a
	}
	return t, nil
}

func (a *Archetype) validate() error {
	switch a.Kind {
	case "player", "enemy", "projectile", "powerup", "explosion":
	default:
		return fmt.Errorf("unknown kind %q", a.Kind)
	}
	if a.Physics != nil && a.Physics.Radius < 0 {
		return fmt.Errorf("negative radius %v", a.Physics.Radius)
	}
	if a.Kind == "powerup" && a.PowerUp == nil {
		return fmt.Errorf("powerup archetype without powerup section")
	}
	if a.Kind == "projectile" && a.Projectile == nil {
		return fmt.Errorf("projectile archetype without projectile section")
	}
	if a.Kind == "explosion" && a.Explosion == nil {
		return fmt.Errorf("explosion archetype without explosion section")
	}
	return nil
}
