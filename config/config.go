// Package config loads the controller's YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/policy"
	"github.com/nstehr/hive/rules"
)

type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	Memory    MemoryConfig    `yaml:"memory"`
	Journal   JournalConfig   `yaml:"journal"`
	Rooms     RoomsConfig     `yaml:"rooms"`
	Planner   PlannerConfig   `yaml:"planner"`
	Stuck     StuckConfig     `yaml:"stuck"`
	Spawn     SpawnConfig     `yaml:"spawn"`
	Rules     []RuleSpec      `yaml:"rules,omitempty"`
	Sim       SimConfig       `yaml:"sim"`
}

type TransportConfig struct {
	Kind   string `yaml:"kind"` // unix | websocket
	Socket string `yaml:"socket"`
	Addr   string `yaml:"addr"`
	Path   string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MemoryConfig struct {
	Kind string `yaml:"kind"` // memory | sqlite
	Path string `yaml:"path"`
}

type JournalConfig struct {
	Dir string `yaml:"dir"` // empty disables the journal
}

type RoomsConfig struct {
	CacheTTL int `yaml:"cache_ttl"`
}

type PlannerConfig struct {
	MaxOps int `yaml:"max_ops"`
}

// StuckConfig bounds retries: after Limit consecutive path failures toward a
// node, the unit ignores that node for AvoidTicks ticks.
type StuckConfig struct {
	Limit      int `yaml:"limit"`
	AvoidTicks int `yaml:"avoid_ticks"`
}

type SpawnConfig struct {
	MaxUnits int         `yaml:"max_units"`
	Body     []string    `yaml:"body"`
	Quotas   []QuotaSpec `yaml:"quotas"`
}

type QuotaSpec struct {
	Role  string `yaml:"role"`
	Count int    `yaml:"count"`
}

type RuleSpec struct {
	Name      string `yaml:"name"`
	Priority  int    `yaml:"priority"`
	Category  string `yaml:"category"`
	Exclusive bool   `yaml:"exclusive"`
	Condition string `yaml:"condition"`
	Action    string `yaml:"action"`
}

type SimConfig struct {
	Seed    int64  `yaml:"seed"`
	Ticks   int    `yaml:"ticks"`
	Room    string `yaml:"room"`
	Sources int    `yaml:"sources"`
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		Transport: TransportConfig{Kind: "unix", Socket: "/tmp/hive.sock", Addr: "127.0.0.1:21025", Path: "/ws"},
		Log:       LogConfig{Level: "info"},
		Memory:    MemoryConfig{Kind: "memory"},
		Rooms:     RoomsConfig{CacheTTL: 100},
		Planner:   PlannerConfig{MaxOps: 2000},
		Stuck:     StuckConfig{Limit: 3, AvoidTicks: 50},
		Spawn: SpawnConfig{
			MaxUnits: 5,
			Body:     []string{"move", "move", "carry", "work"},
			Quotas: []QuotaSpec{
				{Role: "gatherer", Count: 2},
				{Role: "hauler", Count: 1},
			},
		},
		Sim: SimConfig{Seed: 1, Ticks: 500, Room: "W1N1", Sources: 2},
	}
}

// Normalize fills zero values left by a partial file.
func (c *Config) Normalize() {
	d := Defaults()
	c.Transport.Kind = strings.ToLower(strings.TrimSpace(c.Transport.Kind))
	if c.Transport.Kind == "" {
		c.Transport.Kind = d.Transport.Kind
	}
	if c.Transport.Path == "" {
		c.Transport.Path = d.Transport.Path
	}
	c.Memory.Kind = strings.ToLower(strings.TrimSpace(c.Memory.Kind))
	if c.Memory.Kind == "" {
		c.Memory.Kind = d.Memory.Kind
	}
	if c.Rooms.CacheTTL <= 0 {
		c.Rooms.CacheTTL = d.Rooms.CacheTTL
	}
	if c.Planner.MaxOps <= 0 {
		c.Planner.MaxOps = d.Planner.MaxOps
	}
	if c.Stuck.Limit <= 0 {
		c.Stuck.Limit = d.Stuck.Limit
	}
	if c.Stuck.AvoidTicks <= 0 {
		c.Stuck.AvoidTicks = d.Stuck.AvoidTicks
	}
	if c.Spawn.MaxUnits <= 0 {
		c.Spawn.MaxUnits = d.Spawn.MaxUnits
	}
	if len(c.Spawn.Body) == 0 {
		c.Spawn.Body = d.Spawn.Body
	}
	if c.Sim.Room == "" {
		c.Sim.Room = d.Sim.Room
	}
}

func (c Config) Validate() error {
	switch c.Transport.Kind {
	case "unix":
		if c.Transport.Socket == "" {
			return fmt.Errorf("transport.socket is required for unix transport")
		}
	case "websocket":
		if c.Transport.Addr == "" {
			return fmt.Errorf("transport.addr is required for websocket transport")
		}
	default:
		return fmt.Errorf("transport.kind %q: want unix or websocket", c.Transport.Kind)
	}
	switch c.Memory.Kind {
	case "memory":
	case "sqlite":
		if c.Memory.Path == "" {
			return fmt.Errorf("memory.path is required for sqlite memory")
		}
	default:
		return fmt.Errorf("memory.kind %q: want memory or sqlite", c.Memory.Kind)
	}
	if _, err := c.BodyParts(); err != nil {
		return err
	}
	for _, q := range c.Spawn.Quotas {
		if _, ok := policy.ParseRole(q.Role); !ok {
			return fmt.Errorf("spawn.quotas: unknown role %q", q.Role)
		}
	}
	rs, err := c.RuleSet()
	if err != nil {
		return err
	}
	if _, err := rules.NewEngine(rs); err != nil {
		return err
	}
	return nil
}

func (c Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func (c Config) BodyParts() ([]model.Part, error) {
	parts := make([]model.Part, 0, len(c.Spawn.Body))
	for _, s := range c.Spawn.Body {
		p := model.Part(strings.ToLower(s))
		if !p.Valid() {
			return nil, fmt.Errorf("spawn.body: unknown part %q", s)
		}
		parts = append(parts, p)
	}
	return parts, nil
}

func (c Config) ColonyPlan() rules.ColonyPlan {
	plan := rules.ColonyPlan{MaxUnits: c.Spawn.MaxUnits}
	for _, q := range c.Spawn.Quotas {
		role, ok := policy.ParseRole(q.Role)
		if !ok {
			continue
		}
		plan.Quotas = append(plan.Quotas, rules.Quota{Role: role, Count: q.Count})
	}
	return plan
}

// RuleSet returns the configured rules followed by the compiled colony plan.
func (c Config) RuleSet() ([]*rules.Rule, error) {
	specs := make([]rules.Spec, len(c.Rules))
	for i, r := range c.Rules {
		specs[i] = rules.Spec(r)
	}
	extra, err := rules.CompileSpecs(specs)
	if err != nil {
		return nil, err
	}
	return append(extra, rules.CompileColony(c.ColonyPlan())...), nil
}
