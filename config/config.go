// Package config loads the small set of knobs a realm is constructed
// with (spec §6 "Context::new(realm_config)"), mirroring the teacher's
// pkg/fpm/config idiom of a typed struct with built-in defaults,
// optionally overridden from a file on disk.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/wudi/vela/vm"
)

// RealmConfig is the typed configuration a host passes to engine.New.
// Zero value is never used directly; callers get Default() and override
// individual fields, or Load a YAML file that does the same.
type RealmConfig struct {
	// MaxCallDepth bounds nested Run() activations (vm.RuntimeLimits.MaxCallDepth).
	MaxCallDepth int `yaml:"max_call_depth"`
	// MaxStackSlots bounds a single frame's value stack.
	MaxStackSlots int `yaml:"max_stack_slots"`
	// Strict, when true, makes SetMutableBinding refuse to create an
	// implicit global on an unresolved assignment (spec §3.2).
	Strict bool `yaml:"strict"`
	// MicrotaskBudget caps how many queued jobs ExecuteAsync drains per
	// checkpoint before yielding back to the host (spec §5).
	MicrotaskBudget int `yaml:"microtask_budget"`
	// StepBudget caps the total instructions the Vm dispatches across all
	// Execute/ExecuteAsync calls; exceeding it is a RuntimeLimit error.
	// 0 means unbounded (vm.RuntimeLimits.MaxSteps).
	StepBudget uint64 `yaml:"step_budget"`
	// IdleTimeout is loaded and defaulted (5s) with the rest of the
	// config; ExecuteAsync does not read it.
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// Default returns the engine's built-in defaults, scaled for an
// embedded interpreter rather than a request-scoped script engine.
func Default() RealmConfig {
	limits := vm.DefaultLimits()
	return RealmConfig{
		MaxCallDepth:    limits.MaxCallDepth,
		MaxStackSlots:   limits.MaxStackSlots,
		Strict:          false,
		MicrotaskBudget: 1024,
		StepBudget:      limits.MaxSteps,
		IdleTimeout:     5 * time.Second,
	}
}

// Load reads a YAML config file, starting from Default() so an absent
// field keeps its built-in value rather than zeroing out.
func Load(path string) (RealmConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Limits projects the fields vm.RuntimeLimits actually uses.
func (c RealmConfig) Limits() vm.RuntimeLimits {
	return vm.RuntimeLimits{
		MaxCallDepth:  c.MaxCallDepth,
		MaxStackSlots: c.MaxStackSlots,
		MaxSteps:      c.StepBudget,
	}
}
