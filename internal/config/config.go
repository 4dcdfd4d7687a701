// Package config loads the driver's optional rlc.yaml, the settings that
// shape how a compile is run (optimize level, target, output kind) without
// touching the core compiler API itself, which takes no environment-derived
// configuration at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target names the downstream code generator's instruction set. rlc itself
// never emits machine code; the value is carried through so a CLI driver
// can pass it along to that out-of-process collaborator.
type Target string

const (
	TargetRISCV32 Target = "riscv32"
	TargetRISCV64 Target = "riscv64"
)

// OutputKind selects what a `rlc compile` invocation writes to --out.
type OutputKind string

const (
	OutputIR  OutputKind = "ir"
	OutputAST OutputKind = "ast"
)

// Config is the parsed shape of rlc.yaml.
type Config struct {
	Optimize int        `yaml:"optimize"`
	Target   Target     `yaml:"target"`
	Output   OutputKind `yaml:"output"`
}

// Default returns the settings used when no rlc.yaml is present.
func Default() Config {
	return Config{
		Optimize: 0,
		Target:   TargetRISCV32,
		Output:   OutputIR,
	}
}

// Load reads and parses path. A missing file is not an error: it yields
// Default() so a driver can always call Load unconditionally.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
