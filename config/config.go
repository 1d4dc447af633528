// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads the operator configuration: where state lives,
// how the HTTP API listens, logging, and the forge engine parameters.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitfsorg/libforge-go/bonus"
	"github.com/bitfsorg/libforge-go/forge"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
	"github.com/caarlos0/env/v11"
)

// Config holds operator and engine settings. Environment variables named in
// the env tags override file values when ApplyEnv is called.
type Config struct {
	DataDir    string `env:"FORGE_DATADIR"`
	ListenAddr string `env:"FORGE_LISTEN"`
	LogLevel   string `env:"FORGE_LOGLEVEL"`
	LogFile    string `env:"FORGE_LOGFILE"`

	Threshold      uint8  `env:"FORGE_THRESHOLD"`
	MinStake       uint64 `env:"FORGE_MIN_STAKE"`
	BonusThreshold uint64 `env:"FORGE_BONUS_THRESHOLD"`
	BonusIncrement uint64 `env:"FORGE_BONUS_INCREMENT"`
	BonusPoints    uint64 `env:"FORGE_BONUS_POINTS"`
	StakeToken     string `env:"FORGE_STAKE_TOKEN"`
	ForgeID        string `env:"FORGE_ID"`
	TemplateID     string `env:"FORGE_TEMPLATE_ID"`
	WindowBlocks   uint64 `env:"FORGE_WINDOW_BLOCKS"`
	MaturityBlocks uint64 `env:"FORGE_MATURITY_BLOCKS"`
	Fuel           uint64 `env:"FORGE_FUEL"`
	ChildFuel      uint64 `env:"FORGE_CHILD_FUEL"`

	// BonusMode is "schedule" or "per-unit"; per-unit grants
	// BonusMultiplier points per staked unit.
	BonusMode       string `env:"FORGE_BONUS_MODE"`
	BonusMultiplier uint64 `env:"FORGE_BONUS_MULTIPLIER"`
}

// DefaultDataDir returns ~/.forge, or .forge when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".forge"
	}
	return filepath.Join(home, ".forge")
}

// ConfigPath returns the config file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// DBPath returns the state database path inside the data directory.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "forge.db")
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		DataDir:        DefaultDataDir(),
		ListenAddr:     ":8080",
		LogLevel:       "info",
		Threshold:      144,
		MinStake:       1,
		BonusThreshold: 2000,
		BonusIncrement: 1000,
		BonusPoints:    10,
		BonusMode:      bonus.KindSchedule.String(),
		StakeToken:     "2:0",
		ForgeID:        "4:1024",
		TemplateID:     "6:1537",
		WindowBlocks:   144,
		MaturityBlocks: 144,
		Fuel:           100_000,
	}
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(p func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func uintField(p func(c *Config) *uint64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatUint(*p(c), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return err
			}
			*p(c) = n
			return nil
		},
	}
}

// keys lists the file keys in the order SaveConfig writes them.
var keys = []string{
	"datadir", "listen", "loglevel", "logfile",
	"threshold", "minstake", "bonusthreshold", "bonusincrement", "bonuspoints",
	"bonusmode", "bonusmultiplier",
	"staketoken", "forgeid", "templateid", "windowblocks", "maturityblocks",
	"fuel", "childfuel",
}

var fields = map[string]field{
	"datadir":  stringField(func(c *Config) *string { return &c.DataDir }),
	"listen":   stringField(func(c *Config) *string { return &c.ListenAddr }),
	"loglevel": stringField(func(c *Config) *string { return &c.LogLevel }),
	"logfile":  stringField(func(c *Config) *string { return &c.LogFile }),
	"threshold": {
		get: func(c *Config) string { return strconv.FormatUint(uint64(c.Threshold), 10) },
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil {
				return err
			}
			c.Threshold = uint8(n)
			return nil
		},
	},
	"minstake":        uintField(func(c *Config) *uint64 { return &c.MinStake }),
	"bonusthreshold":  uintField(func(c *Config) *uint64 { return &c.BonusThreshold }),
	"bonusincrement":  uintField(func(c *Config) *uint64 { return &c.BonusIncrement }),
	"bonuspoints":     uintField(func(c *Config) *uint64 { return &c.BonusPoints }),
	"bonusmode":       stringField(func(c *Config) *string { return &c.BonusMode }),
	"bonusmultiplier": uintField(func(c *Config) *uint64 { return &c.BonusMultiplier }),
	"staketoken":      stringField(func(c *Config) *string { return &c.StakeToken }),
	"forgeid":         stringField(func(c *Config) *string { return &c.ForgeID }),
	"templateid":      stringField(func(c *Config) *string { return &c.TemplateID }),
	"windowblocks":    uintField(func(c *Config) *uint64 { return &c.WindowBlocks }),
	"maturityblocks":  uintField(func(c *Config) *uint64 { return &c.MaturityBlocks }),
	"fuel":            uintField(func(c *Config) *uint64 { return &c.Fuel }),
	"childfuel":       uintField(func(c *Config) *uint64 { return &c.ChildFuel }),
}

// LoadConfig reads a "key = value" file over DefaultConfig. Blank lines and
// lines starting with '#' are skipped; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return Config{}, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		fd, ok := fields[key]
		if !ok {
			continue
		}
		if err := fd.set(&cfg, value); err != nil {
			return Config{}, fmt.Errorf("%w: line %d: %s: %w", ErrInvalidConfigValue, lineNo, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// parseKeyValue splits a line on its first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	var b strings.Builder
	b.WriteString("# Forge Configuration\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, fields[k].get(&cfg))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any FORGE_* environment variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnv, err)
	}
	return nil
}

// IDs returns the parsed forge, template and stake token ids.
func (c Config) IDs() (forgeID, templateID, stakeToken token.ID, err error) {
	parse := func(name, s string) (token.ID, error) {
		id, err := token.ParseID(s)
		if err != nil || id.IsZero() {
			return token.ID{}, fmt.Errorf("%w: %s %q", ErrInvalidTokenID, name, s)
		}
		return id, nil
	}
	if forgeID, err = parse("forgeid", c.ForgeID); err != nil {
		return
	}
	if templateID, err = parse("templateid", c.TemplateID); err != nil {
		return
	}
	stakeToken, err = parse("staketoken", c.StakeToken)
	return
}

// Params converts the engine settings to forge parameters.
func (c Config) Params() (forge.Params, error) {
	_, templateID, stakeToken, err := c.IDs()
	if err != nil {
		return forge.Params{}, err
	}
	kind, err := bonus.ParseKind(strings.ToLower(c.BonusMode))
	if err != nil {
		return forge.Params{}, fmt.Errorf("%w: %w", ErrInvalidEngine, err)
	}
	p := forge.Params{
		Threshold: c.Threshold,
		MinStake:  u128.From(c.MinStake),
		Schedule: bonus.Schedule{
			Threshold: u128.From(c.BonusThreshold),
			Increment: u128.From(c.BonusIncrement),
			Points:    u128.From(c.BonusPoints),
		},
		Bonus:          kind,
		Multiplier:     u128.From(c.BonusMultiplier),
		StakeToken:     stakeToken,
		Template:       templateID,
		WindowBlocks:   c.WindowBlocks,
		MaturityBlocks: c.MaturityBlocks,
		ChildFuel:      c.ChildFuel,
	}
	if err := p.Validate(); err != nil {
		return forge.Params{}, fmt.Errorf("%w: %w", ErrInvalidEngine, err)
	}
	return p, nil
}
