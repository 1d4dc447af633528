// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bitfsorg/libforge-go/bonus"
	"github.com/bitfsorg/libforge-go/token"
	"github.com/bitfsorg/libforge-go/u128"
)

// ---------------------------------------------------------------------------
// DefaultConfig tests
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"ListenAddr", cfg.ListenAddr, ":8080"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
		{"Threshold", cfg.Threshold, uint8(144)},
		{"BonusThreshold", cfg.BonusThreshold, uint64(2000)},
		{"BonusIncrement", cfg.BonusIncrement, uint64(1000)},
		{"BonusPoints", cfg.BonusPoints, uint64(10)},
		{"StakeToken", cfg.StakeToken, "2:0"},
		{"ChildFuel", cfg.ChildFuel, uint64(0)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
}

func TestDBPath(t *testing.T) {
	cfg := Config{DataDir: "/srv/forge"}
	want := filepath.Join("/srv/forge", "forge.db")
	if got := cfg.DBPath(); got != want {
		t.Errorf("DBPath = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// SaveConfig / LoadConfig round-trip tests
// ---------------------------------------------------------------------------

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	original := Config{
		DataDir:        "/tmp/test-forge",
		ListenAddr:     ":9000",
		LogLevel:       "debug",
		LogFile:        "/tmp/forge.log",
		Threshold:      200,
		MinStake:       50,
		BonusThreshold: 100,
		BonusIncrement: 25,
		BonusPoints:    3,
		BonusMode:      "per-unit",
		StakeToken:     "2:7",
		ForgeID:        "4:99",
		TemplateID:     "6:100",
		WindowBlocks:   10,
		MaturityBlocks: 20,
		Fuel:           5000,
		ChildFuel:      700,

		BonusMultiplier: 4,
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if loaded != original {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestSaveConfigCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}

func TestSaveConfig_OutputContainsHeaderAndKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# Forge Configuration\n") {
		t.Error("saved config should start with '# Forge Configuration'")
	}
	for _, key := range keys {
		if !strings.Contains(content, "\n"+key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

// ---------------------------------------------------------------------------
// LoadConfig error tests
// ---------------------------------------------------------------------------

func TestLoadConfigNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/path/config")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig nonexistent: got %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigInvalidLine(t *testing.T) {
	for _, content := range []string{"this-is-not-key-value\n", " = value\n"} {
		path := filepath.Join(t.TempDir(), "config")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := LoadConfig(path)
		if !errors.Is(err, ErrInvalidConfigLine) {
			t.Errorf("LoadConfig(%q): got %v, want ErrInvalidConfigLine", content, err)
		}
	}
}

func TestLoadConfigInvalidValue(t *testing.T) {
	tests := []string{
		"threshold = 256\n",
		"threshold = -1\n",
		"minstake = lots\n",
		"windowblocks = 1.5\n",
		"fuel = 18446744073709551616\n",
	}

	for _, content := range tests {
		t.Run(strings.TrimSpace(content), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config")
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := LoadConfig(path)
			if !errors.Is(err, ErrInvalidConfigValue) {
				t.Errorf("got %v, want ErrInvalidConfigValue", err)
			}
		})
	}
}

func TestLoadConfigCommentsAndBlanks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := `# This is a comment
threshold = 120

# Another comment
loglevel = debug
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Threshold != 120 {
		t.Errorf("Threshold = %d, want %d", cfg.Threshold, 120)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	// Unset fields should retain defaults.
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want default %q", cfg.ListenAddr, ":8080")
	}
}

func TestLoadConfigUnknownKeysIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "futurekey = futurevalue\nstaketoken = 2:5\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig with unknown key: %v", err)
	}
	if cfg.StakeToken != "2:5" {
		t.Errorf("StakeToken = %q, want %q", cfg.StakeToken, "2:5")
	}
}

func TestLoadConfig_MultipleEquals(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "logfile=/tmp/a=b.log\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.LogFile != "/tmp/a=b.log" {
		t.Errorf("LogFile = %q, want %q", cfg.LogFile, "/tmp/a=b.log")
	}
}

func TestLoadConfig_WhitespaceAndCase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	content := "  WindowBlocks =  36  \n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.WindowBlocks != 36 {
		t.Errorf("WindowBlocks = %d, want %d", cfg.WindowBlocks, 36)
	}
}

// ---------------------------------------------------------------------------
// ApplyEnv tests
// ---------------------------------------------------------------------------

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("FORGE_LISTEN", ":7070")
	t.Setenv("FORGE_THRESHOLD", "90")
	t.Setenv("FORGE_CHILD_FUEL", "1234")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.ListenAddr != ":7070" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":7070")
	}
	if cfg.Threshold != 90 {
		t.Errorf("Threshold = %d, want 90", cfg.Threshold)
	}
	if cfg.ChildFuel != 1234 {
		t.Errorf("ChildFuel = %d, want 1234", cfg.ChildFuel)
	}
	// Untouched fields keep their value.
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestApplyEnvBonusMode(t *testing.T) {
	t.Setenv("FORGE_BONUS_MODE", "per-unit")
	t.Setenv("FORGE_BONUS_MULTIPLIER", "6")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p.Bonus != bonus.KindPerUnit {
		t.Errorf("Bonus = %s, want per-unit", p.Bonus)
	}
	if got := p.Calculator().Compute(u128.From(10)); got != 60 {
		t.Errorf("Compute(10) = %d, want 60", got)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv("FORGE_THRESHOLD", "300")

	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); !errors.Is(err, ErrInvalidEnv) {
		t.Errorf("ApplyEnv: got %v, want ErrInvalidEnv", err)
	}
}

// ---------------------------------------------------------------------------
// Params tests
// ---------------------------------------------------------------------------

func TestParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChildFuel = 900

	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}

	if p.Threshold != 144 {
		t.Errorf("Threshold = %d, want 144", p.Threshold)
	}
	if p.StakeToken != token.NewID(2, 0) {
		t.Errorf("StakeToken = %s, want 2:0", p.StakeToken)
	}
	if p.Template != token.NewID(6, 1537) {
		t.Errorf("Template = %s, want 6:1537", p.Template)
	}
	if want := u128.From(1000); p.Schedule.Increment != want {
		t.Errorf("Schedule.Increment = %s, want %s", p.Schedule.Increment.Dec(), want.Dec())
	}
	if p.ChildFuel != 900 {
		t.Errorf("ChildFuel = %d, want 900", p.ChildFuel)
	}
}

// ---------------------------------------------------------------------------
// ValidateConfig tests
// ---------------------------------------------------------------------------

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:    "empty_datadir",
			modify:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrEmptyDataDir,
		},
		{
			name:    "bad_listen_addr",
			modify:  func(c *Config) { c.ListenAddr = "not-a-valid-addr" },
			wantErr: ErrInvalidListenAddr,
		},
		{
			name:    "bad_loglevel",
			modify:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "zero_fuel",
			modify:  func(c *Config) { c.Fuel = 0 },
			wantErr: ErrZeroFuel,
		},
		{
			name:    "malformed_stake_token",
			modify:  func(c *Config) { c.StakeToken = "two" },
			wantErr: ErrInvalidTokenID,
		},
		{
			name:    "zero_template",
			modify:  func(c *Config) { c.TemplateID = "0:0" },
			wantErr: ErrInvalidTokenID,
		},
		{
			name:    "forge_is_template",
			modify:  func(c *Config) { c.ForgeID = c.TemplateID },
			wantErr: ErrInvalidTokenID,
		},
		{
			name:    "zero_min_stake",
			modify:  func(c *Config) { c.MinStake = 0 },
			wantErr: ErrInvalidEngine,
		},
		{
			name:    "zero_bonus_increment",
			modify:  func(c *Config) { c.BonusIncrement = 0 },
			wantErr: ErrInvalidEngine,
		},
		{
			name:    "maturity_below_window",
			modify:  func(c *Config) { c.MaturityBlocks = c.WindowBlocks - 1 },
			wantErr: ErrInvalidEngine,
		},
		{
			name:    "unknown_bonus_mode",
			modify:  func(c *Config) { c.BonusMode = "wand" },
			wantErr: ErrInvalidEngine,
		},
		{
			name:    "per_unit_without_multiplier",
			modify:  func(c *Config) { c.BonusMode = "per-unit" },
			wantErr: ErrInvalidEngine,
		},
		{
			name:    "forge_in_account_block",
			modify:  func(c *Config) { c.ForgeID = "1:5" },
			wantErr: ErrInvalidTokenID,
		},
		{
			name:    "zero_window",
			modify:  func(c *Config) { c.WindowBlocks = 0 },
			wantErr: ErrInvalidEngine,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			err := ValidateConfig(cfg)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigValidLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO", "Debug"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("ValidateConfig with loglevel %q: %v", level, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func TestConfigPath(t *testing.T) {
	got := ConfigPath("/home/user/.forge")
	want := filepath.Join("/home/user/.forge", "config")
	if got != want {
		t.Errorf("ConfigPath = %q, want %q", got, want)
	}
}

func TestDefaultDataDir_EndsWith_DotForge(t *testing.T) {
	dir := DefaultDataDir()
	if !strings.HasSuffix(dir, ".forge") {
		t.Errorf("DefaultDataDir() = %q, want suffix %q", dir, ".forge")
	}
}
