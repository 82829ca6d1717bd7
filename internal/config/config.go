// Package config loads runtime settings from MAPCLAIM_* environment
// variables and builds the logger and game options from them.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/Garsondee/mapclaim/internal/game"
	"github.com/Garsondee/mapclaim/internal/rolltable"
)

// MaxTolerance covers the largest RGB distance, sqrt(3*255*255) ≈ 441.7.
const MaxTolerance = 442

// Config holds every tunable.
type Config struct {
	GameName      string `env:"GAME_NAME" envDefault:"Untitled Game"`
	Tolerance     int    `env:"TOLERANCE" envDefault:"0"`
	MaxPixels     int    `env:"MAX_PIXELS" envDefault:"4000000"`
	UndoDepth     int    `env:"UNDO_DEPTH" envDefault:"20"`
	RollMode      string `env:"ROLL_MODE" envDefault:"application"`
	BudgetCharge  string `env:"BUDGET_CHARGE" envDefault:"gesture"`
	FortifyCost   string `env:"FORTIFY_COST" envDefault:"0"`
	RecaptureCost string `env:"RECAPTURE_COST" envDefault:"Fortified ? 2 : 1"`
	RollTablePath string `env:"ROLL_TABLE"`
	RollScript    string `env:"ROLL_SCRIPT"`
	FrameMS       int    `env:"FRAME_MS" envDefault:"500"`
	ArchivePath   string `env:"ARCHIVE_PATH"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"console"`
	Seed          int64  `env:"SEED" envDefault:"0"`
}

// Load parses the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "MAPCLAIM_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and ranged values.
func (c Config) Validate() error {
	if c.Tolerance < 0 || c.Tolerance > MaxTolerance {
		return fmt.Errorf("tolerance %d outside 0..%d", c.Tolerance, MaxTolerance)
	}
	if _, err := game.ParseBudgetSource(c.RollMode); err != nil {
		return err
	}
	if _, err := game.ParseChargePolicy(c.BudgetCharge); err != nil {
		return err
	}
	if c.FrameMS <= 0 {
		return fmt.Errorf("frame duration must be positive, got %dms", c.FrameMS)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// FrameDelay is the replay frame duration.
func (c Config) FrameDelay() time.Duration {
	return time.Duration(c.FrameMS) * time.Millisecond
}

// Logger builds a zap logger: console format is the development encoder,
// json the production one.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	if strings.EqualFold(c.LogFormat, "json") {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}

// RollTable reads ROLL_TABLE, or returns the default table when unset.
func (c Config) RollTable() (*rolltable.Table, error) {
	if c.RollTablePath == "" {
		return rolltable.DefaultTable(), nil
	}
	data, err := os.ReadFile(c.RollTablePath)
	if err != nil {
		return nil, fmt.Errorf("roll table: %w", err)
	}
	return rolltable.Parse(data)
}

// Oracle picks the budget formula: ROLL_SCRIPT wins over the table.
func (c Config) Oracle(table *rolltable.Table) (game.TileBudgetOracle, error) {
	if c.RollScript == "" {
		return table, nil
	}
	src, err := os.ReadFile(c.RollScript)
	if err != nil {
		return nil, fmt.Errorf("roll script: %w", err)
	}
	return rolltable.NewScriptOracle(string(src), c.RollScript, table)
}

// GameOptions converts the config into session options. Callers fill in
// Oracle, Sink and Logger.
func (c Config) GameOptions() (game.Options, error) {
	src, err := game.ParseBudgetSource(c.RollMode)
	if err != nil {
		return game.Options{}, err
	}
	charge, err := game.ParseChargePolicy(c.BudgetCharge)
	if err != nil {
		return game.Options{}, err
	}
	return game.Options{
		Name:          c.GameName,
		Tolerance:     c.Tolerance,
		MaxPixels:     c.MaxPixels,
		UndoDepth:     c.UndoDepth,
		BudgetSource:  src,
		Charge:        charge,
		FortifyCost:   c.FortifyCost,
		RecaptureCost: c.RecaptureCost,
		Roller:        rolltable.NewRoller(c.Seed),
	}, nil
}
