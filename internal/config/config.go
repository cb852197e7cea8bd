// Package config provides Viper-based configuration loading for the
// simulation tools.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cory-johannsen/delve/internal/game/session"
)

// DatabaseConfig holds PostgreSQL connection settings for the lifetime
// statistics store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// ContentConfig holds the content directory paths.
type ContentConfig struct {
	WeaponsDir  string `mapstructure:"weapons_dir"`
	ItemsDir    string `mapstructure:"items_dir"`
	MonstersDir string `mapstructure:"monsters_dir"`
	ScriptsDir  string `mapstructure:"scripts_dir"`
}

// SimConfig holds the batch simulation settings.
type SimConfig struct {
	// Runs is the number of seeded sessions to play.
	Runs int `mapstructure:"runs"`
	// Workers is the number of concurrent session workers.
	Workers int `mapstructure:"workers"`
	// MaxSteps caps the commands issued per session.
	MaxSteps int `mapstructure:"max_steps"`
	// Record enables writing run results to the database.
	Record bool `mapstructure:"record"`
}

// Config is the top-level application configuration.
type Config struct {
	Game     session.Config `mapstructure:"game"`
	Content  ContentConfig  `mapstructure:"content"`
	Sim      SimConfig      `mapstructure:"sim"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSim(c.Sim); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g session.Config) error {
	var errs []string
	if g.PlayerName == "" {
		errs = append(errs, "game.player_name must not be empty")
	}
	if g.ItemSlots < 1 {
		errs = append(errs, fmt.Sprintf("game.item_slots must be >= 1, got %d", g.ItemSlots))
	}
	if g.WeaponSlots < 1 {
		errs = append(errs, fmt.Sprintf("game.weapon_slots must be >= 1, got %d", g.WeaponSlots))
	}
	if g.Player.MaxHP < 1 {
		errs = append(errs, fmt.Sprintf("game.player.max_hp must be >= 1, got %d", g.Player.MaxHP))
	}
	if g.Player.XPRequired < 1 {
		errs = append(errs, fmt.Sprintf("game.player.xp_required must be >= 1, got %d", g.Player.XPRequired))
	}
	if g.Player.RoomsRequired < 1 {
		errs = append(errs, fmt.Sprintf("game.player.rooms_required must be >= 1, got %d", g.Player.RoomsRequired))
	}
	if g.Player.SilverThreshold < 1 {
		errs = append(errs, fmt.Sprintf("game.player.silver_threshold must be >= 1, got %d", g.Player.SilverThreshold))
	}
	if g.Player.VictoryLevel < 2 {
		errs = append(errs, fmt.Sprintf("game.player.victory_level must be >= 2, got %d", g.Player.VictoryLevel))
	}
	if g.Encounter.TrapBase < 0 {
		errs = append(errs, fmt.Sprintf("game.encounter.trap_base must be >= 0, got %d", g.Encounter.TrapBase))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.WeaponsDir == "" {
		errs = append(errs, "content.weapons_dir must not be empty")
	}
	if c.ItemsDir == "" {
		errs = append(errs, "content.items_dir must not be empty")
	}
	if c.MonstersDir == "" {
		errs = append(errs, "content.monsters_dir must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSim(s SimConfig) error {
	var errs []string
	if s.Runs < 1 {
		errs = append(errs, fmt.Sprintf("sim.runs must be >= 1, got %d", s.Runs))
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Sprintf("sim.workers must be >= 1, got %d", s.Workers))
	}
	if s.MaxSteps < 1 {
		errs = append(errs, fmt.Sprintf("sim.max_steps must be >= 1, got %d", s.MaxSteps))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with DELVE_ prefix
	v.SetEnvPrefix("DELVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.player_name", "Delver")
	v.SetDefault("game.item_slots", 10)
	v.SetDefault("game.weapon_slots", 2)
	v.SetDefault("game.player.max_hp", 15)
	v.SetDefault("game.player.xp_required", 10)
	v.SetDefault("game.player.rooms_required", 8)
	v.SetDefault("game.player.silver_threshold", 40)
	v.SetDefault("game.player.victory_level", 10)
	v.SetDefault("game.player.heal_item_id", "healing_potion")
	v.SetDefault("game.player.heal_item_count", 5)
	v.SetDefault("game.encounter.trap_base", 4)
	v.SetDefault("game.encounter.riddle_silver", 10)
	v.SetDefault("game.encounter.riddle_xp", 5)

	v.SetDefault("content.weapons_dir", "content/weapons")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.monsters_dir", "content/monsters")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("sim.runs", 100)
	v.SetDefault("sim.workers", 4)
	v.SetDefault("sim.max_steps", 2000)
	v.SetDefault("sim.record", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "delve")
	v.SetDefault("database.password", "delve")
	v.SetDefault("database.name", "delve")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
