// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

type Config struct {
	Game    GameConfig    `mapstructure:"game"`
	Storage StorageConfig `mapstructure:"storage"`
	API     APIConfig     `mapstructure:"api"`
	Log     LogConfig     `mapstructure:"log"`
}

type GameConfig struct {
	ProgramID        string `mapstructure:"program_id"`
	Owner            string `mapstructure:"owner"`
	Authority        string `mapstructure:"authority"`
	RentReserve      uint64 `mapstructure:"rent_reserve"`
	PremarketGate    string `mapstructure:"premarket_gate"`
	BonusComposition string `mapstructure:"bonus_composition"`
	EventBuffer      int    `mapstructure:"event_buffer"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	PostgresURL string `mapstructure:"postgres_url"`
	OpenRetries int    `mapstructure:"open_retries"`
}

type APIConfig struct {
	Listen       string        `mapstructure:"listen"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	File        string `mapstructure:"file"`
	MaxSize     int    `mapstructure:"max_size"`
	MaxAge      int    `mapstructure:"max_age"`
	MaxBackups  int    `mapstructure:"max_backups"`
	Compress    bool   `mapstructure:"compress"`
	Development bool   `mapstructure:"development"`
}

const (
	DefaultProgramID   = "23BCUPpfPkfCu6bmPCaLgyTR8UkruWeUnEyeC5shr1mp"
	DefaultOwner       = "CdKqXMm7QDjMwfFR3GgWTRQE7x39BFbiLm8KWC4TibzR"
	DefaultRentReserve = 2_039_280
	DefaultEventBuffer = 256
	DefaultOpenRetries = 5
	DefaultListen      = "127.0.0.1:8080"

	DriverMemory  = "memory"
	DriverLevelDB = "leveldb"
)

const envPrefix = "SHRIMP"

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"game.program_id":        DefaultProgramID,
		"game.owner":             DefaultOwner,
		"game.authority":         "",
		"game.rent_reserve":      DefaultRentReserve,
		"game.premarket_gate":    "authority",
		"game.bonus_composition": "exclusive",
		"game.event_buffer":      DefaultEventBuffer,
		"storage.driver":         DriverLevelDB,
		"storage.path":           "data/shrimp.db",
		"storage.postgres_url":   "",
		"storage.open_retries":   DefaultOpenRetries,
		"api.listen":             DefaultListen,
		"api.read_timeout":       "5s",
		"api.write_timeout":      "10s",
		"log.file":               "logs/shrimpd.log",
		"log.max_size":           100,
		"log.max_age":            7,
		"log.max_backups":        3,
		"log.compress":           true,
		"log.development":        false,
	}
}

// LoadConfig reads path (YAML, TOML or JSON by extension). An empty path
// loads defaults and environment overrides only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	loadEnvironmentVariables(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if err := validateKey(cfg.Game.ProgramID, "game.program_id", false); err != nil {
		return err
	}
	if err := validateKey(cfg.Game.Owner, "game.owner", false); err != nil {
		return err
	}
	if err := validateKey(cfg.Game.Authority, "game.authority", true); err != nil {
		return err
	}
	switch cfg.Game.PremarketGate {
	case "authority", "timestamp":
	default:
		return errors.New("game.premarket_gate must be authority or timestamp")
	}
	switch cfg.Game.BonusComposition {
	case "exclusive", "additive":
	default:
		return errors.New("game.bonus_composition must be exclusive or additive")
	}
	if cfg.Game.EventBuffer <= 0 {
		return errors.New("invalid game.event_buffer")
	}

	switch cfg.Storage.Driver {
	case DriverMemory:
	case DriverLevelDB:
		if cfg.Storage.Path == "" {
			return errors.New("storage.path is required for leveldb")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}
	if cfg.Storage.OpenRetries < 0 {
		return errors.New("invalid storage.open_retries")
	}
	if cfg.Storage.PostgresURL != "" {
		if err := validateURL(cfg.Storage.PostgresURL, "postgres"); err != nil {
			return fmt.Errorf("storage.postgres_url: %w", err)
		}
	}

	if cfg.API.Listen == "" {
		return errors.New("api.listen is empty")
	}
	if cfg.API.ReadTimeout <= 0 || cfg.API.WriteTimeout <= 0 {
		return errors.New("invalid api timeouts")
	}

	if cfg.Log.MaxSize <= 0 || cfg.Log.MaxAge < 0 || cfg.Log.MaxBackups < 0 {
		return errors.New("invalid log rotation settings")
	}
	return nil
}

func validateKey(raw, field string, optional bool) error {
	if raw == "" && optional {
		return nil
	}
	if _, err := solana.PublicKeyFromBase58(raw); err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// loadEnvironmentVariables maps SHRIMP_GAME_OWNER to game.owner and so on.
func loadEnvironmentVariables(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// MustKey parses a key already checked by validateConfig.
func MustKey(raw string) solana.PublicKey {
	if raw == "" {
		return solana.PublicKey{}
	}
	return solana.MustPublicKeyFromBase58(raw)
}
