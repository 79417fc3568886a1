package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"dataspine-go/infrastructure/logger"
	"dataspine-go/infrastructure/monitor"
)

// EnvPrefix 是所有环境变量覆盖的前缀，例如 DATASPINE_LOG_LEVEL。
const EnvPrefix = "DATASPINE_"

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env        string           `yaml:"env" env:"ENV" validate:"required,oneof=dev test staging prod"`
	Log        logger.Config    `yaml:"log" envPrefix:"LOG_"`
	Metrics    MetricsConfig    `yaml:"metrics" envPrefix:"METRICS_"`
	Validation ValidationConfig `yaml:"validation" envPrefix:"VALIDATION_"`
	Alert      AlertConfig      `yaml:"alert" envPrefix:"ALERT_"`
}

type MetricsConfig struct {
	Enabled        bool   `yaml:"enabled" env:"ENABLED"`
	Addr           string `yaml:"addr" env:"ADDR" validate:"required_if=Enabled true"`
	monitor.Config `yaml:",inline"`
}

// ValidationConfig 批次校验参数
type ValidationConfig struct {
	SymbolsFile       string `yaml:"symbolsFile" env:"SYMBOLS_FILE"`
	StrictReferential bool   `yaml:"strictReferential" env:"STRICT_REFERENTIAL"`
	UniqueKey         string `yaml:"uniqueKey" env:"UNIQUE_KEY" validate:"required"`
	UniqueScope       string `yaml:"uniqueScope" env:"UNIQUE_SCOPE"`
	// FailOnRejected 为 true 时存在被拒记录即视为批次失败
	FailOnRejected bool `yaml:"failOnRejected" env:"FAIL_ON_REJECTED"`
}

type AlertConfig struct {
	Enabled         bool     `yaml:"enabled" env:"ENABLED"`
	ThrottleSeconds int      `yaml:"throttleSeconds" env:"THROTTLE_SECONDS" validate:"gte=0"`
	Channels        []string `yaml:"channels" env:"CHANNELS" envSeparator:"," validate:"dive,oneof=log console"`
}

// Default returns the configuration used when no file is given.
func Default() AppConfig {
	return AppConfig{
		Env: "dev",
		Log: logger.Config{
			Level:   "info",
			Outputs: []string{"stderr"},
			Format:  "json",
		},
		Metrics: MetricsConfig{
			Addr:   ":9108",
			Config: monitor.DefaultConfig(),
		},
		Validation: ValidationConfig{
			UniqueKey:   "trade_id",
			UniqueScope: "client_id",
		},
		Alert: AlertConfig{
			ThrottleSeconds: 300,
			Channels:        []string{"log"},
		},
	}
}

// Load reads YAML config from path over Default and validates it.
func Load(path string) (AppConfig, error) {
	cfg, err := read(path)
	if err != nil {
		return cfg, err
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config, then .env files (default ".env", a
// missing file is ignored), then DATASPINE_* variables on top. An empty
// path skips the YAML step.
func LoadWithEnvOverrides(path string, envFiles ...string) (AppConfig, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = read(path); err != nil {
			return cfg, err
		}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, Validate(cfg)
}

func read(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

// Validate checks struct tags and the cross-field rules.
func Validate(cfg AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return ErrInvalid(fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("validate config: %w", err)
	}
	if cfg.Validation.UniqueScope != "" && cfg.Validation.UniqueScope == cfg.Validation.UniqueKey {
		return ErrInvalid("validation.uniqueScope must differ from uniqueKey")
	}
	if cfg.Alert.Enabled && len(cfg.Alert.Channels) == 0 {
		return ErrInvalid("alert.channels is required when alerts are enabled")
	}
	return nil
}
