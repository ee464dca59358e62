package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all engine configuration.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Validator ValidatorConfig `mapstructure:"validator"`
}

// EngineConfig contains rule evaluation tunables.
// Respects decimal.DivisionPrecision's package default where appropriate.
type EngineConfig struct {
	DecimalScale       int32 `mapstructure:"decimal_scale"`        // fractional digits kept by arithmetic ops, default 10
	MaxLoopIterations  int   `mapstructure:"max_loop_iterations"`  // default 1000; not read, loops are capped by rules.MaxLoopIterations
	EvaluationTimeout  int   `mapstructure:"evaluation_timeout"`   // milliseconds, NO stdlib default!
	RESTCallTimeout    int   `mapstructure:"rest_call_timeout"`    // milliseconds, default 5000 (restbridge.DefaultTimeout)
	ASTCacheTTL        int   `mapstructure:"ast_cache_ttl"`        // seconds, 0 means never expire
	ConstantsCacheTTL  int   `mapstructure:"constants_cache_ttl"`  // seconds, 0 means never expire
	CircuitBreakerTrip bool  `mapstructure:"circuit_breaker_trip"` // not read by the engine
}

// StorageConfig contains constant/rule-definition store settings.
type StorageConfig struct {
	DataDir       string `mapstructure:"data_dir"`
	MaxConstants  int    `mapstructure:"max_constants"`   // not read; conststore enforces no size limit
	MaxRuleDefs   int    `mapstructure:"max_rule_defs"`   // not read; conststore enforces no size limit
}

// ValidatorConfig controls the strictness of the multi-pass validator.
type ValidatorConfig struct {
	Strictness          string `mapstructure:"strictness"`            // "lenient" | "standard" | "strict"
	MaxConditionCount   int    `mapstructure:"max_condition_count"`   // default 20; not read, PERF_001 uses the validator's fixed threshold of 20
	MaxActionCount      int    `mapstructure:"max_action_count"`      // default 50; not read, PERF_002 uses the validator's fixed threshold of 50
	FailOnWarning       bool   `mapstructure:"fail_on_warning"`        // strict mode: WARNING also blocks
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override everything.
	// RULEENGINE_ENGINE_DECIMAL_SCALE, RULEENGINE_STORAGE_DATA_DIR, etc.
	v.SetEnvPrefix("RULEENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values.
// Explicit about what's an engine convention vs. a hard spec requirement.
func setDefaults(v *viper.Viper) {
	// Engine defaults
	v.SetDefault("engine.decimal_scale", 10)
	v.SetDefault("engine.max_loop_iterations", 1000)
	v.SetDefault("engine.evaluation_timeout", 5000) // 5s - no stdlib default
	v.SetDefault("engine.rest_call_timeout", 5000)  // matches restbridge.DefaultTimeout
	v.SetDefault("engine.ast_cache_ttl", 0)          // never expire by default
	v.SetDefault("engine.constants_cache_ttl", 60)   // 1 minute
	v.SetDefault("engine.circuit_breaker_trip", true)

	// Storage defaults
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.max_constants", 100000)
	v.SetDefault("storage.max_rule_defs", 100000)

	// Validator defaults
	v.SetDefault("validator.strictness", "standard")
	v.SetDefault("validator.max_condition_count", 20)
	v.SetDefault("validator.max_action_count", 50)
	v.SetDefault("validator.fail_on_warning", false)
}
