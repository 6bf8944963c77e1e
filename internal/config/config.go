package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	Address           string
	ABIPath           string
	Events            []string
	FromBlock         *uint64
	PollInterval      time.Duration
	FaultDelay        time.Duration
	Parallel          bool
	Out               string
	Console           bool
	NoColor           bool
	Dedup             bool
	Checkpoint        string
	CheckpointEnabled bool
	PGDSN             string
	RPCRateLimit      float64
	RPCBurst          int
	MetricsAddr       string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("WATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("poll-interval", 2*time.Second)
	v.SetDefault("fault-delay", 5*time.Second)
	v.SetDefault("parallel", false)
	v.SetDefault("console", true)
	v.SetDefault("dedup", true)
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", false)
	v.SetDefault("rpc-rate-limit", 0.0)
	v.SetDefault("rpc-burst", 1)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		Address:           strings.TrimSpace(v.GetString("address")),
		ABIPath:           v.GetString("abi"),
		Events:            getStringSlice(v, "events"),
		FromBlock:         getUint64(v, "from"),
		PollInterval:      v.GetDuration("poll-interval"),
		FaultDelay:        v.GetDuration("fault-delay"),
		Parallel:          v.GetBool("parallel"),
		Out:               v.GetString("out"),
		Console:           v.GetBool("console"),
		NoColor:           v.GetBool("no-color"),
		Dedup:             v.GetBool("dedup"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		PGDSN:             v.GetString("pg-dsn"),
		RPCRateLimit:      v.GetFloat64("rpc-rate-limit"),
		RPCBurst:          v.GetInt("rpc-burst"),
		MetricsAddr:       v.GetString("metrics-addr"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// Validate checks the values the listener cannot start without.
func (c Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	if c.Address == "" {
		return fmt.Errorf("contract address is required")
	}
	if c.ABIPath == "" {
		return fmt.Errorf("abi path is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.FaultDelay <= 0 {
		return fmt.Errorf("fault delay must be positive, got %s", c.FaultDelay)
	}
	if c.RPCRateLimit < 0 {
		return fmt.Errorf("rpc rate limit must not be negative")
	}
	if !c.Console && c.Out == "" {
		return fmt.Errorf("no output: enable console or set out")
	}
	return nil
}

// CheckpointName identifies the watcher state of one contract on one chain.
func CheckpointName(chainID string, address string) string {
	return chainID + ":" + strings.ToLower(address)
}

// getUint64 returns nil when key was never set, so an explicit 0 is kept.
func getUint64(v *viper.Viper, key string) *uint64 {
	if !v.IsSet(key) {
		return nil
	}
	val := v.GetUint64(key)
	return &val
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
