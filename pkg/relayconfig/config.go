// Package relayconfig provides a reusable loader for relay configuration
// files and environment variables, in the shape of the teacher's
// pkg/config package but restructured around spec.md §6's relay fields
// instead of node/consensus/VM fields.
//
// Version: v0.1.0
package relayconfig

import (
	"fmt"

	"github.com/spf13/viper"

	"protocol-v2/core"
	"protocol-v2/pkg/utils"
	"protocol-v2/relay"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified configuration for one relay process. It mirrors
// the structure of the YAML files Load reads from cmd/config or config
// (default.yaml plus an optional per-environment overlay).
type Config struct {
	Relay struct {
		Domain     string   `mapstructure:"domain" json:"domain"`
		ListenAddr string   `mapstructure:"listen_addr" json:"listen_addr"`
		AdminAddr  string   `mapstructure:"admin_addr" json:"admin_addr"`
		Topics     []string `mapstructure:"topics" json:"topics"`

		Validation struct {
			Checksum bool `mapstructure:"checksum" json:"checksum"`
		} `mapstructure:"validation" json:"validation"`

		Backpressure struct {
			Policy        string `mapstructure:"policy" json:"policy"`
			HighWaterMark int    `mapstructure:"high_water_mark" json:"high_water_mark"`
			BlockTimeoutMs int   `mapstructure:"block_timeout_ms" json:"block_timeout_ms"`
		} `mapstructure:"backpressure" json:"backpressure"`
	} `mapstructure:"relay" json:"relay"`

	Protocol struct {
		Magic          uint32 `mapstructure:"magic" json:"magic"`
		MaxOrderLevels int    `mapstructure:"max_order_levels" json:"max_order_levels"`
		MaxPoolTokens  int    `mapstructure:"max_pool_tokens" json:"max_pool_tokens"`
	} `mapstructure:"protocol" json:"protocol"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

func setDefaults() {
	viper.SetDefault("relay.domain", "market_data")
	viper.SetDefault("relay.listen_addr", "/tmp/protocol-v2-relay.sock")
	viper.SetDefault("relay.admin_addr", "127.0.0.1:8090")
	viper.SetDefault("relay.validation.checksum", false)
	viper.SetDefault("relay.backpressure.policy", "drop_oldest")
	viper.SetDefault("relay.backpressure.high_water_mark", 4096)
	viper.SetDefault("relay.backpressure.block_timeout_ms", 0)
	viper.SetDefault("protocol.magic", core.Magic)
	viper.SetDefault("protocol.max_order_levels", 50)
	viper.SetDefault("protocol.max_pool_tokens", 8)
	viper.SetDefault("logging.level", "info")
}

// Load reads configuration files and merges any environment-specific
// overrides. The resulting configuration is stored in AppConfig and
// returned.
//
// The function uses the provided environment name to merge additional
// config files. If env is empty, only the default configuration is
// loaded.
func Load(env string) (*Config, error) {
	setDefaults()
	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, utils.Wrap(err, "load relay config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s relay config", env))
		}
	}

	viper.AutomaticEnv()

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal relay config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the RELAY_ENV environment
// variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("RELAY_ENV", ""))
}

// Domain parses Config.Relay.Domain into a core.RelayDomain.
func (c *Config) Domain() (core.RelayDomain, error) {
	return core.ParseRelayDomain(c.Relay.Domain)
}

// backpressurePolicy parses Config.Relay.Backpressure.Policy into a
// relay.BackpressurePolicy.
func (c *Config) backpressurePolicy() (relay.BackpressurePolicy, error) {
	switch c.Relay.Backpressure.Policy {
	case "drop_oldest":
		return relay.BackpressureDropOldest, nil
	case "drop_newest":
		return relay.BackpressureDropNewest, nil
	case "block":
		return relay.BackpressureBlock, nil
	case "adaptive":
		return relay.BackpressureAdaptive, nil
	default:
		return 0, fmt.Errorf("relayconfig: unknown relay.backpressure.policy %q", c.Relay.Backpressure.Policy)
	}
}

// DomainPolicy builds the relay.DomainPolicy a relay process should run
// with, applying this config's overrides on top of the domain's defaults
// (spec.md §4.5's per-domain default table).
func (c *Config) DomainPolicy() (relay.DomainPolicy, error) {
	domain, err := c.Domain()
	if err != nil {
		return relay.DomainPolicy{}, err
	}

	var policy relay.DomainPolicy
	switch domain {
	case core.DomainMarketData:
		policy = relay.MarketDataPolicy()
	case core.DomainSignal:
		policy = relay.SignalPolicy()
	case core.DomainExecution:
		policy = relay.ExecutionPolicy()
	}

	// relay.validation.checksum overrides only the market-data default;
	// signal and execution relays keep checksum enforcement on.
	if domain == core.DomainMarketData {
		policy.EnforceChecksum = c.Relay.Validation.Checksum
	}

	backpressure, err := c.backpressurePolicy()
	if err != nil {
		return relay.DomainPolicy{}, err
	}
	policy.Backpressure = backpressure
	policy.HighWaterMark = c.Relay.Backpressure.HighWaterMark
	policy.BlockTimeoutMs = c.Relay.Backpressure.BlockTimeoutMs
	return policy, nil
}

// TopicFilters builds a name-only relay.TopicFilter per entry in
// Config.Relay.Topics. Each filter matches any source/type; fine-grained
// Sources/Types scoping comes from LoadTopicFilters or from callers that
// build TopicFilter values directly.
func (c *Config) TopicFilters() []relay.TopicFilter {
	filters := make([]relay.TopicFilter, 0, len(c.Relay.Topics))
	for _, name := range c.Relay.Topics {
		filters = append(filters, relay.TopicFilter{Topic: name})
	}
	return filters
}
