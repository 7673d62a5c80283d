package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/infra/chain/evm"
	"github.com/vietddude/chainreader/internal/infra/rpc/registry"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without a config file: every
// curated chain, no contract.
func Default() *AppConfig {
	cfg := &AppConfig{}
	for _, id := range registry.NewDefault().Chains() {
		cfg.Chains = append(cfg.Chains, ChainConfig{ChainID: id})
	}
	// Curated chain ids are always valid.
	_ = cfg.Normalize()
	return cfg
}

// expandEnv substitutes ${VAR} from the environment. Unset variables are
// left as written so the endpoint filter can reject the URL.
func expandEnv(s string) string {
	return os.Expand(s, func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return "${" + key + "}"
	})
}

// Normalize validates c and fills defaults. It is safe to call again after
// editing chains.
func (c *AppConfig) Normalize() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	c.Retry = c.Retry.WithDefaults()
	c.Scan = c.Scan.WithDefaults()
	c.Resolver = c.Resolver.WithDefaults()

	seen := make(map[domain.ChainID]bool, len(c.Chains))
	for i := range c.Chains {
		ch := &c.Chains[i]

		if ch.ChainID == 0 {
			if ch.Name == "" {
				return fmt.Errorf("chain #%d: id or name is required", i)
			}
			id, err := domain.ParseChainID(ch.Name)
			if err != nil {
				return fmt.Errorf("chain #%d: %w", i, err)
			}
			ch.ChainID = id
		}
		if ch.Name == "" {
			ch.Name = string(ch.ChainID.Name())
		}
		if seen[ch.ChainID] {
			return fmt.Errorf("chain %s configured twice", ch.ChainID)
		}
		seen[ch.ChainID] = true

		if ch.Contract != "" && !common.IsHexAddress(ch.Contract) {
			return fmt.Errorf("chain %s: invalid contract address %q", ch.ChainID, ch.Contract)
		}

		if ch.CreatedEvent == "" {
			ch.CreatedEvent = evm.DefaultCreatedEvent
		}
		switch strings.ToLower(ch.EditedEvent) {
		case "":
			ch.EditedEvent = evm.DefaultEditedEvent
		case EditedEventDisabled:
			ch.EditedEvent = EditedEventDisabled
		}
	}
	return nil
}

// Events returns the event set of a chain.
func (c ChainConfig) Events() evm.EventSet {
	edited := c.EditedEvent
	if edited == EditedEventDisabled {
		edited = ""
	}
	return evm.NewEventSet(c.CreatedEvent, edited)
}
