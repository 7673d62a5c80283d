package config

import (
	"github.com/vietddude/chainreader/internal/core/domain"
	"github.com/vietddude/chainreader/internal/indexing/resolver"
	"github.com/vietddude/chainreader/internal/indexing/scan"
	"github.com/vietddude/chainreader/internal/infra/rpc/cooldown"
	"github.com/vietddude/chainreader/internal/infra/rpc/routing"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig         `yaml:"server"`
	Logging  LoggingConfig        `yaml:"logging"`
	Redis    cooldown.RedisConfig `yaml:"redis"`
	Retry    routing.RetryConfig  `yaml:"retry"`
	Scan     scan.Config          `yaml:"scan"`
	Resolver resolver.Config      `yaml:"resolver"`
	Chains   []ChainConfig        `yaml:"chains"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// ChainConfig holds settings for a specific blockchain. Endpoint fields
// left empty fall back to the curated list.
type ChainConfig struct {
	ChainID   domain.ChainID `yaml:"id"`
	Name      string         `yaml:"name"`
	Override  string         `yaml:"override"`
	Primary   string         `yaml:"primary"`
	Fallbacks []string       `yaml:"fallbacks"`
	// Contract is the record store address.
	Contract     string `yaml:"contract"`
	CreatedEvent string `yaml:"created_event"`
	// EditedEvent "none" disables edit events.
	EditedEvent   string `yaml:"edited_event"`
	VerifyChainID bool   `yaml:"verify_chain_id"`
}

// EditedEventDisabled is the EditedEvent value that turns edit events off.
const EditedEventDisabled = "none"

// HasEndpoints reports whether the chain replaces the curated endpoints.
func (c ChainConfig) HasEndpoints() bool {
	return c.Primary != "" || len(c.Fallbacks) > 0
}

// Chain returns the configuration of id, if present.
func (c *AppConfig) Chain(id domain.ChainID) (ChainConfig, bool) {
	for _, ch := range c.Chains {
		if ch.ChainID == id {
			return ch, true
		}
	}
	return ChainConfig{}, false
}
