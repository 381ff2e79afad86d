package config

import (
	"time"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	DataDir     string

	// Execution settings
	Debug          bool
	NonInteractive bool
	Output         string // table, json or yaml
	Timeout        time.Duration

	Network   Network
	Contracts Contracts

	// Seconds between blocks, used for projecting timestamps of unmined blocks
	BlockTime      uint64
	TokenDecimals  int32
	BaseInterval   time.Duration
	DiscoveryEvery int
	RPCTimeout     time.Duration

	WalletURL     string
	SessionSecret string

	Documents DocumentsConfig
	API       APIConfig
}

// Network represents network configuration
type Network struct {
	ChainID uint64 `json:"chainId"`
	RPCURL  string `json:"rpcUrl"`
}

// Contracts holds the governance contract addresses
type Contracts struct {
	Governor string `json:"governor"`
	Token    string `json:"token"`
}

// DocumentsConfig selects the document database backend
type DocumentsConfig struct {
	Driver   string // redis, mysql or memory
	RedisURL string
	MySQLDSN string
}

// APIConfig configures the read-only HTTP API
type APIConfig struct {
	Listen      string
	CORSOrigins []string
}

const (
	DocumentsDriverRedis  = "redis"
	DocumentsDriverMySQL  = "mysql"
	DocumentsDriverMemory = "memory"
)

// DiscoveryInterval is the period of the proposal discovery cycle.
func (c *RuntimeConfig) DiscoveryInterval() time.Duration {
	every := c.DiscoveryEvery
	if every <= 0 {
		every = 1
	}
	return c.BaseInterval * time.Duration(every)
}

// BlockRefreshInterval is the period of the block refresh cycle.
func (c *RuntimeConfig) BlockRefreshInterval() time.Duration {
	bt := c.BlockTime
	if bt == 0 {
		bt = 1
	}
	return c.BaseInterval * time.Duration(bt)
}

// JSON reports whether machine readable output was requested.
func (c *RuntimeConfig) JSON() bool {
	return c.Output == "json" || c.Output == "yaml"
}
