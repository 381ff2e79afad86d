package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"github.com/timertimertimer/kfudao/internal/domain/config"
)

const (
	configFileName = "kfudao"
	dataDirName    = ".kfudao"
	envPrefix      = "KFUDAO"
)

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		var err error
		projectRoot, err = FindProjectRoot()
		if err != nil {
			return nil, fmt.Errorf("failed to find project root: %w", err)
		}
	}

	dataDir := v.GetString("data_dir")
	if dataDir == "" {
		dataDir = filepath.Join(projectRoot, dataDirName)
	} else if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(projectRoot, dataDir)
	}

	rpcURL, err := ExpandEnvRef(v.GetString("rpc_url"))
	if err != nil {
		return nil, fmt.Errorf("invalid rpc_url: %w", err)
	}
	walletURL, err := ExpandEnvRef(v.GetString("wallet_url"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet_url: %w", err)
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        dataDir,
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		Output:         strings.ToLower(v.GetString("output")),
		Timeout:        v.GetDuration("timeout"),
		Network: config.Network{
			ChainID: v.GetUint64("chain_id"),
			RPCURL:  rpcURL,
		},
		Contracts: config.Contracts{
			Governor: v.GetString("governor_address"),
			Token:    v.GetString("token_address"),
		},
		BlockTime:      v.GetUint64("block_time"),
		TokenDecimals:  v.GetInt32("token_decimals"),
		BaseInterval:   v.GetDuration("base_interval"),
		DiscoveryEvery: v.GetInt("discovery_every"),
		RPCTimeout:     v.GetDuration("rpc_timeout"),
		WalletURL:      walletURL,
		SessionSecret:  v.GetString("session_secret"),
		Documents: config.DocumentsConfig{
			Driver:   strings.ToLower(v.GetString("documents.driver")),
			RedisURL: v.GetString("documents.redis_url"),
			MySQLDSN: v.GetString("documents.mysql_dsn"),
		},
		API: config.APIConfig{
			Listen:      v.GetString("api.listen"),
			CORSOrigins: v.GetStringSlice("api.cors_origins"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *config.RuntimeConfig) error {
	for name, addr := range map[string]string{
		"governor_address": cfg.Contracts.Governor,
		"token_address":    cfg.Contracts.Token,
	} {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid %s: %q is not a hex address", name, addr)
		}
	}
	switch cfg.Output {
	case "", "table", "json", "yaml":
	default:
		return fmt.Errorf("invalid output format %q (valid: table, json, yaml)", cfg.Output)
	}
	switch cfg.Documents.Driver {
	case "", config.DocumentsDriverRedis, config.DocumentsDriverMySQL, config.DocumentsDriverMemory:
	default:
		return fmt.Errorf("invalid documents.driver %q (valid: redis, mysql, memory)", cfg.Documents.Driver)
	}
	if cfg.BaseInterval <= 0 {
		return fmt.Errorf("base_interval must be positive")
	}
	if cfg.TokenDecimals < 0 {
		return fmt.Errorf("token_decimals must not be negative")
	}
	return nil
}

// FindProjectRoot walks up from the current directory to the nearest kfudao.yaml.
// Without one the current directory is used.
func FindProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := cwd
	for {
		for _, ext := range []string{".yaml", ".yml"} {
			if _, err := os.Stat(filepath.Join(dir, configFileName+ext)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd, nil
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string) *viper.Viper {
	LoadEnvFiles(projectRoot)

	v := viper.New()

	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(projectRoot)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults(v, projectRoot)

	// Missing config file is fine
	_ = v.ReadInConfig()

	return v
}

func setDefaults(v *viper.Viper, projectRoot string) {
	v.SetDefault("project_root", projectRoot)
	v.SetDefault("timeout", "0s")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("output", "table")

	v.SetDefault("rpc_url", "http://127.0.0.1:8545")
	v.SetDefault("chain_id", 0)
	v.SetDefault("governor_address", "")
	v.SetDefault("token_address", "")
	v.SetDefault("block_time", 12)
	v.SetDefault("token_decimals", 18)
	v.SetDefault("base_interval", "1s")
	v.SetDefault("discovery_every", 30)
	v.SetDefault("rpc_timeout", "10s")
	v.SetDefault("wallet_url", "http://127.0.0.1:1248")
	v.SetDefault("session_secret", "")

	v.SetDefault("documents.driver", config.DocumentsDriverRedis)
	v.SetDefault("documents.redis_url", "redis://127.0.0.1:6379/0")
	v.SetDefault("documents.mysql_dsn", "")

	v.SetDefault("api.listen", "127.0.0.1:8080")
	v.SetDefault("api.cors_origins", []string{"*"})
}
