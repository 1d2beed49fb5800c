package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"

	"poolLedger/internal/pricing"
)

// ApplyConfig holds configuration for the apply command.
type ApplyConfig struct {
	Input     string
	ChainID   uint64
	BatchSize int
	LogLevel  string

	// Sinks. With PGDSN rows go to Postgres, otherwise to the Out JSONL file.
	PGDSN   string
	Migrate bool
	Out     string

	// State. StateFile wins over the ledger_state table.
	StateFile string
	StateName string

	MetricsAddr string

	// Pricing graph and tracking.
	Hooks          []string
	StableTokens   map[string]string
	ReferencePools map[string]string
	USDAnchors     map[string]string
	TokenDecimals  map[string]string
	MaxHops        int
}

// LoadApply merges config file, environment variables, and flags into ApplyConfig.
func LoadApply(cfgFile string, flags *pflag.FlagSet) (ApplyConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"chain-id":   uint64(1),
		"batch-size": 1000,
		"out":        "./data/changes.jsonl",
		"state-name": "ledger",
		"max-hops":   1,
		"log-level":  "info",
	})
	if err != nil {
		return ApplyConfig{}, err
	}

	return ApplyConfig{
		Input:          v.GetString("in"),
		ChainID:        v.GetUint64("chain-id"),
		BatchSize:      v.GetInt("batch-size"),
		LogLevel:       v.GetString("log-level"),
		PGDSN:          v.GetString("pg-dsn"),
		Migrate:        v.GetBool("migrate"),
		Out:            v.GetString("out"),
		StateFile:      v.GetString("state-file"),
		StateName:      v.GetString("state-name"),
		MetricsAddr:    v.GetString("metrics-addr"),
		Hooks:          getStringSlice(v, "hooks"),
		StableTokens:   getStringMap(v, "stable-tokens"),
		ReferencePools: getStringMap(v, "reference-pools"),
		USDAnchors:     getStringMap(v, "usd-anchors"),
		TokenDecimals:  getStringMap(v, "token-decimals"),
		MaxHops:        v.GetInt("max-hops"),
	}, nil
}

// Graph builds the pricing graph from the configured maps.
func (c ApplyConfig) Graph() (pricing.Graph, error) {
	return pricing.ParseGraph(c.StableTokens, c.ReferencePools, c.USDAnchors, c.MaxHops)
}

// TrackedHooks parses the hook filter. An empty list tracks every pool.
func (c ApplyConfig) TrackedHooks() ([]common.Address, error) {
	hooks := make([]common.Address, 0, len(c.Hooks))
	for _, raw := range c.Hooks {
		hook, err := pricing.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("hooks: %w", err)
		}
		hooks = append(hooks, hook)
	}
	return hooks, nil
}

// Decimals parses token decimal overrides.
func (c ApplyConfig) Decimals() (map[common.Address]uint8, error) {
	out := make(map[common.Address]uint8, len(c.TokenDecimals))
	for rawToken, rawDecimals := range c.TokenDecimals {
		token, err := pricing.ParseAddress(rawToken)
		if err != nil {
			return nil, fmt.Errorf("token-decimals: %w", err)
		}
		decimals, err := strconv.ParseUint(strings.TrimSpace(rawDecimals), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("token-decimals %s: %w", rawToken, err)
		}
		out[token] = uint8(decimals)
	}
	return out, nil
}
