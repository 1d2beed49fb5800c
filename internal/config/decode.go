package config

import (
	"time"

	"github.com/spf13/pflag"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	// RPCURL is optional; without it token metadata is left empty.
	RPCURL      string
	In          string
	Out         string
	Errors      string
	LogLevel    string
	Topic0Map   map[string]string
	CallTimeout time.Duration
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]interface{}{
		"out":          "./data/typed_events.jsonl",
		"errors":       "./data/decode_errors.jsonl",
		"call-timeout": 10 * time.Second,
		"log-level":    "info",
	})
	if err != nil {
		return DecodeConfig{}, err
	}

	return DecodeConfig{
		RPCURL:      v.GetString("rpc"),
		In:          v.GetString("in"),
		Out:         v.GetString("out"),
		Errors:      v.GetString("errors"),
		LogLevel:    v.GetString("log-level"),
		Topic0Map:   getStringMap(v, "topic0-map"),
		CallTimeout: v.GetDuration("call-timeout"),
	}, nil
}
