// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config builds the process flag set, binds it into viper and
// derives the typed Config the node runs with, the same BuildFlagSet ->
// BuildViper -> GetConfig shape cmd/dagchain/main.go drives.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kobby-pentangeli/dagchain/consensus"
	"github.com/kobby-pentangeli/dagchain/storage"
)

const (
	AlphaKey            = "alpha"
	BetaKey             = "beta"
	Beta2Key            = "beta2"
	KKey                = "k"
	QuantumKey          = "quantum"
	MaxBatchSizeKey     = "max-batch-size"
	MaxBatchIntervalKey = "max-batch-interval"
	BootstrapNodesKey   = "bootstrap-nodes"
	DeployAgentKey      = "deploy-agent"
	ListenAddrKey       = "listen-address"
	LogLevelKey         = "log-level"
	StorageBackendKey   = "storage-backend"
	StorageDirKey       = "storage-dir"
	StorageSyncKey      = "storage-sync"
	HelpKey             = "help"
)

// BuildFlagSet declares every flag dagchain recognizes, mirroring the
// defaults consensus.DefaultConfig already carries.
func BuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("dagchain", pflag.ContinueOnError)

	def := consensus.DefaultConfig()
	fs.Float64(AlphaKey, def.Alpha, "consensus acceptance fraction in (0, 1]")
	fs.Uint64(BetaKey, def.Beta, "early-confidence acceptance threshold")
	fs.Uint64(Beta2Key, def.Beta2, "consecutive-round acceptance threshold")
	fs.Uint64(KKey, def.K, "peer sample size per consensus round")
	fs.Bool(QuantumKey, false, "use the iterative majority-count consensus variant instead of the tree-based one")
	fs.Int(MaxBatchSizeKey, def.MaxBatchSize, "max (state, tx) pairs per outgoing batched consensus request")
	fs.Duration(MaxBatchIntervalKey, def.MaxBatchInterval, "max time a consensus request batch accumulates before flushing")
	fs.StringSlice(BootstrapNodesKey, nil, "comma-separated addresses of bootstrap peers")
	fs.Bool(DeployAgentKey, false, "recorded in the config only; the node runs agent-message forwarding whether or not it is set")
	fs.String(ListenAddrKey, ":9651", "address this node accepts peer connections on")
	fs.String(LogLevelKey, "info", "log level: debug, info, warn, error")
	fs.String(StorageBackendKey, "memory", "persisted storage backend: memory, leveldb, pebble")
	fs.String(StorageDirKey, "", "on-disk directory for the leveldb/pebble backend")
	fs.Bool(StorageSyncKey, false, "fsync every storage insert before returning")

	return fs
}

// BuildViper parses args against fs and layers them into a fresh viper
// instance, honoring pflag.ErrHelp the way main does.
func BuildViper(fs *pflag.FlagSet, args []string) (*viper.Viper, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, pflag.ErrHelp
		}
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// Config is the fully-resolved node configuration.
type Config struct {
	Consensus      consensus.Config
	BootstrapNodes []string
	DeployAgent    bool
	ListenAddr     string
	LogLevel       string
	Storage        StorageConfig
}

// StorageConfig selects and parameterizes the persisted KV backend.
type StorageConfig struct {
	Backend string
	Dir     string
	Sync    bool
}

// Open constructs the storage.KV this config names.
func (s StorageConfig) Open() (storage.KV, error) {
	switch s.Backend {
	case "", "memory":
		return storage.NewMemory(), nil
	case "leveldb":
		return storage.OpenLevelDB(s.Dir, s.Sync)
	case "pebble":
		return storage.OpenPebble(s.Dir, s.Sync)
	default:
		return nil, fmt.Errorf("config: unknown storage backend %q", s.Backend)
	}
}

// GetConfig derives the typed Config from a populated viper instance.
func GetConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Consensus: consensus.Config{
			Alpha:            v.GetFloat64(AlphaKey),
			Beta:             v.GetUint64(BetaKey),
			Beta2:            v.GetUint64(Beta2Key),
			K:                v.GetUint64(KKey),
			Quantum:          v.GetBool(QuantumKey),
			MaxBatchSize:     v.GetInt(MaxBatchSizeKey),
			MaxBatchInterval: v.GetDuration(MaxBatchIntervalKey),
		},
		BootstrapNodes: v.GetStringSlice(BootstrapNodesKey),
		DeployAgent:    v.GetBool(DeployAgentKey),
		ListenAddr:     v.GetString(ListenAddrKey),
		LogLevel:       v.GetString(LogLevelKey),
		Storage: StorageConfig{
			Backend: v.GetString(StorageBackendKey),
			Dir:     v.GetString(StorageDirKey),
			Sync:    v.GetBool(StorageSyncKey),
		},
	}

	if cfg.Consensus.Alpha <= 0 || cfg.Consensus.Alpha > 1 {
		return Config{}, fmt.Errorf("config: %s must be in (0, 1], got %f", AlphaKey, cfg.Consensus.Alpha)
	}
	if cfg.Consensus.K == 0 {
		return Config{}, fmt.Errorf("config: %s must be positive", KKey)
	}
	if (cfg.Storage.Backend == "leveldb" || cfg.Storage.Backend == "pebble") && cfg.Storage.Dir == "" {
		return Config{}, fmt.Errorf("config: %s requires %s", cfg.Storage.Backend, StorageDirKey)
	}

	return cfg, nil
}
