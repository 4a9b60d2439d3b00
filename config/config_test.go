// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultFlagsProduceDefaultConsensusConfig(t *testing.T) {
	require := require.New(t)

	fs := BuildFlagSet()
	v, err := BuildViper(fs, nil)
	require.NoError(err)

	cfg, err := GetConfig(v)
	require.NoError(err)

	require.Equal(0.66, cfg.Consensus.Alpha)
	require.Equal(uint64(10), cfg.Consensus.K)
	require.False(cfg.Consensus.Quantum)
	require.Equal("memory", cfg.Storage.Backend)
}

func TestFlagsOverrideDefaults(t *testing.T) {
	require := require.New(t)

	fs := BuildFlagSet()
	v, err := BuildViper(fs, []string{
		"--alpha=0.8",
		"--k=20",
		"--quantum",
		"--bootstrap-nodes=10.0.0.1:9000,10.0.0.2:9000",
	})
	require.NoError(err)

	cfg, err := GetConfig(v)
	require.NoError(err)

	require.Equal(0.8, cfg.Consensus.Alpha)
	require.Equal(uint64(20), cfg.Consensus.K)
	require.True(cfg.Consensus.Quantum)
	require.Equal([]string{"10.0.0.1:9000", "10.0.0.2:9000"}, cfg.BootstrapNodes)
}

func TestGetConfigRejectsAlphaOutOfRange(t *testing.T) {
	require := require.New(t)

	fs := BuildFlagSet()
	v, err := BuildViper(fs, []string{"--alpha=1.5"})
	require.NoError(err)

	_, err = GetConfig(v)
	require.Error(err)
}

func TestGetConfigRequiresStorageDirForDiskBackends(t *testing.T) {
	require := require.New(t)

	fs := BuildFlagSet()
	v, err := BuildViper(fs, []string{"--storage-backend=leveldb"})
	require.NoError(err)

	_, err = GetConfig(v)
	require.Error(err)
}

func TestBuildViperReportsHelp(t *testing.T) {
	require := require.New(t)

	fs := BuildFlagSet()
	_, err := BuildViper(fs, []string{"--help"})
	require.Error(err)
}
