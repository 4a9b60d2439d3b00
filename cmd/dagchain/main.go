// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kobby-pentangeli/dagchain/config"
	"github.com/kobby-pentangeli/dagchain/log"
)

func main() {
	fs := config.BuildFlagSet()
	v, err := config.BuildViper(fs, os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Printf("couldn't configure flags: %s\n", err)
		os.Exit(1)
	}

	cfg, err := config.GetConfig(v)
	if err != nil {
		fmt.Printf("couldn't load node config: %s\n", err)
		os.Exit(1)
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		fmt.Printf("couldn't parse log level: %s\n", err)
		os.Exit(1)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Printf("couldn't build logger: %s\n", err)
		os.Exit(1)
	}
	log.SetGlobal(logger)

	store, err := cfg.Storage.Open()
	if err != nil {
		log.Named("main").Fatal("couldn't open storage backend", zap.Error(err))
	}
	defer store.Close()

	node := newNode(cfg, store)
	if err := node.Run(); err != nil {
		log.Named("main").Fatal("node exited with error", zap.Error(err))
	}
}
