package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/bitval/bitval/chain"
	"github.com/bitval/bitval/consensus"
	"github.com/bitval/bitval/node"
)

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.NoFileLog {
		if err := initLogRotator(cfg.LogDir); err != nil {
			return err
		}
		defer logRotator.Close()
	}
	if err := setLogLevels(cfg.DebugLevel); err != nil {
		return err
	}

	store, err := chain.Open(filepath.Join(cfg.DataDir, "chainstate"))
	if err != nil {
		return err
	}
	defer store.Close()

	n := node.New(store)
	defer n.Stop()

	// Bootstrap an empty store with the genesis block so validation has
	// a tip to build on.
	if _, err := store.LastDepth(); err == consensus.ErrNotFound {
		genesis := btcutil.NewBlock(chaincfg.MainNetParams.GenesisBlock)
		if err := n.SubmitBlock(genesis); err != nil {
			return err
		}
		mainLog.Infof("initialized chain store with the genesis block")
	}

	mainLog.Infof("validation service running, datadir %s", cfg.DataDir)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	mainLog.Info("shutting down")
	return nil
}

func main() {
	if err := run(); err != nil {
		mainLog.Errorf("%v", err)
		os.Exit(1)
	}
}
