package main

import (
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultLogFilename = "bitval.log"
	defaultDebugLevel  = "info"
	defaultMaxLogFiles = 3
	defaultLogFileSize = 10 * 1024 * 1024
)

// bitval home directory
var defaultHomeDir = btcutil.AppDataDir("bitval", false)

// config holds the daemon's command line options.
type config struct {
	DataDir    string `short:"b" long:"datadir" description:"Directory to store chain data"`
	LogDir     string `long:"logdir" description:"Directory to write log files"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	NoFileLog  bool   `long:"nofilelog" description:"Disable the rotating log file"`
}

// loadConfig parses the command line into a config, filling defaults.
func loadConfig() (*config, error) {
	cfg := config{
		DataDir:    filepath.Join(defaultHomeDir, "data"),
		LogDir:     filepath.Join(defaultHomeDir, "logs"),
		DebugLevel: defaultDebugLevel,
	}
	if _, err := flags.Parse(&cfg); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, err
	}
	if !cfg.NoFileLog {
		if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
