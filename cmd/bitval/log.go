package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/bitval/bitval/chain"
	"github.com/bitval/bitval/consensus"
	"github.com/bitval/bitval/mempool"
	"github.com/bitval/bitval/node"
)

// logWriter implements an io.Writer that outputs to standard output and to
// the log rotator once one has been initialized.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var (
	backendLog = btclog.NewBackend(logWriter{})
	logRotator *rotator.Rotator

	mainLog = backendLog.Logger("BVAL")
	consLog = backendLog.Logger("CONS")
	chanLog = backendLog.Logger("CHAN")
	mempLog = backendLog.Logger("MEMP")
	nodeLog = backendLog.Logger("NODE")
)

func init() {
	consensus.UseLogger(consLog)
	chain.UseLogger(chanLog)
	mempool.UseLogger(mempLog)
	node.UseLogger(nodeLog)
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]btclog.Logger{
	"BVAL": mainLog,
	"CONS": consLog,
	"CHAN": chanLog,
	"MEMP": mempLog,
	"NODE": nodeLog,
}

// initLogRotator starts the rotating log file writer.
func initLogRotator(logDir string) error {
	logFile := filepath.Join(logDir, defaultLogFilename)
	r, err := rotator.New(logFile, defaultLogFileSize/1024, false,
		defaultMaxLogFiles)
	if err != nil {
		return fmt.Errorf("failed to create log rotator: %v", err)
	}
	logRotator = r
	return nil
}

// setLogLevels applies one debug level to every subsystem.
func setLogLevels(levelStr string) error {
	level, ok := btclog.LevelFromString(levelStr)
	if !ok {
		return fmt.Errorf("invalid debug level %q", levelStr)
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
	return nil
}
