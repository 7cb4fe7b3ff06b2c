// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package log wires up the application-wide logging backend and exposes one
// subsystem logger per package, the way a long-running daemon's supporting
// packages log: subsystems own a four-letter tag, the backend owns where
// the bytes go.
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lateminer/blackcoin-more/blockchain"
	"github.com/lateminer/blackcoin-more/mempool"
	"github.com/lateminer/blackcoin-more/mining"
	"github.com/lateminer/blackcoin-more/pos"
	"github.com/lateminer/blackcoin-more/staking"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// logWriter implements an io.Writer that outputs to both standard output and
// the write-end pipe of an initialized log rotator.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	os.Stdout.Write(p)
	if LogRotator != nil {
		LogRotator.Write(p)
	}
	return len(p), nil
}

// Loggers per subsystem. A single backend logger is created and all
// subsystem loggers created from it will write to the backend. When adding
// new subsystems, add the subsystem logger variable here and to the
// SubsystemLoggers map.
//
// Loggers can not be used before the log rotator has been initialized with a
// log file. This must be performed early during application startup by
// calling InitLogRotator.
var (
	// backendLog is the logging backend used to create all subsystem
	// loggers. The backend must not be used before the log rotator has
	// been initialized, or data races and/or nil pointer dereferences
	// will occur.
	backendLog = btclog.NewBackend(logWriter{})

	// LogRotator is one of the logging outputs. It should be closed on
	// application shutdown.
	LogRotator *rotator.Rotator

	ChanLog = backendLog.Logger("CHAN") // blockchain
	PoskLog = backendLog.Logger("POSK") // pos
	TxmpLog = backendLog.Logger("TXMP") // mempool
	MinrLog = backendLog.Logger("MINR") // mining
	StkrLog = backendLog.Logger("STKR") // staking
)

// Initialize package-global logger variables.
func init() {
	blockchain.UseLogger(ChanLog)
	pos.UseLogger(PoskLog)
	mempool.UseLogger(TxmpLog)
	mining.UseLogger(MinrLog)
	staking.UseLogger(StkrLog)
}

// SubsystemLoggers maps each subsystem identifier to its associated logger.
var SubsystemLoggers = map[string]btclog.Logger{
	"CHAN": ChanLog,
	"POSK": PoskLog,
	"TXMP": TxmpLog,
	"MINR": MinrLog,
	"STKR": StkrLog,
}

// InitLogRotator initializes the logging rotator to write logs to logFile
// and create roll files in the same directory. It must be called before the
// package-global log rotator variables are used.
func InitLogRotator(logFile string) {
	logDir, _ := filepath.Split(logFile)
	err := os.MkdirAll(logDir, 0700)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %v\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %v\n", err)
		os.Exit(1)
	}

	LogRotator = r
}

// SetLogLevel sets the logging level for the provided subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := SubsystemLoggers[subsystemID]
	if !ok {
		return
	}

	level, _ := btclog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for all subsystem loggers to the passed
// level. Only loggers already registered in SubsystemLoggers are affected;
// it creates none.
func SetLogLevels(logLevel string) {
	for subsystemID := range SubsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// PickNoun returns the singular or plural form of a noun depending on the
// count n.
func PickNoun(n uint64, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
