// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config parses the block-production core's command-line options,
// following the reference client's go-flags idiom (struct tags describing
// flags). Only command-line arguments are read; there is no config-file
// or ini-file parsing.
package config

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/lateminer/blackcoin-more/mempool"
	"github.com/lateminer/blackcoin-more/mining"
	"github.com/lateminer/blackcoin-more/staking"
)

const (
	// defaultBlockMaxWeight is the block weight budget used when
	// -blockmaxweight is left unset.
	defaultBlockMaxWeight = mining.DefaultBlockMaxWeight

	// defaultBlockMinTxFee is the minimum relay fee rate, in satoshis
	// per kilobyte, a package must clear to be selected.
	defaultBlockMinTxFee = 1000

	// defaultStakeTimeIOMillis is the base pos_timio, before the
	// eligible-UTXO-count term is added.
	defaultStakeTimeIOMillis = 1000
)

// Options is the flag-tagged configuration surface: every option spec.md §6
// enumerates, and nothing else. Network/RPC flags are out of scope.
type Options struct {
	BlockMaxWeight  int64 `long:"blockmaxweight" description:"Maximum block weight to be used when creating a block"`
	BlockMinTxFee   int64 `long:"blockmintxfee" description:"Minimum fee rate, in satoshis per kilobyte, for a transaction to be considered for inclusion"`
	BlockVersion    int32 `long:"blockversion" description:"Block version override, regtest only"`
	PrintPriority   bool  `long:"printpriority" description:"Log the fee rate and txid of every transaction accepted into a block template"`
	Staking         bool  `long:"staking" description:"Enable the staking loop"`
	NoStaking       bool  `long:"nostaking" description:"Disable the staking loop even if -staking is set"`
	StakeTimeIOMs   int64 `long:"staketimio" description:"Base pos_timio in milliseconds; effective timeout adds 30*sqrt(eligible UTXOs)"`
}

// defaultOptions returns an Options populated with every default spec.md §6
// documents.
func defaultOptions() Options {
	return Options{
		BlockMaxWeight: defaultBlockMaxWeight,
		BlockMinTxFee:  defaultBlockMinTxFee,
		Staking:        true,
		StakeTimeIOMs:  defaultStakeTimeIOMillis,
	}
}

// Load parses args (normally os.Args[1:]) against the documented defaults,
// returning the populated Options. A nil args uses the process's actual
// arguments.
func Load(args []string) (*Options, error) {
	opts := defaultOptions()
	parser := flags.NewParser(&opts, flags.Default)
	if args == nil {
		args = os.Args[1:]
	}
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	return &opts, nil
}

// MiningOptions projects Options onto the assembler's Options type.
func (o *Options) MiningOptions() mining.Options {
	return mining.Options{
		BlockMaxWeight:       o.BlockMaxWeight,
		MinFeeRate:           mempool.FeeRate(o.BlockMinTxFee),
		BlockVersionOverride: o.BlockVersion,
		PrintPriority:        o.PrintPriority,
	}
}

// StakingEnabled reports whether the staking loop should run: the master
// switch is on and the kill switch is not.
func (o *Options) StakingEnabled() bool {
	return o.Staking && !o.NoStaking
}

// StakingConfig projects Options onto the subset of staking.Config the
// command-line surface controls. The caller still supplies Assembler and
// PayToScript, which depend on runtime wiring this package knows nothing
// about.
func (o *Options) StakingConfig() staking.Config {
	return staking.Config{
		Enabled:           o.StakingEnabled,
		StakeTimeioMillis: o.StakeTimeIOMs,
	}
}
