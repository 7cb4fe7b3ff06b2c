// Copyright (c) 2014-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import "github.com/lateminer/blackcoin-more/mempool"

// Default block assembly limits. The assembler is always handed an Options
// value derived from the blockmaxweight/blockmintxfee configuration
// options; these constants are only the fallback when an option is left at
// its zero value.
const (
	// DefaultBlockMaxWeight is the default maximum block weight the
	// assembler targets when no blockmaxweight override is configured.
	DefaultBlockMaxWeight = 3996000

	// MinBlockMaxWeight is the lowest blockmaxweight the assembler
	// accepts; an override below this is clamped up.
	MinBlockMaxWeight = 4000

	// DefaultBlockMaxSigOps bounds the accumulated sigop cost of an
	// assembled block, independent of the weight budget.
	DefaultBlockMaxSigOps = 80000
)

// Options configures a BlockAssembler. It is the Go binding for the
// blockmaxweight/blockmintxfee/blockversion/printpriority configuration
// options.
type Options struct {
	// BlockMaxWeight is the maximum block weight the assembler will
	// produce, clamped to [MinBlockMaxWeight, DefaultBlockMaxWeight].
	BlockMaxWeight int64

	// BlockMaxSigOps bounds the accumulated legacy sigop cost.
	BlockMaxSigOps int64

	// MinFeeRate is the minimum ancestor fee rate a package must clear to
	// be considered for inclusion.
	MinFeeRate mempool.FeeRate

	// BlockVersionOverride, when nonzero, replaces the deployment-derived
	// header version. Regtest-only per the configuration option's
	// contract; the assembler does not itself enforce that restriction.
	BlockVersionOverride int32

	// PrintPriority requests that the assembler log the fee rate and
	// txid of every transaction it accepts.
	PrintPriority bool
}

// clampWeight applies the documented [MinBlockMaxWeight,
// DefaultBlockMaxWeight] bound to a configured block weight, treating zero
// as "use the default".
func clampWeight(w int64) int64 {
	if w == 0 {
		return DefaultBlockMaxWeight
	}
	if w < MinBlockMaxWeight {
		return MinBlockMaxWeight
	}
	if w > DefaultBlockMaxWeight {
		return DefaultBlockMaxWeight
	}
	return w
}
