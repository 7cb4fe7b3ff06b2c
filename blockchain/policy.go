// Copyright (c) 2018 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"time"

	"github.com/lateminer/blackcoin-more/wire"
)

const (
	// LockTimeThreshold is the number a transaction's LockTime must be
	// below to be interpreted as a block height rather than a Unix
	// timestamp.
	LockTimeThreshold = 500000000

	// OneMegaByte is the convenient bytes value representing 1,000,000
	// bytes, the baseline unit sigop budgets scale from.
	OneMegaByte = 1000000

	// MaxTxSigOpsCost is the maximum allowed number of signature
	// operation cost units for a single transaction.
	MaxTxSigOpsCost = 80000

	// MaxBlockSigOpsPerMB is the maximum allowed number of signature
	// check operations per megabyte in a block.
	MaxBlockSigOpsPerMB = 20000

	// WitnessScaleFactor determines the level of "discount" witness data
	// receives compared to "base" data: a witness byte only costs 1
	// weight unit whereas a non-witness byte costs 4.
	WitnessScaleFactor = 4
)

// GetMaxBlockSigOpsCost returns the maximum allowed sigop cost for a block
// of the given serialized size, rounding the size up to the next whole
// megabyte before scaling.
func GetMaxBlockSigOpsCost(blockSize int) int64 {
	mbRoundedUp := 1 + ((blockSize - 1) / OneMegaByte)
	return int64(mbRoundedUp * MaxBlockSigOpsPerMB)
}

// GetTransactionWeight computes a transaction's weight: three times its
// base (non-witness) size plus its total serialized size, matching the
// segwit discount formula so that a non-witness byte costs 4 weight units
// and a witness byte costs 1.
func GetTransactionWeight(baseSize, totalSize int) int64 {
	return int64(baseSize*(WitnessScaleFactor-1) + totalSize)
}

// IsFinalizedTransaction determines whether or not tx is finalized as of
// blockHeight and blockTime, the height and median/adjusted time of the
// candidate block it would be mined into.
func IsFinalizedTransaction(tx *wire.MsgTx, blockHeight int32, blockTime time.Time) bool {
	// A lock time of zero means the transaction is finalized.
	lockTime := tx.LockTime
	if lockTime == 0 {
		return true
	}

	// The lock time field of a transaction is either a block height at
	// which the transaction is finalized or a timestamp depending on
	// whether the value is under LockTimeThreshold.
	var blockTimeOrHeight int64
	if lockTime < LockTimeThreshold {
		blockTimeOrHeight = int64(blockHeight)
	} else {
		blockTimeOrHeight = blockTime.Unix()
	}
	if int64(lockTime) < blockTimeOrHeight {
		return true
	}

	// The transaction's lock time hasn't occurred yet, but it may still
	// be finalized if every input has voided its sequence number.
	for _, txIn := range tx.TxIn {
		if txIn.Sequence != wire.MaxTxInSequenceNum {
			return false
		}
	}
	return true
}
