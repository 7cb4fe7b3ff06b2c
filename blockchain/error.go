// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import "fmt"

// AssertError identifies an error that indicates an internal code
// consistency issue and should be treated as a critical and unrecoverable
// error.
type AssertError string

// Error returns the assertion error as a human-readable string and
// satisfies the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific RuleError returned by the
// proof-of-stake kernel check and the block assembler.
const (
	// ErrStakePrevoutNotExist indicates the coinstake's first input does
	// not reference a known, unspent output in the active UTXO view.
	ErrStakePrevoutNotExist ErrorCode = iota

	// ErrStakePrevoutNotMature indicates the coinstake's first input
	// references an output that has not yet reached coinbase maturity.
	ErrStakePrevoutNotMature

	// ErrStakePrevoutNotLoaded indicates the block that produced the
	// coinstake's first input's output could not be resolved as an
	// ancestor of the chain tip the block extends.
	ErrStakePrevoutNotLoaded

	// ErrStakeVerifySignatureFailed indicates the coinstake's first
	// input failed signature verification against the referenced
	// output's script.
	ErrStakeVerifySignatureFailed

	// ErrStakeCheckKernelFailed indicates the kernel hash did not meet
	// the weighted target for the supplied timestamp. Recoverable: it
	// may occur transiently during header sync.
	ErrStakeCheckKernelFailed

	// ErrBadBlockTime indicates a block's timestamp violates the
	// protocol-v2 coinstake timestamp agreement or the median-time-past
	// floor.
	ErrBadBlockTime

	// ErrBlockWeightTooHigh indicates the assembled or received block
	// exceeds the maximum allowed block weight.
	ErrBlockWeightTooHigh

	// ErrBlockSigOpsTooHigh indicates the assembled or received block
	// exceeds the maximum allowed accumulated sigop cost.
	ErrBlockSigOpsTooHigh

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase

	// ErrSecondTxNotCoinstake indicates a proof-of-stake block's second
	// transaction is not a valid coinstake transaction.
	ErrSecondTxNotCoinstake

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases

	// ErrMultipleCoinstakes indicates a block contains more than one
	// coinstake transaction.
	ErrMultipleCoinstakes

	// ErrNonFinalTx indicates a transaction in the block is not yet
	// final as determined by IsFinalTx.
	ErrNonFinalTx

	// ErrDuplicateTx indicates two transactions in the block share the
	// same transaction hash.
	ErrDuplicateTx

	// ErrBadMerkleRoot indicates the calculated merkle root does not
	// match the value recorded in the header.
	ErrBadMerkleRoot
)

// errorCodeStrings maps each error code to a human-readable string used in
// error formatting.
var errorCodeStrings = map[ErrorCode]string{
	ErrStakePrevoutNotExist:        "stake-prevout-not-exist",
	ErrStakePrevoutNotMature:       "stake-prevout-not-mature",
	ErrStakePrevoutNotLoaded:       "stake-prevout-not-loaded",
	ErrStakeVerifySignatureFailed:  "stake-verify-signature-failed",
	ErrStakeCheckKernelFailed:      "stake-check-kernel-failed",
	ErrBadBlockTime:                "bad-block-time",
	ErrBlockWeightTooHigh:          "bad-blk-weight",
	ErrBlockSigOpsTooHigh:          "bad-blk-sigops",
	ErrFirstTxNotCoinbase:          "bad-cb-missing",
	ErrSecondTxNotCoinstake:        "bad-cs-missing",
	ErrMultipleCoinbases:           "bad-cb-multiple",
	ErrMultipleCoinstakes:          "bad-cs-multiple",
	ErrNonFinalTx:                  "bad-txns-nonfinal",
	ErrDuplicateTx:                 "bad-txns-duplicate",
	ErrBadMerkleRoot:               "bad-txnmrklroot",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errorCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("unknown ErrorCode (%d)", int(e))
}

// RuleError identifies a rule violation. It is used to indicate that
// processing of a transaction or block failed due to one of the many
// validation rules. The caller can use type assertions to determine if a
// failure was specifically due to a rule violation and access the
// ErrorCode field to ascertain the specific reason.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(c ErrorCode, desc string) RuleError {
	return RuleError{ErrorCode: c, Description: desc}
}
