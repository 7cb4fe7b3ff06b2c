// Copyright (c) 2014-2018 The BlackCoin Developers
// Copyright (c) 2011-2013 The PPCoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pos

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/blockchain"
	"github.com/lateminer/blackcoin-more/chaincfg"
	"github.com/lateminer/blackcoin-more/wire"
)

// Coin is the subset of UTXO-entry information the kernel check needs about
// a coinstake's referenced output: the value it carries, the height of the
// block that created it, and the timestamp of the transaction that created
// it. It is supplied by the chainstate's UTXO view, an external
// collaborator this package never constructs itself.
type Coin struct {
	Value    int64
	Height   int32
	Time     uint32
	PkScript []byte
	IsSpent  bool
}

// ViewPoint resolves coinstake prevouts and block ancestry. A full node
// satisfies it with its real chainstate and UTXO set; tests satisfy it with
// an in-memory stand-in.
type ViewPoint interface {
	// GetCoin looks up the unspent output referenced by outpoint. The
	// second return value is false when the output does not exist in the
	// view.
	GetCoin(outpoint wire.OutPoint) (Coin, bool)

	// Ancestor returns the block node at the given height in the chain
	// that prev belongs to, or nil if no such ancestor is loaded.
	Ancestor(prev *blockchain.BlockNode, height int32) *blockchain.BlockNode
}

// SignatureChecker verifies a coinstake's first input against the script of
// the coin it spends. Supplied by the chainstate's script-verification
// engine; this package treats it as an opaque capability.
type SignatureChecker interface {
	VerifySignature(coin Coin, tx *wire.MsgTx, inputIndex int) bool
}

// ComputeStakeModifier derives the stake modifier a block hands down to its
// descendants from its own kernel hash and its parent's modifier. The
// genesis block's modifier is the zero hash.
//
// Scrambling each block's modifier into the next prevents a coin owner from
// computing the proof-of-stake it could generate far in the future at the
// moment a transaction confirms: to satisfy the kernel protocol the coin
// must hash against a modifier it cannot yet predict.
func ComputeStakeModifier(prev *blockchain.BlockNode, kernel chainhash.Hash) chainhash.Hash {
	if prev == nil {
		return chainhash.Hash{}
	}

	parentModifier := prev.StakeModifier()
	buf := make([]byte, 0, chainhash.HashSize*2)
	buf = append(buf, kernel[:]...)
	buf = append(buf, parentModifier[:]...)
	return chainhash.DoubleHashH(buf)
}

// CheckCoinStakeTimestamp reports whether a coinstake transaction's time
// agrees with the block time that carries it, per the active protocol
// version. Protocol v2 additionally requires the transaction time to be
// aligned to the stake timestamp mask.
func CheckCoinStakeTimestamp(params *chaincfg.Params, blockTime, txTime int64) bool {
	if params.IsProtocolV2(blockTime) {
		return blockTime == txTime && (uint32(txTime)&params.StakeTimestampMask) == 0
	}
	return blockTime == txTime
}

// CheckStakeBlockTimestamp is the header-only form of
// CheckCoinStakeTimestamp, used when only a block's own time is known.
func CheckStakeBlockTimestamp(params *chaincfg.Params, blockTime int64) bool {
	return CheckCoinStakeTimestamp(params, blockTime, blockTime)
}

// CheckStakeKernelHash reports whether the proof-of-stake kernel computed
// from the given coin meets the value-weighted target. It is a pure
// function of its arguments: the weighted hash comparison that makes the
// chance of minting a stake proportional to the value of the coin being
// spent.
//
// The kernel hash is double-SHA-256 over:
//
//	stakeModifier || blockFromTime:u32-LE || prevout.hash:32 || prevout.n:u32-LE || txTime:u32-LE
func CheckStakeKernelHash(prev *blockchain.BlockNode, nBits uint32, blockFromTime uint32,
	prevoutValue int64, prevout wire.OutPoint, txTime uint32) (bool, error) {

	if txTime < blockFromTime {
		return false, fmt.Errorf("CheckStakeKernelHash: nTime violation")
	}
	if prevoutValue == 0 {
		return false, fmt.Errorf("CheckStakeKernelHash: nValueIn = 0")
	}

	target := blockchain.CompactToBig(nBits)
	weight := big.NewInt(prevoutValue)
	target.Mul(target, weight)

	var modifier chainhash.Hash
	if prev != nil {
		modifier = prev.StakeModifier()
	}

	buf := make([]byte, 0, chainhash.HashSize+4+chainhash.HashSize+4+4)
	buf = append(buf, modifier[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, blockFromTime)
	buf = append(buf, prevout.Hash[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, prevout.Index)
	buf = binary.LittleEndian.AppendUint32(buf, txTime)

	hashProofOfStake := chainhash.DoubleHashH(buf)

	log.Debugf("CheckStakeKernelHash: modifier=%s blockFromTime=%d prevout=%s txTime=%d proof=%s",
		modifier, blockFromTime, prevout, txTime, hashProofOfStake)

	return blockchain.HashToBig(&hashProofOfStake).Cmp(target) <= 0, nil
}

// CheckProofOfStake validates a coinstake transaction's kernel against the
// weighted target and verifies the signature over the spent output. tx must
// already be known to satisfy wire.IsCoinStake.
func CheckProofOfStake(prev *blockchain.BlockNode, tx *wire.MsgTx, nBits uint32,
	params *chaincfg.Params, view ViewPoint, sigChecker SignatureChecker, txTime uint32) error {

	if !wire.IsCoinStake(tx) {
		return ruleError(blockchain.ErrSecondTxNotCoinstake,
			fmt.Sprintf("CheckProofOfStake: called on non-coinstake %s", tx.TxHash()))
	}

	prevout := tx.TxIn[0].PreviousOutPoint
	coinPrev, ok := view.GetCoin(prevout)
	if !ok {
		return ruleError(blockchain.ErrStakePrevoutNotExist,
			fmt.Sprintf("CheckProofOfStake: stake prevout does not exist %s", prevout.Hash))
	}

	if prev.Height()+1-coinPrev.Height < int32(params.CoinbaseMaturity) {
		return ruleError(blockchain.ErrStakePrevoutNotMature,
			fmt.Sprintf("CheckProofOfStake: stake prevout is not mature, expecting %d and only matured to %d",
				params.CoinbaseMaturity, prev.Height()+1-coinPrev.Height))
	}

	blockFrom := view.Ancestor(prev, coinPrev.Height)
	if blockFrom == nil {
		return ruleError(blockchain.ErrStakePrevoutNotLoaded,
			fmt.Sprintf("CheckProofOfStake: block at height %d for prevout can not be loaded", coinPrev.Height))
	}

	if sigChecker != nil && !sigChecker.VerifySignature(coinPrev, tx, 0) {
		return ruleError(blockchain.ErrStakeVerifySignatureFailed,
			fmt.Sprintf("CheckProofOfStake: VerifySignature failed on coinstake %s", tx.TxHash()))
	}

	blockFromTime := coinPrev.Time
	if blockFromTime == 0 {
		blockFromTime = uint32(blockFrom.Timestamp())
	}

	ok, err := CheckStakeKernelHash(prev, nBits, blockFromTime, coinPrev.Value, prevout, txTime)
	if err != nil || !ok {
		return ruleError(blockchain.ErrStakeCheckKernelFailed,
			fmt.Sprintf("CheckProofOfStake: check kernel failed on coinstake %s", tx.TxHash()))
	}

	return nil
}

// ruleError is a small local adapter so this package can return the shared
// blockchain.RuleError type without importing its unexported constructor.
func ruleError(code blockchain.ErrorCode, desc string) error {
	return blockchain.RuleError{ErrorCode: code, Description: desc}
}
