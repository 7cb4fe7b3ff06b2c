// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/blockchain"
	"github.com/lateminer/blackcoin-more/chaincfg"
	"github.com/lateminer/blackcoin-more/mempool"
	"github.com/lateminer/blackcoin-more/wire"
)

// ChainView is the subset of chainstate the assembler needs: the active
// tip, the deployment-derived header version and segwit activation state,
// the ability to generate and re-derive the coinbase witness commitment,
// and the clock the assembler timestamps candidate blocks from.
type ChainView interface {
	// Tip returns the current active chain tip.
	Tip() *blockchain.BlockNode

	// Params returns the consensus parameters the assembler builds
	// against.
	Params() *chaincfg.Params

	// ComputeBlockVersion returns the header version a block extending
	// prev should carry, per the deployment bit cache.
	ComputeBlockVersion(prev *blockchain.BlockNode) int32

	// SegWitActive reports whether segwit is active for a block
	// extending prev.
	SegWitActive(prev *blockchain.BlockNode) bool

	// GenerateCoinbaseCommitment computes the witness commitment output
	// for block given its parent prev, or nil if segwit is inactive.
	GenerateCoinbaseCommitment(block *wire.MsgBlock, prev *blockchain.BlockNode) (*wire.TxOut, error)

	// LookupBlockIndex resolves hash to its block node, or nil if it is
	// not loaded. Used by RegenerateCommitments to re-derive a
	// template's parent.
	LookupBlockIndex(hash chainhash.Hash) *blockchain.BlockNode

	// AdjustedTime returns the current network-adjusted time, the clock
	// every candidate block's initial nTime is seeded from.
	AdjustedTime() time.Time
}

// Wallet is the staking collaborator the coinstake constructor (C3)
// delegates to. A full node satisfies it with its real keystore and UTXO
// selection; tests satisfy it with a stand-in that hands back canned
// coinstakes.
type Wallet interface {
	// AbandonOrphanedCoinstakes flushes any wallet-tracked coinstakes
	// whose kernel input was reorged away. Called unconditionally before
	// every coinstake construction attempt.
	AbandonOrphanedCoinstakes()

	// CreateCoinStake searches the wallet's eligible outputs in the
	// window (prev.MedianTimePast, searchTime] for one that satisfies
	// the kernel check at the given target, returning a signed
	// coinstake transaction and fees paid into it on success.
	CreateCoinStake(prev *blockchain.BlockNode, bits uint32, searchTime int64) (tx *wire.MsgTx, fees int64, ok bool)
}

// BlockTemplate houses a block that has yet to be solved along with
// additional details about the fees and the number of signature operations
// for each transaction in the block.
type BlockTemplate struct {
	// Block is the block template itself: header plus the coinbase,
	// optional coinstake, and selected mempool transactions.
	Block *wire.MsgBlock

	// Fees contains the amount of fees each transaction in the generated
	// template pays: the coinbase entry first, the negative of the sum of
	// all other fees, then one entry per selected mempool transaction in
	// block order. A proof-of-stake coinstake has no entry.
	Fees []int64

	// SigOpCosts contains the number of signature operations each
	// transaction in the generated template performs, laid out like Fees:
	// the coinbase first, then the selected mempool transactions; a
	// proof-of-stake coinstake has no entry.
	SigOpCosts []int64

	// Height is the height the template extends the chain to.
	Height int32
}

// BlockAssembler builds block templates by combining C4's package
// selection with an optional coinstake (C3), mirroring the reference
// client's CreateNewBlock. It is not safe for concurrent use: the staking
// loop is the only caller that invokes CreateNewBlock, serialized by the
// chain lock it already holds.
type BlockAssembler struct {
	chain ChainView
	mp    *mempool.Pool
	opts  Options

	// lastCoinStakeSearchTime and lastCoinStakeSearchInterval track C3's
	// per-process state across calls, exposed to callers that report
	// m_last_coin_stake_search_interval.
	lastCoinStakeSearchTime     int64
	lastCoinStakeSearchInterval int64
}

// NewBlockAssembler returns a BlockAssembler wired to chain for tip/version
// lookups and mp for package selection, clamping opts to policy limits.
func NewBlockAssembler(chain ChainView, mp *mempool.Pool, opts Options) *BlockAssembler {
	opts.BlockMaxWeight = clampWeight(opts.BlockMaxWeight)
	if opts.BlockMaxSigOps == 0 {
		opts.BlockMaxSigOps = DefaultBlockMaxSigOps
	}
	return &BlockAssembler{
		chain: chain,
		mp:    mp,
		opts:  opts,
	}
}

// LastCoinStakeSearchInterval returns the span, in seconds, C3's last
// invocation searched, regardless of whether it found a stake.
func (ba *BlockAssembler) LastCoinStakeSearchInterval() int64 {
	return ba.lastCoinStakeSearchInterval
}

// CreateNewBlock assembles a new block template extending the active tip.
// With w nil it builds a proof-of-work candidate paying scriptPubKeyIn;
// with w non-nil it attempts a proof-of-stake candidate via the coinstake
// constructor. A (nil, nil, nil) return means "cancel, retry next second" —
// no rule was broken, there was simply no stake to mint against this
// second's target. A non-nil error means assembly itself failed.
func (ba *BlockAssembler) CreateNewBlock(scriptPubKeyIn []byte, w Wallet) (*BlockTemplate, *int64, error) {
	params := ba.chain.Params()
	prev := ba.chain.Tip()
	if prev == nil {
		return nil, nil, errors.New("CreateNewBlock: no active tip")
	}

	height := prev.Height() + 1
	version := ba.chain.ComputeBlockVersion(prev)
	if ba.opts.BlockVersionOverride != 0 {
		version = ba.opts.BlockVersionOverride
	}

	blockTime := ba.chain.AdjustedTime().Unix()

	lockTimeCutoff := blockTime
	if params.IsProtocolV3_1(blockTime) {
		lockTimeCutoff = prev.CalcPastMedianTime()
	}
	log.Debugf("CreateNewBlock: height=%d lockTimeCutoff=%d", height, lockTimeCutoff)

	includeWitness := ba.chain.SegWitActive(prev)

	selector := mempool.NewSelector(ba.mp, mempool.SelectionLimits{
		MaxWeight:      ba.opts.BlockMaxWeight - coinbaseReserveWeight,
		MaxSigOps:      ba.opts.BlockMaxSigOps,
		MinFeeRate:     ba.opts.MinFeeRate,
		BlockHeight:    height,
		LockTimeCutoff: time.Unix(lockTimeCutoff, 0),
		IncludeWitness: includeWitness,
	})
	selected := selector.SelectPackages()

	block := &wire.MsgBlock{
		Header: wire.BlockHeader{
			Version:   version,
			PrevBlock: prev.Hash(),
			Bits:      0,
			Timestamp: time.Unix(blockTime, 0),
		},
	}

	var fees int64
	var sigOpCosts []int64
	var feeList []int64
	for _, c := range selected {
		block.AddTransaction(c.Entry.Tx)
		fees += c.Fee
		feeList = append(feeList, c.Fee)
		sigOpCosts = append(sigOpCosts, c.SigOps)
		if ba.opts.PrintPriority {
			log.Debugf("Fee rate %.8f satoshi/byte for tx %s",
				c.Entry.AncestorFeeRate(), c.Entry.Hash)
		}
	}

	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: ^uint32(0)}, heightScriptSig(height), nil))

	if w == nil {
		block.Header.Bits = blockchain.NextTargetRequired(prev, false, params)
		subsidy := blockchain.GetBlockSubsidy(height, params)
		coinbase.AddTxOut(wire.NewTxOut(fees+subsidy, scriptPubKeyIn))
	} else {
		block.Header.Bits = blockchain.NextTargetRequired(prev, true, params)
		coinbase.AddTxOut(wire.NewTxOut(0, scriptPubKeyIn))

		cancelled, err := ba.injectCoinstake(block, coinbase, prev, params, w)
		if err != nil {
			return nil, nil, err
		}
		if cancelled {
			return nil, nil, nil
		}
	}

	// Prepend the coinbase last: its output value depends on whether a
	// coinstake was injected ahead of it, but its position is always 0.
	block.Transactions = append([]*wire.MsgTx{coinbase}, block.Transactions...)

	if includeWitness {
		commitment, err := ba.chain.GenerateCoinbaseCommitment(block, prev)
		if err != nil {
			return nil, nil, fmt.Errorf("CreateNewBlock: commitment: %w", err)
		}
		if commitment != nil {
			coinbase.AddTxOut(commitment)
		}
	}

	// A proof-of-stake block keeps the coinstake's time; only a
	// proof-of-work block is floored at the adjusted time.
	maxTxTime := blockTime
	if block.Header.IsProofOfStake() {
		maxTxTime = 0
	}
	for _, tx := range block.Transactions {
		if int64(tx.Time) > maxTxTime {
			maxTxTime = int64(tx.Time)
		}
	}
	finalTime := prev.CalcPastMedianTime() + 1
	if maxTxTime > finalTime {
		finalTime = maxTxTime
	}
	block.Header.Timestamp = time.Unix(finalTime, 0)

	root := blockchain.CalcMerkleRoot(block.Transactions)
	block.Header.MerkleRoot = root

	template := &BlockTemplate{
		Block:      block,
		Fees:       append([]int64{-fees}, feeList...),
		SigOpCosts: append([]int64{blockchain.WitnessScaleFactor * coinbaseLegacySigOps(coinbase)}, sigOpCosts...),
		Height:     height,
	}

	return template, &fees, nil
}

// coinbaseLegacySigOps sums the legacy sigop count over a coinbase
// transaction's scriptSig and every output's scriptPubKey.
func coinbaseLegacySigOps(tx *wire.MsgTx) int64 {
	var n int64
	for _, in := range tx.TxIn {
		n += legacySigOpCount(in.SignatureScript)
	}
	for _, out := range tx.TxOut {
		n += legacySigOpCount(out.PkScript)
	}
	return n
}

// coinbaseReserveWeight leaves headroom in the weight budget for the
// coinbase (and, on a PoS block, the coinstake) that C4's package
// selection never itself accounts for.
const coinbaseReserveWeight = 4000

// injectCoinstake runs C3 against w and, on success, performs the block
// mutations spec's §4.5 step 5 describes: emptying the coinbase output,
// stamping block/coinbase time from the coinstake, and splicing the
// coinstake in at index 1. It reports whether the attempt was cancelled
// (no error, just nothing to mint this second).
func (ba *BlockAssembler) injectCoinstake(block *wire.MsgBlock, coinbase *wire.MsgTx,
	prev *blockchain.BlockNode, params *chaincfg.Params, w Wallet) (bool, error) {

	w.AbandonOrphanedCoinstakes()

	nTime := ba.chain.AdjustedTime().Unix() &^ int64(params.StakeTimestampMask)

	searchTime := nTime
	if searchTime <= ba.lastCoinStakeSearchTime {
		return true, nil
	}

	txCoinStake, _, ok := w.CreateCoinStake(prev, block.Header.Bits, searchTime)

	ba.lastCoinStakeSearchInterval = searchTime - ba.lastCoinStakeSearchTime
	ba.lastCoinStakeSearchTime = searchTime

	if !ok {
		return true, nil
	}

	if int64(txCoinStake.Time) < prev.CalcPastMedianTime()+1 {
		return true, nil
	}

	coinbase.TxOut[0] = &wire.TxOut{}
	coinbase.Time = txCoinStake.Time
	block.Header.Timestamp = time.Unix(int64(txCoinStake.Time), 0)
	block.Header.Flags |= wire.BlockProofOfStake

	block.Transactions = append(block.Transactions, nil)
	copy(block.Transactions[1:], block.Transactions[:len(block.Transactions)-1])
	block.Transactions[0] = txCoinStake

	return false, nil
}

// IncrementExtraNonce bumps a per-tip monotone counter, rewriting the
// coinbase scriptSig as push(height) || push(extraNonce) and recomputing
// the merkle root to match. The counter resets whenever prevHeight's block
// (hashPrevBlock) changes from the last call.
func IncrementExtraNonce(block *wire.MsgBlock, prevHeight int32, extraNonce *uint64) error {
	if len(block.Transactions) == 0 {
		return errors.New("IncrementExtraNonce: block has no coinbase")
	}

	if block.Header.PrevBlock != lastExtraNoncePrevBlock {
		*extraNonce = 0
		lastExtraNoncePrevBlock = block.Header.PrevBlock
	}
	*extraNonce++

	coinbase := block.Transactions[0]
	script := extraNonceScriptSig(prevHeight+1, *extraNonce)
	if len(script) > 100 {
		return fmt.Errorf("IncrementExtraNonce: coinbase scriptSig length %d exceeds 100 bytes", len(script))
	}
	coinbase.TxIn[0].SignatureScript = script

	block.Header.MerkleRoot = blockchain.CalcMerkleRoot(block.Transactions)
	return nil
}

// lastExtraNoncePrevBlock is the per-process tip IncrementExtraNonce last
// saw, used to detect a tip change and reset the counter. A single staking
// thread is assumed, matching spec's concurrency model.
var lastExtraNoncePrevBlock chainhash.Hash

// RegenerateCommitments strips block's existing witness-commitment output
// (the coinbase's last output, when it carries the commitment prefix) and
// recomputes it once the parent resolves via lookupParent, rewriting the
// merkle root to match. Used by external tooling that mutates a template
// after assembly (e.g. re-ordering transactions).
func RegenerateCommitments(block *wire.MsgBlock, lookupParent func(chainhash.Hash) *blockchain.BlockNode) error {
	if len(block.Transactions) == 0 {
		return errors.New("RegenerateCommitments: block has no coinbase")
	}
	coinbase := block.Transactions[0]
	if n := len(coinbase.TxOut); n > 0 &&
		bytes.HasPrefix(coinbase.TxOut[n-1].PkScript, []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}) {
		coinbase.TxOut = coinbase.TxOut[:n-1]
	}

	parent := lookupParent(block.Header.PrevBlock)
	if parent == nil {
		return fmt.Errorf("RegenerateCommitments: parent %s not found", block.Header.PrevBlock)
	}

	if commitment := blockchain.ComputeWitnessCommitment(block.Transactions); commitment != nil {
		coinbase.AddTxOut(commitment)
	}

	block.Header.MerkleRoot = blockchain.CalcMerkleRoot(block.Transactions)
	return nil
}
