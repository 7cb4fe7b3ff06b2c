// Copyright (c) 2014-2018 The BlackCoin Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pos_test

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/blockchain"
	"github.com/lateminer/blackcoin-more/chaincfg"
	"github.com/lateminer/blackcoin-more/pos"
	"github.com/lateminer/blackcoin-more/wire"
	"github.com/stretchr/testify/require"
)

type fakeView struct {
	coins     map[wire.OutPoint]pos.Coin
	ancestors map[int32]*blockchain.BlockNode
}

func newFakeView() *fakeView {
	return &fakeView{
		coins:     make(map[wire.OutPoint]pos.Coin),
		ancestors: make(map[int32]*blockchain.BlockNode),
	}
}

func (v *fakeView) GetCoin(outpoint wire.OutPoint) (pos.Coin, bool) {
	c, ok := v.coins[outpoint]
	return c, ok
}

func (v *fakeView) Ancestor(prev *blockchain.BlockNode, height int32) *blockchain.BlockNode {
	return v.ancestors[height]
}

type alwaysValidSigChecker struct{ valid bool }

func (s alwaysValidSigChecker) VerifySignature(pos.Coin, *wire.MsgTx, int) bool { return s.valid }

func chainNode(height int32, timestamp int64, bits uint32, parent *blockchain.BlockNode) *blockchain.BlockNode {
	hash := chainhash.HashH([]byte{byte(height)})
	return blockchain.NewBlockNode(&hash, height, bits, timestamp, 0, parent)
}

func TestCheckStakeKernelHashRejectsTimeViolation(t *testing.T) {
	ok, err := pos.CheckStakeKernelHash(nil, 0x1e00ffff, 1000, 1000, wire.OutPoint{}, 999)
	require.Error(t, err)
	require.False(t, ok)
}

func TestCheckStakeKernelHashRejectsZeroValue(t *testing.T) {
	ok, err := pos.CheckStakeKernelHash(nil, 0x1e00ffff, 1000, 0, wire.OutPoint{}, 1000)
	require.Error(t, err)
	require.False(t, ok)
}

func TestCheckStakeKernelHashDeterministic(t *testing.T) {
	prev := chainNode(10, 5000, 0x1e00ffff, nil)
	outpoint := wire.OutPoint{Hash: chainhash.HashH([]byte("prevout")), Index: 1}

	ok1, err1 := pos.CheckStakeKernelHash(prev, 0x1e00ffff, 4000, 5000000, outpoint, 5100)
	ok2, err2 := pos.CheckStakeKernelHash(prev, 0x1e00ffff, 4000, 5000000, outpoint, 5100)

	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, ok1, ok2)
}

func TestCheckStakeKernelHashHigherValueMoreLikely(t *testing.T) {
	// A coin worth far more than another, under an otherwise identical
	// kernel pre-image, must be at least as likely to meet the target:
	// scanning many outpoints, the richer coin should win strictly more
	// often. Here we just assert the weighted target grows with value by
	// checking a coin at the loosest possible bits always succeeds.
	prev := chainNode(10, 5000, 0x1e00ffff, nil)
	outpoint := wire.OutPoint{Hash: chainhash.HashH([]byte("rich")), Index: 0}

	ok, err := pos.CheckStakeKernelHash(prev, 0x207fffff, 4000, 1<<60, outpoint, 5100)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestComputeStakeModifierGenesisIsZero(t *testing.T) {
	kernel := chainhash.HashH([]byte("kernel"))
	modifier := pos.ComputeStakeModifier(nil, kernel)
	require.Equal(t, chainhash.Hash{}, modifier)
}

func TestComputeStakeModifierChains(t *testing.T) {
	parent := chainNode(5, 1000, 0x1e00ffff, nil)
	parentModifier := chainhash.HashH([]byte("parent-modifier"))
	parent.SetStakeModifier(parentModifier)

	kernel := chainhash.HashH([]byte("kernel"))
	modifier := pos.ComputeStakeModifier(parent, kernel)
	require.NotEqual(t, chainhash.Hash{}, modifier)
	require.NotEqual(t, parentModifier, modifier)

	// Deterministic given the same inputs.
	again := pos.ComputeStakeModifier(parent, kernel)
	require.Equal(t, modifier, again)
}

func TestCheckCoinStakeTimestampProtocolV2(t *testing.T) {
	params := &chaincfg.MainNetParams
	v2Time := params.ProtocolV2Time + 1

	require.False(t, pos.CheckCoinStakeTimestamp(params, v2Time, v2Time+1))

	masked := v2Time &^ int64(params.StakeTimestampMask)
	require.True(t, pos.CheckCoinStakeTimestamp(params, masked, masked))
}

func TestCheckCoinStakeTimestampPreV2(t *testing.T) {
	params := &chaincfg.MainNetParams
	preV2 := params.ProtocolV2Time - 100

	require.True(t, pos.CheckCoinStakeTimestamp(params, preV2, preV2))
	require.False(t, pos.CheckCoinStakeTimestamp(params, preV2, preV2+1))
}

func TestCheckProofOfStakeRejectsNonCoinstake(t *testing.T) {
	params := &chaincfg.MainNetParams
	prev := chainNode(10, 5000, 0x1e00ffff, nil)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0xffffffff}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(1, []byte{0x51}))

	err := pos.CheckProofOfStake(prev, tx, 0x1e00ffff, params, newFakeView(), nil, 5100)
	require.Error(t, err)

	ruleErr, ok := err.(blockchain.RuleError)
	require.True(t, ok)
	require.Equal(t, blockchain.ErrSecondTxNotCoinstake, ruleErr.ErrorCode)
}

func TestCheckProofOfStakeRejectsMissingPrevout(t *testing.T) {
	params := &chaincfg.MainNetParams
	prev := chainNode(10, 5000, 0x1e00ffff, nil)

	outpoint := wire.OutPoint{Hash: chainhash.HashH([]byte("missing")), Index: 0}
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&outpoint, nil, nil))
	tx.AddTxOut(wire.NewTxOut(0, nil))
	tx.AddTxOut(wire.NewTxOut(1, []byte{0x51}))

	err := pos.CheckProofOfStake(prev, tx, 0x1e00ffff, params, newFakeView(), nil, 5100)
	require.Error(t, err)

	ruleErr, ok := err.(blockchain.RuleError)
	require.True(t, ok)
	require.Equal(t, blockchain.ErrStakePrevoutNotExist, ruleErr.ErrorCode)
}

func TestCheckProofOfStakeRejectsImmaturePrevout(t *testing.T) {
	params := &chaincfg.MainNetParams
	prev := chainNode(10, 5000, 0x1e00ffff, nil)

	outpoint := wire.OutPoint{Hash: chainhash.HashH([]byte("young")), Index: 0}
	view := newFakeView()
	view.coins[outpoint] = pos.Coin{Value: 1000, Height: 9, Time: 4000}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&outpoint, nil, nil))
	tx.AddTxOut(wire.NewTxOut(0, nil))
	tx.AddTxOut(wire.NewTxOut(1, []byte{0x51}))

	err := pos.CheckProofOfStake(prev, tx, 0x1e00ffff, params, view, alwaysValidSigChecker{true}, 5100)
	require.Error(t, err)

	ruleErr, ok := err.(blockchain.RuleError)
	require.True(t, ok)
	require.Equal(t, blockchain.ErrStakePrevoutNotMature, ruleErr.ErrorCode)
}

func TestCheckProofOfStakeRejectsBadSignature(t *testing.T) {
	params := &chaincfg.MainNetParams
	prev := chainNode(int32(params.CoinbaseMaturity), 5000, 0x1e00ffff, nil)

	outpoint := wire.OutPoint{Hash: chainhash.HashH([]byte("mature")), Index: 0}
	view := newFakeView()
	view.coins[outpoint] = pos.Coin{Value: 1000, Height: 0, Time: 4000}
	view.ancestors[0] = chainNode(0, 100, 0x1e00ffff, nil)

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&outpoint, nil, nil))
	tx.AddTxOut(wire.NewTxOut(0, nil))
	tx.AddTxOut(wire.NewTxOut(1, []byte{0x51}))

	err := pos.CheckProofOfStake(prev, tx, 0x1e00ffff, params, view, alwaysValidSigChecker{false}, 5100)
	require.Error(t, err)

	ruleErr, ok := err.(blockchain.RuleError)
	require.True(t, ok)
	require.Equal(t, blockchain.ErrStakeVerifySignatureFailed, ruleErr.ErrorCode)
}
