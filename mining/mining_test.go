// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mining_test

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/blockchain"
	"github.com/lateminer/blackcoin-more/chaincfg"
	"github.com/lateminer/blackcoin-more/mempool"
	"github.com/lateminer/blackcoin-more/mining"
	"github.com/lateminer/blackcoin-more/wire"
	"github.com/stretchr/testify/require"
)

type fakeChain struct {
	tip          *blockchain.BlockNode
	params       *chaincfg.Params
	version      int32
	segwit       bool
	now          time.Time
	commitment   *wire.TxOut
	commitmentFn func(*wire.MsgBlock, *blockchain.BlockNode) (*wire.TxOut, error)
}

func (c *fakeChain) Tip() *blockchain.BlockNode        { return c.tip }
func (c *fakeChain) Params() *chaincfg.Params          { return c.params }
func (c *fakeChain) ComputeBlockVersion(*blockchain.BlockNode) int32 { return c.version }
func (c *fakeChain) SegWitActive(*blockchain.BlockNode) bool         { return c.segwit }
func (c *fakeChain) AdjustedTime() time.Time                         { return c.now }
func (c *fakeChain) LookupBlockIndex(hash chainhash.Hash) *blockchain.BlockNode {
	if c.tip != nil && c.tip.Hash() == hash {
		return c.tip
	}
	return nil
}
func (c *fakeChain) GenerateCoinbaseCommitment(block *wire.MsgBlock, prev *blockchain.BlockNode) (*wire.TxOut, error) {
	if c.commitmentFn != nil {
		return c.commitmentFn(block, prev)
	}
	return c.commitment, nil
}

type fakeWallet struct {
	abandoned bool
	tx        *wire.MsgTx
	fees      int64
	ok        bool
}

func (w *fakeWallet) AbandonOrphanedCoinstakes() { w.abandoned = true }
func (w *fakeWallet) CreateCoinStake(prev *blockchain.BlockNode, bits uint32, searchTime int64) (*wire.MsgTx, int64, bool) {
	return w.tx, w.fees, w.ok
}

func testChain(t *testing.T) (*blockchain.BlockNode, *chaincfg.Params) {
	t.Helper()
	params := &chaincfg.MainNetParams
	hash := chainhash.HashH([]byte("genesis"))
	tip := blockchain.NewBlockNode(&hash, 100, params.PowLimit, 1000, 0, nil)
	return tip, params
}

func TestCreateNewBlockProofOfWorkPaysSubsidy(t *testing.T) {
	tip, params := testChain(t)
	chain := &fakeChain{tip: tip, params: params, version: 4, now: time.Unix(2000, 0)}
	pool := mempool.NewPool()

	ba := mining.NewBlockAssembler(chain, pool, mining.Options{})
	tmpl, fees, err := ba.CreateNewBlock([]byte{0x51}, nil)
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	require.NotNil(t, fees)
	require.Equal(t, int64(0), *fees)

	coinbase := tmpl.Block.Transactions[0]
	require.False(t, tmpl.Block.IsProofOfStake())
	require.Equal(t, blockchain.GetBlockSubsidy(101, params), coinbase.TxOut[0].Value)
}

func TestCreateNewBlockIncludesSelectedMempoolTx(t *testing.T) {
	tip, params := testChain(t)
	chain := &fakeChain{tip: tip, params: params, version: 4, now: time.Unix(2000, 0)}
	pool := mempool.NewPool()

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: 0}, []byte{0x01}, nil))
	tx.AddTxOut(wire.NewTxOut(5000, []byte{0x51}))
	pool.AddEntry(tx, 200, 1000, 1, 0)

	ba := mining.NewBlockAssembler(chain, pool, mining.Options{})
	tmpl, fees, err := ba.CreateNewBlock([]byte{0x51}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1000), *fees)
	require.Len(t, tmpl.Block.Transactions, 2)
	require.Equal(t, tx.TxHash(), tmpl.Block.Transactions[1].TxHash())
}

func TestCreateNewBlockProofOfStakeInjectsCoinstake(t *testing.T) {
	tip, params := testChain(t)
	chain := &fakeChain{tip: tip, params: params, version: 4, now: time.Unix(tip.Timestamp()+1000, 0)}
	pool := mempool.NewPool()

	coinstake := wire.NewMsgTx(wire.TxVersion)
	coinstake.Time = uint32(tip.CalcPastMedianTime() + 100)
	coinstake.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.HashH([]byte("kernel")), Index: 0}, []byte{0x01}, nil))
	coinstake.AddTxOut(wire.NewTxOut(0, nil))
	coinstake.AddTxOut(wire.NewTxOut(60000000, []byte{0x51}))

	w := &fakeWallet{tx: coinstake, ok: true}

	ba := mining.NewBlockAssembler(chain, pool, mining.Options{})
	tmpl, _, err := ba.CreateNewBlock([]byte{0x51}, w)
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	require.True(t, w.abandoned)
	require.True(t, tmpl.Block.IsProofOfStake())
	require.Len(t, tmpl.Block.Transactions, 2)
	require.Equal(t, coinstake.TxHash(), tmpl.Block.Transactions[1].TxHash())
	require.Equal(t, int64(0), tmpl.Block.Transactions[0].TxOut[0].Value)
}

func TestCreateNewBlockProofOfStakeCancelsWhenWalletHasNothing(t *testing.T) {
	tip, params := testChain(t)
	chain := &fakeChain{tip: tip, params: params, version: 4, now: time.Unix(tip.Timestamp()+1000, 0)}
	pool := mempool.NewPool()

	w := &fakeWallet{ok: false}

	ba := mining.NewBlockAssembler(chain, pool, mining.Options{})
	tmpl, fees, err := ba.CreateNewBlock([]byte{0x51}, w)
	require.NoError(t, err)
	require.Nil(t, tmpl)
	require.Nil(t, fees)
	require.True(t, w.abandoned)
}

func TestIncrementExtraNonceRewritesCoinbaseAndMerkleRoot(t *testing.T) {
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: ^uint32(0)}, []byte{0x00}, nil))
	coinbase.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))

	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{coinbase}}
	beforeRoot := block.Header.MerkleRoot

	var extraNonce uint64
	require.NoError(t, mining.IncrementExtraNonce(block, 99, &extraNonce))
	require.Equal(t, uint64(1), extraNonce)
	require.NotEqual(t, beforeRoot, block.Header.MerkleRoot)

	require.NoError(t, mining.IncrementExtraNonce(block, 99, &extraNonce))
	require.Equal(t, uint64(2), extraNonce)
}

func TestIncrementExtraNonceResetsOnTipChange(t *testing.T) {
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: ^uint32(0)}, []byte{0x00}, nil))
	coinbase.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))

	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{coinbase}}
	var extraNonce uint64
	require.NoError(t, mining.IncrementExtraNonce(block, 99, &extraNonce))
	require.NoError(t, mining.IncrementExtraNonce(block, 99, &extraNonce))
	require.Equal(t, uint64(2), extraNonce)

	block.Header.PrevBlock = chainhash.HashH([]byte("new tip"))
	require.NoError(t, mining.IncrementExtraNonce(block, 100, &extraNonce))
	require.Equal(t, uint64(1), extraNonce)
}

func TestRegenerateCommitmentsRewritesCommitmentOutput(t *testing.T) {
	tip, _ := testChain(t)

	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: ^uint32(0)}, []byte{0x00}, nil))
	coinbase.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))
	coinbase.AddTxOut(wire.NewTxOut(0, []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}))

	block := &wire.MsgBlock{
		Header:       wire.BlockHeader{PrevBlock: tip.Hash()},
		Transactions: []*wire.MsgTx{coinbase},
	}

	lookup := func(hash chainhash.Hash) *blockchain.BlockNode {
		if hash == tip.Hash() {
			return tip
		}
		return nil
	}

	require.NoError(t, mining.RegenerateCommitments(block, lookup))
	require.Len(t, coinbase.TxOut, 2)
	require.Equal(t, byte(0x6a), coinbase.TxOut[1].PkScript[0])
}

func TestRegenerateCommitmentsFailsForUnknownParent(t *testing.T) {
	coinbase := wire.NewMsgTx(wire.TxVersion)
	coinbase.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: ^uint32(0)}, []byte{0x00}, nil))
	coinbase.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))

	block := &wire.MsgBlock{Transactions: []*wire.MsgTx{coinbase}}
	lookup := func(chainhash.Hash) *blockchain.BlockNode { return nil }

	require.Error(t, mining.RegenerateCommitments(block, lookup))
}
