// Copyright (c) 2013-2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool_test

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/lateminer/blackcoin-more/mempool"
	"github.com/lateminer/blackcoin-more/wire"
	"github.com/stretchr/testify/require"
)

func dummyTx(seed byte, spends ...wire.OutPoint) *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	if len(spends) == 0 {
		tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Index: uint32(seed)}, []byte{seed}, nil))
	}
	for _, op := range spends {
		tx.AddTxIn(wire.NewTxIn(&op, nil, nil))
	}
	tx.AddTxOut(wire.NewTxOut(int64(seed)*1000, []byte{0x51}))
	return tx
}

func TestFeeRateGetFee(t *testing.T) {
	rate := mempool.FeeRate(1000)
	require.Equal(t, int64(500), rate.GetFee(500))
	require.Equal(t, int64(0), rate.GetFee(0))
}

func TestPoolAncestorAccounting(t *testing.T) {
	pool := mempool.NewPool()

	parentTx := dummyTx(1)
	parent := pool.AddEntry(parentTx, 200, 1000, 1, 0)
	require.Equal(t, int64(200), parent.SizeWithAncestors)
	require.Equal(t, int64(1000), parent.FeeWithAncestors)

	childOutpoint := wire.OutPoint{Hash: parentTx.TxHash(), Index: 0}
	childTx := dummyTx(2, childOutpoint)
	child := pool.AddEntry(childTx, 150, 300, 1, 0)

	require.Equal(t, int64(350), child.SizeWithAncestors)
	require.Equal(t, int64(1300), child.FeeWithAncestors)
}

func TestPoolByAncestorScoreOrdersDescending(t *testing.T) {
	pool := mempool.NewPool()
	pool.AddEntry(dummyTx(1), 100, 100, 0, 0) // rate 1.0
	pool.AddEntry(dummyTx(2), 100, 500, 0, 0) // rate 5.0
	pool.AddEntry(dummyTx(3), 100, 200, 0, 0) // rate 2.0

	ordered := pool.ByAncestorScore()
	require.Len(t, ordered, 3)
	require.InDelta(t, 5.0, ordered[0].AncestorFeeRate(), 0.001)
	require.InDelta(t, 2.0, ordered[1].AncestorFeeRate(), 0.001)
	require.InDelta(t, 1.0, ordered[2].AncestorFeeRate(), 0.001)
}

func TestPoolCalculateDescendants(t *testing.T) {
	pool := mempool.NewPool()
	parentTx := dummyTx(1)
	pool.AddEntry(parentTx, 100, 100, 0, 0)

	childOutpoint := wire.OutPoint{Hash: parentTx.TxHash(), Index: 0}
	childTx := dummyTx(2, childOutpoint)
	pool.AddEntry(childTx, 100, 100, 0, 0)

	grandchildOutpoint := wire.OutPoint{Hash: childTx.TxHash(), Index: 0}
	grandchildTx := dummyTx(3, grandchildOutpoint)
	pool.AddEntry(grandchildTx, 100, 100, 0, 0)

	descendants := pool.CalculateDescendants(parentTx.TxHash())
	require.Len(t, descendants, 2)
}

func TestSelectorPicksHighestAncestorScoreFirst(t *testing.T) {
	pool := mempool.NewPool()
	pool.AddEntry(dummyTx(1), 100, 100, 0, 0)
	pool.AddEntry(dummyTx(2), 100, 1000, 0, 0)

	selector := mempool.NewSelector(pool, mempool.SelectionLimits{
		MaxWeight: 4_000_000,
		MaxSigOps: 80_000,
	})

	selected := selector.SelectPackages()
	require.Len(t, selected, 2)
	require.Equal(t, int64(1000), selected[0].Fee)
}

func TestSelectorIncludesParentBeforeChild(t *testing.T) {
	pool := mempool.NewPool()
	parentTx := dummyTx(1)
	pool.AddEntry(parentTx, 100, 50, 0, 0)

	childOutpoint := wire.OutPoint{Hash: parentTx.TxHash(), Index: 0}
	childTx := dummyTx(2, childOutpoint)
	pool.AddEntry(childTx, 100, 5000, 0, 0)

	selector := mempool.NewSelector(pool, mempool.SelectionLimits{
		MaxWeight: 4_000_000,
		MaxSigOps: 80_000,
	})

	selected := selector.SelectPackages()
	if len(selected) != 2 {
		t.Fatalf("SelectPackages: unexpected result - got %v", spew.Sdump(selected))
	}
	require.Equal(t, parentTx.TxHash(), selected[0].Entry.Hash)
	require.Equal(t, childTx.TxHash(), selected[1].Entry.Hash)
}

func TestSelectorStopsAtFeeFloor(t *testing.T) {
	pool := mempool.NewPool()
	pool.AddEntry(dummyTx(1), 1000, 100, 0, 0) // 0.1 sat/byte

	selector := mempool.NewSelector(pool, mempool.SelectionLimits{
		MaxWeight:  4_000_000,
		MaxSigOps:  80_000,
		MinFeeRate: mempool.FeeRate(1000), // 1 sat/byte required
	})

	selected := selector.SelectPackages()
	require.Empty(t, selected)
}

func TestSelectorRespectsWeightBudget(t *testing.T) {
	pool := mempool.NewPool()
	pool.AddEntry(dummyTx(1), 1000, 1000, 0, 0)
	pool.AddEntry(dummyTx(2), 1000, 900, 0, 0)

	selector := mempool.NewSelector(pool, mempool.SelectionLimits{
		MaxWeight: 1000 * 4, // only room for one candidate's weight
		MaxSigOps: 80_000,
	})

	selected := selector.SelectPackages()
	if len(selected) != 1 {
		t.Fatalf("SelectPackages: unexpected result - got %v", spew.Sdump(selected))
	}
	require.Equal(t, int64(1000), selected[0].Fee)
}

func TestSelectorRejectsNonFinalTransaction(t *testing.T) {
	pool := mempool.NewPool()
	tx := dummyTx(1)
	tx.LockTime = 500
	tx.TxIn[0].Sequence = 0 // non-final locktime only bites when sequence isn't voided
	pool.AddEntry(tx, 100, 1000, 0, 0)

	selector := mempool.NewSelector(pool, mempool.SelectionLimits{
		MaxWeight:   4_000_000,
		MaxSigOps:   80_000,
		BlockHeight: 100, // below the tx's height-interpreted lock time
	})

	require.Empty(t, selector.SelectPackages())
}

func TestSelectorRejectsFutureTimestampedTransaction(t *testing.T) {
	pool := mempool.NewPool()
	tx := dummyTx(1)
	tx.LockTime = uint32(500000000) + 1000
	tx.TxIn[0].Sequence = 0 // non-final locktime only bites when sequence isn't voided
	pool.AddEntry(tx, 100, 1000, 0, 0)

	selector := mempool.NewSelector(pool, mempool.SelectionLimits{
		MaxWeight:      4_000_000,
		MaxSigOps:      80_000,
		LockTimeCutoff: time.Unix(500000000, 0), // before the tx's lock time
	})

	require.Empty(t, selector.SelectPackages())
}

func TestSelectorRejectsWitnessTransactionBeforeSegWit(t *testing.T) {
	pool := mempool.NewPool()
	tx := wire.NewMsgTx(wire.TxVersion)
	in := wire.NewTxIn(&wire.OutPoint{Index: 1}, []byte{1}, [][]byte{{0x01}})
	tx.AddTxIn(in)
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))
	pool.AddEntry(tx, 100, 1000, 0, 0)

	selector := mempool.NewSelector(pool, mempool.SelectionLimits{
		MaxWeight:      4_000_000,
		MaxSigOps:      80_000,
		IncludeWitness: false,
	})

	require.Empty(t, selector.SelectPackages())
}

func TestPoolRejectRefusesFutureAddEntry(t *testing.T) {
	pool := mempool.NewPool()
	tx := dummyTx(1)

	pool.Reject(tx.TxHash())
	require.True(t, pool.WasRejected(tx.TxHash()))

	entry := pool.AddEntry(tx, 100, 100, 0, 0)
	require.Nil(t, entry)
	require.Equal(t, 0, pool.Len())
}
