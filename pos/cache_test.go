// Copyright (c) 2016-2018 The Qtum developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pos_test

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/chaincfg"
	"github.com/lateminer/blackcoin-more/pos"
	"github.com/lateminer/blackcoin-more/wire"
	"github.com/stretchr/testify/require"
)

func TestStakeCacheMissFallsThroughToView(t *testing.T) {
	params := &chaincfg.MainNetParams
	prev := chainNode(int32(params.CoinbaseMaturity)+10, 100000, 0x207fffff, nil)

	outpoint := wire.OutPoint{Hash: chainhash.HashH([]byte("coin")), Index: 0}
	view := newFakeView()
	view.coins[outpoint] = pos.Coin{Value: 1 << 40, Height: 10, Time: 90000}
	view.ancestors[10] = chainNode(10, 90000, 0x207fffff, nil)

	cache := pos.NewStakeCache()
	got := cache.CheckKernel(prev, 0x207fffff, 100100, outpoint, params, view)

	want := pos.CheckKernelForTest(prev, 0x207fffff, 100100, outpoint, params, view)
	require.Equal(t, want, got)
}

func TestStakeCacheKernelOnlyCachesMatureUnspent(t *testing.T) {
	params := &chaincfg.MainNetParams
	prev := chainNode(int32(params.CoinbaseMaturity)-2, 100000, 0x207fffff, nil)

	outpoint := wire.OutPoint{Hash: chainhash.HashH([]byte("immature")), Index: 0}
	view := newFakeView()
	view.coins[outpoint] = pos.Coin{Value: 1000, Height: 0, Time: 90000}
	view.ancestors[0] = chainNode(0, 90000, 0x207fffff, nil)

	cache := pos.NewStakeCache()
	cache.CacheKernel(outpoint, prev, params, view)

	require.False(t, cache.HasEntryForTest(outpoint))
}

func TestStakeCacheDoesNotOverwriteExistingEntry(t *testing.T) {
	params := &chaincfg.MainNetParams
	prev := chainNode(int32(params.CoinbaseMaturity)+10, 100000, 0x207fffff, nil)

	outpoint := wire.OutPoint{Hash: chainhash.HashH([]byte("coin")), Index: 0}
	view := newFakeView()
	view.coins[outpoint] = pos.Coin{Value: 1000, Height: 10, Time: 90000}
	view.ancestors[10] = chainNode(10, 90000, 0x207fffff, nil)

	cache := pos.NewStakeCache()
	cache.CacheKernel(outpoint, prev, params, view)
	require.True(t, cache.HasEntryForTest(outpoint))

	entry := cache.EntryForTest(outpoint)
	require.Equal(t, int64(1000), entry.Amount)

	// Mutate the view underneath the cache; the cached entry must not
	// change since CacheKernel only inserts, never updates.
	view.coins[outpoint] = pos.Coin{Value: 9999, Height: 10, Time: 90000}
	cache.CacheKernel(outpoint, prev, params, view)

	entry = cache.EntryForTest(outpoint)
	require.Equal(t, int64(1000), entry.Amount)
}
