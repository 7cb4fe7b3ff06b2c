// Copyright (c) 2016-2018 The Qtum developers
// Copyright (c) 2014-2018 The BlackCoin Developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pos

import (
	"sync"

	"github.com/lateminer/blackcoin-more/blockchain"
	"github.com/lateminer/blackcoin-more/chaincfg"
	"github.com/lateminer/blackcoin-more/wire"
)

// StakeCacheEntry memoises the two pieces of a coin's kernel pre-image that
// are expensive to re-derive on every second of the staker's search loop:
// the time of the block that created it and its value.
type StakeCacheEntry struct {
	BlockFromTime uint32
	Amount        int64
}

// StakeCache is a per-outpoint memoisation of StakeCacheEntry values, scoped
// to a single staking attempt. It is purely advisory: a positive cache hit
// is always re-verified through the authoritative view before it can ever
// turn a non-stake into a stake, since a deep reorg can leave stale entries
// behind that no longer describe a valid, unspent, mature coin.
type StakeCache struct {
	mtx     sync.Mutex
	entries map[wire.OutPoint]StakeCacheEntry
}

// NewStakeCache returns an empty stake cache.
func NewStakeCache() *StakeCache {
	return &StakeCache{entries: make(map[wire.OutPoint]StakeCacheEntry)}
}

// CacheKernel inserts an entry for outpoint if, and only if, the output it
// names is present, mature, and unspent in view as of prev. It is a no-op
// if the entry already exists or any of those conditions fail.
func (c *StakeCache) CacheKernel(outpoint wire.OutPoint, prev *blockchain.BlockNode,
	params *chaincfg.Params, view ViewPoint) {

	c.mtx.Lock()
	_, exists := c.entries[outpoint]
	c.mtx.Unlock()
	if exists {
		return
	}

	coinPrev, ok := view.GetCoin(outpoint)
	if !ok || coinPrev.IsSpent {
		return
	}

	if prev.Height()+1-coinPrev.Height < int32(params.CoinbaseMaturity) {
		return
	}

	blockFrom := view.Ancestor(prev, coinPrev.Height)
	if blockFrom == nil {
		return
	}

	blockFromTime := coinPrev.Time
	if blockFromTime == 0 {
		blockFromTime = uint32(blockFrom.Timestamp())
	}

	c.mtx.Lock()
	c.entries[outpoint] = StakeCacheEntry{BlockFromTime: blockFromTime, Amount: coinPrev.Value}
	c.mtx.Unlock()
}

// CheckKernel reports whether outpoint currently produces a valid
// proof-of-stake kernel at txTime. It consults the cache first: a cache hit
// that satisfies the weighted target is always re-verified against view
// before being trusted, since the cache may be stale after a reorg. A
// cache miss falls through to the full lookup/maturity/unspent/hash path.
func (c *StakeCache) CheckKernel(prev *blockchain.BlockNode, nBits uint32, txTime uint32,
	outpoint wire.OutPoint, params *chaincfg.Params, view ViewPoint) bool {

	c.mtx.Lock()
	entry, hit := c.entries[outpoint]
	c.mtx.Unlock()

	if !hit {
		return checkKernelUncached(prev, nBits, txTime, outpoint, params, view)
	}

	ok, err := CheckStakeKernelHash(prev, nBits, entry.BlockFromTime, entry.Amount, outpoint, txTime)
	if err != nil || !ok {
		return false
	}

	// The cached hit looked good; re-derive it from the authoritative
	// view before trusting it, since the cache never proves a coin is
	// still unspent and mature after a reorg.
	return checkKernelUncached(prev, nBits, txTime, outpoint, params, view)
}

func checkKernelUncached(prev *blockchain.BlockNode, nBits uint32, txTime uint32,
	outpoint wire.OutPoint, params *chaincfg.Params, view ViewPoint) bool {

	coinPrev, ok := view.GetCoin(outpoint)
	if !ok || coinPrev.IsSpent {
		return false
	}

	if prev.Height()+1-coinPrev.Height < int32(params.CoinbaseMaturity) {
		return false
	}

	blockFrom := view.Ancestor(prev, coinPrev.Height)
	if blockFrom == nil {
		return false
	}

	blockFromTime := coinPrev.Time
	if blockFromTime == 0 {
		blockFromTime = uint32(blockFrom.Timestamp())
	}

	ok, err := CheckStakeKernelHash(prev, nBits, blockFromTime, coinPrev.Value, outpoint, txTime)
	return err == nil && ok
}
