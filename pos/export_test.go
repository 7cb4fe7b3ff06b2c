// Copyright (c) 2016-2018 The Qtum developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package pos

import (
	"github.com/lateminer/blackcoin-more/blockchain"
	"github.com/lateminer/blackcoin-more/chaincfg"
	"github.com/lateminer/blackcoin-more/wire"
)

// CheckKernelForTest exposes the uncached kernel check path for tests that
// want to assert a cache hit and a cache miss agree.
func CheckKernelForTest(prev *blockchain.BlockNode, nBits uint32, txTime uint32,
	outpoint wire.OutPoint, params *chaincfg.Params, view ViewPoint) bool {

	return checkKernelUncached(prev, nBits, txTime, outpoint, params, view)
}

// HasEntryForTest reports whether outpoint currently has a cached entry.
func (c *StakeCache) HasEntryForTest(outpoint wire.OutPoint) bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	_, ok := c.entries[outpoint]
	return ok
}

// EntryForTest returns the cached entry for outpoint, zero value if absent.
func (c *StakeCache) EntryForTest(outpoint wire.OutPoint) StakeCacheEntry {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.entries[outpoint]
}
