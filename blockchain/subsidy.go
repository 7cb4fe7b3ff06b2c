// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"sync"

	"github.com/lateminer/blackcoin-more/chaincfg"
)

// SubsidyCache caches calculated values of the block subsidy so that
// repeated requests for the same halving interval don't recompute the
// exponential reduction from scratch. The block-production core consults
// it once per assembled coinbase; a full node consults it once per block
// validated, so the cache matters more there than here, but the assembler
// and the validator must agree on the exact same numbers.
type SubsidyCache struct {
	mtx    sync.RWMutex
	cache  map[int64]int64
	params *chaincfg.Params
}

// NewSubsidyCache returns a new subsidy cache for the given parameters.
func NewSubsidyCache(params *chaincfg.Params) *SubsidyCache {
	return &SubsidyCache{
		cache:  make(map[int64]int64),
		params: params,
	}
}

// CalcBlockSubsidy returns the proof-of-work subsidy a coinbase at the
// provided height should pay, applying a halving every
// SubsidyHalvingInterval blocks until the subsidy reaches zero.
//
// Safe for concurrent access.
func (s *SubsidyCache) CalcBlockSubsidy(height int32) int64 {
	halvings := int64(height) / int64(s.params.SubsidyHalvingInterval)

	// 64 halvings takes any nonzero subsidy to zero, same as Bitcoin.
	if halvings >= 64 {
		return 0
	}

	s.mtx.RLock()
	cached, ok := s.cache[halvings]
	s.mtx.RUnlock()
	if ok {
		return cached
	}

	subsidy := s.params.InitialProofOfWorkReward >> uint(halvings)

	s.mtx.Lock()
	s.cache[halvings] = subsidy
	s.mtx.Unlock()

	return subsidy
}

// GetBlockSubsidy returns the proof-of-work block subsidy for height using
// the given parameters, without caching. It exists alongside
// SubsidyCache.CalcBlockSubsidy for call sites that assemble a single block
// and have no cache to reuse.
func GetBlockSubsidy(height int32, params *chaincfg.Params) int64 {
	halvings := int64(height) / int64(params.SubsidyHalvingInterval)
	if halvings >= 64 {
		return 0
	}
	return params.InitialProofOfWorkReward >> uint(halvings)
}

// GetProofOfStakeReward returns the fixed proof-of-stake block reward paid
// out through the coinstake, which does not follow the halving schedule.
func GetProofOfStakeReward(params *chaincfg.Params) int64 {
	return params.InitialProofOfStakeReward
}
