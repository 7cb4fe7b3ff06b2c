// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the consensus parameters the block-production
// core is configured against: activation times for the protocol's staged
// rule changes, the proof-of-stake timestamp mask, coinbase/coinstake
// maturity, and the block-size and subsidy schedule.
package chaincfg

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// StakeTimestampMask bits are cleared from every coinstake transaction's
// and every proof-of-stake block's time, quantizing both to a coarser grid
// so that kernel hash search happens over a bounded, enumerable space.
const StakeTimestampMaskBits = 4

// ConsensusDeployment defines details related to a specific consensus rule
// change that is voted in, mirroring the segwit-style activation idiom.
type ConsensusDeployment struct {
	// StartTime is the median block time after which voting on the
	// deployment starts.
	StartTime uint64

	// ExpireTime is the median block time after which the attempted
	// deployment expires.
	ExpireTime uint64
}

// Params defines a blackcoin network by its parameters. These parameters
// may be used by Go code in order to customize the staking and block
// assembly behavior for a specific network.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net uint32

	// GenesisHash is the hash of the first block of the chain.
	GenesisHash chainhash.Hash

	// ProtocolV2Time is the median-time-past after which protocol-v2
	// kernel and coinstake timestamp rules apply (quantized timestamps,
	// modified kernel hash ordering).
	ProtocolV2Time int64

	// ProtocolV3_1Time is the median-time-past after which m_lock_time_cutoff
	// for IsFinalTx switches from the block's own time to the previous
	// block's median-time-past.
	ProtocolV3_1Time int64

	// StakeMinAge is the minimum coin age, in seconds, an output must
	// accumulate before it is eligible as kernel input.
	StakeMinAge int64

	// StakeMaxAge is the coin age, in seconds, beyond which further
	// weighting of an output in the kernel target no longer increases;
	// zero means unbounded.
	StakeMaxAge int64

	// CoinbaseMaturity is the number of blocks that must be built on top
	// of the block containing a coinbase or coinstake output before it
	// can be spent.
	CoinbaseMaturity int64

	// StakeTimestampMask is applied, via bitwise AND of its complement,
	// to coinstake transaction times and proof-of-stake block times once
	// ProtocolV2Time has passed.
	StakeTimestampMask uint32

	// SubsidyHalvingInterval is the number of blocks between each
	// subsidy halving.
	SubsidyHalvingInterval int32

	// InitialProofOfWorkReward and InitialProofOfStakeReward are the
	// base block subsidies, in the smallest coin unit, before halving.
	InitialProofOfWorkReward  int64
	InitialProofOfStakeReward int64

	// MaxBlockWeight is the maximum block weight (bytes, witness data
	// counted at a quarter weight) producible by the assembler.
	MaxBlockWeight int64

	// MaxBlockSigOpsCost is the maximum accumulated sigop cost allowed
	// in an assembled block.
	MaxBlockSigOpsCost int64

	// CoinbaseReserveWeight and CoinbaseReserveSigOpCost are subtracted
	// from the block's budget up front to leave room for the coinbase
	// (and, in PoS blocks, the coinstake).
	CoinbaseReserveWeight    int64
	CoinbaseReserveSigOpCost int64

	// SegwitDeployment governs activation of witness-bearing
	// transactions and the witness commitment output.
	SegwitDeployment ConsensusDeployment

	// PowLimit defines the highest allowed proof-of-work target.
	PowLimit uint32

	// PosLimit defines the highest allowed proof-of-stake target.
	PosLimit uint32
}

// IsProtocolV2 reports whether the protocol-v2 timestamp and kernel rules
// are active for a block whose time is blockTime.
func (p *Params) IsProtocolV2(blockTime int64) bool {
	return blockTime >= p.ProtocolV2Time
}

// IsProtocolV3_1 reports whether the protocol-v3.1 final-transaction
// lock-time-cutoff rule is active for a block whose time is blockTime.
func (p *Params) IsProtocolV3_1(blockTime int64) bool {
	return blockTime >= p.ProtocolV3_1Time
}

// DeploymentActiveAt reports whether dep is active given the previous
// block's median-time-past, using the simple start/expire window; there is
// no LOCKED_IN/ACTIVE distinction here since the block-production core only
// needs to know whether to reserve space for and build the witness
// commitment, not to run the voting state machine itself.
func DeploymentActiveAt(medianTimePast int64, dep ConsensusDeployment) bool {
	mtp := uint64(medianTimePast)
	return mtp >= dep.StartTime && mtp < dep.ExpireTime
}

// MainNetParams defines the network parameters for the main network.
var MainNetParams = Params{
	Name:                      "mainnet",
	Net:                       0xf9beb4d9,
	ProtocolV2Time:            1424817600,
	ProtocolV3_1Time:          1447200000,
	StakeMinAge:               60 * 60,
	StakeMaxAge:               60 * 60 * 24 * 30,
	CoinbaseMaturity:          50,
	StakeTimestampMask:        (1 << StakeTimestampMaskBits) - 1,
	SubsidyHalvingInterval:    210000,
	InitialProofOfWorkReward:  10 * 1e8,
	InitialProofOfStakeReward: 6 * 1e8,
	MaxBlockWeight:            4000000,
	MaxBlockSigOpsCost:        80000,
	CoinbaseReserveWeight:     4000,
	CoinbaseReserveSigOpCost:  400,
	SegwitDeployment: ConsensusDeployment{
		StartTime:  1479168000,
		ExpireTime: 1510704000,
	},
	PowLimit: 0x1e0fffff,
	PosLimit: 0x1e00ffff,
}

// TestNet3Params defines the network parameters for the test network.
var TestNet3Params = Params{
	Name:                      "testnet3",
	Net:                       0x0709110b,
	ProtocolV2Time:            1390574400,
	ProtocolV3_1Time:          1447200000,
	StakeMinAge:               2 * 60,
	StakeMaxAge:               60 * 60 * 24,
	CoinbaseMaturity:          10,
	StakeTimestampMask:        (1 << StakeTimestampMaskBits) - 1,
	SubsidyHalvingInterval:    210000,
	InitialProofOfWorkReward:  10 * 1e8,
	InitialProofOfStakeReward: 6 * 1e8,
	MaxBlockWeight:            4000000,
	MaxBlockSigOpsCost:        80000,
	CoinbaseReserveWeight:     4000,
	CoinbaseReserveSigOpCost:  400,
	SegwitDeployment: ConsensusDeployment{
		StartTime:  0,
		ExpireTime: 999999999999,
	},
	PowLimit: 0x1e0fffff,
	PosLimit: 0x1e00ffff,
}

// SimNetParams defines the network parameters to use for a simulation test
// network. Deployment and protocol windows are wide open so tests do not
// need to mine past activation heights.
var SimNetParams = Params{
	Name:                      "simnet",
	Net:                       0x12141c16,
	ProtocolV2Time:            0,
	ProtocolV3_1Time:          0,
	StakeMinAge:               10,
	StakeMaxAge:               60 * 60,
	CoinbaseMaturity:          6,
	StakeTimestampMask:        (1 << StakeTimestampMaskBits) - 1,
	SubsidyHalvingInterval:    210000,
	InitialProofOfWorkReward:  10 * 1e8,
	InitialProofOfStakeReward: 6 * 1e8,
	MaxBlockWeight:            4000000,
	MaxBlockSigOpsCost:        80000,
	CoinbaseReserveWeight:     4000,
	CoinbaseReserveSigOpCost:  400,
	SegwitDeployment: ConsensusDeployment{
		StartTime:  0,
		ExpireTime: 999999999999,
	},
	PowLimit: 0x207fffff,
	PosLimit: 0x207fffff,
}

// NowUnix is a seam over time.Now used so tests can control the staking
// loop's notion of the current time without relying on wall-clock sleeps.
var NowUnix = func() int64 { return time.Now().Unix() }
