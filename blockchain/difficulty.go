// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/chaincfg"
)

var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// oneLsh256 is 1 shifted left 256 bits, used in CalcWork.
	oneLsh256 = new(big.Int).Lsh(bigOne, 256)
)

// HashToBig converts a chainhash.Hash into a big.Int that can be used to
// perform math comparisons.
func HashToBig(hash *chainhash.Hash) *big.Int {
	// A Hash is in little-endian, but the big package wants the bytes in
	// big-endian, so reverse them.
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}

	return new(big.Int).SetBytes(buf[:])
}

// CompactToBig converts a compact representation of a whole number N, held
// in an unsigned 32-bit number, to a big integer. The representation is
// similar to IEEE754 floating point numbers.
//
// Like IEEE754 floating point, there are three basic components: the sign,
// the exponent, and the mantissa. They are broken out as follows:
//
//   - the most significant 8 bits represent the unsigned base 256 exponent
//   - bit 23 (the 24th bit) represents the sign bit
//   - the least significant 23 bits represent the mantissa
//
//	-------------------------------------------------
//	|   Exponent     |    Sign    |    Mantissa     |
//	-------------------------------------------------
//	| 8 bits [31-24] | 1 bit [23] | 23 bits [22-00] |
//	-------------------------------------------------
//
// The formula to calculate N is:
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
//
// This compact form is only used to encode unsigned 256-bit numbers which
// represent difficulty targets, so there is no real need for a sign bit,
// but it is implemented here to stay consistent with the reference client.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}

	return bn
}

// BigToCompact converts a whole number N to a compact representation using
// an unsigned 32-bit number. The compact representation only provides 23
// bits of precision, so values larger than (2^23 - 1) only encode the most
// significant digits of the number. See CompactToBig for details.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))

	if exponent <= 3 {
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}
	return compact
}

// CalcWork calculates a work value from difficulty bits. The block chain
// increases the difficulty for generating a block by decreasing the value
// which the generated hash must be less than. The difficulty target is
// stored in each block header using the compact representation described
// above. Since a lower target value equates to higher actual difficulty,
// the work value accumulated must be the inverse of the difficulty. To
// avoid potential division by zero and very small floating point numbers,
// the result adds 1 to the denominator and multiplies the numerator by
// 2^256.
func CalcWork(bits uint32) *big.Int {
	difficultyTarget := CompactToBig(bits)
	if difficultyTarget.Sign() <= 0 {
		return big.NewInt(0)
	}

	denominator := new(big.Int).Add(difficultyTarget, bigOne)
	return new(big.Int).Div(oneLsh256, denominator)
}

// targetSpacing is the desired average number of seconds between blocks
// that the retarget below aims to hold, independent of whether the block
// that achieved it was proof-of-work or proof-of-stake.
const targetSpacing = 60

// targetTimespan is the largest spacing, in seconds, the retarget will
// credit between two blocks of the same kind; a longer measured gap is
// clamped to it, bounding how far one slow interval can ease the target.
const targetTimespan = 60 * 60

// NextTargetRequired computes the difficulty target the next block must
// meet, selecting from the most recent ancestor of the same kind (PoW or
// PoS) and applying a bounded per-block adjustment towards the spacing
// implied by the time since that ancestor. Proof-of-work and proof-of-stake
// blocks are retargeted independently of one another: each kind walks back
// through the chain until it finds the last block it produced and measures
// the elapsed time against that, so a burst of staking activity does not
// skew the proof-of-work target and vice versa.
func NextTargetRequired(prev *BlockNode, proofOfStake bool, params *chaincfg.Params) uint32 {
	limit := params.PowLimit
	if proofOfStake {
		limit = params.PosLimit
	}
	if prev == nil {
		return limit
	}

	last := lastBlockOfKind(prev, proofOfStake)
	if last == nil || last.parent == nil {
		return limit
	}

	prevOfLast := lastBlockOfKind(last.parent, proofOfStake)
	if prevOfLast == nil {
		return limit
	}

	actualSpacing := last.timestamp - prevOfLast.timestamp
	if actualSpacing < 0 {
		actualSpacing = 0
	} else if actualSpacing > targetTimespan {
		actualSpacing = targetTimespan
	}

	target := CompactToBig(last.bits)
	target.Mul(target, big.NewInt(actualSpacing+(targetSpacing*9)))
	target.Div(target, big.NewInt(targetSpacing*10))

	powLimit := CompactToBig(limit)
	if target.Cmp(powLimit) > 0 {
		target.Set(powLimit)
	}
	if target.Sign() <= 0 {
		return limit
	}

	return BigToCompact(target)
}

// lastBlockOfKind walks backwards from node, inclusive, until it finds a
// block whose IsProofOfStake matches proofOfStake.
func lastBlockOfKind(node *BlockNode, proofOfStake bool) *BlockNode {
	for n := node; n != nil; n = n.parent {
		if n.IsProofOfStake() == proofOfStake {
			return n
		}
	}
	return nil
}
