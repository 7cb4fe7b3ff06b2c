// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockchain

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lateminer/blackcoin-more/wire"
)

// witnessMagicBytes is the prefix (OP_RETURN, push-36, BIP141 marker) every
// witness commitment output carries ahead of its 32-byte commitment hash.
var witnessMagicBytes = []byte{
	0x6a,                   // OP_RETURN
	0x24,                   // Push 36 bytes
	0xaa, 0x21, 0xa9, 0xed, // Commitment header
}

// ComputeWitnessCommitment builds the coinbase witness-commitment output for
// a block's current transaction set, per BIP141: the double-SHA256 of the
// witness merkle root (computed with the coinbase's wtxid forced to the
// zero hash) concatenated with a 32-byte reserved value, which this core
// always sets to zero since it tracks no out-of-band reserved value.
func ComputeWitnessCommitment(txns []*wire.MsgTx) *wire.TxOut {
	if len(txns) == 0 {
		return nil
	}

	witnessHashes := make([]*chainhash.Hash, len(txns))
	zero := chainhash.Hash{}
	witnessHashes[0] = &zero
	for i := 1; i < len(txns); i++ {
		h := txns[i].WitnessHash()
		witnessHashes[i] = &h
	}

	tree := MakeRollingMerkleTree(len(witnessHashes))
	for _, h := range witnessHashes {
		tree.Push(h)
	}
	witnessRoot := tree.Root()

	var reserved chainhash.Hash
	buf := make([]byte, 0, chainhash.HashSize*2)
	buf = append(buf, witnessRoot[:]...)
	buf = append(buf, reserved[:]...)
	commitment := chainhash.DoubleHashH(buf)

	script := make([]byte, 0, len(witnessMagicBytes)+chainhash.HashSize)
	script = append(script, witnessMagicBytes...)
	script = append(script, commitment[:]...)

	return &wire.TxOut{Value: 0, PkScript: script}
}
