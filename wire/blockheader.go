// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"io"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Block flags recorded in BlockHeader.Flags. A block's kind is consensus
// data, not inferred: the proof-of-stake miner sets BlockProofOfStake on
// every header it produces, and validation trusts that bit rather than
// re-deriving it from the coinstake position.
const (
	// BlockProofOfStake marks a block as staked rather than mined. The
	// second transaction in such a block is the coinstake.
	BlockProofOfStake uint32 = 1 << 0

	// BlockStakeModifier is set once a block's stake modifier has been
	// computed and cached in the block index; it never travels on the wire.
	BlockStakeModifier uint32 = 1 << 1
)

// MaxBlockHeaderPayload is the maximum number of bytes a block header can be.
// Version 4 bytes + PrevBlock 32 bytes + MerkleRoot 32 bytes + Timestamp 4
// bytes + Bits 4 bytes + Nonce 4 bytes + Flags 4 bytes.
const MaxBlockHeaderPayload = 16 + (chainhash.HashSize * 2) + 4

// BlockHeader defines information about a block and is used in the MsgBlock
// message.
type BlockHeader struct {
	// Version of the block. This is not the same as the protocol version.
	Version int32

	// Hash of the previous block in the block chain.
	PrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	MerkleRoot chainhash.Hash

	// Time the block was created. Encoded as a uint32 unix timestamp on
	// the wire.
	Timestamp time.Time

	// Difficulty target for the block, compact representation.
	Bits uint32

	// Nonce used to generate the block, meaningful only for
	// proof-of-work blocks.
	Nonce uint32

	// Flags records block-kind bits, notably BlockProofOfStake.
	Flags uint32
}

// blockHeaderLen is the number of bytes in a serialized block header.
const blockHeaderLen = 84

// IsProofOfStake reports whether the header is flagged as a staked block.
func (h *BlockHeader) IsProofOfStake() bool {
	return h.Flags&BlockProofOfStake != 0
}

// BlockHash computes the block identifier hash for the given block header.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, MaxBlockHeaderPayload))
	_ = writeBlockHeader(buf, h)
	return chainhash.HashH(buf.Bytes())
}

// Deserialize decodes a block header from r into the receiver.
func (h *BlockHeader) Deserialize(r io.Reader) error {
	return readBlockHeader(r, h)
}

// FromBytes deserializes a block header byte slice.
func (h *BlockHeader) FromBytes(b []byte) error {
	return h.Deserialize(bytes.NewReader(b))
}

// Serialize encodes the block header to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	return writeBlockHeader(w, h)
}

// Bytes returns a byte slice containing the serialized header.
func (h *BlockHeader) Bytes() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, MaxBlockHeaderPayload))
	if err := h.Serialize(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewBlockHeader returns a new BlockHeader using the provided previous block
// hash, merkle root hash, difficulty bits, and nonce, with the timestamp set
// to the current time and Flags left at zero (proof-of-work).
func NewBlockHeader(version int32, prevHash, merkleRootHash *chainhash.Hash,
	bits uint32, nonce uint32) *BlockHeader {

	return &BlockHeader{
		Version:    version,
		PrevBlock:  *prevHash,
		MerkleRoot: *merkleRootHash,
		Timestamp:  time.Unix(time.Now().Unix(), 0),
		Bits:       bits,
		Nonce:      nonce,
	}
}

func readBlockHeader(r io.Reader, bh *BlockHeader) error {
	var err error
	if bh.Version, err = readInt32(r); err != nil {
		return err
	}
	if err = readHash(r, &bh.PrevBlock); err != nil {
		return err
	}
	if err = readHash(r, &bh.MerkleRoot); err != nil {
		return err
	}
	sec, err := readUint32(r)
	if err != nil {
		return err
	}
	bh.Timestamp = time.Unix(int64(sec), 0)
	if bh.Bits, err = readUint32(r); err != nil {
		return err
	}
	if bh.Nonce, err = readUint32(r); err != nil {
		return err
	}
	if bh.Flags, err = readUint32(r); err != nil {
		return err
	}
	return nil
}

func writeBlockHeader(w io.Writer, bh *BlockHeader) error {
	if err := writeInt32(w, bh.Version); err != nil {
		return err
	}
	if err := writeHash(w, &bh.PrevBlock); err != nil {
		return err
	}
	if err := writeHash(w, &bh.MerkleRoot); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(bh.Timestamp.Unix())); err != nil {
		return err
	}
	if err := writeUint32(w, bh.Bits); err != nil {
		return err
	}
	if err := writeUint32(w, bh.Nonce); err != nil {
		return err
	}
	return writeUint32(w, bh.Flags)
}
