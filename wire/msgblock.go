// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// defaultTransactionAlloc is the default size used for the backing array
// for transactions. The transaction array will dynamically grow as needed,
// but this figure is intended to provide enough space for the number of
// transactions in the vast majority of blocks without needing to grow the
// backing array multiple times.
const defaultTransactionAlloc = 2048

// MaxBlockPayload is the maximum bytes a block message can be in bytes.
const MaxBlockPayload = 4000000

// maxTxPerBlock bounds the number of transactions read from a serialized
// block, preventing a malformed count from forcing a huge allocation.
const maxTxPerBlock = (MaxBlockPayload / minTxPayload) + 1

// minTxPayload is the minimum possible size in bytes for a transaction:
// 4-byte version + 4-byte time + 1-byte input count + 1-byte output count +
// 4-byte lock time.
const minTxPayload = 14

// TxLoc holds locator data for the offset and length of where a transaction
// is located within a MsgBlock data buffer.
type TxLoc struct {
	TxStart int
	TxLen   int
}

// MsgBlock represents a block message. It is used to deliver block and
// transaction information. A proof-of-stake block's second transaction is
// its coinstake (see IsProofOfStake and Header.IsProofOfStake); Signature
// carries the kernel signature produced with the coinstake's first input's
// key, proving the staker controlled the coins the kernel was checked
// against.
type MsgBlock struct {
	Header       BlockHeader
	Transactions []*MsgTx
	Signature    []byte
}

// AddTransaction adds a transaction to the message.
func (msg *MsgBlock) AddTransaction(tx *MsgTx) {
	msg.Transactions = append(msg.Transactions, tx)
}

// ClearTransactions removes all transactions from the message.
func (msg *MsgBlock) ClearTransactions() {
	msg.Transactions = make([]*MsgTx, 0, defaultTransactionAlloc)
}

// IsProofOfStake reports whether the block is a staked block, as flagged in
// its header.
func (msg *MsgBlock) IsProofOfStake() bool {
	return msg.Header.IsProofOfStake()
}

// Coinbase returns the block's first transaction.
func (msg *MsgBlock) Coinbase() *MsgTx {
	if len(msg.Transactions) == 0 {
		return nil
	}
	return msg.Transactions[0]
}

// Coinstake returns the block's coinstake transaction, which is always the
// second transaction in a proof-of-stake block, or nil for proof-of-work
// blocks.
func (msg *MsgBlock) Coinstake() *MsgTx {
	if !msg.IsProofOfStake() || len(msg.Transactions) < 2 {
		return nil
	}
	return msg.Transactions[1]
}

// BlockHash computes the block identifier hash for this block.
func (msg *MsgBlock) BlockHash() chainhash.Hash {
	return msg.Header.BlockHash()
}

// TxHashes returns a slice of hashes of all of transactions in this block.
func (msg *MsgBlock) TxHashes() ([]chainhash.Hash, error) {
	hashList := make([]chainhash.Hash, 0, len(msg.Transactions))
	for _, tx := range msg.Transactions {
		hashList = append(hashList, tx.TxHash())
	}
	return hashList, nil
}

// Deserialize decodes a block from r into the receiver.
func (msg *MsgBlock) Deserialize(r io.Reader) error {
	if err := msg.Header.Deserialize(r); err != nil {
		return err
	}

	txCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	if txCount > maxTxPerBlock {
		return fmt.Errorf("too many transactions to fit into a block "+
			"[count %d, max %d]", txCount, maxTxPerBlock)
	}

	msg.Transactions = make([]*MsgTx, 0, txCount)
	for i := uint64(0); i < txCount; i++ {
		tx := &MsgTx{}
		if err := tx.Deserialize(r); err != nil {
			return err
		}
		msg.Transactions = append(msg.Transactions, tx)
	}

	msg.Signature, err = ReadVarBytes(r, 520, "block signature")
	return err
}

// Serialize encodes the block to w.
func (msg *MsgBlock) Serialize(w io.Writer) error {
	if err := msg.Header.Serialize(w); err != nil {
		return err
	}

	if err := WriteVarInt(w, uint64(len(msg.Transactions))); err != nil {
		return err
	}
	for _, tx := range msg.Transactions {
		if err := tx.Serialize(w); err != nil {
			return err
		}
	}

	return WriteVarBytes(w, msg.Signature)
}

// SerializeSize returns the number of bytes it would take to serialize the
// block.
func (msg *MsgBlock) SerializeSize() int {
	n := blockHeaderLen
	n += VarIntSerializeSize(uint64(len(msg.Transactions)))
	for _, tx := range msg.Transactions {
		n += tx.SerializeSize()
	}
	n += VarIntSerializeSize(uint64(len(msg.Signature))) + len(msg.Signature)
	return n
}

// Bytes returns the serialized block as a byte slice.
func (msg *MsgBlock) Bytes() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, msg.SerializeSize()))
	if err := msg.Serialize(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NewMsgBlock returns a new bitcoin block message that conforms to the
// MsgBlock type with the given header and an empty transaction list.
func NewMsgBlock(blockHeader *BlockHeader) *MsgBlock {
	return &MsgBlock{
		Header:       *blockHeader,
		Transactions: make([]*MsgTx, 0, defaultTransactionAlloc),
	}
}
