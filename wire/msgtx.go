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

const (
	// TxVersion is the current latest supported transaction version.
	TxVersion = 1

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint32 = 0xffffffff

	// defaultTxInOutAlloc is the default size used for the backing array
	// for transaction inputs and outputs. The array will dynamically grow
	// as needed, but this figure is intended to provide enough space for
	// the number of inputs and outputs in a typical transaction without
	// needing to grow the backing array multiple times.
	defaultTxInOutAlloc = 15

	// maxWitnessItemSize is the maximum allowed size for an item in a
	// witness stack.
	maxWitnessItemSize = 11000

	// maxWitnessItemsPerInput is the maximum number of witness items to
	// be read for the witness data for a single TxIn.
	maxWitnessItemsPerInput = 4000
)

// OutPoint defines a bitcoin data type that is used to track previous
// transaction outputs.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// NewOutPoint returns a new bitcoin transaction outpoint point with the
// provided hash and index.
func NewOutPoint(hash *chainhash.Hash, index uint32) *OutPoint {
	return &OutPoint{Hash: *hash, Index: index}
}

// String returns the OutPoint in the human-readable form "hash:index".
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}

// TxIn defines a bitcoin transaction input.
type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Witness          TxWitness
	Sequence         uint32
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction input, excluding any witness data.
func (t *TxIn) SerializeSize() int {
	return chainhash.HashSize + 4 + VarIntSerializeSize(uint64(len(t.SignatureScript))) +
		len(t.SignatureScript) + 4
}

// NewTxIn returns a new bitcoin transaction input with the provided
// previous outpoint point and signature script with a default sequence of
// MaxTxInSequenceNum.
func NewTxIn(prevOut *OutPoint, signatureScript []byte, witness [][]byte) *TxIn {
	return &TxIn{
		PreviousOutPoint: *prevOut,
		SignatureScript:  signatureScript,
		Witness:          witness,
		Sequence:         MaxTxInSequenceNum,
	}
}

// TxWitness defines the witness for a TxIn. A witness is to be interpreted
// as a slice of byte slices, or a stack with one or many elements.
type TxWitness [][]byte

// SerializeSize returns the number of bytes it would take to serialize the
// transaction input's witness.
func (t TxWitness) SerializeSize() int {
	n := VarIntSerializeSize(uint64(len(t)))
	for _, item := range t {
		n += VarIntSerializeSize(uint64(len(item))) + len(item)
	}
	return n
}

// TxOut defines a bitcoin transaction output.
type TxOut struct {
	Value    int64
	PkScript []byte
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction output.
func (t *TxOut) SerializeSize() int {
	return 8 + VarIntSerializeSize(uint64(len(t.PkScript))) + len(t.PkScript)
}

// NewTxOut returns a new bitcoin transaction output with the provided
// transaction value and public key script.
func NewTxOut(value int64, pkScript []byte) *TxOut {
	return &TxOut{Value: value, PkScript: pkScript}
}

// MsgTx implements a transaction message. It is used to deliver coin value
// inputs and outputs for a transaction. Unlike stock Bitcoin, every
// transaction carries a Time field: the kernel hash pre-image and the
// coinstake timestamp rules are defined over it, not over the block header
// timestamp alone.
type MsgTx struct {
	Version  int32
	Time     uint32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// AddTxIn adds a transaction input to the message.
func (msg *MsgTx) AddTxIn(ti *TxIn) {
	msg.TxIn = append(msg.TxIn, ti)
}

// AddTxOut adds a transaction output to the message.
func (msg *MsgTx) AddTxOut(to *TxOut) {
	msg.TxOut = append(msg.TxOut, to)
}

// HasWitness returns false if none of the inputs within the transaction
// contain witness data.
func (msg *MsgTx) HasWitness() bool {
	for _, txIn := range msg.TxIn {
		if len(txIn.Witness) != 0 {
			return true
		}
	}
	return false
}

// TxHash generates the hash for the transaction, used to identify it on the
// chain. Witness data, if present, is excluded: this is the transaction's
// legacy/non-witness id.
func (msg *MsgTx) TxHash() chainhash.Hash {
	buf := bytes.NewBuffer(make([]byte, 0, msg.baseSize()))
	_ = msg.serialize(buf, false)
	return chainhash.DoubleHashH(buf.Bytes())
}

// WitnessHash generates the hash of the transaction serialized according to
// the witness serialization. If a transaction has no witness data, then the
// witness hash equals the transaction hash.
func (msg *MsgTx) WitnessHash() chainhash.Hash {
	if !msg.HasWitness() {
		return msg.TxHash()
	}
	buf := bytes.NewBuffer(make([]byte, 0, msg.SerializeSize()))
	_ = msg.serialize(buf, true)
	return chainhash.DoubleHashH(buf.Bytes())
}

// Copy creates a deep copy of a transaction so that the original does not
// get modified when the copy is manipulated.
func (msg *MsgTx) Copy() *MsgTx {
	newTx := &MsgTx{
		Version:  msg.Version,
		Time:     msg.Time,
		TxIn:     make([]*TxIn, 0, len(msg.TxIn)),
		TxOut:    make([]*TxOut, 0, len(msg.TxOut)),
		LockTime: msg.LockTime,
	}

	for _, oldTxIn := range msg.TxIn {
		newTxIn := &TxIn{
			PreviousOutPoint: OutPoint{
				Hash:  oldTxIn.PreviousOutPoint.Hash,
				Index: oldTxIn.PreviousOutPoint.Index,
			},
			Sequence: oldTxIn.Sequence,
		}
		if len(oldTxIn.SignatureScript) > 0 {
			newTxIn.SignatureScript = make([]byte, len(oldTxIn.SignatureScript))
			copy(newTxIn.SignatureScript, oldTxIn.SignatureScript)
		}
		if len(oldTxIn.Witness) > 0 {
			newWitness := make(TxWitness, len(oldTxIn.Witness))
			for i, w := range oldTxIn.Witness {
				item := make([]byte, len(w))
				copy(item, w)
				newWitness[i] = item
			}
			newTxIn.Witness = newWitness
		}
		newTx.TxIn = append(newTx.TxIn, newTxIn)
	}

	for _, oldTxOut := range msg.TxOut {
		newTxOut := &TxOut{
			Value:    oldTxOut.Value,
			PkScript: make([]byte, len(oldTxOut.PkScript)),
		}
		copy(newTxOut.PkScript, oldTxOut.PkScript)
		newTx.TxOut = append(newTx.TxOut, newTxOut)
	}

	return newTx
}

// IsCoinBase determines whether the transaction is a coinbase transaction: a
// single input whose previous output is null.
func IsCoinBase(msg *MsgTx) bool {
	return len(msg.TxIn) == 1 && msg.TxIn[0].PreviousOutPoint.Index == ^uint32(0) &&
		msg.TxIn[0].PreviousOutPoint.Hash == (chainhash.Hash{})
}

// IsCoinStake determines whether the transaction is a coinstake transaction:
// a first output that is an empty marker (nil value and nil script) backed
// by at least one non-null input.
func IsCoinStake(msg *MsgTx) bool {
	if len(msg.TxIn) < 1 || len(msg.TxOut) < 2 {
		return false
	}
	if msg.TxOut[0].Value != 0 || len(msg.TxOut[0].PkScript) != 0 {
		return false
	}
	prevOut := msg.TxIn[0].PreviousOutPoint
	return prevOut.Index != ^uint32(0) && prevOut.Hash != (chainhash.Hash{})
}

// baseSize returns the serialized size of the transaction without
// accounting for any witness data.
func (msg *MsgTx) baseSize() int {
	n := 12 // Version(4) + Time(4) + LockTime(4)
	n += VarIntSerializeSize(uint64(len(msg.TxIn)))
	for _, txIn := range msg.TxIn {
		n += txIn.SerializeSize()
	}
	n += VarIntSerializeSize(uint64(len(msg.TxOut)))
	for _, txOut := range msg.TxOut {
		n += txOut.SerializeSize()
	}
	return n
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction.
func (msg *MsgTx) SerializeSize() int {
	n := msg.baseSize()
	if msg.HasWitness() {
		n += 2 // marker + flag
		for _, txIn := range msg.TxIn {
			n += txIn.Witness.SerializeSize()
		}
	}
	return n
}

// Serialize encodes the transaction to w, including witness data if present.
func (msg *MsgTx) Serialize(w io.Writer) error {
	return msg.serialize(w, msg.HasWitness())
}

// SerializeNoWitness encodes the transaction to w excluding witness data,
// used for legacy signature hashing and the TxHash identifier.
func (msg *MsgTx) SerializeNoWitness(w io.Writer) error {
	return msg.serialize(w, false)
}

func (msg *MsgTx) serialize(w io.Writer, withWitness bool) error {
	if err := writeInt32(w, msg.Version); err != nil {
		return err
	}
	if err := writeUint32(w, msg.Time); err != nil {
		return err
	}

	hasWitness := withWitness && msg.HasWitness()
	if hasWitness {
		if _, err := w.Write([]byte{0x00, 0x01}); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxIn))); err != nil {
		return err
	}
	for _, ti := range msg.TxIn {
		if err := writeHash(w, &ti.PreviousOutPoint.Hash); err != nil {
			return err
		}
		if err := writeUint32(w, ti.PreviousOutPoint.Index); err != nil {
			return err
		}
		if err := WriteVarBytes(w, ti.SignatureScript); err != nil {
			return err
		}
		if err := writeUint32(w, ti.Sequence); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(msg.TxOut))); err != nil {
		return err
	}
	for _, to := range msg.TxOut {
		if err := writeInt64(w, to.Value); err != nil {
			return err
		}
		if err := WriteVarBytes(w, to.PkScript); err != nil {
			return err
		}
	}

	if hasWitness {
		for _, ti := range msg.TxIn {
			if err := WriteVarInt(w, uint64(len(ti.Witness))); err != nil {
				return err
			}
			for _, item := range ti.Witness {
				if err := WriteVarBytes(w, item); err != nil {
					return err
				}
			}
		}
	}

	return writeUint32(w, msg.LockTime)
}

// Deserialize decodes a transaction from r into the receiver, transparently
// handling the optional segregated witness marker and flag.
func (msg *MsgTx) Deserialize(r io.Reader) error {
	var err error
	if msg.Version, err = readInt32(r); err != nil {
		return err
	}
	if msg.Time, err = readUint32(r); err != nil {
		return err
	}

	count, err := ReadVarInt(r)
	if err != nil {
		return err
	}

	hasWitness := false
	if count == 0 {
		var flag [1]byte
		if _, err := io.ReadFull(r, flag[:]); err != nil {
			return err
		}
		if flag[0] != 0x01 {
			return fmt.Errorf("witness tx but flag byte is not 0x01")
		}
		hasWitness = true
		if count, err = ReadVarInt(r); err != nil {
			return err
		}
	}

	msg.TxIn = make([]*TxIn, 0, minUint64(count, defaultTxInOutAlloc))
	for i := uint64(0); i < count; i++ {
		ti := &TxIn{}
		if err := readHash(r, &ti.PreviousOutPoint.Hash); err != nil {
			return err
		}
		if ti.PreviousOutPoint.Index, err = readUint32(r); err != nil {
			return err
		}
		if ti.SignatureScript, err = ReadVarBytes(r, 1<<22, "signature script"); err != nil {
			return err
		}
		if ti.Sequence, err = readUint32(r); err != nil {
			return err
		}
		msg.TxIn = append(msg.TxIn, ti)
	}

	outCount, err := ReadVarInt(r)
	if err != nil {
		return err
	}
	msg.TxOut = make([]*TxOut, 0, minUint64(outCount, defaultTxInOutAlloc))
	for i := uint64(0); i < outCount; i++ {
		to := &TxOut{}
		if to.Value, err = readInt64(r); err != nil {
			return err
		}
		if to.PkScript, err = ReadVarBytes(r, 1<<22, "pk script"); err != nil {
			return err
		}
		msg.TxOut = append(msg.TxOut, to)
	}

	if hasWitness {
		for _, ti := range msg.TxIn {
			witCount, err := ReadVarInt(r)
			if err != nil {
				return err
			}
			if witCount > maxWitnessItemsPerInput {
				return fmt.Errorf("too many witness items to fit into max message size [count %d]", witCount)
			}
			ti.Witness = make(TxWitness, witCount)
			for j := uint64(0); j < witCount; j++ {
				item, err := ReadVarBytes(r, maxWitnessItemSize, "witness item")
				if err != nil {
					return err
				}
				ti.Witness[j] = item
			}
		}
	}

	msg.LockTime, err = readUint32(r)
	return err
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// NewMsgTx returns a new bitcoin transaction message. The returned instance
// has the provided version and an empty time, input and output list.
func NewMsgTx(version int32) *MsgTx {
	return &MsgTx{
		Version: version,
		TxIn:    make([]*TxIn, 0, defaultTxInOutAlloc),
		TxOut:   make([]*TxOut, 0, defaultTxInOutAlloc),
	}
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	if val < 0xfd {
		return 1
	}
	if val <= 0xffff {
		return 3
	}
	if val <= 0xffffffff {
		return 5
	}
	return 9
}
