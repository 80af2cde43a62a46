// Package zint32 implements a compressed key list for monotonically
// increasing 32-bit integer keys, as used by a B+tree leaf node: a sorted
// key sequence is partitioned into variable-sized compressed blocks, each
// described by a small fixed-size index record.
package zint32

import "encoding/binary"

// indexSize is the packed, on-disk size of one Index record: offset,
// blockSize, usedSize, keyCount (all uint16), then value, highest (both
// uint32).
const indexSize = 16

// kSizeofOverhead is the static overhead of a key list: the block_count
// and used_size header words.
const kSizeofOverhead = 8

// Capability flags a KeyList publishes to the B+tree layer that embeds it.
const (
	KHasSequentialData    = false
	KSupportsBlockScans   = true
	KCustomFind           = true
	KCustomFindLowerBound = true
	KCustomInsert         = true
	KSizeofOverhead       = kSizeofOverhead
)

// Index is an accessor over one packed, 16-byte entry of a key list's
// index table. It never copies; every getter and setter reads or writes
// directly through Raw, which must point at exactly indexSize bytes of
// the owning key list's buffer. No Go struct is ever laid directly over
// the buffer, since Go does not guarantee a struct's in-memory layout is
// packed the way this on-disk format requires.
type Index struct {
	Raw []byte
}

// Offset returns the payload offset, relative to the start of the
// payload region.
func (idx *Index) Offset() uint16 { return binary.LittleEndian.Uint16(idx.Raw[0:2]) }

// SetOffset sets the payload offset.
func (idx *Index) SetOffset(v uint16) { binary.LittleEndian.PutUint16(idx.Raw[0:2], v) }

// BlockSize returns the number of bytes reserved for this block's payload.
func (idx *Index) BlockSize() uint16 { return binary.LittleEndian.Uint16(idx.Raw[2:4]) }

// SetBlockSize sets the number of bytes reserved for this block's payload.
func (idx *Index) SetBlockSize(v uint16) { binary.LittleEndian.PutUint16(idx.Raw[2:4], v) }

// UsedSize returns the number of bytes actually occupied by the
// compressed payload, always <= BlockSize.
func (idx *Index) UsedSize() uint16 { return binary.LittleEndian.Uint16(idx.Raw[4:6]) }

// SetUsedSize sets the number of bytes actually occupied.
func (idx *Index) SetUsedSize(v uint16) { binary.LittleEndian.PutUint16(idx.Raw[4:6], v) }

// KeyCount returns 1 plus the number of delta-coded keys held in the
// block's payload (the +1 accounts for Value, which is never stored in
// the payload itself).
func (idx *Index) KeyCount() uint16 { return binary.LittleEndian.Uint16(idx.Raw[6:8]) }

// SetKeyCount sets the key count.
func (idx *Index) SetKeyCount(v uint16) { binary.LittleEndian.PutUint16(idx.Raw[6:8], v) }

// Value returns the first (lowest) key of the block.
func (idx *Index) Value() uint32 { return binary.LittleEndian.Uint32(idx.Raw[8:12]) }

// SetValue sets the first key of the block.
func (idx *Index) SetValue(v uint32) { binary.LittleEndian.PutUint32(idx.Raw[8:12], v) }

// Highest returns the cached largest key of the block.
func (idx *Index) Highest() uint32 { return binary.LittleEndian.Uint32(idx.Raw[12:16]) }

// SetHighest sets the cached largest key of the block.
func (idx *Index) SetHighest(v uint32) { binary.LittleEndian.PutUint32(idx.Raw[12:16], v) }

// Initialize zeroes the record and sets its payload offset and reserved
// block size, leaving an empty block (KeyCount 0).
func (idx *Index) Initialize(offset, blockSize uint16) {
	clear(idx.Raw[:indexSize])
	idx.SetOffset(offset)
	idx.SetBlockSize(blockSize)
}

// CopyFrom overwrites idx's fields with other's, without aliasing.
func (idx *Index) CopyFrom(other *Index) {
	copy(idx.Raw[:indexSize], other.Raw[:indexSize])
}

// Swap exchanges idx and other's field contents in place.
func (idx *Index) Swap(other *Index) {
	var tmp [indexSize]byte
	copy(tmp[:], idx.Raw[:indexSize])
	copy(idx.Raw[:indexSize], other.Raw[:indexSize])
	copy(other.Raw[:indexSize], tmp[:])
}
