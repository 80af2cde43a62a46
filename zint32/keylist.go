package zint32

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/nanokv/nanokv"
)

// initialBlockSize is the payload size a freshly added block starts
// with, before anything has been inserted into it.
const initialBlockSize = 32

// estimatedKeySize is a deliberately low, fixed estimate of the average
// per-key byte cost a key list contributes to a node's capacity
// planning. It assumes blocks compress well. Nothing in this package
// multiplies it into an actual size computation; no in-scope component
// plans node capacity ahead of time, so it is kept only as a documented
// constant for a future capacity planner to consult.
const estimatedKeySize = 3

// GrowHandler is satisfied by whatever owns the byte range a KeyList is
// built over. A KeyList never grows its own range: growBlockSize only
// ever reshuffles bytes already inside the range it was given. When
// that isn't enough room, the key list calls GrowBlockSize to ask the
// owner to make more room (typically by calling ChangeRangeSize with a
// bigger buffer) before retrying. If GrowBlockSize also fails, or no
// handler was registered, ErrLimitsReached propagates to the caller so
// it can split or redistribute instead.
type GrowHandler interface {
	GrowBlockSize(index *Index, newSize uint16) error
}

// KeyList is a sorted, block-compressed list of uint32 keys, packed
// into a caller-owned byte range: an 8-byte header (block count, used
// size), a table of fixed-size Index records, and the blocks' payload
// bytes. It is not safe for concurrent use; callers serialize access to
// a KeyList the same way they serialize access to the node it belongs
// to.
type KeyList struct {
	data  []byte
	codec Codec
	grow  GrowHandler
	stats nanokv.StatsSink

	scratch  [maxKeysPerBlock]uint32
	scratch2 [maxKeysPerBlock]uint32
}

// New creates a fresh, empty KeyList over data (whose length is the
// list's range size), with a single empty initial block. grow and stats
// may both be nil.
func New(data []byte, codec Codec, grow GrowHandler, stats nanokv.StatsSink) *KeyList {
	kl := &KeyList{data: data, codec: codec, grow: grow, stats: stats}
	kl.initialize()
	return kl
}

// Open wraps an already-initialized byte range, such as one just read
// back from a page, without touching its contents.
func Open(data []byte, codec Codec, grow GrowHandler, stats nanokv.StatsSink) *KeyList {
	return &KeyList{data: data, codec: codec, grow: grow, stats: stats}
}

// RangeSize returns the total number of bytes the list owns.
func (kl *KeyList) RangeSize() int { return len(kl.data) }

// UsedSize returns the number of bytes currently in use, including the
// header and index table.
func (kl *KeyList) UsedSize() int { return kl.usedSize() }

// BlockCount returns the number of blocks currently in the list.
func (kl *KeyList) BlockCount() int { return kl.blockCount() }

func (kl *KeyList) updateStat(metric string, sample float64) {
	if kl.stats != nil {
		kl.stats.UpdateMinMaxAvg(metric, sample)
	}
}

// --- low-level accessors, mirroring get/set_block_count, get/set_used_size,
// get_block_index and get_block_data ---

func (kl *KeyList) blockCount() int {
	return int(binary.LittleEndian.Uint32(kl.data[0:4]))
}

func (kl *KeyList) setBlockCount(n int) {
	binary.LittleEndian.PutUint32(kl.data[0:4], uint32(n))
}

func (kl *KeyList) usedSize() int {
	return int(binary.LittleEndian.Uint32(kl.data[4:8]))
}

func (kl *KeyList) setUsedSize(n int) {
	binary.LittleEndian.PutUint32(kl.data[4:8], uint32(n))
}

// blockIndex returns the Index record at position i in the table. It
// aliases kl.data directly; it is invalidated by anything that moves
// bytes around within kl.data (addBlock, removeBlockAt, growBlockSize,
// vacuumizeWeak) or replaces kl.data outright (ChangeRangeSize).
func (kl *KeyList) blockIndex(i int) *Index {
	off := kSizeofOverhead + i*indexSize
	return &Index{Raw: kl.data[off : off+indexSize]}
}

// blockData returns the payload bytes reserved for index, sized exactly
// to its current BlockSize.
func (kl *KeyList) blockData(index *Index) []byte {
	base := kSizeofOverhead + kl.blockCount()*indexSize + int(index.Offset())
	return kl.data[base : base+int(index.BlockSize())]
}

// --- initialization and structural helpers ---

func (kl *KeyList) initialize() {
	kl.setBlockCount(0)
	kl.setUsedSize(kSizeofOverhead)
	kl.addBlock(0, initialBlockSize)
}

// resetUsedSize recomputes UsedSize from scratch by scanning every
// block's offset and size, used after removing a block whose payload
// sat at the tail of the used region.
func (kl *KeyList) resetUsedSize() {
	used := 0
	for i := 0; i < kl.blockCount(); i++ {
		idx := kl.blockIndex(i)
		if end := int(idx.Offset()) + int(idx.BlockSize()); end > used {
			used = end
		}
	}
	kl.setUsedSize(used + kSizeofOverhead + kl.blockCount()*indexSize)
}

// checkAvailableSize ensures additional more bytes can be used without
// exceeding the range, vacuumizing once if the naive check fails.
func (kl *KeyList) checkAvailableSize(additional int) error {
	if kl.usedSize()+additional <= len(kl.data) {
		return nil
	}
	kl.vacuumizeWeak()
	if kl.usedSize()+additional > len(kl.data) {
		return nanokv.ErrLimitsReached
	}
	return nil
}

// addBlock inserts a new, empty Index record at position, reserving
// initialSize payload bytes for it, and returns it.
func (kl *KeyList) addBlock(position, initialSize int) (*Index, error) {
	if err := kl.checkAvailableSize(initialSize + indexSize); err != nil {
		return nil, err
	}

	indexPtr := kSizeofOverhead + position*indexSize
	if kl.blockCount() != 0 {
		n := kl.usedSize() - indexPtr
		copy(kl.data[indexPtr+indexSize:indexPtr+indexSize+n], kl.data[indexPtr:indexPtr+n])
	}

	kl.setBlockCount(kl.blockCount() + 1)
	kl.setUsedSize(kl.usedSize() + indexSize + initialSize)

	newOffset := kl.usedSize() - kSizeofOverhead - indexSize*kl.blockCount() - initialSize
	idx := kl.blockIndex(position)
	idx.Initialize(uint16(newOffset), uint16(initialSize))
	return idx, nil
}

// removeBlockAt deletes the Index record at position, shifting the
// table and payload region left to close the gap.
func (kl *KeyList) removeBlockAt(position int) {
	idx := kl.blockIndex(position)
	doReset := kl.usedSize() == kSizeofOverhead+kl.blockCount()*indexSize+int(idx.Offset())+int(idx.BlockSize())

	start := kSizeofOverhead + position*indexSize
	n := kl.usedSize() - (start + indexSize)
	copy(kl.data[start:start+n], kl.data[start+indexSize:start+indexSize+n])

	kl.setBlockCount(kl.blockCount() - 1)
	if doReset {
		kl.resetUsedSize()
	} else {
		kl.setUsedSize(kl.usedSize() - indexSize)
	}
}

// findIndex performs a linear scan through the index table and returns
// the position of the block that would hold key, along with the number
// of keys in every preceding block. If key is less than the first
// block's Value, slot is -1.
func (kl *KeyList) findIndex(key uint32) (position int, slot int) {
	idx := kl.blockIndex(0)
	if key < idx.Value() {
		return 0, -1
	}

	n := kl.blockCount()
	pos := 0
	for pos < n-1 {
		next := kl.blockIndex(pos + 1)
		if key < next.Value() {
			break
		}
		slot += int(idx.KeyCount())
		pos++
		idx = next
	}
	return pos, slot
}

// findBlockBySlot locates the block holding the global slot-th key and
// the key's position within that block (block-slot numbering).
func (kl *KeyList) findBlockBySlot(slot int) (position int, positionInBlock int) {
	n := kl.blockCount()
	for i := 0; i < n; i++ {
		kc := int(kl.blockIndex(i).KeyCount())
		if kc > slot {
			return i, slot
		}
		slot -= kc
	}
	return n - 1, slot
}

// growBlockSize reserves newSize payload bytes for the block at
// position, shifting every later block's payload to the right. If the
// range doesn't currently have room, it escalates once to the
// registered GrowHandler (if any) before giving up.
func (kl *KeyList) growBlockSize(position, newSize int) error {
	idx := kl.blockIndex(position)
	additional := newSize - int(idx.BlockSize())

	err := kl.checkAvailableSize(additional)
	// checkAvailableSize may have vacuumized, which shrinks this block's
	// reserved size as well, so the growth is measured again.
	additional = newSize - int(idx.BlockSize())
	if err == nil && kl.usedSize()+additional > len(kl.data) {
		err = nanokv.ErrLimitsReached
	}
	if err != nil {
		if kl.grow == nil {
			return err
		}
		if err := kl.grow.GrowBlockSize(idx, uint16(newSize)); err != nil {
			return err
		}
		// ChangeRangeSize may have replaced kl.data; idx no longer
		// aliases anything meaningful until refetched by position.
		idx = kl.blockIndex(position)
		if err := kl.checkAvailableSize(additional); err != nil {
			return err
		}
	}

	payloadBase := kSizeofOverhead + kl.blockCount()*indexSize
	blockEnd := payloadBase + int(idx.Offset()) + int(idx.BlockSize())
	usedEnd := kl.usedSize()
	if blockEnd < usedEnd {
		n := usedEnd - blockEnd
		copy(kl.data[blockEnd+additional:blockEnd+additional+n], kl.data[blockEnd:blockEnd+n])

		for i := 0; i < kl.blockCount(); i++ {
			other := kl.blockIndex(i)
			if other.Offset() > idx.Offset() {
				other.SetOffset(other.Offset() + uint16(additional))
			}
		}
	}

	idx.SetBlockSize(uint16(newSize))
	kl.setUsedSize(kl.usedSize() + additional)
	return nil
}

// --- public contract ---

// FindLowerBound returns the global slot of the first key >= key, and a
// three-way comparison result: 0 if it matches key exactly, -1 if key is
// smaller than everything in the list, +1 otherwise (key falls strictly
// between the returned slot's key and its predecessor, or past the end).
func (kl *KeyList) FindLowerBound(key uint32) (slot int, cmp int) {
	pos, preSlot := kl.findIndex(key)
	idx := kl.blockIndex(pos)

	if idx.KeyCount() == 0 {
		// Only the sole block of an empty list has no keys; its Value is
		// stale, so key is past the (empty) end.
		return 0, 1
	}
	if key < idx.Value() {
		// preSlot is -1 here: key is smaller than everything in the
		// list, so there's no meaningful slot to return. Callers must
		// check cmp before using slot.
		return preSlot, -1
	}
	if idx.Value() == key {
		return preSlot, 0
	}

	payload := kl.blockData(idx)
	s, result := findLowerBound(kl.codec, idx, payload, key, kl.scratch[:])
	if result != key {
		cmp = 1
	}
	return preSlot + s + 1, cmp
}

// Find returns the global slot of key and true, or false if key isn't
// present.
func (kl *KeyList) Find(key uint32) (slot int, ok bool) {
	slot, cmp := kl.FindLowerBound(key)
	return slot, cmp == 0
}

// Insert places key into the list in sorted order. If the first attempt
// fails with ErrLimitsReached, a full vacuumize is tried once before
// giving up. ErrDuplicateKey leaves the list unchanged.
func (kl *KeyList) Insert(key uint32) (slot int, err error) {
	slot, err = kl.insertImpl(key)
	if errors.Is(err, nanokv.ErrLimitsReached) {
		kl.VacuumizeFull()
		slot, err = kl.insertImpl(key)
	}
	return slot, err
}

func (kl *KeyList) insertImpl(key uint32) (slot int, err error) {
	pos, preSlot := kl.findIndex(key)
	idx := kl.blockIndex(pos)

	if idx.KeyCount() == 0 {
		idx.SetKeyCount(1)
		idx.SetValue(key)
		idx.SetHighest(key)
		return preSlot, nil
	}

	if key == idx.Value() || key == idx.Highest() {
		return 0, nanokv.ErrDuplicateKey
	}

	if int(idx.KeyCount())+1 >= maxKeysPerBlock {
		return kl.splitAndInsert(pos, preSlot, key)
	}

	payload := kl.blockData(idx)
	if size := kl.codec.EstimateRequiredSize(idx, payload, key); size > idx.BlockSize() {
		if err := kl.growBlockSize(pos, int(size)); err != nil {
			return 0, err
		}
		idx = kl.blockIndex(pos)
	}

	payload = kl.blockData(idx)
	s, err := kl.insertOrAppend(idx, payload, key)
	if err != nil {
		return 0, err
	}
	return preSlot + s, nil
}

// insertOrAppend dispatches to the adapter's append when key exceeds the
// block's current Highest, else to insert, and keeps Highest current on
// the append path (the adapter itself has no notion of append-vs-insert
// intent for Highest bookkeeping).
func (kl *KeyList) insertOrAppend(idx *Index, payload []byte, key uint32) (position int, err error) {
	if key > idx.Highest() {
		s, _ := appendKey(kl.codec, idx, payload, key, kl.scratch[:])
		idx.SetHighest(key)
		return s, nil
	}
	inserted, s, _ := insert(kl.codec, idx, payload, key, kl.scratch[:])
	if !inserted {
		return 0, nanokv.ErrDuplicateKey
	}
	return s, nil
}

// splitAndInsert handles a full block: prepend a new singleton block if
// key is smaller than everything in the block, append a new singleton
// block if key is larger than everything, or pivot-split the block
// roughly in half otherwise.
func (kl *KeyList) splitAndInsert(pos, preSlot int, key uint32) (slot int, err error) {
	idx := kl.blockIndex(pos)

	if key < idx.Value() {
		if _, err := kl.addBlock(pos+1, initialBlockSize); err != nil {
			return 0, err
		}
		idx = kl.blockIndex(pos)
		newIdx := kl.blockIndex(pos + 1)
		newIdx.SetKeyCount(1)
		newIdx.SetValue(key)
		newIdx.SetHighest(key)
		idx.Swap(newIdx)

		if preSlot < 0 {
			preSlot = 0
		}
		return preSlot, nil
	}

	if key > idx.Highest() {
		kept := idx.KeyCount()
		if _, err := kl.addBlock(pos+1, initialBlockSize); err != nil {
			return 0, err
		}
		newIdx := kl.blockIndex(pos + 1)
		newIdx.SetKeyCount(1)
		newIdx.SetValue(key)
		newIdx.SetHighest(key)
		return preSlot + int(kept), nil
	}

	return kl.pivotSplitAndInsert(pos, preSlot, key)
}

// pivotSplitAndInsert splits a full block at a four-aligned pivot,
// moving the tail into a new block placed right after it, then inserts
// key into whichever side now covers it.
func (kl *KeyList) pivotSplitAndInsert(pos, preSlot int, key uint32) (slot int, err error) {
	idx := kl.blockIndex(pos)
	data := decompress(kl.codec, idx, kl.blockData(idx), kl.scratch[:])

	toCopy := (int(idx.KeyCount()) / 2) &^ 3
	newKeyCount := int(idx.KeyCount()) - toCopy - 1
	newValue := data[toCopy]
	if newValue == key {
		return 0, nanokv.ErrDuplicateKey
	}
	toCopy++

	tail := append(kl.scratch2[:0], data[toCopy:int(idx.KeyCount())-1]...)
	keptBody := append([]uint32(nil), data[:toCopy-1]...)

	newIdx, err := kl.addBlock(pos+1, int(idx.BlockSize()))
	if err != nil {
		return 0, err
	}
	idx = kl.blockIndex(pos)

	newIdx.SetValue(newValue)
	newIdx.SetHighest(idx.Highest())
	newIdx.SetKeyCount(uint16(newKeyCount))

	idx.SetKeyCount(uint16(toCopy))
	idx.SetHighest(keptBody[len(keptBody)-1])

	if key >= newIdx.Value() {
		idx.SetUsedSize(kl.codec.Compress(idx, keptBody, kl.blockData(idx)))

		newPayload := kl.blockData(newIdx)
		newIdx.SetUsedSize(kl.codec.Compress(newIdx, tail, newPayload))

		base := preSlot + int(idx.KeyCount())
		s, err := kl.insertOrAppend(newIdx, kl.blockData(newIdx), key)
		if err != nil {
			return 0, err
		}
		return base + s, nil
	}

	newPayload := kl.blockData(newIdx)
	newIdx.SetUsedSize(kl.codec.Compress(newIdx, tail, newPayload))
	idx.SetUsedSize(kl.codec.Compress(idx, keptBody, kl.blockData(idx)))

	s, err := kl.insertOrAppend(idx, kl.blockData(idx), key)
	if err != nil {
		return 0, err
	}
	return preSlot + s, nil
}

// Erase removes the key at the global slot. nodeCount is the list's
// total key count before the erase, used to recognize the one-past-end
// position targeting the last block's tail.
func (kl *KeyList) Erase(nodeCount, slot int) {
	var pos, positionInBlock int
	switch {
	case slot == nodeCount:
		pos = kl.blockCount() - 1
		positionInBlock = int(kl.blockIndex(pos).KeyCount())
	default:
		pos, positionInBlock = kl.findBlockBySlot(slot)
	}

	idx := kl.blockIndex(pos)
	if idx.KeyCount() == 1 {
		idx.SetKeyCount(0)
		idx.SetUsedSize(0)
	} else {
		del(kl.codec, idx, kl.blockData(idx), positionInBlock, kl.scratch[:])
	}

	if idx.KeyCount() == 0 && kl.blockCount() > 1 {
		kl.removeBlockAt(pos)
	}
}

// collectFrom decompresses every key from the global slot start to the
// end of the list (nodeCount keys total) into a freshly allocated slice.
func (kl *KeyList) collectFrom(start, nodeCount int) []uint32 {
	size := nodeCount - start
	if size < 0 {
		size = 0
	}
	out := make([]uint32, 0, size)

	pos, posInBlock := kl.findBlockBySlot(start)
	for n := kl.blockCount(); pos < n; pos++ {
		idx := kl.blockIndex(pos)
		body := decompress(kl.codec, idx, kl.blockData(idx), kl.scratch[:])
		if posInBlock == 0 {
			out = append(out, idx.Value())
			out = append(out, body...)
		} else {
			out = append(out, body[posInBlock-1:]...)
		}
		posInBlock = 0
	}
	return out
}

func (kl *KeyList) truncateFrom(start, nodeCount int) error {
	kept := kl.collectFrom(0, nodeCount)[:start]
	kl.initialize()
	for _, k := range kept {
		if _, err := kl.insertImpl(k); err != nil {
			if !errors.Is(err, nanokv.ErrLimitsReached) {
				return err
			}
			kl.VacuumizeFull()
			if _, err := kl.insertImpl(k); err != nil {
				return err
			}
		}
	}
	return nil
}

// CopyTo moves the keys from the global slot srcStart onward out of kl
// and inserts them into dest, which already holds otherCount keys
// (destStart is accepted for contract compatibility; each copied key's
// position in dest is always determined by sort order, not by an
// explicit insertion point). If otherCount is 0, dest is reinitialized
// first.
//
// This is implemented as decompress-and-reinsert rather than the
// block-level byte shuffle the algorithm it's grounded on uses for the
// same operation: the data model's invariants only require the combined
// multiset and order to be preserved across the split, and the B+tree
// layer that would exercise the byte-shuffle fast path isn't part of
// this module.
func (kl *KeyList) CopyTo(srcStart, nodeCount int, dest *KeyList, otherCount, destStart int) error {
	if otherCount == 0 {
		dest.initialize()
	}
	_ = destStart

	for _, k := range kl.collectFrom(srcStart, nodeCount) {
		if _, err := dest.insertImpl(k); err != nil {
			if !errors.Is(err, nanokv.ErrLimitsReached) {
				return err
			}
			dest.VacuumizeFull()
			if _, err := dest.insertImpl(k); err != nil {
				return err
			}
		}
	}

	return kl.truncateFrom(srcStart, nodeCount)
}

// Vacuumize repacks the list to minimize used size. If nodeCount is 0,
// the list is reinitialized to a single empty block; otherwise a full
// vacuumize runs. force is accepted for contract compatibility; like the
// algorithm this is grounded on, it does not change behavior here.
func (kl *KeyList) Vacuumize(nodeCount int, force bool) {
	if nodeCount == 0 {
		kl.initialize()
		return
	}
	kl.VacuumizeFull()
}

// vacuumizeWeak packs every block's payload tightly against its
// neighbors in offset order, preserving block identity, and shrinks
// each BlockSize down to its UsedSize.
func (kl *KeyList) vacuumizeWeak() {
	n := kl.blockCount()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return kl.blockIndex(order[a]).Offset() < kl.blockIndex(order[b]).Offset()
	})

	payloadBase := kSizeofOverhead + n*indexSize
	nextOffset := uint16(0)
	for _, i := range order {
		idx := kl.blockIndex(i)
		if idx.Offset() != nextOffset {
			src := payloadBase + int(idx.Offset())
			dst := payloadBase + int(nextOffset)
			copy(kl.data[dst:dst+int(idx.UsedSize())], kl.data[src:src+int(idx.UsedSize())])
			idx.SetOffset(nextOffset)
		}
		if idx.UsedSize() == 0 {
			idx.SetBlockSize(1)
		} else {
			idx.SetBlockSize(idx.UsedSize())
		}
		nextOffset += idx.BlockSize()
	}

	kl.setUsedSize(payloadBase + int(nextOffset))
}

// VacuumizeFull performs a weak vacuumize, plus any codec-specific
// re-layout. The codecs in this package need no extra re-layout, so it
// is currently identical to the weak pass.
func (kl *KeyList) VacuumizeFull() {
	kl.vacuumizeWeak()
}

// ChangeRangeSize gives the key list a new backing buffer. If the new
// buffer isn't the same one already in use, the currently used bytes
// are copied across. Every offset a KeyList stores is relative to its
// own start, so they remain valid after the move.
func (kl *KeyList) ChangeRangeSize(newData []byte) {
	if len(newData) > 0 && len(kl.data) > 0 && &newData[0] != &kl.data[0] {
		used := kl.usedSize()
		copy(newData[:used], kl.data[:used])
	}
	kl.data = newData
}

// ScanVisitor receives decoded keys during a Scan. It may be called more
// than once per block: once with a single-element slice holding the
// block's Value, and again with the rest of that block's decoded body.
type ScanVisitor func(keys []uint32)

// Scan visits up to count keys starting at the global slot start, in
// order.
func (kl *KeyList) Scan(visitor ScanVisitor, start, count int) {
	for pos := 0; pos < kl.blockCount() && count > 0; pos++ {
		idx := kl.blockIndex(pos)
		kc := int(idx.KeyCount())

		if start > kc {
			start -= kc
			continue
		}

		if start == 0 {
			visitor([]uint32{idx.Value()})
			count--
		}

		body := decompress(kl.codec, idx, kl.blockData(idx), kl.scratch[:])
		from := 0
		if start > 0 {
			from = start - 1
		}
		length := kc - 1 - from
		if length > count {
			length = count
		}
		if length > 0 {
			visitor(body[from : from+length])
			count -= length
		}
		start = 0
	}
}

// GetKey returns the key at the global slot.
func (kl *KeyList) GetKey(slot int) uint32 {
	pos, posInBlock := kl.findBlockBySlot(slot)
	idx := kl.blockIndex(pos)
	return selectKey(kl.codec, idx, kl.blockData(idx), posInBlock, kl.scratch[:])
}

// Print writes the key at the global slot to w, for debugging.
func (kl *KeyList) Print(w io.Writer, slot int) {
	fmt.Fprint(w, kl.GetKey(slot))
}

// CheckIntegrity verifies the data model's invariants against
// nodeCount, the caller's expected total key count.
func (kl *KeyList) CheckIntegrity(nodeCount int) error {
	n := kl.blockCount()
	if n == 0 {
		return fmt.Errorf("zint32: zero blocks: %w", nanokv.ErrIntegrityViolated)
	}

	totalKeys := 0
	used := 0
	var prev *Index

	for i := 0; i < n; i++ {
		idx := kl.blockIndex(i)

		if idx.UsedSize() > idx.BlockSize() {
			return fmt.Errorf("zint32: block %d used size %d exceeds block size %d: %w", i, idx.UsedSize(), idx.BlockSize(), nanokv.ErrIntegrityViolated)
		}
		if idx.KeyCount() > maxKeysPerBlock+1 {
			return fmt.Errorf("zint32: block %d key count %d exceeds maximum: %w", i, idx.KeyCount(), nanokv.ErrIntegrityViolated)
		}
		if idx.Highest() < idx.Value() {
			return fmt.Errorf("zint32: block %d highest below value: %w", i, nanokv.ErrIntegrityViolated)
		}
		if prev != nil && idx.Value() <= prev.Value() {
			return fmt.Errorf("zint32: block %d value not strictly increasing: %w", i, nanokv.ErrIntegrityViolated)
		}
		if nodeCount > 0 && idx.KeyCount() == 0 {
			return fmt.Errorf("zint32: block %d empty in a non-empty list: %w", i, nanokv.ErrIntegrityViolated)
		}
		if idx.KeyCount() == 1 && idx.Highest() != idx.Value() {
			return fmt.Errorf("zint32: singleton block %d has highest != value: %w", i, nanokv.ErrIntegrityViolated)
		}
		if idx.KeyCount() > 1 && idx.UsedSize() == 0 {
			return fmt.Errorf("zint32: block %d has keys but zero used size: %w", i, nanokv.ErrIntegrityViolated)
		}

		totalKeys += int(idx.KeyCount())
		if end := int(idx.Offset()) + int(idx.BlockSize()); end > used {
			used = end
		}
		prev = idx
	}

	used += kSizeofOverhead + n*indexSize
	if used != kl.usedSize() {
		return fmt.Errorf("zint32: used size %d differs from computed %d: %w", kl.usedSize(), used, nanokv.ErrIntegrityViolated)
	}
	if used > len(kl.data) {
		return fmt.Errorf("zint32: used size %d exceeds range size %d: %w", used, len(kl.data), nanokv.ErrIntegrityViolated)
	}
	if totalKeys != nodeCount {
		return fmt.Errorf("zint32: key count %d differs from expected %d: %w", totalKeys, nodeCount, nanokv.ErrIntegrityViolated)
	}
	return nil
}

// CheckIntegrityDeep runs CheckIntegrity, then fully decompresses every
// multi-key block to verify Highest and strict ordering against the
// decoded body. It is never called automatically: the shallow
// CheckIntegrity is enough to enforce the invariants the data model
// requires, and this deep pass costs one decompression per block.
func (kl *KeyList) CheckIntegrityDeep(nodeCount int) error {
	if err := kl.CheckIntegrity(nodeCount); err != nil {
		return err
	}

	for i := 0; i < kl.blockCount(); i++ {
		idx := kl.blockIndex(i)
		if idx.KeyCount() <= 1 {
			continue
		}
		body := decompress(kl.codec, idx, kl.blockData(idx), kl.scratch[:])

		if body[0] <= idx.Value() {
			return fmt.Errorf("zint32: block %d first body key does not exceed value: %w", i, nanokv.ErrIntegrityViolated)
		}
		for j := 1; j < len(body); j++ {
			if body[j-1] >= body[j] {
				return fmt.Errorf("zint32: block %d body not strictly increasing at %d: %w", i, j, nanokv.ErrIntegrityViolated)
			}
		}
		if body[len(body)-1] != idx.Highest() {
			return fmt.Errorf("zint32: block %d highest %d does not match decoded last key %d: %w", i, idx.Highest(), body[len(body)-1], nanokv.ErrIntegrityViolated)
		}
	}
	return nil
}

// FillMetrics reports this list's current shape to its StatsSink: index
// table size, block count, each block's reserved size, and unused bytes
// in the owned range. It is never called automatically; a caller
// tracking btree-wide metrics invokes it after the operations it cares
// about.
func (kl *KeyList) FillMetrics() {
	if kl.stats == nil {
		return
	}
	n := kl.blockCount()
	kl.updateStat("keylist_index_bytes", float64(n*indexSize))
	kl.updateStat("keylist_blocks_per_node", float64(n))

	used := 0
	for i := 0; i < n; i++ {
		idx := kl.blockIndex(i)
		used += indexSize + int(idx.UsedSize())
		kl.updateStat("keylist_block_size_bytes", float64(idx.BlockSize()))
	}
	kl.updateStat("keylist_unused_bytes", float64(len(kl.data)-used))
}
