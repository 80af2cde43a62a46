package zint32

import "sort"

// decompress returns the decoded body of a block (the key_count-1 keys
// that follow Value), using scratch as backing storage. If the block
// holds at most one key, no decoding happens at all.
func decompress(codec Codec, index *Index, payload []byte, scratch []uint32) []uint32 {
	if index.KeyCount() <= 1 {
		return scratch[:0]
	}
	return codec.Decompress(index, payload, scratch)
}

// findLowerBound locates the first body key >= key, preferring a codec's
// native search over its compressed form and falling back to a full
// decompress-and-binary-search otherwise. position is 0-based within the
// body; matched is the key found there, or the block's own Value when
// the body is empty (the caller has already ruled out key == Value by
// this point, so any sentinel distinct from key is sufficient here).
func findLowerBound(codec Codec, index *Index, payload []byte, key uint32, scratch []uint32) (position int, matched uint32) {
	if index.KeyCount() <= 1 {
		return 0, index.Value()
	}
	if fb, ok := codec.(LowerBoundFinder); ok {
		return fb.FindLowerBound(index, payload, key)
	}
	body := decompress(codec, index, payload, scratch)
	n := len(body)
	pos := sort.Search(n, func(i int) bool { return body[i] >= key })
	if pos == n {
		return pos, body[n-1]
	}
	return pos, body[pos]
}

// insert places key into the block, preferring a codec's native insert
// over decompress-operate-recompress. If key < index.Value(), the two
// are swapped so the block's minimum stays in Value. position uses
// block-slot numbering (slot 0 is Value; a body position p is reported
// as p+1). inserted is false without modifying anything if key is
// already present.
func insert(codec Codec, index *Index, payload []byte, key uint32, scratch []uint32) (inserted bool, position int, newUsedSize uint16) {
	if ins, ok := codec.(Inserter); ok {
		return ins.Insert(index, payload, key)
	}

	body := decompress(codec, index, payload, scratch)

	if key < index.Value() {
		old := index.Value()
		index.SetValue(key)
		key = old
	}

	n := len(body)
	pos := n
	if n > 0 {
		pos = sort.Search(n, func(i int) bool { return body[i] >= key })
		if pos < n && body[pos] == key {
			return false, 0, 0
		}
	}

	newBody := scratch[:n+1]
	if pos < n {
		copy(newBody[pos+1:n+1], body[pos:n])
	}
	newBody[pos] = key

	index.SetKeyCount(index.KeyCount() + 1)
	usedSize := codec.Compress(index, newBody, payload)
	index.SetUsedSize(usedSize)
	return true, pos + 1, usedSize
}

// append places key (guaranteed greater than index.Highest() by the
// caller) at the tail of the block, preferring a codec's native append.
// position uses the same block-slot numbering as insert.
func appendKey(codec Codec, index *Index, payload []byte, key uint32, scratch []uint32) (position int, newUsedSize uint16) {
	if ap, ok := codec.(Appender); ok {
		return ap.Append(index, payload, key)
	}

	body := decompress(codec, index, payload, scratch)
	n := len(body)
	newBody := scratch[:n+1]
	copy(newBody, body)
	newBody[n] = key

	index.SetKeyCount(index.KeyCount() + 1)
	usedSize := codec.Compress(index, newBody, payload)
	index.SetUsedSize(usedSize)
	return n + 1, usedSize
}

// del removes the key at slot (block-slot numbering; slot 0 means
// Value itself, in which case the first body key is promoted into
// Value), preferring a codec's native delete. Highest is recomputed from
// the new last body key, or from Value if the block becomes a
// singleton.
func del(codec Codec, index *Index, payload []byte, slot int, scratch []uint32) (newUsedSize uint16) {
	if d, ok := codec.(Deleter); ok {
		return d.Delete(index, payload, slot)
	}

	body := decompress(codec, index, payload, scratch)
	keyCount := int(index.KeyCount())

	if slot == 0 {
		index.SetValue(body[0])
		slot++
	}
	if slot < keyCount-1 {
		copy(body[slot-1:keyCount-2], body[slot:keyCount-1])
	}

	index.SetKeyCount(uint16(keyCount - 1))
	if index.KeyCount() <= 1 {
		index.SetHighest(index.Value())
	} else {
		index.SetHighest(body[index.KeyCount()-2])
	}

	if index.KeyCount() > 1 {
		usedSize := codec.Compress(index, body[:index.KeyCount()-1], payload)
		index.SetUsedSize(usedSize)
		return usedSize
	}
	index.SetUsedSize(0)
	return 0
}

// selectKey returns the key at position (block-slot numbering; position
// 0 is always Value), preferring a codec's native select.
func selectKey(codec Codec, index *Index, payload []byte, position int, scratch []uint32) uint32 {
	if position == 0 {
		return index.Value()
	}
	if s, ok := codec.(Selector); ok {
		return s.Select(index, payload, position-1)
	}
	body := decompress(codec, index, payload, scratch)
	return body[position-1]
}
