package freelist

import (
	"encoding/binary"
	"fmt"

	"github.com/nanokv/nanokv"
)

// maxTagPageCount is the largest page count a single persisted entry
// can carry: the tag byte's high nibble is 4 bits wide and 0 is
// reserved, leaving 1..15.
const maxTagPageCount = 15

// DecodeState parses a persisted freelist: a little-endian uint32 entry
// count, then that many 1-byte-tag entries. A tag's high nibble is the
// entry's page count (1..15); its low nibble is the number of
// following little-endian bytes (0..8) holding the page id. The
// extent's file offset is page id * pageSize.
func DecodeState(data []byte, pageSize uint32, stats nanokv.StatsSink) (*Freelist, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("freelist: state too short for entry count")
	}
	counter := binary.LittleEndian.Uint32(data[0:4])
	data = data[4:]

	f := New(pageSize, stats)
	for i := uint32(0); i < counter; i++ {
		if len(data) < 1 {
			return nil, fmt.Errorf("freelist: truncated entry tag")
		}
		tag := data[0]
		pageCount := uint32(tag >> 4)
		numBytes := int(tag & 0x0f)
		data = data[1:]

		if pageCount == 0 {
			return nil, fmt.Errorf("freelist: entry has reserved zero page count")
		}
		if numBytes > 8 || len(data) < numBytes {
			return nil, fmt.Errorf("freelist: truncated entry page id")
		}

		var pageID uint64
		for j := 0; j < numBytes; j++ {
			pageID |= uint64(data[j]) << (8 * j)
		}
		data = data[numBytes:]

		f.extents[pageID*uint64(pageSize)] = pageCount
	}
	return f, nil
}

// EncodeState serializes the freelist into DecodeState's format. Any
// extent larger than 15 pages (the largest count a single tag can
// carry) is split into consecutive fixed-offset entries of at most 15
// pages each; DecodeState(EncodeState(f)) reconstructs the same set of
// free bytes, though not necessarily as the same single map entries for
// oversized extents.
func (f *Freelist) EncodeState() []byte {
	type entry struct {
		offset uint64
		count  uint32
	}

	var entries []entry
	for _, off := range f.sortedOffsets() {
		remaining := f.extents[off]
		cur := off
		for remaining > 0 {
			chunk := remaining
			if chunk > maxTagPageCount {
				chunk = maxTagPageCount
			}
			entries = append(entries, entry{offset: cur, count: chunk})
			cur += uint64(chunk) * uint64(f.pageSize)
			remaining -= chunk
		}
	}

	buf := make([]byte, 4, 4+len(entries)*9)
	binary.LittleEndian.PutUint32(buf, uint32(len(entries)))

	for _, e := range entries {
		pageID := e.offset / uint64(f.pageSize)
		numBytes := minimalLEBytes(pageID)
		buf = append(buf, byte(e.count<<4)|byte(numBytes))
		for j := 0; j < numBytes; j++ {
			buf = append(buf, byte(pageID>>(8*j)))
		}
	}
	return buf
}

// minimalLEBytes returns how many little-endian bytes it takes to
// represent v, at least 1 and at most 8.
func minimalLEBytes(v uint64) int {
	n := 1
	for v >>= 8; v > 0; v >>= 8 {
		n++
	}
	if n > 8 {
		n = 8
	}
	return n
}
