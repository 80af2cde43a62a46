package zint32

import (
	"encoding/binary"
	"sort"
)

const identityElemSize = 4

// IdentityCodec stores each key as a raw little-endian uint32, with no
// compression at all. Because the compressed form already is an array of
// uint32s, IdentityCodec implements every optional capability natively
// and never decompresses on the hot path; it compresses in place.
type IdentityCodec struct{}

func (IdentityCodec) at(payload []byte, i int) uint32 {
	return binary.LittleEndian.Uint32(payload[i*identityElemSize:])
}

func (c IdentityCodec) Compress(index *Index, in []uint32, out []byte) (usedSize uint16) {
	for i, k := range in {
		binary.LittleEndian.PutUint32(out[i*identityElemSize:], k)
	}
	return uint16(len(in) * identityElemSize)
}

func (c IdentityCodec) Decompress(index *Index, payload []byte, out []uint32) []uint32 {
	n := int(index.KeyCount()) - 1
	result := out[:n]
	for i := 0; i < n; i++ {
		result[i] = c.at(payload, i)
	}
	return result
}

func (c IdentityCodec) EstimateRequiredSize(index *Index, payload []byte, newKey uint32) uint16 {
	return uint16(int(index.KeyCount()) * identityElemSize)
}

func (c IdentityCodec) CompressesInPlace() bool { return true }

func (c IdentityCodec) FindLowerBound(index *Index, payload []byte, key uint32) (position int, matched uint32) {
	n := int(index.KeyCount()) - 1
	pos := sort.Search(n, func(i int) bool { return c.at(payload, i) >= key })
	if pos == n {
		return pos, c.at(payload, n-1)
	}
	return pos, c.at(payload, pos)
}

func (c IdentityCodec) Insert(index *Index, payload []byte, key uint32) (inserted bool, position int, newUsedSize uint16) {
	n := int(index.KeyCount()) - 1

	if key < index.Value() {
		old := index.Value()
		index.SetValue(key)
		key = old
	}

	pos := n
	if n > 0 {
		pos = sort.Search(n, func(i int) bool { return c.at(payload, i) >= key })
		if pos < n && c.at(payload, pos) == key {
			return false, 0, 0
		}
	}

	for i := n; i > pos; i-- {
		binary.LittleEndian.PutUint32(payload[i*identityElemSize:], c.at(payload, i-1))
	}
	binary.LittleEndian.PutUint32(payload[pos*identityElemSize:], key)

	index.SetKeyCount(index.KeyCount() + 1)
	used := uint16((n + 1) * identityElemSize)
	index.SetUsedSize(used)
	return true, pos + 1, used
}

func (c IdentityCodec) Append(index *Index, payload []byte, key uint32) (position int, newUsedSize uint16) {
	n := int(index.KeyCount()) - 1
	binary.LittleEndian.PutUint32(payload[n*identityElemSize:], key)

	index.SetKeyCount(index.KeyCount() + 1)
	used := uint16((n + 1) * identityElemSize)
	index.SetUsedSize(used)
	return n + 1, used
}

func (c IdentityCodec) Delete(index *Index, payload []byte, slot int) (newUsedSize uint16) {
	keyCount := int(index.KeyCount())

	if slot == 0 {
		index.SetValue(c.at(payload, 0))
		slot++
	}
	if slot < keyCount-1 {
		for i := slot - 1; i < keyCount-2; i++ {
			binary.LittleEndian.PutUint32(payload[i*identityElemSize:], c.at(payload, i+1))
		}
	}

	index.SetKeyCount(uint16(keyCount - 1))
	if index.KeyCount() <= 1 {
		index.SetHighest(index.Value())
	} else {
		index.SetHighest(c.at(payload, int(index.KeyCount())-2))
	}

	if index.KeyCount() > 1 {
		used := uint16((int(index.KeyCount()) - 1) * identityElemSize)
		index.SetUsedSize(used)
		return used
	}
	index.SetUsedSize(0)
	return 0
}

func (c IdentityCodec) Select(index *Index, payload []byte, position int) uint32 {
	return c.at(payload, position)
}
