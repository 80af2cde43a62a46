package zint32

import "encoding/binary"

// DeltaVarintCodec stores a block's body as successive differences from
// the previous key (the first body key's delta is taken from Value),
// each delta LEB128-encoded. It implements only the three required Codec
// methods; find, insert, append, delete and select all fall back to the
// adapter's generic decompress-operate-recompress path, exercising that
// path the way IdentityCodec's native implementations never do.
type DeltaVarintCodec struct{}

// maxVarintSize is the longest a LEB128-encoded uint32 delta can be.
const maxVarintSize = 5

func (DeltaVarintCodec) Compress(index *Index, in []uint32, out []byte) (usedSize uint16) {
	prev := index.Value()
	n := 0
	for _, k := range in {
		n += binary.PutUvarint(out[n:], uint64(k-prev))
		prev = k
	}
	return uint16(n)
}

func (DeltaVarintCodec) Decompress(index *Index, payload []byte, out []uint32) []uint32 {
	count := int(index.KeyCount()) - 1
	result := out[:count]
	prev := index.Value()
	off := 0
	for i := 0; i < count; i++ {
		delta, n := binary.Uvarint(payload[off:])
		off += n
		prev += uint32(delta)
		result[i] = prev
	}
	return result
}

func (DeltaVarintCodec) EstimateRequiredSize(index *Index, payload []byte, newKey uint32) uint16 {
	return index.KeyCount() * maxVarintSize
}
