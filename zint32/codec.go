package zint32

// maxKeysPerBlock bounds the scratch buffers the adapter and key list use
// when a codec must be fully decompressed. A block never holds more keys
// than this regardless of codec.
const maxKeysPerBlock = 256

// Codec encodes and decodes the body of a block: the key_count-1 keys
// that follow a block's Value. It never touches Value itself and never
// performs I/O.
//
// Compress writes the encoded body for in (the full, current set of
// non-initial keys, already in increasing order) into out and returns the
// number of bytes written. Decompress is the inverse, filling out with
// the decoded body and returning the filled prefix. EstimateRequiredSize
// returns the worst-case byte length of the block's payload if newKey
// were inserted into it, used by the key list to decide whether a block
// needs to grow before attempting the insert.
type Codec interface {
	Compress(index *Index, in []uint32, out []byte) (usedSize uint16)
	Decompress(index *Index, payload []byte, out []uint32) []uint32
	EstimateRequiredSize(index *Index, payload []byte, newKey uint32) uint16
}

// LowerBoundFinder is an optional Codec capability: searching for the
// lower bound of key directly on the compressed payload, without a full
// decompression. position is 0-based within the decoded body (Value is
// not counted); matched is the key found at position, or the block's
// last body key if key is greater than all of them.
type LowerBoundFinder interface {
	FindLowerBound(index *Index, payload []byte, key uint32) (position int, matched uint32)
}

// Inserter is an optional Codec capability: inserting key directly into
// the compressed payload. position is 1-based within the whole block
// (slot 0 is always Value, so a body insertion reports 1 + its index in
// the decoded body). inserted is false if key already exists.
type Inserter interface {
	Insert(index *Index, payload []byte, key uint32) (inserted bool, position int, newUsedSize uint16)
}

// Appender is an optional Codec capability: appending key (guaranteed
// greater than index.Highest()) directly to the compressed payload.
// position uses the same block-slot numbering as Inserter.
type Appender interface {
	Append(index *Index, payload []byte, key uint32) (position int, newUsedSize uint16)
}

// Deleter is an optional Codec capability: removing the key at slot
// (block-slot numbering, slot 0 meaning Value itself) directly from the
// compressed payload.
type Deleter interface {
	Delete(index *Index, payload []byte, slot int) (newUsedSize uint16)
}

// Selector is an optional Codec capability: returning the body key at
// position (0-based, Value excluded) directly from the compressed
// payload.
type Selector interface {
	Select(index *Index, payload []byte, position int) uint32
}

// InPlaceCompressor is an optional Codec capability flag: a codec that
// compresses in place never relocates a block's payload bytes within its
// reserved space on a Compress call. The key list in this package always
// refetches a block's payload slice by position after any call that
// might move bytes around, so it never needs to consult this flag
// itself; it's surfaced purely as documentation of a codec's own
// property, for a caller that wants to cache a payload pointer across
// calls the way the algorithm this is grounded on does.
type InPlaceCompressor interface {
	CompressesInPlace() bool
}
