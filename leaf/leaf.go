// Package leaf is the thinnest possible stand-in for the B+tree node that
// would normally embed a key list in a full tree engine: a single
// fixed-capacity byte buffer, large enough to let a zint32.KeyList grow
// into, with no page splitting, parent/child linkage, or persistence of
// its own.
package leaf

import (
	"github.com/nanokv/nanokv"
	"github.com/nanokv/nanokv/zint32"
)

// Leaf owns a byte buffer and the KeyList built over it. It satisfies
// zint32.GrowHandler: when the key list's own in-range block growth isn't
// enough, Leaf reallocates a bigger buffer (up to its capacity) and hands
// it to the key list via ChangeRangeSize.
type Leaf struct {
	buf      []byte
	capacity int
	keys     *zint32.KeyList
}

// New creates a Leaf with an empty key list over a buffer of initialSize
// bytes, which may grow up to capacity bytes.
func New(codec zint32.Codec, initialSize, capacity int, stats nanokv.StatsSink) *Leaf {
	l := &Leaf{buf: make([]byte, initialSize), capacity: capacity}
	l.keys = zint32.New(l.buf, codec, l, stats)
	return l
}

// Open wraps an already-initialized buffer (e.g. one read back from a
// page) of capacity bytes, without touching its contents.
func Open(data []byte, capacity int, codec zint32.Codec, stats nanokv.StatsSink) *Leaf {
	l := &Leaf{buf: data, capacity: capacity}
	l.keys = zint32.Open(l.buf, codec, l, stats)
	return l
}

// Keys returns the key list this leaf owns.
func (l *Leaf) Keys() *zint32.KeyList { return l.keys }

// Bytes returns the leaf's current backing buffer, e.g. for writing back
// to a page.
func (l *Leaf) Bytes() []byte { return l.buf }

// GrowBlockSize implements zint32.GrowHandler: it grows this leaf's
// buffer by at least the amount the key list needs and reinstalls it on
// the key list, unless doing so would exceed capacity, in which case
// ErrLimitsReached propagates so the caller can split this leaf instead.
func (l *Leaf) GrowBlockSize(index *zint32.Index, newSize uint16) error {
	additional := int(newSize) - int(index.BlockSize())
	if additional <= 0 {
		return nil
	}

	required := len(l.buf) + additional
	if required > l.capacity {
		return nanokv.ErrLimitsReached
	}

	grown := make([]byte, required)
	copy(grown, l.buf)
	l.buf = grown
	l.keys.ChangeRangeSize(l.buf)
	return nil
}
