// Package freelist tracks freed, page-aligned extents of a database
// file and satisfies allocation requests from them before falling back
// to a device that grows the file.
package freelist

import (
	"sort"

	"github.com/nanokv/nanokv"
)

// Freelist is an in-memory map of file_offset -> page_count describing
// every free extent known to the database. It is not safe for
// concurrent use.
type Freelist struct {
	extents  map[uint64]uint32
	pageSize uint32
	hits     uint64
	misses   uint64
	stats    nanokv.StatsSink
}

// New creates an empty Freelist for a file using the given page size.
// stats may be nil.
func New(pageSize uint32, stats nanokv.StatsSink) *Freelist {
	return &Freelist{
		extents:  make(map[uint64]uint32),
		pageSize: pageSize,
		stats:    stats,
	}
}

func (f *Freelist) updateStat(metric string, sample float64) {
	if f.stats != nil {
		f.stats.UpdateMinMaxAvg(metric, sample)
	}
}

// sortedOffsets returns every extent's file offset in ascending order.
func (f *Freelist) sortedOffsets() []uint64 {
	offsets := make([]uint64, 0, len(f.extents))
	for k := range f.extents {
		offsets = append(offsets, k)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })
	return offsets
}

// Alloc satisfies a request for numPages contiguous pages from the
// first extent (in ascending offset order) that is large enough. An
// exact-size match is consumed entirely; a larger extent is split,
// leaving the remainder registered at the tail of the consumed region.
// ok is false if no extent is big enough.
func (f *Freelist) Alloc(numPages uint32) (offset uint64, ok bool) {
	for _, off := range f.sortedOffsets() {
		count := f.extents[off]
		switch {
		case count == numPages:
			delete(f.extents, off)
			offset, ok = off, true
		case count > numPages:
			delete(f.extents, off)
			f.extents[off+uint64(numPages)*uint64(f.pageSize)] = count - numPages
			offset, ok = off, true
		default:
			continue
		}
		break
	}

	if ok {
		f.hits++
		f.updateStat("freelist_alloc_hit", 1)
	} else {
		f.misses++
		f.updateStat("freelist_alloc_miss", 1)
	}
	return offset, ok
}

// Put registers a freed extent. Coalescing with neighboring extents is
// not attempted; a put that exactly matches an existing offset replaces
// its page count.
func (f *Freelist) Put(offset uint64, pageCount uint32) {
	f.extents[offset] = pageCount
}

// Has reports whether offset is the start of a tracked free extent.
func (f *Freelist) Has(offset uint64) bool {
	_, ok := f.extents[offset]
	return ok
}

// Remove drops the extent starting at offset, if any. Callers use this
// after Truncate to consume an extent that turned out to be contiguous
// with the file's tail.
func (f *Freelist) Remove(offset uint64) {
	delete(f.extents, offset)
}

// Truncate walks extents in descending offset order and, for each
// extent whose end exactly abuts the current lower bound, moves the
// lower bound down to that extent's own offset, continuing through
// however many extents chain together contiguously. The returned lower
// bound is where the file can safely be truncated to; the caller is
// responsible for calling Remove on every extent that was folded in
// (their offsets are every value Truncate passed through below
// fileSize) before truncating the underlying file.
func (f *Freelist) Truncate(fileSize uint64) uint64 {
	offsets := f.sortedOffsets()
	lowerBound := fileSize

	for i := len(offsets) - 1; i >= 0; i-- {
		off := offsets[i]
		if off+uint64(f.extents[off])*uint64(f.pageSize) == lowerBound {
			lowerBound = off
		}
	}
	return lowerBound
}

// Hits returns the number of Alloc calls satisfied from the freelist.
func (f *Freelist) Hits() uint64 { return f.hits }

// Misses returns the number of Alloc calls that found no big enough
// extent.
func (f *Freelist) Misses() uint64 { return f.misses }
