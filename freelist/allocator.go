package freelist

import (
	"github.com/nanokv/nanokv"
)

// Allocator combines a Freelist with the PageAllocator device that backs
// it, satisfying page requests from known free extents first and
// falling back to growing the file only when nothing free fits.
type Allocator struct {
	free     *Freelist
	device   nanokv.PageAllocator
	pageSize uint32
}

// NewAllocator creates an Allocator over an empty Freelist.
func NewAllocator(device nanokv.PageAllocator, pageSize uint32, stats nanokv.StatsSink) *Allocator {
	return &Allocator{
		free:     New(pageSize, stats),
		device:   device,
		pageSize: pageSize,
	}
}

// OpenAllocator creates an Allocator whose Freelist is restored from a
// previously persisted state (see DecodeState).
func OpenAllocator(device nanokv.PageAllocator, state []byte, pageSize uint32, stats nanokv.StatsSink) (*Allocator, error) {
	f, err := DecodeState(state, pageSize, stats)
	if err != nil {
		return nil, err
	}
	return &Allocator{free: f, device: device, pageSize: pageSize}, nil
}

// Freelist returns the underlying Freelist, for callers that need direct
// access (e.g. to call EncodeState before a checkpoint).
func (a *Allocator) Freelist() *Freelist { return a.free }

// AllocatePages returns the file offset of numPages contiguous,
// page-aligned pages, preferring a free extent over growing the file.
func (a *Allocator) AllocatePages(numPages uint32) (offset uint64, err error) {
	if offset, ok := a.free.Alloc(numPages); ok {
		return offset, nil
	}
	return a.device.AllocateAligned(int64(numPages) * int64(a.pageSize))
}

// FreePages returns a previously allocated extent to the freelist, where
// a later AllocatePages call may reuse it.
func (a *Allocator) FreePages(offset uint64, numPages uint32) {
	a.free.Put(offset, numPages)
}

// TruncateTo shrinks the backing file to fileSize bytes, first folding in
// every free extent contiguous with the current tail (and any extent
// that becomes contiguous as a result), then truncating the device and
// dropping the folded-in extents from the freelist.
func (a *Allocator) TruncateTo(fileSize uint64) error {
	lowerBound := a.free.Truncate(fileSize)
	if lowerBound == fileSize {
		return nil
	}

	for _, off := range a.free.sortedOffsets() {
		if off >= lowerBound {
			a.free.Remove(off)
		}
	}

	return a.device.Truncate(int64(lowerBound))
}
