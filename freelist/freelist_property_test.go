package freelist

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestFreelistInvariants checks properties that must hold for any sequence
// of Put/Alloc/Truncate calls, independent of the specific extents chosen.
func TestFreelistInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("alloc never returns more pages than requested were available", prop.ForAll(
		func(extentPages, requestPages uint32) bool {
			if extentPages == 0 {
				return true
			}
			f := New(testPageSize, nil)
			f.Put(0, extentPages)

			off, ok := f.Alloc(requestPages)
			if requestPages > extentPages {
				return !ok
			}
			return ok && off == 0
		},
		gen.UInt32Range(1, 64),
		gen.UInt32Range(1, 128),
	))

	properties.Property("splitting an extent preserves its total page count", prop.ForAll(
		func(extentPages, requestPages uint32) bool {
			if requestPages == 0 || requestPages >= extentPages {
				return true
			}
			f := New(testPageSize, nil)
			f.Put(0, extentPages)

			if _, ok := f.Alloc(requestPages); !ok {
				return false
			}

			remaining := uint32(0)
			for _, count := range f.extents {
				remaining += count
			}
			return remaining == extentPages-requestPages
		},
		gen.UInt32Range(2, 64),
		gen.UInt32Range(1, 63),
	))

	properties.Property("allocated extents are pairwise disjoint", prop.ForAll(
		func(a, b uint32) bool {
			if a == 0 || b == 0 {
				return true
			}
			f := New(testPageSize, nil)
			f.Put(0, a+b)

			off1, ok1 := f.Alloc(a)
			off2, ok2 := f.Alloc(b)
			if !ok1 || !ok2 {
				return true
			}

			end1 := off1 + uint64(a)*testPageSize
			end2 := off2 + uint64(b)*testPageSize
			return end1 <= off2 || end2 <= off1
		},
		gen.UInt32Range(1, 32),
		gen.UInt32Range(1, 32),
	))

	properties.Property("a freed extent can be reallocated at the same offset", prop.ForAll(
		func(pages uint32) bool {
			f := New(testPageSize, nil)
			f.Put(1000*testPageSize, pages)
			off, ok := f.Alloc(pages)
			if !ok {
				return false
			}

			f.Put(off, pages)
			gotOff, gotOk := f.Alloc(pages)
			return gotOk && gotOff == off
		},
		gen.UInt32Range(1, 32),
	))

	properties.Property("encode then decode preserves every tracked extent's coverage", prop.ForAll(
		func(offsets []uint32, counts []uint16) bool {
			f := New(testPageSize, nil)
			n := len(offsets)
			if len(counts) < n {
				n = len(counts)
			}
			covered := make(map[uint64]bool)
			for i := 0; i < n; i++ {
				count := uint32(counts[i]%15 + 1)
				off := uint64(offsets[i]) * testPageSize * 100
				f.Put(off, count)
				covered[off] = true
			}

			decoded, err := DecodeState(f.EncodeState(), testPageSize, nil)
			if err != nil {
				return false
			}
			for off := range covered {
				if !decoded.Has(off) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(5, gen.UInt32Range(0, 1000)),
		gen.SliceOfN(5, gen.UInt16Range(0, 65535)),
	))

	properties.Property("truncate never returns a bound above the requested file size", prop.ForAll(
		func(fileSizePages uint32) bool {
			f := New(testPageSize, nil)
			f.Put(uint64(fileSizePages-1)*testPageSize, 1)

			lowerBound := f.Truncate(uint64(fileSizePages) * testPageSize)
			return lowerBound <= uint64(fileSizePages)*testPageSize
		},
		gen.UInt32Range(1, 1000),
	))

	properties.TestingRun(t)
}
