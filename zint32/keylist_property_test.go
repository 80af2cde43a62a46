package zint32

import (
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func dedupSorted(keys []uint32) []uint32 {
	seen := make(map[uint32]bool, len(keys))
	out := make([]uint32, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TestKeyListInvariants checks properties that must hold for any sequence
// of inserted keys, independent of the specific keys chosen or which codec
// encodes them.
func TestKeyListInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	codecs := []Codec{IdentityCodec{}, DeltaVarintCodec{}}

	properties.Property("inserting a set of keys leaves check_integrity satisfied", prop.ForAll(
		func(raw []uint32) bool {
			want := dedupSorted(raw)
			for _, codec := range codecs {
				kl := New(make([]byte, 64*1024), codec, nil, nil)
				for _, k := range want {
					if _, err := kl.Insert(k); err != nil {
						return false
					}
				}
				if err := kl.CheckIntegrity(len(want)); err != nil {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(40, gen.UInt32Range(0, 10000)),
	))

	properties.Property("every inserted key is found at the slot that returns it", prop.ForAll(
		func(raw []uint32) bool {
			want := dedupSorted(raw)
			kl := New(make([]byte, 64*1024), IdentityCodec{}, nil, nil)
			for _, k := range want {
				if _, err := kl.Insert(k); err != nil {
					return false
				}
			}
			for _, k := range want {
				slot, ok := kl.Find(k)
				if !ok || kl.GetKey(slot) != k {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.UInt32Range(0, 10000)),
	))

	properties.Property("scanning the whole list yields keys in strictly ascending order matching the inserted set", prop.ForAll(
		func(raw []uint32) bool {
			want := dedupSorted(raw)
			kl := New(make([]byte, 64*1024), DeltaVarintCodec{}, nil, nil)
			for _, k := range want {
				if _, err := kl.Insert(k); err != nil {
					return false
				}
			}
			got := collectAll(kl, len(want))
			if len(got) != len(want) {
				return false
			}
			for i := range got {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.UInt32Range(0, 10000)),
	))

	properties.Property("a key absent from the list is never found", prop.ForAll(
		func(raw []uint32, missing uint32) bool {
			want := dedupSorted(raw)
			present := make(map[uint32]bool, len(want))
			for _, k := range want {
				present[k] = true
			}
			if present[missing] {
				return true
			}
			kl := New(make([]byte, 64*1024), IdentityCodec{}, nil, nil)
			for _, k := range want {
				if _, err := kl.Insert(k); err != nil {
					return false
				}
			}
			_, ok := kl.Find(missing)
			return !ok
		},
		gen.SliceOfN(20, gen.UInt32Range(0, 10000)),
		gen.UInt32Range(20000, 30000),
	))

	properties.Property("vacuumize never increases used_size and preserves integrity", prop.ForAll(
		func(raw []uint32) bool {
			want := dedupSorted(raw)
			kl := New(make([]byte, 64*1024), IdentityCodec{}, nil, nil)
			for _, k := range want {
				if _, err := kl.Insert(k); err != nil {
					return false
				}
			}
			before := kl.UsedSize()
			kl.VacuumizeFull()
			after := kl.UsedSize()
			if after > before {
				return false
			}
			return kl.CheckIntegrity(len(want)) == nil
		},
		gen.SliceOfN(30, gen.UInt32Range(0, 10000)),
	))

	properties.Property("erasing every key returns the list to the empty integrity state", prop.ForAll(
		func(raw []uint32) bool {
			want := dedupSorted(raw)
			kl := New(make([]byte, 64*1024), IdentityCodec{}, nil, nil)
			for _, k := range want {
				if _, err := kl.Insert(k); err != nil {
					return false
				}
			}

			remaining := len(want)
			for _, k := range want {
				slot, ok := kl.Find(k)
				if !ok {
					return false
				}
				kl.Erase(remaining, slot)
				remaining--
			}
			return kl.CheckIntegrity(0) == nil
		},
		gen.SliceOfN(20, gen.UInt32Range(0, 10000)),
	))

	properties.Property("copy_to splits a list without losing or reordering keys", prop.ForAll(
		func(raw []uint32, splitFrac uint8) bool {
			want := dedupSorted(raw)
			if len(want) < 2 {
				return true
			}
			split := (len(want) * int(splitFrac%100)) / 100

			src := New(make([]byte, 64*1024), IdentityCodec{}, nil, nil)
			dst := New(make([]byte, 64*1024), IdentityCodec{}, nil, nil)
			for _, k := range want {
				if _, err := src.Insert(k); err != nil {
					return false
				}
			}

			if err := src.CopyTo(split, len(want), dst, 0, 0); err != nil {
				return false
			}

			gotSrc := collectAll(src, split)
			gotDst := collectAll(dst, len(want)-split)

			if len(gotSrc) != split || len(gotDst) != len(want)-split {
				return false
			}
			for i := 0; i < split; i++ {
				if gotSrc[i] != want[i] {
					return false
				}
			}
			for i := split; i < len(want); i++ {
				if gotDst[i-split] != want[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(24, gen.UInt32Range(0, 10000)),
		gen.UInt8Range(0, 255),
	))

	properties.TestingRun(t)
}
