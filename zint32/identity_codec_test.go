package zint32

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newSingleBlockIndex(value uint32) *Index {
	idx := &Index{Raw: make([]byte, indexSize)}
	idx.Initialize(0, 64)
	idx.SetValue(value)
	idx.SetHighest(value)
	idx.SetKeyCount(1)
	return idx
}

func TestIdentityCodecInsertKeepsBodySorted(t *testing.T) {
	codec := IdentityCodec{}
	idx := newSingleBlockIndex(10)
	payload := make([]byte, 64)

	for _, key := range []uint32{30, 20, 5, 25} {
		inserted, _, _ := codec.Insert(idx, payload, key)
		require.True(t, inserted)
	}

	require.Equal(t, uint32(5), idx.Value())
	body := codec.Decompress(idx, payload, make([]uint32, idx.KeyCount()-1))
	require.Equal(t, []uint32{10, 20, 25, 30}, body)
}

func TestIdentityCodecInsertRejectsDuplicate(t *testing.T) {
	codec := IdentityCodec{}
	idx := newSingleBlockIndex(10)
	payload := make([]byte, 64)

	codec.Insert(idx, payload, 20)
	inserted, _, _ := codec.Insert(idx, payload, 20)
	require.False(t, inserted)
}

func TestIdentityCodecFindLowerBound(t *testing.T) {
	codec := IdentityCodec{}
	idx := newSingleBlockIndex(10)
	payload := make([]byte, 64)
	for _, key := range []uint32{20, 30, 40} {
		codec.Insert(idx, payload, key)
	}

	pos, matched := codec.FindLowerBound(idx, payload, 25)
	require.Equal(t, 1, pos)
	require.Equal(t, uint32(30), matched)

	pos, matched = codec.FindLowerBound(idx, payload, 100)
	require.Equal(t, 3, pos)
	require.Equal(t, uint32(40), matched)
}

func TestIdentityCodecDeleteFirstPromotesSecondToValue(t *testing.T) {
	codec := IdentityCodec{}
	idx := newSingleBlockIndex(10)
	payload := make([]byte, 64)
	for _, key := range []uint32{20, 30} {
		codec.Insert(idx, payload, key)
	}

	codec.Delete(idx, payload, 0)
	require.Equal(t, uint32(20), idx.Value())
	require.Equal(t, uint16(2), idx.KeyCount())
}

func TestIdentityCodecDeleteLastUpdatesHighest(t *testing.T) {
	codec := IdentityCodec{}
	idx := newSingleBlockIndex(10)
	payload := make([]byte, 64)
	for _, key := range []uint32{20, 30} {
		codec.Insert(idx, payload, key)
	}
	require.Equal(t, uint32(30), idx.Highest())

	codec.Delete(idx, payload, 2)
	require.Equal(t, uint32(20), idx.Highest())
	require.Equal(t, uint16(2), idx.KeyCount())
}
