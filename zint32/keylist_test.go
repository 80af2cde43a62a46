package zint32

import (
	"testing"

	"github.com/nanokv/nanokv"
	"github.com/stretchr/testify/require"
)

func newTestList(t *testing.T, rangeSize int, codec Codec) *KeyList {
	t.Helper()
	return New(make([]byte, rangeSize), codec, nil, nil)
}

func collectAll(kl *KeyList, nodeCount int) []uint32 {
	var out []uint32
	kl.Scan(func(ks []uint32) { out = append(out, ks...) }, 0, nodeCount)
	return out
}

func TestInsertThenFindInAscendingOrder(t *testing.T) {
	for _, codec := range []Codec{IdentityCodec{}, DeltaVarintCodec{}} {
		kl := newTestList(t, 512, codec)

		inserted := []uint32{10, 20, 30, 5, 25}
		for i, key := range inserted {
			_, err := kl.Insert(key)
			require.NoError(t, err)
			require.NoError(t, kl.CheckIntegrity(i+1))
		}

		for _, key := range inserted {
			slot, ok := kl.Find(key)
			require.True(t, ok)
			require.Equal(t, key, kl.GetKey(slot))
		}

		require.Equal(t, []uint32{5, 10, 20, 25, 30}, collectAll(kl, len(inserted)))
		require.NoError(t, kl.CheckIntegrity(len(inserted)))
	}
}

func TestInsertSplitsBlockWhenFull(t *testing.T) {
	for _, codec := range []Codec{IdentityCodec{}, DeltaVarintCodec{}} {
		kl := newTestList(t, 64*1024, codec)

		keyCount := maxKeysPerBlock + 8
		for i := 0; i < keyCount; i++ {
			_, err := kl.Insert(uint32(i) * 4)
			require.NoError(t, err)
		}

		require.Greater(t, kl.BlockCount(), 1)
		require.NoError(t, kl.CheckIntegrityDeep(keyCount))

		got := collectAll(kl, keyCount)
		require.Len(t, got, keyCount)
		for i := 1; i < len(got); i++ {
			require.Less(t, got[i-1], got[i])
		}
	}
}

func TestInsertDuplicateIsRejected(t *testing.T) {
	for _, codec := range []Codec{IdentityCodec{}, DeltaVarintCodec{}} {
		kl := newTestList(t, 512, codec)

		for _, key := range []uint32{1, 2, 3} {
			_, err := kl.Insert(key)
			require.NoError(t, err)
		}

		_, err := kl.Insert(2)
		require.ErrorIs(t, err, nanokv.ErrDuplicateKey)
		require.NoError(t, kl.CheckIntegrity(3))
	}
}

func TestEraseLastKeyLeavesEmptySingleBlock(t *testing.T) {
	for _, codec := range []Codec{IdentityCodec{}, DeltaVarintCodec{}} {
		kl := newTestList(t, 512, codec)

		_, err := kl.Insert(7)
		require.NoError(t, err)

		slot, ok := kl.Find(7)
		require.True(t, ok)

		kl.Erase(1, slot)

		require.Equal(t, 1, kl.BlockCount())
		require.Equal(t, kSizeofOverhead+indexSize+initialBlockSize, kl.UsedSize())
		require.NoError(t, kl.CheckIntegrity(0))
	}
}

func TestFindLowerBoundThreeWayResult(t *testing.T) {
	kl := newTestList(t, 512, IdentityCodec{})
	for _, key := range []uint32{10, 20, 30} {
		_, err := kl.Insert(key)
		require.NoError(t, err)
	}

	slot, cmp := kl.FindLowerBound(5)
	require.Equal(t, -1, cmp)
	require.Equal(t, -1, slot)

	slot, cmp = kl.FindLowerBound(20)
	require.Equal(t, 0, cmp)
	require.Equal(t, uint32(20), kl.GetKey(slot))

	slot, cmp = kl.FindLowerBound(25)
	require.Equal(t, 1, cmp)
	require.Equal(t, uint32(30), kl.GetKey(slot))
}

func TestVacuumizeMinimizesUsedSize(t *testing.T) {
	kl := newTestList(t, 64*1024, IdentityCodec{})

	for i := 0; i < 40; i++ {
		_, err := kl.Insert(uint32(i) * 10)
		require.NoError(t, err)
	}
	for i := 0; i < 40; i += 2 {
		slot, ok := kl.Find(uint32(i) * 10)
		require.True(t, ok)
		kl.Erase(40-i/2, slot)
	}

	before := kl.UsedSize()
	kl.VacuumizeFull()
	after := kl.UsedSize()

	require.LessOrEqual(t, after, before)
	// 20 keys left in one block: Value plus 19 four-byte body keys.
	require.Equal(t, kSizeofOverhead+indexSize+19*identityElemSize, after)
	require.NoError(t, kl.CheckIntegrity(20))
}

func TestCopyToPreservesCombinedOrder(t *testing.T) {
	src := newTestList(t, 64*1024, IdentityCodec{})
	dst := newTestList(t, 64*1024, IdentityCodec{})

	var all []uint32
	for i := 0; i < 30; i++ {
		key := uint32(i) * 3
		_, err := src.Insert(key)
		require.NoError(t, err)
		all = append(all, key)
	}

	require.NoError(t, src.CopyTo(15, 30, dst, 0, 0))

	srcKeys := collectAll(src, 15)
	dstKeys := collectAll(dst, 15)

	require.Equal(t, all[:15], srcKeys)
	require.Equal(t, all[15:], dstKeys)
}
