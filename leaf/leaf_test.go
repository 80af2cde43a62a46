package leaf

import (
	"testing"

	"github.com/nanokv/nanokv"
	"github.com/nanokv/nanokv/zint32"
	"github.com/stretchr/testify/require"
)

func TestLeafGrowsBufferWhenBlockNeedsMoreRoom(t *testing.T) {
	l := New(zint32.DeltaVarintCodec{}, 64, 4096, nil)

	for i := uint32(0); i < 200; i++ {
		_, err := l.Keys().Insert(i * 7)
		require.NoError(t, err)
	}

	require.NoError(t, l.Keys().CheckIntegrity(200))
	require.LessOrEqual(t, l.Keys().RangeSize(), 4096)
}

func TestLeafReturnsLimitsReachedAtCapacity(t *testing.T) {
	l := New(zint32.IdentityCodec{}, 64, 128, nil)

	inserted := 0
	for i := uint32(0); i < 500; i++ {
		_, err := l.Keys().Insert(i)
		if err != nil {
			require.ErrorIs(t, err, nanokv.ErrLimitsReached)
			break
		}
		inserted++
	}

	require.Greater(t, inserted, 0)
	require.NoError(t, l.Keys().CheckIntegrity(inserted))
}
