package erasure

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheGetReturnsUsableEncoder(t *testing.T) {
	c := NewCache()

	enc, err := c.Get(4, 2)
	require.NoError(t, err)
	require.NotNil(t, enc)

	shards := make([][]byte, 6)
	for i := range shards {
		shards[i] = make([]byte, 16)
	}
	for i := 0; i < 4; i++ {
		shards[i][0] = byte(i + 1)
	}
	require.NoError(t, enc.Encode(shards))

	shards[1] = nil
	require.NoError(t, enc.ReconstructData(shards))
	require.Equal(t, byte(2), shards[1][0])
}

func TestCacheReusesSameEncoderInstance(t *testing.T) {
	c := NewCache()

	a, err := c.Get(10, 4)
	require.NoError(t, err)
	b, err := c.Get(10, 4)
	require.NoError(t, err)

	require.Same(t, a, b)
}

func TestCacheConcurrentGetSameShape(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	results := make([]interface{}, 32)
	for i := 0; i < 32; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			enc, err := c.Get(8, 3)
			require.NoError(t, err)
			results[i] = enc
		}()
	}
	wg.Wait()

	for i := 1; i < len(results); i++ {
		require.Same(t, results[0], results[i])
	}
}

func TestCacheDistinctShapesDistinctEncoders(t *testing.T) {
	c := NewCache()

	a, err := c.Get(4, 2)
	require.NoError(t, err)
	b, err := c.Get(5, 2)
	require.NoError(t, err)

	require.NotSame(t, a, b)
}
