package password

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-keyauth/pkg/errors"
)

func TestPoolHashAndCheck(t *testing.T) {
	pool := NewPool(testHasher(t), 2)
	ctx := context.Background()

	encoded, err := pool.HashAndCheck(ctx, "pw1")
	require.NoError(t, err)

	ok, err := testHasher(t).Verify("pw1", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	again, err := pool.HashAndCheck(ctx, "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, encoded, again, "each hash gets a fresh salt")
}

func TestPoolConcurrent(t *testing.T) {
	pool := NewPool(testHasher(t), 1)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.HashAndCheck(ctx, "pw")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestPoolCancelledContext(t *testing.T) {
	pool := NewPool(testHasher(t), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pool.HashAndCheck(ctx, "pw")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInternal))
}
