package password

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tendant/simple-keyauth/pkg/errors"
	"github.com/tendant/simple-keyauth/pkg/metrics"
)

// Pool bounds the number of concurrent Argon2 computations.
// Each computation holds Params.Memory KiB for its duration, so unbounded
// fan-out under load would exhaust memory.
type Pool struct {
	hasher *Hasher
	sem    *semaphore.Weighted
}

// NewPool creates a Pool allowing at most workers concurrent computations.
// workers <= 0 means GOMAXPROCS.
func NewPool(hasher *Hasher, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		hasher: hasher,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

// HashAndCheck salts and hashes password, then verifies the result against
// the plaintext. A failed self-check is a PasswordHash error and the hash
// must not be stored.
func (p *Pool) HashAndCheck(ctx context.Context, password string) (string, error) {
	if err := p.acquire(ctx); err != nil {
		return "", errors.InternalWrap(err, "hashing cancelled")
	}
	defer p.sem.Release(1)

	salt, err := NewSalt()
	if err != nil {
		return "", err
	}

	start := time.Now()
	encoded, err := p.hasher.Hash(password, salt)
	metrics.RecordHashDuration("hash", time.Since(start))
	if err != nil {
		return "", err
	}

	start = time.Now()
	ok, err := p.hasher.Verify(password, encoded)
	metrics.RecordHashDuration("verify", time.Since(start))
	if err != nil {
		return "", errors.PasswordHash(err, "failed to verify new password hash")
	}
	if !ok {
		return "", errors.PasswordHash(nil, "new password hash did not verify")
	}
	return encoded, nil
}

func (p *Pool) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.sem.Acquire(ctx, 1)
}
