package ledger

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/smartcontractkit/dkgbeacon/internal/dkg"
)

// BlockClock derives a block height from wall-clock time: one block per interval since genesis. Use clock.NewMock()
// to step through blocks in tests.
type BlockClock struct {
	clock    clock.Clock
	genesis  time.Time
	interval time.Duration
}

var _ dkg.Clock = &BlockClock{}

// NewBlockClock starts counting blocks at the current time of c.
func NewBlockClock(c clock.Clock, interval time.Duration) *BlockClock {
	if interval <= 0 {
		panic("block interval must be positive")
	}
	return &BlockClock{c, c.Now(), interval}
}

func (b *BlockClock) CurrentTick(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	elapsed := b.clock.Since(b.genesis)
	if elapsed < 0 {
		return 0, nil
	}
	return uint64(elapsed / b.interval), nil
}

// Interval is the duration of one block.
func (b *BlockClock) Interval() time.Duration {
	return b.interval
}

// WaitForTick blocks until the given block height is reached.
func (b *BlockClock) WaitForTick(ctx context.Context, tick uint64) error {
	for {
		current, err := b.CurrentTick(ctx)
		if err != nil {
			return err
		}
		if current >= tick {
			return nil
		}
		timer := b.clock.Timer(b.genesis.Add(time.Duration(tick) * b.interval).Sub(b.clock.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
