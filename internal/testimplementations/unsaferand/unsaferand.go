// Package unsaferand provides deterministic, NOT cryptographically secure randomness for tests.
package unsaferand

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	mrand "math/rand"
	"sync"
)

// UnsafeRand is an io.Reader based on math/rand.Rand. Not safe for concurrent use, see NewLocked.
type UnsafeRand struct {
	*mrand.Rand
}

var _ io.Reader = &UnsafeRand{}

// New returns an UnsafeRand whose output is fully determined by the fmt.Sprintf("%#v") representation of seedArgs.
// Maps have no stable representation and must not be used as seed arguments.
func New(seedArgs ...any) *UnsafeRand {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%#v", seedArgs)
	return &UnsafeRand{mrand.New(mrand.NewSource(int64(h.Sum64())))}
}

type lockedRand struct {
	mu   sync.Mutex
	rand *UnsafeRand
}

// NewLocked is like New, but the returned reader may be shared between goroutines. The interleaving of reads
// between goroutines, and therefore the output seen by each of them, is not deterministic.
func NewLocked(seedArgs ...any) io.Reader {
	return &lockedRand{rand: New(seedArgs...)}
}

func (r *lockedRand) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Read(p)
}

var ErrEntropyUnavailable = errors.New("unsaferand: entropy unavailable")

// FailingReader always fails, for exercising entropy failure paths.
type FailingReader struct{}

func (FailingReader) Read([]byte) (int, error) {
	return 0, ErrEntropyUnavailable
}
