package dkg

import "context"

// Clock is the round clock, typically the block height of a ledger. Ticks must never decrease.
type Clock interface {
	CurrentTick(ctx context.Context) (uint64, error)
}

// Broadcaster publishes payloads to all participants. Implementations enforce one payload per author and round
// (ErrAlreadyPosted), the round windows of the epoch's schedule (ErrOutsideRound), and the checkpoints referenced by
// round 1 and round 2 payloads (ErrStaleCheckpoint).
type Broadcaster interface {
	Submit(ctx context.Context, payload Payload) error
}

// TranscriptReader returns everything published for an epoch so far.
type TranscriptReader interface {
	ReadTranscript(ctx context.Context, epoch uint64) (*Transcript, error)
}

// LocalStore is the participant's durable store, see package kv.
type LocalStore interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	CompareAndSet(ctx context.Context, key []byte, expected []byte, value []byte) (bool, error)
}
