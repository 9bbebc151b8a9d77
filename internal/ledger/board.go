// Package ledger is an in-memory stand-in for the chain the DKG runs on: a bulletin board that accepts one payload
// per author and round within the round's window, and a block clock that serves as round clock.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/smartcontractkit/dkgbeacon/internal/dkg"
	"github.com/smartcontractkit/libocr/commontypes"
)

var (
	ErrAlreadyInitialized = errors.New("committee already initialized")
	ErrNotInitialized     = errors.New("committee not initialized")
	ErrUnknownEpoch       = errors.New("unknown epoch")
	ErrEpochExists        = errors.New("epoch already opened")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// Board is safe for concurrent use. Published material is append-only: posts are never replaced or removed.
type Board struct {
	mu        sync.RWMutex
	clock     dkg.Clock
	logger    commontypes.Logger
	committee *dkg.Committee
	schedules map[uint64]dkg.Schedule
	epochs    map[uint64]*dkg.Transcript
}

var (
	_ dkg.Broadcaster      = &Board{}
	_ dkg.TranscriptReader = &Board{}
)

func NewBoard(clock dkg.Clock, logger commontypes.Logger) *Board {
	return &Board{
		clock:     clock,
		logger:    logger,
		schedules: make(map[uint64]dkg.Schedule),
		epochs:    make(map[uint64]*dkg.Transcript),
	}
}

// InitializeCommittee sets the committee at genesis. It can be called once.
func (b *Board) InitializeCommittee(committee *dkg.Committee) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.committee != nil {
		return ErrAlreadyInitialized
	}
	b.committee = committee
	return nil
}

// OpenEpoch starts accepting payloads for an epoch. Epoch windows must not overlap.
func (b *Board) OpenEpoch(epoch uint64, startTick uint64) (dkg.Schedule, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.committee == nil {
		return dkg.Schedule{}, ErrNotInitialized
	}
	if _, ok := b.schedules[epoch]; ok {
		return dkg.Schedule{}, fmt.Errorf("%w: %d", ErrEpochExists, epoch)
	}
	schedule := dkg.Schedule{Epoch: epoch, StartTick: startTick, Boundaries: b.committee.Boundaries()}
	for _, other := range b.schedules {
		if schedule.StartTick < other.EndTick() && other.StartTick < schedule.EndTick() {
			return dkg.Schedule{}, fmt.Errorf("%w: epoch %d overlaps epoch %d", ErrEpochExists, epoch, other.Epoch)
		}
	}
	b.schedules[epoch] = schedule
	b.epochs[epoch] = dkg.NewTranscript(epoch)
	return schedule, nil
}

// Submit validates and publishes a payload. See dkg.Broadcaster for the rules enforced.
func (b *Board) Submit(ctx context.Context, payload dkg.Payload) error {
	tick, err := b.clock.CurrentTick(ctx)
	if err != nil {
		return fmt.Errorf("failed to read block clock: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.committee == nil {
		return ErrNotInitialized
	}
	header := payload.PayloadHeader()
	schedule, ok := b.schedules[header.Epoch]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownEpoch, header.Epoch)
	}
	if !b.committee.Roster().Contains(header.Author) {
		return fmt.Errorf("%w: unknown author %d", ErrInvalidPayload, header.Author)
	}
	if phase := schedule.PhaseAt(tick); phase != payload.Phase() {
		return fmt.Errorf("%w: %s payload at tick %d (%s)", dkg.ErrOutsideRound, payload.Phase(), tick, phase)
	}
	transcript := b.epochs[header.Epoch]
	if transcript.Posted(payload.Phase(), header.Author) {
		return fmt.Errorf("%w: author %d, %s", dkg.ErrAlreadyPosted, header.Author, payload.Phase())
	}

	if err := b.validate(transcript, payload); err != nil {
		return err
	}
	transcript.Add(payload)
	return nil
}

func (b *Board) validate(transcript *dkg.Transcript, payload dkg.Payload) error {
	switch p := payload.(type) {
	case *dkg.EncryptionKeyPost:
		if !p.PublicKey.IsValid() {
			return fmt.Errorf("%w: invalid encryption key", ErrInvalidPayload)
		}
	case *dkg.SharesPost:
		if len(p.EncryptedShares) != b.committee.N() {
			return fmt.Errorf("%w: %d shares for %d participants", ErrInvalidPayload, len(p.EncryptedShares), b.committee.N())
		}
		if len(p.Commitment) != b.committee.Threshold() || p.Commitment.Curve() != b.committee.Curve() {
			return fmt.Errorf("%w: commitment does not match the committee", ErrInvalidPayload)
		}
		if expected := transcript.Checkpoint(dkg.PhaseRound0); p.Round0Checkpoint != expected {
			b.logger.Warn("ledger: rejecting shares with stale round 0 checkpoint", commontypes.LogFields{
				"epoch":    p.Epoch,
				"author":   p.Author,
				"expected": expected.Hex(),
				"actual":   p.Round0Checkpoint.Hex(),
			})
			return fmt.Errorf("%w: round 0 checkpoint %s, expected %s", dkg.ErrStaleCheckpoint, p.Round0Checkpoint.Hex(), expected.Hex())
		}
	case *dkg.DisputesPost:
		for _, d := range p.Disputes {
			if !b.committee.Roster().Contains(d.Dealer) {
				return fmt.Errorf("%w: dispute against unknown dealer %d", ErrInvalidPayload, d.Dealer)
			}
		}
		if expected := transcript.Checkpoint(dkg.PhaseRound1); p.Round1Checkpoint != expected {
			b.logger.Warn("ledger: rejecting disputes with stale round 1 checkpoint", commontypes.LogFields{
				"epoch":    p.Epoch,
				"author":   p.Author,
				"expected": expected.Hex(),
				"actual":   p.Round1Checkpoint.Hex(),
			})
			return fmt.Errorf("%w: round 1 checkpoint %s, expected %s", dkg.ErrStaleCheckpoint, p.Round1Checkpoint.Hex(), expected.Hex())
		}
	default:
		return fmt.Errorf("%w: unknown payload type %T", ErrInvalidPayload, payload)
	}
	return nil
}

// ReadTranscript returns a snapshot of the epoch's published material.
func (b *Board) ReadTranscript(_ context.Context, epoch uint64) (*dkg.Transcript, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	transcript, ok := b.epochs[epoch]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEpoch, epoch)
	}
	return transcript.Clone(), nil
}
