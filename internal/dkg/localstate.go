package dkg

import (
	"context"
	"errors"
	"fmt"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/enckey"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
	"github.com/smartcontractkit/dkgbeacon/internal/kv"
)

// Access shim for the participant's local store. Secrets are written exactly once per epoch: the first write wins and
// is authoritative thereafter, a second write is rejected with ErrAlreadySet.

type epochStatus byte

const (
	epochActive epochStatus = iota
	epochConcluded
	epochAbandoned
)

type epochRecord struct {
	epoch  uint64
	status epochStatus
}

func (r epochRecord) MarshalTo(target codec.Target) {
	target.WriteUint64(r.epoch)
	target.WriteBytes([]byte{byte(r.status)})
}

func (epochRecord) UnmarshalFrom(source codec.Source) epochRecord {
	r := epochRecord{source.ReadUint64(), epochStatus(source.ReadBytes(1)[0])}
	if r.status > epochAbandoned {
		panic(fmt.Sprintf("unknown epoch status %d", r.status))
	}
	return r
}

type persistedPolynomial struct {
	curve math.Curve
	ω     math.Polynomial
}

func (p persistedPolynomial) MarshalTo(target codec.Target) {
	p.curve.MarshalTo(target)
	codec.WriteList(target, p.ω, func(t codec.Target, s math.Scalar) { s.MarshalTo(t) })
}

func (persistedPolynomial) UnmarshalFrom(source codec.Source) persistedPolynomial {
	curve := math.UnmarshalCurve(source)
	ω := codec.ReadList(source, func(s codec.Source) math.Scalar { return curve.Scalar().UnmarshalFrom(s) })
	return persistedPolynomial{curve, ω}
}

type localState struct {
	store LocalStore
	epoch uint64
}

const maxCompareAndSetAttempts = 3

// claimEpoch makes the epoch the participant's active one. Resuming the active epoch is allowed; starting a new one
// requires the previous epoch to be concluded or abandoned.
func (s *localState) claimEpoch(ctx context.Context) error {
	next, err := codec.Marshal(epochRecord{s.epoch, epochActive})
	if err != nil {
		return err
	}
	for range maxCompareAndSetAttempts {
		current, err := s.store.Get(ctx, kv.ActiveEpochKey())
		if err != nil {
			return fmt.Errorf("failed to read active epoch: %w", err)
		}
		if current != nil {
			record, err := codec.Unmarshal(current, epochRecord{})
			if err != nil {
				return fmt.Errorf("failed to decode active epoch: %w", err)
			}
			switch {
			case record.epoch == s.epoch:
				return nil
			case record.epoch > s.epoch:
				return fmt.Errorf("%w: epoch %d, last epoch %d", ErrStaleEpoch, s.epoch, record.epoch)
			case record.status == epochActive:
				return fmt.Errorf("%w: epoch %d is active", ErrEpochInProgress, record.epoch)
			}
		}
		swapped, err := s.store.CompareAndSet(ctx, kv.ActiveEpochKey(), current, next)
		if err != nil {
			return fmt.Errorf("failed to write active epoch: %w", err)
		}
		if swapped {
			return nil
		}
	}
	return errors.New("active epoch changed concurrently")
}

func (s *localState) status(ctx context.Context) (epochStatus, error) {
	record, found, err := kv.ReadObject(ctx, s.store, kv.ActiveEpochKey(), epochRecord{})
	if err != nil {
		return 0, err
	}
	if !found || record.epoch != s.epoch {
		return 0, fmt.Errorf("epoch %d is not the active epoch", s.epoch)
	}
	return record.status, nil
}

func (s *localState) finishEpoch(ctx context.Context, status epochStatus) error {
	current, err := s.store.Get(ctx, kv.ActiveEpochKey())
	if err != nil {
		return fmt.Errorf("failed to read active epoch: %w", err)
	}
	record, err := codec.Unmarshal(current, epochRecord{})
	if err != nil {
		return fmt.Errorf("failed to decode active epoch: %w", err)
	}
	if record.epoch != s.epoch {
		return fmt.Errorf("epoch %d is not the active epoch", s.epoch)
	}
	if record.status != epochActive {
		return nil
	}
	next, err := codec.Marshal(epochRecord{s.epoch, status})
	if err != nil {
		return err
	}
	swapped, err := s.store.CompareAndSet(ctx, kv.ActiveEpochKey(), current, next)
	if err != nil {
		return fmt.Errorf("failed to write active epoch: %w", err)
	}
	if !swapped {
		return errors.New("active epoch changed concurrently")
	}
	return nil
}

func (s *localState) encryptionKey(ctx context.Context) (enckey.KeyPair, bool, error) {
	sk, err := s.store.Get(ctx, kv.EncryptionSecretKey(s.epoch))
	if err != nil || sk == nil {
		return enckey.KeyPair{}, false, err
	}
	kp, err := enckey.KeyPairFromSecret(sk)
	if err != nil {
		return enckey.KeyPair{}, false, fmt.Errorf("persisted encryption secret is invalid: %w", err)
	}
	return kp, true, nil
}

func (s *localState) setEncryptionKey(ctx context.Context, kp enckey.KeyPair) error {
	sk, err := kp.MarshalBinary()
	if err != nil {
		return err
	}
	stored, err := kv.WriteOnce(ctx, s.store, kv.EncryptionSecretKey(s.epoch), sk)
	if err != nil {
		return err
	}
	if !stored {
		return fmt.Errorf("%w: encryption secret of epoch %d", ErrAlreadySet, s.epoch)
	}
	return nil
}

func (s *localState) polynomial(ctx context.Context) (math.Polynomial, bool, error) {
	p, found, err := kv.ReadObject(ctx, s.store, kv.PolynomialKey(s.epoch), persistedPolynomial{})
	return p.ω, found, err
}

func (s *localState) setPolynomial(ctx context.Context, curve math.Curve, ω math.Polynomial) error {
	stored, err := kv.WriteObjectOnce(ctx, s.store, kv.PolynomialKey(s.epoch), persistedPolynomial{curve, ω})
	if err != nil {
		return err
	}
	if !stored {
		return fmt.Errorf("%w: polynomial of epoch %d", ErrAlreadySet, s.epoch)
	}
	return nil
}

func (s *localState) submitted(ctx context.Context, phase Phase) (bool, error) {
	marker, err := s.store.Get(ctx, kv.SubmittedKey(s.epoch, int(phase)))
	return marker != nil, err
}

func (s *localState) markSubmitted(ctx context.Context, phase Phase) error {
	_, err := kv.WriteOnce(ctx, s.store, kv.SubmittedKey(s.epoch, int(phase)), []byte{1})
	return err
}

func (s *localState) result(ctx context.Context) (*Result, bool, error) {
	return kv.ReadObject(ctx, s.store, kv.ResultKey(s.epoch), &Result{})
}

func (s *localState) setResult(ctx context.Context, result *Result) error {
	stored, err := kv.WriteObjectOnce(ctx, s.store, kv.ResultKey(s.epoch), result)
	if err != nil {
		return err
	}
	if !stored {
		return fmt.Errorf("%w: result of epoch %d", ErrAlreadySet, s.epoch)
	}
	return nil
}
