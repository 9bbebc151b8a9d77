// Package beacon turns the key shares of a concluded DKG epoch into a threshold randomness beacon. Members sign a
// nonce with their share of the group secret; any t valid signatures from distinct members on the same nonce combine
// into a BLS signature under the group key, whose hash is the beacon output.
package beacon

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/cloudflare/circl/ecc/bls12381"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
	"github.com/smartcontractkit/dkgbeacon/internal/dkg"
	"github.com/smartcontractkit/dkgbeacon/internal/metrics"
)

var (
	ErrNoShares        = errors.New("no shares")
	ErrInvalidShare    = errors.New("invalid share")
	ErrNotEnoughShares = errors.New("not enough shares from distinct members")
	ErrNonceMismatch   = errors.New("shares sign different nonces")
)

// KeyBox holds one member's signing share and the public keys of the whole committee. It is immutable and safe for
// concurrent use.
type KeyBox struct {
	index       ParticipantIndex
	secretShare *bls12381.Scalar
	verifyKeys  []*bls12381.G1
	verifier    *Verifier
	threshold   int
	metrics     *metrics.Metrics
}

// NewKeyBox checks that the keys belong to BLS12-381 G1, that 1 ≤ threshold ≤ n, and that the secret share matches
// the verify key of index.
func NewKeyBox(index ParticipantIndex, secretShare math.Scalar, verifyKeys math.Points, groupKey math.Point, threshold int) (*KeyBox, error) {
	n := len(verifyKeys)
	if threshold < 1 || threshold > n {
		return nil, fmt.Errorf("threshold %d out of range [1, %d]", threshold, n)
	}
	if index < 1 || int(index) > n {
		return nil, fmt.Errorf("participant index %d out of range [1, %d]", index, n)
	}
	if secretShare == nil || !secretShare.Modulus().Equal(math.BLS12381G1.GroupOrder()) {
		return nil, errors.New("secret share is not a BLS12-381 scalar")
	}

	keys := make([]*bls12381.G1, n)
	for i, vk := range verifyKeys {
		p, err := math.AsBLS12381G1(vk)
		if err != nil {
			return nil, fmt.Errorf("verify key of participant %d: %w", i+1, err)
		}
		keys[i] = p.G1()
	}
	verifier, err := NewVerifier(groupKey)
	if err != nil {
		return nil, err
	}
	if !math.BLS12381G1.Point().ScalarBaseMult(secretShare).Equal(verifyKeys[index-1]) {
		return nil, fmt.Errorf("secret share does not match the verify key of participant %d", index)
	}

	return &KeyBox{
		index:       index,
		secretShare: math.ToBLS12381Scalar(secretShare),
		verifyKeys:  keys,
		verifier:    verifier,
		threshold:   threshold,
	}, nil
}

// NewKeyBoxFromResult builds the key box of a concluded DKG epoch. The epoch must have run on BLS12-381 G1.
func NewKeyBoxFromResult(result *dkg.Result) (*KeyBox, error) {
	if result == nil {
		return nil, errors.New("nil result")
	}
	if result.Curve != math.BLS12381G1 {
		return nil, fmt.Errorf("DKG ran on %s, the beacon requires %s", result.Curve.Name(), math.BLS12381G1.Name())
	}
	return NewKeyBox(result.Index, result.SecretShare, result.VerifyKeys, result.GroupKey, result.Threshold)
}

// WithMetrics returns a copy of the key box that reports to m.
func (k *KeyBox) WithMetrics(m *metrics.Metrics) *KeyBox {
	clone := *k
	clone.metrics = m
	return &clone
}

func (k *KeyBox) Index() ParticipantIndex {
	return k.index
}

// Members is the committee size n.
func (k *KeyBox) Members() int {
	return len(k.verifyKeys)
}

func (k *KeyBox) Threshold() int {
	return k.threshold
}

// Verifier returns the group key verifier, for parties that only need to check beacon outputs.
func (k *KeyBox) Verifier() *Verifier {
	return k.verifier
}

// GenerateShare signs nonce with the member's secret share. Signing is deterministic.
func (k *KeyBox) GenerateShare(nonce []byte) *Share {
	k.metrics.ShareGenerated()
	return &Share{k.index, slices.Clone(nonce), sign(k.secretShare, nonce)}
}

// VerifyShare checks the share against the verify key of its creator. Shares from creators outside the committee do
// not verify.
func (k *KeyBox) VerifyShare(share *Share) bool {
	if share == nil || share.Creator < 1 || int(share.Creator) > len(k.verifyKeys) {
		return false
	}
	return verifySignature(k.verifyKeys[share.Creator-1], share.Nonce, share.Signature)
}

// CombineShares interpolates the signature under the group key from the shares. It fails unless the input is
// non-empty, every share verifies, at least t distinct members contributed, and all shares sign the same nonce, with
// the checks applied in that order. Repeated shares of one creator count once.
func (k *KeyBox) CombineShares(shares []*Share) (*Randomness, error) {
	randomness, err := k.combine(shares)
	if err != nil {
		k.metrics.CombineFailed(combineFailureReason(err))
		return nil, err
	}
	k.metrics.RandomnessCombined()
	return randomness, nil
}

func (k *KeyBox) combine(shares []*Share) (*Randomness, error) {
	if len(shares) == 0 {
		return nil, ErrNoShares
	}
	for _, s := range shares {
		if !k.VerifyShare(s) {
			return nil, fmt.Errorf("%w: creator %d", ErrInvalidShare, creatorOf(s))
		}
	}

	byCreator := make(map[ParticipantIndex]*Share, len(shares))
	for _, s := range shares {
		if _, ok := byCreator[s.Creator]; !ok {
			byCreator[s.Creator] = s
		}
	}
	if len(byCreator) < k.threshold {
		return nil, fmt.Errorf("%w: %d < %d", ErrNotEnoughShares, len(byCreator), k.threshold)
	}

	nonce := shares[0].Nonce
	for _, s := range shares[1:] {
		if !bytes.Equal(s.Nonce, nonce) {
			return nil, ErrNonceMismatch
		}
	}

	// Interpolate over the t lowest creators, so the input order never matters.
	creators := slices.Sorted(maps.Keys(byCreator))[:k.threshold]
	xs := make([]int, len(creators))
	for i, c := range creators {
		xs[i] = int(c)
	}
	interpolator, err := math.NewInterpolator(math.BLS12381G1, xs)
	if err != nil {
		return nil, err
	}

	var σ bls12381.G2
	σ.SetIdentity()
	for i, λ := range interpolator.Coefficients() {
		σᵢ, _ := decodeSignature(byCreator[creators[i]].Signature)
		σᵢ.ScalarMult(math.ToBLS12381Scalar(λ), σᵢ)
		σ.Add(&σ, σᵢ)
	}
	return &Randomness{slices.Clone(nonce), σ.BytesCompressed()}, nil
}

// VerifyRandomness checks combined randomness against the group key.
func (k *KeyBox) VerifyRandomness(randomness *Randomness) bool {
	return k.verifier.Verify(randomness)
}

func creatorOf(s *Share) ParticipantIndex {
	if s == nil {
		return 0
	}
	return s.Creator
}

func combineFailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoShares):
		return "no_shares"
	case errors.Is(err, ErrInvalidShare):
		return "invalid_share"
	case errors.Is(err, ErrNotEnoughShares):
		return "not_enough_shares"
	case errors.Is(err, ErrNonceMismatch):
		return "nonce_mismatch"
	default:
		return "other"
	}
}
