package dkg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
)

// ParticipantIndex is the 1-based position of a participant in the sorted roster.
type ParticipantIndex int

// Boundaries are the round deadlines, in ticks relative to the start of an epoch. Round r accepts contributions for
// ticks in [EndRound(r-1), EndRound(r)), the epoch concludes at EndRound2.
type Boundaries struct {
	EndRound0 uint64
	EndRound1 uint64
	EndRound2 uint64
}

var DefaultBoundaries = Boundaries{EndRound0: 5, EndRound1: 10, EndRound2: 15}

func (b Boundaries) validate() error {
	if !(0 < b.EndRound0 && b.EndRound0 < b.EndRound1 && b.EndRound1 < b.EndRound2) {
		return fmt.Errorf("%w: %d, %d, %d", ErrInvalidBoundaries, b.EndRound0, b.EndRound1, b.EndRound2)
	}
	return nil
}

// CommitteeConfig is the genesis configuration of a committee. Its identities may be given in any order.
type CommitteeConfig struct {
	Identities []common.Address
	Threshold  int
	Boundaries Boundaries
	Curve      string
}

type versionedCommitteeConfig struct {
	V1 *CommitteeConfig
}

// MarshalBinary implements encoding.BinaryMarshaler using JSON as the underlying representation.
func (c CommitteeConfig) MarshalBinary() ([]byte, error) {
	return json.Marshal(versionedCommitteeConfig{V1: &c})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler using JSON as the underlying representation.
func (c *CommitteeConfig) UnmarshalBinary(data []byte) error {
	var versioned versionedCommitteeConfig
	if err := json.Unmarshal(data, &versioned); err != nil {
		return err
	}
	if versioned.V1 == nil {
		return fmt.Errorf("invalid versioned committee config: V1 is nil")
	}
	*c = *versioned.V1
	return nil
}

// Roster maps between participant indices and identities. It is immutable once built.
type Roster struct {
	identities []common.Address
	indices    map[common.Address]ParticipantIndex
}

// NewRoster sorts the identities canonically and assigns indices 1..n.
func NewRoster(identities []common.Address) (*Roster, error) {
	if len(identities) == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrInvalidThreshold)
	}
	sorted := slices.Clone(identities)
	slices.SortFunc(sorted, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })

	indices := make(map[common.Address]ParticipantIndex, len(sorted))
	for i, id := range sorted {
		if _, ok := indices[id]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentity, id.Hex())
		}
		indices[id] = ParticipantIndex(i + 1)
	}
	return &Roster{sorted, indices}, nil
}

func (r *Roster) N() int {
	return len(r.identities)
}

func (r *Roster) Contains(i ParticipantIndex) bool {
	return 1 <= i && int(i) <= len(r.identities)
}

func (r *Roster) Identity(i ParticipantIndex) (common.Address, bool) {
	if !r.Contains(i) {
		return common.Address{}, false
	}
	return r.identities[i-1], true
}

func (r *Roster) IndexOf(id common.Address) (ParticipantIndex, bool) {
	i, ok := r.indices[id]
	return i, ok
}

// Indices returns 1..n.
func (r *Roster) Indices() []ParticipantIndex {
	result := make([]ParticipantIndex, len(r.identities))
	for i := range result {
		result[i] = ParticipantIndex(i + 1)
	}
	return result
}

// Committee is the validated, read-only form of a CommitteeConfig.
type Committee struct {
	roster     *Roster
	threshold  int
	boundaries Boundaries
	curve      math.Curve
}

// NewCommittee validates the configuration: 1 ≤ t ≤ n, distinct identities, strictly increasing boundaries and a
// supported curve. The threshold of a committee can not be changed afterwards.
func NewCommittee(config CommitteeConfig) (*Committee, error) {
	roster, err := NewRoster(config.Identities)
	if err != nil {
		return nil, err
	}
	if config.Threshold < 1 || config.Threshold > roster.N() {
		return nil, fmt.Errorf("%w: t=%d, n=%d", ErrInvalidThreshold, config.Threshold, roster.N())
	}
	if err := config.Boundaries.validate(); err != nil {
		return nil, err
	}
	curve := math.CurveByName(config.Curve)
	if curve == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCurve, config.Curve)
	}
	return &Committee{roster, config.Threshold, config.Boundaries, curve}, nil
}

func (c *Committee) Roster() *Roster        { return c.roster }
func (c *Committee) N() int                 { return c.roster.N() }
func (c *Committee) Threshold() int         { return c.threshold }
func (c *Committee) Boundaries() Boundaries { return c.boundaries }
func (c *Committee) Curve() math.Curve      { return c.curve }

// Config returns the configuration the committee was built from, with identities in canonical order.
func (c *Committee) Config() CommitteeConfig {
	return CommitteeConfig{slices.Clone(c.roster.identities), c.threshold, c.boundaries, c.curve.Name()}
}
