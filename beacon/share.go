package beacon

import (
	"bytes"
	"fmt"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/xof"
	"github.com/smartcontractkit/dkgbeacon/internal/dkg"
)

const randomnessDomain = "dkgbeacon/beacon/randomness"

type ParticipantIndex = dkg.ParticipantIndex

// Share is a partial signature over a nonce by one committee member.
type Share struct {
	Creator   ParticipantIndex
	Nonce     []byte
	Signature []byte
}

// Randomness is the combined signature over a nonce. It verifies against the group key alone.
type Randomness struct {
	Nonce     []byte
	Signature []byte
}

var (
	_ codec.Codec[*Share]      = &Share{}
	_ codec.Codec[*Randomness] = &Randomness{}
)

func (s *Share) Equal(other *Share) bool {
	return s.Creator == other.Creator && bytes.Equal(s.Nonce, other.Nonce) && bytes.Equal(s.Signature, other.Signature)
}

func (s *Share) IsNil() bool {
	return s == nil
}

func (s *Share) MarshalTo(target codec.Target) {
	target.WriteInt(int(s.Creator))
	target.WriteLengthPrefixedBytes(s.Nonce)
	target.WriteLengthPrefixedBytes(s.Signature)
}

func (s *Share) UnmarshalFrom(source codec.Source) *Share {
	return &Share{
		ParticipantIndex(source.ReadNonNegativeInt()),
		source.ReadLengthPrefixedBytes(),
		source.ReadLengthPrefixedBytes(),
	}
}

func (s *Share) MarshalBinary() ([]byte, error) {
	return codec.Marshal(s)
}

func (s *Share) UnmarshalBinary(data []byte) error {
	decoded, err := codec.Unmarshal(data, &Share{})
	if err != nil {
		return fmt.Errorf("failed to decode share: %w", err)
	}
	*s = *decoded
	return nil
}

func (r *Randomness) IsNil() bool {
	return r == nil
}

func (r *Randomness) MarshalTo(target codec.Target) {
	target.WriteLengthPrefixedBytes(r.Nonce)
	target.WriteLengthPrefixedBytes(r.Signature)
}

func (r *Randomness) UnmarshalFrom(source codec.Source) *Randomness {
	return &Randomness{source.ReadLengthPrefixedBytes(), source.ReadLengthPrefixedBytes()}
}

func (r *Randomness) MarshalBinary() ([]byte, error) {
	return codec.Marshal(r)
}

func (r *Randomness) UnmarshalBinary(data []byte) error {
	decoded, err := codec.Unmarshal(data, &Randomness{})
	if err != nil {
		return fmt.Errorf("failed to decode randomness: %w", err)
	}
	*r = *decoded
	return nil
}

// Value derives the random output from the combined signature. Only call it on verified randomness.
func (r *Randomness) Value() []byte {
	h := xof.New(randomnessDomain)
	h.WriteBytes(r.Nonce)
	h.WriteBytes(r.Signature)
	return h.Digest()
}
