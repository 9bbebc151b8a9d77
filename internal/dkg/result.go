package dkg

import (
	"fmt"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
)

// Result is a participant's output of a concluded epoch. SecretShare is private, everything else is public and equal
// for all participants of the epoch.
type Result struct {
	Epoch          uint64
	Index          ParticipantIndex
	Threshold      int
	Curve          math.Curve
	CorrectDealers CorrectDealerSet
	SecretShare    math.Scalar
	GroupKey       math.Point
	VerifyKeys     math.Points // VerifyKeys[i-1] = SecretShare_i·G
}

var _ codec.Codec[*Result] = &Result{}

// VerifyKey returns the public key of participant i's share.
func (r *Result) VerifyKey(i ParticipantIndex) (math.Point, error) {
	if i < 1 || int(i) > len(r.VerifyKeys) {
		return nil, fmt.Errorf("participant index %d out of range [1, %d]", i, len(r.VerifyKeys))
	}
	return r.VerifyKeys[i-1], nil
}

func (r *Result) IsNil() bool {
	return r == nil
}

func (r *Result) MarshalTo(target codec.Target) {
	target.WriteUint64(r.Epoch)
	target.WriteInt(int(r.Index))
	target.WriteInt(r.Threshold)
	r.Curve.MarshalTo(target)
	r.CorrectDealers.MarshalTo(target)
	r.SecretShare.MarshalTo(target)
	r.GroupKey.MarshalTo(target)
	codec.WriteList(target, r.VerifyKeys, func(t codec.Target, p math.Point) { p.MarshalTo(t) })
}

func (r *Result) UnmarshalFrom(source codec.Source) *Result {
	result := &Result{}
	result.Epoch = source.ReadUint64()
	result.Index = ParticipantIndex(source.ReadNonNegativeInt())
	result.Threshold = source.ReadNonNegativeInt()
	result.Curve = math.UnmarshalCurve(source)
	result.CorrectDealers = unmarshalCorrectDealerSet(source)
	result.SecretShare = result.Curve.Scalar().UnmarshalFrom(source)
	result.GroupKey = result.Curve.Point().UnmarshalFrom(source)
	result.VerifyKeys = codec.ReadList(source, func(s codec.Source) math.Point { return result.Curve.Point().UnmarshalFrom(s) })
	if len(result.VerifyKeys) != len(result.CorrectDealers) {
		panic(fmt.Sprintf("%d verify keys for %d participants", len(result.VerifyKeys), len(result.CorrectDealers)))
	}
	return result
}
