package math

import (
	"crypto/subtle"
	"fmt"
	"slices"

	"filippo.io/edwards25519"
	"filippo.io/nistec"
	"github.com/smartcontractkit/dkgbeacon/internal/codec"
)

type P256Point struct {
	value nistec.P256Point
}

func (v *P256Point) Curve() Curve { return P256 }
func (v *P256Point) New() Point   { return &P256Point{*nistec.NewP256Point()} }
func (v *P256Point) IsNil() bool  { return v == nil }

func (v *P256Point) Clone() Point {
	return &P256Point{*nistec.NewP256Point().Set(&v.value)}
}

func (v *P256Point) Set(u Point) Point {
	v.value.Set(&u.(*P256Point).value)
	return v
}

func (v *P256Point) Add(p Point, q Point) Point {
	v.value.Add(&p.(*P256Point).value, &q.(*P256Point).value)
	return v
}

func (v *P256Point) Subtract(p Point, q Point) Point {
	negQ := nistec.NewP256Point().Negate(&q.(*P256Point).value)
	v.value.Add(&p.(*P256Point).value, negQ)
	return v
}

func (v *P256Point) ScalarBaseMult(x Scalar) Point {
	if _, err := v.value.ScalarBaseMult(x.Bytes()); err != nil {
		panic("P256 scalar base multiplication failed: " + err.Error())
	}
	return v
}

func (v *P256Point) ScalarMult(x Scalar, q Point) Point {
	if _, err := v.value.ScalarMult(&q.(*P256Point).value, x.Bytes()); err != nil {
		panic("P256 scalar multiplication failed: " + err.Error())
	}
	return v
}

func (v *P256Point) Equal(q Point) bool {
	return subtle.ConstantTimeCompare(v.value.BytesCompressed(), q.(*P256Point).value.BytesCompressed()) == 1
}

func (v *P256Point) Bytes() []byte {
	return v.value.BytesCompressed()
}

func (v *P256Point) SetBytes(x []byte) (Point, error) {
	if len(x) != p256CompressedLength {
		return nil, fmt.Errorf("invalid P256 point length: %d, expected: %d", len(x), p256CompressedLength)
	}
	var decoded nistec.P256Point
	if _, err := decoded.SetBytes(x); err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(decoded.BytesCompressed(), x) != 1 {
		return nil, fmt.Errorf("invalid P256 point: not in canonical form")
	}
	v.value.Set(&decoded)
	return v, nil
}

func (v *P256Point) MarshalTo(target codec.Target) {
	target.WriteBytes(v.value.BytesCompressed())
}

func (v *P256Point) UnmarshalFrom(source codec.Source) Point {
	if _, err := v.SetBytes(source.ReadBytes(p256CompressedLength)); err != nil {
		panic("failed to unmarshal P256 point: " + err.Error())
	}
	return v
}

////////////////////////////////////////////////////////////////////////////////////////////////////////////////////////

type Edwards25519Point struct {
	value edwards25519.Point
}

func (v *Edwards25519Point) Curve() Curve { return Edwards25519 }
func (v *Edwards25519Point) New() Point   { return &Edwards25519Point{} }
func (v *Edwards25519Point) IsNil() bool  { return v == nil }

func (v *Edwards25519Point) Clone() Point {
	var c Edwards25519Point
	c.value.Set(&v.value)
	return &c
}

func (v *Edwards25519Point) Set(u Point) Point {
	v.value.Set(&u.(*Edwards25519Point).value)
	return v
}

func (v *Edwards25519Point) Add(p Point, q Point) Point {
	v.value.Add(&p.(*Edwards25519Point).value, &q.(*Edwards25519Point).value)
	return v
}

func (v *Edwards25519Point) Subtract(p Point, q Point) Point {
	v.value.Subtract(&p.(*Edwards25519Point).value, &q.(*Edwards25519Point).value)
	return v
}

func (v *Edwards25519Point) ScalarBaseMult(x Scalar) Point {
	v.value.ScalarBaseMult(toEdwards25519Scalar(x))
	return v
}

func (v *Edwards25519Point) ScalarMult(x Scalar, q Point) Point {
	v.value.ScalarMult(toEdwards25519Scalar(x), &q.(*Edwards25519Point).value)
	return v
}

func (v *Edwards25519Point) Equal(q Point) bool {
	return v.value.Equal(&q.(*Edwards25519Point).value) == 1
}

func (v *Edwards25519Point) Bytes() []byte {
	return v.value.Bytes()
}

func (v *Edwards25519Point) SetBytes(x []byte) (Point, error) {
	var decoded edwards25519.Point
	if _, err := decoded.SetBytes(x); err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(decoded.Bytes(), x) != 1 {
		return nil, fmt.Errorf("invalid Edwards25519 point: not in canonical form")
	}

	// (ℓ-1)·P + P must be the identity for P in the prime-order subgroup.
	var check edwards25519.Point
	check.ScalarMult(edwards25519OrderMinusOne, &decoded)
	check.Add(&check, &decoded)
	if check.Equal(edwards25519.NewIdentityPoint()) != 1 {
		return nil, fmt.Errorf("invalid Edwards25519 point: not in the prime-order subgroup")
	}

	v.value.Set(&decoded)
	return v, nil
}

func (v *Edwards25519Point) MarshalTo(target codec.Target) {
	target.WriteBytes(v.value.Bytes())
}

func (v *Edwards25519Point) UnmarshalFrom(source codec.Source) Point {
	if _, err := v.SetBytes(source.ReadBytes(edwards25519CompressedLength)); err != nil {
		panic("failed to unmarshal Edwards25519 point: " + err.Error())
	}
	return v
}

// ℓ-1, computed as 0-1 mod ℓ.
var edwards25519OrderMinusOne = toEdwards25519Scalar(
	NewScalar(edwards25519GroupOrder).Subtract(NewScalar(edwards25519GroupOrder).SetUint(1)),
)

// edwards25519 expects little-endian scalars, while Scalar encodes big-endian.
func toEdwards25519Scalar(x Scalar) *edwards25519.Scalar {
	xBytes := x.Bytes()
	slices.Reverse(xBytes)
	converted, err := edwards25519.NewScalar().SetCanonicalBytes(xBytes)
	if err != nil {
		panic("invalid Edwards25519 scalar: " + err.Error())
	}
	return converted
}
