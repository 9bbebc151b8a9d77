package math

import (
	"fmt"

	"github.com/cloudflare/circl/ecc/bls12381"
	"github.com/smartcontractkit/dkgbeacon/internal/codec"
)

// BLS12381G1Point is an element of G1 of the BLS12-381 pairing.
type BLS12381G1Point struct {
	value bls12381.G1
}

func (v *BLS12381G1Point) Curve() Curve { return BLS12381G1 }
func (v *BLS12381G1Point) New() Point   { return BLS12381G1.Point() }
func (v *BLS12381G1Point) IsNil() bool  { return v == nil }

func (v *BLS12381G1Point) Clone() Point {
	return &BLS12381G1Point{v.value}
}

func (v *BLS12381G1Point) Set(u Point) Point {
	v.value = u.(*BLS12381G1Point).value
	return v
}

func (v *BLS12381G1Point) Add(p Point, q Point) Point {
	v.value.Add(&p.(*BLS12381G1Point).value, &q.(*BLS12381G1Point).value)
	return v
}

func (v *BLS12381G1Point) Subtract(p Point, q Point) Point {
	negQ := q.(*BLS12381G1Point).value
	negQ.Neg()
	v.value.Add(&p.(*BLS12381G1Point).value, &negQ)
	return v
}

func (v *BLS12381G1Point) ScalarBaseMult(x Scalar) Point {
	v.value.ScalarMult(ToBLS12381Scalar(x), bls12381.G1Generator())
	return v
}

func (v *BLS12381G1Point) ScalarMult(x Scalar, q Point) Point {
	v.value.ScalarMult(ToBLS12381Scalar(x), &q.(*BLS12381G1Point).value)
	return v
}

func (v *BLS12381G1Point) Equal(q Point) bool {
	return v.value.IsEqual(&q.(*BLS12381G1Point).value)
}

func (v *BLS12381G1Point) Bytes() []byte {
	return v.value.BytesCompressed()
}

func (v *BLS12381G1Point) SetBytes(x []byte) (Point, error) {
	if len(x) != bls12381G1CompressedLength {
		return nil, fmt.Errorf("invalid BLS12381G1 point length: %d, expected: %d", len(x), bls12381G1CompressedLength)
	}
	if x[0]&0x80 == 0 {
		return nil, fmt.Errorf("invalid BLS12381G1 point: not in compressed form")
	}
	var decoded bls12381.G1
	if err := decoded.SetBytes(x); err != nil {
		return nil, err
	}
	v.value = decoded
	return v, nil
}

func (v *BLS12381G1Point) MarshalTo(target codec.Target) {
	target.WriteBytes(v.value.BytesCompressed())
}

func (v *BLS12381G1Point) UnmarshalFrom(source codec.Source) Point {
	if _, err := v.SetBytes(source.ReadBytes(bls12381G1CompressedLength)); err != nil {
		panic("failed to unmarshal BLS12381G1 point: " + err.Error())
	}
	return v
}

// G1 exposes the underlying group element for pairing computations. The returned value is a copy.
func (v *BLS12381G1Point) G1() *bls12381.G1 {
	g := v.value
	return &g
}

// ToBLS12381Scalar converts a scalar mod the BLS12-381 group order. Panics for scalars of any other curve.
func ToBLS12381Scalar(x Scalar) *bls12381.Scalar {
	if !x.Modulus().Equal(bls12381GroupOrder) {
		panic("scalar is not defined mod the BLS12-381 group order")
	}
	var s bls12381.Scalar
	if err := s.UnmarshalBinary(x.Bytes()); err != nil {
		panic("invalid BLS12-381 scalar: " + err.Error())
	}
	return &s
}

// AsBLS12381G1 returns p as a BLS12-381 G1 point, or an error if p belongs to another curve.
func AsBLS12381G1(p Point) (*BLS12381G1Point, error) {
	if p == nil {
		return nil, fmt.Errorf("point is nil")
	}
	g, ok := p.(*BLS12381G1Point)
	if !ok {
		return nil, fmt.Errorf("point on curve %s is not a BLS12381G1 point", p.Curve().Name())
	}
	return g, nil
}
