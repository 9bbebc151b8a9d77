package math

import "github.com/smartcontractkit/dkgbeacon/internal/codec"

// Curve is a prime-order group in which commitments and public keys live.
type Curve interface {
	// unexported so that UnmarshalCurve can resolve every implementation
	internal()

	codec.Marshaler
	// Use codec.UnmarshalUsing(..., math.UnmarshalCurve) to unmarshal.

	Name() string

	// Scalar returns a new zero scalar mod the group order.
	Scalar() Scalar

	// Point returns a new uninitialized point, only to be used as a receiver.
	Point() Point

	// Generator returns a fresh copy of the group's base point.
	Generator() Point

	// GroupOrder is the order of the group, NOT the modulus of the field the curve is defined over.
	GroupOrder() *Modulus

	ScalarBytes() int
	PointBytes() int
}

// Point is a group element. As for scalars, all arithmetic methods write to and return the receiver.
type Point interface {
	codec.Codec[Point]

	Curve() Curve

	// New returns an uninitialized point on the same curve.
	New() Point

	Clone() Point

	// v.Set(u) sets v = u.
	Set(u Point) Point

	// v.Add(p, q) sets v = p + q.
	Add(p, q Point) Point

	// v.Subtract(p, q) sets v = p - q.
	Subtract(p, q Point) Point

	// v.ScalarBaseMult(x) sets v = x·G.
	ScalarBaseMult(x Scalar) Point

	// v.ScalarMult(x, q) sets v = x·q.
	ScalarMult(x Scalar, q Point) Point

	Equal(u Point) bool

	// Bytes returns the canonical compressed encoding, PointBytes() long.
	Bytes() []byte

	// SetBytes decodes a compressed encoding. Non-canonical encodings and points outside the prime-order group are
	// rejected; the receiver is then unchanged.
	SetBytes(x []byte) (Point, error)
}

type Points []Point

// Sum returns the sum of all points, or nil for an empty slice.
func (p Points) Sum() Point {
	var result Point
	for _, pᵢ := range p {
		if result == nil {
			result = pᵢ.Clone()
		} else {
			result.Add(result, pᵢ)
		}
	}
	return result
}
