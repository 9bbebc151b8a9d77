package math

import (
	"fmt"

	"filippo.io/edwards25519"
	"filippo.io/nistec"
	"github.com/cloudflare/circl/ecc/bls12381"
	"github.com/smartcontractkit/dkgbeacon/internal/codec"
)

// SupportedCurves lists all curves in their wire order; appending is fine, reordering breaks stored data.
var SupportedCurves = []Curve{
	P256,
	Edwards25519,
	BLS12381G1,
}

var (
	// NIST 800-186, Section 3.2.1.3
	p256GroupOrder = NewModulus("115792089210356248762697446949407573529996955224135760342422259061068512044369")

	// RFC 7748, Section 4.1
	edwards25519GroupOrder = NewModulus("7237005577332262213973186563042994240857116359379907606001950938285454250989")

	// draft-irtf-cfrg-pairing-friendly-curves, Section 4.2.1
	bls12381GroupOrder = NewModulus("52435875175126190479447740508185965837690552500527637822603658699938581184513")
)

const (
	p256CompressedLength         = 33
	edwards25519CompressedLength = 32
	bls12381G1CompressedLength   = bls12381.G1SizeCompressed
)

type p256Curve struct{}
type edwards25519Curve struct{}
type bls12381G1Curve struct{}

var P256 = &p256Curve{}
var Edwards25519 = &edwards25519Curve{}

// BLS12381G1 is the first source group of the BLS12-381 pairing. Points of this curve can be lifted into the
// pairing via ToG1, which is what the randomness beacon does with DKG verification keys.
var BLS12381G1 = &bls12381G1Curve{}

func (c *p256Curve) internal()         {}
func (c *edwards25519Curve) internal() {}
func (c *bls12381G1Curve) internal()   {}

func (c *p256Curve) Name() string         { return "P256" }
func (c *edwards25519Curve) Name() string { return "Edwards25519" }
func (c *bls12381G1Curve) Name() string   { return "BLS12381G1" }

func (c *p256Curve) GroupOrder() *Modulus         { return p256GroupOrder }
func (c *edwards25519Curve) GroupOrder() *Modulus { return edwards25519GroupOrder }
func (c *bls12381G1Curve) GroupOrder() *Modulus   { return bls12381GroupOrder }

func (c *p256Curve) Scalar() Scalar         { return NewScalar(p256GroupOrder) }
func (c *edwards25519Curve) Scalar() Scalar { return NewScalar(edwards25519GroupOrder) }
func (c *bls12381G1Curve) Scalar() Scalar   { return NewScalar(bls12381GroupOrder) }

func (c *p256Curve) Point() Point         { return &P256Point{*nistec.NewP256Point()} }
func (c *edwards25519Curve) Point() Point { return &Edwards25519Point{} }
func (c *bls12381G1Curve) Point() Point {
	p := &BLS12381G1Point{}
	p.value.SetIdentity()
	return p
}

func (c *p256Curve) Generator() Point { return &P256Point{*nistec.NewP256Point().SetGenerator()} }
func (c *edwards25519Curve) Generator() Point {
	return &Edwards25519Point{*edwards25519.NewGeneratorPoint()}
}
func (c *bls12381G1Curve) Generator() Point { return &BLS12381G1Point{*bls12381.G1Generator()} }

func (c *p256Curve) ScalarBytes() int         { return 32 }
func (c *edwards25519Curve) ScalarBytes() int { return 32 }
func (c *bls12381G1Curve) ScalarBytes() int   { return bls12381.ScalarSize }

func (c *p256Curve) PointBytes() int         { return p256CompressedLength }
func (c *edwards25519Curve) PointBytes() int { return edwards25519CompressedLength }
func (c *bls12381G1Curve) PointBytes() int   { return bls12381G1CompressedLength }

func (c *p256Curve) MarshalTo(target codec.Target) {
	target.WriteBytes([]byte{curveToIndex(c)})
}

func (c *edwards25519Curve) MarshalTo(target codec.Target) {
	target.WriteBytes([]byte{curveToIndex(c)})
}

func (c *bls12381G1Curve) MarshalTo(target codec.Target) {
	target.WriteBytes([]byte{curveToIndex(c)})
}

func UnmarshalCurve(src codec.Source) Curve {
	var index [1]byte
	src.ReadBytesInto(index[:])
	if int(index[0]) >= len(SupportedCurves) {
		panic(fmt.Sprintf("unknown curve index: %d", index[0]))
	}
	return SupportedCurves[index[0]]
}

// CurveByName returns nil if no supported curve has the given name.
func CurveByName(name string) Curve {
	for _, curve := range SupportedCurves {
		if curve.Name() == name {
			return curve
		}
	}
	return nil
}

func curveToIndex(curve Curve) byte {
	for i, c := range SupportedCurves {
		if c == curve {
			return byte(i)
		}
	}
	panic("curve not found in SupportedCurves")
}
