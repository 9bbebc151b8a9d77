package math

import (
	"errors"
	"fmt"
	"io"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
)

// Polynomial ω(x) = ω[0] + ω[1]·x + ... + ω[t-1]·x^(t-1), the secret of a dealer.
type Polynomial = Scalars

// PolynomialCommitment is the Feldman commitment [ω[0]·G, ..., ω[t-1]·G] of a polynomial.
type PolynomialCommitment []Point

var _ codec.Marshaler = PolynomialCommitment{}

// RandomPolynomial samples t independent, uniformly random coefficients, i.e., a random polynomial of degree t - 1.
// Entropy failures are returned, there is no fallback polynomial.
func RandomPolynomial(curve Curve, t int, rand io.Reader) (Polynomial, error) {
	if t <= 0 {
		return nil, errors.New("invalid polynomial degree")
	}

	ω := make(Polynomial, t)
	for i := range ω {
		var err error
		if ω[i], err = curve.Scalar().SetRandom(rand); err != nil {
			return nil, fmt.Errorf("failed to sample coefficient %d: %w", i, err)
		}
	}
	return ω, nil
}

// Eval returns ω(x) using Horner's rule.
func (ω Polynomial) Eval(x Scalar) Scalar {
	y := ω[len(ω)-1].Clone()
	for i := len(ω) - 2; i >= 0; i-- {
		y.Multiply(x).Add(ω[i])
	}
	return y
}

// EvalAt returns ω(index), for the 1-based participant index.
func (ω Polynomial) EvalAt(index int) Scalar {
	if index <= 0 {
		panic("polynomial evaluation index must be positive")
	}
	return ω.Eval(NewScalar(ω[0].Modulus()).SetUint(uint(index)))
}

// Commitment returns the Feldman commitment of ω on the given curve.
func (ω Polynomial) Commitment(curve Curve) PolynomialCommitment {
	C := make(PolynomialCommitment, len(ω))
	for i, ωᵢ := range ω {
		C[i] = curve.Point().ScalarBaseMult(ωᵢ)
	}
	return C
}

// EvalAt returns C(index) = ω(index)·G, computed in the group with Horner's rule.
func (C PolynomialCommitment) EvalAt(index int) Point {
	if index <= 0 {
		panic("polynomial commitment evaluation index must be positive")
	}

	x := C[0].Curve().Scalar().SetUint(uint(index))
	y := C[len(C)-1].Clone()
	for i := len(C) - 2; i >= 0; i-- {
		y.ScalarMult(x, y)
		y.Add(y, C[i])
	}
	return y
}

// VerifyShare checks share·G == C(index), i.e., that share is the dealer's evaluation for the given index.
func (C PolynomialCommitment) VerifyShare(index int, share Scalar) bool {
	if len(C) == 0 || share == nil || !share.Modulus().Equal(C[0].Curve().GroupOrder()) {
		return false
	}
	expected := C.EvalAt(index)
	return C[0].Curve().Point().ScalarBaseMult(share).Equal(expected)
}

// Curve returns the curve of the commitment's points. The commitment must be non-empty.
func (C PolynomialCommitment) Curve() Curve {
	return C[0].Curve()
}

func (C PolynomialCommitment) MarshalTo(target codec.Target) {
	codec.WriteList(target, C, func(t codec.Target, p Point) { p.MarshalTo(t) })
}

// UnmarshalPolynomialCommitment reads a commitment of points on the given curve, length-prefixed.
func UnmarshalPolynomialCommitment(source codec.Source, curve Curve) PolynomialCommitment {
	C := codec.ReadList(source, func(s codec.Source) Point { return curve.Point().UnmarshalFrom(s) })
	if len(C) == 0 {
		panic("empty polynomial commitment")
	}
	return C
}

// SumCommitments adds commitments of equal length coefficient-wise. The sum commits to the sum of the polynomials:
// its constant term is the joint public key, its evaluation at i the public key of the summed shares of i.
func SumCommitments(commitments []PolynomialCommitment) (PolynomialCommitment, error) {
	if len(commitments) == 0 {
		return nil, errors.New("no commitments to sum")
	}
	t := len(commitments[0])
	sum := make(PolynomialCommitment, t)
	for k := range sum {
		terms := make(Points, len(commitments))
		for j, C := range commitments {
			if len(C) != t {
				return nil, fmt.Errorf("commitment %d has %d coefficients, expected %d", j, len(C), t)
			}
			terms[j] = C[k]
		}
		sum[k] = terms.Sum()
	}
	return sum, nil
}

// Interpolator evaluates the Lagrange basis at zero for a fixed set of distinct, positive x-coordinates.
type Interpolator struct {
	curve  Curve
	xs     []int
	lambda Scalars
}

// NewInterpolator precomputes the Lagrange coefficients λᵢ = Π_{j≠i} xⱼ / (xⱼ - xᵢ).
func NewInterpolator(curve Curve, xs []int) (*Interpolator, error) {
	if len(xs) == 0 {
		return nil, errors.New("no interpolation points")
	}
	seen := make(map[int]struct{}, len(xs))
	for _, x := range xs {
		if x <= 0 {
			return nil, fmt.Errorf("interpolation point %d must be positive", x)
		}
		if _, ok := seen[x]; ok {
			return nil, fmt.Errorf("duplicate interpolation point %d", x)
		}
		seen[x] = struct{}{}
	}

	lambda := make(Scalars, len(xs))
	for i, xᵢ := range xs {
		num := curve.Scalar().SetUint(1)
		den := curve.Scalar().SetUint(1)
		for j, xⱼ := range xs {
			if i == j {
				continue
			}
			num.Multiply(curve.Scalar().SetUint(uint(xⱼ)))
			den.Multiply(curve.Scalar().SetUint(uint(xⱼ)).Subtract(curve.Scalar().SetUint(uint(xᵢ))))
		}
		if _, ok := den.InverseVarTime(); !ok {
			return nil, errors.New("interpolation points are not distinct mod the group order")
		}
		lambda[i] = num.Multiply(den)
	}
	return &Interpolator{curve, append([]int(nil), xs...), lambda}, nil
}

// Coefficients returns the Lagrange coefficients, in the order of the x-coordinates given to NewInterpolator.
func (ip *Interpolator) Coefficients() Scalars {
	return ip.lambda
}

// ScalarAtZero returns f(0) for f(xs[i]) = ys[i].
func (ip *Interpolator) ScalarAtZero(ys Scalars) (Scalar, error) {
	if len(ys) != len(ip.xs) {
		return nil, fmt.Errorf("got %d values for %d interpolation points", len(ys), len(ip.xs))
	}
	result := ip.curve.Scalar()
	for i, y := range ys {
		result.Add(y.Clone().Multiply(ip.lambda[i]))
	}
	return result, nil
}

// PointAtZero returns F(0) for F(xs[i]) = ys[i], interpolating in the exponent.
func (ip *Interpolator) PointAtZero(ys Points) (Point, error) {
	if len(ys) != len(ip.xs) {
		return nil, fmt.Errorf("got %d values for %d interpolation points", len(ys), len(ip.xs))
	}
	terms := make(Points, len(ys))
	for i, y := range ys {
		terms[i] = y.New().ScalarMult(ip.lambda[i], y)
	}
	return terms.Sum(), nil
}
