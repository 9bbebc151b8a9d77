package math

import (
	"testing"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/smartcontractkit/dkgbeacon/internal/testimplementations/unsaferand"
	"github.com/stretchr/testify/require"
)

func TestRandomPolynomialRejectsInvalidDegree(t *testing.T) {
	_, err := RandomPolynomial(P256, 0, unsaferand.New())
	require.Error(t, err)
}

func TestRandomPolynomialPropagatesEntropyFailure(t *testing.T) {
	_, err := RandomPolynomial(P256, 3, unsaferand.FailingReader{})
	require.ErrorIs(t, err, unsaferand.ErrEntropyUnavailable)
}

func TestEvalMatchesNaiveEvaluation(t *testing.T) {
	// ω(x) = 3 + 2x + x²
	m := P256.GroupOrder()
	ω := Polynomial{
		NewScalarFromString("3", m),
		NewScalarFromString("2", m),
		NewScalarFromString("1", m),
	}
	require.Equal(t, "6", ω.EvalAt(1).String())
	require.Equal(t, "11", ω.EvalAt(2).String())
	require.Equal(t, "38", ω.EvalAt(5).String())
}

func TestReconstruction(t *testing.T) {
	for _, curve := range SupportedCurves {
		t.Run(curve.Name(), func(t *testing.T) {
			const threshold = 3
			rand := unsaferand.New("reconstruction", curve.Name())
			ω, err := RandomPolynomial(curve, threshold, rand)
			require.NoError(t, err)

			for _, xs := range [][]int{{1, 2, 3}, {2, 4, 5}, {5, 1, 3}, {1, 2, 3, 4, 5}} {
				ys := make(Scalars, len(xs))
				for i, x := range xs {
					ys[i] = ω.EvalAt(x)
				}
				ip, err := NewInterpolator(curve, xs)
				require.NoError(t, err)
				secret, err := ip.ScalarAtZero(ys)
				require.NoError(t, err)
				require.True(t, secret.Equal(ω[0]), "xs=%v", xs)
			}

			// With t-1 points, the interpolation of a degree t-2 polynomial does not yield the secret.
			ip, err := NewInterpolator(curve, []int{1, 2})
			require.NoError(t, err)
			secret, err := ip.ScalarAtZero(Scalars{ω.EvalAt(1), ω.EvalAt(2)})
			require.NoError(t, err)
			require.False(t, secret.Equal(ω[0]))
		})
	}
}

func TestInterpolationInTheExponent(t *testing.T) {
	for _, curve := range SupportedCurves {
		t.Run(curve.Name(), func(t *testing.T) {
			ω, err := RandomPolynomial(curve, 2, unsaferand.New("exponent", curve.Name()))
			require.NoError(t, err)
			C := ω.Commitment(curve)

			ip, err := NewInterpolator(curve, []int{4, 7})
			require.NoError(t, err)
			p, err := ip.PointAtZero(Points{C.EvalAt(4), C.EvalAt(7)})
			require.NoError(t, err)
			require.True(t, p.Equal(C[0]))
		})
	}
}

func TestNewInterpolatorRejectsInvalidPoints(t *testing.T) {
	_, err := NewInterpolator(P256, nil)
	require.Error(t, err)
	_, err = NewInterpolator(P256, []int{1, 0})
	require.Error(t, err)
	_, err = NewInterpolator(P256, []int{1, 2, 1})
	require.Error(t, err)
}

func TestCommitmentSoundness(t *testing.T) {
	for _, curve := range SupportedCurves {
		t.Run(curve.Name(), func(t *testing.T) {
			rand := unsaferand.New("commitment", curve.Name())
			ω, err := RandomPolynomial(curve, 4, rand)
			require.NoError(t, err)
			C := ω.Commitment(curve)

			for i := 1; i <= 6; i++ {
				share := ω.EvalAt(i)
				require.True(t, C.VerifyShare(i, share))
				require.True(t, C.EvalAt(i).Equal(curve.Point().ScalarBaseMult(share)))

				tampered := share.Clone().Add(curve.Scalar().SetUint(1))
				require.False(t, C.VerifyShare(i, tampered))
				require.False(t, C.VerifyShare(i+1, share))
			}
		})
	}
}

func TestVerifyShareRejectsForeignScalar(t *testing.T) {
	ω, err := RandomPolynomial(P256, 2, unsaferand.New())
	require.NoError(t, err)
	C := ω.Commitment(P256)
	require.False(t, C.VerifyShare(1, Edwards25519.Scalar()))
	require.False(t, C.VerifyShare(1, nil))
}

func TestSumCommitments(t *testing.T) {
	curve := BLS12381G1
	rand := unsaferand.New("sum")
	ω1, err := RandomPolynomial(curve, 3, rand)
	require.NoError(t, err)
	ω2, err := RandomPolynomial(curve, 3, rand)
	require.NoError(t, err)

	sum, err := SumCommitments([]PolynomialCommitment{ω1.Commitment(curve), ω2.Commitment(curve)})
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		s := ω1.EvalAt(i).Add(ω2.EvalAt(i))
		require.True(t, sum.VerifyShare(i, s))
	}
	require.True(t, sum[0].Equal(curve.Point().ScalarBaseMult(ω1[0].Clone().Add(ω2[0]))))

	_, err = SumCommitments(nil)
	require.Error(t, err)
	_, err = SumCommitments([]PolynomialCommitment{ω1.Commitment(curve), ω2[:2].Commitment(curve)})
	require.Error(t, err)
}

func TestCommitmentEncoding(t *testing.T) {
	for _, curve := range SupportedCurves {
		ω, err := RandomPolynomial(curve, 3, unsaferand.New("encoding", curve.Name()))
		require.NoError(t, err)
		C := ω.Commitment(curve)

		data, err := codec.Marshal(C)
		require.NoError(t, err)
		require.Len(t, data, 4+3*curve.PointBytes())

		decoded, err := codec.UnmarshalUsing(data, func(s codec.Source) PolynomialCommitment {
			return UnmarshalPolynomialCommitment(s, curve)
		})
		require.NoError(t, err)
		require.Len(t, decoded, 3)
		for i := range C {
			require.True(t, C[i].Equal(decoded[i]))
		}
	}
}

func TestPointDecodingRejectsGarbage(t *testing.T) {
	for _, curve := range SupportedCurves {
		garbage := make([]byte, curve.PointBytes())
		for i := range garbage {
			garbage[i] = 0xff
		}
		_, err := curve.Point().SetBytes(garbage)
		require.Error(t, err, curve.Name())
		_, err = curve.Point().SetBytes(garbage[1:])
		require.Error(t, err, curve.Name())
	}
}

func TestScalarSetRandomIsDeterministicForSeed(t *testing.T) {
	a, err := BLS12381G1.Scalar().SetRandom(unsaferand.New(1))
	require.NoError(t, err)
	b, err := BLS12381G1.Scalar().SetRandom(unsaferand.New(1))
	require.NoError(t, err)
	require.True(t, a.Equal(b))
	require.False(t, a.IsZero())
}

func TestScalarBytesRoundTrip(t *testing.T) {
	for _, curve := range SupportedCurves {
		x, err := curve.Scalar().SetRandom(unsaferand.New("bytes", curve.Name()))
		require.NoError(t, err)
		require.Len(t, x.Bytes(), curve.ScalarBytes())
		y, err := curve.Scalar().SetBytes(x.Bytes())
		require.NoError(t, err)
		require.True(t, x.Equal(y))

		_, err = curve.Scalar().SetBytes(curve.GroupOrder().Bytes())
		require.Error(t, err, "group order itself is not a canonical scalar")
	}
}
