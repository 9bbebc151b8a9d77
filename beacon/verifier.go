package beacon

import (
	"github.com/cloudflare/circl/ecc/bls12381"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
)

// Verifier checks beacon outputs against the group key of a DKG epoch.
type Verifier struct {
	groupKey *bls12381.G1
}

func NewVerifier(groupKey math.Point) (*Verifier, error) {
	p, err := math.AsBLS12381G1(groupKey)
	if err != nil {
		return nil, err
	}
	return &Verifier{p.G1()}, nil
}

func (v *Verifier) Verify(randomness *Randomness) bool {
	return randomness != nil && verifySignature(v.groupKey, randomness.Nonce, randomness.Signature)
}
