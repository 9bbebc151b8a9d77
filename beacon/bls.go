package beacon

import (
	"github.com/cloudflare/circl/ecc/bls12381"
)

// Signatures follow the minimal-pubkey-size BLS variant: keys live in G1 (the DKG curve), signatures in G2.
var signatureDST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

const SignatureLength = bls12381.G2SizeCompressed

func hashToG2(nonce []byte) *bls12381.G2 {
	h := &bls12381.G2{}
	h.Hash(nonce, signatureDST)
	return h
}

func sign(key *bls12381.Scalar, nonce []byte) []byte {
	σ := hashToG2(nonce)
	σ.ScalarMult(key, σ)
	return σ.BytesCompressed()
}

// decodeSignature accepts canonical compressed G2 elements other than the identity.
func decodeSignature(signature []byte) (*bls12381.G2, bool) {
	if len(signature) != SignatureLength {
		return nil, false
	}
	σ := &bls12381.G2{}
	if err := σ.SetBytes(signature); err != nil || σ.IsIdentity() {
		return nil, false
	}
	return σ, true
}

// verifySignature checks e(g₁, σ) = e(pk, H(nonce)).
func verifySignature(pk *bls12381.G1, nonce []byte, signature []byte) bool {
	σ, ok := decodeSignature(signature)
	if !ok || pk.IsIdentity() {
		return false
	}
	check := bls12381.ProdPairFrac(
		[]*bls12381.G1{bls12381.G1Generator(), pk},
		[]*bls12381.G2{σ, hashToG2(nonce)},
		[]int{1, -1},
	)
	return check.IsIdentity()
}
