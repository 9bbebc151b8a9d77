// Package enckey implements the per-epoch encryption keys of DKG participants: P-256 key pairs, a key exchange
// deriving a symmetric key per (dealer, recipient) pair, and authenticated encryption of shares under that key.
package enckey

import (
	"crypto/subtle"
	"encoding"
	"fmt"
	"io"

	"filippo.io/nistec"
	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/xof"
)

const (
	SecretKeyLength    = 32 // scalar mod the P-256 group order, big-endian
	PublicKeyLength    = 33 // compressed P-256 point, the point at infinity is not a valid key
	SymmetricKeyLength = 32
)

const sharedKeyDomain = "dkgbeacon/enckey/shared"

// PublicKey is a validated P-256 point. The zero value is invalid, use NewPublicKey.
type PublicKey struct {
	value   *nistec.P256Point
	encoded []byte
}

var _ codec.Codec[PublicKey] = PublicKey{}

type SecretKey []byte

// KeyPair holds an encryption secret and its public key. String and GoString never reveal the secret.
type KeyPair struct {
	SecretKey SecretKey
	PublicKey PublicKey
}

var _ encoding.BinaryMarshaler = KeyPair{}
var _ fmt.GoStringer = KeyPair{}

// SymmetricKey is the output of the key exchange, the key of the share encryption.
type SymmetricKey [SymmetricKeyLength]byte

// GenerateKeyPair samples a fresh key pair. Deterministic readers produce deterministic key pairs.
func GenerateKeyPair(rand io.Reader) (KeyPair, error) {
	s, err := math.P256.Scalar().SetRandom(rand)
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to generate encryption secret: %w", err)
	}
	if s.IsZero() {
		return KeyPair{}, fmt.Errorf("failed to generate encryption secret: zero scalar")
	}
	return KeyPairFromSecret(s.Bytes())
}

// KeyPairFromSecret recomputes the public key of a persisted secret.
func KeyPairFromSecret(sk []byte) (KeyPair, error) {
	if len(sk) != SecretKeyLength {
		return KeyPair{}, fmt.Errorf("invalid secret key length: %d, expected %d", len(sk), SecretKeyLength)
	}
	s, err := math.P256.Scalar().SetBytes(sk)
	if err != nil || s.IsZero() {
		return KeyPair{}, fmt.Errorf("invalid secret key: not a non-zero scalar")
	}
	p, err := nistec.NewP256Point().ScalarBaseMult(sk)
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to compute public key: %w", err)
	}
	return KeyPair{append(SecretKey(nil), sk...), PublicKey{p, p.BytesCompressed()}}, nil
}

// MarshalBinary exports the secret key; the public key is recomputed on import.
func (kp KeyPair) MarshalBinary() ([]byte, error) {
	if len(kp.SecretKey) != SecretKeyLength {
		return nil, fmt.Errorf("key pair is not initialized")
	}
	return append([]byte(nil), kp.SecretKey...), nil
}

func (kp KeyPair) String() string {
	return kp.GoString()
}

func (kp KeyPair) GoString() string {
	return fmt.Sprintf("KeyPair{PublicKey: %x}", kp.PublicKey.Bytes())
}

// NewPublicKey decodes a compressed P-256 point. Non-canonical encodings and the point at infinity are rejected.
func NewPublicKey(value []byte) (PublicKey, error) {
	if len(value) != PublicKeyLength {
		return PublicKey{}, fmt.Errorf("invalid public key length: %d, expected %d bytes", len(value), PublicKeyLength)
	}
	p, err := nistec.NewP256Point().SetBytes(value)
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid public key: %w", err)
	}
	encoded := p.BytesCompressed()
	if subtle.ConstantTimeCompare(value, encoded) != 1 {
		return PublicKey{}, fmt.Errorf("invalid public key: non-canonical encoding")
	}
	return PublicKey{p, encoded}, nil
}

func (pk PublicKey) IsValid() bool {
	return pk.value != nil
}

// Bytes returns a copy of the compressed encoding, or nil for an invalid key.
func (pk PublicKey) Bytes() []byte {
	if pk.value == nil {
		return nil
	}
	return append([]byte(nil), pk.encoded...)
}

func (pk PublicKey) Equal(other PublicKey) bool {
	if pk.value == nil || other.value == nil {
		return pk.value == nil && other.value == nil
	}
	return subtle.ConstantTimeCompare(pk.encoded, other.encoded) == 1
}

func (pk PublicKey) IsNil() bool {
	return pk.value == nil
}

func (pk PublicKey) MarshalTo(target codec.Target) {
	if pk.value == nil {
		panic("cannot marshal an invalid public key")
	}
	target.WriteBytes(pk.encoded)
}

func (PublicKey) UnmarshalFrom(source codec.Source) PublicKey {
	pk, err := NewPublicKey(source.ReadBytes(PublicKeyLength))
	if err != nil {
		panic(err)
	}
	return pk
}

// DeriveSharedKey runs ECDH between sk and peer, and derives a symmetric key from the x-coordinate of the result.
// Both parties obtain the same key as long as they pass the same info.
func DeriveSharedKey(sk SecretKey, peer PublicKey, info []byte) (SymmetricKey, error) {
	if !peer.IsValid() {
		return SymmetricKey{}, fmt.Errorf("invalid peer public key")
	}
	p, err := nistec.NewP256Point().ScalarMult(peer.value, sk)
	if err != nil {
		return SymmetricKey{}, fmt.Errorf("failed to compute ECDH: %w", err)
	}
	x, err := p.BytesX()
	if err != nil {
		return SymmetricKey{}, fmt.Errorf("failed to compute ECDH: %w", err)
	}

	h := xof.New(sharedKeyDomain)
	h.WriteBytes(x)
	h.WriteBytes(info)
	var key SymmetricKey
	copy(key[:], h.Digest())
	return key, nil
}
