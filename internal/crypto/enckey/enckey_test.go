package enckey

import (
	"fmt"
	"testing"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/smartcontractkit/dkgbeacon/internal/testimplementations/unsaferand"
	"github.com/stretchr/testify/require"
)

func TestSharedKeyIsSymmetric(t *testing.T) {
	rand := unsaferand.New("symmetric")
	alice, err := GenerateKeyPair(rand)
	require.NoError(t, err)
	bob, err := GenerateKeyPair(rand)
	require.NoError(t, err)

	info := []byte("epoch 1, dealer 1, recipient 2")
	k1, err := DeriveSharedKey(alice.SecretKey, bob.PublicKey, info)
	require.NoError(t, err)
	k2, err := DeriveSharedKey(bob.SecretKey, alice.PublicKey, info)
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	k3, err := DeriveSharedKey(alice.SecretKey, bob.PublicKey, []byte("other"))
	require.NoError(t, err)
	require.NotEqual(t, k1, k3)
}

func TestEncryptionRoundTrip(t *testing.T) {
	rand := unsaferand.New("roundtrip")
	alice, err := GenerateKeyPair(rand)
	require.NoError(t, err)
	bob, err := GenerateKeyPair(rand)
	require.NoError(t, err)
	eve, err := GenerateKeyPair(rand)
	require.NoError(t, err)

	key, err := DeriveSharedKey(alice.SecretKey, bob.PublicKey, nil)
	require.NoError(t, err)
	ad := []byte("ad")
	ct, err := Encrypt(key, []byte("secret share"), ad, rand)
	require.NoError(t, err)
	require.Len(t, ct, len("secret share")+Overhead)

	bobKey, err := DeriveSharedKey(bob.SecretKey, alice.PublicKey, nil)
	require.NoError(t, err)
	pt, err := Decrypt(bobKey, ct, ad)
	require.NoError(t, err)
	require.Equal(t, []byte("secret share"), pt)

	t.Run("wrong key", func(t *testing.T) {
		eveKey, err := DeriveSharedKey(eve.SecretKey, alice.PublicKey, nil)
		require.NoError(t, err)
		_, err = Decrypt(eveKey, ct, ad)
		require.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong associated data", func(t *testing.T) {
		_, err := Decrypt(bobKey, ct, []byte("other"))
		require.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := append([]byte(nil), ct...)
		tampered[len(tampered)-1] ^= 1
		_, err := Decrypt(bobKey, tampered, ad)
		require.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 1, Overhead - 1} {
			_, err := Decrypt(bobKey, ct[:n], ad)
			require.ErrorIs(t, err, ErrDecryptionFailed)
		}
	})
}

func TestGenerateKeyPairPropagatesEntropyFailure(t *testing.T) {
	_, err := GenerateKeyPair(unsaferand.FailingReader{})
	require.ErrorIs(t, err, unsaferand.ErrEntropyUnavailable)
}

func TestKeyPairFromSecret(t *testing.T) {
	kp, err := GenerateKeyPair(unsaferand.New("restore"))
	require.NoError(t, err)
	data, err := kp.MarshalBinary()
	require.NoError(t, err)

	restored, err := KeyPairFromSecret(data)
	require.NoError(t, err)
	require.True(t, kp.PublicKey.Equal(restored.PublicKey))

	_, err = KeyPairFromSecret(make([]byte, SecretKeyLength))
	require.Error(t, err)
	_, err = KeyPairFromSecret(data[1:])
	require.Error(t, err)
}

func TestKeyPairFormattingHidesSecret(t *testing.T) {
	kp, err := GenerateKeyPair(unsaferand.New("format"))
	require.NoError(t, err)
	for _, s := range []string{fmt.Sprint(kp), fmt.Sprintf("%#v", kp), fmt.Sprintf("%v", kp)} {
		require.NotContains(t, s, fmt.Sprintf("%x", []byte(kp.SecretKey)))
	}
}

func TestPublicKeyEncoding(t *testing.T) {
	kp, err := GenerateKeyPair(unsaferand.New("encoding"))
	require.NoError(t, err)
	data, err := codec.Marshal(kp.PublicKey)
	require.NoError(t, err)
	require.Len(t, data, PublicKeyLength)

	decoded, err := codec.Unmarshal(data, PublicKey{})
	require.NoError(t, err)
	require.True(t, kp.PublicKey.Equal(decoded))

	_, err = NewPublicKey(make([]byte, PublicKeyLength))
	require.Error(t, err)
	_, err = codec.Marshal(PublicKey{})
	require.Error(t, err)
}
