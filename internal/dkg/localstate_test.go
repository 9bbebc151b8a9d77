package dkg

import (
	"context"
	"testing"

	"github.com/smartcontractkit/dkgbeacon/internal/crypto/enckey"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
	"github.com/smartcontractkit/dkgbeacon/internal/kv"
	"github.com/smartcontractkit/dkgbeacon/internal/testimplementations/unsaferand"
	"github.com/stretchr/testify/require"
)

func TestSecondEncryptionKeyIsRejected(t *testing.T) {
	ctx := context.Background()
	rand := unsaferand.New("enc")
	local := &localState{kv.NewMemory(), 1}

	first, err := enckey.GenerateKeyPair(rand)
	require.NoError(t, err)
	second, err := enckey.GenerateKeyPair(rand)
	require.NoError(t, err)

	require.NoError(t, local.setEncryptionKey(ctx, first))
	require.ErrorIs(t, local.setEncryptionKey(ctx, second), ErrAlreadySet)

	stored, found, err := local.encryptionKey(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, first.PublicKey.Equal(stored.PublicKey))
}

func TestSecondPolynomialIsRejected(t *testing.T) {
	ctx := context.Background()
	rand := unsaferand.New("poly")
	local := &localState{kv.NewMemory(), 1}

	first, err := math.RandomPolynomial(math.P256, 3, rand)
	require.NoError(t, err)
	second, err := math.RandomPolynomial(math.P256, 3, rand)
	require.NoError(t, err)

	require.NoError(t, local.setPolynomial(ctx, math.P256, first))
	require.ErrorIs(t, local.setPolynomial(ctx, math.P256, second), ErrAlreadySet)

	stored, found, err := local.polynomial(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, stored, 3)
	for i := range first {
		require.True(t, first[i].Equal(stored[i]))
	}
}

func TestSecretsAreScopedToTheEpoch(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	kp, err := enckey.GenerateKeyPair(unsaferand.New())
	require.NoError(t, err)

	require.NoError(t, (&localState{store, 1}).setEncryptionKey(ctx, kp))
	_, found, err := (&localState{store, 2}).encryptionKey(ctx)
	require.NoError(t, err)
	require.False(t, found)
}

func TestEpochGuard(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	epoch1 := &localState{store, 1}
	epoch2 := &localState{store, 2}

	require.NoError(t, epoch1.claimEpoch(ctx))
	require.NoError(t, epoch1.claimEpoch(ctx), "resuming the active epoch is allowed")
	require.ErrorIs(t, epoch2.claimEpoch(ctx), ErrEpochInProgress)

	require.NoError(t, epoch1.finishEpoch(ctx, epochAbandoned))
	require.NoError(t, epoch2.claimEpoch(ctx))
	require.ErrorIs(t, epoch1.claimEpoch(ctx), ErrStaleEpoch)

	status, err := epoch2.status(ctx)
	require.NoError(t, err)
	require.Equal(t, epochActive, status)
}
