package simulation

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartcontractkit/dkgbeacon/beacon"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
	"github.com/smartcontractkit/dkgbeacon/internal/dkg"
	"github.com/stretchr/testify/require"
)

func TestBeaconEndToEnd(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	sim, err := New(ctx, Config{
		N:          5,
		Threshold:  3,
		Curve:      math.BLS12381G1.Name(),
		Epoch:      1,
		StartTick:  1,
		Seed:       "end-to-end",
		Registerer: registry,
	})
	require.NoError(t, err)
	require.NoError(t, sim.Run(ctx))

	results := sim.Results()
	require.Len(t, results, 5)
	for _, result := range results {
		require.Equal(t, dkg.CorrectDealerSet{true, true, true, true, true}, result.CorrectDealers)
		require.True(t, results[1].GroupKey.Equal(result.GroupKey))
	}
	concluded, err := testutil.GatherAndCount(registry, "dkgbeacon_dkg_epochs_concluded_total")
	require.NoError(t, err)
	require.Equal(t, 5, concluded, "one series per participant")

	boxes, err := sim.KeyBoxes()
	require.NoError(t, err)
	nonce := []byte("epoch-42")
	shares := make(map[dkg.ParticipantIndex]*beacon.Share)
	for i, box := range boxes {
		shares[i] = box.GenerateShare(nonce)
	}

	indices := []dkg.ParticipantIndex{1, 2, 3, 4, 5}
	forEachSubset(indices, 3, func(subset []dkg.ParticipantIndex) {
		randomness, err := boxes[subset[0]].CombineShares(pick(shares, subset))
		require.NoError(t, err, "subset %v", subset)
		for _, box := range boxes {
			require.True(t, box.VerifyRandomness(randomness), "subset %v", subset)
		}
	})
	forEachSubset(indices, 2, func(subset []dkg.ParticipantIndex) {
		_, err := boxes[subset[0]].CombineShares(pick(shares, subset))
		require.ErrorIs(t, err, beacon.ErrNotEnoughShares, "subset %v", subset)
	})
}

func TestSilentParticipant(t *testing.T) {
	ctx := context.Background()
	sim, err := New(ctx, Config{
		N:         5,
		Threshold: 3,
		Curve:     math.BLS12381G1.Name(),
		Epoch:     7,
		Silent:    []dkg.ParticipantIndex{4},
		Seed:      "silent",
	})
	require.NoError(t, err)
	require.NoError(t, sim.Run(ctx))

	results := sim.Results()
	require.Len(t, results, 4)
	require.NotContains(t, results, dkg.ParticipantIndex(4))
	for _, result := range results {
		require.Equal(t, dkg.CorrectDealerSet{true, true, true, false, true}, result.CorrectDealers)
	}

	boxes, err := sim.KeyBoxes()
	require.NoError(t, err)
	nonce := []byte("after the silent one")
	randomness, err := boxes[5].CombineShares([]*beacon.Share{
		boxes[1].GenerateShare(nonce),
		boxes[3].GenerateShare(nonce),
		boxes[5].GenerateShare(nonce),
	})
	require.NoError(t, err)
	require.True(t, boxes[2].VerifyRandomness(randomness))
}

func TestConfigValidation(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx, Config{N: 3, Threshold: 4, Curve: math.P256.Name()})
	require.ErrorIs(t, err, dkg.ErrInvalidThreshold)
	_, err = New(ctx, Config{N: 3, Threshold: 2, Curve: "secp256k1"})
	require.ErrorIs(t, err, dkg.ErrUnknownCurve)
	_, err = New(ctx, Config{N: 3, Threshold: 2, Curve: math.P256.Name(), Silent: []dkg.ParticipantIndex{4}})
	require.Error(t, err)
}

func TestNonPairingCurveHasNoBeacon(t *testing.T) {
	ctx := context.Background()
	sim, err := New(ctx, Config{N: 3, Threshold: 2, Curve: math.Edwards25519.Name(), Seed: "ed25519"})
	require.NoError(t, err)
	require.NoError(t, sim.Run(ctx))
	require.Len(t, sim.Results(), 3)

	_, err = sim.KeyBoxes()
	require.Error(t, err)
}

func forEachSubset(items []dkg.ParticipantIndex, k int, f func([]dkg.ParticipantIndex)) {
	var rec func(start int, subset []dkg.ParticipantIndex)
	rec = func(start int, subset []dkg.ParticipantIndex) {
		if len(subset) == k {
			f(append([]dkg.ParticipantIndex(nil), subset...))
			return
		}
		for i := start; i < len(items); i++ {
			rec(i+1, append(subset, items[i]))
		}
	}
	rec(0, nil)
}

func pick(shares map[dkg.ParticipantIndex]*beacon.Share, subset []dkg.ParticipantIndex) []*beacon.Share {
	result := make([]*beacon.Share, len(subset))
	for i, c := range subset {
		result[i] = shares[c]
	}
	return result
}
