package ledger

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/enckey"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
	"github.com/smartcontractkit/dkgbeacon/internal/dkg"
	"github.com/smartcontractkit/dkgbeacon/internal/logger"
	"github.com/smartcontractkit/dkgbeacon/internal/testimplementations/unsaferand"
	"github.com/stretchr/testify/require"
)

func newTestBoard(t *testing.T) (*Board, *clock.Mock, *dkg.Committee) {
	committee, err := dkg.NewCommittee(dkg.CommitteeConfig{
		Identities: []common.Address{common.BigToAddress(big.NewInt(1)), common.BigToAddress(big.NewInt(2)), common.BigToAddress(big.NewInt(3))},
		Threshold:  2,
		Boundaries: dkg.Boundaries{EndRound0: 2, EndRound1: 4, EndRound2: 6},
		Curve:      math.P256.Name(),
	})
	require.NoError(t, err)

	mock := clock.NewMock()
	board := NewBoard(NewBlockClock(mock, time.Second), logger.Discard())
	require.NoError(t, board.InitializeCommittee(committee))
	return board, mock, committee
}

func keyPost(t *testing.T, author dkg.ParticipantIndex) *dkg.EncryptionKeyPost {
	kp, err := enckey.GenerateKeyPair(unsaferand.New("key", int(author)))
	require.NoError(t, err)
	return &dkg.EncryptionKeyPost{Header: dkg.Header{Epoch: 1, Author: author}, PublicKey: kp.PublicKey}
}

func sharesPost(t *testing.T, committee *dkg.Committee, author dkg.ParticipantIndex, checkpoint common.Hash) *dkg.SharesPost {
	ω, err := math.RandomPolynomial(committee.Curve(), committee.Threshold(), unsaferand.New("poly", int(author)))
	require.NoError(t, err)
	return &dkg.SharesPost{
		Header:           dkg.Header{Epoch: 1, Author: author},
		EncryptedShares:  make([][]byte, committee.N()),
		Commitment:       ω.Commitment(committee.Curve()),
		Round0Checkpoint: checkpoint,
	}
}

func TestInitializeCommitteeOnce(t *testing.T) {
	board, _, committee := newTestBoard(t)
	require.ErrorIs(t, board.InitializeCommittee(committee), ErrAlreadyInitialized)

	uninitialized := NewBoard(NewBlockClock(clock.NewMock(), time.Second), logger.Discard())
	_, err := uninitialized.OpenEpoch(1, 0)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestOpenEpoch(t *testing.T) {
	board, _, _ := newTestBoard(t)

	schedule, err := board.OpenEpoch(1, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(16), schedule.EndTick())

	_, err = board.OpenEpoch(1, 100)
	require.ErrorIs(t, err, ErrEpochExists)
	_, err = board.OpenEpoch(2, 15)
	require.ErrorIs(t, err, ErrEpochExists, "overlapping windows")
	_, err = board.OpenEpoch(2, 5)
	require.ErrorIs(t, err, ErrEpochExists, "overlapping windows")
	_, err = board.OpenEpoch(2, 16)
	require.NoError(t, err)

	_, err = board.ReadTranscript(context.Background(), 3)
	require.ErrorIs(t, err, ErrUnknownEpoch)
}

func TestSubmitEnforcesRoundWindows(t *testing.T) {
	ctx := context.Background()
	board, mock, _ := newTestBoard(t)
	_, err := board.OpenEpoch(1, 1)
	require.NoError(t, err)

	require.ErrorIs(t, board.Submit(ctx, keyPost(t, 1)), dkg.ErrOutsideRound, "before the epoch starts")

	mock.Add(time.Second)
	require.NoError(t, board.Submit(ctx, keyPost(t, 1)))
	require.ErrorIs(t, board.Submit(ctx, keyPost(t, 1)), dkg.ErrAlreadyPosted)

	mock.Add(2 * time.Second)
	require.ErrorIs(t, board.Submit(ctx, keyPost(t, 2)), dkg.ErrOutsideRound, "late posts are rejected")

	transcript, err := board.ReadTranscript(ctx, 1)
	require.NoError(t, err)
	require.Len(t, transcript.EncryptionKeys, 1)
}

func TestSubmitValidatesPayloads(t *testing.T) {
	ctx := context.Background()
	board, mock, committee := newTestBoard(t)
	_, err := board.OpenEpoch(1, 0)
	require.NoError(t, err)

	unknownEpoch := keyPost(t, 1)
	unknownEpoch.Epoch = 7
	require.ErrorIs(t, board.Submit(ctx, unknownEpoch), ErrUnknownEpoch)
	require.ErrorIs(t, board.Submit(ctx, keyPost(t, 4)), ErrInvalidPayload)
	require.ErrorIs(t, board.Submit(ctx, &dkg.EncryptionKeyPost{Header: dkg.Header{Epoch: 1, Author: 2}}), ErrInvalidPayload)
	require.NoError(t, board.Submit(ctx, keyPost(t, 1)))
	require.NoError(t, board.Submit(ctx, keyPost(t, 2)))

	mock.Add(2 * time.Second)
	transcript, err := board.ReadTranscript(ctx, 1)
	require.NoError(t, err)
	checkpoint := transcript.Checkpoint(dkg.PhaseRound0)

	stale := sharesPost(t, committee, 1, common.Hash{})
	require.ErrorIs(t, board.Submit(ctx, stale), dkg.ErrStaleCheckpoint)

	short := sharesPost(t, committee, 1, checkpoint)
	short.EncryptedShares = short.EncryptedShares[:2]
	require.ErrorIs(t, board.Submit(ctx, short), ErrInvalidPayload)

	wrongDegree := sharesPost(t, committee, 1, checkpoint)
	wrongDegree.Commitment = wrongDegree.Commitment[:1]
	require.ErrorIs(t, board.Submit(ctx, wrongDegree), ErrInvalidPayload)

	require.NoError(t, board.Submit(ctx, sharesPost(t, committee, 1, checkpoint)))

	mock.Add(2 * time.Second)
	transcript, err = board.ReadTranscript(ctx, 1)
	require.NoError(t, err)
	round1 := transcript.Checkpoint(dkg.PhaseRound1)

	require.ErrorIs(t, board.Submit(ctx, &dkg.DisputesPost{
		Header:           dkg.Header{Epoch: 1, Author: 2},
		Disputes:         []dkg.Dispute{},
		Round1Checkpoint: checkpoint,
	}), dkg.ErrStaleCheckpoint, "round 2 must reference the round 1 checkpoint")
	require.ErrorIs(t, board.Submit(ctx, &dkg.DisputesPost{
		Header:           dkg.Header{Epoch: 1, Author: 2},
		Disputes:         []dkg.Dispute{{Dealer: 9, Kind: dkg.DisputeMissingShare}},
		Round1Checkpoint: round1,
	}), ErrInvalidPayload)
	require.NoError(t, board.Submit(ctx, &dkg.DisputesPost{
		Header:           dkg.Header{Epoch: 1, Author: 2},
		Disputes:         []dkg.Dispute{{Dealer: 1, Kind: dkg.DisputeMissingShare}},
		Round1Checkpoint: round1,
	}))
}

func TestReadTranscriptReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	board, _, _ := newTestBoard(t)
	_, err := board.OpenEpoch(1, 0)
	require.NoError(t, err)

	snapshot, err := board.ReadTranscript(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, board.Submit(ctx, keyPost(t, 3)))
	require.Empty(t, snapshot.EncryptionKeys)

	snapshot.Add(keyPost(t, 1))
	current, err := board.ReadTranscript(ctx, 1)
	require.NoError(t, err)
	require.Len(t, current.EncryptionKeys, 1)
	require.NotNil(t, current.EncryptionKeys[3])
}
