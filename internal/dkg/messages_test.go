package dkg

import (
	"testing"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/stretchr/testify/require"
)

func TestPayloadEncoding(t *testing.T) {
	committee := testCommittee(t, 3, 2)
	transcript := fakeTranscript(t, committee, []ParticipantIndex{1, 3}, []ParticipantIndex{1})
	disputes := &DisputesPost{Header{1, 3}, []Dispute{{1, DisputeUndecryptable, []byte{1, 2}}, {2, DisputeMissingShare, nil}}, transcript.Checkpoint(PhaseRound1)}

	payloads := []Payload{transcript.EncryptionKeys[1], transcript.Shares[1], disputes}
	for _, payload := range payloads {
		data, err := codec.Marshal(payload)
		require.NoError(t, err)
		decoded, err := UnmarshalPayload(data)
		require.NoError(t, err)
		require.Equal(t, payload.Phase(), decoded.Phase())
		require.Equal(t, payload.PayloadHeader(), decoded.PayloadHeader())

		// canonical: re-encoding yields the same bytes
		again, err := codec.Marshal(decoded)
		require.NoError(t, err)
		require.Equal(t, data, again)
	}

	shares, err := UnmarshalPayload(mustMarshal(t, transcript.Shares[1]))
	require.NoError(t, err)
	require.Nil(t, shares.(*SharesPost).EncryptedShares[1], "missing shares stay nil")
}

func TestUnmarshalPayloadRejectsGarbage(t *testing.T) {
	_, err := UnmarshalPayload([]byte{9, 0, 0})
	require.Error(t, err)
	_, err = UnmarshalPayload(nil)
	require.Error(t, err)
}

func TestCheckpointDependsOnRoundAndContent(t *testing.T) {
	committee := testCommittee(t, 3, 2)
	transcript := fakeTranscript(t, committee, []ParticipantIndex{1, 2}, nil)
	round0 := transcript.Checkpoint(PhaseRound0)
	require.NotEqual(t, round0, transcript.Checkpoint(PhaseRound1))

	other := NewTranscript(2)
	for _, post := range transcript.EncryptionKeys {
		other.Add(post)
	}
	require.NotEqual(t, round0, other.Checkpoint(PhaseRound0), "checkpoints are bound to the epoch")

	delete(transcript.EncryptionKeys, 2)
	require.NotEqual(t, round0, transcript.Checkpoint(PhaseRound0))
}

func mustMarshal(t *testing.T, m codec.Marshaler) []byte {
	data, err := codec.Marshal(m)
	require.NoError(t, err)
	return data
}
