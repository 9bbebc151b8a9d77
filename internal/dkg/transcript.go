package dkg

import (
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/xof"
)

const checkpointDomain = "dkgbeacon/dkg/checkpoint"

// Transcript is the published material of one epoch, keyed by author. Posts are shared between readers and must be
// treated as immutable.
type Transcript struct {
	Epoch          uint64
	EncryptionKeys map[ParticipantIndex]*EncryptionKeyPost
	Shares         map[ParticipantIndex]*SharesPost
	Disputes       map[ParticipantIndex]*DisputesPost
}

func NewTranscript(epoch uint64) *Transcript {
	return &Transcript{
		epoch,
		make(map[ParticipantIndex]*EncryptionKeyPost),
		make(map[ParticipantIndex]*SharesPost),
		make(map[ParticipantIndex]*DisputesPost),
	}
}

// Clone copies the maps, not the posts.
func (t *Transcript) Clone() *Transcript {
	return &Transcript{t.Epoch, maps.Clone(t.EncryptionKeys), maps.Clone(t.Shares), maps.Clone(t.Disputes)}
}

// Posted reports whether author has a payload for the given round.
func (t *Transcript) Posted(phase Phase, author ParticipantIndex) bool {
	switch phase {
	case PhaseRound0:
		return t.EncryptionKeys[author] != nil
	case PhaseRound1:
		return t.Shares[author] != nil
	case PhaseRound2:
		return t.Disputes[author] != nil
	default:
		return false
	}
}

// Add stores a payload of this transcript's epoch. It does not validate the payload.
func (t *Transcript) Add(payload Payload) {
	author := payload.PayloadHeader().Author
	switch p := payload.(type) {
	case *EncryptionKeyPost:
		t.EncryptionKeys[author] = p
	case *SharesPost:
		t.Shares[author] = p
	case *DisputesPost:
		t.Disputes[author] = p
	}
}

// Checkpoint commits to the epoch, the round, and all posts of that round in author order. Once a round is closed
// its checkpoint is final; payloads of the next round reference it to bind to exactly that state.
func (t *Transcript) Checkpoint(phase Phase) common.Hash {
	h := xof.New(checkpointDomain)
	h.WriteUint64(t.Epoch)
	h.WriteInt(int(phase))

	var posts map[ParticipantIndex]Payload
	switch phase {
	case PhaseRound0:
		posts = asPayloads(t.EncryptionKeys)
	case PhaseRound1:
		posts = asPayloads(t.Shares)
	case PhaseRound2:
		posts = asPayloads(t.Disputes)
	}
	for _, author := range slices.Sorted(maps.Keys(posts)) {
		h.WriteInt(int(author))
		h.WriteObject(posts[author])
	}
	return common.BytesToHash(h.Digest())
}

func asPayloads[P Payload](posts map[ParticipantIndex]P) map[ParticipantIndex]Payload {
	result := make(map[ParticipantIndex]Payload, len(posts))
	for author, p := range posts {
		result[author] = p
	}
	return result
}
