package dkg

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/dkgbeacon/internal/codec"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/enckey"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
)

// Header identifies the author and epoch of a payload.
type Header struct {
	Epoch  uint64
	Author ParticipantIndex
}

func (h Header) PayloadHeader() Header {
	return h
}

func (h Header) marshalTo(target codec.Target) {
	target.WriteUint64(h.Epoch)
	target.WriteInt(int(h.Author))
}

func unmarshalHeader(source codec.Source) Header {
	return Header{source.ReadUint64(), ParticipantIndex(source.ReadNonNegativeInt())}
}

// Payload is a message published through the Broadcaster. Each author may publish one payload per round.
type Payload interface {
	codec.Marshaler
	PayloadHeader() Header
	// Phase returns the round the payload belongs to.
	Phase() Phase
}

var (
	_ Payload = &EncryptionKeyPost{}
	_ Payload = &SharesPost{}
	_ Payload = &DisputesPost{}
)

// EncryptionKeyPost publishes an encryption public key in round 0.
type EncryptionKeyPost struct {
	Header
	PublicKey enckey.PublicKey
}

// SharesPost publishes a dealing in round 1. EncryptedShares[j-1] is the share of participant j, nil for participants
// without a published encryption key.
type SharesPost struct {
	Header
	EncryptedShares  [][]byte
	Commitment       math.PolynomialCommitment
	Round0Checkpoint common.Hash
}

// DisputesPost publishes the complaints of a participant in round 2. An empty list states that all received shares
// verified.
type DisputesPost struct {
	Header
	Disputes         []Dispute
	Round1Checkpoint common.Hash
}

func (*EncryptionKeyPost) Phase() Phase { return PhaseRound0 }
func (*SharesPost) Phase() Phase        { return PhaseRound1 }
func (*DisputesPost) Phase() Phase      { return PhaseRound2 }

func (p *EncryptionKeyPost) MarshalTo(target codec.Target) {
	target.WriteBytes([]byte{byte(PhaseRound0)})
	p.Header.marshalTo(target)
	p.PublicKey.MarshalTo(target)
}

func (p *SharesPost) MarshalTo(target codec.Target) {
	target.WriteBytes([]byte{byte(PhaseRound1)})
	p.Header.marshalTo(target)
	codec.WriteList(target, p.EncryptedShares, func(t codec.Target, s []byte) { t.WriteLengthPrefixedBytes(s) })
	p.Commitment.Curve().MarshalTo(target)
	p.Commitment.MarshalTo(target)
	target.WriteBytes(p.Round0Checkpoint[:])
}

func (p *DisputesPost) MarshalTo(target codec.Target) {
	target.WriteBytes([]byte{byte(PhaseRound2)})
	p.Header.marshalTo(target)
	codec.WriteList(target, p.Disputes, func(t codec.Target, d Dispute) { d.MarshalTo(t) })
	target.WriteBytes(p.Round1Checkpoint[:])
}

// UnmarshalPayload decodes any of the payload types, as written by their MarshalTo methods.
func UnmarshalPayload(data []byte) (Payload, error) {
	return codec.UnmarshalUsing(data, func(source codec.Source) Payload {
		phase := Phase(source.ReadBytes(1)[0])
		header := unmarshalHeader(source)
		switch phase {
		case PhaseRound0:
			return &EncryptionKeyPost{header, enckey.PublicKey{}.UnmarshalFrom(source)}
		case PhaseRound1:
			shares := codec.ReadList(source, func(s codec.Source) []byte { return s.ReadLengthPrefixedBytes() })
			curve := math.UnmarshalCurve(source)
			commitment := math.UnmarshalPolynomialCommitment(source, curve)
			return &SharesPost{header, shares, commitment, common.BytesToHash(source.ReadBytes(common.HashLength))}
		case PhaseRound2:
			disputes := codec.ReadList(source, func(s codec.Source) Dispute { return Dispute{}.UnmarshalFrom(s) })
			return &DisputesPost{header, disputes, common.BytesToHash(source.ReadBytes(common.HashLength))}
		default:
			panic(fmt.Sprintf("unknown payload phase %d", phase))
		}
	})
}

// DisputeKind classifies a complaint against a dealer.
type DisputeKind int

const (
	_ DisputeKind = iota
	// The dealer posted shares, but none for the complainant, although it had published an encryption key.
	DisputeMissingShare
	// The share decrypted, but is not a scalar or does not match the dealer's commitment.
	DisputeInvalidShare
	// The share failed authenticated decryption.
	DisputeUndecryptable
)

func (k DisputeKind) String() string {
	switch k {
	case DisputeMissingShare:
		return "missing_share"
	case DisputeInvalidShare:
		return "invalid_share"
	case DisputeUndecryptable:
		return "undecryptable"
	default:
		return fmt.Sprintf("DisputeKind(%d)", int(k))
	}
}

// Dispute is the evidence a participant submits against a dealer. Evidence carries the encrypted share in question,
// empty for missing shares.
type Dispute struct {
	Dealer   ParticipantIndex
	Kind     DisputeKind
	Evidence []byte
}

func (d Dispute) MarshalTo(target codec.Target) {
	target.WriteInt(int(d.Dealer))
	target.WriteInt(int(d.Kind))
	target.WriteLengthPrefixedBytes(d.Evidence)
}

func (Dispute) UnmarshalFrom(source codec.Source) Dispute {
	dealer := ParticipantIndex(source.ReadNonNegativeInt())
	kind := DisputeKind(source.ReadInt())
	if kind < DisputeMissingShare || kind > DisputeUndecryptable {
		panic(fmt.Sprintf("unknown dispute kind %d", kind))
	}
	return Dispute{dealer, kind, source.ReadLengthPrefixedBytes()}
}
