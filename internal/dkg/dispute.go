package dkg

import (
	"fmt"
	"strings"

	"github.com/smartcontractkit/dkgbeacon/internal/codec"
)

// DealerVerdict is the outcome of evaluating one dispute.
type DealerVerdict int

const (
	VerdictAccept DealerVerdict = iota // the dealer stays in the correct dealer set
	VerdictGuilty                      // the dealer is removed from the correct dealer set
)

// DisputeEvaluator decides round 2 disputes. The transcript is final when Evaluate is called, and all participants
// evaluate the same transcript, so evaluators must be deterministic.
type DisputeEvaluator interface {
	Evaluate(transcript *Transcript, complainant ParticipantIndex, dispute Dispute) DealerVerdict
}

// AcceptAllDealers keeps every dealer that posted in round 1, whatever disputes were raised. This resolves nothing;
// it is the default until disputes about share contents can be settled, which requires a proof that the complainant
// decrypted correctly.
type AcceptAllDealers struct{}

func (AcceptAllDealers) Evaluate(*Transcript, ParticipantIndex, Dispute) DealerVerdict {
	return VerdictAccept
}

// MissingShareEvaluator upholds the one kind of dispute anybody can check from the transcript alone: a dealer that
// published a share list without an entry for a complainant who had published an encryption key.
// TODO: uphold DisputeInvalidShare and DisputeUndecryptable once DisputesPost carries a proof of correct decryption.
type MissingShareEvaluator struct{}

func (MissingShareEvaluator) Evaluate(transcript *Transcript, complainant ParticipantIndex, dispute Dispute) DealerVerdict {
	if dispute.Kind != DisputeMissingShare {
		return VerdictAccept
	}
	shares := transcript.Shares[dispute.Dealer]
	if shares == nil || transcript.EncryptionKeys[complainant] == nil {
		return VerdictAccept
	}
	slot := int(complainant) - 1
	if slot < 0 || slot >= len(shares.EncryptedShares) || shares.EncryptedShares[slot] == nil {
		return VerdictGuilty
	}
	return VerdictAccept
}

// CorrectDealerSet has one entry per participant; entry i-1 holds for participant i iff it published an encryption
// key in round 0, a well-formed dealing in round 1, and no dispute against it was upheld.
type CorrectDealerSet []bool

var _ codec.Marshaler = CorrectDealerSet{}

func (s CorrectDealerSet) Contains(i ParticipantIndex) bool {
	return 1 <= i && int(i) <= len(s) && s[i-1]
}

func (s CorrectDealerSet) Count() int {
	count := 0
	for _, ok := range s {
		if ok {
			count++
		}
	}
	return count
}

func (s CorrectDealerSet) Indices() []ParticipantIndex {
	var result []ParticipantIndex
	for i, ok := range s {
		if ok {
			result = append(result, ParticipantIndex(i+1))
		}
	}
	return result
}

// String renders the set as e.g. "[1 2 -3 4 5]", marking excluded dealers with a minus sign.
func (s CorrectDealerSet) String() string {
	parts := make([]string, len(s))
	for i, ok := range s {
		if ok {
			parts[i] = fmt.Sprint(i + 1)
		} else {
			parts[i] = fmt.Sprint(-(i + 1))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (s CorrectDealerSet) MarshalTo(target codec.Target) {
	codec.WriteList(target, s, func(t codec.Target, ok bool) { t.WriteBool(ok) })
}

func unmarshalCorrectDealerSet(source codec.Source) CorrectDealerSet {
	return codec.ReadList(source, func(s codec.Source) bool { return s.ReadBool() })
}

// ComputeCorrectDealers derives the correct dealer set from a closed transcript.
func ComputeCorrectDealers(committee *Committee, transcript *Transcript, evaluator DisputeEvaluator) CorrectDealerSet {
	correct := make(CorrectDealerSet, committee.N())
	for _, j := range committee.Roster().Indices() {
		correct[j-1] = transcript.EncryptionKeys[j] != nil && wellFormedDealing(committee, transcript.Shares[j])
	}

	for _, complainant := range committee.Roster().Indices() {
		post := transcript.Disputes[complainant]
		if post == nil {
			continue
		}
		for _, d := range post.Disputes {
			if correct.Contains(d.Dealer) && evaluator.Evaluate(transcript, complainant, d) == VerdictGuilty {
				correct[d.Dealer-1] = false
			}
		}
	}
	return correct
}

func wellFormedDealing(committee *Committee, post *SharesPost) bool {
	return post != nil &&
		len(post.EncryptedShares) == committee.N() &&
		len(post.Commitment) == committee.Threshold() &&
		post.Commitment.Curve() == committee.Curve()
}
