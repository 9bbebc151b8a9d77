package dkg

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/enckey"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
	"github.com/smartcontractkit/dkgbeacon/internal/metrics"
	"github.com/smartcontractkit/libocr/commontypes"
)

type ParticipantConfig struct {
	Committee *Committee
	Epoch     uint64
	StartTick uint64
	Identity  common.Address

	Clock       Clock
	Broadcaster Broadcaster
	Transcripts TranscriptReader
	Store       LocalStore

	// Optional, defaults to AcceptAllDealers.
	Evaluator DisputeEvaluator
	// Optional, defaults to crypto/rand.Reader.
	Rand io.Reader

	Logger  commontypes.Logger
	Metrics *metrics.Metrics // optional
}

// Participant runs one epoch of the DKG for one committee member. All progress is driven by Tick: each call reads the
// round clock and runs the handler of the current round. Handlers are idempotent, so ticking more often than once
// per clock increment is harmless, and a handler that failed (e.g., because the broadcast channel was unavailable) is
// retried by the next tick with the state persisted so far.
type Participant struct {
	mu sync.Mutex

	committee   *Committee
	schedule    Schedule
	index       ParticipantIndex
	clock       Clock
	broadcaster Broadcaster
	transcripts TranscriptReader
	local       *localState
	evaluator   DisputeEvaluator
	rand        io.Reader
	logger      commontypes.Logger
	metrics     *metrics.Metrics

	state  State
	result *Result
	cause  error // set once Abandoned
}

// NewParticipant makes the epoch the active epoch of the participant's local store, failing with ErrEpochInProgress
// if another epoch is neither concluded nor abandoned. Re-creating the participant of the active epoch resumes it.
func NewParticipant(ctx context.Context, config ParticipantConfig) (*Participant, error) {
	if config.Committee == nil || config.Clock == nil || config.Broadcaster == nil || config.Transcripts == nil ||
		config.Store == nil || config.Logger == nil {
		return nil, errors.New("incomplete participant config")
	}
	index, ok := config.Committee.Roster().IndexOf(config.Identity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownIdentity, config.Identity.Hex())
	}

	p := &Participant{
		committee:   config.Committee,
		schedule:    Schedule{config.Epoch, config.StartTick, config.Committee.Boundaries()},
		index:       index,
		clock:       config.Clock,
		broadcaster: config.Broadcaster,
		transcripts: config.Transcripts,
		local:       &localState{config.Store, config.Epoch},
		evaluator:   config.Evaluator,
		rand:        config.Rand,
		logger:      config.Logger,
		metrics:     config.Metrics,
		state:       StateAwaitingRound0,
	}
	if p.evaluator == nil {
		p.evaluator = AcceptAllDealers{}
	}
	if p.rand == nil {
		p.rand = rand.Reader
	}

	if err := p.local.claimEpoch(ctx); err != nil {
		return nil, err
	}
	status, err := p.local.status(ctx)
	if err != nil {
		return nil, err
	}
	switch status {
	case epochConcluded:
		result, found, err := p.local.result(ctx)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("epoch %d is concluded, but no result is stored", config.Epoch)
		}
		p.state, p.result = StateConcluded, result
	case epochAbandoned:
		p.state, p.cause = StateAbandoned, ErrAbandoned
	}
	return p, nil
}

func (p *Participant) Index() ParticipantIndex {
	return p.index
}

func (p *Participant) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Result returns the outcome of a concluded epoch, ErrNotConcluded while the epoch is running, or the cause of the
// abandonment (matching ErrAbandoned).
func (p *Participant) Result() (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateConcluded:
		return p.result, nil
	case StateAbandoned:
		if errors.Is(p.cause, ErrAbandoned) {
			return nil, p.cause
		}
		return nil, fmt.Errorf("%w: %w", ErrAbandoned, p.cause)
	default:
		return nil, ErrNotConcluded
	}
}

// Abandon ends the epoch without a result, allowing the next epoch to start.
func (p *Participant) Abandon(ctx context.Context, reason error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Terminal() {
		return nil
	}
	return p.abandon(ctx, reason)
}

// Tick runs the handler for the current round. Errors are logged and returned; they never corrupt local state.
func (p *Participant) Tick(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Terminal() {
		return nil
	}

	tick, err := p.clock.CurrentTick(ctx)
	if err != nil {
		return fmt.Errorf("failed to read round clock: %w", err)
	}

	phase := p.schedule.PhaseAt(tick)
	switch phase {
	case PhaseNotStarted:
		return nil
	case PhaseRound0:
		p.state, err = StateAwaitingRound0, p.round0(ctx)
	case PhaseRound1:
		p.state, err = StateAwaitingRound1, p.round1(ctx)
	case PhaseRound2:
		p.state, err = StateAwaitingRound2, p.round2(ctx)
	case PhaseConclusion:
		err = p.conclude(ctx)
	}

	if err != nil {
		p.logger.Warn("DKG: round handler failed", p.fields(commontypes.LogFields{
			"operation": phase.String(),
			"tick":      tick,
			"error":     err.Error(),
		}))
		return fmt.Errorf("%s: %w", phase, err)
	}
	return nil
}

func (p *Participant) round0(ctx context.Context) error {
	if done, err := p.local.submitted(ctx, PhaseRound0); err != nil || done {
		return err
	}

	kp, found, err := p.local.encryptionKey(ctx)
	if err != nil {
		return err
	}
	if !found {
		if kp, err = enckey.GenerateKeyPair(p.rand); err != nil {
			return err
		}
		if err := p.local.setEncryptionKey(ctx, kp); err != nil {
			if !errors.Is(err, ErrAlreadySet) {
				return err
			}
			p.logger.Warn("DKG: encryption secret already set, keeping the persisted one", p.fields(nil))
			if kp, _, err = p.local.encryptionKey(ctx); err != nil {
				return err
			}
		}
	}

	return p.submit(ctx, &EncryptionKeyPost{p.header(), kp.PublicKey})
}

func (p *Participant) round1(ctx context.Context) error {
	if done, err := p.local.submitted(ctx, PhaseRound1); err != nil || done {
		return err
	}

	kp, found, err := p.local.encryptionKey(ctx)
	if err != nil {
		return err
	}
	transcript, err := p.transcripts.ReadTranscript(ctx, p.schedule.Epoch)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	own := transcript.EncryptionKeys[p.index]
	if !found || own == nil || !own.PublicKey.Equal(kp.PublicKey) {
		p.logger.Warn("DKG: no encryption key published in round 0, not dealing", p.fields(nil))
		return p.local.markSubmitted(ctx, PhaseRound1)
	}

	ω, err := p.polynomial(ctx)
	if err != nil {
		return err
	}

	curve := p.committee.Curve()
	encrypted := make([][]byte, p.committee.N())
	var skipped []ParticipantIndex
	for _, j := range p.committee.Roster().Indices() {
		recipient := transcript.EncryptionKeys[j]
		if recipient == nil {
			skipped = append(skipped, j)
			continue
		}
		key, err := enckey.DeriveSharedKey(kp.SecretKey, recipient.PublicKey, p.shareContext(p.index, j))
		if err != nil {
			return fmt.Errorf("key exchange with participant %d failed: %w", j, err)
		}
		ct, err := enckey.Encrypt(key, ω.EvalAt(int(j)).Bytes(), p.shareContext(p.index, j), p.rand)
		if err != nil {
			return fmt.Errorf("failed to encrypt share for participant %d: %w", j, err)
		}
		encrypted[j-1] = ct
	}
	if len(skipped) > 0 {
		p.logger.Info("DKG: skipping participants without encryption key", p.fields(commontypes.LogFields{
			"skipped": skipped,
		}))
	}

	return p.submit(ctx, &SharesPost{
		p.header(),
		encrypted,
		ω.Commitment(curve),
		transcript.Checkpoint(PhaseRound0),
	})
}

// polynomial returns the persisted polynomial of the epoch, sampling and persisting it on first use.
func (p *Participant) polynomial(ctx context.Context) (math.Polynomial, error) {
	ω, found, err := p.local.polynomial(ctx)
	if err != nil || found {
		return ω, err
	}
	if ω, err = math.RandomPolynomial(p.committee.Curve(), p.committee.Threshold(), p.rand); err != nil {
		return nil, err
	}
	if err := p.local.setPolynomial(ctx, p.committee.Curve(), ω); err != nil {
		if !errors.Is(err, ErrAlreadySet) {
			return nil, err
		}
		p.logger.Warn("DKG: polynomial already set, keeping the persisted one", p.fields(nil))
		ω, _, err = p.local.polynomial(ctx)
		return ω, err
	}
	return ω, nil
}

func (p *Participant) round2(ctx context.Context) error {
	if done, err := p.local.submitted(ctx, PhaseRound2); err != nil || done {
		return err
	}

	kp, found, err := p.local.encryptionKey(ctx)
	if err != nil {
		return err
	}
	if !found {
		p.logger.Warn("DKG: no encryption key, no shares to verify", p.fields(nil))
		return p.local.markSubmitted(ctx, PhaseRound2)
	}
	transcript, err := p.transcripts.ReadTranscript(ctx, p.schedule.Epoch)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	disputes := []Dispute{}
	for _, dealer := range p.committee.Roster().Indices() {
		if transcript.EncryptionKeys[dealer] == nil || !wellFormedDealing(p.committee, transcript.Shares[dealer]) {
			continue
		}
		if _, dispute := p.receiveShare(transcript, kp, dealer); dispute != nil {
			disputes = append(disputes, *dispute)
			p.metrics.DisputeRaised(dispute.Kind.String())
			p.logger.Info("DKG: raising dispute", p.fields(commontypes.LogFields{
				"dealer": dispute.Dealer,
				"kind":   dispute.Kind.String(),
			}))
		}
	}

	return p.submit(ctx, &DisputesPost{p.header(), disputes, transcript.Checkpoint(PhaseRound1)})
}

// receiveShare decrypts and verifies the share a dealer encrypted for this participant. Exactly one of the results
// is non-nil. The dealing must be well-formed.
func (p *Participant) receiveShare(transcript *Transcript, kp enckey.KeyPair, dealer ParticipantIndex) (math.Scalar, *Dispute) {
	post := transcript.Shares[dealer]
	ct := post.EncryptedShares[p.index-1]
	if ct == nil {
		return nil, &Dispute{dealer, DisputeMissingShare, nil}
	}

	info := p.shareContext(dealer, p.index)
	key, err := enckey.DeriveSharedKey(kp.SecretKey, transcript.EncryptionKeys[dealer].PublicKey, info)
	if err != nil {
		return nil, &Dispute{dealer, DisputeUndecryptable, ct}
	}
	plaintext, err := enckey.Decrypt(key, ct, info)
	if err != nil {
		return nil, &Dispute{dealer, DisputeUndecryptable, ct}
	}
	share, err := p.committee.Curve().Scalar().SetBytes(plaintext)
	if err != nil || !post.Commitment.VerifyShare(int(p.index), share) {
		return nil, &Dispute{dealer, DisputeInvalidShare, ct}
	}
	return share, nil
}

func (p *Participant) conclude(ctx context.Context) error {
	if result, found, err := p.local.result(ctx); err != nil || found {
		if err != nil {
			return err
		}
		return p.finish(ctx, result)
	}

	transcript, err := p.transcripts.ReadTranscript(ctx, p.schedule.Epoch)
	if err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	correct := ComputeCorrectDealers(p.committee, transcript, p.evaluator)
	p.logger.Info("DKG: correct dealer set", p.fields(commontypes.LogFields{
		"correctDealers": correct.String(),
		"count":          correct.Count(),
		"threshold":      p.committee.Threshold(),
	}))
	if correct.Count() < p.committee.Threshold() {
		return p.abandon(ctx, fmt.Errorf("%w: %d < %d", ErrInsufficientDealers, correct.Count(), p.committee.Threshold()))
	}

	kp, found, err := p.local.encryptionKey(ctx)
	if err != nil {
		return err
	}
	if !found {
		return p.abandon(ctx, fmt.Errorf("%w: no encryption key published", ErrNoUsableShare))
	}

	var shares math.Scalars
	var commitments []math.PolynomialCommitment
	var unusable []ParticipantIndex
	for _, dealer := range correct.Indices() {
		share, _ := p.receiveShare(transcript, kp, dealer)
		if share == nil {
			unusable = append(unusable, dealer)
			continue
		}
		shares = append(shares, share)
		commitments = append(commitments, transcript.Shares[dealer].Commitment)
	}
	if len(unusable) > 0 {
		return p.abandon(ctx, fmt.Errorf("%w: dealers %v", ErrNoUsableShare, unusable))
	}

	groupCommitment, err := math.SumCommitments(commitments)
	if err != nil {
		return err
	}
	verifyKeys := make(math.Points, p.committee.N())
	for _, i := range p.committee.Roster().Indices() {
		verifyKeys[i-1] = groupCommitment.EvalAt(int(i))
	}

	result := &Result{
		Epoch:          p.schedule.Epoch,
		Index:          p.index,
		Threshold:      p.committee.Threshold(),
		Curve:          p.committee.Curve(),
		CorrectDealers: correct,
		SecretShare:    shares.Sum(),
		GroupKey:       groupCommitment[0],
		VerifyKeys:     verifyKeys,
	}
	if err := p.local.setResult(ctx, result); err != nil {
		return err
	}
	return p.finish(ctx, result)
}

func (p *Participant) finish(ctx context.Context, result *Result) error {
	if err := p.local.finishEpoch(ctx, epochConcluded); err != nil {
		return err
	}
	p.state, p.result = StateConcluded, result
	p.metrics.EpochConcluded(result.CorrectDealers.Count())
	p.logger.Info("🚀 DKG: concluded", p.fields(commontypes.LogFields{
		"groupKey":       fmt.Sprintf("%x", result.GroupKey.Bytes()),
		"correctDealers": result.CorrectDealers.String(),
	}))
	return nil
}

// abandon ends the epoch. It returns nil if the abandonment was recorded, as abandoning is a valid outcome.
func (p *Participant) abandon(ctx context.Context, cause error) error {
	if err := p.local.finishEpoch(ctx, epochAbandoned); err != nil {
		return err
	}
	p.state, p.cause = StateAbandoned, cause
	p.metrics.EpochAbandoned()
	p.logger.Warn("DKG: epoch abandoned", p.fields(commontypes.LogFields{"cause": fmt.Sprint(cause)}))
	return nil
}

func (p *Participant) submit(ctx context.Context, payload Payload) error {
	phase := payload.Phase()
	err := p.broadcaster.Submit(ctx, payload)
	if errors.Is(err, ErrAlreadyPosted) {
		p.logger.Debug("DKG: payload was already posted", p.fields(commontypes.LogFields{"operation": phase.String()}))
		err = nil
	}
	if err != nil {
		p.metrics.SubmitFailed(phase.String())
		return fmt.Errorf("failed to submit payload: %w", err)
	}
	p.metrics.PayloadSubmitted(phase.String())
	return p.local.markSubmitted(ctx, phase)
}

func (p *Participant) header() Header {
	return Header{p.schedule.Epoch, p.index}
}

// shareContext binds a share ciphertext to its epoch, dealer and recipient. It is used both as key derivation info
// and as associated data.
func (p *Participant) shareContext(dealer, recipient ParticipantIndex) []byte {
	info := binary.BigEndian.AppendUint64(nil, p.schedule.Epoch)
	info = binary.BigEndian.AppendUint32(info, uint32(dealer))
	return binary.BigEndian.AppendUint32(info, uint32(recipient))
}

func (p *Participant) fields(extra commontypes.LogFields) commontypes.LogFields {
	fields := commontypes.LogFields{"epoch": p.schedule.Epoch, "index": p.index}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}
