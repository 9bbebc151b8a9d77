package dkg

import "errors"

// Configuration errors, returned by constructors only.
var (
	ErrInvalidThreshold  = errors.New("invalid threshold")
	ErrInvalidBoundaries = errors.New("round boundaries must be positive and strictly increasing")
	ErrDuplicateIdentity = errors.New("duplicate identity in committee")
	ErrUnknownIdentity   = errors.New("identity is not a committee member")
	ErrUnknownCurve      = errors.New("unsupported curve")
)

// Protocol sequence errors.
var (
	ErrAlreadySet      = errors.New("local state already set for this epoch")
	ErrEpochInProgress = errors.New("another epoch is neither concluded nor abandoned")
	ErrStaleEpoch      = errors.New("epoch precedes the last epoch of this participant")

	// Returned by a Broadcaster for a second payload of the same author in the same round.
	ErrAlreadyPosted = errors.New("payload already posted for this round")
	// Returned by a Broadcaster for a payload submitted outside of its round's window.
	ErrOutsideRound = errors.New("payload submitted outside of its round")
	// Returned by a Broadcaster for a payload referencing another state of the previous round.
	ErrStaleCheckpoint = errors.New("payload references a stale checkpoint")
)

// Outcome errors.
var (
	ErrInsufficientDealers = errors.New("fewer correct dealers than the threshold")
	ErrNoUsableShare       = errors.New("no usable share received from every correct dealer")
	ErrAbandoned           = errors.New("epoch abandoned")
	ErrNotConcluded        = errors.New("epoch not concluded")
)
