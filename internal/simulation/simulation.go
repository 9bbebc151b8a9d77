// Package simulation runs a whole committee in one process: every participant gets its own local store and
// metrics, all of them share an in-memory ledger, and a mock block clock is stepped through the epoch.
//
// 🚨🚨🚨  SECURITY WARNING                                                       🚨🚨🚨
// 🚨🚨🚨  This simulation is NOT secure. It is meant for testing purposes only.  🚨🚨🚨
package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"slices"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartcontractkit/dkgbeacon/beacon"
	"github.com/smartcontractkit/dkgbeacon/internal/dkg"
	"github.com/smartcontractkit/dkgbeacon/internal/kv"
	"github.com/smartcontractkit/dkgbeacon/internal/ledger"
	"github.com/smartcontractkit/dkgbeacon/internal/logger"
	"github.com/smartcontractkit/dkgbeacon/internal/metrics"
	"github.com/smartcontractkit/dkgbeacon/internal/testimplementations/unsaferand"
	"github.com/smartcontractkit/libocr/commontypes"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	N          int
	Threshold  int
	Curve      string
	Boundaries dkg.Boundaries
	Epoch      uint64
	StartTick  uint64

	// Participants that are offline during round 0, so they never publish an encryption key.
	Silent []dkg.ParticipantIndex

	// Non-empty seeds make the run reproducible.
	Seed string

	Logger     *logger.Logger
	Registerer prometheus.Registerer // optional
}

// Node is one simulated committee member.
type Node struct {
	Identity    common.Address
	Participant *dkg.Participant
	Store       *kv.Memory
	Metrics     *metrics.Metrics
}

type Simulation struct {
	config    Config
	mock      *clock.Mock
	genesis   time.Time
	blocks    *ledger.BlockClock
	board     *ledger.Board
	committee *dkg.Committee
	schedule  dkg.Schedule
	nodes     []*Node
}

// Identities returns n distinct, deterministic committee identities.
func Identities(n int) []common.Address {
	identities := make([]common.Address, n)
	for i := range identities {
		identities[i] = common.BigToAddress(big.NewInt(int64(0x1000 + i)))
	}
	return identities
}

func New(ctx context.Context, config Config) (*Simulation, error) {
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}
	if config.Boundaries == (dkg.Boundaries{}) {
		config.Boundaries = dkg.DefaultBoundaries
	}
	committee, err := dkg.NewCommittee(dkg.CommitteeConfig{
		Identities: Identities(config.N),
		Threshold:  config.Threshold,
		Boundaries: config.Boundaries,
		Curve:      config.Curve,
	})
	if err != nil {
		return nil, err
	}
	for _, i := range config.Silent {
		if !committee.Roster().Contains(i) {
			return nil, fmt.Errorf("silent participant %d is not in the committee", i)
		}
	}

	mock := clock.NewMock()
	blocks := ledger.NewBlockClock(mock, time.Second)
	board := ledger.NewBoard(blocks, config.Logger.With(commontypes.LogFields{"component": "ledger"}))
	if err := board.InitializeCommittee(committee); err != nil {
		return nil, err
	}
	schedule, err := board.OpenEpoch(config.Epoch, config.StartTick)
	if err != nil {
		return nil, err
	}

	s := &Simulation{config, mock, mock.Now(), blocks, board, committee, schedule, nil}
	for _, i := range committee.Roster().Indices() {
		node, err := s.newNode(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
		s.nodes = append(s.nodes, node)
	}
	return s, nil
}

func (s *Simulation) newNode(ctx context.Context, i dkg.ParticipantIndex) (*Node, error) {
	identity, _ := s.committee.Roster().Identity(i)
	node := &Node{Identity: identity, Store: kv.NewMemory()}
	if s.config.Registerer != nil {
		m, err := metrics.New(s.config.Registerer, strconv.Itoa(int(i)))
		if err != nil {
			return nil, err
		}
		node.Metrics = m
	}

	var rand io.Reader
	if s.config.Seed != "" {
		rand = unsaferand.NewLocked("simulation", s.config.Seed, int(i))
	}
	p, err := dkg.NewParticipant(ctx, dkg.ParticipantConfig{
		Committee:   s.committee,
		Epoch:       s.config.Epoch,
		StartTick:   s.config.StartTick,
		Identity:    identity,
		Clock:       s.blocks,
		Broadcaster: s.board,
		Transcripts: s.board,
		Store:       node.Store,
		Rand:        rand,
		Logger:      s.config.Logger.With(commontypes.LogFields{"participant": int(i)}),
		Metrics:     node.Metrics,
	})
	if err != nil {
		return nil, err
	}
	node.Participant = p
	return node, nil
}

func (s *Simulation) Committee() *dkg.Committee {
	return s.committee
}

func (s *Simulation) Board() *ledger.Board {
	return s.board
}

func (s *Simulation) Nodes() []*Node {
	return s.nodes
}

// Run steps the block clock from the start of the epoch to its conclusion. At every block, all online participants
// tick concurrently.
func (s *Simulation) Run(ctx context.Context) error {
	for tick := s.schedule.StartTick; tick <= s.schedule.EndTick(); tick++ {
		s.mock.Set(s.genesis.Add(time.Duration(tick) * s.blocks.Interval()))
		if err := s.blocks.WaitForTick(ctx, tick); err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, node := range s.nodes {
			if s.offline(node.Participant.Index(), tick) {
				continue
			}
			g.Go(func() error { return node.Participant.Tick(gctx) })
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("tick %d: %w", tick, err)
		}
	}
	return nil
}

func (s *Simulation) offline(i dkg.ParticipantIndex, tick uint64) bool {
	return slices.Contains(s.config.Silent, i) && s.schedule.PhaseAt(tick) == dkg.PhaseRound0
}

// Results returns the result of every participant that concluded.
func (s *Simulation) Results() map[dkg.ParticipantIndex]*dkg.Result {
	results := make(map[dkg.ParticipantIndex]*dkg.Result)
	for _, node := range s.nodes {
		if result, err := node.Participant.Result(); err == nil {
			results[node.Participant.Index()] = result
		}
	}
	return results
}

// KeyBoxes returns the beacon key boxes of all participants that concluded.
func (s *Simulation) KeyBoxes() (map[dkg.ParticipantIndex]*beacon.KeyBox, error) {
	results := s.Results()
	if len(results) == 0 {
		return nil, errors.New("no participant concluded the epoch")
	}
	boxes := make(map[dkg.ParticipantIndex]*beacon.KeyBox, len(results))
	for i, result := range results {
		box, err := beacon.NewKeyBoxFromResult(result)
		if err != nil {
			return nil, fmt.Errorf("participant %d: %w", i, err)
		}
		for _, node := range s.nodes {
			if node.Participant.Index() == i {
				box = box.WithMetrics(node.Metrics)
			}
		}
		boxes[i] = box
	}
	return boxes, nil
}
