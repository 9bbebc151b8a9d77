package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartcontractkit/dkgbeacon/beacon"
	"github.com/smartcontractkit/dkgbeacon/internal/crypto/math"
	"github.com/smartcontractkit/dkgbeacon/internal/dkg"
	"github.com/smartcontractkit/dkgbeacon/internal/logger"
	"github.com/smartcontractkit/dkgbeacon/internal/simulation"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a DKG epoch and one beacon round for an in-process committee",
	Long: `Runs all members of a committee against an in-memory ledger, stepping a simulated block
clock through the three DKG rounds. If the epoch concludes on BLS12381G1, the first
t members that concluded sign the nonce and their shares are combined into randomness.

Examples:
  dkgbeacon simulate --n 5 --t 3
  dkgbeacon simulate --n 5 --t 3 --silent 2 --nonce epoch-42
  DKGBEACON_SIMULATE_SEED=fixed dkgbeacon simulate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	flags := simulateCmd.Flags()
	flags.Int("n", 5, "committee size")
	flags.Int("t", 3, "threshold")
	flags.String("curve", math.BLS12381G1.Name(), "DKG curve (P256, Edwards25519, BLS12381G1)")
	flags.Uint64("epoch", 1, "epoch number")
	flags.IntSlice("silent", nil, "participants that stay offline during round 0")
	flags.String("nonce", "epoch-42", "beacon nonce")
	flags.String("seed", "", "seed for reproducible runs (insecure)")
	for _, name := range []string{"n", "t", "curve", "epoch", "silent", "nonce", "seed"} {
		mustBind("simulate."+name, flags.Lookup(name))
	}
}

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("failed to bind %s flag: %v", key, err))
	}
}

func newLogger(out io.Writer) (*logger.Logger, error) {
	if viper.GetBool("log.json") {
		return logger.NewJSON(out, viper.GetString("log.level"))
	}
	return logger.New(out, viper.GetString("log.level"))
}

func runSimulate(ctx context.Context, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	lggr, err := newLogger(stderr)
	if err != nil {
		return err
	}

	var silent []dkg.ParticipantIndex
	for _, i := range viper.GetIntSlice("simulate.silent") {
		silent = append(silent, dkg.ParticipantIndex(i))
	}
	sim, err := simulation.New(ctx, simulation.Config{
		N:          viper.GetInt("simulate.n"),
		Threshold:  viper.GetInt("simulate.t"),
		Curve:      viper.GetString("simulate.curve"),
		Epoch:      viper.GetUint64("simulate.epoch"),
		Silent:     silent,
		Seed:       viper.GetString("simulate.seed"),
		Logger:     lggr,
		Registerer: prometheus.NewRegistry(),
	})
	if err != nil {
		return err
	}
	if err := sim.Run(ctx); err != nil {
		return err
	}

	results := sim.Results()
	for _, node := range sim.Nodes() {
		i := node.Participant.Index()
		if result, ok := results[i]; ok {
			fmt.Fprintf(stdout, "participant %d (%s): %s, correct dealers %s\n", i, node.Identity.Hex(), node.Participant.State(), result.CorrectDealers)
		} else {
			_, cause := node.Participant.Result()
			fmt.Fprintf(stdout, "participant %d (%s): %s, %v\n", i, node.Identity.Hex(), node.Participant.State(), cause)
		}
	}
	if len(results) == 0 {
		return fmt.Errorf("no participant concluded epoch %d", viper.GetUint64("simulate.epoch"))
	}
	concluded := slices.Sorted(maps.Keys(results))
	fmt.Fprintf(stdout, "group key: %x\n", results[concluded[0]].GroupKey.Bytes())

	if viper.GetString("simulate.curve") != math.BLS12381G1.Name() {
		return nil
	}
	boxes, err := sim.KeyBoxes()
	if err != nil {
		return err
	}
	nonce := []byte(viper.GetString("simulate.nonce"))
	var shares []*beacon.Share
	for _, i := range concluded[:min(len(concluded), sim.Committee().Threshold())] {
		shares = append(shares, boxes[i].GenerateShare(nonce))
	}
	combiner := boxes[shares[0].Creator]
	randomness, err := combiner.CombineShares(shares)
	if err != nil {
		return fmt.Errorf("failed to combine beacon shares: %w", err)
	}
	if !combiner.VerifyRandomness(randomness) {
		return errors.New("combined randomness does not verify")
	}
	fmt.Fprintf(stdout, "randomness(%q): %x\n", nonce, randomness.Value())
	return nil
}
