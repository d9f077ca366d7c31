package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/regressionfit/internal/compare"
	"github.com/cwbudde/regressionfit/internal/config"
	"github.com/cwbudde/regressionfit/internal/fit"
	"github.com/cwbudde/regressionfit/internal/report"
	"github.com/cwbudde/regressionfit/internal/store"
)

// compareOptions are the flags of the compare command. Flags that were not
// set on the command line leave the configuration file values alone.
type compareOptions struct {
	configPath  string
	writeConfig string
	plotPath    string
	dataDir     string

	n          int
	dataSeed   uint64
	workers    int
	optimizers []string

	gaPop  int
	gaGens int
	gaSeed int64

	psoParticles int
	psoIters     int
	psoSeed      int64

	mayflyPop   int
	mayflyIters int
	mayflySeed  int64
}

var compareOpts compareOptions

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare least squares, GA and PSO on synthetic data",
	Long: `Generates a synthetic dataset from the configured linear model, fits it in
closed form and with every enabled optimizer, and prints the estimates side
by side. Settings come from --config (YAML) with command-line flags taking
precedence.`,
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	defaults := config.Default()

	f.StringVar(&compareOpts.configPath, "config", "", "Experiment YAML file")
	f.StringVar(&compareOpts.writeConfig, "write-config", "", "Write the effective experiment to this YAML file")
	f.StringVar(&compareOpts.plotPath, "plot", "", "Write a convergence plot (png, svg, pdf)")
	f.StringVar(&compareOpts.dataDir, "data-dir", "", "Persist runs and traces under this directory")

	f.IntVar(&compareOpts.n, "n", defaults.Data.N, "Number of observations")
	f.Uint64Var(&compareOpts.dataSeed, "data-seed", defaults.Data.Seed, "Seed of the synthetic data")
	f.IntVar(&compareOpts.workers, "workers", defaults.Workers, "Goroutines evaluating one generation or iteration")
	f.StringSliceVar(&compareOpts.optimizers, "optimizers", []string{"ga", "pso"}, "Optimizers to run (ga, pso, mayfly)")

	f.IntVar(&compareOpts.gaPop, "ga-pop", defaults.GA.PopulationSize, "GA population size")
	f.IntVar(&compareOpts.gaGens, "ga-gens", defaults.GA.Generations, "GA generations")
	f.Int64Var(&compareOpts.gaSeed, "ga-seed", defaults.GA.Seed, "GA random seed")

	f.IntVar(&compareOpts.psoParticles, "pso-particles", defaults.PSO.Particles, "PSO swarm size")
	f.IntVar(&compareOpts.psoIters, "pso-iters", defaults.PSO.Iterations, "PSO iterations")
	f.Int64Var(&compareOpts.psoSeed, "pso-seed", defaults.PSO.Seed, "PSO random seed")

	f.IntVar(&compareOpts.mayflyPop, "mayfly-pop", defaults.Mayfly.PopulationSize, "Mayfly population size (>= 20)")
	f.IntVar(&compareOpts.mayflyIters, "mayfly-iters", defaults.Mayfly.Iterations, "Mayfly iterations")
	f.Int64Var(&compareOpts.mayflySeed, "mayfly-seed", defaults.Mayfly.Seed, "Mayfly random seed")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	exp, err := compareOpts.experiment(cmd.Flags().Changed)
	if err != nil {
		return err
	}

	if compareOpts.writeConfig != "" {
		if err := exp.Write(compareOpts.writeConfig); err != nil {
			return err
		}
		slog.Info("Wrote experiment", "path", compareOpts.writeConfig)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return compareOpts.execute(ctx, cmd.OutOrStdout(), exp)
}

// experiment resolves the effective experiment: defaults, then the config
// file, then every flag for which changed reports true.
func (o *compareOptions) experiment(changed func(name string) bool) (config.Experiment, error) {
	exp := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return exp, err
		}
		exp = loaded
	}

	if changed("n") {
		exp.Data.N = o.n
	}
	if changed("data-seed") {
		exp.Data.Seed = o.dataSeed
	}
	if changed("workers") {
		exp.Workers = o.workers
	}
	if changed("optimizers") {
		for _, name := range o.optimizers {
			if name != "ga" && name != "pso" && name != "mayfly" {
				return exp, fmt.Errorf("unknown optimizer: %s", name)
			}
		}
		exp.GA.Enabled = slices.Contains(o.optimizers, "ga")
		exp.PSO.Enabled = slices.Contains(o.optimizers, "pso")
		exp.Mayfly.Enabled = slices.Contains(o.optimizers, "mayfly")
	}

	if changed("ga-pop") {
		exp.GA.PopulationSize = o.gaPop
	}
	if changed("ga-gens") {
		exp.GA.Generations = o.gaGens
	}
	if changed("ga-seed") {
		exp.GA.Seed = o.gaSeed
	}

	if changed("pso-particles") {
		exp.PSO.Particles = o.psoParticles
	}
	if changed("pso-iters") {
		exp.PSO.Iterations = o.psoIters
	}
	if changed("pso-seed") {
		exp.PSO.Seed = o.psoSeed
	}

	if changed("mayfly-pop") {
		exp.Mayfly.PopulationSize = o.mayflyPop
	}
	if changed("mayfly-iters") {
		exp.Mayfly.Iterations = o.mayflyIters
	}
	if changed("mayfly-seed") {
		exp.Mayfly.Seed = o.mayflySeed
	}

	if err := exp.Validate(); err != nil {
		return exp, err
	}
	return exp, nil
}

// execute runs the comparison described by exp and writes the table to out.
func (o *compareOptions) execute(ctx context.Context, out io.Writer, exp config.Experiment) error {
	data, err := fit.Generate(exp.TruthParams(), exp.Generator())
	if err != nil {
		return fmt.Errorf("failed to generate data: %w", err)
	}
	bounds, err := exp.SearchBounds()
	if err != nil {
		return err
	}
	optimizers, err := exp.Optimizers()
	if err != nil {
		return err
	}

	slog.Info("Starting comparison",
		"observations", data.Len(),
		"optimizers", len(optimizers),
		"workers", exp.Workers,
	)

	rep, err := compare.Run(ctx, compare.Input{
		Data:       data,
		Truth:      exp.TruthParams(),
		Bounds:     bounds,
		Optimizers: optimizers,
	})
	if err != nil {
		return err
	}

	if err := report.WriteTable(out, rep); err != nil {
		return err
	}

	if o.plotPath != "" {
		if err := report.SaveConvergencePlot(o.plotPath, rep); err != nil {
			return fmt.Errorf("failed to write plot: %w", err)
		}
		fmt.Fprintf(out, "\nWrote %s\n", o.plotPath)
	}

	if o.dataDir != "" {
		ids, err := persistRuns(o.dataDir, rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nSaved %d run(s) to %s\n", len(ids), o.dataDir)
	}
	return nil
}

// persistRuns stores one record and trace per outcome. Outcomes whose best
// value is not finite are skipped since JSON cannot carry them.
func persistRuns(dataDir string, rep *compare.Report) ([]string, error) {
	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create run store: %w", err)
	}

	experimentID := store.NewRunID()
	now := time.Now()
	var ids []string

	for _, o := range rep.Outcomes {
		if math.IsInf(o.LogLikelihood, 0) || math.IsNaN(o.LogLikelihood) {
			slog.Warn("Skipping run without a finite best value", "optimizer", o.Name)
			continue
		}

		runID := store.NewRunID()
		record := &store.RunRecord{
			RunID:         runID,
			ExperimentID:  experimentID,
			Optimizer:     o.Name,
			Sense:         o.Sense.String(),
			Best:          o.Result.Best,
			Value:         o.Result.Value,
			LogLikelihood: o.LogLikelihood,
			Truth:         rep.Truth.Vector(),
			Seed:          o.Result.Seed,
			Iterations:    o.Result.Iterations,
			Evaluations:   o.Result.Evaluations,
			Degenerate:    o.Result.Degenerate,
			Stabilized:    o.Result.Stabilized,
			ElapsedSec:    o.Result.Elapsed.Seconds(),
			Timestamp:     now,
		}
		if err := runStore.SaveRun(runID, record); err != nil {
			return ids, fmt.Errorf("failed to save %s run: %w", o.Name, err)
		}

		if err := writeTrace(dataDir, runID, o); err != nil {
			return ids, err
		}

		slog.Info("Saved run", "run_id", runID, "optimizer", o.Name)
		ids = append(ids, runID)
	}
	return ids, nil
}

func writeTrace(dataDir, runID string, o compare.Outcome) error {
	tw, err := store.NewTraceWriter(dataDir, runID, false)
	if err != nil {
		return err
	}
	if err := tw.WriteHistory(o.Result.History); err != nil {
		tw.Close()
		return err
	}
	return tw.Close()
}
