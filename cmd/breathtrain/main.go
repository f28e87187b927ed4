package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"breathtrain/internal/bootstrap"
	"breathtrain/internal/platform/config"
	"breathtrain/internal/platform/logging"
	"breathtrain/internal/platform/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cliState struct {
	dataDir   string
	verbose   bool
	ephemeral bool
	cfg     config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	rt := &cliState{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "breathtrain",
		Short:         "Paced breathing training protocol",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(rt.dataDir)
			if err != nil {
				return err
			}
			cfg.Ephemeral = rt.ephemeral
			rt.cfg = cfg
			level := cfg.LogLevel
			if rt.verbose {
				level = "debug"
			}
			if cmd.Name() == "practice" && !rt.verbose {
				return nil
			}
			logger, err := logging.New(level)
			if err != nil {
				return err
			}
			rt.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if err := metrics.WriteTextfile(rt.cfg.MetricsTextfile); err != nil {
				rt.logger.Warn("metrics textfile not written", zap.Error(err))
			}
			_ = rt.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&rt.dataDir, "data-dir", ".", "directory holding breathtrain.yaml and the .breathtrain store")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&rt.ephemeral, "ephemeral", false, "keep all state in memory; nothing is written to the store")

	root.AddCommand(newRegimesCmd(rt))
	root.AddCommand(newPacerCmd(rt))
	root.AddCommand(newSegmentCmd(rt))
	root.AddCommand(newPracticeCmd(rt))
	return root
}

func (rt *cliState) withApp(fn func(app *bootstrap.App) error) error {
	app, err := bootstrap.New(rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			rt.logger.Warn("close store", zap.Error(cerr))
		}
	}()
	return fn(app)
}

func newRegimesCmd(rt *cliState) *cobra.Command {
	regimes := &cobra.Command{Use: "regimes", Short: "Daily regime assignment"}

	var condition string
	var stage int

	generate := &cobra.Command{
		Use:   "generate --condition A|B --stage 2|3",
		Short: "Decide and file today's six regimes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(func(app *bootstrap.App) error {
				out, err := app.SelectionCLI.Generate(context.Background(), condition, stage)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if len(out.Regimes) == 0 {
					_, _ = fmt.Fprintf(w, "%s stage %d complete, nothing assigned\n", out.Date, stage)
					return nil
				}
				_, _ = fmt.Fprintf(w, "%s stage %d\n", out.Date, stage)
				for i, r := range out.Regimes {
					_, _ = fmt.Fprintf(w, "%d\t%s\n", i+1, r)
				}
				return nil
			})
		},
	}

	session := &cobra.Command{
		Use:   "session --condition A|B --stage 2|3",
		Short: "List the regimes still pending today that fit before the session cap",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(func(app *bootstrap.App) error {
				out, err := app.SessionCLI.Regimes(context.Background(), condition, stage)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "%s available=%s pending=%d generated=%t\n",
					out.Date, time.Duration(out.AvailableMs)*time.Millisecond, len(out.Regimes), out.Generated)
				for i, r := range out.Regimes {
					_, _ = fmt.Fprintf(w, "%d\t%s\n", i+1, r)
				}
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{generate, session} {
		c.Flags().StringVar(&condition, "condition", "A", "experimental condition: A|B")
		c.Flags().IntVar(&stage, "stage", 2, "protocol stage: 2|3")
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Mean coherence and 90% interval per regime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(func(app *bootstrap.App) error {
				items, err := app.RegimeCLI.Stats(context.Background())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				for _, it := range items {
					mark := ""
					if it.Best {
						mark = "  *best"
					}
					_, _ = fmt.Fprintf(w, "%d\t%.3f bpm\tn=%d\tmean=%s\tci90=[%s, %s]\tbest_cnt=%d%s\n",
						it.ID, it.BreathsPerMinute, it.Count, fmtStat(it.Mean), fmtStat(it.Low90CI), fmtStat(it.High90CI), it.IsBestCnt, mark)
				}
				return nil
			})
		},
	}

	regimes.AddCommand(generate, session, stats)
	return regimes
}

func newPacerCmd(rt *cliState) *cobra.Command {
	pacer := &cobra.Command{Use: "pacer", Short: "Breath pacing"}

	var (
		bpm        float64
		durationMs int64
		hold       string
		randomize  bool
		asJSON     bool
	)
	breaths := &cobra.Command{
		Use:   "breaths",
		Short: "Print the inhale/hold/exhale schedule for a regime",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(func(app *bootstrap.App) error {
				plan, err := app.PacerCLI.Breaths(context.Background(), durationMs, bpm, hold, randomize)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(plan.Phases)
				}
				_, _ = fmt.Fprintf(w, "%d breaths in %.0fms (%.3f bpm)\n", plan.Breaths, plan.TotalDurationMs, plan.EffectiveBreathsPM)
				for _, p := range plan.Phases {
					_, _ = fmt.Fprintf(w, "%s\t%.1f\n", p.BreathType, p.DurationMs)
				}
				return nil
			})
		},
	}
	breaths.Flags().Float64Var(&bpm, "bpm", 6, "breaths per minute")
	breaths.Flags().Int64Var(&durationMs, "duration-ms", 300000, "regime duration in milliseconds")
	breaths.Flags().StringVar(&hold, "hold", "", "hold position: postInhale|postExhale")
	breaths.Flags().BoolVar(&randomize, "randomize", false, "jitter each breath by up to ±2s")
	breaths.Flags().BoolVar(&asJSON, "json", false, "print phases as JSON")

	pacer.AddCommand(breaths)
	return pacer
}

func newSegmentCmd(rt *cliState) *cobra.Command {
	segment := &cobra.Command{Use: "segment", Short: "Practice segment lifecycle"}

	var regimeID int64
	var stage int
	start := &cobra.Command{
		Use:   "start --regime-id <id> --stage <1|2|3>",
		Short: "Start a practice segment; omit --regime-id for rest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(func(app *bootstrap.App) error {
				out, err := app.SessionCLI.StartSegment(context.Background(), regimeID, stage)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "segment %s started at %s\n", out.SegmentID, out.StartedAt.Format(time.RFC3339))
				return nil
			})
		},
	}
	start.Flags().Int64Var(&regimeID, "regime-id", -1, "regime id (negative for a rest segment)")
	start.Flags().IntVar(&stage, "stage", 2, "protocol stage: 1|2|3")

	var segmentID string
	var coherence float64
	end := &cobra.Command{
		Use:   "end --avg-coherence <value>",
		Short: "End the active segment and record its coherence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(func(app *bootstrap.App) error {
				out, err := app.SessionCLI.EndSegment(context.Background(), segmentID, coherence)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "segment %s recorded as %d (%s, coherence %.3f)\n",
					out.SegmentID, out.StoreID, out.EndedAt.Sub(out.StartedAt).Round(time.Second), out.AvgCoherence)
				return nil
			})
		},
	}
	end.Flags().StringVar(&segmentID, "segment-id", "", "expected active segment id (optional)")
	end.Flags().Float64Var(&coherence, "avg-coherence", math.NaN(), "average coherence over the segment")
	_ = end.MarkFlagRequired("avg-coherence")

	active := &cobra.Command{
		Use:   "active",
		Short: "Show the active segment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withApp(func(app *bootstrap.App) error {
				out, err := app.SessionCLI.Active(context.Background())
				if err != nil {
					return err
				}
				regime := "rest"
				if out.RegimeID != nil {
					regime = fmt.Sprintf("regime %d", *out.RegimeID)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "segment %s %s stage %d since %s\n",
					out.SegmentID, regime, int(out.Stage), out.StartedAt.Format(time.RFC3339))
				return nil
			})
		},
	}

	segment.AddCommand(start, end, active)
	return segment
}

func newPracticeCmd(rt *cliState) *cobra.Command {
	var condition string
	var stage int
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Run the pacer terminal UI for today's session",
		RunE: func(_ *cobra.Command, _ []string) error {
			return rt.withApp(func(app *bootstrap.App) error {
				return bootstrap.RunTUI(app, condition, stage)
			})
		},
	}
	cmd.Flags().StringVar(&condition, "condition", "A", "experimental condition: A|B")
	cmd.Flags().IntVar(&stage, "stage", 2, "protocol stage: 2|3")
	return cmd
}

func fmtStat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3f", v)
}
