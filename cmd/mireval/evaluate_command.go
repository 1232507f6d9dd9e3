package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mireval/internal/dataset"
	"mireval/internal/evaluation"
	"mireval/internal/logging"
	"mireval/internal/report"
	"mireval/internal/tasks"
)

func newEvaluateCommand(ctx *commandContext) *cobra.Command {
	var sources sourceFlags
	var submissions []string
	var format string
	var parallel int
	var tracks bool
	var noWrite bool

	cmd := &cobra.Command{
		Use:   "evaluate --submission id[:name]=dir [--submission ...]",
		Short: "Score system submissions against the configured task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(submissions) == 0 {
				return fmt.Errorf("at least one --submission is required")
			}
			specs := make([]dataset.SubmissionSpec, 0, len(submissions))
			for _, raw := range submissions {
				spec, err := dataset.ParseSubmissionSpec(raw)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()

			task, err := tasks.TaskFromConfig(cfg)
			if err != nil {
				return err
			}
			inputs, err := loadInputs(runCtx, cfg, task, sources)
			if err != nil {
				return err
			}
			scorerOpts, err := tasks.ScorerOptions(cfg, logger)
			if err != nil {
				return err
			}

			session, err := evaluation.NewSession(tasks.NewRegistry(), task, inputs.dataset, inputs.folds, evaluation.SessionOptions{
				Logger: logger,
				Scorer: scorerOpts,
			})
			if err != nil {
				return err
			}
			if err := session.SetGroundTruth(inputs.truth); err != nil {
				return err
			}

			loader := dataset.Loader{Family: task.Family, Field: task.SubjectField, Parallel: parallel, Logger: logger}
			subs, err := loader.Load(runCtx, session.Folds(), specs)
			if err != nil {
				return err
			}
			for _, sub := range subs {
				if len(sub.Folds) == 0 {
					return fmt.Errorf("submission %s: no result files found for any declared fold", sub.JobID)
				}
				for _, foldID := range sub.FoldIDs() {
					if err := session.AddResults(sub.JobID, sub.Name, foldID, sub.Folds[foldID]); err != nil {
						return err
					}
				}
			}

			results, err := session.Evaluate(runCtx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			opts := report.Options{
				Format:    firstNonEmpty(format, cfg.Report.Format),
				Precision: cfg.Report.Precision,
				Fancy:     report.IsTerminal(out),
				Tracks:    tracks,
			}
			if err := report.Write(out, results, opts); err != nil {
				return err
			}

			if noWrite {
				return nil
			}
			paths, err := report.WriteFiles(cfg.Paths.OutputDir, results, opts)
			if err != nil {
				return err
			}
			logging.NewComponentLogger(logger, "cli").Info("reports written",
				logging.String(logging.FieldRunID, results.RunID),
				logging.Int("files", len(paths)),
				logging.String("output_dir", cfg.Paths.OutputDir),
			)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&submissions, "submission", "s", nil, "Submission as id[:name]=dir (repeatable)")
	cmd.Flags().StringVar(&sources.dataset, "dataset", "", "Evaluate against a dataset stored in the repository")
	cmd.Flags().StringVar(&sources.manifest, "manifest", "", "Fold manifest (overrides dataset.fold_manifest)")
	cmd.Flags().StringVar(&sources.groundTruth, "ground-truth", "", "Ground truth file or directory (overrides dataset.ground_truth)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: table, json, or yaml")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Submissions to load concurrently")
	cmd.Flags().BoolVar(&tracks, "tracks", false, "Include per-track metrics in JSON and YAML output")
	cmd.Flags().BoolVar(&noWrite, "no-write", false, "Skip writing report files to the output directory")
	cmd.MarkFlagsMutuallyExclusive("dataset", "manifest")
	cmd.MarkFlagsMutuallyExclusive("dataset", "ground-truth")
	return cmd
}
