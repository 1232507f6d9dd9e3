package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mireval/internal/report"
	"mireval/internal/repository"
	"mireval/internal/tasks"
)

func newDatasetCommand(ctx *commandContext) *cobra.Command {
	datasetCmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage datasets stored in the local repository",
	}

	datasetCmd.AddCommand(newDatasetImportCommand(ctx))
	datasetCmd.AddCommand(newDatasetListCommand(ctx))
	datasetCmd.AddCommand(newDatasetDeleteCommand(ctx))

	return datasetCmd
}

func newDatasetImportCommand(ctx *commandContext) *cobra.Command {
	var sources sourceFlags
	var name string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import folds and ground truth for the configured task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			task, err := tasks.TaskFromConfig(cfg)
			if err != nil {
				return err
			}
			inputs, err := loadFileInputs(cfg, task, sources)
			if err != nil {
				return err
			}
			info := inputs.dataset
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				info.Name = trimmed
			}

			store, err := repository.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if _, err := store.Import(cmd.Context(), repository.Dataset{
				Dataset:      info,
				Family:       task.Family,
				SubjectField: task.SubjectField,
				Folds:        inputs.folds,
				GroundTruth:  inputs.truth,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported dataset %s (%d folds, %d tracks)\n", info.Name, len(inputs.folds), len(inputs.truth))
			return nil
		},
	}

	cmd.Flags().StringVar(&sources.manifest, "manifest", "", "Fold manifest (overrides dataset.fold_manifest)")
	cmd.Flags().StringVar(&sources.groundTruth, "ground-truth", "", "Ground truth file or directory (overrides dataset.ground_truth)")
	cmd.Flags().StringVar(&name, "name", "", "Name to store the dataset under (defaults to the manifest or config name)")
	return cmd
}

func newDatasetListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := repository.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No datasets imported")
				return nil
			}

			t := report.Table{
				Headers: []string{"Name", "Family", "Field", "Folds", "Tracks", "Imported"},
				Aligns: []report.Alignment{
					report.AlignLeft, report.AlignLeft, report.AlignLeft,
					report.AlignRight, report.AlignRight, report.AlignLeft,
				},
			}
			for _, s := range summaries {
				imported := "-"
				if !s.ImportedAt.IsZero() {
					imported = s.ImportedAt.Local().Format(time.DateTime)
				}
				t.Rows = append(t.Rows, []string{
					s.Name,
					string(s.Family),
					s.SubjectField,
					strconv.Itoa(s.Folds),
					strconv.Itoa(s.Tracks),
					imported,
				})
			}
			fmt.Fprintln(out, t.Render(report.IsTerminal(out)))
			return nil
		},
	}
}

func newDatasetDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := repository.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted dataset %s\n", args[0])
			return nil
		},
	}
}
