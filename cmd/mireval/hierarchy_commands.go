package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mireval/internal/dataset"
	"mireval/internal/experiment"
	"mireval/internal/hierarchy"
	"mireval/internal/report"
	"mireval/internal/textutil"
)

func newHierarchyCommand(ctx *commandContext) *cobra.Command {
	hierarchyCmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Inspect classification hierarchies",
	}
	hierarchyCmd.AddCommand(newHierarchyCheckCommand(ctx))
	return hierarchyCmd
}

func newHierarchyCheckCommand(ctx *commandContext) *cobra.Command {
	var groundTruth string

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Parse a hierarchy file and verify it covers the ground-truth classes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Classification.HierarchyFile
			if len(args) == 1 {
				path = args[0]
			}
			if strings.TrimSpace(path) == "" {
				return fmt.Errorf("no hierarchy file given and classification.hierarchy_file is unset")
			}

			var normalize hierarchy.Normalizer
			if cfg.Classification.CleanLabels {
				normalize = textutil.CleanLabel
			}
			h, err := hierarchy.Load(path, normalize)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			t := report.Table{
				Headers: []string{"Class", "Paths", "Longest"},
				Aligns:  []report.Alignment{report.AlignLeft, report.AlignRight, report.AlignRight},
			}
			for _, class := range h.Classes() {
				paths := h.Paths(class)
				longest := 0
				for _, p := range paths {
					longest = max(longest, len(p))
				}
				t.Rows = append(t.Rows, []string{class, strconv.Itoa(len(paths)), strconv.Itoa(longest)})
			}
			fmt.Fprintln(out, t.Render(report.IsTerminal(out)))

			truthPath := firstNonEmpty(groundTruth, cfg.Dataset.GroundTruth)
			if truthPath == "" || cfg.Task.Family != string(experiment.FamilyClassification) {
				return nil
			}
			records, err := dataset.LoadLabelGroundTruth(truthPath, cfg.Task.SubjectField)
			if err != nil {
				return fmt.Errorf("load ground truth: %w", err)
			}
			vocab := map[string]struct{}{}
			for _, rec := range records {
				value, ok := rec.Field(cfg.Task.SubjectField)
				if !ok {
					continue
				}
				label := value.Label()
				if normalize != nil {
					label = normalize(label)
				}
				if label != "" {
					vocab[label] = struct{}{}
				}
			}
			classes := make([]string, 0, len(vocab))
			for class := range vocab {
				classes = append(classes, class)
			}
			sort.Strings(classes)

			missing := h.Missing(classes)
			if len(missing) > 0 {
				return fmt.Errorf("hierarchy has no path for %d ground-truth classes: %s", len(missing), strings.Join(missing, ", "))
			}
			fmt.Fprintf(out, "All %d ground-truth classes are covered\n", len(classes))
			return nil
		},
	}

	cmd.Flags().StringVar(&groundTruth, "ground-truth", "", "Ground truth file to check coverage against (overrides dataset.ground_truth)")
	return cmd
}
