package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ai-learning-coach-be/pkg/coach"
	"ai-learning-coach-be/pkg/knowledge"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kbcheck",
		Short: "Validate coaching knowledge files",
		Long: `Validate a knowledge file the way the coaching server loads it.

Examples:
  kbcheck validate data.xlsx                      # summary + surviving rows
  kbcheck validate https://host/data.csv --json   # rows as JSON
  kbcheck ask data.xlsx "수학 공부법" --style 목표지향형`,
		SilenceUsage: true,
	}
	root.AddCommand(newValidateCmd(), newAskCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file-or-url>",
		Short: "Parse and normalize a knowledge file, then print the surviving rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report.Entries)
			}
			printReport(cmd.OutOrStdout(), args[0], report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print surviving entries as JSON")
	return cmd
}

func newAskCmd() *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "ask <file-or-url> <query>",
		Short: "Answer one query against a knowledge file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if style != "" && !coach.IsLearningStyle(style) {
				return fmt.Errorf("unknown learning style %q", style)
			}
			report, err := load(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			query := strings.TrimSpace(args[1])
			reply := coach.Compose(coach.Match(query, style, report.Entries), query, style)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", color.CyanString("outcome:"), reply.Outcome)
			for _, step := range reply.Steps {
				fmt.Fprintln(out, step.Display())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "active learning style")
	return cmd
}

func load(ctx context.Context, location string) (knowledge.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := knowledge.NewSource(location, nil).Fetch(ctx)
	if err != nil {
		return knowledge.Report{}, err
	}
	rows, err := knowledge.ParseFile(payload.Name, payload.ContentType, payload.Data)
	if err != nil {
		return knowledge.Report{}, err
	}
	return knowledge.NormalizeDetailed(rows), nil
}

func printReport(out io.Writer, location string, report knowledge.Report) {
	ok := color.New(color.FgGreen, color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(out, "%s %s: %d entries\n", ok("OK"), location, len(report.Entries))
	if report.Dropped > 0 {
		fmt.Fprintf(out, "%s %d rows without question keyword dropped\n", warn("WARN"), report.Dropped)
	}
	for _, c := range report.Collisions {
		fmt.Fprintf(out, "%s row %d: %q overridden by %q for %s\n", warn("WARN"), c.Row, c.Overridden, c.Winner, c.Field)
	}

	for i, e := range report.Entries {
		style := e.LearningStyle
		if style == "" {
			style = knowledge.GenericStyle
		}
		fmt.Fprintf(out, "%3d  %-20s  %s\n", i+1, e.QuestionKeyword, style)
	}
}
