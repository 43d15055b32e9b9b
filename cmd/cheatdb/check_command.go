package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cheatdb/internal/api"
	"cheatdb/internal/report"
	"cheatdb/internal/resolve"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <identifier>...",
		Short: "Look identifiers up in the database",
		Long:  "Check profile links, screen names, phone numbers, or card numbers against stored reports.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services()
			if err != nil {
				return err
			}

			var results []resolve.CheckResult
			var queries []string
			for _, arg := range args {
				res, err := svc.Engine.Check(cmd.Context(), svc.Classifier.Classify(arg))
				if err != nil {
					if errors.Is(err, resolve.ErrNotCheckable) {
						return fmt.Errorf("%q: %w", arg, err)
					}
					return fmt.Errorf("check %q: %w", arg, err)
				}
				results = append(results, res)
				queries = append(queries, arg)
			}

			if ctx.jsonMode() {
				out := make([]api.CheckResponse, 0, len(results))
				for i, res := range results {
					out = append(out, api.FromCheckResult(queries[i], res))
				}
				return writeJSON(cmd, out)
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(results))
			for i, res := range results {
				rows = append(rows, []string{
					queries[i],
					string(res.Input.Category),
					renderVerdict(res.Verdict, colorize),
					matchSummary(res),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{header: "Query", maxWidth: 40},
				{header: "Category"},
				{header: "Verdict"},
				{header: "Records", maxWidth: 60},
			}, rows))
			return nil
		},
	}
}

func matchSummary(res resolve.CheckResult) string {
	parts := make([]string, 0, len(res.Matches)+1)
	for _, rec := range res.Matches {
		parts = append(parts, report.FormatInline(rec))
	}
	if res.Entry.Banned {
		parts = append(parts, "(profile banned or deleted)")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func parseID(arg string) (int64, error) {
	value := strings.TrimPrefix(strings.TrimSpace(arg), "id")
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}
