package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"cheatdb/internal/report"
	"cheatdb/internal/services"
)

const reportHelp = `Type identifiers, phones, cards, and proof links; each line is added to the draft.
Commands:
  /show     print the current draft
  /commit   save the draft
  /cancel   discard the draft
  /help     show this help
  /quit     leave (an uncommitted draft is discarded)`

func newReportCommand(ctx *commandContext) *cobra.Command {
	var operator int64

	cmd := &cobra.Command{
		Use:   "report",
		Short: "File a report interactively",
		Long:  "Read report input from stdin line by line. A blank line separates messages.\n\n" + reportHelp,
		RunE: func(cmd *cobra.Command, args []string) error {
			if operator <= 0 {
				return errors.New("--operator is required")
			}
			svc, err := ctx.services()
			if err != nil {
				return err
			}
			ok, err := svc.Store.IsOperator(cmd.Context(), operator)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%d is not a registered operator", operator)
			}
			return runReportSession(cmd, svc, operator)
		},
	}

	cmd.Flags().Int64Var(&operator, "operator", 0, "Operator id filing the report")
	return cmd
}

// runReportSession buffers typed lines into a message until a blank line or
// a slash command, then applies the message to the operator's draft.
func runReportSession(cmd *cobra.Command, svc *services.Services, operator int64) error {
	in := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	reports := svc.Reports
	defer reports.Cancel(operator)

	var pending []string
	flush := func() {
		if len(pending) == 0 {
			return
		}
		text := strings.Join(pending, "\n")
		pending = pending[:0]
		res, err := reports.Apply(cmd.Context(), operator, text)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return
		}
		printApplyResult(out, res)
	}

	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if !strings.HasPrefix(line, "/") {
			if line == "" {
				flush()
				continue
			}
			pending = append(pending, line)
			continue
		}
		flush()
		switch strings.ToLower(line) {
		case "/show":
			draft, _ := reports.Draft(operator)
			fmt.Fprintln(out, report.FormatDraft(draft))
		case "/commit":
			rec, err := reports.Commit(cmd.Context(), operator)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Saved:")
			fmt.Fprintln(out, report.FormatRecord(rec))
		case "/cancel":
			if reports.Cancel(operator) {
				fmt.Fprintln(out, "Draft discarded")
			} else {
				fmt.Fprintln(out, "No draft in progress")
			}
		case "/help":
			fmt.Fprintln(out, reportHelp)
		case "/quit", "/exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command %s (try /help)\n", line)
		}
	}
	if err := in.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	flush()
	return nil
}

func printApplyResult(out io.Writer, res report.ApplyResult) {
	for _, line := range res.Lines {
		if line.Change != nil {
			fmt.Fprintf(out, "+ %s\n", line.Change)
		}
		for _, note := range line.Notes {
			fmt.Fprintf(out, "  %s\n", note)
		}
	}
	if res.HandlesUpdated > 0 {
		fmt.Fprintf(out, "  refreshed %d stored handle(s)\n", res.HandlesUpdated)
	}
}
