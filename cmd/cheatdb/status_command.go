package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cheatdb/internal/api"
	"cheatdb/internal/preflight"
)

type statusReport struct {
	DatabasePath        string             `json:"databasePath"`
	DirectoryConfigured bool               `json:"directoryConfigured"`
	Stats               api.Stats          `json:"stats"`
	Checks              []preflight.Result `json:"checks"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database counts and readiness checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services()
			if err != nil {
				return err
			}
			stats, err := svc.Store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			status := statusReport{
				DatabasePath:        svc.Store.Path(),
				DirectoryConfigured: svc.DirectoryConfigured(),
				Stats:               api.FromStats(stats),
			}
			if !skipChecks {
				status.Checks = preflight.RunAll(cmd.Context(), svc.Config, svc.Directory)
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s\n", status.DatabasePath)
			fmt.Fprintf(out, "Directory configured: %s\n", yesNo(status.DirectoryConfigured))
			fmt.Fprintln(out, renderTable([]column{
				{header: "Identities", numeric: true},
				{header: "Fifty", numeric: true},
				{header: "Phones", numeric: true},
				{header: "Cards", numeric: true},
				{header: "Operators", numeric: true},
			}, [][]string{{
				strconv.Itoa(stats.Identities),
				strconv.Itoa(stats.Fifty),
				strconv.Itoa(stats.Phones),
				strconv.Itoa(stats.Cards),
				strconv.Itoa(stats.Operators),
			}}))
			if len(status.Checks) > 0 {
				colorize := shouldColorize(out)
				fmt.Fprintln(out, "Checks:")
				for _, r := range status.Checks {
					fmt.Fprintln(out, renderCheckLine(r.Name, r.Passed, r.Detail, colorize))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Skip filesystem and directory API checks")
	return cmd
}
