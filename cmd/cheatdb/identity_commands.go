package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cheatdb/internal/api"
	"cheatdb/internal/report"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.services()
			if err != nil {
				return err
			}
			rec, err := svc.Store.GetIdentity(cmd.Context(), id)
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("identity %d not found", id)
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, api.FromIdentity(*rec))
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.FormatRecord(*rec))
			return nil
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored identity with its phones and cards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.services()
			if err != nil {
				return err
			}
			removed, err := svc.DeleteIdentity(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("identity %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted identity %d\n", id)
			return nil
		},
	}
}
