package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cheatdb/internal/api"
)

func newOperatorsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operators",
		Short: "Manage the operators allowed to file reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered operators",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services()
			if err != nil {
				return err
			}
			ids, err := svc.Store.ListOperators(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, api.OperatorsResponse{Operators: ids})
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No operators registered")
				return nil
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []string{strconv.FormatInt(id, 10)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{{header: "Operator", numeric: true}}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id>",
		Short: "Register an operator",
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
			if err := svc.Store.AddOperator(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Operator %d registered\n", id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an operator",
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
			removed, err := svc.Store.RemoveOperator(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("operator %d is not registered", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Operator %d removed\n", id)
			return nil
		},
	})

	return cmd
}
