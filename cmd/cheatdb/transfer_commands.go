package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cheatdb/internal/api"
	"cheatdb/internal/config"
	"cheatdb/internal/fileutil"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var showSkipped bool

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a text document of reports",
		Long:  "Import a document of identity blocks. Each profile line opens a record; following phone, card, and proof lines attach to it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services()
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				path, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()
				r = f
			}

			summary, err := svc.Importer.Import(cmd.Context(), r)
			if err != nil {
				return fmt.Errorf("import (%d records merged before failure): %w", len(summary.Imported), err)
			}
			if ctx.jsonMode() {
				return writeJSON(cmd, api.FromSummary(summary))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d records, skipped %d lines\n", len(summary.Imported), summary.Skipped)
			if showSkipped && len(summary.SkippedLines) > 0 {
				rows := make([][]string, 0, len(summary.SkippedLines))
				for _, s := range summary.SkippedLines {
					rows = append(rows, []string{fmt.Sprint(s.Line), s.Text, s.Reason})
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "Line", numeric: true},
					{header: "Text", maxWidth: 50},
					{header: "Reason"},
				}, rows))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSkipped, "show-skipped", false, "List skipped lines with reasons")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every stored record as an importable document",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.services()
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outputPath)
			if target == "" || target == "-" {
				_, err := svc.Importer.Export(cmd.Context(), cmd.OutOrStdout())
				return err
			}

			target, err = config.ExpandPath(target)
			if err != nil {
				return err
			}
			var n int
			err = fileutil.WriteAtomic(target, 0o644, func(w io.Writer) error {
				var werr error
				n, werr = svc.Importer.Export(cmd.Context(), w)
				return werr
			})
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", n, target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}
