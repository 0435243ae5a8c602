package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"configllm/internal/audit"
	"configllm/internal/csvexport"
	"configllm/internal/tables"
)

func newTablesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Work with tables extracted from the transcript",
	}
	cmd.AddCommand(newTablesExportCommand(ctx))
	return cmd
}

func newTablesExportCommand(ctx *commandContext) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every CSV table found in the transcript",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if format != tables.FormatCSV && format != tables.FormatXLSX {
				return fmt.Errorf("format must be %s or %s", tables.FormatCSV, tables.FormatXLSX)
			}

			m, err := tables.Load(filepath.Join(cfg.Paths.OutputDir, audit.TranscriptFile))
			if err != nil {
				return err
			}
			if m.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No tables found in the transcript.")
				return nil
			}

			if output == "" {
				output = filepath.Join(cfg.Paths.OutputDir, csvexport.BuildFilename("extracted_tables", format))
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			if err := tables.Export(f, m, format, filepath.Join(cfg.Paths.OutputDir, audit.SummaryFile)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("closing %s: %w", output, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) from %d table(s) to %s\n", len(m.Rows), m.SourceTables, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", tables.FormatCSV, "Export format (csv or xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: output directory)")
	return cmd
}
