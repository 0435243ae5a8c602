package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"configllm/internal/csvexport"
	"configllm/internal/domain"
	"configllm/internal/repository/sqlstore"
)

func newAttemptsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit int
		runID string
	)
	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "List attempts recorded in the attempt database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.DB.Enabled() {
				return domain.ErrSinkDisabled
			}
			if err := sqlstore.Migrate(&cfg.DB); err != nil {
				return err
			}
			db, err := sqlstore.NewDB(&cfg.DB)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := sqlstore.NewAttemptRepo(db)

			var results []domain.AttemptResult
			if runID != "" {
				results, err = repo.ListByRun(cmd.Context(), runID)
			} else {
				results, err = repo.ListRecent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No attempts recorded.")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Succeeded {
					status = string(r.FailureKind)
				}
				rows = append(rows, []string{
					r.Timestamp.Local().Format(csvexport.TimestampLayout),
					r.WorkItem.FileName,
					strconv.Itoa(r.WorkItem.Iteration),
					string(r.Provider),
					r.ModelID,
					status,
					csvexport.Snippet(firstNonEmpty(r.ErrorMessage, r.ResultText)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "File", "Iter", "Provider", "Model", "Status", "Result"}, rows, 3))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of recent attempts")
	cmd.Flags().StringVar(&runID, "run", "", "Show every attempt of one run")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
