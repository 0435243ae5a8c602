package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"configllm/internal/app"
	"configllm/internal/domain"
	"configllm/internal/service"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		iterations int
		delay      float64
	)

	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Process files through the configured provider",
		Long: "Process every file for the configured number of iterations. Files may be\n" +
			"paths or names inside the file library; with none, the whole library is used.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("iterations") {
				iterations = cfg.Processing.NumIterations
			}
			if !cmd.Flags().Changed("delay") {
				delay = cfg.Processing.DelaySeconds
			}

			a, err := app.New(cfg, ctx.configPath())
			if err != nil {
				return err
			}
			defer a.Close()

			req := service.RunRequest{
				Files:      resolveFiles(a.Library.Dir(), args),
				Iterations: iterations,
				Delay:      time.Duration(delay * float64(time.Second)),
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			out := cmd.OutOrStdout()
			summary, err := a.Runs.Run(signalCtx, req, progressPrinter(out))
			if err != nil {
				return err
			}
			return reportSummary(out, summary)
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 1, "Iterations per file")
	cmd.Flags().Float64VarP(&delay, "delay", "d", 0, "Seconds to wait between attempts")
	return cmd
}

// resolveFiles keeps existing paths and maps bare names into the library.
func resolveFiles(libDir string, args []string) []string {
	files := make([]string, 0, len(args))
	for _, arg := range args {
		if _, err := os.Stat(arg); err == nil || arg != filepath.Base(arg) {
			files = append(files, arg)
			continue
		}
		files = append(files, filepath.Join(libDir, arg))
	}
	return files
}

func progressPrinter(out io.Writer) service.ProgressFunc {
	tty := isTerminal(out)
	return func(p domain.Progress) bool {
		line := fmt.Sprintf("[%5.1f%%] %s (iteration %d/%d, file %d/%d)",
			p.Percent, p.FileName, p.Iteration, p.TotalIterations, p.FileIndex, p.TotalFiles)
		if tty {
			fmt.Fprintf(out, "\r\033[K%s", line)
		} else {
			fmt.Fprintln(out, line)
		}
		return true
	}
}

func reportSummary(out io.Writer, s *domain.RunSummary) error {
	if isTerminal(out) {
		fmt.Fprintln(out)
	}
	if s.Status == domain.RunStatusFailed {
		return errors.New(s.Message)
	}
	fmt.Fprintln(out, s.Message)
	if s.ErrorDetails != "" {
		fmt.Fprintln(out, s.ErrorDetails)
	}
	if s.Status == domain.RunStatusCancelled {
		return context.Canceled
	}
	return nil
}
