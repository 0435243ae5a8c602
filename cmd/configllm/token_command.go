package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"configllm/internal/auth"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the control API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			a, err := auth.NewAuthority(cfg.Auth)
			if err != nil {
				return err
			}
			tok, err := a.Issue(operator)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tok.AccessToken)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "operator", "Name recorded in the token")
	return cmd
}
