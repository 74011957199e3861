package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kurobon/gitgraph/internal/git"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run -- <command> [args...]",
		Short: "Run one ref-mutating command (branch, tag, checkout, reset, push, pull, rebase, fetch)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "git" {
				args = args[1:]
			}
			if len(args) == 0 {
				return fmt.Errorf("no command given")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			session, err := openSession(cfg)
			if err != nil {
				return err
			}
			out, err := git.Run(cmd.Context(), session, args...)
			if err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
}
