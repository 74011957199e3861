package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kurobon/gitgraph/internal/config"
	"github.com/kurobon/gitgraph/internal/git"
	_ "github.com/kurobon/gitgraph/internal/git/commands" // register commands
)

type rootOptions struct {
	configPath string
	repoPath   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "gitgraph",
		Short:         "Lay out a git commit graph and serve it over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVarP(&opts.repoPath, "repo", "C", "", "repository path (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "development logging at debug level")

	cmd.AddCommand(
		newServeCmd(opts),
		newLayoutCmd(opts),
		newActionsCmd(opts),
		newRunCmd(opts),
	)
	return cmd
}

// execute runs the command tree and returns the process exit code.
func execute(args []string) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.repoPath != "" {
		cfg.RepoPath = o.repoPath
	}
	return cfg, nil
}

func (o *rootOptions) newLogger() (*zap.Logger, error) {
	if o.verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func openSession(cfg *config.Config) (*git.Session, error) {
	s, err := git.Open(cfg.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return s, nil
}
