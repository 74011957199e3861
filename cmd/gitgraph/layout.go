package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kurobon/gitgraph/internal/config"
	"github.com/kurobon/gitgraph/internal/graph"
)

// computeLayout fetches the log once and lays it out.
func computeLayout(cmd *cobra.Command, opts *rootOptions, limit int) (*graph.Graph, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		cfg.LogLimit = limit
	}
	return layoutFor(cmd, cfg)
}

func layoutFor(cmd *cobra.Command, cfg *config.Config) (*graph.Graph, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	session, err := openSession(cfg)
	if err != nil {
		return nil, err
	}
	res, err := session.Log(cmd.Context(), cfg.LogLimit)
	if err != nil {
		return nil, err
	}
	g := graph.New(graph.WithLocation(loc))
	g.Refresh(res.Update())
	return g, nil
}

func newLayoutCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the computed layout as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := computeLayout(cmd, opts, limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(g.Layout())
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum commits to fetch (overrides config)")
	return cmd
}

func newActionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Print the remote sync actions available for each local branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := computeLayout(cmd, opts, 0)
			if err != nil {
				return err
			}
			layout := g.Layout()

			var branches []graph.RefView
			for _, r := range layout.Refs {
				if r.IsLocalBranch {
					branches = append(branches, r)
				}
			}
			sort.Slice(branches, func(i, j int) bool { return branches[i].DisplayName < branches[j].DisplayName })

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "BRANCH\tREMOTE\tACTIONS")
			for _, b := range branches {
				marker := " "
				if b.Current {
					marker = "*"
				}
				remote := "-"
				if b.RemoteRef != "" {
					remote = b.RemoteRef
				}
				fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, b.DisplayName, remote, describeActions(b.Actions))
			}
			return tw.Flush()
		},
	}
	return cmd
}

func describeActions(a graph.SyncActions) string {
	var out []string
	if a.Push {
		out = append(out, graph.ActionPush)
	}
	if a.Pull {
		out = append(out, graph.ActionPull)
	}
	if a.Rebase {
		out = append(out, graph.ActionRebase)
	}
	if a.Reset {
		out = append(out, graph.ActionReset)
	}
	if len(out) == 0 {
		return "up to date"
	}
	return strings.Join(out, ",")
}
