package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-kgx/pkg/config"
	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
	"github.com/dd0wney/cluso-kgx/pkg/transformer"
)

func loadAndMergeCmd(a *app) *cobra.Command {
	var (
		dest           transformer.Neo4jConfig
		allowConflicts bool
	)

	cmd := &cobra.Command{
		Use:   "load-and-merge CONFIG",
		Short: "Load graphs from several Neo4j databases and merge them",
		Long: `Reads a YAML merge config naming one or more Neo4j targets, loads
each through its target_filter and query_limits, merges the graphs in
document order and writes the result to the configured destination or to
the database given with --destination-uri.

Targets that disagree on a required attribute (category) stop the merge
unless --allow-conflicts is set, in which case the later target wins and
each conflict is listed on stderr.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadMergeConfig(args[0])
			if err != nil {
				return err
			}

			graphs := make([]*graph.Graph, 0, len(cfg.Target))
			for _, name := range cfg.Names() {
				g, err := a.loadTarget(ctx, name, cfg.Target[name])
				if err != nil {
					return fmt.Errorf("target %s: %w", name, err)
				}
				graphs = append(graphs, g)
			}

			merged, err := a.merge(cmd.ErrOrStderr(), graphs, allowConflicts)
			if err != nil {
				return err
			}
			a.metrics.SetGraphSize(merged.NodeCount(), merged.EdgeCount())

			written, err := a.saveMerged(ctx, merged, cfg.Destination, dest)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf(
				"Merged %d targets into %s (%d nodes, %d edges)",
				len(graphs), written, merged.NodeCount(), merged.EdgeCount())))
			return nil
		},
	}

	cmd.Flags().StringVar(&dest.URI, "destination-uri", "", "Bolt URI of the destination database")
	cmd.Flags().StringVar(&dest.Username, "destination-username", "", "Destination username")
	cmd.Flags().StringVar(&dest.Password, "destination-password", "", "Destination password")
	cmd.Flags().BoolVar(&allowConflicts, "allow-conflicts", false, "Write the merged graph even when targets disagree on required attributes")
	return cmd
}

// merge combines graphs in order. Conflicts on required attributes are
// listed on w and fail the merge unless allowed.
func (a *app) merge(w io.Writer, graphs []*graph.Graph, allowConflicts bool) (*graph.Graph, error) {
	merged, err := graph.Merge(graphs, graph.WithMergeLogger(a.logger), graph.WithMergeMetrics(a.metrics))
	var conflicts *graph.ConflictError
	if !errors.As(err, &conflicts) {
		return merged, err
	}

	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("%d merge conflicts:", len(conflicts.Conflicts))))
	for _, c := range conflicts.Conflicts {
		fmt.Fprintln(w, "  "+c.String())
	}
	if !allowConflicts {
		return nil, fmt.Errorf("%w (rerun with --allow-conflicts to keep the later values)", err)
	}
	a.logger.Warn("merge conflicts kept", logging.Count(len(conflicts.Conflicts)))
	return merged, nil
}

func (a *app) loadTarget(ctx context.Context, name string, target config.Target) (*graph.Graph, error) {
	fs := &graph.FilterSet{}
	keys := make([]string, 0, len(target.TargetFilter))
	for k := range target.TargetFilter {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := fs.Set(k, target.TargetFilter[k]); err != nil {
			return nil, err
		}
	}

	var opts transformer.LoadOptions
	if target.QueryLimits != nil {
		opts.Start = target.QueryLimits.Start
		opts.End = target.QueryLimits.End
	}

	t := transformer.NewNeo4jTransformer(nil, transformer.Neo4jConfig{
		URI:      target.Neo4j.URI(),
		Username: target.Neo4j.Username,
		Password: target.Neo4j.Password,
	}, a.transformerOptions(fs)...)
	defer t.Close(ctx)

	a.logger.Info("loading target", logging.String("target", name), logging.String("uri", target.Neo4j.URI()),
		logging.Int("filters", fs.Len()))
	if err := t.Load(ctx, opts); err != nil {
		return nil, err
	}
	return t.Graph(), nil
}

// saveMerged writes g to override when it names a database, else to the
// config destination.
func (a *app) saveMerged(ctx context.Context, g *graph.Graph, d *config.Destination, override transformer.Neo4jConfig) (string, error) {
	neo := override
	if neo.URI == "" && d != nil && d.Neo4j != nil {
		neo = transformer.Neo4jConfig{URI: d.Neo4j.URI(), Username: d.Neo4j.Username, Password: d.Neo4j.Password}
	}
	if neo.URI != "" {
		t := transformer.NewNeo4jTransformer(g, neo, a.transformerOptions(nil)...)
		defer t.Close(ctx)
		return t.SaveWithUnwind(ctx, neo.URI)
	}
	if d == nil || d.Path == "" {
		return "", errors.New("no destination: set one in the config or pass --destination-uri")
	}
	return transformer.SaveAs(ctx, g, d.Path, d.Format, a.transformerOptions(nil)...)
}
