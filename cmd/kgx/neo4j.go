package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
	"github.com/dd0wney/cluso-kgx/pkg/transformer"
)

// connection reads the ADDRESS USERNAME PASSWORD arguments shared by the
// database commands.
func connection(args []string) transformer.Neo4jConfig {
	return transformer.Neo4jConfig{URI: args[0], Username: args[1], Password: args[2]}
}

func neo4jDownloadCmd(a *app) *cobra.Command {
	var (
		outputType string
		directed   bool
		labels     []string
		properties []string
		batchSize  int
		batchStart int
	)

	cmd := &cobra.Command{
		Use:   "neo4j-download ADDRESS USERNAME PASSWORD OUTPUT",
		Short: "Download a graph from Neo4j into a file",
		Long: `Downloads nodes and relationships matching the --labels and
--properties filters. With --batch-size the download is split into
windows of that many rows, each written to its own file named after
OUTPUT with the batch number inserted, e.g. graph(0).json. Batching stops
at the first empty window.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if batchStart != 0 && batchSize == 0 {
				return errors.New("--batch-start requires --batch-size")
			}
			fs, err := filterFlags(labels, properties)
			if err != nil {
				return err
			}
			conn, output := connection(args), args[3]
			ctx := cmd.Context()

			if batchSize == 0 {
				written, err := a.download(ctx, conn, fs, transformer.LoadOptions{Directed: directed}, output, outputType)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Saved "+written))
				return nil
			}

			for i := batchStart; ; i++ {
				end := (i + 1) * batchSize
				opts := transformer.LoadOptions{Start: i * batchSize, End: &end, Directed: directed}
				written, err := a.download(ctx, conn, fs, opts, batchName(output, i), outputType)
				if err != nil {
					return err
				}
				if written == "" {
					a.logger.Info("download complete", logging.Int("batches", i-batchStart))
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Saved "+written))
			}
		},
	}

	cmd.Flags().StringVar(&outputType, "output-type", "", "Output format (default: from OUTPUT's extension)")
	cmd.Flags().BoolVar(&directed, "directed", false, "Apply subject filters to relationship start nodes only")
	cmd.Flags().StringArrayVar(&labels, "labels", nil, "Filter by label: LOCATION=VALUE, LOCATION is subject, object or edge")
	cmd.Flags().StringArrayVar(&properties, "properties", nil, "Filter by property: LOCATION=KEY=VALUE")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Rows per downloaded batch")
	cmd.Flags().IntVar(&batchStart, "batch-start", 0, "First batch to download")
	return cmd
}

// download loads one window and saves it. An empty window is not written
// and returns "".
func (a *app) download(ctx context.Context, conn transformer.Neo4jConfig, fs *graph.FilterSet,
	opts transformer.LoadOptions, output, outputType string) (string, error) {
	t := transformer.NewNeo4jTransformer(nil, conn, a.transformerOptions(fs)...)
	defer t.Close(ctx)

	if err := t.Load(ctx, opts); err != nil {
		return "", err
	}
	if t.Graph().IsEmpty() {
		return "", nil
	}
	return transformer.SaveAs(ctx, t.Graph(), output, outputType, a.transformerOptions(nil)...)
}

func neo4jUploadCmd(a *app) *cobra.Command {
	var (
		inputType string
		useUnwind bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "neo4j-upload ADDRESS USERNAME PASSWORD INPUTS...",
		Short: "Upload graphs from files into Neo4j",
		Args:  cobra.MinimumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := transformer.Load(ctx, args[3:], inputType, a.transformerOptions(nil)...)
			if err != nil {
				return err
			}

			conn := connection(args)
			t := transformer.NewNeo4jTransformer(src.Graph(), conn, a.transformerOptions(nil)...)
			defer t.Close(ctx)
			t.SetBatchSize(batchSize)

			if useUnwind {
				_, err = t.SaveWithUnwind(ctx, conn.URI)
			} else {
				_, err = t.Save(ctx, conn.URI, transformer.SaveOptions{})
			}
			if err != nil {
				return err
			}
			g := src.Graph()
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf(
				"Uploaded %d nodes and %d edges", g.NodeCount(), g.EdgeCount())))
			return nil
		},
	}

	cmd.Flags().StringVar(&inputType, "input-type", "", "Input format ("+formatList()+")")
	cmd.Flags().BoolVar(&useUnwind, "use-unwind", false, "Write in UNWIND batches grouped by category and predicate")
	cmd.Flags().IntVar(&batchSize, "batch-size", transformer.DefaultUnwindBatch, "Rows per UNWIND batch")
	return cmd
}

func nodeSummaryCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "node-summary ADDRESS USERNAME PASSWORD",
		Short: "Count nodes per category and identifier prefix",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := transformer.NewNeo4jTransformer(nil, connection(args), a.transformerOptions(nil)...)
			defer t.Close(ctx)

			bar := newProgressBar(cmd.ErrOrStderr(), "categories")
			rows, err := t.NodeSummary(ctx, bar.update)
			if err != nil {
				return err
			}
			header := []string{"category", "prefix", "frequency"}
			records := make([][]string, len(rows))
			for i, r := range rows {
				records[i] = []string{r.Category, r.Prefix, strconv.FormatInt(r.Frequency, 10)}
			}
			return writeSummary(cmd.OutOrStdout(), out, header, records)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the summary to this file instead of the terminal")
	return cmd
}

func edgeSummaryCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "edge-summary ADDRESS USERNAME PASSWORD",
		Short: "Count relationships per category pair, type and source",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t := transformer.NewNeo4jTransformer(nil, connection(args), a.transformerOptions(nil)...)
			defer t.Close(ctx)

			bar := newProgressBar(cmd.ErrOrStderr(), "category pairs")
			rows, err := t.EdgeSummary(ctx, bar.update)
			if err != nil {
				return err
			}
			header := []string{"subject_category", "subject_prefix", "edge_type",
				"object_category", "object_prefix", "provided_by", "frequency"}
			records := make([][]string, len(rows))
			for i, r := range rows {
				records[i] = []string{r.SubjectCategory, r.SubjectPrefix, r.EdgeType,
					r.ObjectCategory, r.ObjectPrefix, r.ProvidedBy, strconv.FormatInt(r.Frequency, 10)}
			}
			return writeSummary(cmd.OutOrStdout(), out, header, records)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the summary to this file instead of the terminal")
	return cmd
}

// writeSummary writes records '|'-separated to path, or renders them as a
// table on w when path is empty.
func writeSummary(w io.Writer, path string, header []string, records [][]string) error {
	if path == "" {
		fmt.Fprintln(w, summaryTable(header, records))
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(f)
	cw.Comma = '|'
	if err := cw.Write(header); err != nil {
		f.Close()
		return err
	}
	if err := cw.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("Wrote %d rows to %s", len(records), path)))
	return nil
}

func summaryTable(header []string, records [][]string) string {
	columns := make([]table.Column, len(header))
	for i, h := range header {
		width := len(h)
		for _, r := range records {
			width = max(width, len(r[i]))
		}
		columns[i] = table.Column{Title: h, Width: width}
	}
	rows := make([]table.Row, len(records))
	for i, r := range records {
		rows[i] = table.Row(r)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+3),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).Foreground(titleStyle.GetForeground())
	s.Selected = s.Cell
	t.SetStyles(s)
	return t.View()
}
