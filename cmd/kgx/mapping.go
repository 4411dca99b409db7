package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-kgx/pkg/mapping"
)

func loadMappingCmd(a *app) *cobra.Command {
	var (
		noHeader bool
		columns  []int
		show     bool
	)

	cmd := &cobra.Command{
		Use:   "load-mapping NAME CSV",
		Short: "Save an identifier mapping read from a CSV file under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, source := args[0], args[1]
			if len(columns) != 2 {
				return fmt.Errorf("--columns wants two indexes, got %d", len(columns))
			}

			f, err := os.Open(source)
			if err != nil {
				return err
			}
			defer f.Close()

			opts := mapping.DefaultCSVOptions()
			opts.Header = !noHeader
			opts.Source, opts.Target = columns[0], columns[1]
			if strings.HasSuffix(strings.ToLower(source), ".tsv") {
				opts.Comma = '\t'
			}
			table, err := mapping.FromCSV(f, opts)
			if err != nil {
				return fmt.Errorf("read %s: %w", source, err)
			}

			store, err := a.mappingStore()
			if err != nil {
				return err
			}
			path, err := store.Save(name, table)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("Saved %d entries to %s", len(table), path)))
			if show {
				for _, line := range preview(table, 5) {
					fmt.Fprintln(out, dimStyle.Render(line))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noHeader, "no-header", false, "The CSV file has no header row")
	cmd.Flags().IntSliceVar(&columns, "columns", []int{0, 1}, "Source and target column indexes")
	cmd.Flags().BoolVar(&show, "show", false, "Print a few of the loaded entries")
	return cmd
}

// preview returns up to n "source -> target" lines in source order.
func preview(table map[string]string, n int) []string {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + " -> " + table[k]
	}
	if extra := len(table) - len(keys); extra > 0 {
		lines = append(lines, "... and "+strconv.Itoa(extra)+" more")
	}
	return lines
}
