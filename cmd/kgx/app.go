package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-kgx/pkg/graph"
	"github.com/dd0wney/cluso-kgx/pkg/logging"
	"github.com/dd0wney/cluso-kgx/pkg/mapping"
	"github.com/dd0wney/cluso-kgx/pkg/metrics"
	"github.com/dd0wney/cluso-kgx/pkg/transformer"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

// app carries what every command shares.
type app struct {
	logger      logging.Logger
	metrics     *metrics.Registry
	debug       bool
	metricsFile string
	mappingDir  string
}

func (a *app) transformerOptions(fs *graph.FilterSet) []transformer.Option {
	opts := []transformer.Option{
		transformer.WithLogger(a.logger),
		transformer.WithMetrics(a.metrics),
	}
	if fs != nil {
		opts = append(opts, transformer.WithFilters(fs))
	}
	return opts
}

func (a *app) mappingStore() (*mapping.Store, error) {
	dir := a.mappingDir
	if dir == "" {
		d, err := mapping.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return mapping.NewStore(dir, a.logger), nil
}

// filterFlags parses --labels LOCATION=VALUE and
// --properties LOCATION=KEY=VALUE into a filter set. Edge labels filter
// the predicate, node labels the category.
func filterFlags(labels, properties []string) (*graph.FilterSet, error) {
	fs := &graph.FilterSet{}
	for _, l := range labels {
		loc, value, ok := strings.Cut(l, "=")
		if !ok || value == "" {
			return nil, fmt.Errorf("--labels %q: want LOCATION=VALUE", l)
		}
		location, err := graph.ParseLocation(loc)
		if err != nil {
			return nil, fmt.Errorf("--labels %q: %w", l, err)
		}
		target := string(location) + "_category"
		if location == graph.LocationEdge {
			target = "edge_label"
		}
		if err := fs.Set(target, value); err != nil {
			return nil, err
		}
	}
	for _, p := range properties {
		loc, rest, _ := strings.Cut(p, "=")
		key, value, ok := strings.Cut(rest, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--properties %q: want LOCATION=KEY=VALUE", p)
		}
		location, err := graph.ParseLocation(loc)
		if err != nil {
			return nil, fmt.Errorf("--properties %q: %w", p, err)
		}
		if err := fs.Set(string(location)+"_property", []string{key, value}); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// batchName inserts "(i)" before the first extension of the file name:
// "out/graph.csv" becomes "out/graph(3).csv".
func batchName(output string, i int) string {
	dir, file := filepath.Split(output)
	name, ext, ok := strings.Cut(file, ".")
	if !ok {
		return fmt.Sprintf("%s%s(%d)", dir, name, i)
	}
	return fmt.Sprintf("%s%s(%d).%s", dir, name, i, ext)
}

// progressBar renders a static bar to w; it is redrawn in place on each
// call and finished with a newline once done reaches total.
type progressBar struct {
	w     io.Writer
	label string
	bar   progress.Model
}

func newProgressBar(w io.Writer, label string) *progressBar {
	return &progressBar{
		w:     w,
		label: label,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (p *progressBar) update(done, total int) {
	if total == 0 {
		return
	}
	fmt.Fprintf(p.w, "\r%s %s %s", p.label, p.bar.ViewAs(float64(done)/float64(total)),
		dimStyle.Render(fmt.Sprintf("%d/%d", done, total)))
	if done >= total {
		fmt.Fprintln(p.w)
	}
}
