package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-kgx/pkg/curie"
	"github.com/dd0wney/cluso-kgx/pkg/ontology"
	"github.com/dd0wney/cluso-kgx/pkg/rdf"
	"github.com/dd0wney/cluso-kgx/pkg/vocab"
)

func inferCmd(a *app) *cobra.Command {
	var ontologies []string

	cmd := &cobra.Command{
		Use:   "infer IRI...",
		Short: "Infer the category of ontology terms",
		Long: `Walks the subclass and equivalence hierarchy of each IRI (or CURIE)
in the given ontology files until a term with a known category is found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ontologies) == 0 {
				return fmt.Errorf("at least one --ontology file is required")
			}
			store, err := rdf.LoadFiles(ontologies...)
			if err != nil {
				return err
			}

			resolver := curie.Default()
			inf := ontology.NewInferencer(vocab.Default(),
				ontology.WithResolver(resolver),
				ontology.WithLogger(a.logger),
				ontology.WithMetrics(a.metrics),
			)

			out := cmd.OutOrStdout()
			for _, id := range args {
				iri := id
				if expanded, ok := resolver.Expand(id); ok {
					iri = expanded
				}
				res := inf.Infer(iri, store)
				if res.Category == "" {
					fmt.Fprintf(out, "%s\t%s\n", id, dimStyle.Render("no category"))
					continue
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", id, titleStyle.Render(res.Category),
					dimStyle.Render(fmt.Sprintf("%s via %s (score %d, %d steps)", res.Outcome, res.Node, res.Score, res.Steps)))
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&ontologies, "ontology", nil, "ontology file in N-Triples, Turtle or RDF/XML (repeatable, .gz allowed)")
	return cmd
}
