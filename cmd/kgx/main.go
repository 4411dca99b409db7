// Package main provides the kgx binary: conversion, merging and inspection
// of knowledge graphs across file formats and graph databases.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-kgx/pkg/logging"
	"github.com/dd0wney/cluso-kgx/pkg/metrics"
)

// Set with -ldflags at release time.
var (
	Version   = "0.2.0"
	BuildTime = "dev"
)

const appName = "kgx"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func rootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Knowledge Graph Exchange",
		Long: `kgx converts knowledge graphs between CSV/TSV, JSON, GraphML,
RDF (N-Triples, Turtle, RDF/XML), Neo4j and PostgreSQL, merges graphs from several sources,
remaps identifiers and validates the result.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.ParseLevel(os.Getenv("KGX_LOG_LEVEL"))
			if a.debug {
				level = logging.DebugLevel
			}
			a.logger = logging.NewTextLogger(cmd.ErrOrStderr(), level)
			logging.SetDefaultLogger(a.logger)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.metricsFile == "" {
				return nil
			}
			if err := a.metrics.WriteTextfile(a.metricsFile); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log at debug level")
	cmd.PersistentFlags().StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	cmd.PersistentFlags().StringVar(&a.mappingDir, "mapping-dir", "", "Directory holding saved mappings (default: user config dir)")

	cmd.AddCommand(
		dumpCmd(a),
		validateCmd(a),
		loadMappingCmd(a),
		loadAndMergeCmd(a),
		neo4jDownloadCmd(a),
		neo4jUploadCmd(a),
		nodeSummaryCmd(a),
		edgeSummaryCmd(a),
		inferCmd(a),
		browseCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

func newApp() *app {
	return &app{
		logger:  logging.NewNopLogger(),
		metrics: metrics.NewRegistry(),
	}
}
