package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shoplight/prodsearch/internal/app"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "prodsearch"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Product catalog search service",
		Long:    "Full-text product catalog search with filtering, BM25 ranking and autocomplete",
		Version: version,
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP search server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunServe(ctx, app.DefaultRunParams(), cmd.Flags(), version)
		},
	}
	app.RegisterServeFlags(serveCmd.Flags())

	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Build the search index from a product catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunIndex(cmd.Context(), cmd.Flags())
		},
	}
	app.RegisterIndexFlags(indexCmd.Flags())

	rootCmd.AddCommand(serveCmd, indexCmd)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}
