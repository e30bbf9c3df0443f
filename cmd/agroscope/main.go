// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the agroscope CLI. It wires the
// data-access client, the selection cascade, and the comparison session for
// manual use and scripting.
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/agroscope/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// newRootCmd builds the command tree. Each call gets its own configuration
// state, so commands can be executed repeatedly in tests.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := newApp(out, errOut)

	root := &cobra.Command{
		Use:   "agroscope",
		Short: "Compare municipalities by agricultural similarity",
		Long: `agroscope queries the agricultural-statistics backend for the units
most similar to a chosen municipality, the crops with the best potential
there, and a per-match comparison of climate, soil, and landform.

When the backend is slow or unreachable, every command falls back to the
bundled dataset and says so.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default: ./agroscope.yaml or ~/.config/agroscope/agroscope.yaml)")
	pf.String("base-url", "", "backend base address (default "+types.DefaultBaseURL+")")
	pf.Duration("timeout", 0, "per-request timeout (default 4s)")
	pf.String("fallback-file", "", "substitute dataset file replacing the embedded catalog")
	pf.String("data-dir", "", "directory for the history database (default .agroscope)")
	pf.String("secrets-dir", "", "directory holding credential files (default .secrets)")
	pf.Bool("no-history", false, "do not record diagnostics or outcomes")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("debug", false, "shorthand for --log-level debug")

	a.bindFlags(pf)

	root.AddCommand(
		newUnitsCmd(a),
		newCompareCmd(a),
		newCropsCmd(a),
		newProductionCmd(a),
		newStatusCmd(a),
		newFallbackCmd(a),
		newHistoryCmd(a),
		newVersionCmd(a),
	)
	return root
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
