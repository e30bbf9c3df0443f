// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/internal/session"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent comparisons or fetch diagnostics",
		Long: `History reads the local history database. By default it lists the most
recent query and detail outcomes; --diagnostics lists individual backend
calls with their outcome, status, and latency.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			diags, _ := cmd.Flags().GetBool("diagnostics")
			limit, _ := cmd.Flags().GetInt("limit")
			asJSON, _ := cmd.Flags().GetBool("json")

			h := a.openHistory()
			if h == nil {
				return fmt.Errorf("history is disabled")
			}
			if diags {
				rows, err := h.Diagnostics(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(a.out, rows)
				}
				printDiagnostics(a.out, rows)
				return nil
			}
			rows, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a.out, rows)
			}
			printEvents(a.out, rows)
			return nil
		},
	}
	cmd.Flags().Bool("diagnostics", false, "list backend calls instead of applied outcomes")
	cmd.Flags().Int("limit", 20, "maximum rows to show")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func printEvents(w io.Writer, events []session.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return
	}
	fmt.Fprintf(w, "%-20s  %-6s  %-10s  %-8s  %-7s  %s\n", "When", "Kind", "Subject", "Outcome", "Matches", "Reason")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, ev := range events {
		fmt.Fprintf(w, "%-20s  %-6s  %-10s  %-8s  %-7d  %s\n",
			ev.At.Local().Format(time.DateTime), ev.Kind, ev.Subject, ev.Outcome, ev.Matches, ev.Reason)
	}
}

func printDiagnostics(w io.Writer, diags []dataaccess.Diagnostic) {
	if len(diags) == 0 {
		fmt.Fprintln(w, "No diagnostics recorded.")
		return
	}
	fmt.Fprintf(w, "%-20s  %-18s  %-8s  %-8s  %-6s  %-10s  %s\n",
		"When", "Resource", "ID", "Outcome", "Status", "Elapsed", "Cause")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, d := range diags {
		status := "-"
		if d.Status != 0 {
			status = fmt.Sprint(d.Status)
		}
		fmt.Fprintf(w, "%-20s  %-18s  %-8s  %-8s  %-6s  %-10s  %s\n",
			d.At.Local().Format(time.DateTime), d.Resource, d.Params[dataaccess.ParamID],
			d.Kind, status, d.Elapsed.Round(time.Millisecond), d.Cause)
	}
}
