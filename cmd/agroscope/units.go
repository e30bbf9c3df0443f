// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/internal/selection"
	"github.com/pdiddy/agroscope/pkg/types"
)

func newUnitsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "List states, or the municipalities of one state",
		Long: `Units loads the municipality catalog. Without --parent it lists the
states in catalog order with their municipality counts; with --parent it
lists that state's municipalities.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, _ := cmd.Flags().GetString("parent")
			asJSON, _ := cmd.Flags().GetBool("json")
			return a.runUnits(cmd, parent, asJSON)
		},
	}
	cmd.Flags().String("parent", "", "state whose municipalities to list")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func (a *app) runUnits(cmd *cobra.Command, parent string, asJSON bool) error {
	client, err := a.connect()
	if err != nil {
		return err
	}

	cascade := selection.New(client)
	out := cascade.Load(cmd.Context())
	if out.Kind == dataaccess.KindError {
		return fmt.Errorf("loading units: %s", out.Reason)
	}
	if out.Degraded() && !asJSON {
		printDegraded(a.out, out.Reason)
	}

	if parent == "" {
		return printParents(a.out, cascade, asJSON)
	}

	cascade.SetParent(parent)
	children := cascade.Children()
	if len(children) == 0 {
		return fmt.Errorf("no municipalities under %q", parent)
	}
	if asJSON {
		return writeJSON(a.out, children)
	}
	printUnits(a.out, children)
	return nil
}

type parentCount struct {
	Name  string `json:"estado"`
	Units int    `json:"municipios"`
}

func printParents(w io.Writer, c *selection.Cascade, asJSON bool) error {
	catalog := c.Catalog()
	var rows []parentCount
	for _, p := range c.Parents() {
		rows = append(rows, parentCount{Name: p, Units: len(selection.FilterChildren(catalog, p))})
	}
	if asJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No units found.")
		return nil
	}
	fmt.Fprintf(w, "%-40s  %s\n", "Estado", "Municipios")
	fmt.Fprintln(w, strings.Repeat("-", 52))
	for _, r := range rows {
		fmt.Fprintf(w, "%-40s  %d\n", r.Name, r.Units)
	}
	fmt.Fprintf(w, "\n%d states, %d units\n", len(rows), len(catalog))
	return nil
}

func printUnits(w io.Writer, units []types.AddressableUnit) {
	fmt.Fprintf(w, "%-8s  %s\n", "CVEGEO", "Municipio")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for _, u := range units {
		fmt.Fprintf(w, "%-8s  %s\n", u.ID, u.Name)
	}
	fmt.Fprintf(w, "\n%d units\n", len(units))
}

func printDegraded(w io.Writer, reason string) {
	fmt.Fprintf(w, "Note: backend unavailable, showing bundled data (%s)\n\n", reason)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
