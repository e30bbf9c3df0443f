// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/pkg/types"
)

func newProductionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "production <unitID>",
		Short: "Show a municipality's yearly production and drought history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return a.runProduction(cmd, args[0], asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

// yearRow joins both series on the year.
type yearRow struct {
	Year       int      `json:"anio"`
	Production *float64 `json:"produccion,omitempty"`
	Drought    *float64 `json:"sequia,omitempty"`
}

func (a *app) runProduction(cmd *cobra.Command, unitID string, asJSON bool) error {
	if strings.TrimSpace(unitID) == "" {
		return fmt.Errorf("unit id is required")
	}
	client, err := a.connect()
	if err != nil {
		return err
	}

	var (
		annual  dataaccess.Outcome[[]types.AnnualProduction]
		drought dataaccess.Outcome[[]types.DroughtLevel]
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		annual = client.FetchAnnualProduction(ctx, unitID)
		return nil
	})
	g.Go(func() error {
		drought = client.FetchDrought(ctx, unitID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if !annual.HasValue() && !drought.HasValue() {
		return fmt.Errorf("production of %s: %s", unitID, firstReason(annual.Reason, drought.Reason))
	}

	rows := joinYears(annual.Value, drought.Value)
	if asJSON {
		return writeJSON(a.out, rows)
	}

	if annual.Degraded() || drought.Degraded() {
		printDegraded(a.out, firstReason(annual.Reason, drought.Reason))
	}
	fmt.Fprintf(a.out, "%-6s  %12s  %8s\n", "Anio", "Produccion", "Sequia")
	fmt.Fprintln(a.out, strings.Repeat("-", 30))
	for _, r := range rows {
		fmt.Fprintf(a.out, "%-6d  %12s  %8s\n", r.Year, optional(r.Production, "%.0f"), optional(r.Drought, "%.0f"))
	}
	return nil
}

// joinYears merges the series in ascending year order.
func joinYears(annual []types.AnnualProduction, drought []types.DroughtLevel) []yearRow {
	byYear := make(map[int]*yearRow)
	var years []int
	row := func(y int) *yearRow {
		r, ok := byYear[y]
		if !ok {
			r = &yearRow{Year: y}
			byYear[y] = r
			years = append(years, y)
		}
		return r
	}
	for _, p := range annual {
		v := p.Production
		row(p.Year).Production = &v
	}
	for _, d := range drought {
		v := d.Level
		row(d.Year).Drought = &v
	}
	slices.Sort(years)

	rows := make([]yearRow, 0, len(years))
	for _, y := range years {
		rows = append(rows, *byYear[y])
	}
	return rows
}

func optional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
