// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/agroscope/internal/dataaccess"
	"github.com/pdiddy/agroscope/pkg/types"
)

func newCropsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crops [cropID]",
		Short: "List crops, or the top and lowest producers of one crop",
		Long: `Crops without an argument prints the national headline figures and the
crop catalog. With a crop id it lists the municipalities producing the
most and the least of that crop. --top prints the national top-producers
ranking instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			top, _ := cmd.Flags().GetBool("top")
			switch {
			case top:
				return a.runTopProducers(cmd, asJSON)
			case len(args) == 1:
				return a.runCropProducers(cmd, args[0], asJSON)
			}
			return a.runCrops(cmd, asJSON)
		},
	}
	cmd.Flags().Bool("top", false, "show the national top-producers ranking")
	cmd.Flags().Bool("json", false, "output as JSON")
	return cmd
}

func (a *app) runCrops(cmd *cobra.Command, asJSON bool) error {
	client, err := a.connect()
	if err != nil {
		return err
	}

	var (
		stats dataaccess.Outcome[types.Statistics]
		crops dataaccess.Outcome[[]types.Crop]
	)
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		stats = client.FetchStatistics(ctx)
		return nil
	})
	g.Go(func() error {
		crops = client.FetchCrops(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if crops.Kind == dataaccess.KindError {
		return fmt.Errorf("loading crops: %s", crops.Reason)
	}

	if asJSON {
		out := struct {
			Statistics *types.Statistics `json:"estadisticas,omitempty"`
			Crops      []types.Crop      `json:"cultivos"`
		}{Crops: crops.Value}
		if stats.HasValue() {
			out.Statistics = &stats.Value
		}
		return writeJSON(a.out, out)
	}

	if crops.Degraded() || stats.Degraded() {
		printDegraded(a.out, firstReason(crops.Reason, stats.Reason))
	}
	if stats.HasValue() {
		fmt.Fprintf(a.out, "Produccion total: %.0f t   Cultivos analizados: %d   Anios: %d\n\n",
			stats.Value.TotalProduction, stats.Value.CropsAnalyzed, stats.Value.Years)
	}
	fmt.Fprintf(a.out, "%-6s  %s\n", "ID", "Cultivo")
	fmt.Fprintln(a.out, strings.Repeat("-", 40))
	for _, c := range crops.Value {
		fmt.Fprintf(a.out, "%-6s  %s\n", c.ID, c.Name)
	}
	fmt.Fprintf(a.out, "\n%d crops\n", len(crops.Value))
	return nil
}

func (a *app) runCropProducers(cmd *cobra.Command, cropID string, asJSON bool) error {
	if strings.TrimSpace(cropID) == "" {
		return fmt.Errorf("crop id is required")
	}
	client, err := a.connect()
	if err != nil {
		return err
	}

	var most, least dataaccess.Outcome[[]types.CropProducer]
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		most = client.FetchCropProducers(ctx, cropID)
		return nil
	})
	g.Go(func() error {
		least = client.FetchLowestProducers(ctx, cropID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if !most.HasValue() && !least.HasValue() {
		return fmt.Errorf("producers of %s: %s", cropID, firstReason(most.Reason, least.Reason))
	}

	if asJSON {
		return writeJSON(a.out, struct {
			Crop   string               `json:"cultivo"`
			Most   []types.CropProducer `json:"municipios"`
			Lowest []types.CropProducer `json:"menor_produccion"`
		}{cropID, most.Value, least.Value})
	}

	if most.Degraded() || least.Degraded() {
		printDegraded(a.out, firstReason(most.Reason, least.Reason))
	}
	printProducers(a.out, "Principales productores", most)
	fmt.Fprintln(a.out)
	printProducers(a.out, "Menor produccion", least)
	return nil
}

func printProducers(w io.Writer, title string, out dataaccess.Outcome[[]types.CropProducer]) {
	fmt.Fprintln(w, title)
	if !out.HasValue() {
		fmt.Fprintf(w, "  unavailable: %s\n", out.Reason)
		return
	}
	if len(out.Value) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, p := range out.Value {
		fmt.Fprintf(w, "  %-8s  %-28s  %10.1f t\n", p.UnitID, truncate(p.Name, 28), p.Tonnes)
	}
}

func (a *app) runTopProducers(cmd *cobra.Command, asJSON bool) error {
	client, err := a.connect()
	if err != nil {
		return err
	}
	out := client.FetchTopProducers(cmd.Context())
	if out.Kind == dataaccess.KindError {
		return fmt.Errorf("loading top producers: %s", out.Reason)
	}
	if asJSON {
		return writeJSON(a.out, out.Value)
	}
	if out.Degraded() {
		printDegraded(a.out, out.Reason)
	}
	fmt.Fprintf(a.out, "%-4s  %-20s  %-24s  %s\n", "Rank", "Estado", "Cultivo", "Produccion (t)")
	fmt.Fprintln(a.out, strings.Repeat("-", 68))
	for i, r := range out.Value {
		fmt.Fprintf(a.out, "%-4d  %-20s  %-24s  %.0f\n", i+1, truncate(r.ParentName, 20), truncate(r.Crop, 24), r.Tonnes)
	}
	return nil
}

// firstReason returns the first non-empty reason.
func firstReason(reasons ...string) string {
	for _, r := range reasons {
		if r != "" {
			return r
		}
	}
	return ""
}
