// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/agroscope/internal/export"
	"github.com/pdiddy/agroscope/internal/session"
)

func newCompareCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <unitID>",
		Short: "Show the units most similar to a municipality",
		Long: `Compare queries the similarity result for one municipality (by CVEGEO)
and prints the ranked matches, related crops, and candidate crops with
their suitability tier.

Each --detail opens the comparison detail for one ranked match. Use
--all-details to open every match. --out writes the report to .xlsx,
.json, or .yaml.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := compareOptions{unitID: args[0]}
			opts.details, _ = cmd.Flags().GetStringArray("detail")
			opts.allDetails, _ = cmd.Flags().GetBool("all-details")
			opts.asJSON, _ = cmd.Flags().GetBool("json")
			opts.outPath, _ = cmd.Flags().GetString("out")
			return a.runCompare(cmd, opts)
		},
	}
	cmd.Flags().StringArray("detail", nil, "ranked match id to open (repeatable)")
	cmd.Flags().Bool("all-details", false, "open the detail of every ranked match")
	cmd.Flags().Bool("json", false, "output the report as JSON")
	cmd.Flags().String("out", "", "write the report to a .xlsx, .json, or .yaml file")
	return cmd
}

type compareOptions struct {
	unitID     string
	details    []string
	allDetails bool
	asJSON     bool
	outPath    string
}

func (a *app) runCompare(cmd *cobra.Command, opts compareOptions) error {
	if strings.TrimSpace(opts.unitID) == "" {
		return fmt.Errorf("unit id is required")
	}
	client, err := a.connect()
	if err != nil {
		return err
	}

	sessOpts := []session.Option{session.WithLogger(a.component("session"))}
	if a.history != nil {
		sessOpts = append(sessOpts, session.WithRecorder(a.history))
	}
	sess := session.New(client, sessOpts...)

	ctx := cmd.Context()
	sess.Query(ctx, opts.unitID)
	snap := sess.Snapshot()
	if snap.Query != session.Ready {
		return fmt.Errorf("comparing %s: %s", opts.unitID, snap.Reason)
	}

	rows := opts.details
	if opts.allDetails {
		rows = rows[:0:0]
		for _, m := range snap.Result.RankedMatches {
			rows = append(rows, m.MatchID)
		}
	}

	report := export.Report{
		UnitID:      opts.unitID,
		Degraded:    snap.Degraded,
		GeneratedAt: time.Now(),
		Result:      *snap.Result,
	}
	for _, row := range rows {
		if !sess.OpenDetail(ctx, row) {
			return fmt.Errorf("%q is not one of the ranked matches for %s", row, opts.unitID)
		}
		d := sess.Snapshot()
		switch d.Detail {
		case session.DetailReady:
			report.Details = append(report.Details, *d.DetailValue)
			report.Degraded = report.Degraded || d.DetailDegraded
		case session.DetailFailed:
			a.logger.Warn().Str("row", row).Str("reason", d.DetailReason).Msg("detail unavailable")
		}
		sess.CloseDetail()
	}

	if opts.outPath != "" {
		if err := export.WriteFile(opts.outPath, report); err != nil {
			return err
		}
		a.logger.Info().Str("file", opts.outPath).Msg("report written")
	}
	if opts.asJSON {
		return export.Write(a.out, export.FormatJSON, report)
	}
	printReport(a.out, report, snap.Reason)
	if opts.outPath != "" {
		fmt.Fprintf(a.out, "\nWrote %s\n", opts.outPath)
	}
	return nil
}

func printReport(w io.Writer, r export.Report, reason string) {
	if r.Degraded {
		printDegraded(w, reason)
	}
	p := r.Result.SubjectProfile
	fmt.Fprintf(w, "%s, %s (%s)\n\n", p.Name, p.ParentName, r.UnitID)

	fmt.Fprintf(w, "%-4s  %-8s  %-24s  %-28s  %s\n", "Rank", "CVEGEO", "Estado", "Municipio", "Similitud")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for i, m := range r.Result.RankedMatches {
		fmt.Fprintf(w, "%-4d  %-8s  %-24s  %-28s  %.1f%%\n",
			i+1, m.MatchID, truncate(m.ParentName, 24), truncate(m.Name, 28), m.Score)
	}

	if len(r.Result.RelatedCategoryTags) > 0 {
		fmt.Fprintf(w, "\nCultivos similares: %s\n", strings.Join(r.Result.RelatedCategoryTags, ", "))
	}

	if len(r.Result.ScoredCandidates) > 0 {
		fmt.Fprintf(w, "\n%-24s  %-8s  %s\n", "Cultivo potencial", "Puntaje", "Indice")
		fmt.Fprintln(w, strings.Repeat("-", 46))
		for _, c := range r.Result.ScoredCandidates {
			fmt.Fprintf(w, "%-24s  %-8.1f  %s\n", truncate(c.Label, 24), c.Score, c.Tier)
		}
	}

	for _, d := range r.Details {
		fmt.Fprintf(w, "\n%s vs %s: %.1f%%\n", d.BaseRegion, d.ComparedRegion, d.OverallScore)
		fmt.Fprintf(w, "  Precipitacion:    %s\n", d.Precipitation)
		fmt.Fprintf(w, "  Temperatura:      %s\n", d.Temperature)
		fmt.Fprintf(w, "  Unidad climatica: %s\n", d.ClimateUnit)
		fmt.Fprintf(w, "  Edafologia:       %s\n", d.SoilType)
		fmt.Fprintf(w, "  Topoforma:        %s\n", d.Landform)
		if len(d.SharedCategories) > 0 {
			fmt.Fprintf(w, "  Cultivos en comun: %s\n", strings.Join(d.SharedCategories, ", "))
		}
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
