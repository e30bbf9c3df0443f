// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/agroscope/internal/dataaccess"
)

func newStatusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Query every backend resource and report how it was served",
		Long: `Status calls every configured backend resource concurrently and
reports for each whether it answered live, was served from the bundled
data, or failed. Resources addressed by id are queried with --unit, --row,
or --crop. It exits non-zero if any resource had no data at all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var ids checkIDs
			ids.unit, _ = cmd.Flags().GetString("unit")
			ids.row, _ = cmd.Flags().GetString("row")
			ids.crop, _ = cmd.Flags().GetString("crop")
			return a.runStatus(cmd, ids)
		},
	}
	cmd.Flags().String("unit", "0001", "unit id for the similarity, production, and drought checks")
	cmd.Flags().String("row", "0009", "match id for the detail check")
	cmd.Flags().String("crop", "A001", "crop id for the producer checks")
	return cmd
}

type checkIDs struct {
	unit, row, crop string
}

// idFor picks the id for a resource whose route takes one.
func (p checkIDs) idFor(r dataaccess.Resource) string {
	switch r {
	case dataaccess.ResourceDetail:
		return p.row
	case dataaccess.ResourceCropProducers, dataaccess.ResourceLowestProducers:
		return p.crop
	}
	return p.unit
}

type resourceCheck struct {
	resource dataaccess.Resource
	params   dataaccess.Params
	kind     dataaccess.Kind
	reason   string
	elapsed  time.Duration
}

func (a *app) runStatus(cmd *cobra.Command, ids checkIDs) error {
	client, err := a.connect()
	if err != nil {
		return err
	}

	var checks []*resourceCheck
	for _, r := range client.Resources() {
		p := &resourceCheck{resource: r}
		if client.NeedsID(r) {
			p.params = dataaccess.Params{dataaccess.ParamID: ids.idFor(r)}
		}
		checks = append(checks, p)
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	for _, p := range checks {
		g.Go(func() error {
			start := time.Now()
			out := client.Fetch(ctx, p.resource, p.params)
			p.kind, p.reason, p.elapsed = out.Kind, out.Reason, time.Since(start)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := printStatus(a.out, client.Config().BaseURL, checks)
	if failed > 0 {
		return fmt.Errorf("%d resource(s) unavailable", failed)
	}
	return nil
}

func printStatus(w io.Writer, baseURL string, checks []*resourceCheck) int {
	fmt.Fprintf(w, "Backend: %s\n\n", baseURL)
	fmt.Fprintf(w, "%-22s  %-8s  %-10s  %s\n", "Resource", "Outcome", "Elapsed", "Reason")
	fmt.Fprintln(w, strings.Repeat("-", 74))

	failed := 0
	for _, p := range checks {
		if p.kind == dataaccess.KindError {
			failed++
		}
		fmt.Fprintf(w, "%-22s  %-8s  %-10s  %s\n",
			p.resource, p.kind, p.elapsed.Round(time.Millisecond), p.reason)
	}
	return failed
}
