// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/agroscope/internal/fallback"
)

func newFallbackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fallback [resource]",
		Short: "Inspect the substitute dataset served when the backend is down",
		Long: `Fallback prints the version, source, and registered keys of the active
fallback catalog. With a resource argument it prints the payload that
would be substituted for it, optionally for a specific --id.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintf(a.out, "Version: %s\n", a.catalog.Version())
				fmt.Fprintf(a.out, "Source:  %s\n", a.catalogSrc)
				fmt.Fprintln(a.out, "Keys:")
				for _, k := range a.catalog.Keys() {
					fmt.Fprintf(a.out, "  %s\n", k)
				}
				return nil
			}

			id, _ := cmd.Flags().GetString("id")
			var params map[string]string
			if id != "" {
				params = map[string]string{fallback.IDParam: id}
			}
			payload, ok := a.catalog.Lookup(args[0], params)
			if !ok {
				return fmt.Errorf("no fallback registered for %q", args[0])
			}
			var buf bytes.Buffer
			if err := json.Indent(&buf, payload, "", "  "); err != nil {
				return fmt.Errorf("formatting payload: %w", err)
			}
			buf.WriteByte('\n')
			_, err := buf.WriteTo(a.out)
			return err
		},
	}
	cmd.Flags().String("id", "", "select the by-id variant for this unit or row")
	return cmd
}
