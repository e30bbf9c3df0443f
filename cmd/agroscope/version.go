// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of agroscope",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "agroscope %s (fallback catalog %s)\n", version, a.catalog.Version())
		},
	}
}
