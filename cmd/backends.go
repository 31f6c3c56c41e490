/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/VeriWing/internal/backend"
	"github.com/josephgoksu/VeriWing/internal/ui"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the configured verification backends",
	Long: `Backends prints the analysis backends available to the router, loaded
from the project backends file when present, otherwise the built-in defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		path := cfg.Project.BackendsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Project.RootDir, path)
		}

		registry, err := backend.LoadRegistry(afero.NewOsFs(), path)
		if err != nil {
			return fmt.Errorf("loading backend registry: %w", err)
		}

		table := &ui.Table{
			Headers: []string{"ID", "PROVIDER", "MODEL", "COST", "STRENGTHS", "CONC", "GP"},
		}
		for _, d := range registry.All() {
			gp := ""
			if d.GeneralPurpose {
				gp = "yes"
			}
			table.Rows = append(table.Rows, []string{
				d.ID,
				d.Provider,
				d.Model,
				string(d.CostClass),
				strings.Join(d.Strengths, ","),
				fmt.Sprintf("%d", d.MaxConcurrency),
				gp,
			})
		}

		fmt.Fprintln(os.Stdout, table.Render())
		fmt.Fprintf(os.Stdout, "%d backend(s)\n", registry.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}
