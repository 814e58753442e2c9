package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/ratio"
	"github.com/pedrosunal1975-cmyk/Stock-software-sub001/internal/registry"
)

var componentsIndustry string

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List the standard components in the registry",
	Long:  "Lists every registered component, or with --industry only those the industry's ratios require.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.Load(cfg.Registry.Dir)
		if err != nil {
			return eris.Wrap(err, "load component registry")
		}

		comps := reg.All()
		if componentsIndustry != "" {
			catalog, err := ratio.LoadCatalog()
			if err != nil {
				return eris.Wrap(err, "load industry catalog")
			}
			if !slices.Contains(catalog.Industries(), componentsIndustry) {
				return eris.Errorf("unknown industry %q", componentsIndustry)
			}
			ids := catalog.RequiredComponents(componentsIndustry, cfg.Analysis.ExtendedRatios)
			if len(ids) == 0 {
				comps = nil
			} else {
				comps = reg.Select(ids)
			}
		}

		formatComponents(os.Stdout, comps)
		return nil
	},
}

func init() {
	componentsCmd.Flags().StringVar(&componentsIndustry, "industry", "", "only components required by this industry's ratios")
	rootCmd.AddCommand(componentsCmd)
}

func formatComponents(out io.Writer, comps []*registry.Component) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COMPONENT\tNAME\tCATEGORY\tKIND\tMIN_SCORE")
	_, _ = fmt.Fprintln(w, "---------\t----\t--------\t----\t---------")
	for _, c := range comps {
		var kind string
		switch {
		case c.HasRules() && c.Formula() != "":
			kind = "matched+formula"
		case c.HasRules():
			kind = "matched"
		default:
			kind = "composite"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", c.ID, c.DisplayName, c.Category, kind, c.Scoring.MinScore)
	}
	_ = w.Flush()
}
