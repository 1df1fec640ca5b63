package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahead-health/dq-cli/internal/dq"
	"github.com/ahead-health/dq-cli/internal/model"
	"github.com/ahead-health/dq-cli/internal/registry"
)

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect indicator and derived-indicator registries",
}

var registryIndicatorsCmd = &cobra.Command{
	Use:   "indicators",
	Short: "List the configured indicator registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := loadIndicatorRegistry(cmd.Context(), cfg.Registry)
		if err != nil {
			return err
		}
		if reg == nil {
			fmt.Fprintln(os.Stderr, "No indicator registry configured; the grid uses observed indicators.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "CODE\tNAME\tTYPE\tACTIVE")
		for _, code := range reg.Codes() {
			m, _ := reg.Lookup(code)
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", m.Code, m.Name, m.Type, m.Active)
		}
		return w.Flush()
	},
}

var registryDerivedCmd = &cobra.Command{
	Use:   "derived",
	Short: "List derived indicator definitions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var defs []model.DerivedDefinition
		if cfg.Derived.RegistryPath != "" {
			loaded, err := registry.LoadDerivedDefinitions(cfg.Derived.RegistryPath)
			if err != nil {
				return err
			}
			defs = loaded
		} else {
			defs = dq.DefaultDerivedDefinitions()
		}

		return printDerived(os.Stdout, defs)
	},
}

func printDerived(w io.Writer, defs []model.DerivedDefinition) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(defs)
}

func init() {
	registryCmd.AddCommand(registryIndicatorsCmd)
	registryCmd.AddCommand(registryDerivedCmd)
	rootCmd.AddCommand(registryCmd)
}
