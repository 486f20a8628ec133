package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/restated-dev/restated/internal/config"
	"github.com/restated-dev/restated/internal/mapping"
	"github.com/restated-dev/restated/internal/taxonomy"
)

func newCheckMappingCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check-mapping <mapping.yaml>",
		Short: "Validate a mapping file against the configured taxonomy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckMapping(args[0], configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "restated.yaml", "project config file")

	return cmd
}

func runCheckMapping(mappingPath, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	tax, err := taxonomy.For(cfg.Business.BusinessModel, cfg.Reporting.Policy)
	if err != nil {
		return err
	}

	table, overrides, err := mapping.Load(mappingPath, tax)
	if err != nil {
		return err
	}

	fmt.Printf("Mapping OK: %d rules, %d overrides\n", len(table.Rules()), len(overrides))
	return nil
}
