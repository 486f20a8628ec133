package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/restated-dev/restated/internal/config"
	"github.com/restated-dev/restated/internal/mapping"
	"github.com/restated-dev/restated/internal/taxonomy"
)

func newInitCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new restated project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(absDir, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runInit(dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	cfg := config.Default(name)
	if err := config.Save(filepath.Join(dir, "restated.yaml"), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	starter := &mapping.File{
		Rules: []mapping.Rule{
			{Prefix: "4", CategoryKey: taxonomy.KeyRevenue},
			{Prefix: "5", CategoryKey: taxonomy.KeyCostOfSales},
			{Prefix: "6", CategoryKey: taxonomy.KeyOtherOperating},
			{Prefix: "61", CategoryKey: taxonomy.KeySellingMarketing},
			{Prefix: "62", CategoryKey: taxonomy.KeyGeneralAdmin},
			{Prefix: "8", CategoryKey: taxonomy.KeyInterestExpense},
			{Prefix: "9", CategoryKey: taxonomy.KeyIncomeTaxExpense},
		},
	}
	if err := mapping.Save(filepath.Join(dir, "mapping.yaml"), starter); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}

	fmt.Printf("Initialized restated project in %s\n", dir)
	fmt.Println("  restated.yaml - business model, currency, thresholds")
	fmt.Println("  mapping.yaml  - GL prefix to line item mapping")
	return nil
}
