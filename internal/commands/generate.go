package commands

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/restated-dev/restated/internal/config"
	"github.com/restated-dev/restated/internal/engine"
	"github.com/restated-dev/restated/internal/export"
	"github.com/restated-dev/restated/internal/ingest"
	"github.com/restated-dev/restated/internal/mapping"
	"github.com/restated-dev/restated/internal/render"
	"github.com/restated-dev/restated/internal/taxonomy"
)

func newGenerateCommand() *cobra.Command {
	var (
		configPath   string
		mappingPath  string
		statementOut string
		ledgerOut    string
		controlTotal string
	)

	cmd := &cobra.Command{
		Use:   "generate <trial-balance.csv>",
		Short: "Generate an IFRS 18 P&L from a trial balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(args[0], configPath, mappingPath, statementOut, ledgerOut, controlTotal)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "restated.yaml", "project config file")
	cmd.Flags().StringVar(&mappingPath, "mapping", "mapping.yaml", "GL prefix mapping file")
	cmd.Flags().StringVar(&statementOut, "out", "", "write the statement CSV to this path")
	cmd.Flags().StringVar(&ledgerOut, "ledger-out", "", "write the audit ledger CSV to this path")
	cmd.Flags().StringVar(&controlTotal, "control-total", "", "stated trial balance total to reconcile against")

	return cmd
}

func runGenerate(inputPath, configPath, mappingPath, statementOut, ledgerOut, controlTotal string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	tolerance, err := cfg.Tolerance()
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

	lines, _, err := ingest.ReadTrialBalanceFile(inputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Loaded %d lines from %s\n", len(lines), inputPath)

	params := engine.Params{
		Lines:         lines,
		BusinessModel: cfg.Business.BusinessModel,
		Policy:        cfg.Reporting.Policy,
		Table:         table,
		Overrides:     overrides,
		Tolerance:     &tolerance,
	}
	if controlTotal != "" {
		total, err := decimal.NewFromString(controlTotal)
		if err != nil {
			return fmt.Errorf("invalid control total %q: %w", controlTotal, err)
		}
		params.ControlTotal = &total
	}

	session, err := engine.NewSession(params)
	if err != nil {
		return err
	}
	fmt.Printf("Opened session %s\n", session.ID())

	if err := session.ClassifyAll(); err != nil {
		return err
	}

	stmt, err := session.Statement()
	if err != nil {
		return err
	}
	if err := session.VerifyReplay(); err != nil {
		return err
	}

	fmt.Print(render.Statement(stmt, cfg.Reporting.Currency))

	if statementOut != "" {
		if err := writeFile(statementOut, func(f *os.File) error {
			return export.WriteStatement(f, stmt)
		}); err != nil {
			return err
		}
		fmt.Printf("Statement written to %s\n", statementOut)
	}

	if ledgerOut != "" {
		if err := writeFile(ledgerOut, func(f *os.File) error {
			return export.WriteLedger(f, session.Ledger().Entries())
		}); err != nil {
			return err
		}
		fmt.Printf("Ledger written to %s\n", ledgerOut)
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
