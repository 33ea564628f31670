package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/jipange/internal/cli"
	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/period"
)

// now is replaced in tests.
var now = time.Now

type periodFlags struct {
	name string
	from string
	to   string
}

func (f *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "period", "p", period.ThisMonth,
		"reporting period: "+strings.Join(period.Names, ", "))
	cmd.Flags().StringVar(&f.from, "from", "", "start date (YYYY-MM-DD), overrides --period")
	cmd.Flags().StringVar(&f.to, "to", "", "end date (YYYY-MM-DD), overrides --period")
}

func (f *periodFlags) resolve() (period.Period, error) {
	var (
		p   period.Period
		err error
	)
	if f.from != "" || f.to != "" {
		p, err = period.Between(f.from, f.to)
	} else {
		p, err = period.Resolve(f.name, now())
	}
	if err != nil {
		return period.Period{}, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return p, nil
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize income and expenses over a period",
	}

	cmd.AddCommand(summaryCmd())
	cmd.AddCommand(breakdownCmd())

	return cmd
}

func summaryCmd() *cobra.Command {
	var pf periodFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show income, expenses, net and savings rate",
		Long: `Show total income, total expenses, net, savings rate and per-category
totals for a period.

Examples:
  jipange report summary
  jipange report summary --period last-year
  jipange report summary --from 2024-01-01 --to 2024-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pf.resolve()
			if err != nil {
				return err
			}

			store, _, err := initStorage()
			if err != nil {
				return err
			}

			summary, err := store.GetTransactionSummary(cmd.Context(), p.Range)
			if err != nil {
				return err
			}

			return cli.WriteSummary(cmd.OutOrStdout(), p.Label, summary)
		},
	}

	pf.register(cmd)

	return cmd
}

func breakdownCmd() *cobra.Command {
	var (
		pf     periodFlags
		txType string
	)

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Show each category's share of income or expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := pf.resolve()
			if err != nil {
				return err
			}

			t, err := parseTypeFlag(txType)
			if err != nil {
				return err
			}

			store, _, err := initStorage()
			if err != nil {
				return err
			}

			summary, err := store.GetTransactionSummary(cmd.Context(), p.Range)
			if err != nil {
				return err
			}

			return cli.WriteBreakdown(cmd.OutOrStdout(), p.Label, summary, t)
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVarP(&txType, "type", "t", string(model.TypeExpense), "income or expense")

	return cmd
}
