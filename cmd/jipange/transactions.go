package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/jipange/internal/cli"
	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx", "txn"},
		Short:   "Record, list, search, edit and delete transactions",
	}

	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(searchTransactionsCmd())
	cmd.AddCommand(editTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var input model.TransactionInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Long: `Record an income or expense transaction. Unknown categories are created
with the transaction's type.

Examples:
  # Record today's grocery run
  jipange transactions add --type expense --amount 54.20 --category Groceries --account Visa

  # Record a salary payment on a given date
  jipange transactions add --type income --amount 3200 --category Salary \
    --account Checking --date 2024-01-31 --description "January pay"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := initStorage()
			if err != nil {
				return err
			}

			input.Type = strings.ToLower(strings.TrimSpace(input.Type))
			txn, err := store.AddTransaction(cmd.Context(), input)
			if err != nil {
				return err
			}

			printSuccess(cmd, "Transaction added successfully with ID: %s", txn.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input.Type, "type", "t", "", "transaction type (income or expense)")
	cmd.Flags().StringVarP(&input.Amount, "amount", "a", "", "positive amount, e.g. 12.50")
	cmd.Flags().StringVarP(&input.Category, "category", "c", "", "category name")
	cmd.Flags().StringVar(&input.Account, "account", "", "account name")
	cmd.Flags().StringVarP(&input.Description, "description", "m", "", "free-text description")
	cmd.Flags().StringVarP(&input.Date, "date", "d", "", "date as YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("account")

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		txType   string
		category string
		account  string
		date     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long: `List transactions in the order they were recorded. Filters match the
stored value exactly, ignoring case.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := initStorage()
			if err != nil {
				return err
			}

			t, err := parseTypeFlag(txType)
			if err != nil {
				return err
			}

			filter := service.TransactionFilter{}
			for column, value := range map[string]string{
				string(model.FieldType):     string(t),
				string(model.FieldCategory): category,
				string(model.FieldAccount):  account,
				string(model.FieldDate):     date,
			} {
				if value != "" {
					filter[column] = value
				}
			}

			transactions, err := store.GetTransactions(cmd.Context(), filter)
			if err != nil {
				return err
			}

			return cli.WriteTransactions(cmd.OutOrStdout(), transactions)
		},
	}

	cmd.Flags().StringVarP(&txType, "type", "t", "", "only income or expense")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().StringVar(&account, "account", "", "only this account")
	cmd.Flags().StringVarP(&date, "date", "d", "", "only this date (YYYY-MM-DD)")

	return cmd
}

func searchTransactionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find transactions containing a keyword in any field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := initStorage()
			if err != nil {
				return err
			}

			transactions, err := store.SearchTransactions(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return cli.WriteTransactions(cmd.OutOrStdout(), transactions)
		},
	}
}

func editTransactionCmd() *cobra.Command {
	fieldNames := make([]string, 0, len(model.Fields))
	for _, f := range model.Fields {
		fieldNames = append(fieldNames, string(f))
	}

	return &cobra.Command{
		Use:   "edit <id> <field> <value>",
		Short: "Change one field of a transaction",
		Long: fmt.Sprintf(`Change one field of a transaction. The id may be shortened to any unique
prefix, such as the eight characters shown by "transactions list".

Fields: %s ("type" is accepted for transaction_type)

Examples:
  jipange transactions edit 0f8fad5b amount 42.10
  jipange transactions edit 0f8fad5b category "Dining Out"`, strings.Join(fieldNames, ", ")),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			field, err := model.ParseField(args[1])
			if err != nil {
				return fmt.Errorf("%w: %w, expected one of %s", common.ErrValidation, err, strings.Join(fieldNames, ", "))
			}

			store, _, err := initStorage()
			if err != nil {
				return err
			}

			id, err := resolveTransactionID(ctx, store, args[0])
			if err != nil {
				return err
			}

			txn, err := store.EditTransaction(ctx, id, field, args[2])
			if err != nil {
				return err
			}

			printSuccess(cmd, "Transaction %s updated successfully", txn.ShortID())
			return cli.WriteTransactions(cmd.OutOrStdout(), []model.Transaction{*txn})
		},
	}
}

func deleteTransactionCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, _, err := initStorage()
			if err != nil {
				return err
			}

			id, err := resolveTransactionID(ctx, store, args[0])
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, force, fmt.Sprintf("Delete transaction %s?", id))
			if err != nil {
				return err
			}
			if !ok {
				printInfo(cmd, "Deletion canceled")
				return nil
			}

			if err := store.DeleteTransaction(ctx, id); err != nil {
				return err
			}

			printSuccess(cmd, "Transaction deleted successfully")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
