package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/jipange/internal/cli"
	"github.com/Veraticus/jipange/internal/common"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Manage income and expense categories",
		Long:    `List, add, rename, and delete the categories transactions are grouped by.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(editCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var txType string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := parseTypeFlag(txType)
			if err != nil {
				return err
			}

			store, _, err := initStorage()
			if err != nil {
				return err
			}

			categories, err := store.Categories().GetCategories(cmd.Context(), t)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				printInfo(cmd, "No categories found. Use 'jipange categories add' to create one.")
				return nil
			}

			return cli.WriteCategories(cmd.OutOrStdout(), categories)
		},
	}

	cmd.Flags().StringVarP(&txType, "type", "t", "", "only income or expense categories")

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var txType string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTypeFlag(txType)
			if err != nil {
				return err
			}

			store, _, err := initStorage()
			if err != nil {
				return err
			}

			cat, err := store.Categories().AddCategory(cmd.Context(), args[0], t)
			if err != nil {
				return err
			}

			printSuccess(cmd, "Category '%s' added successfully", cat.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&txType, "type", "t", "", "income or expense")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func editCategoryCmd() *cobra.Command {
	var (
		name   string
		txType string
	)

	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Rename or retype a category",
		Long: `Rename or retype a category. Transactions keep the category name they
were recorded with.

Examples:
  jipange categories edit "Dining Out" --name Restaurants
  jipange categories edit Refund --type expense`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && txType == "" {
				return common.NewUserError("nothing to change: set --name or --type", common.ErrValidation)
			}

			t, err := parseTypeFlag(txType)
			if err != nil {
				return err
			}

			store, _, err := initStorage()
			if err != nil {
				return err
			}

			cat, err := store.Categories().EditCategory(cmd.Context(), args[0], name, t)
			if err != nil {
				return err
			}

			printSuccess(cmd, "Category '%s' updated successfully (%s)", cat.Name, cat.Type)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "new name")
	cmd.Flags().StringVarP(&txType, "type", "t", "", "new type (income or expense)")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category",
		Long: `Delete a category. Transactions that use it are left unchanged and the
category is recreated the next time a transaction uses it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := initStorage()
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, force, fmt.Sprintf("Delete category '%s'?", args[0]))
			if err != nil {
				return err
			}
			if !ok {
				printInfo(cmd, "Deletion canceled")
				return nil
			}

			if err := store.Categories().DeleteCategory(cmd.Context(), args[0]); err != nil {
				return err
			}

			printSuccess(cmd, "Category '%s' deleted successfully", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")

	return cmd
}
