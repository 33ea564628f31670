package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/jipange/internal/cli"
	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/ofx"
	"github.com/Veraticus/jipange/internal/service"
)

func importOFXCmd() *cobra.Command {
	var (
		account      string
		dryRun       bool
		listAccounts bool
	)

	cmd := &cobra.Command{
		Use:   "import-ofx <files...>",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import transactions from OFX or QFX (Quicken) files exported from your bank.
Debits become expenses and credits become income. Transactions already in
the data directory are skipped.

Examples:
  # Import single file
  jipange import-ofx ~/Downloads/checking_jan_2024.qfx

  # Import every statement in a directory under one account name
  jipange import-ofx --account Visa ~/Downloads/visa/*.qfx

  # Preview import without saving
  jipange import-ofx --dry-run ~/Downloads/*.ofx

  # Show which accounts each statement covers
  jipange import-ofx --list-accounts ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listAccounts {
				return runListAccounts(cmd, args)
			}
			return runImportOFX(cmd, args, account, dryRun)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "account name for imported transactions (default: the statement's account id)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "preview import without saving")
	cmd.Flags().BoolVar(&listAccounts, "list-accounts", false, "print the account ids in each file and exit")

	return cmd
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("no files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	return files, nil
}

func parseOFXFile(cmd *cobra.Command, parser *ofx.Parser, path string) ([]model.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return parser.ParseFile(cmd.Context(), f)
}

func runListAccounts(cmd *cobra.Command, args []string) error {
	files, err := expandFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.NewUserError("no files found to import", common.ErrNothingToImport)
	}

	out := cmd.OutOrStdout()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		accounts, err := ofx.GetAccounts(f)
		_ = f.Close()
		if err != nil {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Skipping %s: %v", filepath.Base(path), err)))
			continue
		}
		if len(accounts) == 0 {
			fmt.Fprintf(out, "%s: no accounts\n", filepath.Base(path))
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", filepath.Base(path), strings.Join(accounts, ", "))
	}
	return nil
}

func runImportOFX(cmd *cobra.Command, args []string, account string, dryRun bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.NewUserError("no files found to import", common.ErrNothingToImport)
	}

	store, _, err := initStorage()
	if err != nil {
		return err
	}

	existing, err := store.GetTransactions(ctx, nil)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, txn := range existing {
		seen[txn.GenerateHash()] = true
	}

	parser := ofx.NewParser(account)
	var (
		pending    []model.Transaction
		found      int
		duplicates int
	)

	for _, path := range files {
		transactions, err := parseOFXFile(cmd, parser, path)
		if err != nil {
			slog.Error("failed to import OFX file", "file", path, "error", err)
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Skipping %s: %v", filepath.Base(path), err)))
			continue
		}

		added := 0
		for _, txn := range transactions {
			hash := txn.GenerateHash()
			if seen[hash] {
				duplicates++
				continue
			}
			seen[hash] = true
			pending = append(pending, txn)
			added++
		}
		found += len(transactions)

		slog.Info("processed file",
			"file", filepath.Base(path),
			"transactions_found", len(transactions),
			"new", added)
	}

	if found == 0 {
		return common.NewUserError("no transactions found in the given files", common.ErrNothingToImport)
	}

	fmt.Fprintf(out, "%s %d transaction(s) found, %d new, %d already recorded\n",
		cli.FolderIcon, found, len(pending), duplicates)

	if dryRun {
		if err := cli.WriteTransactions(out, pending); err != nil {
			return err
		}
		printInfo(cmd, "Dry run complete - no changes made")
		return nil
	}
	if len(pending) == 0 {
		printInfo(cmd, "Nothing new to import")
		return nil
	}

	imported, err := importTransactions(cmd, store, pending)
	if err != nil {
		return fmt.Errorf("imported %d of %d transactions: %w", imported, len(pending), err)
	}

	common.LogInfo("ofx import finished", common.Fields{"imported": imported, "skipped": duplicates})
	printSuccess(cmd, "Imported %d transaction(s)", imported)
	return nil
}

// importTransactions adds pending transactions in order, stopping at the
// first failure or interrupt. It returns how many were added.
func importTransactions(cmd *cobra.Command, store service.TransactionStore, pending []model.Transaction) (int, error) {
	ctx := cmd.Context()
	bar := cli.NewProgressBar(cmd.ErrOrStderr(), len(pending), "Importing transactions...")

	for i, txn := range pending {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := store.AddTransaction(ctx, txn.Input()); err != nil {
			return i, err
		}
		_ = bar.Add(1)
	}

	return len(pending), nil
}
