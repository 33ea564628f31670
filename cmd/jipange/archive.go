package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/jipange/internal/archive"
	"github.com/Veraticus/jipange/internal/config"
)

func archiveCmd() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Snapshot all data into a SQLite database",
		Long: `Copy every category and transaction into a SQLite database for ad-hoc
SQL queries. Each run replaces the previous snapshot.

Examples:
  jipange archive
  jipange archive --path ~/backups/money.db
  sqlite3 ~/.local/share/jipange/archive.db \
    "SELECT category, SUM(CAST(amount AS REAL)) FROM transactions GROUP BY category"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, cfg, err := initStorage()
			if err != nil {
				return err
			}

			arc, err := archive.Open(ctx, cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer arc.Close()

			if status {
				snap, err := arc.LastSnapshot(ctx)
				if errors.Is(err, archive.ErrNoSnapshot) {
					printInfo(cmd, "No snapshot in %s yet", arc.Path())
					return nil
				}
				if err != nil {
					return err
				}
				categories, transactions, err := arc.CountRows(ctx)
				if err != nil {
					return err
				}
				printInfo(cmd, "Last snapshot %s: %d categories, %d transactions from %s",
					snap.TakenAt.Local().Format("2006-01-02 15:04:05"),
					snap.CategoryCount, snap.TransactionCount, snap.SourceDir)
				printInfo(cmd, "%s holds %d categories and %d transactions", arc.Path(), categories, transactions)
				return nil
			}

			categories, err := store.Categories().GetCategories(ctx, "")
			if err != nil {
				return err
			}
			transactions, err := store.GetTransactions(ctx, nil)
			if err != nil {
				return err
			}

			snap, err := arc.Write(ctx, cfg.DataDir, categories, transactions, now())
			if err != nil {
				return err
			}

			printSuccess(cmd, "Archived %d categories and %d transactions to %s",
				snap.CategoryCount, snap.TransactionCount, arc.Path())
			return nil
		},
	}

	cmd.Flags().String("path", "", fmt.Sprintf("archive database (default: <data dir>/%s)", config.ArchiveFile))
	cmd.Flags().BoolVar(&status, "status", false, "show the last snapshot instead of taking one")
	_ = viper.BindPFlag(config.KeyArchivePath, cmd.Flags().Lookup("path"))

	return cmd
}
