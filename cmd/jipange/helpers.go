package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/jipange/internal/cli"
	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/config"
	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/service"
	"github.com/Veraticus/jipange/internal/storage"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// initStorage opens the transaction store in the configured data directory.
func initStorage() (*storage.TransactionStore, *config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.NewTransactionStore(cfg.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open data directory %s: %w", cfg.DataDir, err)
	}

	return store, cfg, nil
}

// resolveTransactionID expands a unique id prefix, such as the eight
// characters shown in listings, to a full transaction id.
func resolveTransactionID(ctx context.Context, store service.TransactionStore, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", common.NewUserError("transaction id cannot be empty", common.ErrValidation)
	}

	transactions, err := store.GetTransactions(ctx, nil)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, txn := range transactions {
		if txn.ID == prefix {
			return txn.ID, nil
		}
		if strings.HasPrefix(txn.ID, prefix) {
			matches = append(matches, txn.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("transaction %s %w", prefix, common.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", common.NewUserError(
			fmt.Sprintf("id prefix %q matches %d transactions, use more characters", prefix, len(matches)),
			common.ErrValidation)
	}
}

// confirm asks the user to confirm unless force is set.
func confirm(cmd *cobra.Command, force bool, prompt string) (bool, error) {
	if force {
		return true, nil
	}
	reader := cli.NewNonBlockingReader(cmd.InOrStdin())
	return cli.Confirm(cmd.Context(), reader, cmd.OutOrStdout(), prompt)
}

func printSuccess(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(format, args...)))
}

func printInfo(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf(format, args...)))
}

func parseTypeFlag(value string) (model.TransactionType, error) {
	if value == "" {
		return "", nil
	}
	t, err := model.ParseTransactionType(strings.ToLower(strings.TrimSpace(value)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrValidation, err)
	}
	return t, nil
}
