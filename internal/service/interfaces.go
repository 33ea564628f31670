// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/jipange/internal/model"
)

// TransactionFilter maps column names to the value a row must hold.
// Values compare case-insensitively against the stored column text.
// Keys that are not columns are ignored.
type TransactionFilter map[string]string

// CategoryStore defines the contract for the category table.
type CategoryStore interface {
	// GetCategories returns categories in table order. An empty type
	// returns every category.
	GetCategories(ctx context.Context, categoryType model.TransactionType) ([]model.Category, error)
	AddCategory(ctx context.Context, name string, categoryType model.TransactionType) (*model.Category, error)
	// EditCategory renames and optionally retypes a category in place.
	// Empty newName or newType keep the current value.
	EditCategory(ctx context.Context, oldName, newName string, newType model.TransactionType) (*model.Category, error)
	DeleteCategory(ctx context.Context, name string) error
	// EnsureCategory creates the category unless one with the same name
	// and type exists. It reports whether a row was added.
	EnsureCategory(ctx context.Context, name string, categoryType model.TransactionType) (bool, error)
}

// TransactionStore defines the contract for the transaction table.
type TransactionStore interface {
	AddTransaction(ctx context.Context, input model.TransactionInput) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	EditTransaction(ctx context.Context, id string, field model.Field, value string) (*model.Transaction, error)
	SearchTransactions(ctx context.Context, keyword string) ([]model.Transaction, error)
	GetTransactionSummary(ctx context.Context, dateRange DateRange) (*Summary, error)

	// Categories returns the category store transactions are validated against.
	Categories() CategoryStore
}
