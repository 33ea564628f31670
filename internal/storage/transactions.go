package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/service"
)

// TransactionsFile is the transaction table's file name inside the data directory.
const TransactionsFile = "transactions.csv"

// TransactionStore implements service.TransactionStore on a flat file.
type TransactionStore struct {
	table      *table
	categories *CategoryStore
	now        func() time.Time
	newID      func() string
}

var _ service.TransactionStore = (*TransactionStore)(nil)

// Option configures a TransactionStore.
type Option func(*TransactionStore)

// WithClock sets the clock used to date transactions added without a date.
func WithClock(now func() time.Time) Option {
	return func(s *TransactionStore) {
		s.now = now
	}
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *TransactionStore) {
		s.newID = newID
	}
}

// NewTransactionStore opens the transaction table in dataDir together with
// the category table it validates against. Missing files are created.
func NewTransactionStore(dataDir string, opts ...Option) (*TransactionStore, error) {
	categories, err := NewCategoryStore(dataDir)
	if err != nil {
		return nil, err
	}

	s := &TransactionStore{
		table:      newTable(filepath.Join(strings.TrimSpace(dataDir), TransactionsFile), model.TransactionColumns),
		categories: categories,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.table.ensure(nil); err != nil {
		return nil, fmt.Errorf("failed to initialize transactions: %w", err)
	}

	return s, nil
}

// Categories returns the category store transactions are validated against.
func (s *TransactionStore) Categories() service.CategoryStore {
	return s.categories
}

func columnIndex(column string) int {
	return slices.Index(model.TransactionColumns, column)
}

func findTransaction(rows [][]string, id string) int {
	for i, row := range rows {
		if row[0] == id {
			return i
		}
	}
	return -1
}

func decodeTransaction(row []string) (model.Transaction, error) {
	date, err := time.Parse(model.DateLayout, row[1])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s has invalid date %q",
			common.ErrTableCorrupted, row[0], row[1])
	}
	amount, err := decimal.NewFromString(row[2])
	if err != nil {
		return model.Transaction{}, fmt.Errorf("%w: transaction %s has invalid amount %q",
			common.ErrTableCorrupted, row[0], row[2])
	}

	return model.Transaction{
		ID:          row[0],
		Date:        date,
		Amount:      amount,
		Category:    row[3],
		Account:     row[4],
		Description: row[5],
		Type:        model.TransactionType(row[6]),
	}, nil
}

func decodeTransactions(rows [][]string) ([]model.Transaction, error) {
	transactions := make([]model.Transaction, 0, len(rows))
	for _, row := range rows {
		txn, err := decodeTransaction(row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	return transactions, nil
}

// today returns the store clock's calendar date at midnight UTC, matching
// dates parsed from the table.
func (s *TransactionStore) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// buildTransaction validates raw input in a fixed order: date, amount,
// type, then category and account.
func (s *TransactionStore) buildTransaction(input model.TransactionInput) (model.Transaction, error) {
	var (
		txn model.Transaction
		err error
	)

	if strings.TrimSpace(input.Date) == "" {
		txn.Date = s.today()
	} else if txn.Date, err = parseDate(input.Date); err != nil {
		return txn, err
	}

	if txn.Amount, err = parseAmount(input.Amount); err != nil {
		return txn, err
	}
	if txn.Type, err = parseType(input.Type); err != nil {
		return txn, err
	}
	if txn.Category, err = validateString(input.Category, "category"); err != nil {
		return txn, err
	}
	if txn.Account, err = validateString(input.Account, "account"); err != nil {
		return txn, err
	}
	txn.Description = input.Description

	return txn, nil
}

// AddTransaction validates input and appends a new transaction with a
// fresh id. Unknown categories are created with the transaction's type.
func (s *TransactionStore) AddTransaction(ctx context.Context, input model.TransactionInput) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	txn, err := s.buildTransaction(input)
	if err != nil {
		return nil, err
	}

	txn.ID = s.newID()
	err = s.table.update(func(rows [][]string) ([][]string, error) {
		if findTransaction(rows, txn.ID) >= 0 {
			return nil, fmt.Errorf("transaction %s %w", txn.ID, common.ErrDuplicateEntry)
		}
		return append(rows, txn.Values()), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	if err := s.ensureCategory(ctx, txn); err != nil {
		return nil, err
	}

	slog.Debug("added transaction",
		"id", txn.ID,
		"date", txn.DateString(),
		"amount", txn.Amount.String(),
		"type", txn.Type)
	return &txn, nil
}

// GetTransactions returns transactions in table order. A row is kept when,
// for every filter key naming a column, the stored text equals the filter
// value ignoring case.
func (s *TransactionStore) GetTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.table.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	matched := slices.DeleteFunc(rows, func(row []string) bool {
		return !matchesFilter(row, filter)
	})

	transactions, err := decodeTransactions(matched)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved transactions", "count", len(transactions), "filters", len(filter))
	return transactions, nil
}

func matchesFilter(row []string, filter service.TransactionFilter) bool {
	for column, want := range filter {
		idx := columnIndex(column)
		if idx < 0 {
			continue
		}
		if !strings.EqualFold(row[idx], want) {
			return false
		}
	}
	return true
}

// DeleteTransaction removes the transaction with the given id.
func (s *TransactionStore) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	err := s.table.update(func(rows [][]string) ([][]string, error) {
		idx := findTransaction(rows, id)
		if idx < 0 {
			return nil, fmt.Errorf("transaction %s %w", id, common.ErrNotFound)
		}
		return append(rows[:idx], rows[idx+1:]...), nil
	})
	if err != nil {
		return err
	}

	slog.Debug("deleted transaction", "id", id)
	return nil
}

// EditTransaction overwrites a single field of a transaction.
func (s *TransactionStore) EditTransaction(ctx context.Context, id string, field model.Field, value string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if !slices.Contains(model.Fields, field) {
		return nil, invalid(fmt.Errorf("%w: %s", model.ErrUnknownField, field))
	}

	var edited model.Transaction
	err := s.table.update(func(rows [][]string) ([][]string, error) {
		idx := findTransaction(rows, id)
		if idx < 0 {
			return nil, fmt.Errorf("transaction %s %w", id, common.ErrNotFound)
		}

		txn, err := decodeTransaction(rows[idx])
		if err != nil {
			return nil, err
		}
		if err := s.applyEdit(&txn, field, value); err != nil {
			return nil, err
		}

		rows[idx] = txn.Values()
		edited = txn
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	if field == model.FieldCategory {
		if err := s.ensureCategory(ctx, edited); err != nil {
			return nil, err
		}
	}

	slog.Debug("updated transaction", "id", id, "field", field)
	return &edited, nil
}

// ensureCategory adds the category of a transaction that is already in the
// table. Callers must not run it before the transaction write.
func (s *TransactionStore) ensureCategory(ctx context.Context, txn model.Transaction) error {
	if _, err := s.categories.EnsureCategory(ctx, txn.Category, txn.Type); err != nil {
		return fmt.Errorf("transaction %s saved but category %q was not added: %w", txn.ID, txn.Category, err)
	}
	return nil
}

func (s *TransactionStore) applyEdit(txn *model.Transaction, field model.Field, value string) error {
	var err error

	switch field {
	case model.FieldDate:
		txn.Date, err = parseDate(value)
	case model.FieldAmount:
		txn.Amount, err = parseAmount(value)
	case model.FieldType:
		txn.Type, err = parseType(value)
	case model.FieldAccount:
		txn.Account, err = validateString(value, "account")
	case model.FieldDescription:
		txn.Description = value
	case model.FieldCategory:
		txn.Category, err = validateString(value, "category")
	default:
		err = invalid(fmt.Errorf("%w: %s", model.ErrUnknownField, field))
	}

	return err
}

// SearchTransactions returns transactions where any column contains
// keyword, ignoring case.
func (s *TransactionStore) SearchTransactions(ctx context.Context, keyword string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.table.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	needle := strings.ToLower(keyword)
	matched := slices.DeleteFunc(rows, func(row []string) bool {
		return !slices.ContainsFunc(row, func(value string) bool {
			return strings.Contains(strings.ToLower(value), needle)
		})
	})

	transactions, err := decodeTransactions(matched)
	if err != nil {
		return nil, err
	}

	slog.Debug("searched transactions", "keyword", keyword, "count", len(transactions))
	return transactions, nil
}

// GetTransactionSummary totals the transactions dated within dateRange.
func (s *TransactionStore) GetTransactionSummary(ctx context.Context, dateRange service.DateRange) (*service.Summary, error) {
	transactions, err := s.GetTransactions(ctx, nil)
	if err != nil {
		return nil, err
	}

	summary := service.NewSummary(dateRange)
	for _, txn := range transactions {
		if dateRange.Contains(txn.Date) {
			summary.Add(txn)
		}
	}

	slog.Debug("summarized transactions",
		"count", summary.TransactionCount,
		"income", summary.TotalIncome.String(),
		"expenses", summary.TotalExpenses.String())
	return summary, nil
}
