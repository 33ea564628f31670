package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/service"
)

// CategoriesFile is the category table's file name inside the data directory.
const CategoriesFile = "categories.csv"

// Categories seeded into a new data directory.
var (
	DefaultIncomeCategories = []string{
		"Salary", "Bonus", "Investment", "Gift", "Refund", "Other Income",
	}
	DefaultExpenseCategories = []string{
		"Housing", "Utilities", "Groceries", "Dining Out", "Transportation",
		"Entertainment", "Shopping", "Health", "Education", "Personal Care",
		"Travel", "Gifts", "Charity", "Insurance", "Taxes", "Debt Payment",
		"Savings", "Miscellaneous",
	}
)

// CategoryStore implements service.CategoryStore on a flat file.
type CategoryStore struct {
	table *table
}

var _ service.CategoryStore = (*CategoryStore)(nil)

// NewCategoryStore opens the category table in dataDir, creating the
// directory and seeding the default categories when needed.
func NewCategoryStore(dataDir string) (*CategoryStore, error) {
	dataDir, err := validateString(dataDir, "data directory")
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &CategoryStore{
		table: newTable(filepath.Join(dataDir, CategoriesFile), model.CategoryColumns),
	}
	if err := s.table.ensure(defaultCategoryRows()); err != nil {
		return nil, fmt.Errorf("failed to initialize categories: %w", err)
	}

	return s, nil
}

func defaultCategoryRows() [][]string {
	rows := make([][]string, 0, len(DefaultIncomeCategories)+len(DefaultExpenseCategories))
	for _, name := range DefaultIncomeCategories {
		rows = append(rows, []string{name, string(model.TypeIncome)})
	}
	for _, name := range DefaultExpenseCategories {
		rows = append(rows, []string{name, string(model.TypeExpense)})
	}
	return rows
}

func decodeCategory(row []string) model.Category {
	return model.Category{Name: row[0], Type: model.TransactionType(row[1])}
}

func encodeCategory(cat model.Category) []string {
	return []string{cat.Name, string(cat.Type)}
}

// findCategory returns the index of the row whose name matches
// case-insensitively, or -1.
func findCategory(rows [][]string, name string) int {
	for i, row := range rows {
		if strings.EqualFold(row[0], name) {
			return i
		}
	}
	return -1
}

// GetCategories returns categories in table order, optionally only those of one type.
func (s *CategoryStore) GetCategories(ctx context.Context, categoryType model.TransactionType) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if categoryType != "" && !categoryType.Valid() {
		return nil, invalid(fmt.Errorf("%w: %q", model.ErrInvalidType, categoryType))
	}

	rows, err := s.table.load()
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	categories := make([]model.Category, 0, len(rows))
	for _, row := range rows {
		cat := decodeCategory(row)
		if categoryType == "" || cat.Type == categoryType {
			categories = append(categories, cat)
		}
	}

	slog.Debug("retrieved categories", "count", len(categories), "type", categoryType)
	return categories, nil
}

// AddCategory appends a new category. Names are unique ignoring case.
func (s *CategoryStore) AddCategory(ctx context.Context, name string, categoryType model.TransactionType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	categoryType, err := parseType(string(categoryType))
	if err != nil {
		return nil, err
	}
	name, err = validateString(name, "category name")
	if err != nil {
		return nil, err
	}

	cat := model.Category{Name: name, Type: categoryType}
	err = s.table.update(func(rows [][]string) ([][]string, error) {
		if findCategory(rows, name) >= 0 {
			return nil, fmt.Errorf("category %q %w", name, common.ErrDuplicateEntry)
		}
		return append(rows, encodeCategory(cat)), nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("created category", "name", name, "type", categoryType)
	return &cat, nil
}

// DeleteCategory removes a category. Transactions that reference it are
// left as they are.
func (s *CategoryStore) DeleteCategory(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	name, err := validateString(name, "category name")
	if err != nil {
		return err
	}

	err = s.table.update(func(rows [][]string) ([][]string, error) {
		idx := findCategory(rows, name)
		if idx < 0 {
			return nil, fmt.Errorf("category %q %w", name, common.ErrNotFound)
		}
		return append(rows[:idx], rows[idx+1:]...), nil
	})
	if err != nil {
		return err
	}

	slog.Debug("deleted category", "name", name)
	return nil
}

// EditCategory renames and optionally retypes a category, keeping its position.
func (s *CategoryStore) EditCategory(ctx context.Context, oldName, newName string, newType model.TransactionType) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	oldName, err := validateString(oldName, "category name")
	if err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)

	var edited model.Category
	err = s.table.update(func(rows [][]string) ([][]string, error) {
		idx := findCategory(rows, oldName)
		if idx < 0 {
			return nil, fmt.Errorf("category %q %w", oldName, common.ErrNotFound)
		}

		edited = decodeCategory(rows[idx])
		if newType != "" {
			t, err := parseType(string(newType))
			if err != nil {
				return nil, err
			}
			edited.Type = t
		}
		if newName != "" {
			if other := findCategory(rows, newName); other >= 0 && other != idx {
				return nil, fmt.Errorf("category %q %w", newName, common.ErrDuplicateEntry)
			}
			edited.Name = newName
		}

		rows[idx] = encodeCategory(edited)
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	slog.Debug("updated category", "old_name", oldName, "name", edited.Name, "type", edited.Type)
	return &edited, nil
}

// EnsureCategory adds the category unless one with the same name (ignoring
// case) and type already exists. A name already taken by the other type is
// left alone, since names are unique across types.
func (s *CategoryStore) EnsureCategory(ctx context.Context, name string, categoryType model.TransactionType) (bool, error) {
	categories, err := s.GetCategories(ctx, categoryType)
	if err != nil {
		return false, err
	}
	for _, cat := range categories {
		if strings.EqualFold(cat.Name, name) {
			return false, nil
		}
	}

	_, err = s.AddCategory(ctx, name, categoryType)
	if errors.Is(err, common.ErrDuplicateEntry) {
		slog.Debug("category exists with another type", "name", name, "type", categoryType)
		return false, nil
	}
	if err != nil {
		return false, err
	}

	slog.Info("created category for transaction", "name", name, "type", categoryType)
	return true, nil
}
