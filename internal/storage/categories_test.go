package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/model"
)

func createTestCategoryStore(t *testing.T) (*CategoryStore, string) {
	t.Helper()
	dir := t.TempDir()

	store, err := NewCategoryStore(dir)
	require.NoError(t, err, "failed to create category store")

	return store, dir
}

func categoryNames(categories []model.Category) []string {
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	return names
}

func TestNewCategoryStore_SeedsDefaults(t *testing.T) {
	ctx := context.Background()
	store, dir := createTestCategoryStore(t)

	all, err := store.GetCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 24)

	income, err := store.GetCategories(ctx, model.TypeIncome)
	require.NoError(t, err)
	assert.Equal(t, DefaultIncomeCategories, categoryNames(income))

	expense, err := store.GetCategories(ctx, model.TypeExpense)
	require.NoError(t, err)
	assert.Equal(t, DefaultExpenseCategories, categoryNames(expense))

	data, err := os.ReadFile(filepath.Join(dir, CategoriesFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "name,type\nSalary,income\n")
}

func TestNewCategoryStore_KeepsExistingTable(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, CategoriesFile), "name,type\nRent,expense\n")

	store, err := NewCategoryStore(dir)
	require.NoError(t, err)

	all, err := store.GetCategories(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []model.Category{{Name: "Rent", Type: model.TypeExpense}}, all)
}

func TestNewCategoryStore_CreatesNestedDataDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewCategoryStore(dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, CategoriesFile))

	_, err = NewCategoryStore("  ")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestCategoryStore_GetCategoriesRejectsUnknownType(t *testing.T) {
	store, _ := createTestCategoryStore(t)

	_, err := store.GetCategories(context.Background(), "transfer")
	assert.ErrorIs(t, err, model.ErrInvalidType)
}

func TestCategoryStore_GetCategoriesSurfacesReadErrors(t *testing.T) {
	store, dir := createTestCategoryStore(t)
	require.NoError(t, os.Remove(filepath.Join(dir, CategoriesFile)))

	categories, err := store.GetCategories(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Nil(t, categories)
}

func TestCategoryStore_AddCategory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		wantErr      error
		name         string
		categoryName string
		categoryType model.TransactionType
	}{
		{name: "new expense category", categoryName: "Pets", categoryType: model.TypeExpense},
		{name: "new income category", categoryName: "Freelance", categoryType: model.TypeIncome},
		{name: "trims the name", categoryName: "  Hobbies ", categoryType: model.TypeExpense},
		{name: "invalid type", categoryName: "Pets", categoryType: "transfer", wantErr: model.ErrInvalidType},
		{name: "empty name", categoryName: " ", categoryType: model.TypeExpense, wantErr: ErrEmptyString},
		{name: "exact duplicate", categoryName: "Groceries", categoryType: model.TypeExpense, wantErr: common.ErrDuplicateEntry},
		{name: "duplicate ignoring case", categoryName: "groceries", categoryType: model.TypeExpense, wantErr: common.ErrDuplicateEntry},
		{name: "duplicate across types", categoryName: "SALARY", categoryType: model.TypeExpense, wantErr: common.ErrDuplicateEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := createTestCategoryStore(t)

			cat, err := store.AddCategory(ctx, tt.categoryName, tt.categoryType)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, cat)

				all, err := store.GetCategories(ctx, "")
				require.NoError(t, err)
				assert.Len(t, all, 24, "failed add must not change the table")
				return
			}

			require.NoError(t, err)
			all, err := store.GetCategories(ctx, "")
			require.NoError(t, err)
			require.Len(t, all, 25)
			assert.Equal(t, *cat, all[24], "new categories are appended")
		})
	}
}

func TestCategoryStore_AddCategoryCaseInsensitiveDuplicate(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestCategoryStore(t)

	_, err := store.AddCategory(ctx, "Food", model.TypeExpense)
	require.NoError(t, err)

	_, err = store.AddCategory(ctx, "food", model.TypeExpense)
	require.ErrorIs(t, err, common.ErrDuplicateEntry)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCategoryStore_DeleteCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestCategoryStore(t)

	require.NoError(t, store.DeleteCategory(ctx, "dining out"))

	expense, err := store.GetCategories(ctx, model.TypeExpense)
	require.NoError(t, err)
	assert.NotContains(t, categoryNames(expense), "Dining Out")
	assert.Len(t, expense, 17)

	err = store.DeleteCategory(ctx, "Dining Out")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestCategoryStore_EditCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("rename keeps position", func(t *testing.T) {
		store, _ := createTestCategoryStore(t)

		cat, err := store.EditCategory(ctx, "utilities", "Bills", "")
		require.NoError(t, err)
		assert.Equal(t, model.Category{Name: "Bills", Type: model.TypeExpense}, *cat)

		expense, err := store.GetCategories(ctx, model.TypeExpense)
		require.NoError(t, err)
		assert.Equal(t, "Bills", expense[1].Name)
	})

	t.Run("retype", func(t *testing.T) {
		store, _ := createTestCategoryStore(t)

		cat, err := store.EditCategory(ctx, "Refund", "Refunds", model.TypeExpense)
		require.NoError(t, err)
		assert.Equal(t, model.TypeExpense, cat.Type)

		income, err := store.GetCategories(ctx, model.TypeIncome)
		require.NoError(t, err)
		assert.NotContains(t, categoryNames(income), "Refunds")
	})

	t.Run("empty new name keeps name", func(t *testing.T) {
		store, _ := createTestCategoryStore(t)

		cat, err := store.EditCategory(ctx, "Gift", "", model.TypeExpense)
		require.NoError(t, err)
		assert.Equal(t, "Gift", cat.Name)
	})

	t.Run("changing only the case of a name", func(t *testing.T) {
		store, _ := createTestCategoryStore(t)

		cat, err := store.EditCategory(ctx, "Taxes", "TAXES", "")
		require.NoError(t, err)
		assert.Equal(t, "TAXES", cat.Name)
	})

	t.Run("errors leave the table unchanged", func(t *testing.T) {
		store, _ := createTestCategoryStore(t)

		_, err := store.EditCategory(ctx, "Nope", "Still Nope", "")
		assert.ErrorIs(t, err, common.ErrNotFound)

		_, err = store.EditCategory(ctx, "Gift", "Present", "transfer")
		assert.ErrorIs(t, err, model.ErrInvalidType)

		_, err = store.EditCategory(ctx, "Gift", "salary", "")
		assert.ErrorIs(t, err, common.ErrDuplicateEntry)

		income, err := store.GetCategories(ctx, model.TypeIncome)
		require.NoError(t, err)
		assert.Equal(t, DefaultIncomeCategories, categoryNames(income))
	})
}

func TestCategoryStore_EnsureCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestCategoryStore(t)

	created, err := store.EnsureCategory(ctx, "groceries", model.TypeExpense)
	require.NoError(t, err)
	assert.False(t, created, "existing category matched ignoring case")

	created, err = store.EnsureCategory(ctx, "Pets", model.TypeExpense)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureCategory(ctx, "Pets", model.TypeExpense)
	require.NoError(t, err)
	assert.False(t, created)

	created, err = store.EnsureCategory(ctx, "Salary", model.TypeExpense)
	require.NoError(t, err)
	assert.False(t, created, "name held by the other type is left alone")

	all, err := store.GetCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 25)
}

func TestCategoryStore_CanceledContext(t *testing.T) {
	store, _ := createTestCategoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.AddCategory(ctx, "Pets", model.TypeExpense)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCategoryStore_PaddedNamesMatchTrimmed(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestCategoryStore(t)

	cat, err := store.AddCategory(ctx, " Food ", model.TypeExpense)
	require.NoError(t, err)
	assert.Equal(t, "Food", cat.Name)

	edited, err := store.EditCategory(ctx, " Food ", " Meals ", "")
	require.NoError(t, err)
	assert.Equal(t, "Meals", edited.Name)

	require.NoError(t, store.DeleteCategory(ctx, "  meals "))

	expense, err := store.GetCategories(ctx, model.TypeExpense)
	require.NoError(t, err)
	assert.NotContains(t, categoryNames(expense), "Meals")

	assert.ErrorIs(t, store.DeleteCategory(ctx, "   "), ErrEmptyString)
	_, err = store.EditCategory(ctx, "", "Anything", "")
	assert.ErrorIs(t, err, ErrEmptyString)
}
