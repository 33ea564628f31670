package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/service"
)

var fixedNow = time.Date(2024, 3, 15, 21, 30, 0, 0, time.UTC)

// createTestStore returns a store in a fresh data directory with a fixed
// clock and sequential ids.
func createTestStore(t *testing.T) (*TransactionStore, string) {
	t.Helper()
	dir := t.TempDir()

	seq := 0
	store, err := NewTransactionStore(dir,
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("txn-%04d", seq)
		}),
	)
	require.NoError(t, err, "failed to create test store")

	return store, dir
}

func addTestTransaction(t *testing.T, store *TransactionStore, date, amount, category, txType string) *model.Transaction {
	t.Helper()
	txn, err := store.AddTransaction(context.Background(), model.TransactionInput{
		Date:        date,
		Amount:      amount,
		Category:    category,
		Account:     "Checking",
		Description: category + " payment",
		Type:        txType,
	})
	require.NoError(t, err)
	return txn
}

func TestNewTransactionStore_CreatesTables(t *testing.T) {
	_, dir := createTestStore(t)

	data, err := os.ReadFile(filepath.Join(dir, TransactionsFile))
	require.NoError(t, err)
	assert.Equal(t, "id,date,amount,category,account,description,transaction_type\n", string(data))
	assert.FileExists(t, filepath.Join(dir, CategoriesFile))
}

func TestTransactionStore_AddAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStore(t)

	inputs := []model.TransactionInput{
		{Date: "2024-01-05", Amount: "1000", Category: "Salary", Account: "Checking", Description: "January pay", Type: "income"},
		{Date: "2024-01-06", Amount: "45.50", Category: "Groceries", Account: "Visa", Description: "Market, weekly \"big\" shop", Type: "expense"},
		{Date: "2024-01-07", Amount: "12", Category: "Dining Out", Account: "Cash", Description: "", Type: "expense"},
	}
	for _, in := range inputs {
		_, err := store.AddTransaction(ctx, in)
		require.NoError(t, err)
	}

	all, err := store.GetTransactions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, len(inputs))

	for i, in := range inputs {
		got := all[i]
		assert.Equal(t, fmt.Sprintf("txn-%04d", i+1), got.ID)
		assert.Equal(t, in.Date, got.DateString())
		assert.True(t, decimal.RequireFromString(in.Amount).Equal(got.Amount), "amount %s", got.Amount)
		assert.Equal(t, in.Category, got.Category)
		assert.Equal(t, in.Account, got.Account)
		assert.Equal(t, in.Description, got.Description)
		assert.Equal(t, model.TransactionType(in.Type), got.Type)
	}
}

func TestTransactionStore_GeneratedIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	store, err := NewTransactionStore(t.TempDir())
	require.NoError(t, err)

	const n = 1000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		txn, err := store.AddTransaction(ctx, model.TransactionInput{
			Date:     "2024-02-01",
			Amount:   "1",
			Category: "Miscellaneous",
			Account:  "Cash",
			Type:     "expense",
		})
		require.NoError(t, err)
		seen[txn.ID] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestTransactionStore_AddValidation(t *testing.T) {
	valid := model.TransactionInput{
		Date:     "2024-01-05",
		Amount:   "10",
		Category: "Groceries",
		Account:  "Checking",
		Type:     "expense",
	}

	tests := []struct {
		wantErr error
		modify  func(*model.TransactionInput)
		name    string
		message string
	}{
		{
			name:    "bad date",
			modify:  func(in *model.TransactionInput) { in.Date = "05/01/2024" },
			wantErr: ErrInvalidDate,
			message: "invalid date format",
		},
		{
			name:    "non numeric amount",
			modify:  func(in *model.TransactionInput) { in.Amount = "abc" },
			wantErr: ErrAmountNotNumber,
			message: "amount must be a valid number",
		},
		{
			name:    "zero amount",
			modify:  func(in *model.TransactionInput) { in.Amount = "0" },
			wantErr: ErrAmountNotPositive,
			message: "amount must be greater than zero",
		},
		{
			name:    "negative amount",
			modify:  func(in *model.TransactionInput) { in.Amount = "-5" },
			wantErr: ErrAmountNotPositive,
		},
		{
			name:    "exponent notation",
			modify:  func(in *model.TransactionInput) { in.Amount = "1e20000000" },
			wantErr: ErrAmountNotNumber,
		},
		{
			name:    "too many digits",
			modify:  func(in *model.TransactionInput) { in.Amount = "1234567890123456" },
			wantErr: ErrAmountOutOfRange,
		},
		{
			name:    "invalid type",
			modify:  func(in *model.TransactionInput) { in.Type = "transfer" },
			wantErr: model.ErrInvalidType,
			message: "type must be either 'income' or 'expense'",
		},
		{
			name:    "empty category",
			modify:  func(in *model.TransactionInput) { in.Category = "  " },
			wantErr: ErrEmptyString,
			message: "category cannot be empty",
		},
		{
			name:    "empty account",
			modify:  func(in *model.TransactionInput) { in.Account = "" },
			wantErr: ErrEmptyString,
			message: "account cannot be empty",
		},
		{
			name: "date is checked before amount",
			modify: func(in *model.TransactionInput) {
				in.Date = "nope"
				in.Amount = "abc"
			},
			wantErr: ErrInvalidDate,
		},
		{
			name: "amount is checked before type",
			modify: func(in *model.TransactionInput) {
				in.Amount = "abc"
				in.Type = "transfer"
			},
			wantErr: ErrAmountNotNumber,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store, dir := createTestStore(t)

			in := valid
			tt.modify(&in)

			txn, err := store.AddTransaction(ctx, in)
			require.Error(t, err)
			assert.Nil(t, txn)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, common.ErrValidation)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}

			data, err := os.ReadFile(filepath.Join(dir, TransactionsFile))
			require.NoError(t, err)
			assert.Equal(t, "id,date,amount,category,account,description,transaction_type\n", string(data))
		})
	}
}

func TestTransactionStore_AddDefaultsDateToToday(t *testing.T) {
	store, _ := createTestStore(t)

	txn := addTestTransaction(t, store, "", "5", "Groceries", "expense")
	assert.Equal(t, "2024-03-15", txn.DateString())
}

func TestTransactionStore_AddCreatesMissingCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStore(t)

	addTestTransaction(t, store, "2024-01-01", "30", "Pets", "expense")

	expense, err := store.Categories().GetCategories(ctx, model.TypeExpense)
	require.NoError(t, err)
	assert.Contains(t, categoryNames(expense), "Pets")

	// An existing category in different case is reused, not duplicated.
	addTestTransaction(t, store, "2024-01-02", "30", "pets", "expense")
	expense, err = store.Categories().GetCategories(ctx, model.TypeExpense)
	require.NoError(t, err)
	assert.Len(t, expense, len(DefaultExpenseCategories)+1)
}

func TestTransactionStore_AddReturnsStoredForm(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStore(t)

	added := addTestTransaction(t, store, "2024-01-06", "15.50", "Groceries", "expense")

	stored, err := store.GetTransactions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, *added, stored[0])
	assert.Equal(t, "15.5", added.Amount.String())
}

func TestTransactionStore_FailedAddLeavesCategoriesUnchanged(t *testing.T) {
	ctx := context.Background()
	store, dir := createTestStore(t)
	categoriesPath := filepath.Join(dir, CategoriesFile)

	before, err := os.ReadFile(categoriesPath)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, TransactionsFile), "date,amount\n")

	txn, err := store.AddTransaction(ctx, model.TransactionInput{
		Date:     "2024-01-01",
		Amount:   "30",
		Category: "Pets",
		Account:  "Cash",
		Type:     "expense",
	})
	require.ErrorIs(t, err, common.ErrTableCorrupted)
	assert.Nil(t, txn)

	after, err := os.ReadFile(categoriesPath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestTransactionStore_FailedEditLeavesCategoriesUnchanged(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStore(t)
	addTestTransaction(t, store, "2024-01-06", "200", "Groceries", "expense")

	_, err := store.EditTransaction(ctx, "missing", model.FieldCategory, "Pets")
	require.ErrorIs(t, err, common.ErrNotFound)

	expense, err := store.Categories().GetCategories(ctx, model.TypeExpense)
	require.NoError(t, err)
	assert.NotContains(t, categoryNames(expense), "Pets")
}

func TestTransactionStore_GetTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStore(t)

	addTestTransaction(t, store, "2024-01-05", "1000", "Salary", "income")
	addTestTransaction(t, store, "2024-01-06", "200", "Groceries", "expense")
	addTestTransaction(t, store, "2024-02-06", "50", "Groceries", "expense")

	tests := []struct {
		filter service.TransactionFilter
		name   string
		want   []string
	}{
		{name: "nil filter", filter: nil, want: []string{"txn-0001", "txn-0002", "txn-0003"}},
		{name: "empty filter", filter: service.TransactionFilter{}, want: []string{"txn-0001", "txn-0002", "txn-0003"}},
		{name: "by category ignoring case", filter: service.TransactionFilter{"category": "groceries"}, want: []string{"txn-0002", "txn-0003"}},
		{name: "by type", filter: service.TransactionFilter{"transaction_type": "income"}, want: []string{"txn-0001"}},
		{name: "all keys must match", filter: service.TransactionFilter{"category": "Groceries", "date": "2024-02-06"}, want: []string{"txn-0003"}},
		{name: "unknown keys are ignored", filter: service.TransactionFilter{"color": "red"}, want: []string{"txn-0001", "txn-0002", "txn-0003"}},
		{name: "amount matches stored text", filter: service.TransactionFilter{"amount": "200"}, want: []string{"txn-0002"}},
		{name: "no match", filter: service.TransactionFilter{"account": "Savings"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.GetTransactions(ctx, tt.filter)
			require.NoError(t, err)

			ids := make([]string, 0, len(txns))
			for _, txn := range txns {
				ids = append(ids, txn.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTransactionStore_GetTransactionsCorruptedRow(t *testing.T) {
	ctx := context.Background()
	store, dir := createTestStore(t)

	writeFile(t, filepath.Join(dir, TransactionsFile),
		"id,date,amount,category,account,description,transaction_type\n"+
			"a,2024-01-01,ten,Groceries,Cash,,expense\n")

	txns, err := store.GetTransactions(ctx, nil)
	assert.ErrorIs(t, err, common.ErrTableCorrupted)
	assert.Nil(t, txns)
}

func TestTransactionStore_DeleteTransaction(t *testing.T) {
	ctx := context.Background()
	store, dir := createTestStore(t)
	path := filepath.Join(dir, TransactionsFile)

	first := addTestTransaction(t, store, "2024-01-05", "1000", "Salary", "income")
	addTestTransaction(t, store, "2024-01-06", "200", "Groceries", "expense")

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	err = store.DeleteTransaction(ctx, "does-not-exist")
	require.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "not found")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed delete must leave the file byte-identical")

	require.NoError(t, store.DeleteTransaction(ctx, first.ID))
	txns, err := store.GetTransactions(ctx, nil)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "txn-0002", txns[0].ID)
}

func TestTransactionStore_EditTransaction(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		check func(t *testing.T, txn *model.Transaction)
		name  string
		field model.Field
		value string
	}{
		{
			name:  "date",
			field: model.FieldDate,
			value: "2024-02-29",
			check: func(t *testing.T, txn *model.Transaction) {
				t.Helper()
				assert.Equal(t, "2024-02-29", txn.DateString())
			},
		},
		{
			name:  "amount",
			field: model.FieldAmount,
			value: "250.75",
			check: func(t *testing.T, txn *model.Transaction) {
				t.Helper()
				assert.Equal(t, "250.75", txn.Amount.String())
			},
		},
		{
			name:  "type",
			field: model.FieldType,
			value: "income",
			check: func(t *testing.T, txn *model.Transaction) {
				t.Helper()
				assert.Equal(t, model.TypeIncome, txn.Type)
			},
		},
		{
			name:  "account",
			field: model.FieldAccount,
			value: " Visa ",
			check: func(t *testing.T, txn *model.Transaction) {
				t.Helper()
				assert.Equal(t, "Visa", txn.Account)
			},
		},
		{
			name:  "description may be empty",
			field: model.FieldDescription,
			value: "",
			check: func(t *testing.T, txn *model.Transaction) {
				t.Helper()
				assert.Empty(t, txn.Description)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := createTestStore(t)
			txn := addTestTransaction(t, store, "2024-01-06", "200", "Groceries", "expense")

			edited, err := store.EditTransaction(ctx, txn.ID, tt.field, tt.value)
			require.NoError(t, err)
			tt.check(t, edited)

			stored, err := store.GetTransactions(ctx, service.TransactionFilter{"id": txn.ID})
			require.NoError(t, err)
			require.Len(t, stored, 1)
			assert.Equal(t, *edited, stored[0])
		})
	}
}

func TestTransactionStore_EditCategoryCreatesCategory(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStore(t)
	txn := addTestTransaction(t, store, "2024-01-06", "200", "Groceries", "expense")

	edited, err := store.EditTransaction(ctx, txn.ID, model.FieldCategory, "Pets")
	require.NoError(t, err)
	assert.Equal(t, "Pets", edited.Category)

	expense, err := store.Categories().GetCategories(ctx, model.TypeExpense)
	require.NoError(t, err)
	assert.Contains(t, categoryNames(expense), "Pets")
}

func TestTransactionStore_EditTransactionErrors(t *testing.T) {
	ctx := context.Background()
	store, dir := createTestStore(t)
	path := filepath.Join(dir, TransactionsFile)
	txn := addTestTransaction(t, store, "2024-01-06", "200", "Groceries", "expense")

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	tests := []struct {
		wantErr error
		name    string
		id      string
		field   model.Field
		value   string
	}{
		{name: "non numeric amount", id: txn.ID, field: model.FieldAmount, value: "abc", wantErr: ErrAmountNotNumber},
		{name: "negative amount", id: txn.ID, field: model.FieldAmount, value: "-1", wantErr: ErrAmountNotPositive},
		{name: "bad date", id: txn.ID, field: model.FieldDate, value: "yesterday", wantErr: ErrInvalidDate},
		{name: "bad type", id: txn.ID, field: model.FieldType, value: "transfer", wantErr: model.ErrInvalidType},
		{name: "empty account", id: txn.ID, field: model.FieldAccount, value: " ", wantErr: ErrEmptyString},
		{name: "empty category", id: txn.ID, field: model.FieldCategory, value: "", wantErr: ErrEmptyString},
		{name: "unknown field", id: txn.ID, field: "color", value: "red", wantErr: model.ErrUnknownField},
		{name: "id is not editable", id: txn.ID, field: model.ColumnID, value: "other", wantErr: model.ErrUnknownField},
		{name: "unknown field is reported before missing id", id: "missing", field: "color", value: "red", wantErr: model.ErrUnknownField},
		{name: "missing id", id: "missing", field: model.FieldAmount, value: "5", wantErr: common.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edited, err := store.EditTransaction(ctx, tt.id, tt.field, tt.value)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, edited)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestTransactionStore_SearchTransactions(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStore(t)

	addTestTransaction(t, store, "2024-01-05", "1000", "Salary", "income")
	groceries := addTestTransaction(t, store, "2024-01-06", "200", "Groceries", "expense")

	found, err := store.SearchTransactions(ctx, "groc")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, groceries.ID, found[0].ID)

	found, err = store.SearchTransactions(ctx, "CHECKING")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = store.SearchTransactions(ctx, "2024-01-05")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = store.SearchTransactions(ctx, "rent")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestTransactionStore_GetTransactionSummary(t *testing.T) {
	ctx := context.Background()
	store, _ := createTestStore(t)

	addTestTransaction(t, store, "2024-01-05", "1000", "Salary", "income")
	addTestTransaction(t, store, "2024-01-06", "200", "Groceries", "expense")
	addTestTransaction(t, store, "2024-02-01", "75", "Groceries", "expense")

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	summary, err := store.GetTransactionSummary(ctx, service.DateRange{Start: &start, End: &end})
	require.NoError(t, err)

	assert.Equal(t, "1000", summary.TotalIncome.String())
	assert.Equal(t, "200", summary.TotalExpenses.String())
	assert.Equal(t, "800", summary.Net.String())
	assert.Equal(t, 2, summary.TransactionCount)
	require.Len(t, summary.Categories, 2)
	assert.Equal(t, "1000", summary.Categories["Salary"].String())
	assert.Equal(t, "200", summary.Categories["Groceries"].String())

	all, err := store.GetTransactionSummary(ctx, service.DateRange{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.TransactionCount)
	assert.Equal(t, "275", all.TotalExpenses.String())
	assert.Equal(t, "725", all.Net.String())
}

func TestTransactionStore_SummaryOfEmptyTable(t *testing.T) {
	store, _ := createTestStore(t)

	summary, err := store.GetTransactionSummary(context.Background(), service.DateRange{})
	require.NoError(t, err)
	assert.True(t, summary.TotalIncome.IsZero())
	assert.True(t, summary.TotalExpenses.IsZero())
	assert.True(t, summary.Net.IsZero())
	assert.Zero(t, summary.TransactionCount)
	assert.Empty(t, summary.Categories)
}
