// Package testutil provides fixtures for tests that need a populated data
// directory.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/storage"
)

// FixedNow is the clock used by stores created here.
var FixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// DataDir is a temporary data directory with an open store.
type DataDir struct {
	Store *storage.TransactionStore
	t     *testing.T
	Dir   string
}

// Fixture is a named set of transactions to seed.
type Fixture []model.TransactionInput

// JanuaryFixture is one salary payment and one grocery trip in January 2024.
var JanuaryFixture = Fixture{
	{Date: "2024-01-05", Amount: "1000", Category: "Salary", Account: "Checking", Description: "January pay", Type: "income"},
	{Date: "2024-01-06", Amount: "200", Category: "Groceries", Account: "Visa", Description: "Weekly shop", Type: "expense"},
}

// MixedFixture spans two months and both types.
var MixedFixture = Fixture{
	{Date: "2024-01-05", Amount: "1000", Category: "Salary", Account: "Checking", Description: "January pay", Type: "income"},
	{Date: "2024-01-06", Amount: "200", Category: "Groceries", Account: "Visa", Description: "Weekly shop", Type: "expense"},
	{Date: "2024-02-05", Amount: "1000", Category: "Salary", Account: "Checking", Description: "February pay", Type: "income"},
	{Date: "2024-02-10", Amount: "60.25", Category: "Dining Out", Account: "Visa", Description: "Birthday dinner", Type: "expense"},
	{Date: "2024-02-14", Amount: "15.50", Category: "Interest", Account: "Savings", Description: "Monthly interest", Type: "income"},
}

// SetupDataDir creates an empty data directory and a store over it with
// a fixed clock.
//
// Example:
//
//	dd := testutil.SetupDataDir(t)
//	dd.Seed(testutil.JanuaryFixture)
func SetupDataDir(t *testing.T) *DataDir {
	t.Helper()

	dir := t.TempDir()
	store, err := storage.NewTransactionStore(dir, storage.WithClock(func() time.Time { return FixedNow }))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	return &DataDir{Store: store, Dir: dir, t: t}
}

// Seed adds every transaction in fixture and returns them as stored.
func (d *DataDir) Seed(fixture Fixture) []model.Transaction {
	d.t.Helper()

	added := make([]model.Transaction, 0, len(fixture))
	for _, in := range fixture {
		txn, err := d.Store.AddTransaction(context.Background(), in)
		if err != nil {
			d.t.Fatalf("failed to seed transaction %+v: %v", in, err)
		}
		added = append(added, *txn)
	}
	return added
}

// ReadFile returns the raw contents of a table file in the directory.
func (d *DataDir) ReadFile(name string) string {
	d.t.Helper()

	data, err := os.ReadFile(filepath.Join(d.Dir, name))
	if err != nil {
		d.t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}
