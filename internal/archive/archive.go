// Package archive copies the flat-file tables into a SQLite database so
// they can be queried with SQL.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/Veraticus/jipange/internal/model"
)

// ErrNoSnapshot is returned by LastSnapshot when nothing was archived yet.
var ErrNoSnapshot = errors.New("no snapshot recorded")

// Archive is a SQLite snapshot database.
type Archive struct {
	db   *sql.DB
	path string
}

// Snapshot describes one archive run.
type Snapshot struct {
	TakenAt          time.Time
	SourceDir        string
	ID               int64
	CategoryCount    int
	TransactionCount int
}

// Open opens or creates the archive at path and migrates it.
func Open(ctx context.Context, path string) (*Archive, error) {
	if path == "" {
		return nil, errors.New("archive path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping archive: %w", err)
	}

	a := &Archive{db: db, path: path}
	if err := a.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return a, nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.path
}

// Write replaces the archived tables with categories and transactions and
// records the run in one SQL transaction. On failure the previous snapshot
// remains.
func (a *Archive) Write(ctx context.Context, sourceDir string, categories []model.Category, transactions []model.Transaction, takenAt time.Time) (*Snapshot, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := execAll(tx, `DELETE FROM transactions`, `DELETE FROM categories`); err != nil {
		return nil, err
	}

	catStmt, err := tx.PrepareContext(ctx, `INSERT INTO categories (name, type, position) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare category insert: %w", err)
	}
	defer catStmt.Close()

	for i, cat := range categories {
		if _, err := catStmt.ExecContext(ctx, cat.Name, string(cat.Type), i); err != nil {
			return nil, fmt.Errorf("failed to archive category %q: %w", cat.Name, err)
		}
	}

	txnStmt, err := tx.PrepareContext(ctx, `INSERT INTO transactions
		(id, date, amount, category, account, description, transaction_type, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare transaction insert: %w", err)
	}
	defer txnStmt.Close()

	for i, txn := range transactions {
		if _, err := txnStmt.ExecContext(ctx,
			txn.ID, txn.DateString(), txn.Amount.String(), txn.Category,
			txn.Account, txn.Description, string(txn.Type), i); err != nil {
			return nil, fmt.Errorf("failed to archive transaction %s: %w", txn.ID, err)
		}
	}

	snap := &Snapshot{
		TakenAt:          takenAt.UTC().Truncate(time.Second),
		SourceDir:        sourceDir,
		CategoryCount:    len(categories),
		TransactionCount: len(transactions),
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, source_dir, category_count, transaction_count) VALUES (?, ?, ?, ?)`,
		snap.TakenAt.Format(time.RFC3339), snap.SourceDir, snap.CategoryCount, snap.TransactionCount)
	if err != nil {
		return nil, fmt.Errorf("failed to record snapshot: %w", err)
	}
	if snap.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot: %w", err)
	}

	slog.Info("wrote archive snapshot",
		"path", a.path,
		"categories", snap.CategoryCount,
		"transactions", snap.TransactionCount)
	return snap, nil
}

// LastSnapshot returns the most recent snapshot record.
func (a *Archive) LastSnapshot(ctx context.Context) (*Snapshot, error) {
	var (
		snap    Snapshot
		takenAt string
	)
	err := a.db.QueryRowContext(ctx, `
		SELECT id, taken_at, source_dir, category_count, transaction_count
		FROM snapshots ORDER BY id DESC LIMIT 1`).
		Scan(&snap.ID, &takenAt, &snap.SourceDir, &snap.CategoryCount, &snap.TransactionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}

	if snap.TakenAt, err = time.Parse(time.RFC3339, takenAt); err != nil {
		return nil, fmt.Errorf("invalid snapshot time %q: %w", takenAt, err)
	}
	return &snap, nil
}

// CountRows returns the number of archived categories and transactions.
func (a *Archive) CountRows(ctx context.Context) (categories, transactions int, err error) {
	if err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&categories); err != nil {
		return 0, 0, fmt.Errorf("failed to count categories: %w", err)
	}
	if err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&transactions); err != nil {
		return 0, 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return categories, transactions, nil
}
