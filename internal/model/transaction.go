package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk and command-line date format.
const DateLayout = "2006-01-02"

// Transaction represents a single dated monetary event.
type Transaction struct {
	Date        time.Time
	ID          string
	Category    string
	Account     string
	Description string
	Type        TransactionType
	Amount      decimal.Decimal
}

// TransactionInput carries raw, unvalidated values for a new transaction.
// An empty Date means today.
type TransactionInput struct {
	Date        string
	Amount      string
	Category    string
	Account     string
	Description string
	Type        string
}

// DateString returns the transaction date as YYYY-MM-DD.
func (t *Transaction) DateString() string {
	return t.Date.Format(DateLayout)
}

// Value returns the string form of a column, as it is stored in the
// transactions table. Unknown columns yield ok == false.
func (t *Transaction) Value(column string) (string, bool) {
	switch column {
	case ColumnID:
		return t.ID, true
	case string(FieldDate):
		return t.DateString(), true
	case string(FieldAmount):
		return t.Amount.String(), true
	case string(FieldCategory):
		return t.Category, true
	case string(FieldAccount):
		return t.Account, true
	case string(FieldDescription):
		return t.Description, true
	case string(FieldType):
		return string(t.Type), true
	default:
		return "", false
	}
}

// Values returns every column in table order.
func (t *Transaction) Values() []string {
	values := make([]string, 0, len(TransactionColumns))
	for _, column := range TransactionColumns {
		v, _ := t.Value(column)
		values = append(values, v)
	}
	return values
}

// ShortID returns the first eight characters of the id for display.
func (t *Transaction) ShortID() string {
	if len(t.ID) <= 8 {
		return t.ID
	}
	return t.ID[:8]
}

// GenerateHash creates a content hash for duplicate detection on import.
// The id is excluded so the same bank entry hashes identically however it
// was stored.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%s:%s:%s:%s",
		t.DateString(),
		t.Amount.StringFixed(2),
		strings.ToLower(t.Account),
		strings.ToLower(strings.TrimSpace(t.Description)),
		t.Type)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// Input converts the transaction back to raw input values, dropping the id.
func (t *Transaction) Input() TransactionInput {
	return TransactionInput{
		Date:        t.DateString(),
		Amount:      t.Amount.String(),
		Category:    t.Category,
		Account:     t.Account,
		Description: t.Description,
		Type:        string(t.Type),
	}
}
