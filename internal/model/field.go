package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned for a column name that cannot be edited.
var ErrUnknownField = errors.New("invalid field")

// Field names an editable transaction column.
type Field string

// Editable fields. The id column is immutable and has no Field.
const (
	FieldDate        Field = "date"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldAccount     Field = "account"
	FieldDescription Field = "description"
	FieldType        Field = "transaction_type"
)

// ColumnID is the transaction id column.
const ColumnID = "id"

// Fields lists the editable fields in table order.
var Fields = []Field{
	FieldDate,
	FieldAmount,
	FieldCategory,
	FieldAccount,
	FieldDescription,
	FieldType,
}

// TransactionColumns is the fixed header of the transactions table.
var TransactionColumns = []string{
	ColumnID,
	string(FieldDate),
	string(FieldAmount),
	string(FieldCategory),
	string(FieldAccount),
	string(FieldDescription),
	string(FieldType),
}

// CategoryColumns is the fixed header of the categories table.
var CategoryColumns = []string{"name", "type"}

// ParseField maps a column name to its Field. Matching ignores case and
// surrounding space; "type" is accepted as a shorthand for transaction_type.
func ParseField(s string) (Field, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "type" {
		return FieldType, nil
	}
	for _, f := range Fields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownField, s)
}
