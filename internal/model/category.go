// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
)

// ErrInvalidType is returned when a value is neither income nor expense.
var ErrInvalidType = errors.New("type must be either 'income' or 'expense'")

// TransactionType indicates whether money came in or went out.
// Categories carry the same type so they can be matched to transactions.
type TransactionType string

const (
	// TypeIncome represents income transactions and categories.
	TypeIncome TransactionType = "income"
	// TypeExpense represents expense transactions and categories.
	TypeExpense TransactionType = "expense"
)

// TransactionTypes lists the valid types in display order.
var TransactionTypes = []TransactionType{TypeIncome, TypeExpense}

// ParseTransactionType validates s and returns the matching type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TypeIncome, TypeExpense:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
}

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

func (t TransactionType) String() string {
	return string(t)
}

// Category is a named, typed tag that groups transactions for reporting.
type Category struct {
	Name string
	Type TransactionType
}
