// Package storage provides the data persistence layer for jipange.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/jipange/internal/common"
	"github.com/Veraticus/jipange/internal/model"
	"github.com/shopspring/decimal"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("cannot be empty")
	ErrInvalidDate       = errors.New("invalid date format, expected YYYY-MM-DD")
	ErrAmountNotNumber   = errors.New("amount must be a valid number")
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountOutOfRange  = errors.New("amount is out of range")
)

// Amount bounds. Exponent notation is refused so the stored text stays as
// short as what was typed.
const (
	maxAmountLength        = 32
	maxAmountIntegerDigits = 15
	maxAmountScale         = 8
)

// invalid marks err as a validation failure while keeping its own identity.
func invalid(err error) error {
	return fmt.Errorf("%w: %w", common.ErrValidation, err)
}

// validateContext ensures the context is usable.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return ctx.Err()
}

// validateString ensures a string parameter is not blank and returns it trimmed.
func validateString(s string, paramName string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", invalid(fmt.Errorf("%s %w", paramName, ErrEmptyString))
	}
	return trimmed, nil
}

func parseDate(s string) (time.Time, error) {
	date, err := time.Parse(model.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, invalid(fmt.Errorf("%w: %q", ErrInvalidDate, s))
	}
	return date, nil
}

// parseAmount parses a positive plain decimal and returns it in the form
// it reads back from the table, so "15.50" and "15.5" are the same value.
func parseAmount(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if strings.ContainsAny(trimmed, "eE") {
		return decimal.Decimal{}, invalid(fmt.Errorf("%w: %q", ErrAmountNotNumber, s))
	}
	if len(trimmed) > maxAmountLength {
		return decimal.Decimal{}, invalid(fmt.Errorf("%w: %d characters", ErrAmountOutOfRange, len(trimmed)))
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Decimal{}, invalid(fmt.Errorf("%w: %q", ErrAmountNotNumber, s))
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, invalid(ErrAmountNotPositive)
	}

	amount, err = decimal.NewFromString(amount.String())
	if err != nil {
		return decimal.Decimal{}, invalid(fmt.Errorf("%w: %q", ErrAmountNotNumber, s))
	}
	if -amount.Exponent() > maxAmountScale || len(amount.Truncate(0).String()) > maxAmountIntegerDigits {
		return decimal.Decimal{}, invalid(fmt.Errorf("%w: %s", ErrAmountOutOfRange, amount.String()))
	}
	return amount, nil
}

func parseType(s string) (model.TransactionType, error) {
	t, err := model.ParseTransactionType(strings.TrimSpace(s))
	if err != nil {
		return "", invalid(err)
	}
	return t, nil
}
