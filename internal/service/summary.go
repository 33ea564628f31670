package service

import (
	"sort"
	"time"

	"github.com/Veraticus/jipange/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DateRange is an inclusive range of calendar dates. A nil bound leaves
// that side open.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether date falls within the range.
func (r DateRange) Contains(date time.Time) bool {
	if r.Start != nil && date.Before(*r.Start) {
		return false
	}
	if r.End != nil && date.After(*r.End) {
		return false
	}
	return true
}

// IsZero reports whether the range is unbounded on both sides.
func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Summary contains income, expense, and net totals over a date range.
type Summary struct {
	DateRange DateRange
	// Categories sums amounts per category across both types.
	Categories         map[string]decimal.Decimal
	IncomeByCategory   map[string]decimal.Decimal
	ExpensesByCategory map[string]decimal.Decimal
	TotalIncome        decimal.Decimal
	TotalExpenses      decimal.Decimal
	Net                decimal.Decimal
	TransactionCount   int
}

// CategoryShare is one row of a category breakdown.
type CategoryShare struct {
	Name    string
	Amount  decimal.Decimal
	Percent decimal.Decimal
}

// NewSummary returns an empty summary for the range.
func NewSummary(dateRange DateRange) *Summary {
	return &Summary{
		DateRange:          dateRange,
		Categories:         make(map[string]decimal.Decimal),
		IncomeByCategory:   make(map[string]decimal.Decimal),
		ExpensesByCategory: make(map[string]decimal.Decimal),
	}
}

// Add accumulates a transaction. Callers are expected to have checked the
// date against DateRange.
func (s *Summary) Add(txn model.Transaction) {
	switch txn.Type {
	case model.TypeIncome:
		s.TotalIncome = s.TotalIncome.Add(txn.Amount)
		s.IncomeByCategory[txn.Category] = s.IncomeByCategory[txn.Category].Add(txn.Amount)
	case model.TypeExpense:
		s.TotalExpenses = s.TotalExpenses.Add(txn.Amount)
		s.ExpensesByCategory[txn.Category] = s.ExpensesByCategory[txn.Category].Add(txn.Amount)
	}
	s.Categories[txn.Category] = s.Categories[txn.Category].Add(txn.Amount)
	s.Net = s.TotalIncome.Sub(s.TotalExpenses)
	s.TransactionCount++
}

// SavingsRate returns net as a percentage of income. ok is false when
// there is no income to compare against.
func (s *Summary) SavingsRate() (rate decimal.Decimal, ok bool) {
	if !s.TotalIncome.IsPositive() {
		return decimal.Zero, false
	}
	return s.Net.Div(s.TotalIncome).Mul(hundred).Round(2), true
}

// Breakdown lists the categories of one type, largest first, with each
// category's share of that type's total.
func (s *Summary) Breakdown(txnType model.TransactionType) []CategoryShare {
	byCategory, total := s.IncomeByCategory, s.TotalIncome
	if txnType == model.TypeExpense {
		byCategory, total = s.ExpensesByCategory, s.TotalExpenses
	}

	shares := make([]CategoryShare, 0, len(byCategory))
	for name, amount := range byCategory {
		percent := decimal.Zero
		if total.IsPositive() {
			percent = amount.Div(total).Mul(hundred).Round(2)
		}
		shares = append(shares, CategoryShare{Name: name, Amount: amount, Percent: percent})
	}

	sort.Slice(shares, func(i, j int) bool {
		if cmp := shares[i].Amount.Cmp(shares[j].Amount); cmp != 0 {
			return cmp > 0
		}
		return shares[i].Name < shares[j].Name
	})

	return shares
}
