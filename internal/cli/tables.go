package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/jipange/internal/model"
	"github.com/Veraticus/jipange/internal/service"
)

const maxDescriptionWidth = 40

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeHeader(w io.Writer, columns ...string) {
	styled := make([]string, len(columns))
	rules := make([]string, len(columns))
	for i, c := range columns {
		styled[i] = headerStyle.Render(c)
		rules[i] = strings.Repeat("-", len(c))
	}
	fmt.Fprintln(w, strings.Join(styled, "\t"))
	fmt.Fprintln(w, strings.Join(rules, "\t"))
}

// FormatMoney renders an amount with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatSigned renders an amount with a sign for its type, colored for
// income or expense.
func FormatSigned(amount decimal.Decimal, txType model.TransactionType) string {
	if txType == model.TypeExpense {
		return ExpenseStyle.Render("-" + FormatMoney(amount))
	}
	return IncomeStyle.Render("+" + FormatMoney(amount))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

// WriteTransactions renders transactions as a table with short ids.
func WriteTransactions(w io.Writer, transactions []model.Transaction) error {
	if len(transactions) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No transactions found"))
		return err
	}

	tw := newTabWriter(w)
	writeHeader(tw, "ID", "Date", "Type", "Amount", "Category", "Account", "Description")
	for _, txn := range transactions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			txn.ShortID(),
			txn.DateString(),
			txn.Type,
			FormatSigned(txn.Amount, txn.Type),
			txn.Category,
			txn.Account,
			truncate(txn.Description, maxDescriptionWidth))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, SubtleStyle.Render(fmt.Sprintf("\n%d transaction(s)", len(transactions))))
	return err
}

// WriteCategories renders categories grouped by type.
func WriteCategories(w io.Writer, categories []model.Category) error {
	if len(categories) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No categories found"))
		return err
	}

	tw := newTabWriter(w)
	writeHeader(tw, "Name", "Type")
	for _, txType := range model.TransactionTypes {
		for _, cat := range categories {
			if cat.Type == txType {
				fmt.Fprintf(tw, "%s\t%s\n", cat.Name, cat.Type)
			}
		}
	}
	return tw.Flush()
}

// WriteSummary renders the totals of a summary under label.
func WriteSummary(w io.Writer, label string, s *service.Summary) error {
	fmt.Fprintln(w, FormatTitle("Summary: "+label))

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Total income\t%s\n", IncomeStyle.Render(FormatMoney(s.TotalIncome)))
	fmt.Fprintf(tw, "Total expenses\t%s\n", ExpenseStyle.Render(FormatMoney(s.TotalExpenses)))
	fmt.Fprintf(tw, "Net\t%s\n", BoldStyle.Render(FormatMoney(s.Net)))
	if rate, ok := s.SavingsRate(); ok {
		fmt.Fprintf(tw, "Savings rate\t%s%%\n", rate.StringFixed(2))
	}
	fmt.Fprintf(tw, "Transactions\t%d\n", s.TransactionCount)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Categories) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw = newTabWriter(w)
	writeHeader(tw, "Category", "Amount")
	for _, txType := range model.TransactionTypes {
		for _, share := range s.Breakdown(txType) {
			fmt.Fprintf(tw, "%s\t%s\n", share.Name, FormatSigned(share.Amount, txType))
		}
	}
	return tw.Flush()
}

// WriteBreakdown renders one type's categories, largest first, with their
// share of the type's total.
func WriteBreakdown(w io.Writer, label string, s *service.Summary, txType model.TransactionType) error {
	title := "Expense breakdown: "
	total := s.TotalExpenses
	if txType == model.TypeIncome {
		title = "Income breakdown: "
		total = s.TotalIncome
	}
	fmt.Fprintln(w, FormatTitle(title+label))

	shares := s.Breakdown(txType)
	if len(shares) == 0 {
		_, err := fmt.Fprintln(w, FormatInfo("No "+string(txType)+" transactions in this period"))
		return err
	}

	tw := newTabWriter(w)
	writeHeader(tw, "Category", "Amount", "Share")
	for _, share := range shares {
		fmt.Fprintf(tw, "%s\t%s\t%s%%\n", share.Name, FormatMoney(share.Amount), share.Percent.StringFixed(2))
	}
	fmt.Fprintf(tw, "%s\t%s\t\n", BoldStyle.Render("Total"), BoldStyle.Render(FormatMoney(total)))
	return tw.Flush()
}
