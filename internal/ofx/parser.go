// Package ofx reads OFX/QFX bank and credit card statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/jipange/internal/model"
)

// Categories assigned to imported transactions. Statements carry no
// categories, so only interest and dividends get a specific one.
const (
	DefaultIncomeCategory  = "Other Income"
	DefaultExpenseCategory = "Miscellaneous"
	InvestmentCategory     = "Investment"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser converts OFX statements into transactions.
type Parser struct {
	// Account replaces the statement's account id when set.
	Account string
}

// NewParser creates a parser that labels transactions with account, or
// with the statement's account id when account is empty.
func NewParser(account string) *Parser {
	return &Parser{Account: strings.TrimSpace(account)}
}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes drop the closing bracket of a bare opening tag
	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func parseResponse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns its transactions in
// statement order. The id of each transaction is the bank's FITID.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	resp, err := parseResponse(reader)
	if err != nil {
		return nil, err
	}

	var (
		transactions       []model.Transaction
		bankStmts, ccStmts int
		skipped            int
	)

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			txns, n := p.convertList(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))
			transactions = append(transactions, txns...)
			skipped += n
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			txns, n := p.convertList(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))
			transactions = append(transactions, txns...)
			skipped += n
		}
	}

	slog.Info("parsed OFX file",
		"total_transactions", len(transactions),
		"skipped", skipped,
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// convertList converts a statement's transactions, returning how many were
// skipped for having no amount.
func (p *Parser) convertList(list *ofxgo.TransactionList, accountID string) ([]model.Transaction, int) {
	if list == nil {
		return nil, 0
	}

	account := accountID
	if p.Account != "" {
		account = p.Account
	}

	transactions := make([]model.Transaction, 0, len(list.Transactions))
	skipped := 0
	for _, ofxTx := range list.Transactions {
		tx, err := convertTransaction(ofxTx, account)
		if err != nil {
			slog.Warn("skipping OFX transaction", "fitid", ofxTx.FiTID, "error", err)
			skipped++
			continue
		}
		transactions = append(transactions, tx)
	}
	return transactions, skipped
}

// convertTransaction maps an OFX entry onto a transaction. OFX amounts are
// signed: debits are negative and become expenses.
func convertTransaction(ofxTx ofxgo.Transaction, account string) (model.Transaction, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.Rat.FloatString(4))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.IsZero() {
		return model.Transaction{}, fmt.Errorf("zero amount")
	}

	txType := model.TypeIncome
	if amount.IsNegative() {
		txType = model.TypeExpense
	}

	y, m, d := ofxTx.DtPosted.Time.Date()
	investment := ofxTx.TrnType == ofxgo.TrnTypeInt || ofxTx.TrnType == ofxgo.TrnTypeDiv

	return model.Transaction{
		ID:          string(ofxTx.FiTID),
		Date:        time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		Amount:      amount.Abs(),
		Type:        txType,
		Category:    categoryFor(investment, txType),
		Account:     account,
		Description: extractMerchantName(ofxTx),
	}, nil
}

// categoryFor picks the category for an imported entry. Interest and
// dividends count as investment income.
func categoryFor(investment bool, txType model.TransactionType) string {
	if txType != model.TypeIncome {
		return DefaultExpenseCategory
	}
	if investment {
		return InvestmentCategory
	}
	return DefaultIncomeCategory
}

var merchantPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	for _, prefix := range merchantPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// leading MM/DD
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// GetAccounts returns the distinct account ids found in the file, in the
// order they appear.
func GetAccounts(reader io.Reader) ([]string, error) {
	resp, err := parseResponse(reader)
	if err != nil {
		return nil, err
	}

	var accounts []string
	seen := make(map[string]bool)
	add := func(id ofxgo.String) {
		if id != "" && !seen[string(id)] {
			seen[string(id)] = true
			accounts = append(accounts, string(id))
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(stmt.BankAcctFrom.AcctID)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(stmt.CCAcctFrom.AcctID)
		}
	}

	return accounts, nil
}
