// Package ofx reads OFX/QFX bank and credit card statements.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags at end of line that lost their closing bracket.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements OFX/QFX file parsing.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{logger: common.Component("ofx")}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	// Trim any leading whitespace or blank lines before the header
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) read(r io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, common.NewValidationError(0, "ofx", fmt.Errorf("failed to parse OFX file: %w", err))
	}
	return resp, nil
}

// statement is the part of a bank or credit card statement the parser uses.
type statement struct {
	balance      *decimal.Decimal
	accountID    string
	currency     string
	transactions []ofxgo.Transaction
}

func statements(resp *ofxgo.Response) []statement {
	var out []statement
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			s := statement{
				accountID: string(stmt.BankAcctFrom.AcctID),
				currency:  currencyCode(stmt.CurDef),
				balance:   amount(stmt.BalAmt),
			}
			if stmt.BankTranList != nil {
				s.transactions = stmt.BankTranList.Transactions
			}
			out = append(out, s)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			s := statement{
				accountID: string(stmt.CCAcctFrom.AcctID),
				currency:  currencyCode(stmt.CurDef),
				balance:   amount(stmt.BalAmt),
			}
			if stmt.BankTranList != nil {
				s.transactions = stmt.BankTranList.Transactions
			}
			out = append(out, s)
		}
	}
	return out
}

// Parse reads every statement in r. Source ids are "ofx-<account>-<fitid>".
// The ledger balance of the first statement becomes the detected balance.
func (p *Parser) Parse(ctx context.Context, r io.Reader, accountHint string) (*model.ParseResult, error) {
	resp, err := p.read(r)
	if err != nil {
		return nil, err
	}

	result := &model.ParseResult{}
	stmts := statements(resp)
	for _, stmt := range stmts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if result.DetectedBalance == nil && stmt.balance != nil {
			result.DetectedBalance = stmt.balance
			result.HasBalanceColumn = true
		}
		for i, ofxTx := range stmt.transactions {
			txn, err := p.convertTransaction(ofxTx, stmt)
			if err != nil {
				result.RowErrors = append(result.RowErrors, model.RowError{
					Line: i + 1,
					Err:  common.NewValidationError(i+1, "amount", err),
				})
				continue
			}
			result.Records = append(result.Records, txn)
		}
	}

	p.logger.Info("Parsed OFX file",
		"account", accountHint,
		"statements", len(stmts),
		"records", len(result.Records),
		"failures", len(result.RowErrors))
	return result, nil
}

// convertTransaction converts an OFX transaction to a normalized record.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, stmt statement) (model.Transaction, error) {
	// OFX amounts are already signed: negative for debits.
	value, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(2))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount for %s: %w", ofxTx.FiTID, err)
	}

	description := strings.TrimSpace(string(ofxTx.Name))
	if ofxTx.Memo != "" && (description == "" || isGenericDescription(description)) {
		description = strings.TrimSpace(string(ofxTx.Memo))
	}

	txn := model.Transaction{
		TransactionDate:  ofxTx.DtPosted.UTC(),
		Amount:           model.RoundAmount(value),
		CurrencyCode:     stmt.currency,
		Description:      description,
		CounterpartyName: p.extractMerchantName(ofxTx),
	}
	txn.BookingDate = txn.TransactionDate
	if ofxTx.DtUser != nil {
		txn.TransactionDate = ofxTx.DtUser.UTC()
	}

	if ofxTx.FiTID != "" {
		txn.SourceTransactionID = fmt.Sprintf("ofx-%s-%s", stmt.accountID, ofxTx.FiTID)
		txn.ExternalID = string(ofxTx.FiTID)
	} else {
		txn.SourceTransactionID = fmt.Sprintf("ofx-%s-%s", stmt.accountID, txn.ContentHash())
	}

	// OFX has no categories; a few transaction types imply one.
	switch ofxTx.TrnType {
	case ofxgo.TrnTypeInt:
		txn.Category = "Interests"
	case ofxgo.TrnTypeATM:
		txn.Category = "Cash Withdrawal"
	}

	return txn, nil
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// Prefer PAYEE if available (cleaner merchant name)
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Drop a leading "MM/DD " posting date.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// Accounts returns the distinct account ids of the statements in r, in file order.
func (p *Parser) Accounts(r io.Reader) ([]string, error) {
	resp, err := p.read(r)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	for _, stmt := range statements(resp) {
		if stmt.accountID == "" || seen[stmt.accountID] {
			continue
		}
		seen[stmt.accountID] = true
		accounts = append(accounts, stmt.accountID)
	}
	return accounts, nil
}

func currencyCode(cur ofxgo.CurrSymbol) string {
	if cur == (ofxgo.CurrSymbol{}) {
		return ""
	}
	return cur.String()
}

func amount(a ofxgo.Amount) *decimal.Decimal {
	value, err := decimal.NewFromString(a.FloatString(2))
	if err != nil {
		return nil
	}
	return &value
}
