package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Sample OFX data for testing.
const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>EUR
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125.00
<FITID>2024012001
<NAME>Whole Foods Market
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>INT
<DTPOSTED>20240131120000[0:GMT]
<TRNAMT>1.27
<FITID>2024013101
<NAME>PAYMENT
<MEMO>Interest for January
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParse(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "valid bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 4,
		},
		{
			name:          "valid credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := NewParser()

			result, err := parser.Parse(context.Background(), strings.NewReader(tt.ofxData), "checking")

			if tt.expectedError {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Records, tt.expectedCount)
			assert.Empty(t, result.RowErrors)
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	parser := NewParser()

	result, err := parser.Parse(context.Background(), strings.NewReader(sampleBankOFX), "")
	require.NoError(t, err)
	require.Len(t, result.Records, 4)

	require.NotNil(t, result.DetectedBalance)
	assert.Equal(t, "1000.00", result.DetectedBalance.StringFixed(2))
	assert.True(t, result.HasBalanceColumn)

	tx1 := result.Records[0]
	assert.Equal(t, "ofx-1234567890-2024011501", tx1.SourceTransactionID)
	assert.Equal(t, "2024011501", tx1.ExternalID)
	assert.Equal(t, "STARBUCKS STORE #1234", tx1.Description)
	assert.Equal(t, "STARBUCKS STORE #1234", tx1.CounterpartyName) // No PAYEE, so uses NAME
	assert.Equal(t, "-25.50", tx1.Amount.StringFixed(2))
	assert.Equal(t, "EUR", tx1.CurrencyCode)
	assert.Equal(t, time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC), tx1.TransactionDate)
	assert.Equal(t, tx1.TransactionDate, tx1.BookingDate)

	tx3 := result.Records[2]
	assert.Equal(t, "CHECK #1234", tx3.Description)
	assert.Equal(t, "-500.00", tx3.Amount.StringFixed(2))

	interest := result.Records[3]
	assert.Equal(t, "1.27", interest.Amount.StringFixed(2))
	assert.Equal(t, "Interest for January", interest.Description)
	assert.Equal(t, "Interests", interest.Category)
}

func TestParseCreditCardTransactions(t *testing.T) {
	parser := NewParser()

	result, err := parser.Parse(context.Background(), strings.NewReader(sampleCreditCardOFX), "")
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	require.NotNil(t, result.DetectedBalance)
	assert.Equal(t, "-500.00", result.DetectedBalance.StringFixed(2))

	tx1 := result.Records[0]
	assert.Equal(t, "ofx-4111111111111111-CC2024011001", tx1.SourceTransactionID)
	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", tx1.Description)
	assert.Equal(t, "-45.99", tx1.Amount.StringFixed(2))
	assert.Equal(t, "USD", tx1.CurrencyCode)
}

func TestParse_StableAcrossReimports(t *testing.T) {
	parser := NewParser()

	first, err := parser.Parse(context.Background(), strings.NewReader(sampleBankOFX), "")
	require.NoError(t, err)
	second, err := parser.Parse(context.Background(), strings.NewReader(sampleBankOFX), "")
	require.NoError(t, err)

	for i := range first.Records {
		assert.Equal(t, first.Records[i].SourceTransactionID, second.Records[i].SourceTransactionID)
	}
}

func TestExtractMerchantName(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		memo     string
		payee    string
		expected string
	}{
		{
			name:     "remove POS prefix",
			input:    "POS PURCHASE STARBUCKS",
			expected: "STARBUCKS",
		},
		{
			name:     "remove DEBIT CARD prefix",
			input:    "DEBIT CARD PURCHASE WHOLE FOODS",
			expected: "WHOLE FOODS",
		},
		{
			name:     "keep clean name",
			input:    "NETFLIX.COM",
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			input:    "  AMAZON.COM  ",
			expected: "AMAZON.COM",
		},
		{
			name:     "drop posting date",
			input:    "03/14 SHELL OIL",
			expected: "SHELL OIL",
		},
		{
			name:     "generic name falls back to memo",
			input:    "DEBIT",
			memo:     "TESCO STORES 3321",
			expected: "TESCO STORES 3321",
		},
		{
			name:     "payee wins",
			input:    "POS PURCHASE 0042",
			payee:    "Corner Shop",
			expected: "Corner Shop",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ofxgo.Transaction{
				Name: ofxgo.String(tt.input),
				Memo: ofxgo.String(tt.memo),
			}
			if tt.payee != "" {
				tx.Payee = &ofxgo.Payee{Name: ofxgo.String(tt.payee)}
			}
			assert.Equal(t, tt.expected, parser.extractMerchantName(tx))
		})
	}
}

func TestAccounts(t *testing.T) {
	parser := NewParser()

	accounts, err := parser.Accounts(strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567890"}, accounts)

	accounts, err = parser.Accounts(strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4111111111111111"}, accounts)
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser()

	got := parser.preprocessOFX("\n\n<SEVERITY>Info</SEVERITY>\n<CODE\n")
	assert.Equal(t, "<SEVERITY>INFO</SEVERITY>\n<CODE>\n", got)
}
