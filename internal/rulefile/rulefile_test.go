package rulefile

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	input := `version: 1
rules:
  - pattern: TESCO
    category: Groceries
    priority: 5
    mark_as_essential: true
  - pattern: "^SALARY .*"
    category: Salary
    priority: 10
    is_regex: true
    case_sensitive: true
    transaction_type: positive
    times_used: 12
`
	rules, err := Load(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, model.Rule{
		Pattern:         "TESCO",
		Category:        "Groceries",
		Priority:        5,
		MarkAsEssential: true,
		TransactionType: model.TransactionTypeAny,
	}, rules[0])

	assert.True(t, rules[1].IsRegex)
	assert.True(t, rules[1].CaseSensitive)
	assert.Equal(t, model.TransactionTypePositive, rules[1].TransactionType)
	assert.Zero(t, rules[1].TimesUsed)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not yaml", input: "rules: [unterminated"},
		{name: "unknown field", input: "rules:\n  - pattern: A\n    categroy: B\n"},
		{name: "future version", input: "version: 7\nrules: []\n"},
		{name: "bad transaction type", input: "rules:\n  - pattern: A\n    category: B\n    transaction_type: sideways\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	rules, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestWriteThenLoad(t *testing.T) {
	lastUsed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	rules := []model.Rule{
		{
			ID:              "r-1",
			Pattern:         "NETFLIX",
			Category:        "Subscriptions",
			Priority:        3,
			TransactionType: model.TransactionTypeNegative,
			TimesUsed:       4,
			LastUsedAt:      &lastUsed,
		},
		{
			ID:              "r-2",
			Pattern:         "(?i)^rent",
			Category:        "Housing",
			IsRegex:         true,
			MarkAsEssential: true,
			TransactionType: model.TransactionTypeAny,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rules))

	out := buf.String()
	assert.Contains(t, out, "version: 1")
	assert.Contains(t, out, "times_used: 4")
	assert.NotContains(t, out, "r-1")
	assert.NotContains(t, out, "transaction_type: Any")

	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "NETFLIX", loaded[0].Pattern)
	assert.Equal(t, model.TransactionTypeNegative, loaded[0].TransactionType)
	assert.Empty(t, loaded[0].ID)
	assert.Zero(t, loaded[0].TimesUsed)
	assert.Nil(t, loaded[0].LastUsedAt)
	assert.True(t, loaded[1].MarkAsEssential)
	assert.Equal(t, model.TransactionTypeAny, loaded[1].TransactionType)
}

func TestWriteFileLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	rules := []model.Rule{{Pattern: "LIDL", Category: "Groceries", TransactionType: model.TransactionTypeAny}}

	require.NoError(t, WriteFile(path, rules))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rules, loaded)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
