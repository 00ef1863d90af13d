package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/bankweave/internal/classification"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/pattern"
	"github.com/Veraticus/bankweave/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRules struct {
	mock.Mock
}

func (m *mockRules) Evaluate(ctx context.Context, description string, amount decimal.Decimal) (pattern.Match, bool, error) {
	args := m.Called(ctx, description, amount)
	return args.Get(0).(pattern.Match), args.Bool(1), args.Error(2)
}

type mockLearner struct {
	mock.Mock
}

func (m *mockLearner) Lookup(ctx context.Context, counterparty, description string) (string, bool, error) {
	args := m.Called(ctx, counterparty, description)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockLearner) RecordCorrection(ctx context.Context, transactionID, category string) (int, error) {
	args := m.Called(ctx, transactionID, category)
	return args.Int(0), args.Error(1)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	args := m.Called(ctx, filter)
	if txns := args.Get(0); txns != nil {
		return txns.([]model.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	return m.Called(ctx, txn).Error(0)
}

func (m *mockStorage) RecordRuleUsage(ctx context.Context, usage ...model.RuleUsage) error {
	return m.Called(ctx, usage).Error(0)
}

func ruleMatch(id, category string, essential bool) pattern.Match {
	return pattern.Match{
		RuleID:          id,
		Category:        category,
		MarkAsEssential: essential,
		Usage:           model.RuleUsage{RuleID: id, UsedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestCategorizer_Categorize(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromFloat(-23.40)

	tests := []struct {
		setup         func(r *mockRules, l *mockLearner, s *mockStorage)
		name          string
		wantCategory  string
		wantSource    Source
		wantEssential bool
	}{
		{
			name: "rule wins over everything",
			setup: func(r *mockRules, _ *mockLearner, s *mockStorage) {
				r.On("Evaluate", ctx, "TESCO STORES", amount).Return(ruleMatch("r1", "Food", true), true, nil)
				s.On("RecordRuleUsage", ctx, []model.RuleUsage{ruleMatch("r1", "Food", true).Usage}).Return(nil)
			},
			wantCategory:  "Food",
			wantSource:    SourceRule,
			wantEssential: true,
		},
		{
			name: "learned category when no rule matches",
			setup: func(r *mockRules, l *mockLearner, _ *mockStorage) {
				r.On("Evaluate", ctx, "TESCO STORES", amount).Return(pattern.Match{}, false, nil)
				l.On("Lookup", ctx, "Tesco", "TESCO STORES").Return("Weekly Shop", true, nil)
			},
			wantCategory: "Weekly Shop",
			wantSource:   SourceLearned,
		},
		{
			name: "keyword fallback",
			setup: func(r *mockRules, l *mockLearner, _ *mockStorage) {
				r.On("Evaluate", ctx, "TESCO STORES", amount).Return(pattern.Match{}, false, nil)
				l.On("Lookup", ctx, "Tesco", "TESCO STORES").Return("", false, nil)
			},
			wantCategory: "Groceries",
			wantSource:   SourceKeyword,
		},
		{
			name: "usage failure does not fail categorization",
			setup: func(r *mockRules, _ *mockLearner, s *mockStorage) {
				r.On("Evaluate", ctx, "TESCO STORES", amount).Return(ruleMatch("r1", "Food", false), true, nil)
				s.On("RecordRuleUsage", ctx, mock.Anything).Return(errors.New("busy"))
			},
			wantCategory: "Food",
			wantSource:   SourceRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, learner, storage := new(mockRules), new(mockLearner), new(mockStorage)
			tt.setup(rules, learner, storage)
			c := New(storage, rules, learner, classification.NewKeywordClassifier())

			decision, err := c.Categorize(ctx, "TESCO STORES", "Tesco", amount)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, decision.Category)
			assert.Equal(t, tt.wantSource, decision.Source)
			assert.Equal(t, tt.wantEssential, decision.Essential)
			rules.AssertExpectations(t)
			learner.AssertExpectations(t)
			storage.AssertExpectations(t)
		})
	}
}

func TestCategorizer_DecideHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(-5)
	rules, learner, storage := new(mockRules), new(mockLearner), new(mockStorage)
	rules.On("Evaluate", ctx, "Coffee", amount).Return(ruleMatch("r1", "Dining", false), true, nil)

	c := New(storage, rules, learner, classification.NewKeywordClassifier())
	decision, err := c.Decide(ctx, "Coffee", "", amount)

	require.NoError(t, err)
	require.NotNil(t, decision.Usage)
	assert.Equal(t, "r1", decision.Usage.RuleID)
	storage.AssertNotCalled(t, "RecordRuleUsage", mock.Anything, mock.Anything)
	learner.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)
}

func TestCategorizer_DecidePropagatesErrors(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(-5)

	rules, learner := new(mockRules), new(mockLearner)
	rules.On("Evaluate", ctx, "x", amount).Return(pattern.Match{}, false, errors.New("db gone"))
	c := New(new(mockStorage), rules, learner, classification.NewKeywordClassifier())

	_, err := c.Decide(ctx, "x", "", amount)
	assert.ErrorContains(t, err, "db gone")
}

func TestCategorizer_RecategorizeBatch(t *testing.T) {
	ctx := context.Background()
	txns := []model.Transaction{
		{ID: "1", Description: "TESCO", Amount: decimal.NewFromInt(-10), Category: "Other"},
		{ID: "2", Description: "Mystery", Amount: decimal.NewFromInt(-10), Category: "Other"},
		{ID: "3", Description: "Netflix", Amount: decimal.NewFromInt(-12), Category: ""},
	}
	filter := service.TransactionFilter{IDs: []string{"1", "2", "3"}, NeedsCategorizing: true}

	rules, learner, storage := new(mockRules), new(mockLearner), new(mockStorage)
	rules.On("Evaluate", ctx, mock.Anything, mock.Anything).Return(pattern.Match{}, false, nil)
	learner.On("Lookup", ctx, mock.Anything, mock.Anything).Return("", false, nil)
	storage.On("ListTransactions", ctx, filter).Return(txns, nil)
	storage.On("UpdateTransaction", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.ID == "1" && txn.Category == "Groceries"
	})).Return(nil).Once()
	storage.On("UpdateTransaction", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.ID == "3" && txn.Category == "Entertainment"
	})).Return(nil).Once()

	var calls [][2]int
	c := New(storage, rules, learner, classification.NewKeywordClassifier())
	updated, err := c.RecategorizeBatch(ctx, []string{"1", "2", "3"}, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})

	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, calls)
	storage.AssertExpectations(t)
}

func TestCategorizer_RecategorizeStopsOnStorageError(t *testing.T) {
	ctx := context.Background()
	rules, learner, storage := new(mockRules), new(mockLearner), new(mockStorage)
	storage.On("ListTransactions", ctx, mock.Anything).Return(nil, errors.New("locked"))

	c := New(storage, rules, learner, classification.NewKeywordClassifier())
	_, err := c.RecategorizeBatch(ctx, nil, nil)

	assert.ErrorContains(t, err, "locked")
}

func TestCategorizer_ApplyRules(t *testing.T) {
	ctx := context.Background()
	txns := []model.Transaction{
		{ID: "1", Description: "Landlord", Amount: decimal.NewFromInt(-1000), Category: "Bills"},
		{ID: "2", Description: "Landlord", Amount: decimal.NewFromInt(-1000), Category: "Rent", IsEssentialExpense: true},
		{ID: "3", Description: "Other thing", Amount: decimal.NewFromInt(-1)},
	}
	match := ruleMatch("rent", "Rent", true)

	rules, learner, storage := new(mockRules), new(mockLearner), new(mockStorage)
	rules.On("Evaluate", ctx, "Landlord", mock.Anything).Return(match, true, nil)
	rules.On("Evaluate", ctx, "Other thing", mock.Anything).Return(pattern.Match{}, false, nil)
	storage.On("ListTransactions", ctx, service.TransactionFilter{}).Return(txns, nil)
	storage.On("UpdateTransaction", ctx, mock.MatchedBy(func(txn *model.Transaction) bool {
		return txn.ID == "1" && txn.Category == "Rent" && txn.IsEssentialExpense
	})).Return(nil).Once()
	storage.On("RecordRuleUsage", ctx, []model.RuleUsage{match.Usage, match.Usage}).Return(nil)

	c := New(storage, rules, learner, classification.NewKeywordClassifier())
	updated, err := c.ApplyRules(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	storage.AssertExpectations(t)
}

func TestCategorizer_LearnFromCorrection(t *testing.T) {
	ctx := context.Background()
	learner := new(mockLearner)
	learner.On("RecordCorrection", ctx, "txn-1", "Groceries").Return(3, nil)

	c := New(new(mockStorage), new(mockRules), learner, classification.NewKeywordClassifier())
	count, err := c.LearnFromCorrection(ctx, "txn-1", "Groceries")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
