package pattern

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestService_CreateAppliesDefaultsAndInvalidates(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	store := new(mockRuleStore)
	store.On("ListRules", ctx).Return([]model.Rule{}, nil).Once()
	store.On("CreateRule", ctx, mock.AnythingOfType("*model.Rule")).Return(nil).Once()
	store.On("ListRules", ctx).Return([]model.Rule{{ID: "new", Pattern: "spotify", Category: "Entertainment"}}, nil).Once()

	cache := NewCache(store, DefaultCacheTTL, clock.Now)
	engine := NewEngine(cache)
	svc := NewService(store, cache)

	_, ok, err := engine.Evaluate(ctx, "Spotify", decimal.NewFromInt(-10))
	require.NoError(t, err)
	require.False(t, ok)

	rule := &model.Rule{Pattern: "spotify", Category: "Entertainment"}
	require.NoError(t, svc.Create(ctx, rule))

	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, model.TransactionTypeAny, rule.TransactionType)
	assert.Equal(t, 0, rule.Priority)
	assert.Equal(t, clock.now, rule.CreatedAt)

	match, ok, err := engine.Evaluate(ctx, "Spotify", decimal.NewFromInt(-10))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Entertainment", match.Category)
	store.AssertExpectations(t)
}

func TestService_CreateValidation(t *testing.T) {
	tests := []struct {
		name string
		rule model.Rule
	}{
		{name: "empty pattern", rule: model.Rule{Pattern: " ", Category: "Groceries"}},
		{name: "empty category", rule: model.Rule{Pattern: "tesco"}},
		{name: "unknown transaction type", rule: model.Rule{Pattern: "tesco", Category: "Groceries", TransactionType: "Sideways"}},
		{name: "invalid regex", rule: model.Rule{Pattern: "[a-", Category: "Groceries", IsRegex: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockRuleStore)
			svc := NewService(store, NewCache(store, 0, nil))

			err := svc.Create(context.Background(), &tt.rule)

			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			store.AssertNotCalled(t, "CreateRule", mock.Anything, mock.Anything)
		})
	}
}

func TestService_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	existing := &model.Rule{
		ID:              "r1",
		Pattern:         "tesco",
		Category:        "Groceries",
		Priority:        3,
		TransactionType: model.TransactionTypeAny,
	}
	store := new(mockRuleStore)
	store.On("GetRule", ctx, "r1").Return(existing, nil)
	store.On("UpdateRule", ctx, mock.MatchedBy(func(r *model.Rule) bool {
		return r.Category == "Food" && r.Pattern == "tesco" && r.Priority == 3
	})).Return(nil)

	svc := NewService(store, NewCache(store, 0, nil))
	category := "Food"

	updated, err := svc.Update(ctx, "r1", model.RuleUpdate{Category: &category})

	require.NoError(t, err)
	assert.Equal(t, "Food", updated.Category)
	store.AssertExpectations(t)
}

func TestService_UpdateMissingRule(t *testing.T) {
	ctx := context.Background()
	store := new(mockRuleStore)
	store.On("GetRule", ctx, "missing").Return(nil, common.ErrNotFound)

	svc := NewService(store, NewCache(store, 0, nil))
	_, err := svc.Update(ctx, "missing", model.RuleUpdate{})

	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestService_DeleteInvalidatesEvenOnError(t *testing.T) {
	ctx := context.Background()
	store := new(mockRuleStore)
	store.On("ListRules", ctx).Return([]model.Rule{}, nil).Twice()
	store.On("DeleteRule", ctx, "r1").Return(errors.New("locked"))

	cache := NewCache(store, DefaultCacheTTL, nil)
	svc := NewService(store, cache)

	_, err := cache.Matcher(ctx)
	require.NoError(t, err)

	require.Error(t, svc.Delete(ctx, "r1"))

	_, err = cache.Matcher(ctx)
	require.NoError(t, err)
	store.AssertNumberOfCalls(t, "ListRules", 2)
}

func TestService_Import(t *testing.T) {
	ctx := context.Background()
	store := new(mockRuleStore)
	store.On("CreateRule", ctx, mock.AnythingOfType("*model.Rule")).Return(nil)

	svc := NewService(store, NewCache(store, 0, nil))
	created, errs := svc.Import(ctx, []model.Rule{
		{ID: "ignored", Pattern: "tesco", Category: "Groceries", TimesUsed: 9},
		{Pattern: "", Category: "Broken"},
		{Pattern: "netflix", Category: "Entertainment"},
	})

	assert.Equal(t, 2, created)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], common.ErrValidation)
	store.AssertNumberOfCalls(t, "CreateRule", 2)
}
