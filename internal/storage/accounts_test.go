package storage

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	account := &model.Account{ID: "a1", Provider: "revolut", DisplayName: "Revolut Main"}
	require.NoError(t, store.CreateAccount(ctx, account))

	got, err := store.GetAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCurrency, got.CurrencyCode)
	assert.True(t, got.CurrentBalance.IsZero())
	assert.False(t, got.IsCreditCard)
	assert.Nil(t, got.LastSyncedAt)
	assert.False(t, got.CreatedAt.IsZero())

	dup := &model.Account{ID: "a2", Provider: "revolut", DisplayName: "Revolut Main"}
	assert.ErrorIs(t, store.CreateAccount(ctx, dup), common.ErrConflict)

	sameNameOtherProvider := &model.Account{ID: "a3", Provider: "ptsb", DisplayName: "Revolut Main"}
	assert.NoError(t, store.CreateAccount(ctx, sameNameOtherProvider))
}

func TestCreateAccount_Validation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		account *model.Account
		wantErr error
	}{
		{name: "nil", account: nil, wantErr: ErrNilParameter},
		{name: "missing id", account: &model.Account{Provider: "generic", DisplayName: "x"}, wantErr: ErrInvalidAccount},
		{name: "missing name", account: &model.Account{ID: "a", Provider: "generic"}, wantErr: ErrInvalidAccount},
		{name: "missing provider", account: &model.Account{ID: "a", DisplayName: "x"}, wantErr: ErrInvalidAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.CreateAccount(ctx, tt.account), tt.wantErr)
		})
	}
}

func TestFindAccount(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	createTestAccount(t, store, "acc1")

	got, err := store.FindAccount(ctx, "generic", "Account acc1")
	require.NoError(t, err)
	assert.Equal(t, "acc1", got.ID)

	_, err = store.FindAccount(ctx, "ptsb", "Account acc1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = store.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListAccounts(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	for _, account := range []*model.Account{
		{ID: "3", Provider: "trading212", DisplayName: "ISA"},
		{ID: "1", Provider: "ptsb", DisplayName: "Current"},
		{ID: "2", Provider: "ptsb", DisplayName: "Bills"},
	} {
		require.NoError(t, store.CreateAccount(ctx, account))
	}

	got, err := store.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "1", got[1].ID)
	assert.Equal(t, "3", got[2].ID)
}

func TestUpdateAccount(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	account := createTestAccount(t, store, "acc1")

	synced := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	account.CurrentBalance = decimal.RequireFromString("-42.10")
	account.IsCreditCard = true
	account.LastSyncedAt = &synced
	require.NoError(t, store.UpdateAccount(ctx, account))

	got, err := store.GetAccount(ctx, "acc1")
	require.NoError(t, err)
	assert.Equal(t, "-42.10", got.CurrentBalance.StringFixed(2))
	assert.True(t, got.IsCreditCard)
	require.NotNil(t, got.LastSyncedAt)
	assert.True(t, synced.Equal(*got.LastSyncedAt))

	missing := &model.Account{ID: "nope", Provider: "generic", DisplayName: "x"}
	assert.ErrorIs(t, store.UpdateAccount(ctx, missing), common.ErrNotFound)
}
