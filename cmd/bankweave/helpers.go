package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/bankweave/internal/classification"
	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/config"
	"github.com/Veraticus/bankweave/internal/engine"
	"github.com/Veraticus/bankweave/internal/learning"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/pattern"
	"github.com/Veraticus/bankweave/internal/reconcile"
	"github.com/Veraticus/bankweave/internal/storage"
	"github.com/google/uuid"
)

// app bundles the services one command invocation works with.
type app struct {
	store       *storage.SQLiteStorage
	dbPath      string
	rules       *pattern.Service
	categorizer *engine.Categorizer
	reconciler  *reconcile.Engine
}

// currentConfig returns the loaded configuration, or defaults when the root
// pre-run hook has not populated it.
func currentConfig() *config.Config {
	if appConfig != nil {
		return appConfig
	}
	return &config.Config{
		DatabasePath: config.ExpandPath(config.DefaultDatabasePath),
		RuleCacheTTL: config.DefaultRuleCacheTTL,
	}
}

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context, dbPath string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// openApp wires storage, the rule cache, the categorization cascade and the
// reconciliation engine together.
func openApp(ctx context.Context) (*app, error) {
	cfg := currentConfig()
	store, err := initStorage(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	return newApp(store, cfg), nil
}

func newApp(store *storage.SQLiteStorage, cfg *config.Config) *app {
	cache := pattern.NewCache(store, cfg.RuleCacheTTL, nil)
	categorizer := engine.New(
		store,
		pattern.NewEngine(cache),
		learning.NewStore(store),
		classification.NewKeywordClassifier(),
	)
	return &app{
		store:       store,
		dbPath:      cfg.DatabasePath,
		rules:       pattern.NewService(store, cache),
		categorizer: categorizer,
		reconciler:  reconcile.New(store, categorizer),
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		common.LogError(err, "Failed to close storage", common.Fields{"database": a.dbPath})
	}
}

// reload fetches the stored state of account so reports show the balance
// that was written. The passed account is returned if the read fails.
func (a *app) reload(ctx context.Context, account *model.Account) *model.Account {
	updated, err := a.store.GetAccount(ctx, account.ID)
	if err != nil {
		slog.Warn("Failed to reload account", "id", account.ID, "error", err)
		return account
	}
	return updated
}

// accountRef identifies an account on the command line, either by id or by display name.
type accountRef struct {
	provider     string
	name         string
	isCreditCard bool
	create       bool
}

// resolveAccount looks the account up by id, then by provider and display
// name. With create set a missing account is created on the spot. Without a
// provider the display name must be unique across providers.
func resolveAccount(ctx context.Context, store *storage.SQLiteStorage, ref accountRef) (*model.Account, error) {
	name := strings.TrimSpace(ref.name)
	if name == "" {
		return nil, fmt.Errorf("%w: --account is required", common.ErrInvalidAccount)
	}

	if account, err := store.GetAccount(ctx, name); err == nil {
		return account, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	if ref.provider == "" {
		return findAccountByName(ctx, store, name)
	}

	account, err := store.FindAccount(ctx, ref.provider, name)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if !ref.create {
		return nil, fmt.Errorf("%w: no %s account named %q", common.ErrInvalidAccount, ref.provider, name)
	}

	account = &model.Account{
		ID:           uuid.NewString(),
		Provider:     ref.provider,
		DisplayName:  name,
		IsCreditCard: ref.isCreditCard,
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	slog.Info("Created account", "id", account.ID, "provider", account.Provider, "name", account.DisplayName)
	return account, nil
}

func findAccountByName(ctx context.Context, store *storage.SQLiteStorage, name string) (*model.Account, error) {
	accounts, err := store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var found []model.Account
	for _, account := range accounts {
		if strings.EqualFold(account.DisplayName, name) {
			found = append(found, account)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: no account named %q", common.ErrInvalidAccount, name)
	case 1:
		return &found[0], nil
	default:
		return nil, fmt.Errorf("%w: %d accounts are named %q, pass --provider", common.ErrInvalidAccount, len(found), name)
	}
}
