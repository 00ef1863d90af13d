package pattern

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/service"
	"github.com/google/uuid"
)

// Service is the rule CRUD surface. Every mutation invalidates the cache
// before returning.
type Service struct {
	store  service.RuleStore
	cache  *Cache
	logger *slog.Logger
}

// NewService creates a rule service over store sharing cache with the engine.
func NewService(store service.RuleStore, cache *Cache) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: common.Component("rules"),
	}
}

// List returns all rules in evaluation order.
func (s *Service) List(ctx context.Context) ([]model.Rule, error) {
	return s.store.ListRules(ctx)
}

// Get returns a single rule.
func (s *Service) Get(ctx context.Context, id string) (*model.Rule, error) {
	return s.store.GetRule(ctx, id)
}

// Create validates and stores a new rule, filling in id, defaults and creation time.
func (s *Service) Create(ctx context.Context, rule *model.Rule) error {
	if err := ValidateRule(rule); err != nil {
		return err
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = s.cache.Now().UTC()
	}

	defer s.cache.Invalidate()
	if err := s.store.CreateRule(ctx, rule); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	s.logger.Info("Created rule",
		"rule_id", rule.ID,
		"pattern", rule.Pattern,
		"category", rule.Category,
		"priority", rule.Priority)
	return nil
}

// Update applies a partial update to an existing rule.
func (s *Service) Update(ctx context.Context, id string, update model.RuleUpdate) (*model.Rule, error) {
	rule, err := s.store.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	update.Apply(rule)
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}

	defer s.cache.Invalidate()
	if err := s.store.UpdateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}

	s.logger.Info("Updated rule", "rule_id", rule.ID)
	return rule, nil
}

// Delete removes a rule.
func (s *Service) Delete(ctx context.Context, id string) error {
	defer s.cache.Invalidate()
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Deleted rule", "rule_id", id)
	return nil
}

// Import creates every rule in rules. Invalid rules are reported and skipped.
func (s *Service) Import(ctx context.Context, rules []model.Rule) (int, []error) {
	var (
		created int
		errs    []error
	)
	for i := range rules {
		rule := rules[i]
		rule.ID = ""
		rule.TimesUsed = 0
		rule.LastUsedAt = nil
		if err := s.Create(ctx, &rule); err != nil {
			errs = append(errs, fmt.Errorf("rule %d (%q): %w", i+1, rule.Pattern, err))
			continue
		}
		created++
	}
	return created, errs
}
