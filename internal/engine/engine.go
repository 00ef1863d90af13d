// Package engine implements the categorization cascade used by imports and re-categorization.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/shopspring/decimal"
)

// Source names the stage of the cascade that produced a decision.
type Source string

// Decision sources.
const (
	SourceRule    Source = "rule"
	SourceLearned Source = "learned"
	SourceKeyword Source = "keyword"
)

// Decision is the outcome of categorizing one transaction. Usage is set when
// a rule matched and has not been persisted yet.
type Decision struct {
	Usage     *model.RuleUsage
	Category  string
	RuleID    string
	Source    Source
	Essential bool
}

// Categorizer runs rules, then learned corrections, then keywords.
type Categorizer struct {
	storage  Storage
	rules    RuleEvaluator
	learner  Learner
	fallback Fallback
	logger   *slog.Logger
	config   Config
}

// Config holds configuration options for the categorizer.
type Config struct {
	// ProgressEvery controls how often recategorization reports progress.
	ProgressEvery int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{ProgressEvery: 1}
}

// New creates a categorizer with the default configuration.
func New(storage Storage, rules RuleEvaluator, learner Learner, fallback Fallback) *Categorizer {
	return NewWithConfig(storage, rules, learner, fallback, DefaultConfig())
}

// NewWithConfig creates a categorizer with custom configuration.
func NewWithConfig(storage Storage, rules RuleEvaluator, learner Learner, fallback Fallback, config Config) *Categorizer {
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = 1
	}
	return &Categorizer{
		storage:  storage,
		rules:    rules,
		learner:  learner,
		fallback: fallback,
		config:   config,
		logger:   common.Component("categorizer"),
	}
}

// Decide runs the cascade without persisting anything.
func (c *Categorizer) Decide(ctx context.Context, description, counterparty string, amount decimal.Decimal) (Decision, error) {
	match, ok, err := c.rules.Evaluate(ctx, description, amount)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate rules: %w", err)
	}
	if ok {
		usage := match.Usage
		return Decision{
			Category:  match.Category,
			Essential: match.MarkAsEssential,
			Source:    SourceRule,
			RuleID:    match.RuleID,
			Usage:     &usage,
		}, nil
	}

	category, ok, err := c.learner.Lookup(ctx, counterparty, description)
	if err != nil {
		return Decision{}, err
	}
	if ok {
		return Decision{Category: category, Source: SourceLearned}, nil
	}

	return Decision{
		Category: c.fallback.Classify(description, counterparty, amount),
		Source:   SourceKeyword,
	}, nil
}

// Categorize runs the cascade and records rule usage when a rule matched.
func (c *Categorizer) Categorize(ctx context.Context, description, counterparty string, amount decimal.Decimal) (Decision, error) {
	decision, err := c.Decide(ctx, description, counterparty, amount)
	if err != nil {
		return Decision{}, err
	}
	c.recordUsage(ctx, &decision)
	return decision, nil
}

// LearnFromCorrection applies a user correction and propagates it to similar transactions.
func (c *Categorizer) LearnFromCorrection(ctx context.Context, transactionID, category string) (int, error) {
	return c.learner.RecordCorrection(ctx, transactionID, category)
}

// recordUsage persists the decision's usage event. Failures only cost statistics.
func (c *Categorizer) recordUsage(ctx context.Context, decision *Decision) {
	if decision.Usage == nil {
		return
	}
	if err := c.storage.RecordRuleUsage(ctx, *decision.Usage); err != nil {
		c.logger.Warn("Failed to record rule usage", "rule_id", decision.RuleID, "error", err)
		return
	}
	decision.Usage = nil
}
