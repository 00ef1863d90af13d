// Package rulefile reads and writes categorization rules as YAML so they can
// be shared between databases.
package rulefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"gopkg.in/yaml.v3"
)

// Version is the file format version written by Write.
const Version = 1

var errUnsupportedVersion = errors.New("unsupported rule file version")

// File is the on-disk document.
type File struct {
	Rules   []Entry `yaml:"rules"`
	Version int     `yaml:"version"`
}

// Entry is one rule. Usage statistics are exported for reference and ignored on import.
type Entry struct {
	LastUsedAt      *time.Time `yaml:"last_used_at,omitempty"`
	Pattern         string     `yaml:"pattern"`
	Category        string     `yaml:"category"`
	TransactionType string     `yaml:"transaction_type,omitempty"`
	Priority        int        `yaml:"priority"`
	TimesUsed       int        `yaml:"times_used,omitempty"`
	IsRegex         bool       `yaml:"is_regex,omitempty"`
	CaseSensitive   bool       `yaml:"case_sensitive,omitempty"`
	MarkAsEssential bool       `yaml:"mark_as_essential,omitempty"`
}

// Load parses a rule file. Entries are not validated beyond their transaction
// type; the rule service validates them on import.
func Load(r io.Reader) ([]model.Rule, error) {
	var file File
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, common.NewValidationError(0, "rule file", err)
	}
	if file.Version != 0 && file.Version != Version {
		return nil, common.NewValidationError(0, "version", fmt.Errorf("%w: %d", errUnsupportedVersion, file.Version))
	}

	rules := make([]model.Rule, 0, len(file.Rules))
	for i, entry := range file.Rules {
		txnType, err := model.ParseTransactionType(entry.TransactionType)
		if err != nil {
			return nil, common.NewValidationError(i+1, "transaction_type", err)
		}
		rules = append(rules, model.Rule{
			Pattern:         entry.Pattern,
			Category:        entry.Category,
			TransactionType: txnType,
			Priority:        entry.Priority,
			IsRegex:         entry.IsRegex,
			CaseSensitive:   entry.CaseSensitive,
			MarkAsEssential: entry.MarkAsEssential,
		})
	}
	return rules, nil
}

// LoadFile reads the rule file at path.
func LoadFile(path string) ([]model.Rule, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied path is the point
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return Load(bytes.NewReader(data))
}

// Write encodes rules in their given order.
func Write(w io.Writer, rules []model.Rule) error {
	file := File{Version: Version, Rules: make([]Entry, 0, len(rules))}
	for _, rule := range rules {
		entry := Entry{
			Pattern:         rule.Pattern,
			Category:        rule.Category,
			Priority:        rule.Priority,
			IsRegex:         rule.IsRegex,
			CaseSensitive:   rule.CaseSensitive,
			MarkAsEssential: rule.MarkAsEssential,
			TimesUsed:       rule.TimesUsed,
			LastUsedAt:      rule.LastUsedAt,
		}
		if rule.TransactionType != model.TransactionTypeAny {
			entry.TransactionType = string(rule.TransactionType)
		}
		file.Rules = append(file.Rules, entry)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(file); err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return encoder.Close()
}

// WriteFile writes rules to path, replacing any existing file.
func WriteFile(path string, rules []model.Rule) error {
	var buf bytes.Buffer
	if err := Write(&buf, rules); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write rule file: %w", err)
	}
	return nil
}
