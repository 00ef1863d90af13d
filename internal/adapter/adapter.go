// Package adapter turns provider-specific exports into normalized records.
//
// Each supported provider is a value of the closed Provider enum. For maps a
// provider onto its Adapter and falls back to the generic CSV layout for
// anything it does not know.
package adapter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/model"
	"github.com/Veraticus/bankweave/internal/ofx"
)

// Provider identifies the dialect of an input file.
type Provider string

// Known providers.
const (
	ProviderGeneric       Provider = "generic"
	ProviderTrading212    Provider = "trading212"
	ProviderPTSB          Provider = "ptsb"
	ProviderRevolut       Provider = "revolut"
	ProviderRaisin        Provider = "raisin"
	ProviderTradeRepublic Provider = "traderepublic"
	ProviderOFX           Provider = "ofx"
)

// Providers lists every provider in display order.
func Providers() []Provider {
	return []Provider{
		ProviderGeneric,
		ProviderTrading212,
		ProviderPTSB,
		ProviderRevolut,
		ProviderRaisin,
		ProviderTradeRepublic,
		ProviderOFX,
	}
}

// ParseProvider resolves a provider name. Matching ignores case, spaces,
// dashes and underscores so "Trade Republic" and "trade_republic" both resolve.
func ParseProvider(name string) (Provider, error) {
	normalized := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range Providers() {
		if string(p) == normalized {
			return p, nil
		}
	}
	switch normalized {
	case "t212":
		return ProviderTrading212, nil
	case "tr":
		return ProviderTradeRepublic, nil
	case "qfx":
		return ProviderOFX, nil
	case "", "csv":
		return ProviderGeneric, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownProvider, name)
}

// Adapter parses one input stream into records for a single account.
type Adapter interface {
	Parse(ctx context.Context, r io.Reader, accountHint string) (*model.ParseResult, error)
}

// Options configures adapters created by For.
type Options struct {
	// Now dates pending rows that carry no date of their own.
	Now func() time.Time
}

// For returns the adapter for provider, falling back to the generic layout.
func For(provider Provider, opts Options) Adapter {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	switch provider {
	case ProviderTrading212:
		return &Trading212{}
	case ProviderPTSB:
		return &PTSB{now: opts.Now}
	case ProviderRevolut:
		return &Revolut{}
	case ProviderRaisin:
		return &Raisin{}
	case ProviderTradeRepublic:
		return &TradeRepublic{}
	case ProviderOFX:
		return ofx.NewParser()
	default:
		return &Generic{}
	}
}
