package adapter

import (
	"testing"
	"time"

	"github.com/Veraticus/bankweave/internal/common"
	"github.com/Veraticus/bankweave/internal/ofx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Provider
		wantErr  bool
	}{
		{name: "exact", input: "ptsb", expected: ProviderPTSB},
		{name: "mixed case", input: "Revolut", expected: ProviderRevolut},
		{name: "spaces", input: "Trade Republic", expected: ProviderTradeRepublic},
		{name: "underscores", input: "trade_republic", expected: ProviderTradeRepublic},
		{name: "dashes", input: "trading-212", expected: ProviderTrading212},
		{name: "t212 alias", input: "T212", expected: ProviderTrading212},
		{name: "tr alias", input: "tr", expected: ProviderTradeRepublic},
		{name: "qfx alias", input: "QFX", expected: ProviderOFX},
		{name: "csv alias", input: "csv", expected: ProviderGeneric},
		{name: "empty", input: "  ", expected: ProviderGeneric},
		{name: "unknown", input: "monzo", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProvider(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrUnknownProvider)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseProvider_RoundTripsEveryProvider(t *testing.T) {
	for _, p := range Providers() {
		got, err := ParseProvider(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestFor(t *testing.T) {
	now := func() time.Time { return time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC) }

	assert.IsType(t, &Trading212{}, For(ProviderTrading212, Options{}))
	assert.IsType(t, &Revolut{}, For(ProviderRevolut, Options{}))
	assert.IsType(t, &Raisin{}, For(ProviderRaisin, Options{}))
	assert.IsType(t, &TradeRepublic{}, For(ProviderTradeRepublic, Options{}))
	assert.IsType(t, &ofx.Parser{}, For(ProviderOFX, Options{}))
	assert.IsType(t, &Generic{}, For(ProviderGeneric, Options{}))
	assert.IsType(t, &Generic{}, For(Provider("unheard-of"), Options{}))

	ptsb, ok := For(ProviderPTSB, Options{Now: now}).(*PTSB)
	require.True(t, ok)
	assert.Equal(t, now(), ptsb.now())
}
