package listing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mkoval/dexbook/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry(nil, nil, dec("0.5"))
	ctx := context.Background()

	p, err := r.Create(ctx, domain.Pair{BaseSymbol: "YES", QuoteSymbol: "USDC", Chain: "base"})
	require.NoError(t, err)
	require.Equal(t, "yes-usdc", p.ID, "id defaults to base-quote")
	require.True(t, p.ReferencePrice.Equal(dec("0.5")), "reference price defaults")

	_, err = r.Create(ctx, domain.Pair{BaseSymbol: "YES", QuoteSymbol: "USDC"})
	require.ErrorIs(t, err, ErrPairExists)

	_, err = r.Create(ctx, domain.Pair{BaseSymbol: "", QuoteSymbol: "USDC"})
	require.Error(t, err)
}

func TestRegistryMarketMakerFlag(t *testing.T) {
	r := NewRegistry(nil, nil, dec("0.5"))
	ctx := context.Background()

	_, err := r.Create(ctx, domain.Pair{BaseSymbol: "YES", QuoteSymbol: "USDC"})
	require.NoError(t, err)
	_, err = r.Create(ctx, domain.Pair{BaseSymbol: "NO", QuoteSymbol: "USDC", MarketMaker: true})
	require.NoError(t, err)

	require.Equal(t, []string{"no-usdc"}, r.MarketMakerPairs())

	p, err := r.SetMarketMaker(ctx, "yes-usdc", true)
	require.NoError(t, err)
	require.True(t, p.MarketMaker)
	require.Equal(t, []string{"no-usdc", "yes-usdc"}, r.MarketMakerPairs())

	_, err = r.SetMarketMaker(ctx, "missing", true)
	require.ErrorIs(t, err, ErrPairNotFound)
}

func TestRegistryReferencePrice(t *testing.T) {
	r := NewRegistry(nil, nil, dec("0.5"))
	ctx := context.Background()

	_, err := r.Create(ctx, domain.Pair{BaseSymbol: "YES", QuoteSymbol: "USDC", ReferencePrice: dec("0.7")})
	require.NoError(t, err)

	ref, ok := r.ReferencePrice("yes-usdc")
	require.True(t, ok)
	require.True(t, ref.Equal(dec("0.7")))

	_, ok = r.ReferencePrice("missing")
	require.False(t, ok)
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry(nil, nil, dec("0.5"))
	ctx := context.Background()
	for _, base := range []string{"ZED", "ALpha", "MID"} {
		_, err := r.Create(ctx, domain.Pair{BaseSymbol: base, QuoteSymbol: "USDC"})
		require.NoError(t, err)
	}
	pairs := r.List()
	require.Len(t, pairs, 3)
	require.Equal(t, "alpha-usdc", pairs[0].ID)
	require.Equal(t, "zed-usdc", pairs[2].ID)
}
