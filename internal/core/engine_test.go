package core

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mkoval/dexbook/internal/adapter/in_memory"
	"github.com/mkoval/dexbook/internal/domain"
	"github.com/mkoval/dexbook/internal/event"
)

func newTestEngine(t *testing.T) (*Engine, *in_memory.MemoryRepo) {
	t.Helper()
	repo := in_memory.NewMemoryRepo()
	eng := NewEngine(repo, in_memory.NewCache(), event.NewHub(16), nil, Options{
		TradeHistory:   100,
		ReferencePrice: dec("0.5"),
	})
	return eng, repo
}

func TestEngineSubmitValidation(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		pair   string
		side   domain.Side
		price  string
		amount string
	}{
		{"bad side", "yes-usdc", "HOLD", "0.5", "10"},
		{"zero price", "yes-usdc", domain.Buy, "0", "10"},
		{"negative price", "yes-usdc", domain.Buy, "-1", "10"},
		{"zero amount", "yes-usdc", domain.Buy, "0.5", "0"},
		{"missing pair", "", domain.Buy, "0.5", "10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.Submit(ctx, tc.pair, "0xabc", tc.side, dec(tc.price), dec(tc.amount))
			require.ErrorIs(t, err, ErrInvalidOrder)
		})
	}
}

func TestEngineSubmitAndStatus(t *testing.T) {
	eng, repo := newTestEngine(t)
	ctx := context.Background()

	res, err := eng.Submit(ctx, "yes-usdc", "0xMaker", domain.Sell, dec("0.10"), dec("100"))
	require.NoError(t, err)
	require.Equal(t, domain.Open, res.Status)
	require.Equal(t, "0xmaker", res.Order.Address, "address is lowercase-normalized")

	res, err = eng.Submit(ctx, "yes-usdc", "0xtaker", domain.Buy, dec("0.10"), dec("40"))
	require.NoError(t, err)
	require.Equal(t, domain.Filled, res.Status)
	require.Len(t, res.Trades, 1)
	require.True(t, res.Trades[0].Price.Equal(dec("0.10")))
	require.Equal(t, 1, repo.TradeCount())

	res, err = eng.Submit(ctx, "yes-usdc", "0xtaker", domain.Buy, dec("0.10"), dec("90"))
	require.NoError(t, err)
	require.Equal(t, domain.PartiallyFilled, res.Status, "60 filled, 30 rests")
	require.True(t, res.Order.Remaining().Equal(dec("30")))
}

func TestEngineCancelIdempotent(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := eng.Submit(ctx, "yes-usdc", "0xabc", domain.Buy, dec("0.40"), dec("10"))
	require.NoError(t, err)

	o, err := eng.Cancel(ctx, res.Order.ID)
	require.NoError(t, err)
	require.Equal(t, res.Order.ID, o.ID)

	_, err = eng.Cancel(ctx, res.Order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestEnginePairsIndependent(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Submit(ctx, "yes-usdc", "0xa", domain.Sell, dec("0.50"), dec("10"))
	require.NoError(t, err)

	// a crossing buy on a different pair must not touch yes-usdc liquidity
	res, err := eng.Submit(ctx, "no-usdc", "0xb", domain.Buy, dec("0.60"), dec("10"))
	require.NoError(t, err)
	require.Empty(t, res.Trades)

	ask, ok := eng.bookFor("yes-usdc").BestAsk()
	require.True(t, ok)
	require.True(t, ask.Equal(dec("0.50")))
}

func TestEngineEvents(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	sub := eng.Hub().Subscribe()
	defer eng.Hub().Unsubscribe(sub)

	_, err := eng.Submit(ctx, "yes-usdc", "0xa", domain.Sell, dec("0.50"), dec("10"))
	require.NoError(t, err)

	ev := <-sub.Chan()
	require.Equal(t, event.TypeOrder, ev.Type)
	require.Equal(t, "yes-usdc", ev.Pair)

	ev = <-sub.Chan()
	require.Equal(t, event.TypeOrderBook, ev.Type)

	res, err := eng.Submit(ctx, "yes-usdc", "0xb", domain.Buy, dec("0.50"), dec("10"))
	require.NoError(t, err)

	ev = <-sub.Chan()
	require.Equal(t, event.TypeOrder, ev.Type)
	ev = <-sub.Chan()
	require.Equal(t, event.TypeTrades, ev.Type)
	require.Len(t, ev.Trades, 1)
	ev = <-sub.Chan()
	require.Equal(t, event.TypeOrderBook, ev.Type)

	// cancel of an already-filled order produces no events
	_, err = eng.Cancel(ctx, res.Order.ID)
	require.ErrorIs(t, err, ErrOrderNotFound)
	select {
	case ev := <-sub.Chan():
		t.Fatalf("unexpected event %v", ev.Type)
	default:
	}
}

func TestEngineCancelEvents(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	res, err := eng.Submit(ctx, "yes-usdc", "0xa", domain.Buy, dec("0.40"), dec("10"))
	require.NoError(t, err)

	sub := eng.Hub().Subscribe()
	defer eng.Hub().Unsubscribe(sub)

	_, err = eng.Cancel(ctx, res.Order.ID)
	require.NoError(t, err)

	ev := <-sub.Chan()
	require.Equal(t, event.TypeCancel, ev.Type)
	require.Equal(t, res.Order.ID, ev.OrderID)
	ev = <-sub.Chan()
	require.Equal(t, event.TypeOrderBook, ev.Type)
}

func TestEngineTradesByAddress(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Submit(ctx, "yes-usdc", "0xmaker", domain.Sell, dec("0.50"), dec("10"))
	require.NoError(t, err)
	_, err = eng.Submit(ctx, "yes-usdc", "0xTaker", domain.Buy, dec("0.50"), dec("10"))
	require.NoError(t, err)
	_, err = eng.Submit(ctx, "no-usdc", "0xmaker", domain.Sell, dec("0.30"), dec("5"))
	require.NoError(t, err)
	_, err = eng.Submit(ctx, "no-usdc", "0xother", domain.Buy, dec("0.30"), dec("5"))
	require.NoError(t, err)

	trades := eng.TradesByAddress("0xMAKER", 0)
	require.Len(t, trades, 2, "participant filter spans pairs")

	trades = eng.TradesByAddress("0xtaker", 0)
	require.Len(t, trades, 1)

	trades = eng.TradesByAddress("0xmaker", 1)
	require.Len(t, trades, 1, "limit applies after merging")
}

func TestEngineBookUsesCache(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Submit(ctx, "yes-usdc", "0xa", domain.Buy, dec("0.40"), dec("10"))
	require.NoError(t, err)

	snap := eng.Book(ctx, "yes-usdc")
	require.Equal(t, "yes-usdc", snap.Pair)
	require.Len(t, snap.Bids, 1)
	require.True(t, snap.Bids[0].Price.Equal(dec("0.40")))

	// unknown pair still yields an empty snapshot with the fallback mid
	snap = eng.Book(ctx, "unlisted")
	require.Empty(t, snap.Bids)
	require.Empty(t, snap.Asks)
	require.True(t, snap.MidPrice.Equal(dec("0.5")))
}

// Exercised under -race: the returned order must be a copy taken while the
// book lock was held, so concurrent crossing submits on the same pair can
// neither tear it nor make its status disagree with its fill.
func TestEngineSubmitConcurrentCrossing(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	const rounds = 200
	results := make(chan *SubmitResult, 2*rounds)
	var wg sync.WaitGroup
	submit := func(side domain.Side) {
		defer wg.Done()
		res, err := eng.Submit(ctx, "yes-usdc", "0x"+string(side), side, dec("0.50"), dec("1"))
		if err != nil {
			t.Errorf("submit %s: %v", side, err)
			return
		}
		results <- res
	}
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go submit(domain.Buy)
		go submit(domain.Sell)
	}
	wg.Wait()
	close(results)

	for res := range results {
		require.Equal(t, res.Order.Status(), res.Status)
		require.True(t, res.Order.Filled.LessThanOrEqual(res.Order.Amount))
		for _, tr := range res.Trades {
			require.True(t, tr.Price.Equal(dec("0.50")))
			require.True(t, tr.Amount.GreaterThan(decimal.Zero))
		}
	}

	// every trade fills one lot on each side, and flow was equal both ways,
	// so nothing can be left resting
	b := eng.bookFor("yes-usdc")
	_, okB := b.BestBid()
	_, okA := b.BestAsk()
	require.False(t, okB)
	require.False(t, okA)
}

func TestEngineCancelInvalidatesCachedBook(t *testing.T) {
	bookCache := in_memory.NewCache()
	eng := NewEngine(nil, bookCache, nil, nil, Options{ReferencePrice: dec("0.5")})
	ctx := context.Background()

	res, err := eng.Submit(ctx, "yes-usdc", "0xa", domain.Buy, dec("0.40"), dec("10"))
	require.NoError(t, err)
	snap, err := bookCache.GetBook(ctx, "yes-usdc")
	require.NoError(t, err)
	require.NotNil(t, snap)

	_, err = eng.Cancel(ctx, res.Order.ID)
	require.NoError(t, err)
	snap, err = bookCache.GetBook(ctx, "yes-usdc")
	require.NoError(t, err)
	require.Nil(t, snap, "cancel drops the cached snapshot")

	// the next read rebuilds and re-caches the now-empty book
	book := eng.Book(ctx, "yes-usdc")
	require.Empty(t, book.Bids)
	snap, err = bookCache.GetBook(ctx, "yes-usdc")
	require.NoError(t, err)
	require.NotNil(t, snap)
}

func TestEngineMidPriceDefault(t *testing.T) {
	eng, _ := newTestEngine(t)
	require.True(t, eng.MidPrice("brand-new").Equal(dec("0.5")))
	require.False(t, eng.MidPrice("brand-new").Equal(decimal.Zero))
}
