package quote_test

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/paw-chain/swaprouter/pkg/quote"
	"github.com/paw-chain/swaprouter/pkg/types"
)

func route(path types.Path, amountIn, amountOut int64, confidence int) types.EvaluatedRoute {
	return types.EvaluatedRoute{
		Path:             path,
		TotalAmountIn:    math.NewInt(amountIn),
		TotalAmountOut:   math.NewInt(amountOut),
		TotalFee:         math.NewInt(1),
		TotalPriceImpact: math.LegacyZeroDec(),
		Confidence:       confidence,
	}
}

func request(amount types.SwapAmount, slippageBps uint32) types.QuoteRequest {
	return types.QuoteRequest{
		SourceAsset:      "A",
		DestinationAsset: "B",
		Amount:           amount,
		SlippageBps:      slippageBps,
	}
}

func TestAssembleBounds(t *testing.T) {
	a := quote.NewAssembler(0, 0)
	req := request(types.ExactInput(math.NewInt(1000)), 100) // 1%

	q, err := a.Assemble(req, []types.EvaluatedRoute{route(types.Path{"A", "B"}, 1000, 500, 90)}, 0)
	require.NoError(t, err)

	// 500 * 9900/10000 = 495; ceil(1000 * 10100/10000) = 1010.
	require.Equal(t, math.NewInt(495), q.AmountOutMin)
	require.Equal(t, math.NewInt(1010), q.AmountInMax)
	require.True(t, q.AmountOutMin.LT(q.AmountOut))
	require.True(t, q.AmountInMax.GT(q.AmountIn))
}

func TestAssembleZeroSlippage(t *testing.T) {
	a := quote.NewAssembler(0, 0)
	req := request(types.ExactInput(math.NewInt(1000)), 0)

	q, err := a.Assemble(req, []types.EvaluatedRoute{route(types.Path{"A", "B"}, 1000, 500, 90)}, 0)
	require.NoError(t, err)
	require.Equal(t, q.AmountOut, q.AmountOutMin)
	require.Equal(t, q.AmountIn, q.AmountInMax)
}

func TestAssembleRejectsSlippageAtCeiling(t *testing.T) {
	a := quote.NewAssembler(5000, 0)
	routes := []types.EvaluatedRoute{route(types.Path{"A", "B"}, 1000, 500, 90)}

	_, err := a.Assemble(request(types.ExactInput(math.NewInt(1000)), 5000), routes, 0)
	require.ErrorIs(t, err, types.ErrInvalidSlippage, "ceiling value is rejected, not clamped")

	_, err = a.Assemble(request(types.ExactInput(math.NewInt(1000)), 9999), routes, 0)
	require.ErrorIs(t, err, types.ErrInvalidSlippage)

	_, err = a.Assemble(request(types.ExactInput(math.NewInt(1000)), 4999), routes, 0)
	require.NoError(t, err)
}

func TestAssembleSelectsBestRoute(t *testing.T) {
	a := quote.NewAssembler(0, 0)

	// Exact input: highest output wins.
	q, err := a.Assemble(request(types.ExactInput(math.NewInt(1000)), 50), []types.EvaluatedRoute{
		route(types.Path{"A", "X", "B"}, 1000, 480, 95),
		route(types.Path{"A", "B"}, 1000, 500, 80),
	}, 0)
	require.NoError(t, err)
	require.Equal(t, "A->B", q.Route.Path.String())

	// Exact output: lowest input wins.
	q, err = a.Assemble(request(types.ExactOutput(math.NewInt(500)), 50), []types.EvaluatedRoute{
		route(types.Path{"A", "X", "B"}, 1040, 500, 95),
		route(types.Path{"A", "B"}, 1020, 500, 80),
	}, 0)
	require.NoError(t, err)
	require.Equal(t, "A->B", q.Route.Path.String())

	// Ties break toward higher confidence.
	q, err = a.Assemble(request(types.ExactInput(math.NewInt(1000)), 50), []types.EvaluatedRoute{
		route(types.Path{"A", "X", "B"}, 1000, 500, 70),
		route(types.Path{"A", "B"}, 1000, 500, 90),
	}, 0)
	require.NoError(t, err)
	require.Equal(t, 90, q.Route.Confidence)
}

func TestAssembleDeadline(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	a := quote.NewAssembler(0, 0).WithClock(func() time.Time { return now })
	routes := []types.EvaluatedRoute{route(types.Path{"A", "B"}, 1000, 500, 90)}

	q, err := a.Assemble(request(types.ExactInput(math.NewInt(1000)), 50), routes, 0)
	require.NoError(t, err)
	require.Equal(t, now.Add(quote.DefaultDeadlineWindow), q.Deadline)

	req := request(types.ExactInput(math.NewInt(1000)), 50)
	req.DeadlineWindow = time.Minute
	q, err = a.Assemble(req, routes, 0)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Minute), q.Deadline)
}

func TestAssembleGasEstimate(t *testing.T) {
	a := quote.NewAssembler(0, 0).WithGasModel(60_000, 90_000)

	// Sized from the selected route: base + perHop * hops.
	q, err := a.Assemble(request(types.ExactInput(math.NewInt(1000)), 50),
		[]types.EvaluatedRoute{route(types.Path{"A", "X", "B"}, 1000, 500, 90)}, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(240_000), q.GasEstimate)

	// An explicit estimate wins over the model.
	q, err = a.Assemble(request(types.ExactInput(math.NewInt(1000)), 50),
		[]types.EvaluatedRoute{route(types.Path{"A", "B"}, 1000, 500, 90)}, 123_456)
	require.NoError(t, err)
	require.Equal(t, uint64(123_456), q.GasEstimate)
}

func TestAssembleNoRoutes(t *testing.T) {
	a := quote.NewAssembler(0, 0)
	_, err := a.Assemble(request(types.ExactInput(math.NewInt(1000)), 50), nil, 0)
	require.ErrorIs(t, err, types.ErrNoRouteFound)
}

// Bounds hold for any amounts, strictly when the tolerance is positive.
func TestBoundsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		amountIn := rapid.Int64Range(1, 1_000_000_000_000).Draw(t, "amountIn")
		amountOut := rapid.Int64Range(1, 1_000_000_000_000).Draw(t, "amountOut")
		slippage := rapid.Uint32Range(1, 4999).Draw(t, "slippage")

		a := quote.NewAssembler(0, 0)
		q, err := a.Assemble(
			request(types.ExactInput(math.NewInt(amountIn)), slippage),
			[]types.EvaluatedRoute{route(types.Path{"A", "B"}, amountIn, amountOut, 90)}, 0)
		if err != nil {
			t.Fatalf("assemble: %v", err)
		}
		if !q.AmountOutMin.LT(q.AmountOut) {
			t.Fatalf("amountOutMin %s not strictly below amountOut %s", q.AmountOutMin, q.AmountOut)
		}
		if !q.AmountInMax.GT(q.AmountIn) {
			t.Fatalf("amountInMax %s not strictly above amountIn %s", q.AmountInMax, q.AmountIn)
		}
	})
}

func TestCachePutGet(t *testing.T) {
	c := quote.NewCache(time.Minute)
	req := request(types.ExactInput(math.NewInt(1000)), 50)
	key := quote.Key(req)
	require.NotEmpty(t, key)

	_, ok := c.Get(key)
	require.False(t, ok)

	q := &types.Quote{AmountOut: math.NewInt(500), Deadline: time.Now().Add(time.Hour)}
	c.Put(key, q)

	got, ok := c.Get(key)
	require.True(t, ok)
	require.Equal(t, q, got)
}

func TestCacheTTLExpiry(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := quote.NewCache(3 * time.Second).WithClock(clock)

	key := quote.Key(request(types.ExactInput(math.NewInt(1000)), 50))
	c.Put(key, &types.Quote{Deadline: now.Add(time.Hour)})

	_, ok := c.Get(key)
	require.True(t, ok)

	now = now.Add(4 * time.Second)
	_, ok = c.Get(key)
	require.False(t, ok, "entries past the TTL are not served")
}

func TestCacheRespectsQuoteDeadline(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	c := quote.NewCache(time.Hour).WithClock(func() time.Time { return now })

	key := quote.Key(request(types.ExactInput(math.NewInt(1000)), 50))
	c.Put(key, &types.Quote{Deadline: now.Add(-time.Second)})

	_, ok := c.Get(key)
	require.False(t, ok, "a quote past its own deadline is never served")
}

func TestCacheInvalidateAll(t *testing.T) {
	c := quote.NewCache(time.Minute)
	key := quote.Key(request(types.ExactInput(math.NewInt(1000)), 50))
	c.Put(key, &types.Quote{Deadline: time.Now().Add(time.Hour)})
	require.Equal(t, 1, c.Len())

	c.InvalidateAll()
	require.Equal(t, 0, c.Len())
	_, ok := c.Get(key)
	require.False(t, ok)
}

func TestKeyBypassesExclusions(t *testing.T) {
	req := request(types.ExactInput(math.NewInt(1000)), 50)
	req.ExcludedAssets = []string{"C"}
	require.Empty(t, quote.Key(req), "requests with exclusions are not cacheable")

	a := request(types.ExactInput(math.NewInt(1000)), 50)
	b := request(types.ExactOutput(math.NewInt(1000)), 50)
	require.NotEqual(t, quote.Key(a), quote.Key(b), "direction is part of the key")
}
