package chain_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/paw-chain/swaprouter/pkg/chain"
)

func TestIsRetryable(t *testing.T) {
	require.True(t, chain.IsRetryable(chain.NewNetworkError("submit", errors.New("timeout"))))
	require.True(t, chain.IsRetryable(fmt.Errorf("wrapped: %w",
		chain.NewNetworkError("submit", errors.New("timeout")))))
	require.False(t, chain.IsRetryable(errors.New("insufficient funds")))
	require.False(t, chain.IsRetryable(nil))
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/dex/pools", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pools":[{"id":"ab","asset_a":"A","asset_b":"B",
			"reserve_a":"1000","reserve_b":"2000","fee_bps":30}]}`)
	})
	mux.HandleFunc("/dex/pools/ab/reserves", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"reserve_a":"1100","reserve_b":"1900"}`)
	})
	mux.HandleFunc("/dex/gas-price", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"gas_price":"25"}`)
	})
	mux.HandleFunc("/bank/balances/alice/A", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"balance":"5000"}`)
	})
	mux.HandleFunc("/dex/txs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"hash":"0xabc"}`)
	})
	mux.HandleFunc("/dex/txs/0xabc/receipt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"tx_hash":"0xabc","block_number":10,"confirmations":2}`)
	})
	mux.HandleFunc("/dex/txs/0xmissing/receipt", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient(t *testing.T) {
	srv := testServer(t)
	client := chain.NewHTTPClient(srv.URL, time.Second)
	ctx := context.Background()

	pools, err := client.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	require.Equal(t, "ab", pools[0].ID)
	require.Equal(t, math.NewInt(1000), pools[0].ReserveA)
	require.NoError(t, pools[0].Validate())

	reserveA, reserveB, err := client.GetPoolReserves(ctx, "ab")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(1100), reserveA)
	require.Equal(t, math.NewInt(1900), reserveB)

	price, err := client.GetGasPrice(ctx)
	require.NoError(t, err)
	require.Equal(t, math.NewInt(25), price)

	bal, err := client.GetBalance(ctx, "alice", "A")
	require.NoError(t, err)
	require.Equal(t, math.NewInt(5000), bal)

	hash, err := client.SubmitTransaction(ctx, []byte(`{"path":["A","B"]}`), chain.GasParams{
		GasPrice: math.NewInt(30),
		GasLimit: 150000,
	})
	require.NoError(t, err)
	require.Equal(t, "0xabc", hash)

	receipt, err := client.GetTransactionReceipt(ctx, "0xabc")
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.Equal(t, uint64(2), receipt.Confirmations)

	receipt, err = client.GetTransactionReceipt(ctx, "0xmissing")
	require.NoError(t, err, "a 404 receipt means not mined yet")
	require.Nil(t, receipt)
}

func TestHTTPClientServerErrorsAreRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	client := chain.NewHTTPClient(srv.URL, time.Second)
	_, err := client.GetGasPrice(context.Background())
	require.Error(t, err)
	require.True(t, chain.IsRetryable(err), "5xx responses are transient")
}
