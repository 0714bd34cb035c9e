package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cosmossdk.io/math"

	"github.com/paw-chain/swaprouter/pkg/types"
)

// HTTPClient talks to the chain node's REST gateway.
type HTTPClient struct {
	base string
	http *http.Client
}

// NewHTTPClient builds a client for the node at base, e.g.
// "http://localhost:1317".
func NewHTTPClient(base string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		base: base,
		http: &http.Client{Timeout: timeout},
	}
}

type poolView struct {
	ID       string `json:"id"`
	AssetA   string `json:"asset_a"`
	AssetB   string `json:"asset_b"`
	ReserveA string `json:"reserve_a"`
	ReserveB string `json:"reserve_b"`
	FeeBps   uint32 `json:"fee_bps"`
}

func (c *HTTPClient) ListPools(ctx context.Context) ([]types.Pool, error) {
	var resp struct {
		Pools []poolView `json:"pools"`
	}
	if err := c.get(ctx, "/dex/pools", &resp); err != nil {
		return nil, err
	}
	pools := make([]types.Pool, 0, len(resp.Pools))
	for _, pv := range resp.Pools {
		reserveA, ok := math.NewIntFromString(pv.ReserveA)
		if !ok {
			return nil, fmt.Errorf("chain: pool %s: bad reserve %q", pv.ID, pv.ReserveA)
		}
		reserveB, ok := math.NewIntFromString(pv.ReserveB)
		if !ok {
			return nil, fmt.Errorf("chain: pool %s: bad reserve %q", pv.ID, pv.ReserveB)
		}
		pools = append(pools, types.Pool{
			ID:       pv.ID,
			AssetA:   pv.AssetA,
			AssetB:   pv.AssetB,
			ReserveA: reserveA,
			ReserveB: reserveB,
			FeeBps:   pv.FeeBps,
		})
	}
	return pools, nil
}

func (c *HTTPClient) GetPoolReserves(ctx context.Context, poolID string) (math.Int, math.Int, error) {
	var resp struct {
		ReserveA string `json:"reserve_a"`
		ReserveB string `json:"reserve_b"`
	}
	if err := c.get(ctx, "/dex/pools/"+poolID+"/reserves", &resp); err != nil {
		return math.Int{}, math.Int{}, err
	}
	reserveA, okA := math.NewIntFromString(resp.ReserveA)
	reserveB, okB := math.NewIntFromString(resp.ReserveB)
	if !okA || !okB {
		return math.Int{}, math.Int{}, fmt.Errorf("chain: pool %s: bad reserves %q/%q", poolID, resp.ReserveA, resp.ReserveB)
	}
	return reserveA, reserveB, nil
}

func (c *HTTPClient) GetGasPrice(ctx context.Context) (math.Int, error) {
	var resp struct {
		GasPrice string `json:"gas_price"`
	}
	if err := c.get(ctx, "/dex/gas-price", &resp); err != nil {
		return math.Int{}, err
	}
	price, ok := math.NewIntFromString(resp.GasPrice)
	if !ok {
		return math.Int{}, fmt.Errorf("chain: bad gas price %q", resp.GasPrice)
	}
	return price, nil
}

func (c *HTTPClient) GetBalance(ctx context.Context, account, asset string) (math.Int, error) {
	var resp struct {
		Balance string `json:"balance"`
	}
	if err := c.get(ctx, "/bank/balances/"+account+"/"+asset, &resp); err != nil {
		return math.Int{}, err
	}
	bal, ok := math.NewIntFromString(resp.Balance)
	if !ok {
		return math.Int{}, fmt.Errorf("chain: bad balance %q", resp.Balance)
	}
	return bal, nil
}

func (c *HTTPClient) SubmitTransaction(ctx context.Context, payload []byte, gas GasParams) (string, error) {
	body, err := json.Marshal(map[string]any{
		"payload":   json.RawMessage(payload),
		"gas_price": gas.GasPrice.String(),
		"gas_limit": gas.GasLimit,
		"protected": gas.Protected,
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		Hash string `json:"hash"`
	}
	if err := c.post(ctx, "/dex/txs", body, &resp); err != nil {
		return "", err
	}
	return resp.Hash, nil
}

// GetTransactionReceipt returns nil without error while the transaction is
// not yet mined.
func (c *HTTPClient) GetTransactionReceipt(ctx context.Context, hash string) (*Receipt, error) {
	var resp struct {
		TxHash        string `json:"tx_hash"`
		BlockNumber   uint64 `json:"block_number"`
		GasUsed       uint64 `json:"gas_used"`
		Reverted      bool   `json:"reverted"`
		Confirmations uint64 `json:"confirmations"`
	}
	err := c.get(ctx, "/dex/txs/"+hash+"/receipt", &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &Receipt{
		TxHash:        resp.TxHash,
		BlockNumber:   resp.BlockNumber,
		GasUsed:       resp.GasUsed,
		Reverted:      resp.Reverted,
		Confirmations: resp.Confirmations,
	}, nil
}

func (c *HTTPClient) GetBlockNumber(ctx context.Context) (uint64, error) {
	var resp struct {
		Height uint64 `json:"height"`
	}
	if err := c.get(ctx, "/blocks/latest", &resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("chain: http %d: %s", e.code, e.body)
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return NewNetworkError(req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return NewNetworkError(req.URL.Path, fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &statusError{code: resp.StatusCode, body: string(body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ Client = (*HTTPClient)(nil)
