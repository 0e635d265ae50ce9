// Package quote holds the external collaborator interfaces of the bridge:
// the price oracle used for fiat-priced fees and the cross-chain router
// that carries dispatched transfers. Engines depend on these interfaces,
// not on the HTTP clients.
package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNoQuote is returned when the oracle has no price for a source
	ErrNoQuote = errors.New("no price quote for source")
	// ErrInvalidQuote is returned for non-positive or malformed oracle answers
	ErrInvalidQuote = errors.New("invalid price quote")
)

// HTTPDoer executes HTTP requests. Satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PriceQuote is a USD price answer scaled by 10^Decimals
type PriceQuote struct {
	Answer   *big.Int
	Decimals uint8
}

// Valid reports whether the quote is usable for fee math
func (q PriceQuote) Valid() bool {
	return q.Answer != nil && q.Answer.Sign() > 0
}

// PriceOracle provides USD price quotes keyed by price source address
type PriceOracle interface {
	Quote(ctx context.Context, source common.Address) (PriceQuote, error)
}

// ManualOracle is a PriceOracle with operator-set quotes. Used in tests
// and as a fallback when no feed is configured.
type ManualOracle struct {
	mu     sync.RWMutex
	quotes map[common.Address]PriceQuote
}

// NewManualOracle creates an empty manual oracle
func NewManualOracle() *ManualOracle {
	return &ManualOracle{quotes: make(map[common.Address]PriceQuote)}
}

// SetQuote stores a quote for a price source
func (o *ManualOracle) SetQuote(source common.Address, q PriceQuote) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quotes[source] = q
}

// Quote implements PriceOracle
func (o *ManualOracle) Quote(_ context.Context, source common.Address) (PriceQuote, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	q, ok := o.quotes[source]
	if !ok {
		return PriceQuote{}, ErrNoQuote
	}
	return q, nil
}

// HTTPOracle fetches token prices from a price feed service
type HTTPOracle struct {
	baseURL string
	doer    HTTPDoer
}

// NewHTTPOracle creates an oracle client against the given base URL
func NewHTTPOracle(baseURL string, doer HTTPDoer) *HTTPOracle {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &HTTPOracle{baseURL: baseURL, doer: doer}
}

type priceResponse struct {
	Answer   string `json:"answer"`
	Decimals uint8  `json:"decimals"`
}

// Quote implements PriceOracle
func (o *HTTPOracle) Quote(ctx context.Context, source common.Address) (PriceQuote, error) {
	url := fmt.Sprintf("%s/v1/quote/%s", o.baseURL, source.Hex())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PriceQuote{}, fmt.Errorf("failed to build price request: %w", err)
	}
	resp, err := o.doer.Do(req)
	if err != nil {
		return PriceQuote{}, fmt.Errorf("price feed unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return PriceQuote{}, ErrNoQuote
	}
	if resp.StatusCode != http.StatusOK {
		return PriceQuote{}, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return PriceQuote{}, fmt.Errorf("failed to decode price response: %w", err)
	}
	answer, ok := new(big.Int).SetString(body.Answer, 10)
	if !ok {
		return PriceQuote{}, ErrInvalidQuote
	}
	q := PriceQuote{Answer: answer, Decimals: body.Decimals}
	if !q.Valid() {
		return PriceQuote{}, ErrInvalidQuote
	}
	return q, nil
}
