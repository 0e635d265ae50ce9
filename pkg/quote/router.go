package quote

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DispatchRequest describes a cross-chain transfer handed to the router
type DispatchRequest struct {
	DestinationChain uint64
	Receiver         common.Address
	Token            common.Address
	Amount           *big.Int
	GasLimit         uint64
	PayFeesInNative  bool
}

// Router is the cross-chain message router the relay dispatches through
type Router interface {
	// QuoteFee returns the routing fee for a request, denominated in the
	// fee token or in native value depending on PayFeesInNative
	QuoteFee(ctx context.Context, req DispatchRequest) (*big.Int, error)
	// Dispatch hands the transfer to the router and returns its message id
	Dispatch(ctx context.Context, req DispatchRequest) ([32]byte, error)
}

// HTTPRouter is a Router over the routing service's JSON API
type HTTPRouter struct {
	baseURL string
	doer    HTTPDoer
}

// NewHTTPRouter creates a router client against the given base URL
func NewHTTPRouter(baseURL string, doer HTTPDoer) *HTTPRouter {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &HTTPRouter{baseURL: baseURL, doer: doer}
}

type routerRequest struct {
	DestinationChain uint64 `json:"destination_chain"`
	Receiver         string `json:"receiver"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	GasLimit         uint64 `json:"gas_limit"`
	PayFeesInNative  bool   `json:"pay_fees_in_native"`
}

type feeResponse struct {
	Fee string `json:"fee"`
}

type dispatchResponse struct {
	MessageID string `json:"message_id"`
}

// QuoteFee implements Router
func (r *HTTPRouter) QuoteFee(ctx context.Context, req DispatchRequest) (*big.Int, error) {
	var body feeResponse
	if err := r.post(ctx, "/v1/fee", req, &body); err != nil {
		return nil, err
	}
	fee, ok := new(big.Int).SetString(body.Fee, 10)
	if !ok || fee.Sign() < 0 {
		return nil, fmt.Errorf("router returned malformed fee %q", body.Fee)
	}
	return fee, nil
}

// Dispatch implements Router
func (r *HTTPRouter) Dispatch(ctx context.Context, req DispatchRequest) ([32]byte, error) {
	var body dispatchResponse
	if err := r.post(ctx, "/v1/dispatch", req, &body); err != nil {
		return [32]byte{}, err
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(body.MessageID, "0x"))
	if err != nil || len(raw) != 32 {
		return [32]byte{}, fmt.Errorf("router returned malformed message id %q", body.MessageID)
	}
	var id [32]byte
	copy(id[:], raw)
	return id, nil
}

func (r *HTTPRouter) post(ctx context.Context, path string, req DispatchRequest, out any) error {
	payload, err := json.Marshal(routerRequest{
		DestinationChain: req.DestinationChain,
		Receiver:         req.Receiver.Hex(),
		Token:            req.Token.Hex(),
		Amount:           req.Amount.String(),
		GasLimit:         req.GasLimit,
		PayFeesInNative:  req.PayFeesInNative,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal router request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build router request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.doer.Do(httpReq)
	if err != nil {
		return fmt.Errorf("router unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("router returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode router response: %w", err)
	}
	return nil
}
