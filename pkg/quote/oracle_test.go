package quote

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var feedAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")

func TestManualOracle(t *testing.T) {
	ctx := context.Background()
	oracle := NewManualOracle()

	_, err := oracle.Quote(ctx, feedAddr)
	if !errors.Is(err, ErrNoQuote) {
		t.Fatalf("expected ErrNoQuote, got %v", err)
	}

	oracle.SetQuote(feedAddr, PriceQuote{Answer: big.NewInt(100_000_000), Decimals: 8})

	q, err := oracle.Quote(ctx, feedAddr)
	if err != nil {
		t.Fatalf("Quote() failed: %v", err)
	}
	if q.Answer.Cmp(big.NewInt(100_000_000)) != 0 || q.Decimals != 8 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestPriceQuote_Valid(t *testing.T) {
	if (PriceQuote{}).Valid() {
		t.Fatal("zero quote must be invalid")
	}
	if (PriceQuote{Answer: big.NewInt(0), Decimals: 8}).Valid() {
		t.Fatal("zero answer must be invalid")
	}
	if (PriceQuote{Answer: big.NewInt(-1), Decimals: 8}).Valid() {
		t.Fatal("negative answer must be invalid")
	}
	if !(PriceQuote{Answer: big.NewInt(1), Decimals: 8}).Valid() {
		t.Fatal("positive answer must be valid")
	}
}

func TestHTTPOracle_Quote(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/quote/"+feedAddr.Hex() {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"99950000","decimals":8}`))
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL, srv.Client())

	q, err := oracle.Quote(ctx, feedAddr)
	if err != nil {
		t.Fatalf("Quote() failed: %v", err)
	}
	if q.Answer.Cmp(big.NewInt(99_950_000)) != 0 {
		t.Fatalf("expected answer 99950000, got %s", q.Answer)
	}
	if q.Decimals != 8 {
		t.Fatalf("expected 8 decimals, got %d", q.Decimals)
	}

	_, err = oracle.Quote(ctx, common.HexToAddress("0x4444444444444444444444444444444444444444"))
	if !errors.Is(err, ErrNoQuote) {
		t.Fatalf("expected ErrNoQuote for unknown source, got %v", err)
	}
}

func TestHTTPOracle_InvalidAnswer(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"0","decimals":8}`))
	}))
	defer srv.Close()

	oracle := NewHTTPOracle(srv.URL, srv.Client())

	_, err := oracle.Quote(ctx, feedAddr)
	if !errors.Is(err, ErrInvalidQuote) {
		t.Fatalf("expected ErrInvalidQuote for zero answer, got %v", err)
	}
}

func TestHTTPOracle_Unreachable(t *testing.T) {
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	oracle := NewHTTPOracle(srv.URL, nil)

	if _, err := oracle.Quote(ctx, feedAddr); err == nil {
		t.Fatal("expected error for unreachable feed")
	}
}
