package relay_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/defi-direct/bridge-middleware/pkg/auth"
	. "github.com/defi-direct/bridge-middleware/pkg/relay"
	"github.com/defi-direct/bridge-middleware/pkg/bank"
)

// asCaller injects an authenticated caller the way the signature and
// operator middlewares do
func asCaller(addr common.Address) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), addr)))
		})
	}
}

func newTestServer(f *fixture, userAs, operatorAs common.Address) http.Handler {
	r := chi.NewRouter()
	RegisterQueryRoutes(r, f.engine, zap.NewNop())
	r.Group(func(r chi.Router) {
		r.Use(asCaller(userAs))
		RegisterUserRoutes(r, f.engine, zap.NewNop())
	})
	r.Group(func(r chi.Router) {
		r.Use(asCaller(operatorAs))
		RegisterOperatorRoutes(r, f.engine, zap.NewNop())
	})
	return r
}

func doJSON(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHTTP_TransferAndGetDispatch(t *testing.T) {
	f := newFixture(t)
	f.fund(t, sender, usdc, 10_000)
	f.fund(t, sender, linkAddr, 1_000)
	handler := newTestServer(f, sender, owner)

	rec := doJSON(t, handler, http.MethodPost, "/transfers",
		`{"destination_chain":16015286601757825753,"receiver":"`+receiver.Hex()+
			`","token":"`+usdc.Hex()+`","amount":"5000","gas_limit":200000,"fee_asset":"token"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created TransferResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.MessageID)

	rec = doJSON(t, handler, http.MethodGet, "/dispatches/"+created.MessageID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got DispatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, created.MessageID, got.MessageID)
	require.Equal(t, sender.Hex(), got.Caller)
	require.Equal(t, "5000", got.Amount)
	require.Equal(t, "500", got.Fee)
	require.Equal(t, "token", got.FeeAsset)
	require.Equal(t, string(DispatchDispatched), got.Status)
}

func TestHTTP_TransferNative(t *testing.T) {
	f := newFixture(t)
	f.fund(t, sender, usdc, 10_000)
	f.fund(t, sender, bank.Native, 2_000)
	handler := newTestServer(f, sender, owner)

	rec := doJSON(t, handler, http.MethodPost, "/transfers",
		`{"destination_chain":16015286601757825753,"receiver":"`+receiver.Hex()+
			`","token":"`+usdc.Hex()+`","amount":"5000","gas_limit":200000,"fee_asset":"native","attached_value":"1500"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Fee consumed, excess came back
	require.Equal(t, "1500", f.balance(t, sender, bank.Native).String())
}

func TestHTTP_TransferRejections(t *testing.T) {
	f := newFixture(t)
	f.fund(t, sender, usdc, 10_000)
	f.fund(t, sender, linkAddr, 1_000)
	handler := newTestServer(f, sender, owner)

	rec := doJSON(t, handler, http.MethodPost, "/transfers", "{invalid")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "invalid JSON", got.Error)

	rec = doJSON(t, handler, http.MethodPost, "/transfers",
		`{"destination_chain":16015286601757825753,"receiver":"`+receiver.Hex()+
			`","token":"`+usdc.Hex()+`","amount":"5000","fee_asset":"gold"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Unlisted destination surfaces as a validation failure
	rec = doJSON(t, handler, http.MethodPost, "/transfers",
		`{"destination_chain":999,"receiver":"`+receiver.Hex()+
			`","token":"`+usdc.Hex()+`","amount":"5000","gas_limit":200000,"fee_asset":"token"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTP_EstimateFee(t *testing.T) {
	f := newFixture(t)
	handler := newTestServer(f, sender, owner)

	rec := doJSON(t, handler, http.MethodGet,
		"/fee?destination_chain=16015286601757825753&receiver="+receiver.Hex()+
			"&token="+usdc.Hex()+"&amount=5000&gas_limit=200000&fee_asset=native", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "500", got["fee"])
	require.Equal(t, "native", got["fee_asset"])
}

func TestHTTP_ChainAndTokenQueries(t *testing.T) {
	f := newFixture(t)
	handler := newTestServer(f, sender, owner)

	rec := doJSON(t, handler, http.MethodGet, "/chains/16015286601757825753", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var chain struct {
		Selector    uint64 `json:"selector"`
		Allowlisted bool   `json:"allowlisted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chain))
	require.True(t, chain.Allowlisted)

	rec = doJSON(t, handler, http.MethodGet, "/tokens/"+usdc.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var token struct {
		Token     string `json:"token"`
		Supported bool   `json:"supported"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.True(t, token.Supported)

	// Operator flips support off
	rec = doJSON(t, handler, http.MethodPut, "/tokens/"+usdc.Hex(), `{"supported":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/tokens/"+usdc.Hex(), "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.False(t, token.Supported)
}

func TestHTTP_WithdrawNative(t *testing.T) {
	f := newFixture(t)
	f.fund(t, Account, bank.Native, 3_000)
	handler := newTestServer(f, sender, owner)

	rec := doJSON(t, handler, http.MethodPost, "/withdraw/native",
		`{"to":"`+owner.Hex()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3000", f.balance(t, owner, bank.Native).String())

	// Nothing left to sweep
	rec = doJSON(t, handler, http.MethodPost, "/withdraw/native",
		`{"to":"`+owner.Hex()+`"}`)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestHTTP_OperatorRoleEnforced(t *testing.T) {
	f := newFixture(t)
	// Operator routes authenticated as a stranger
	handler := newTestServer(f, sender, stranger)

	rec := doJSON(t, handler, http.MethodPost, "/pause", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTP_Info(t *testing.T) {
	f := newFixture(t)
	handler := newTestServer(f, sender, owner)

	rec := doJSON(t, handler, http.MethodGet, "/info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Owner             string `json:"owner"`
		Paused            bool   `json:"paused"`
		MinTransferAmount int64  `json:"min_transfer_amount"`
		MaxGasLimit       int64  `json:"max_gas_limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, owner.Hex(), got.Owner)
	require.False(t, got.Paused)
	require.Equal(t, int64(MinTransferAmount), got.MinTransferAmount)
	require.Equal(t, int64(MaxGasLimit), got.MaxGasLimit)
}
