package relay

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/defi-direct/bridge-middleware/pkg/app/errors"
	apphttp "github.com/defi-direct/bridge-middleware/pkg/app/http"
	"github.com/defi-direct/bridge-middleware/pkg/auth"
)

const maxBodySize = 1 << 20

// HTTP exposes the relay Service over chi routes
type HTTP struct {
	service  Service
	validate *validator.Validate
	logger   *zap.Logger
}

// RegisterUserRoutes registers the signature-authenticated transfer endpoint
func RegisterUserRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := newHTTP(service, logger)

	r.Post("/transfers", apphttp.HandleError(h.transfer))
}

// RegisterQueryRoutes registers the unauthenticated read endpoints
func RegisterQueryRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := newHTTP(service, logger)

	r.Get("/fee", apphttp.HandleError(h.estimateFee))
	r.Get("/dispatches/{id}", apphttp.HandleError(h.getDispatch))
	r.Get("/callers/{address}/dispatches", apphttp.HandleError(h.listDispatches))
	r.Get("/chains/{selector}", apphttp.HandleError(h.getChain))
	r.Get("/tokens/{token}", apphttp.HandleError(h.getToken))
	r.Get("/info", apphttp.HandleError(h.getInfo))
}

// RegisterOperatorRoutes registers the operator-token-authenticated admin endpoints
func RegisterOperatorRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := newHTTP(service, logger)

	r.Put("/chains/{selector}", apphttp.HandleError(h.allowlistChain))
	r.Put("/tokens/{token}", apphttp.HandleError(h.setTokenSupport))
	r.Post("/withdraw/native", apphttp.HandleError(h.withdrawNative))
	r.Post("/withdraw/token", apphttp.HandleError(h.withdrawToken))
	r.Put("/counterpart", apphttp.HandleError(h.updateCounterpart))
	r.Post("/pause", apphttp.HandleError(h.pause))
	r.Post("/unpause", apphttp.HandleError(h.unpause))
	r.Post("/ownership/transfer", apphttp.HandleError(h.transferOwnership))
	r.Post("/ownership/accept", apphttp.HandleError(h.acceptOwnership))
}

func newHTTP(service Service, logger *zap.Logger) *HTTP {
	return &HTTP{service: service, validate: validator.New(), logger: logger}
}

func (h *HTTP) decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.BadRequestError(err, "invalid request payload")
	}
	return nil
}

func caller(r *http.Request) (common.Address, error) {
	addr, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return common.Address{}, apperrors.UnAuthorizedError(nil, "caller identity missing")
	}
	return addr, nil
}

type transferRequest struct {
	DestinationChain uint64 `json:"destination_chain" validate:"required"`
	Receiver         string `json:"receiver" validate:"required,eth_addr"`
	Token            string `json:"token" validate:"required,eth_addr"`
	Amount           string `json:"amount" validate:"required,number"`
	GasLimit         uint64 `json:"gas_limit"`
	FeeAsset         string `json:"fee_asset"`
	AttachedValue    string `json:"attached_value,omitempty" validate:"omitempty,number"`
}

type transferResponse struct {
	MessageID string `json:"message_id"`
}

func (h *HTTP) transfer(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req transferRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok {
		return apperrors.BadRequestError(nil, "malformed amount")
	}
	feeAsset, err := ParseFeeAsset(req.FeeAsset)
	if err != nil {
		return apperrors.BadRequestError(err, "unknown fee asset")
	}

	var messageID MessageID
	if feeAsset == FeeAssetNative {
		attached := big.NewInt(0)
		if req.AttachedValue != "" {
			attached, ok = new(big.Int).SetString(req.AttachedValue, 10)
			if !ok {
				return apperrors.BadRequestError(nil, "malformed attached value")
			}
		}
		messageID, err = h.service.TransferPayNative(r.Context(), callerAddr, req.DestinationChain,
			common.HexToAddress(req.Receiver), common.HexToAddress(req.Token), amount, req.GasLimit, attached)
	} else {
		messageID, err = h.service.TransferPayFeeToken(r.Context(), callerAddr, req.DestinationChain,
			common.HexToAddress(req.Receiver), common.HexToAddress(req.Token), amount, req.GasLimit)
	}
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, transferResponse{MessageID: messageID.Hex()})
	return nil
}

func (h *HTTP) estimateFee(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	destination, err := strconv.ParseUint(q.Get("destination_chain"), 10, 64)
	if err != nil {
		return apperrors.BadRequestError(err, "malformed destination chain")
	}
	if !auth.ValidateEVMAddress(q.Get("receiver")) || !auth.ValidateEVMAddress(q.Get("token")) {
		return apperrors.BadRequestError(nil, "malformed receiver or token address")
	}
	amount, ok := new(big.Int).SetString(q.Get("amount"), 10)
	if !ok {
		return apperrors.BadRequestError(nil, "malformed amount")
	}
	var gasLimit uint64
	if raw := q.Get("gas_limit"); raw != "" {
		gasLimit, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return apperrors.BadRequestError(err, "malformed gas limit")
		}
	}
	feeAsset, err := ParseFeeAsset(q.Get("fee_asset"))
	if err != nil {
		return apperrors.BadRequestError(err, "unknown fee asset")
	}

	fee, err := h.service.EstimateFee(r.Context(), destination,
		common.HexToAddress(q.Get("receiver")), common.HexToAddress(q.Get("token")), amount, feeAsset, gasLimit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"fee": fee.String(), "fee_asset": feeAsset.String()})
	return nil
}

type dispatchResponse struct {
	MessageID        string `json:"message_id"`
	Caller           string `json:"caller"`
	DestinationChain uint64 `json:"destination_chain"`
	Receiver         string `json:"receiver"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	Fee              string `json:"fee"`
	FeeAsset         string `json:"fee_asset"`
	GasLimit         uint64 `json:"gas_limit"`
	Status           string `json:"status"`
}

func toDispatchResponse(d *Dispatch) dispatchResponse {
	return dispatchResponse{
		MessageID:        d.MessageID.Hex(),
		Caller:           d.Caller.Hex(),
		DestinationChain: d.DestinationChain,
		Receiver:         d.Receiver.Hex(),
		Token:            d.Token.Hex(),
		Amount:           d.Amount.String(),
		Fee:              d.Fee.String(),
		FeeAsset:         d.FeeAsset.String(),
		GasLimit:         d.GasLimit,
		Status:           string(d.Status),
	}
}

func (h *HTTP) getDispatch(w http.ResponseWriter, r *http.Request) error {
	id, err := ParseMessageID(chi.URLParam(r, "id"))
	if err != nil {
		return apperrors.BadRequestError(err, "malformed message id")
	}
	d, err := h.service.GetDispatch(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toDispatchResponse(d))
	return nil
}

func (h *HTTP) listDispatches(w http.ResponseWriter, r *http.Request) error {
	address := chi.URLParam(r, "address")
	if !auth.ValidateEVMAddress(address) {
		return apperrors.BadRequestError(nil, "malformed caller address")
	}
	ds, err := h.service.Dispatches(r.Context(), common.HexToAddress(address))
	if err != nil {
		return err
	}
	out := make([]dispatchResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDispatchResponse(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"dispatches": out})
	return nil
}

func (h *HTTP) getChain(w http.ResponseWriter, r *http.Request) error {
	selector, err := strconv.ParseUint(chi.URLParam(r, "selector"), 10, 64)
	if err != nil {
		return apperrors.BadRequestError(err, "malformed chain selector")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selector":    selector,
		"allowlisted": h.service.IsChainAllowlisted(selector),
	})
	return nil
}

func (h *HTTP) getToken(w http.ResponseWriter, r *http.Request) error {
	token := chi.URLParam(r, "token")
	if !auth.ValidateEVMAddress(token) {
		return apperrors.BadRequestError(nil, "malformed token address")
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     auth.NormalizeAddress(token),
		"supported": h.service.IsTokenSupported(common.HexToAddress(token)),
	})
	return nil
}

func (h *HTTP) getInfo(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":               h.service.Owner().Hex(),
		"counterpart":         h.service.Counterpart().Hex(),
		"paused":              h.service.Paused(),
		"min_transfer_amount": MinTransferAmount,
		"max_gas_limit":       MaxGasLimit,
	})
	return nil
}

type allowlistRequest struct {
	Allowed bool `json:"allowed"`
}

func (h *HTTP) allowlistChain(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	selector, err := strconv.ParseUint(chi.URLParam(r, "selector"), 10, 64)
	if err != nil {
		return apperrors.BadRequestError(err, "malformed chain selector")
	}
	var req allowlistRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if err := h.service.AllowlistChain(r.Context(), callerAddr, selector, req.Allowed); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	return nil
}

type supportRequest struct {
	Supported bool `json:"supported"`
}

func (h *HTTP) setTokenSupport(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	token := chi.URLParam(r, "token")
	if !auth.ValidateEVMAddress(token) {
		return apperrors.BadRequestError(nil, "malformed token address")
	}
	var req supportRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if err := h.service.SetTokenSupport(r.Context(), callerAddr, common.HexToAddress(token), req.Supported); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	return nil
}

type withdrawRequest struct {
	To    string `json:"to" validate:"required,eth_addr"`
	Token string `json:"token,omitempty" validate:"omitempty,eth_addr"`
}

func (h *HTTP) withdrawNative(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req withdrawRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	amount, err := h.service.WithdrawNative(r.Context(), callerAddr, common.HexToAddress(req.To))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn", "amount": amount.String()})
	return nil
}

func (h *HTTP) withdrawToken(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req withdrawRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if req.Token == "" {
		return apperrors.BadRequestError(nil, "token is required")
	}
	amount, err := h.service.WithdrawToken(r.Context(), callerAddr, common.HexToAddress(req.To), common.HexToAddress(req.Token))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn", "amount": amount.String()})
	return nil
}

type addressRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

func (h *HTTP) updateCounterpart(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req addressRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if err := h.service.UpdateCounterpartAddress(r.Context(), callerAddr, common.HexToAddress(req.Address)); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	return nil
}

func (h *HTTP) pause(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	if err := h.service.Pause(r.Context(), callerAddr); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
	return nil
}

func (h *HTTP) unpause(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	if err := h.service.Unpause(r.Context(), callerAddr); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unpaused"})
	return nil
}

func (h *HTTP) transferOwnership(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req addressRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if err := h.service.TransferOwnership(r.Context(), callerAddr, common.HexToAddress(req.Address)); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pending"})
	return nil
}

func (h *HTTP) acceptOwnership(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	if err := h.service.AcceptOwnership(r.Context(), callerAddr); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "transferred"})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
