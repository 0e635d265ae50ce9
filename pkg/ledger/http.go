package ledger

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/defi-direct/bridge-middleware/pkg/app/errors"
	apphttp "github.com/defi-direct/bridge-middleware/pkg/app/http"
	"github.com/defi-direct/bridge-middleware/pkg/auth"
)

const maxBodySize = 1 << 20

// HTTP exposes the ledger Service over chi routes
type HTTP struct {
	service  Service
	validate *validator.Validate
	logger   *zap.Logger
}

// RegisterUserRoutes registers the signature-authenticated initiate endpoint
// and the open query endpoints
func RegisterUserRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := newHTTP(service, logger)

	r.Post("/transactions", apphttp.HandleError(h.initiate))
}

// RegisterQueryRoutes registers the unauthenticated read endpoints
func RegisterQueryRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := newHTTP(service, logger)

	r.Get("/transactions/{id}", apphttp.HandleError(h.getTransaction))
	r.Get("/depositors/{address}/transactions", apphttp.HandleError(h.listTransactionIDs))
	r.Get("/tokens/{token}", apphttp.HandleError(h.getTokenInfo))
	r.Get("/info", apphttp.HandleError(h.getInfo))
}

// RegisterOperatorRoutes registers the operator-token-authenticated
// settlement and admin endpoints
func RegisterOperatorRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := newHTTP(service, logger)

	r.Post("/transactions/{id}/complete", apphttp.HandleError(h.complete))
	r.Post("/transactions/{id}/refund", apphttp.HandleError(h.refund))
	r.Post("/tokens", apphttp.HandleError(h.addToken))
	r.Delete("/tokens/{token}", apphttp.HandleError(h.removeToken))
	r.Put("/spread-fee", apphttp.HandleError(h.updateSpreadFee))
	r.Put("/fee-receiver", apphttp.HandleError(h.setFeeReceiver))
	r.Put("/vault", apphttp.HandleError(h.setVault))
	r.Put("/transaction-manager", apphttp.HandleError(h.setTransactionManager))
	r.Put("/relay-address", apphttp.HandleError(h.setRelayAddress))
	r.Post("/fees/withdraw", apphttp.HandleError(h.withdrawFees))
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

func parseAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, apperrors.BadRequestError(nil, "malformed amount")
	}
	return amount, nil
}

func parseAddressParam(r *http.Request, name string) (common.Address, error) {
	value := chi.URLParam(r, name)
	if !auth.ValidateEVMAddress(value) {
		return common.Address{}, apperrors.BadRequestError(nil, "malformed "+name+" address")
	}
	return common.HexToAddress(value), nil
}

func parseIDParam(r *http.Request) (ID, error) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return ID{}, apperrors.BadRequestError(err, "malformed transaction id")
	}
	return id, nil
}

type initiateRequest struct {
	Token  string `json:"token" validate:"required,eth_addr"`
	Amount string `json:"amount" validate:"required,number"`

	// Oracle-priced path, all optional together
	PriceSource    string `json:"price_source,omitempty" validate:"omitempty,eth_addr"`
	BankAccountRef string `json:"bank_account_ref,omitempty"`
	BankName       string `json:"bank_name,omitempty"`
	RecipientName  string `json:"recipient_name,omitempty"`
	FiatAmount     string `json:"fiat_amount,omitempty"`
}

type initiateResponse struct {
	TransactionID string `json:"transaction_id"`
}

func (h *HTTP) initiate(w http.ResponseWriter, r *http.Request) error {
	depositor, err := caller(r)
	if err != nil {
		return err
	}
	var req initiateRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return err
	}

	var id ID
	if req.PriceSource != "" {
		fiatAmount := decimal.Zero
		if req.FiatAmount != "" {
			fiatAmount, err = decimal.NewFromString(req.FiatAmount)
			if err != nil {
				return apperrors.BadRequestError(err, "malformed fiat amount")
			}
		}
		id, err = h.service.InitiateWithOracle(r.Context(), depositor, common.HexToAddress(req.Token), amount,
			common.HexToAddress(req.PriceSource), FiatDetails{
				BankAccountRef: req.BankAccountRef,
				BankName:       req.BankName,
				RecipientName:  req.RecipientName,
				Amount:         fiatAmount,
			})
	} else {
		id, err = h.service.Initiate(r.Context(), depositor, common.HexToAddress(req.Token), amount)
	}
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusCreated, initiateResponse{TransactionID: id.Hex()})
	return nil
}

type transactionResponse struct {
	ID           string  `json:"id"`
	Depositor    string  `json:"depositor"`
	Token        string  `json:"token"`
	LockedAmount string  `json:"locked_amount"`
	Fee          string  `json:"fee"`
	AmountSpent  *string `json:"amount_spent,omitempty"`
	Completed    bool    `json:"completed"`
	Refunded     bool    `json:"refunded"`
	InitiatedAt  string  `json:"initiated_at"`
	SettledAt    *string `json:"settled_at,omitempty"`

	BankAccountRef string `json:"bank_account_ref,omitempty"`
	BankName       string `json:"bank_name,omitempty"`
	RecipientName  string `json:"recipient_name,omitempty"`
	FiatAmount     string `json:"fiat_amount,omitempty"`
}

func toTransactionResponse(txn *Transaction) transactionResponse {
	resp := transactionResponse{
		ID:           txn.ID.Hex(),
		Depositor:    txn.Depositor.Hex(),
		Token:        txn.Token.Hex(),
		LockedAmount: txn.LockedAmount.String(),
		Fee:          txn.Fee.String(),
		Completed:    txn.Completed,
		Refunded:     txn.Refunded,
		InitiatedAt:  txn.InitiatedAt.UTC().Format(timeFormat),
	}
	if txn.AmountSpent != nil {
		spent := txn.AmountSpent.String()
		resp.AmountSpent = &spent
	}
	if txn.SettledAt != nil {
		settled := txn.SettledAt.UTC().Format(timeFormat)
		resp.SettledAt = &settled
	}
	if txn.Fiat != nil {
		resp.BankAccountRef = txn.Fiat.BankAccountRef
		resp.BankName = txn.Fiat.BankName
		resp.RecipientName = txn.Fiat.RecipientName
		resp.FiatAmount = txn.Fiat.Amount.String()
	}
	return resp
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

func (h *HTTP) getTransaction(w http.ResponseWriter, r *http.Request) error {
	id, err := parseIDParam(r)
	if err != nil {
		return err
	}
	txn, err := h.service.Transaction(r.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(txn))
	return nil
}

func (h *HTTP) listTransactionIDs(w http.ResponseWriter, r *http.Request) error {
	depositor, err := parseAddressParam(r, "address")
	if err != nil {
		return err
	}
	ids, err := h.service.TransactionIDs(r.Context(), depositor)
	if err != nil {
		return err
	}
	hexIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		hexIDs = append(hexIDs, id.Hex())
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction_ids": hexIDs})
	return nil
}

func (h *HTTP) getTokenInfo(w http.ResponseWriter, r *http.Request) error {
	token, err := parseAddressParam(r, "token")
	if err != nil {
		return err
	}
	fees, err := h.service.CollectedFees(r.Context(), token)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":          token.Hex(),
		"supported":      h.service.IsTokenSupported(token),
		"collected_fees": fees.String(),
	})
	return nil
}

func (h *HTTP) getInfo(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":               h.service.Owner().Hex(),
		"transaction_manager": h.service.TransactionManager().Hex(),
		"fee_receiver":        h.service.FeeReceiver().Hex(),
		"vault":               h.service.Vault().Hex(),
		"spread_fee_bps":      h.service.SpreadFee(),
		"paused":              h.service.Paused(),
	})
	return nil
}

type completeRequest struct {
	AmountSpent string `json:"amount_spent" validate:"required,number"`
}

func (h *HTTP) complete(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	id, err := parseIDParam(r)
	if err != nil {
		return err
	}
	var req completeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	amountSpent, err := parseAmount(req.AmountSpent)
	if err != nil {
		return err
	}
	if err := h.service.Complete(r.Context(), callerAddr, id, amountSpent); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
	return nil
}

func (h *HTTP) refund(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	id, err := parseIDParam(r)
	if err != nil {
		return err
	}
	if err := h.service.Refund(r.Context(), callerAddr, id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
	return nil
}

type addTokenRequest struct {
	Token    string `json:"token" validate:"required,eth_addr"`
	Decimals uint8  `json:"decimals" validate:"lte=36"`
}

func (h *HTTP) addToken(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req addTokenRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if err := h.service.AddSupportedToken(r.Context(), callerAddr, common.HexToAddress(req.Token), req.Decimals); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
	return nil
}

func (h *HTTP) removeToken(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	token, err := parseAddressParam(r, "token")
	if err != nil {
		return err
	}
	if err := h.service.RemoveSupportedToken(r.Context(), callerAddr, token); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
	return nil
}

type spreadFeeRequest struct {
	SpreadFeeBps uint32 `json:"spread_fee_bps"`
}

func (h *HTTP) updateSpreadFee(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req spreadFeeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	if err := h.service.UpdateSpreadFee(r.Context(), callerAddr, req.SpreadFeeBps); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	return nil
}

type addressRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

func (h *HTTP) setAddress(r *http.Request, set func(callerAddr, addr common.Address) error) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req addressRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	return set(callerAddr, common.HexToAddress(req.Address))
}

func (h *HTTP) setFeeReceiver(w http.ResponseWriter, r *http.Request) error {
	if err := h.setAddress(r, func(callerAddr, addr common.Address) error {
		return h.service.SetFeeReceiver(r.Context(), callerAddr, addr)
	}); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	return nil
}

func (h *HTTP) setVault(w http.ResponseWriter, r *http.Request) error {
	if err := h.setAddress(r, func(callerAddr, addr common.Address) error {
		return h.service.SetVault(r.Context(), callerAddr, addr)
	}); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	return nil
}

func (h *HTTP) setTransactionManager(w http.ResponseWriter, r *http.Request) error {
	if err := h.setAddress(r, func(callerAddr, addr common.Address) error {
		return h.service.SetTransactionManager(r.Context(), callerAddr, addr)
	}); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	return nil
}

func (h *HTTP) setRelayAddress(w http.ResponseWriter, r *http.Request) error {
	if err := h.setAddress(r, func(callerAddr, addr common.Address) error {
		return h.service.SetRelayAddress(r.Context(), callerAddr, addr)
	}); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	return nil
}

type withdrawFeesRequest struct {
	Token string `json:"token" validate:"required,eth_addr"`
	To    string `json:"to" validate:"required,eth_addr"`
}

func (h *HTTP) withdrawFees(w http.ResponseWriter, r *http.Request) error {
	callerAddr, err := caller(r)
	if err != nil {
		return err
	}
	var req withdrawFeesRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}
	amount, err := h.service.WithdrawFees(r.Context(), callerAddr, common.HexToAddress(req.Token), common.HexToAddress(req.To))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "withdrawn", "amount": amount.String()})
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
	if err := h.setAddress(r, func(callerAddr, addr common.Address) error {
		return h.service.TransferOwnership(r.Context(), callerAddr, addr)
	}); err != nil {
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
