// Package httpapi exposes the token ledger as a REST API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"

	app "github.com/R3E-Network/ledger_layer/internal/app"
	tokendomain "github.com/R3E-Network/ledger_layer/internal/app/domain/token"
	"github.com/R3E-Network/ledger_layer/internal/app/metrics"
	"github.com/R3E-Network/ledger_layer/internal/token"
)

// handler bundles the HTTP endpoints for the token service.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the core REST API. Authentication and
// rate limiting are layered on by the middleware in this package.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/token", h.tokenInfo).Methods(http.MethodGet)
	r.HandleFunc("/token/balances/{address}", h.balance).Methods(http.MethodGet)
	r.HandleFunc("/token/allowances/{owner}/{spender}", h.allowance).Methods(http.MethodGet)
	r.HandleFunc("/token/events", h.events).Methods(http.MethodGet)

	r.HandleFunc("/token/transfer", h.transfer).Methods(http.MethodPost)
	r.HandleFunc("/token/approve", h.approve).Methods(http.MethodPost)
	r.HandleFunc("/token/transfer-from", h.transferFrom).Methods(http.MethodPost)
	r.HandleFunc("/token/mint", h.mint).Methods(http.MethodPost)
	r.HandleFunc("/token/burn", h.burn).Methods(http.MethodPost)
	r.HandleFunc("/token/pause", h.pause).Methods(http.MethodPost)
	r.HandleFunc("/token/unpause", h.unpause).Methods(http.MethodPost)
	r.HandleFunc("/token/asset-info", h.setAssetInfo).Methods(http.MethodPut)
	r.HandleFunc("/token/owner/transfer", h.transferOwnership).Methods(http.MethodPost)
	r.HandleFunc("/token/owner/renounce", h.renounceOwnership).Methods(http.MethodPost)
	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Read endpoints --------------------------------------------------------------

func (h *handler) tokenInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.app.Token.TokenInfo(r.Context()))
}

func (h *handler) balance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	bal := h.app.Token.BalanceOf(r.Context(), token.Address(address))
	writeJSON(w, http.StatusOK, map[string]string{
		"address": address,
		"balance": bal.Dec(),
	})
}

func (h *handler) allowance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	granted := h.app.Token.Allowance(r.Context(), token.Address(vars["owner"]), token.Address(vars["spender"]))
	writeJSON(w, http.StatusOK, map[string]string{
		"owner":     vars["owner"],
		"spender":   vars["spender"],
		"allowance": granted.Dec(),
	})
}

func (h *handler) events(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	recs, err := h.app.Token.Events(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []tokendomain.EventRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// Mutating endpoints ----------------------------------------------------------

func (h *handler) transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var payload struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.app.Token.Transfer(r.Context(), caller, token.Address(payload.To), amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var payload struct {
		Spender string `json:"spender"`
		Amount  string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.app.Token.Approve(r.Context(), caller, token.Address(payload.Spender), amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) transferFrom(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var payload struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.app.Token.TransferFrom(r.Context(), caller, token.Address(payload.From), token.Address(payload.To), amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var payload struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.app.Token.Mint(r.Context(), caller, token.Address(payload.To), amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) burn(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var payload struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.app.Token.Burn(r.Context(), caller, amount)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	rec, err := h.app.Token.Pause(r.Context(), caller)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) unpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	rec, err := h.app.Token.Unpause(r.Context(), caller)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) setAssetInfo(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var payload struct {
		URI string `json:"uri"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.app.Token.SetAssetInfo(r.Context(), caller, payload.URI)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) transferOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var payload struct {
		NewOwner string `json:"new_owner"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rec, err := h.app.Token.TransferOwnership(r.Context(), caller, token.Address(payload.NewOwner))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handler) renounceOwnership(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	rec, err := h.app.Token.RenounceOwnership(r.Context(), caller)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Helpers ---------------------------------------------------------------------

func callerOrFail(w http.ResponseWriter, r *http.Request) (token.Address, bool) {
	caller := CallerFrom(r.Context())
	if caller.IsZero() {
		writeError(w, http.StatusUnauthorized, fmt.Errorf("caller identity required"))
		return token.ZeroAddress, false
	}
	return caller, true
}

func parseAmount(raw string) (*token.Amount, error) {
	if raw == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, err := uint256.FromDecimal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

// statusForError maps the ledger error taxonomy onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, token.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, token.ErrHalted),
		errors.Is(err, token.ErrAlreadyPaused),
		errors.Is(err, token.ErrNotPaused):
		return http.StatusConflict
	case errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrInsufficientAllowance),
		errors.Is(err, token.ErrSupplyCapExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, token.ErrZeroAddress), errors.Is(err, token.ErrNilAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
