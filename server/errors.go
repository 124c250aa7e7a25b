package server

import (
	"encoding/json"
	"errors"
	"net/http"

	errorsmod "cosmossdk.io/errors"

	consumertypes "github.com/GPTx-global/oraclelink/x/consumer/types"
	coordinatortypes "github.com/GPTx-global/oraclelink/x/coordinator/types"
	ledgertypes "github.com/GPTx-global/oraclelink/x/ledger/types"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	Codespace string `json:"codespace,omitempty"`
	Code      uint32 `json:"code,omitempty"`
}

var errorStatus = []struct {
	err    error
	status int
}{
	{coordinatortypes.ErrUnknownAgreement, http.StatusNotFound},
	{coordinatortypes.ErrUnknownRequest, http.StatusNotFound},
	{coordinatortypes.ErrUnknownRound, http.StatusNotFound},
	{coordinatortypes.ErrDuplicateAgreement, http.StatusConflict},
	{coordinatortypes.ErrDuplicateSubmission, http.StatusConflict},
	{coordinatortypes.ErrClosedRound, http.StatusConflict},
	{coordinatortypes.ErrRequestIDCollision, http.StatusConflict},
	{coordinatortypes.ErrUnauthorized, http.StatusForbidden},
	{coordinatortypes.ErrInvalidSignature, http.StatusUnauthorized},
	{coordinatortypes.ErrInsufficientPayment, http.StatusPaymentRequired},
	{coordinatortypes.ErrInsufficientWithdrawable, http.StatusPaymentRequired},
	{consumertypes.ErrInsufficientFunds, http.StatusPaymentRequired},
	{consumertypes.ErrUnauthorized, http.StatusForbidden},
	{ledgertypes.ErrInsufficientFunds, http.StatusPaymentRequired},
}

// internalABCICode is the code errorsmod reports for unregistered errors.
const internalABCICode = 1

// statusOf maps a module error to an HTTP status. Registered errors without an
// entry are client errors; anything else is internal.
func statusOf(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	if codespace == errorsmod.UndefinedCodespace && code == internalABCICode {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeErr writes err with the status, codespace and code it maps to.
func writeErr(w http.ResponseWriter, err error) {
	status := statusOf(err)
	codespace, code, log := errorsmod.ABCIInfo(err, false)
	if status == http.StatusInternalServerError {
		log = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: log, Codespace: codespace, Code: code})
}
