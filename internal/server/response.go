package server

import (
	"encoding/json"
	"net/http"
)

// envelope is the admin facade's response shape (spec §4.G): every
// response, success or failure, carries a single "response" string,
// except a successful list, which returns the per-DPID flow map.
type envelope struct {
	Response string `json:"response"`
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Response: message})
}

func writeOK(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusOK, message)
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusBadRequest, message)
}

func writeUnsupportedMediaType(w http.ResponseWriter, message string) {
	writeEnvelope(w, http.StatusUnsupportedMediaType, message)
}

// mapApplyError maps an orchestrator error to the HTTP status and
// message the admin facade surfaces (spec §4.G, §7).
func mapApplyError(err error) (status int, message string) {
	switch {
	case isNotFound(err):
		return http.StatusNotFound, "no such switch"
	case isSwitchDisabled(err):
		return http.StatusNotFound, "switch is disabled"
	case isInvalidPayload(err):
		return http.StatusBadRequest, "flows must be a non-empty sequence"
	case isInvalidCommand(err):
		return http.StatusInternalServerError, "invalid command"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
