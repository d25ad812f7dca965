package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"flowmanager/pkg/flow"
	"flowmanager/pkg/orchestrator"

	"github.com/go-chi/chi/v5"
)

func isNotFound(err error) bool       { return errors.Is(err, orchestrator.ErrNotFound) }
func isSwitchDisabled(err error) bool { return errors.Is(err, orchestrator.ErrSwitchDisabled) }
func isInvalidPayload(err error) bool { return errors.Is(err, orchestrator.ErrInvalidPayload) }
func isInvalidCommand(err error) bool { return errors.Is(err, orchestrator.ErrInvalidCommand) }

// FlowHandler implements the admin API facade (component G, spec §4.G):
// GET/POST/DELETE /v2/flows[/<dpid>] and POST /v2/delete[/<dpid>],
// grounded on dittofs's handler shape and adapted to the
// {"response": "..."} envelope spec.md requires in place of dittofs's
// RFC 7807 problem JSON.
type FlowHandler struct {
	controller *orchestrator.Controller
}

// NewFlowHandler returns a FlowHandler backed by controller.
func NewFlowHandler(controller *orchestrator.Controller) *FlowHandler {
	return &FlowHandler{controller: controller}
}

// Routes mounts the admin facade onto r.
func (h *FlowHandler) Routes(r chi.Router) {
	r.Route("/v2/flows", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{dpid}", h.List)
		r.Post("/", h.Add)
		r.Post("/{dpid}", h.Add)
		r.Delete("/", h.Delete)
		r.Delete("/{dpid}", h.Delete)
	})
	r.Route("/v2/delete", func(r chi.Router) {
		r.Post("/", h.Delete)
		r.Post("/{dpid}", h.Delete)
	})
}

func dpidParam(r *http.Request) (*flow.DPID, error) {
	raw := chi.URLParam(r, "dpid")
	if raw == "" {
		return nil, nil
	}
	dpid, err := flow.ParseDPID(raw)
	if err != nil {
		return nil, err
	}
	return &dpid, nil
}

// List handles GET /v2/flows[/<dpid>].
func (h *FlowHandler) List(w http.ResponseWriter, r *http.Request) {
	dpid, err := dpidParam(r)
	if err != nil {
		writeBadRequest(w, "invalid dpid")
		return
	}

	flows, err := h.controller.List(dpid)
	if err != nil {
		status, message := mapApplyError(err)
		writeEnvelope(w, status, message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(flows)
}

// Add handles POST /v2/flows[/<dpid>].
func (h *FlowHandler) Add(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, flow.CommandAdd)
}

// Delete handles DELETE /v2/flows[/<dpid>] and POST /v2/delete[/<dpid>].
// Every request body is applied as a non-strict delete, whatever fields
// it names; delete_strict is left to direct orchestrator callers (e.g.
// consistency reconciliation).
func (h *FlowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, flow.CommandDelete)
}

func (h *FlowHandler) apply(w http.ResponseWriter, r *http.Request, command flow.Command) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		writeUnsupportedMediaType(w, "content-type must be application/json")
		return
	}

	dpid, err := dpidParam(r)
	if err != nil {
		writeBadRequest(w, "invalid dpid")
		return
	}

	var doc flow.Doc
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeBadRequest(w, "malformed request body")
		return
	}
	if len(doc.Flows) == 0 {
		writeBadRequest(w, "flows must be a non-empty sequence")
		return
	}

	if err := h.controller.Apply(command, doc, dpid); err != nil {
		status, message := mapApplyError(err)
		writeEnvelope(w, status, message)
		return
	}

	writeOK(w, "FlowMod Messages Sent")
}
