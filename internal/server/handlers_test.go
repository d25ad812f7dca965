package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowmanager/pkg/eventbus"
	"flowmanager/pkg/flow"
	"flowmanager/pkg/intent"
	"flowmanager/pkg/ofswitch"
	"flowmanager/pkg/openflow/ofp"
	"flowmanager/pkg/orchestrator"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*FlowHandler, *ofswitch.Registry) {
	t.Helper()
	bus := eventbus.New()
	switches := ofswitch.NewRegistry()
	store := intent.NewInMemory(nil, nil)
	controller := orchestrator.New(nil, bus, switches, store, orchestrator.DefaultConfig())
	return NewFlowHandler(controller), switches
}

func newTestRouter(h *FlowHandler) http.Handler {
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, json.NewDecoder(body).Decode(&e))
	return e
}

func TestFlowHandler_Add_Success(t *testing.T) {
	h, switches := newTestHandler(t)
	dpid := flow.DPID("00:00:00:00:00:00:00:01")
	switches.Put(ofswitch.New(dpid, ofp.VersionOF13, true))

	body := `{"flows":[{"priority":100,"match":{"in_port":1},"actions":[{"action_type":"output","port":2}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/v2/flows/"+dpid.String(), bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec.Body)
	assert.Equal(t, "FlowMod Messages Sent", env.Response)
}

func TestFlowHandler_Add_UnknownDPID(t *testing.T) {
	h, _ := newTestHandler(t)

	body := `{"flows":[{"match":{"in_port":1}}]}`
	req := httptest.NewRequest(http.MethodPost, "/v2/flows/00:00:00:00:00:00:00:99", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlowHandler_Add_DisabledSwitch(t *testing.T) {
	h, switches := newTestHandler(t)
	dpid := flow.DPID("00:00:00:00:00:00:00:02")
	switches.Put(ofswitch.New(dpid, ofp.VersionOF13, false))

	body := `{"flows":[{"match":{"in_port":1}}]}`
	req := httptest.NewRequest(http.MethodPost, "/v2/flows/"+dpid.String(), bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlowHandler_Add_EmptyFlowsIsBadRequest(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v2/flows", bytes.NewBufferString(`{"flows":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlowHandler_Add_MalformedBodyIsBadRequest(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v2/flows", bytes.NewBufferString(`not json`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlowHandler_Add_WrongContentTypeIsUnsupportedMediaType(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v2/flows", bytes.NewBufferString(`{"flows":[{}]}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestFlowHandler_Add_MissingContentTypeIsUnsupportedMediaType(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v2/flows", bytes.NewBufferString(`{"flows":[{}]}`))
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestFlowHandler_List_UnknownDPID(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v2/flows/00:00:00:00:00:00:00:77", nil)
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlowHandler_List_AllSwitches(t *testing.T) {
	h, switches := newTestHandler(t)
	dpid := flow.DPID("00:00:00:00:00:00:00:03")
	switches.Put(ofswitch.New(dpid, ofp.VersionOF13, true))

	req := httptest.NewRequest(http.MethodGet, "/v2/flows", nil)
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var result map[string][]flow.Description
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Contains(t, result, dpid.String())
}

func TestFlowHandler_Delete_ViaDeletePath(t *testing.T) {
	h, switches := newTestHandler(t)
	dpid := flow.DPID("00:00:00:00:00:00:00:04")
	switches.Put(ofswitch.New(dpid, ofp.VersionOF13, true))

	body := `{"flows":[{"match":{"in_port":1}}]}`
	req := httptest.NewRequest(http.MethodPost, "/v2/delete/"+dpid.String(), bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	newTestRouter(h).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
