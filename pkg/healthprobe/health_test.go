package healthprobe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doProbe(t *testing.T, handler http.HandlerFunc) (int, HealthResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler(rec, req)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestHealth_Healthy(t *testing.T) {
	h := New()

	code, resp := doProbe(t, h.Health())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealth_Halted(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.SetHalted()

	code, resp := doProbe(t, h.Health())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "halted", resp.Status)

	// Halting also drops readiness.
	code, _ = doProbe(t, h.Ready())
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestReady_NotReadyByDefault(t *testing.T) {
	h := New()

	code, resp := doProbe(t, h.Ready())
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", resp.Status)
}

func TestReady_AfterSetReady(t *testing.T) {
	h := New()
	h.SetReady(true)

	code, resp := doProbe(t, h.Ready())
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", resp.Status)
}

func TestReady_Toggle(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.SetReady(false)

	code, _ := doProbe(t, h.Ready())
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
