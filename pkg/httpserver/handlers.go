package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/internal/cycle"
)

type handler struct {
	cycles    CycleTrigger
	ledger    LedgerReader
	submitter Halter
	logs      LogSource
	logger    *zap.Logger
}

func newHandler(cfg *Config) *handler {
	return &handler{
		cycles:    cfg.Cycles,
		ledger:    cfg.Ledger,
		submitter: cfg.Submitter,
		logs:      cfg.Logs,
		logger:    cfg.Logger,
	}
}

// triggerCycle kicks off a decision cycle. A cycle already in progress
// is reported as a conflict, not queued. Cycles outlive the request, so
// the normal response is 202 with the completed summary available later
// from /api/status.
func (h *handler) triggerCycle(w http.ResponseWriter, r *http.Request) {
	result := make(chan error, 1)
	go func() {
		_, err := h.cycles.RunCycle(context.WithoutCancel(r.Context()))
		result <- err
	}()

	select {
	case err := <-result:
		if errors.Is(err, cycle.ErrCycleInProgress) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, h.cycles.LastSummary())
	case <-time.After(100 * time.Millisecond):
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "cycle started"})
	}
}

type statusResponse struct {
	Halted    bool           `json:"halted"`
	LastCycle *cycle.Summary `json:"last_cycle,omitempty"`
}

func (h *handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Halted:    h.submitter.Halted(),
		LastCycle: h.cycles.LastSummary(),
	})
}

func (h *handler) orders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Orders())
}

func (h *handler) positions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ledger.Positions())
}

func (h *handler) logsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, err := w.Write([]byte(strings.Join(h.logs.Lines(), "")))
	if err != nil {
		h.logger.Warn("logs-write-failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// The status line is already written; an encode failure here just
	// truncates the body.
	_ = json.NewEncoder(w).Encode(v)
}
