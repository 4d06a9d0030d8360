package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/izgubljeno/internal/scheduler"
)

// SchedulerHandler exposes the lifecycle scheduler to administrators.
type SchedulerHandler struct {
	Scheduler *scheduler.Scheduler
}

type schedulerStatus struct {
	LastRun *time.Time `json:"last_run,omitempty"`
	NextRun time.Time  `json:"next_run"`
}

// Status handles GET /api/scheduler.
func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	last, err := h.Scheduler.LastRun(r.Context())
	if err != nil {
		slog.Error("failed to read last sweep time", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := schedulerStatus{NextRun: h.Scheduler.NextRun(h.Scheduler.Now())}
	if !last.IsZero() {
		status.LastRun = &last
	}
	jsonResponse(w, http.StatusOK, status)
}

// Run handles POST /api/scheduler/run.
func (h *SchedulerHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.Scheduler.RunOnce(r.Context())
	if errors.Is(err, scheduler.ErrLocked) {
		jsonError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		slog.Error("manual sweep failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "sweep failed")
		return
	}

	slog.Info("manual sweep finished", "user", actor(r).Username,
		"marked", report.Marked.Processed, "discarded", report.Discarded.Processed)
	jsonResponse(w, http.StatusOK, report)
}
