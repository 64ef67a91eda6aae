package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/demo"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/scheduler"
	"github.com/flowstate/flowstate/internal/utils"
)

const maxBodyBytes = 64 << 10

type scheduleRequest struct {
	Strategy        string `json:"strategy"`
	MaxBlocksPerDay int    `json:"maxBlocksPerDay"`
	DryRun          bool   `json:"dryRun"`
}

type scheduleResponse struct {
	OK              bool                      `json:"ok"`
	Error           string                    `json:"error,omitempty"`
	Source          constants.Source          `json:"source"`
	DryRun          bool                      `json:"dryRun"`
	Strategy        constants.Strategy        `json:"strategy"`
	MaxBlocksPerDay int                       `json:"maxBlocksPerDay"`
	Week            models.WeekWindow         `json:"week"`
	Scheduled       []models.Assignment       `json:"scheduled"`
	Skipped         []models.SkippedTask      `json:"skipped"`
	Failed          []models.FailedAssignment `json:"failed"`
}

// handleSchedule runs one batch assignment over the demo workspace's open
// tasks. Malformed input is a 400; every other failure is a 500 with a
// JSON body, never a stack trace.
func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	strategy, err := scheduler.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MaxBlocksPerDay < 0 {
		writeError(w, http.StatusBadRequest, "maxBlocksPerDay must not be negative")
		return
	}

	run, err := s.loader.Schedule(r.Context(), s.sched, demo.ScheduleRequest{
		Strategy:       strategy,
		MaxSlotsPerDay: req.MaxBlocksPerDay,
		DryRun:         req.DryRun,
	})

	resp := scheduleResponse{
		OK:              err == nil,
		Source:          run.Source,
		DryRun:          run.DryRun,
		Strategy:        run.Strategy,
		MaxBlocksPerDay: run.MaxSlotsPerDay,
		Week:            run.Week,
		Scheduled:       run.Result.Scheduled,
		Skipped:         run.Result.Skipped,
		Failed:          run.Result.Failed,
	}
	if resp.Failed == nil {
		resp.Failed = []models.FailedAssignment{}
	}
	if err != nil {
		logger.Error("Scheduling run failed", "id", RequestID(r.Context()), "error", err)
		resp.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	week := utils.ComputeWeekWindow(s.sched.Now(), s.sched.Location())
	h := s.loader.Health(r.Context(), week)
	status := http.StatusOK
	if !h.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, h)
}
