package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/taskmatch/internal/assignerr"
	"github.com/MikeSquared-Agency/taskmatch/internal/broker"
)

// Assigner is the part of the broker the HTTP layer needs.
type Assigner interface {
	AutoAssignTaskByID(ctx context.Context, taskID uuid.UUID) (*broker.AssignmentResult, error)
	RankCandidatesByID(ctx context.Context, taskID uuid.UUID) (*broker.Ranking, error)
}

type TasksHandler struct {
	assigner Assigner
	logger   *slog.Logger
}

func NewTasksHandler(a Assigner, logger *slog.Logger) *TasksHandler {
	return &TasksHandler{assigner: a, logger: logger}
}

func (h *TasksHandler) AutoAssign(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	res, err := h.assigner.AutoAssignTaskByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TasksHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDParam(w, r)
	if !ok {
		return
	}
	ranking, err := h.assigner.RankCandidatesByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func taskIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid task id"})
		return uuid.Nil, false
	}
	return id, true
}

type errorBody struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind,omitempty"`
	Pending []string `json:"pending_dependencies,omitempty"`
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind assignerr.Kind) int {
	switch kind {
	case assignerr.KindNotFound:
		return http.StatusNotFound
	case assignerr.KindEmptyProject, assignerr.KindNoEligibleMembers,
		assignerr.KindNoSuitableMember, assignerr.KindDependenciesNotComplete:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *TasksHandler) writeError(w http.ResponseWriter, err error) {
	var ae *assignerr.Error
	if !errors.As(err, &ae) {
		h.logger.Error("unexpected assignment error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	status := statusFor(ae.Kind)
	body := errorBody{Error: ae.Msg, Kind: string(ae.Kind)}
	if status == http.StatusInternalServerError {
		h.logger.Error("assignment failed", "kind", ae.Kind, "error", err)
		body.Error = "persistence failure"
	}
	for _, id := range ae.Pending {
		body.Pending = append(body.Pending, id.String())
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
