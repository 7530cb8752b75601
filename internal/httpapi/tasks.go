package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ent0n29/foreman/internal/orchestrator"
	"github.com/ent0n29/foreman/internal/tasks"
)

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "title is required")
		return
	}

	// Create never fails outward on a remote error: a task whose session
	// could not be created comes back terminal in failed.
	task, err := s.service.Create(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "task_create_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	all, err := s.service.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "task_list_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": all})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(chi.URLParam(r, "id"))
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "invalid_task_id", "missing task id")
		return
	}

	task, err := s.service.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, tasks.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "task_not_found", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "task_get_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleApproveTask(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(chi.URLParam(r, "id"))
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "invalid_task_id", "missing task id")
		return
	}

	task, err := s.service.Approve(r.Context(), taskID)
	if err != nil {
		respondCommandError(w, "task_approval_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(chi.URLParam(r, "id"))
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "invalid_task_id", "missing task id")
		return
	}

	task, err := s.service.Cancel(r.Context(), taskID)
	if err != nil {
		respondCommandError(w, "task_cancel_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

func (s *Server) handleCreatePullRequest(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimSpace(chi.URLParam(r, "id"))
	if taskID == "" {
		respondError(w, http.StatusBadRequest, "invalid_task_id", "missing task id")
		return
	}

	var req orchestrator.PullRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Branch) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "branch is required")
		return
	}

	task, err := s.service.CreatePullRequest(r.Context(), taskID, req)
	if err != nil {
		respondCommandError(w, "pull_request_failed", err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// respondCommandError maps the orchestrator error taxonomy onto HTTP
// statuses: unknown task 404, wrong lifecycle state 409, remote collaborator
// failure 502.
func respondCommandError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, "task_not_found", err.Error())
	case errors.Is(err, tasks.ErrInvalidTaskState):
		respondError(w, http.StatusConflict, "invalid_task_state", err.Error())
	default:
		respondError(w, http.StatusBadGateway, code, err.Error())
	}
}
