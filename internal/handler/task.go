package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/schedule"
)

type TaskHandler struct {
	svc    *schedule.Service
	logger *slog.Logger
}

func NewTaskHandler(svc *schedule.Service, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req schedule.TaskInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	task, err := h.svc.CreateTask(r.Context(), req)
	if err != nil {
		writeErr(w, h.logger, "create task", err)
		return
	}
	writeData(w, http.StatusCreated, task)
}

// List returns active tasks; ?all=true includes deactivated ones.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.ListTasks(r.Context(), r.URL.Query().Get("all") == "true")
	if err != nil {
		writeErr(w, h.logger, "list tasks", err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	writeData(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	task, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		writeErr(w, h.logger, "get task", err)
		return
	}
	writeData(w, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req schedule.TaskInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	task, err := h.svc.UpdateTask(r.Context(), id, req)
	if err != nil {
		writeErr(w, h.logger, "update task", err)
		return
	}
	writeData(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	if err := h.svc.DeleteTask(r.Context(), id); err != nil {
		writeErr(w, h.logger, "delete task", err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *TaskHandler) Day(w http.ResponseWriter, r *http.Request) {
	date, err := h.svc.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeErr(w, h.logger, "load day", err)
		return
	}

	view, err := h.svc.DayView(r.Context(), date)
	if err != nil {
		writeErr(w, h.logger, "load day", err)
		return
	}
	if view == nil {
		view = []schedule.TaskWithStatus{}
	}
	writeData(w, http.StatusOK, view)
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req struct {
		MemberID int64  `json:"member_id"`
		DueDate  string `json:"due_date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}
	due, err := h.svc.ParseDate(req.DueDate)
	if err != nil {
		writeErr(w, h.logger, "assign task", err)
		return
	}

	a, err := h.svc.AssignTask(r.Context(), id, req.MemberID, due)
	if err != nil {
		writeErr(w, h.logger, "assign task", err)
		return
	}
	writeData(w, http.StatusCreated, a)
}

func (h *TaskHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	list, err := h.svc.TaskAssignments(r.Context(), id)
	if err != nil {
		writeErr(w, h.logger, "list assignments", err)
		return
	}
	if list == nil {
		list = []model.Assignment{}
	}
	writeData(w, http.StatusOK, list)
}
