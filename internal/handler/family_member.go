package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fantastictask/internal/model"
	"github.com/dukerupert/fantastictask/internal/schedule"
)

type FamilyMemberHandler struct {
	svc    *schedule.Service
	logger *slog.Logger
}

func NewFamilyMemberHandler(svc *schedule.Service, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{svc: svc, logger: logger}
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.ListMembers(r.Context())
	if err != nil {
		writeErr(w, h.logger, "list family members", err)
		return
	}
	writeData(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string     `json:"name"`
		Role model.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	m, err := h.svc.CreateMember(r.Context(), req.Name, req.Role)
	if err != nil {
		writeErr(w, h.logger, "create family member", err)
		return
	}
	writeData(w, http.StatusCreated, m)
}

func (h *FamilyMemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req struct {
		Role model.Role `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	m, err := h.svc.ChangeRole(r.Context(), id, req.Role)
	if err != nil {
		writeErr(w, h.logger, "change role", err)
		return
	}
	writeData(w, http.StatusOK, m)
}

func (h *FamilyMemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	if err := h.svc.SetPIN(r.Context(), id, req.PIN); err != nil {
		writeErr(w, h.logger, "set PIN", err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "pin set"})
}

func (h *FamilyMemberHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	if err := h.svc.ClearPIN(r.Context(), id); err != nil {
		writeErr(w, h.logger, "clear PIN", err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": "pin cleared"})
}

func (h *FamilyMemberHandler) Assignments(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}
	date, err := h.svc.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeErr(w, h.logger, "list assignments", err)
		return
	}

	list, err := h.svc.TasksForMember(r.Context(), id, date)
	if err != nil {
		writeErr(w, h.logger, "list assignments", err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (h *FamilyMemberHandler) Completions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}
	date, err := h.svc.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeErr(w, h.logger, "list completions", err)
		return
	}

	list, err := h.svc.CompletionsForMember(r.Context(), id, date)
	if err != nil {
		writeErr(w, h.logger, "list completions", err)
		return
	}
	writeData(w, http.StatusOK, list)
}

// Stats reports the member's totals and streaks as of ?date= (default today).
func (h *FamilyMemberHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}
	asOf, err := h.svc.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeErr(w, h.logger, "load stats", err)
		return
	}

	stats, err := h.svc.MemberStats(r.Context(), id, asOf)
	if err != nil {
		writeErr(w, h.logger, "load stats", err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

func (h *FamilyMemberHandler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req struct {
		Points      int    `json:"points"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	t, err := h.svc.AdjustPoints(r.Context(), id, req.Points, req.Description)
	if err != nil {
		writeErr(w, h.logger, "adjust points", err)
		return
	}
	writeData(w, http.StatusCreated, t)
}
