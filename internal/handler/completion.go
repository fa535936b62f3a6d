package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fantastictask/internal/auth"
	"github.com/dukerupert/fantastictask/internal/schedule"
)

type CompletionHandler struct {
	svc    *schedule.Service
	logger *slog.Logger
}

func NewCompletionHandler(svc *schedule.Service, logger *slog.Logger) *CompletionHandler {
	return &CompletionHandler{svc: svc, logger: logger}
}

type completionRequest struct {
	schedule.CompletionInput
	Date string `json:"date"`
}

func (h *CompletionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}
	date, err := h.svc.ParseDate(req.Date)
	if err != nil {
		writeErr(w, h.logger, "complete task", err)
		return
	}
	in := req.CompletionInput
	in.Date = date

	c, err := h.svc.CompleteWithData(r.Context(), in)
	if err != nil {
		writeErr(w, h.logger, "complete task", err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

type assignmentCompletionRequest struct {
	schedule.AssignmentCompletion
	Date string `json:"date"`
}

func (h *CompletionHandler) CompleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req assignmentCompletionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}
	date, err := h.svc.ParseDate(req.Date)
	if err != nil {
		writeErr(w, h.logger, "complete assignment", err)
		return
	}
	in := req.AssignmentCompletion
	in.Date = date

	c, err := h.svc.CompleteByAssignment(r.Context(), id, in)
	if err != nil {
		writeErr(w, h.logger, "complete assignment", err)
		return
	}
	writeData(w, http.StatusCreated, c)
}

func (h *CompletionHandler) Undo(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	if err := h.svc.UndoCompletion(r.Context(), id); err != nil {
		writeErr(w, h.logger, "undo completion", err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"id": id})
}

type verifyRequest struct {
	PIN    string `json:"pin"`
	Reason string `json:"reason"`
}

// checkVerifierPIN confirms the acting member's PIN on shared devices.
// Members without a PIN pass.
func (h *CompletionHandler) checkVerifierPIN(r *http.Request, pin string) error {
	return h.svc.CheckPIN(r.Context(), auth.MemberID(r.Context()), pin)
}

func (h *CompletionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}
	if err := h.checkVerifierPIN(r, req.PIN); err != nil {
		writeErr(w, h.logger, "approve completion", err)
		return
	}

	c, err := h.svc.ApproveCompletion(r.Context(), id)
	if err != nil {
		writeErr(w, h.logger, "approve completion", err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *CompletionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req verifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}
	if err := h.checkVerifierPIN(r, req.PIN); err != nil {
		writeErr(w, h.logger, "reject completion", err)
		return
	}

	c, err := h.svc.RejectCompletion(r.Context(), id, req.Reason)
	if err != nil {
		writeErr(w, h.logger, "reject completion", err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (h *CompletionHandler) Pending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.svc.PendingVerifications(r.Context())
	if err != nil {
		writeErr(w, h.logger, "list pending verifications", err)
		return
	}
	writeData(w, http.StatusOK, pending)
}
