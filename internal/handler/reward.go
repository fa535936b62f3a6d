package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/fantastictask/internal/schedule"
	"github.com/dukerupert/fantastictask/internal/scoring"
)

type RewardHandler struct {
	svc    *schedule.Service
	logger *slog.Logger
}

func NewRewardHandler(svc *schedule.Service, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{svc: svc, logger: logger}
}

func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	rewards, err := h.svc.ListRewards(r.Context())
	if err != nil {
		writeErr(w, h.logger, "list rewards", err)
		return
	}
	writeData(w, http.StatusOK, rewards)
}

func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req schedule.RewardInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	reward, err := h.svc.CreateReward(r.Context(), req)
	if err != nil {
		writeErr(w, h.logger, "create reward", err)
		return
	}
	writeData(w, http.StatusCreated, reward)
}

func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req schedule.RewardInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	reward, err := h.svc.UpdateReward(r.Context(), id, req)
	if err != nil {
		writeErr(w, h.logger, "update reward", err)
		return
	}
	writeData(w, http.StatusOK, reward)
}

func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	if err := h.svc.DeleteReward(r.Context(), id); err != nil {
		writeErr(w, h.logger, "delete reward", err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"id": id})
}

// Redeem spends points for a reward. The body may name another member_id;
// without it the acting member redeems.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid id")
		return
	}

	var req struct {
		MemberID int64 `json:"member_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid JSON")
		return
	}

	t, err := h.svc.RedeemReward(r.Context(), id, req.MemberID)
	if err != nil {
		writeErr(w, h.logger, "redeem reward", err)
		return
	}
	writeData(w, http.StatusCreated, t)
}

func (h *RewardHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Leaderboard(r.Context())
	if err != nil {
		writeErr(w, h.logger, "load leaderboard", err)
		return
	}
	writeData(w, http.StatusOK, board)
}

// Bonus previews the points a completion would earn:
// GET /api/bonus?base=10&time_spent=45&estimated=30.
func (h *RewardHandler) Bonus(w http.ResponseWriter, r *http.Request) {
	base, err := optionalInt(r, "base")
	if err != nil {
		writeErr(w, h.logger, "preview bonus", err)
		return
	}
	spent, err := optionalInt(r, "time_spent")
	if err != nil {
		writeErr(w, h.logger, "preview bonus", err)
		return
	}
	est, err := optionalInt(r, "estimated")
	if err != nil {
		writeErr(w, h.logger, "preview bonus", err)
		return
	}
	writeData(w, http.StatusOK, scoring.CalculateTotalPoints(base, spent, est))
}
