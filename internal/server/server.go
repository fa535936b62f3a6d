package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/fantastictask/internal/handler"
	"github.com/dukerupert/fantastictask/internal/middleware"
	"github.com/dukerupert/fantastictask/internal/schedule"
	ws "github.com/dukerupert/fantastictask/internal/websocket"
)

type Server struct {
	db            *sql.DB
	svc           *schedule.Service
	hub           *ws.Hub
	taskH         *handler.TaskHandler
	completionH   *handler.CompletionHandler
	familyMemberH *handler.FamilyMemberHandler
	rewardH       *handler.RewardHandler
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

// New wires the HTTP surface over svc. The hub should be the service's
// publisher so that /ws subscribers see every committed change.
func New(db *sql.DB, svc *schedule.Service, hub *ws.Hub, logger *slog.Logger) *Server {
	return &Server{
		db:            db,
		svc:           svc,
		hub:           hub,
		taskH:         handler.NewTaskHandler(svc, logger.With("component", "task")),
		completionH:   handler.NewCompletionHandler(svc, logger.With("component", "completion")),
		familyMemberH: handler.NewFamilyMemberHandler(svc, logger.With("component", "family_member")),
		rewardH:       handler.NewRewardHandler(svc, logger.With("component", "reward")),
		rateLimiter:   middleware.NewRateLimiter(10, time.Minute),
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)

	identify := middleware.Identify(s.svc)
	outerMux.Handle("GET /ws", identify(ws.HandleWebSocket(s.hub)))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/api/", identify(protectedMux))

	logged := middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
	return middleware.RequestID(logged)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// rateLimitedHandler throttles per acting member. Verification routes check
// a PIN, so this bounds guessing.
func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.Handler {
	return s.rateLimiter.Middleware(middleware.MemberKey)(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Tasks
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("GET /api/tasks/{id}/assignments", s.taskH.Assignments)
	mux.HandleFunc("POST /api/tasks/{id}/assignments", s.taskH.Assign)
	mux.HandleFunc("GET /api/day", s.taskH.Day)

	// Completions and verification
	mux.HandleFunc("POST /api/completions", s.completionH.Create)
	mux.HandleFunc("POST /api/assignments/{id}/complete", s.completionH.CompleteAssignment)
	mux.HandleFunc("DELETE /api/completions/{id}", s.completionH.Undo)
	mux.Handle("POST /api/completions/{id}/approve", s.rateLimitedHandler(s.completionH.Approve))
	mux.Handle("POST /api/completions/{id}/reject", s.rateLimitedHandler(s.completionH.Reject))
	mux.HandleFunc("GET /api/verifications/pending", s.completionH.Pending)

	// Family members
	mux.HandleFunc("GET /api/members", s.familyMemberH.List)
	mux.HandleFunc("POST /api/members", s.familyMemberH.Create)
	mux.HandleFunc("PUT /api/members/{id}/role", s.familyMemberH.ChangeRole)
	mux.HandleFunc("PUT /api/members/{id}/pin", s.familyMemberH.SetPIN)
	mux.HandleFunc("DELETE /api/members/{id}/pin", s.familyMemberH.ClearPIN)
	mux.HandleFunc("GET /api/members/{id}/assignments", s.familyMemberH.Assignments)
	mux.HandleFunc("GET /api/members/{id}/completions", s.familyMemberH.Completions)
	mux.HandleFunc("GET /api/members/{id}/stats", s.familyMemberH.Stats)
	mux.HandleFunc("POST /api/members/{id}/points/adjust", s.familyMemberH.AdjustPoints)

	// Points and rewards
	mux.HandleFunc("GET /api/leaderboard", s.rewardH.Leaderboard)
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("GET /api/bonus", s.rewardH.Bonus)
}
