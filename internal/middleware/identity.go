package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dukerupert/fantastictask/internal/auth"
)

// MemberIDHeader carries the acting member, set by the gateway in front of
// this service after it authenticated the device.
const MemberIDHeader = "X-Member-ID"

// Identifier resolves a member id into its AuthContext.
type Identifier interface {
	Identify(ctx context.Context, memberID int64) (auth.AuthContext, error)
}

// Identify populates the AuthContext from the X-Member-ID header. Browsers
// cannot set headers on websocket upgrades, so a member_id query parameter
// is accepted as well.
func Identify(id Identifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(MemberIDHeader)
			if raw == "" {
				raw = r.URL.Query().Get("member_id")
			}
			memberID, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || memberID <= 0 {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid member id")
				return
			}

			ac, err := id.Identify(r.Context(), memberID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "unknown member")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

// writeError writes the same {data, error} envelope the handlers use.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"data":  nil,
		"error": map[string]string{"code": code, "message": message},
	})
}
