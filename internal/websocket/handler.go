package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/fantastictask/internal/auth"
)

// HandleWebSocket upgrades the request and subscribes the caller to change
// notices for their family. It must run behind the identity middleware.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // family devices connect from any origin on the LAN
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		hub.logger.Debug("subscriber connected", "member_id", ac.MemberID, "family_id", ac.FamilyID)
		NewClient(hub, conn, ac.FamilyID).Run(r.Context())
	}
}
