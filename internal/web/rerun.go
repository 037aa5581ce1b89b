package web

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/KaramelBytes/flightdash/internal/charts"
)

// RerunRequest is one widget change sent by the dashboard page.
type RerunRequest struct {
	Seq    int         `json:"seq"`
	Chart  charts.Name `json:"chart"`
	Months []int       `json:"months"`
	Days   []int       `json:"days"`
	Values []string    `json:"values"`
}

// RerunResponse carries the recomputed chart, or an error for requests that
// could not be computed at all.
type RerunResponse struct {
	Seq    int            `json:"seq"`
	Conn   string         `json:"conn"`
	Result *charts.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// handleRerun recomputes a chart for every message received on the socket.
// Messages are handled in order, one at a time.
func (s *Server) handleRerun(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	log := s.log.With("conn", id)
	log.Debug("websocket connected", "remote", r.RemoteAddr)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read", "err", err)
			}
			return
		}
		var req RerunRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			// A malformed message is answered; the connection stays open.
			if err := conn.WriteJSON(RerunResponse{Conn: id, Error: "invalid request: " + err.Error()}); err != nil {
				return
			}
			continue
		}

		resp := RerunResponse{Seq: req.Seq, Conn: id}
		res, err := s.compute(req.Chart, charts.Lookup(req.Chart).Selection(req.Months, req.Days, req.Values))
		if err != nil {
			log.Warn("rerun failed", "chart", req.Chart, "err", err)
			resp.Error = err.Error()
		} else {
			resp.Result = &res
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Debug("websocket write", "err", err)
			return
		}
	}
}
