package api

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"stranger-chat/internal/server"
	"stranger-chat/internal/stats"
)

type healthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Connections int64     `json:"connections"`
	ActiveRooms int64     `json:"active_rooms"`
	QueueLength int64     `json:"queue_length"`
}

func (s *ChatApp) health(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Connections: s.stats.Value(stats.ConnectionsGauge),
		ActiveRooms: s.stats.Value(stats.ActiveRoomsGauge),
		QueueLength: s.stats.Value(stats.QueueLengthGauge),
	})
}

func (s *ChatApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				// if no origin header, allow the request
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	id, err := shortid.Generate()
	if err != nil {
		s.log.Println("error generating connection id:", err)
		conn.Close()
		return
	}

	client := server.NewClient(id, conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}

func (s *ChatApp) writeJson(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Println("error encoding response:", err)
	}
}
