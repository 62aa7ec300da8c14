package api

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/pongsakornd/comic-secretary/internal/chat"
	"github.com/pongsakornd/comic-secretary/internal/stats"
)

func (s *App) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
}

func (s *App) serveChatWs(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	roomId, err := pathId(r, "id")
	if err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	room, err := s.db.GetRoomById(roomId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}
	employee, err := s.db.GetEmployeeById(room.EmployeeId)
	if err != nil {
		s.writeError(w, serviceError(err))
		return
	}
	if room.EmployerId != userId && employee.UserId != userId {
		s.writeError(w, NewForbiddenError())
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("failed to upgrade connection: %v", err)
		return
	}

	s.stats.Incr(stats.MetricChatConnections)
	defer s.stats.Decr(stats.MetricChatConnections)

	chat.NewClient(userId, roomId, conn, s.chatSvc, s.roomHub, s.log).Run()
}

func (s *App) serveNotifyWs(w http.ResponseWriter, r *http.Request) {
	userId, _ := UserId(r.Context())

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("failed to upgrade connection: %v", err)
		return
	}

	s.stats.Incr(stats.MetricNotifyConnections)
	defer s.stats.Decr(stats.MetricNotifyConnections)

	chat.NewBridge(userId, conn, s.userHub, s.log).Run()
}
