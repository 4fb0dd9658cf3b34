package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rflorenc/ng-migrator/internal/models"
)

const (
	logPollInterval = 200 * time.Millisecond
	logWriteWait    = 10 * time.Second

	// Control frame payloads are limited to 125 bytes, two of them the code.
	maxCloseReason = 123
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamJobLogs streams job log lines over WebSocket until the job is done
// and every line has been sent. ?offset=N resumes after the first N lines.
// The close frame carries the final status and error.
func (s *Server) StreamJobLogs(w http.ResponseWriter, r *http.Request) {
	job := s.Jobs.Get(chi.URLParam(r, "id"))
	if job == nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(logPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			// Status first, so lines appended before the job finished are not lost.
			done := job.Done()
			lines := job.LogsSince(offset)
			for _, line := range lines {
				conn.SetWriteDeadline(time.Now().Add(logWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
					return
				}
				offset++
			}
			if done && len(lines) == 0 {
				conn.SetWriteDeadline(time.Now().Add(logWriteWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReason(job.Snapshot())))
				return
			}
		}
	}
}

func closeReason(v models.JobView) string {
	reason := v.Status
	if v.Error != "" {
		reason += ": " + v.Error
	}
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	return reason
}
