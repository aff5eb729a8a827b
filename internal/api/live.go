package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/event-wizard/internal/models"
)

const liveWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// liveConn serialises writes to a websocket connection
type liveConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *liveConn) send(msg models.LiveMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal live message", "error", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(liveWriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send live message", "error", err)
		return err
	}
	return nil
}

func (c *liveConn) sendError(sessionID, message string) {
	c.send(models.LiveMessage{
		Type:      models.LiveError,
		SessionID: sessionID,
		Message:   message,
	})
}

// handleLive streams toasts, location changes and submission updates of a
// session over a websocket and accepts navigate messages from the browser
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id := SessionIDFromContext(r.Context())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	messages, release, err := s.sessions.Subscribe(ctx, id)
	if err != nil {
		respondWizardError(w, err, "subscribe to wizard session", id)
		return
	}
	defer release()

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer ws.Close()

	conn := &liveConn{conn: ws}
	slog.Info("live websocket connected", "session_id", id)

	// Start the browser on the session's active step
	if current, err := s.sessions.Get(ctx, id); err == nil {
		conn.send(models.LiveMessage{
			Type:       models.LiveLocation,
			SessionID:  id,
			Location:   current.Location,
			Submission: &current.Submission,
		})
	}

	var wg sync.WaitGroup

	// Session -> WebSocket
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if err := conn.send(msg); err != nil {
					return
				}
			}
		}
	}()

	// WebSocket -> session
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}

			var msg models.LiveMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				conn.sendError(id, "invalid message format")
				continue
			}

			switch msg.Type {
			case models.LiveNavigate:
				resp, err := s.sessions.Navigate(ctx, id, string(msg.Location))
				if err != nil {
					conn.sendError(id, err.Error())
					continue
				}
				// Moves are echoed through the subscription; a refused token
				// is answered with the step that stays active
				if !resp.Moved {
					conn.send(models.LiveMessage{
						Type:      models.LiveLocation,
						SessionID: id,
						Location:  resp.Session.Location,
					})
				}
			default:
				conn.sendError(id, "unsupported message type: "+string(msg.Type))
			}
		}
	}()

	// Unblock the reader once the writer stops
	go func() {
		<-ctx.Done()
		ws.Close()
	}()

	wg.Wait()
	slog.Info("live websocket disconnected", "session_id", id)
}
