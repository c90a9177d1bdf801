package transport

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sus-lab/contract"
	"sus-lab/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
)

// Endpoint upgrades HTTP requests to WebSocket connections and bridges them
// to the orchestrator: inbound frames become dispatched commands, outbound
// events drain from a per-connection sink.
type Endpoint struct {
	log          *slog.Logger
	orchestrator contract.IOrchestrator
	bufferSize   int
	upgrader     websocket.Upgrader
}

func NewEndpoint(log *slog.Logger, orchestrator contract.IOrchestrator, bufferSize int) *Endpoint {
	return &Endpoint{
		log:          log,
		orchestrator: orchestrator,
		bufferSize:   bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The game is open by design: no participant authentication.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		e.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	// The connection identity is minted here and stays stable for the
	// socket's lifetime; the core trusts it blindly.
	player := domain.ParticipantID(uuid.NewString())
	sink := NewWebsocketSink(e.bufferSize)
	e.orchestrator.RegisterParticipant(player, sink)
	e.log.Info(fmt.Sprintf("Connection %s accepted", player))

	done := make(chan struct{})
	go e.writePump(conn, sink, done)
	e.readPump(conn, player)

	// Socket closed: synthesize the disconnect the client cannot send.
	close(done)
	e.orchestrator.Dispatch(domain.DisconnectCommand{Player: player})
	e.orchestrator.UnregisterParticipant(player)
	_ = conn.Close()
}

// readPump decodes client frames and dispatches them until the socket dies.
// Malformed frames are dropped, not fatal: a buggy client cannot take the
// connection down by sending garbage.
func (e *Endpoint) readPump(conn *websocket.Conn, player domain.ParticipantID) {
	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				e.log.Warn("Connection dropped", "player", player, "error", err)
			}
			return
		}

		cmd, err := DecodeCommand(player, data)
		if err != nil {
			e.log.Debug("Dropping frame", "player", player, "error", err)
			continue
		}
		e.orchestrator.Dispatch(cmd)
	}
}

// writePump serializes events from the sink onto the socket and keeps the
// connection alive with pings.
func (e *Endpoint) writePump(conn *websocket.Conn, sink *WebsocketSink, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case evt := <-sink.Events:
			data, err := EncodeEvent(evt)
			if err != nil {
				e.log.Error("Failed to encode event", "event", evt.Name, "error", err)
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
