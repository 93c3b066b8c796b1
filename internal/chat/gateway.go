package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bozormarket/backend/internal/presence"
	"github.com/bozormarket/backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// frame is the envelope of every websocket event
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinChatData struct {
	SenderID   uint `json:"sender_id"`
	ReceiverID uint `json:"receiver_id"`
}

// Gateway upgrades HTTP connections into chat sessions: it registers
// presence, subscribes clients to rooms and feeds inbound messages to
// the delivery router.
type Gateway struct {
	hub      *Hub
	tracker  *presence.Tracker
	router   *DeliveryRouter
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

func NewGateway(hub *Hub, tracker *presence.Tracker, router *DeliveryRouter, log *logger.Logger) *Gateway {
	return &Gateway{
		hub:     hub,
		tracker: tracker,
		router:  router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Serve upgrades the request and runs the connection until it closes
func (g *Gateway) Serve(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
		hub:    g.hub,
	}
	g.hub.add(client)

	go g.writePump(client)
	go g.readPump(client)
	return nil
}

func (g *Gateway) readPump(client *Client) {
	defer func() {
		g.tracker.Unregister(client.ID)
		g.hub.remove(client.ID)
		_ = client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Warnw("websocket read failed", "client_id", client.ID, "error", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			g.logger.Warnw("dropping malformed websocket frame", "client_id", client.ID, "error", err)
			continue
		}
		g.handleFrame(client, f)
	}
}

func (g *Gateway) handleFrame(client *Client, f frame) {
	switch f.Event {
	case "joinChat":
		var data joinChatData
		if err := json.Unmarshal(f.Data, &data); err != nil {
			return
		}
		g.hub.Join(client, RoomName(data.SenderID, data.ReceiverID))
		g.tracker.Register(data.SenderID, client.ID)

	case "message":
		var in IncomingMessage
		if err := json.Unmarshal(f.Data, &in); err != nil {
			return
		}
		// The sender is whoever owns the socket, not whatever the frame claims
		in.SenderID = client.UserID

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := g.router.Deliver(ctx, in); err != nil {
			g.logger.Errorw("message delivery failed", "client_id", client.ID, "error", err)
		}
		cancel()

	default:
		g.logger.Debugw("ignoring unknown websocket event", "event", f.Event)
	}
}

func (g *Gateway) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
