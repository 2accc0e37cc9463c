package pubsub

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Guizzs26/voting_registry/internal/log"
	"github.com/Guizzs26/voting_registry/internal/model"
	"github.com/coder/websocket"
)

const (
	sendBuffer      = 16
	broadcastBuffer = 256
)

// one watcher connected via websocket
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
}

// Hub fans tally updates out to every connected watcher. Run owns the client
// set; everything else talks to it through channels.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	originPatterns []string
	log            log.SimpleLogger
}

func NewHub(originPatterns []string, logger log.SimpleLogger) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		broadcast:      make(chan []byte, broadcastBuffer),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		done:           make(chan struct{}),
		originPatterns: originPatterns,
		log:            logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			close(c.Send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}

		case message := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.Send <- message:

				default:
					// too slow, drop it
					close(c.Send)
					delete(h.clients, c)
				}
			}
		}
	}
}

// Notify queues an update for broadcast. It never blocks: the registry calls
// it while holding its lock, so a full queue drops the update.
func (h *Hub) Notify(update model.TallyUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		h.log.Errorw("Failed to encode tally update", "err", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		h.log.Warnw("Broadcast queue full, dropping tally update", "option", update.OptionID)
	}
}

// ServeHTTP upgrades the request to a websocket and streams tally updates
// until either side goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.log.Warnw("Websocket accept failed", "err", err)
		return
	}

	client := &Client{Hub: h, Conn: conn, Send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}

	go client.WritePump(r.Context())
	client.ReadPump(r.Context())
}

// WritePump sends messages from the hub to the WebSocket connection
func (c *Client) WritePump(ctx context.Context) {
	defer func() {
		c.Conn.Close(websocket.StatusNormalClosure, "")
	}()

	for m := range c.Send {
		err := c.Conn.Write(ctx, websocket.MessageText, m)
		if err != nil {
			c.Hub.log.Debugw("Error writing to watcher", "err", err)
			break
		}
	}
}

// ReadPump only watches for the peer going away; watchers never send data.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, _, err := c.Conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				c.Hub.log.Debugw("Watcher disconnected normally")
			} else {
				c.Hub.log.Debugw("Error reading from watcher", "err", err)
			}
			return
		}
	}
}
