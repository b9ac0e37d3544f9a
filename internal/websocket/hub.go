package websocket

import "github.com/rs/zerolog/log"

// event is a message scoped to a post.
type event struct {
	postID  string
	message []byte
}

// reply is a message for a single client.
type reply struct {
	client  *Client
	message []byte
}

// subscription moves a client onto a single post's events.
type subscription struct {
	client *Client
	postID string
}

// Hub maintains the set of active clients and broadcasts post events to them.
type Hub struct {
	// Registered clients. Owned by the Run goroutine.
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	replies    chan reply
	events     chan event
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		replies:    make(chan reply),
		events:     make(chan event, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				h.drop(client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; ok {
				sub.client.postID = sub.postID
			}
		case r := <-h.replies:
			if _, ok := h.clients[r.client]; ok {
				select {
				case r.client.Send <- r.message:
				default:
					h.drop(r.client)
				}
			}
		case ev := <-h.events:
			for client := range h.clients {
				if client.postID != "" && client.postID != ev.postID {
					continue
				}
				select {
				case client.Send <- ev.message:
				default:
					log.Warn().Msg("Dropping slow websocket client")
					h.drop(client)
				}
			}
		}
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribe restricts client to events for postID. An empty postID
// returns the client to receiving every event.
func (h *Hub) Subscribe(client *Client, postID string) {
	select {
	case h.subscribe <- subscription{client: client, postID: postID}:
	case <-h.done:
	}
}

// SendTo delivers message to a single client if it is still connected.
func (h *Hub) SendTo(client *Client, message []byte) {
	select {
	case h.replies <- reply{client: client, message: message}:
	case <-h.done:
	}
}

// Publish queues an event for delivery. It never blocks; events are
// discarded when the queue is full.
func (h *Hub) Publish(postID, action string, payload interface{}) {
	msg := Encode(action, payload)
	if msg == nil {
		return
	}
	select {
	case h.events <- event{postID: postID, message: msg}:
	default:
		log.Warn().Str("post_id", postID).Str("action", action).Msg("Dropping post event, hub queue full")
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.Send)
}
