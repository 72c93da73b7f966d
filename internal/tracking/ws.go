package tracking

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"rider-booking/internal/events"
	"rider-booking/pkg/jwt"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// safeConn wraps a websocket.Conn with a write mutex.
// gorilla/websocket allows one concurrent writer; this enforces that.
type safeConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *safeConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(v)
}

func (c *safeConn) readJSON(v any) error {
	return c.ws.ReadJSON(v)
}

func (c *safeConn) close() { c.ws.Close() }

// Hub routes push events to connections by the identity they joined as.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*safeConn
}

// NewHub creates a push hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[string][]*safeConn)}
}

// Routes returns a chi.Router for the /ws mount point.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwt.RequireAuth)
	r.Get("/", h.HandleWS)
	return r
}

// HandleWS upgrades the connection and serves join frames until the client
// disconnects. A connection may only join as the identity in its token.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	claims := jwt.GetClaims(r.Context())
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}

	conn := &safeConn{ws: ws}
	var joined []string

	for {
		var env events.Envelope
		if err := conn.readJSON(&env); err != nil {
			break
		}
		if env.Event != events.EventJoin {
			log.Printf("[ws] ignoring %q from %s", env.Event, claims.Identity())
			continue
		}
		var p events.JoinPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("[ws] bad join payload: %v", err)
			continue
		}
		if p.Identity != claims.Identity() {
			log.Printf("[ws] %s tried to join as %s", claims.Identity(), p.Identity)
			continue
		}
		h.addConn(p.Identity, conn)
		joined = append(joined, p.Identity)
		log.Printf("[ws] %s joined as %s", p.Identity, p.Role)
	}

	for _, id := range joined {
		h.removeConn(id, conn)
	}
	conn.close()
	log.Printf("[ws] client %s disconnected", claims.Identity())
}

// Push sends event to every connection joined as identity and reports how
// many received it. Safe for concurrent calls.
func (h *Hub) Push(identity, event string, payload any) int {
	env, err := events.NewEnvelope(event, payload)
	if err != nil {
		log.Printf("[ws] encode %s: %v", event, err)
		return 0
	}

	h.mu.RLock()
	conns := append([]*safeConn(nil), h.conns[identity]...)
	h.mu.RUnlock()

	sent := 0
	for _, c := range conns {
		if err := c.writeJSON(env); err != nil {
			log.Printf("[ws] write error: %v", err)
			continue
		}
		sent++
	}
	if sent == 0 {
		log.Printf("[ws] no connection for %s, dropped %s", identity, event)
	}
	return sent
}

// Connected reports whether identity has joined on any connection.
func (h *Hub) Connected(identity string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[identity]) > 0
}

func (h *Hub) addConn(identity string, conn *safeConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.conns[identity] {
		if c == conn {
			return
		}
	}
	h.conns[identity] = append(h.conns[identity], conn)
}

func (h *Hub) removeConn(identity string, conn *safeConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[identity]
	for i, c := range conns {
		if c == conn {
			h.conns[identity] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[identity]) == 0 {
		delete(h.conns, identity)
	}
}
