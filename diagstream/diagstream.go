// Package diagstream hosts a small websocket push server that mirrors
// live diagnostics out to any connected viewer (a dashboard, a second
// editor pane) independently of the primary LSP transport. It is the
// ordinary-assembly analogue of the teacher's standalone emulator
// webserver: one upgrader, one broadcast loop, JSON text frames.
package diagstream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/asmtools/hlasm-ordasm/diag"
)

// Message is one push frame. Type distinguishes diagnostic batches from
// the plain-text log lines util.LogF redirects here once a Server starts.
type Message struct {
	Type        string           `json:"type"`
	URI         string           `json:"uri,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics,omitempty"`
	Text        string           `json:"text,omitempty"`
}

// Server accepts websocket connections on /ws and plain-text log POSTs on
// /log, and fans out Push/PushLog calls to every connected client.
type Server struct {
	addr string

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer returns a Server that will listen on addr (e.g. ":8006")
// once Serve is called.
func NewServer(addr string) *Server {
	return &Server{addr: addr, clients: make(map[*websocket.Conn]struct{})}
}

// Push broadcasts uri's current diagnostics to every connected client.
func (s *Server) Push(uri string, diagnostics []diag.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []diag.Diagnostic{}
	}
	s.broadcast(Message{Type: "diagnostics", URI: uri, Diagnostics: diagnostics})
}

// PushLog broadcasts a plain-text log line; util.LogF is pointed at the
// /log endpoint (handleLog) so this is also reachable over HTTP POST.
func (s *Server) PushLog(text string) {
	s.broadcast(Message{Type: "log", Text: text})
}

func (s *Server) broadcast(m Message) {
	b, err := json.Marshal(m)
	if err != nil {
		log.Printf("diagstream: marshal: %v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Printf("diagstream: write: %v", err)
			c.Close()
			delete(s.clients, c)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("diagstream:", err)
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
			return
		}
		// Inbound frames are not interpreted; this is a push-only channel.
	}
}

// handleLog accepts the same plain-text POST body util's teacher-derived
// LogF sends, and rebroadcasts it as a "log" message.
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	buf := make([]byte, 4096)
	n, _ := r.Body.Read(buf)
	s.PushLog(string(buf[:n]))
}

// Serve blocks, listening on s.addr for /ws upgrades and /log POSTs.
func (s *Server) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/log", s.handleLog)
	log.Printf("diagstream: listening on %s", s.addr)
	return http.ListenAndServe(s.addr, mux)
}
