// Package feed streams a running dune simulation to websocket clients and
// accepts drawing commands from them.
package feed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"
	"gopkg.in/errgo.v1"

	"sand-dune/internal/core"
	"sand-dune/internal/sims/dune"
)

var logger = loggo.GetLogger("dune.feed")

const (
	sendBuffer     = 8
	writeWait      = 2 * time.Second
	maxCommandSize = 1024
	shutdownWait   = 5 * time.Second
)

// Command is a client request. Type is one of "spawn", "color",
// "randomize", "reset", "pause" or "resume".
type Command struct {
	Type  string  `json:"type"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	Color string  `json:"color,omitempty"`
	Seed  *int64  `json:"seed,omitempty"`
}

// errorMessage is sent to a client whose command was rejected.
type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type request struct {
	from *client
	cmd  Command
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server owns a simulation and broadcasts its render feed. Only the goroutine
// running Run touches the simulation; connection goroutines talk to it over
// channels.
type Server struct {
	sim    Sim
	clock  *core.FixedStep
	seed   int64
	paused bool

	upgrader websocket.Upgrader
	requests chan request
	join     chan *client
	leave    chan *client
	done     chan struct{}

	clients      map[*client]struct{}
	frames       frameBuilder
	forceTerrain bool
}

// NewServer returns a server that steps sim at tps ticks per second. seed is
// used by reset commands that carry no seed of their own.
func NewServer(sim Sim, tps int, seed int64) *Server {
	return &Server{
		sim:   sim,
		clock: core.NewFixedStep(tps),
		seed:  seed,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		requests: make(chan request),
		join:     make(chan *client),
		leave:    make(chan *client),
		done:     make(chan struct{}),
		clients:  make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler serving the websocket endpoint at /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("dune render feed: connect a websocket to /ws\n"))
	})
	return mux
}

// ListenAndServe runs the simulation loop and an HTTP server on addr until ctx
// is done or either of them fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.Handler()}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(ctx)
	})
	g.Go(func() error {
		logger.Infof("serving render feed on %s", addr)
		if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return errgo.Notef(err, "cannot serve on %q", addr)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		return errgo.Mask(hs.Shutdown(sctx))
	})
	return g.Wait()
}

// Run steps the simulation and broadcasts frames until ctx is done. It must
// be called at most once.
func (s *Server) Run(ctx context.Context) error {
	defer s.shutdown()
	ticker := time.NewTicker(s.clock.Step())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-s.join:
			s.clients[c] = struct{}{}
			s.forceTerrain = true
			logger.Infof("client %s connected (%d total)", c.conn.RemoteAddr(), len(s.clients))
		case c := <-s.leave:
			s.drop(c)
		case req := <-s.requests:
			if err := s.apply(req.cmd); err != nil {
				logger.Warningf("rejected command from %s: %v", req.from.conn.RemoteAddr(), err)
				s.reply(req.from, errorMessage{Type: "error", Error: err.Error()})
			}
		case <-ticker.C:
			n := s.clock.Pending()
			if !s.paused {
				for i := 0; i < n; i++ {
					s.sim.Step()
				}
			}
			if err := s.broadcast(); err != nil {
				return errgo.Mask(err)
			}
		}
	}
}

// apply executes one client command against the simulation.
func (s *Server) apply(cmd Command) error {
	switch cmd.Type {
	case "spawn":
		if !finite(cmd.X) || !finite(cmd.Y) {
			return errgo.Newf("spawn position (%v, %v) is not finite", cmd.X, cmd.Y)
		}
		s.sim.SpawnBurst(cmd.X, cmd.Y)
	case "color":
		c, ok := dune.ParseHexColor(cmd.Color)
		if !ok {
			return errgo.Newf("invalid colour %q", cmd.Color)
		}
		s.sim.SetBaseColor(c)
	case "randomize":
		s.sim.RandomizeBaseColor()
	case "reset":
		if cmd.Seed != nil {
			s.seed = *cmd.Seed
		}
		s.sim.Reset(s.seed)
		s.forceTerrain = true
		logger.Infof("reset with seed %d", s.seed)
	case "pause":
		s.paused = true
	case "resume":
		s.paused = false
	default:
		return errgo.Newf("unknown command %q", cmd.Type)
	}
	return nil
}

func (s *Server) broadcast() error {
	if len(s.clients) == 0 {
		return nil
	}
	frame, err := s.frames.build(s.sim, s.forceTerrain)
	if err != nil {
		return errgo.Mask(err)
	}
	frame.Paused = s.paused
	s.forceTerrain = false
	data, err := json.Marshal(frame)
	if err != nil {
		return errgo.Notef(err, "cannot marshal frame")
	}
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Slow clients miss frames rather than stalling the loop.
			logger.Tracef("dropped frame %d for %s", frame.Tick, c.conn.RemoteAddr())
		}
	}
	return nil
}

func (s *Server) reply(c *client, msg any) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Errorf("cannot marshal reply: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (s *Server) drop(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	logger.Infof("client %s disconnected (%d left)", c.conn.RemoteAddr(), len(s.clients))
}

// shutdown disconnects every client once the loop stops.
func (s *Server) shutdown() {
	close(s.done)
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
		c.conn.Close()
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warningf("websocket upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case s.join <- c:
	case <-s.done:
		return
	}
	go c.writeLoop()
	s.readLoop(c)
	select {
	case s.leave <- c:
	case <-s.done:
	}
}

// readLoop forwards commands to the simulation loop until the connection
// fails.
func (s *Server) readLoop(c *client) {
	c.conn.SetReadLimit(maxCommandSize)
	for {
		var cmd Command
		if err := c.conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("read from %s: %v", c.conn.RemoteAddr(), err)
			}
			return
		}
		select {
		case s.requests <- request{from: c, cmd: cmd}:
		case <-s.done:
			return
		}
	}
}

// writeLoop sends queued messages until the loop closes the queue.
func (c *client) writeLoop() {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debugf("write to %s: %v", c.conn.RemoteAddr(), err)
			c.conn.Close()
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
