// Package ingest is the bridge between a bouncer and the engine: a TCP
// server reading newline-delimited JSON envelopes and writing the output
// of each event back on the same connection as JSON lines.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/roach88/backlog/internal/engine"
)

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = "127.0.0.1:7000"

	// DefaultMaxLineSize is the default maximum size (in bytes) of one envelope.
	DefaultMaxLineSize = 1024 * 1024 // 1MB
)

// toError marks replies about envelopes that never reached the engine.
const toError engine.Channel = "error"

// Sink accepts events for processing.
type Sink interface {
	Enqueue(ev engine.Event) bool
}

// ServerConfig holds tunable parameters for the TCP server.
type ServerConfig struct {
	MaxLineSize int
	IDs         engine.IDGenerator // connection ids; UUIDv7 when nil
}

// Server listens for bouncer envelopes over TCP.
type Server struct {
	listener    net.Listener
	addr        string
	sink        Sink
	maxLineSize int
	ids         engine.IDGenerator
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer creates a new TCP server. Default addr is DefaultAddr.
func NewServer(addr string, sink Sink, conf ...ServerConfig) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	maxLineSize := DefaultMaxLineSize
	var ids engine.IDGenerator = engine.UUIDv7Generator{}
	if len(conf) > 0 {
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
		if conf[0].IDs != nil {
			ids = conf[0].IDs
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:        addr,
		sink:        sink,
		maxLineSize: maxLineSize,
		ids:         ids,
		ctx:         ctx,
		cancel:      cancel,
		conns:       make(map[net.Conn]struct{}),
	}
}

// Start begins accepting TCP connections.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	slog.Info("ingest listening", "addr", listener.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
					if errors.Is(err, net.ErrClosed) {
						return
					}
					slog.Warn("ingest accept failed", "error", err)
					continue
				}
			}
			if !s.track(conn) {
				conn.Close()
				return
			}
			s.wg.Add(1)
			go s.handleConnection(conn)
		}
	}()

	return nil
}

// track registers an open connection. It fails once the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	id := s.ids.Generate()
	log := slog.With("conn", id, "remote", conn.RemoteAddr().String())
	log.Info("bouncer connected")

	out := &replyWriter{enc: json.NewEncoder(conn), log: log}

	scanner := bufio.NewScanner(conn)
	buf := make([]byte, 0, min(64*1024, s.maxLineSize))
	scanner.Buffer(buf, s.maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var env Envelope
		if err := json.Unmarshal(line, &env); err != nil {
			log.Warn("invalid envelope", "error", err)
			out.put(toError, "invalid envelope: "+err.Error())
			continue
		}

		host := &connHost{
			out:         out,
			nick:        env.SelfNick,
			selfMessage: env.SelfMessage,
			serverTime:  env.ServerTime,
		}
		ev, err := env.Event(host)
		if err != nil {
			log.Warn("invalid envelope", "error", err)
			out.put(toError, "invalid envelope: "+err.Error())
			continue
		}

		if !s.sink.Enqueue(ev) {
			log.Warn("engine stopped, closing connection")
			out.put(toError, "engine stopped")
			return
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			log.Warn("dropped connection: envelope exceeds max size", "max_line_size", s.maxLineSize)
			return
		}
		if s.ctx.Err() == nil {
			log.Warn("read failed", "error", err)
		}
		return
	}
	log.Info("bouncer disconnected")
}

// Stop closes the listener and every open connection, then waits for the
// connection goroutines to finish.
func (s *Server) Stop() error {
	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the active listen address.
// Before Start, it returns the configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// replyWriter serialises JSON replies onto one connection. The engine
// goroutine and the reader goroutine both write to it.
type replyWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
	log *slog.Logger
}

func (w *replyWriter) put(to engine.Channel, line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(engine.Output{To: to, Line: line}); err != nil {
		w.log.Debug("reply dropped", "to", string(to), "error", err)
	}
}

// connHost answers one envelope on the connection it came from.
type connHost struct {
	out         *replyWriter
	nick        string
	selfMessage bool
	serverTime  bool
}

func (h *connHost) Nick() string         { return h.nick }
func (h *connHost) HasSelfMessage() bool { return h.selfMessage }
func (h *connHost) HasServerTime() bool  { return h.serverTime }

func (h *connHost) PutUser(line string)   { h.out.put(engine.ToUser, line) }
func (h *connHost) PutModule(line string) { h.out.put(engine.ToModule, line) }
func (h *connHost) PutIRC(line string)    { h.out.put(engine.ToIRC, line) }
func (h *connHost) PutClient(line string) { h.out.put(engine.ToClient, line) }
