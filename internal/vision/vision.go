// Package vision receives shooting targets from the driver station
// image pipeline. A background TCP server decodes newline-delimited
// JSON target arrays into a capacity-one queue, so the control loop
// always drains the most recent sighting and stale frames are dropped.
package vision

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/TechnoJays/robot2014/internal/queue"
)

// Target wall sides reported by the image pipeline.
const (
	SideLeft   = "left"
	SideRight  = "right"
	SideEither = "either"
)

// Target is one goal sighting. Angle is degrees off the robot's
// heading, Distance is feet to the goal.
type Target struct {
	Side      string  `json:"side"`
	Angle     float64 `json:"angle"`
	Distance  float64 `json:"distance"`
	Hot       bool    `json:"is_hot"`
	NoTargets bool    `json:"no_targets"`
}

// Server listens for pipeline connections and keeps the latest decoded
// target set. Lossy on purpose: the queue holds one element and new
// data evicts old.
type Server struct {
	addr    string
	logger  zerolog.Logger
	targets *queue.Bounded[[]Target]

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewServer builds a server for addr (e.g. ":1180"). Start must be
// called before targets arrive.
func NewServer(addr string, logger zerolog.Logger) *Server {
	return &Server{
		addr:    addr,
		logger:  logger,
		targets: queue.NewBounded[[]Target](1),
		conns:   make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and begins accepting connections in the
// background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("error starting vision server: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info().Str("address", listener.Addr().String()).Msg("Vision server listening")
	s.wg.Add(1)
	go s.serve(listener)
	return nil
}

// Addr returns the bound listener address, or empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Latest drains the most recent target set. The second return is false
// when nothing new arrived since the last drain. An empty slice with
// true means the pipeline explicitly reported no targets in view.
func (s *Server) Latest() ([]Target, bool) {
	return s.targets.Pop()
}

// Close stops the listener and tears down open pipeline connections,
// then waits for their handlers. The pipeline may still be connected at
// match end, so Close must not wait for the peer.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	if listener == nil {
		return nil
	}
	err := listener.Close()
	s.wg.Wait()
	return err
}

// track registers a live connection, refusing it when the server is
// already closing.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) serve(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if !closed {
				s.logger.Error().Err(err).Msg("Vision server accept failed")
			}
			return
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

// handle decodes one pipeline connection, one JSON target array per
// line. Undecodable lines are skipped so a glitched frame never kills
// the connection.
func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()
	s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Vision pipeline connected")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var targets []Target
		if err := json.Unmarshal(line, &targets); err != nil {
			s.logger.Warn().Err(err).Msg("Malformed target data")
			continue
		}
		if len(targets) == 0 {
			continue
		}
		// The pipeline sends a single no_targets sentinel when the
		// goal leaves the frame.
		if len(targets) == 1 && targets[0].NoTargets {
			s.targets.Push([]Target{})
			continue
		}
		s.targets.Push(targets)
	}
	s.logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("Vision pipeline disconnected")
}
