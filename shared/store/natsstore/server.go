package natsstore

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats-server/v2/server"
)

// Server is an embedded NATS broker for the store host and tests.
type Server struct {
	ns *server.Server

	startupTimeout time.Duration
	host           string
	port           int
}

type ServerOpt func(*Server)

func WithHost(host string) ServerOpt {
	return func(s *Server) { s.host = host }
}

// WithPort sets the client port. -1 picks a random free port.
func WithPort(port int) ServerOpt {
	return func(s *Server) { s.port = port }
}

func WithStartTimeout(d time.Duration) ServerOpt {
	return func(s *Server) { s.startupTimeout = d }
}

func NewServer(opts ...ServerOpt) (*Server, error) {
	s := &Server{
		startupTimeout: 10 * time.Second,
		host:           "127.0.0.1",
		port:           server.DEFAULT_PORT,
	}
	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true, // the binary handles signals
	})
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}
	s.ns = ns
	return s, nil
}

// Start runs the broker in the background and waits until it accepts
// clients.
func (s *Server) Start() error {
	s.ns.Start()
	if !s.ns.ReadyForConnections(s.startupTimeout) {
		return fmt.Errorf("nats server not ready for connections")
	}
	log.Printf("[nats] listening on %s", s.ns.ClientURL())
	return nil
}

// ClientURL is the address clients dial.
func (s *Server) ClientURL() string {
	return s.ns.ClientURL()
}

func (s *Server) Shutdown() {
	s.ns.Shutdown()
	s.ns.WaitForShutdown()
}
