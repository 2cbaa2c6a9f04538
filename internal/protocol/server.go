package protocol

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/ascentsys/retail-client/pkg/logger"
)

// CatalogSource supplies the raw catalog body served for list requests.
type CatalogSource func() (string, error)

// Server is the development stub peer: it speaks the same framing as Client
// and backs authentication with an in-memory credential map. It exists for
// local development (cmd/catalogd) and integration-style tests; production
// server behavior is out of scope here.
type Server struct {
	log     *logger.Logger
	catalog CatalogSource

	mu    sync.Mutex
	users map[string]string

	listener net.Listener
	wg       sync.WaitGroup
}

// ServerParams carries the dependencies a Server needs.
type ServerParams struct {
	Logger  *logger.Logger
	Users   map[string]string
	Catalog CatalogSource
}

// NewServer builds a stub server seeded with the given credential map.
func NewServer(params ServerParams) (*Server, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	users := map[string]string{}
	for name, secret := range params.Users {
		users[name] = secret
	}
	return &Server{
		log:     params.Logger,
		catalog: params.Catalog,
		users:   users,
	}, nil
}

// Listen binds the server to addr and starts accepting connections until
// Close is called. It returns the bound address, useful with ":0".
func (s *Server) Listen(ctx context.Context, addr string) (net.Addr, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handle(ctx, conn)
			}()
		}
	}()
	return listener.Addr(), nil
}

// Close stops accepting and waits for in-flight connections to finish.
func (s *Server) Close() error {
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	op, payload, err := readRequest(conn)
	if err != nil {
		s.log.Warn(s.log.WithEndpoint(ctx, conn.RemoteAddr().String()), "dropping malformed request")
		return
	}
	ctx = s.log.WithOperation(ctx, op.String())

	switch op {
	case OpAuthenticate:
		username, secret := splitCredentials(payload)
		s.mu.Lock()
		stored, ok := s.users[username]
		s.mu.Unlock()
		_ = writeBool(conn, ok && stored == secret)
	case OpRegister:
		username, secret := splitCredentials(payload)
		created := false
		if username != "" {
			s.mu.Lock()
			if _, exists := s.users[username]; !exists {
				s.users[username] = secret
				created = true
			}
			s.mu.Unlock()
		}
		_ = writeBool(conn, created)
	case OpListCatalog:
		body, err := s.catalog()
		if err != nil {
			s.log.Error(ctx, "catalog source failed", err)
			return
		}
		if _, err := conn.Write([]byte(body)); err != nil {
			s.log.Warn(ctx, "failed writing catalog body")
		}
		// connection close signals end of body
	default:
		s.log.Warn(ctx, "unknown opcode")
	}
}

func splitCredentials(payload string) (username, secret string) {
	username, secret, _ = strings.Cut(payload, "\n")
	return username, secret
}
