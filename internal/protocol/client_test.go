package protocol

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/ascentsys/retail-client/pkg/config"
	pkgerrors "github.com/ascentsys/retail-client/pkg/errors"
	"github.com/ascentsys/retail-client/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func startServer(t *testing.T, users map[string]string, body string) *Server {
	t.Helper()
	srv, err := NewServer(ServerParams{
		Logger:  testLogger(),
		Users:   users,
		Catalog: func() (string, error) { return body, nil },
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func startClient(t *testing.T, srv *Server) *Client {
	t.Helper()
	addr, err := srv.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	client, err := NewClient(ClientParams{
		Config: config.ServerConfig{
			Address:     addr.String(),
			DialTimeout: time.Second,
			IOTimeout:   2 * time.Second,
		},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestClientAuthenticate(t *testing.T) {
	srv := startServer(t, map[string]string{"admin": "admin123"}, "[]")
	client := startClient(t, srv)
	ctx := context.Background()

	ok, err := client.Authenticate(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !ok {
		t.Fatal("expected valid credentials to authenticate")
	}

	ok, err = client.Authenticate(ctx, "admin", "wrong")
	if err != nil {
		t.Fatalf("Authenticate with bad secret: %v", err)
	}
	if ok {
		t.Fatal("expected invalid credentials to be rejected")
	}
}

func TestClientRegister(t *testing.T) {
	srv := startServer(t, map[string]string{"admin": "admin123"}, "[]")
	client := startClient(t, srv)
	ctx := context.Background()

	created, err := client.Register(ctx, "newuser", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !created {
		t.Fatal("expected fresh username to register")
	}

	created, err = client.Register(ctx, "admin", "whatever")
	if err != nil {
		t.Fatalf("Register existing: %v", err)
	}
	if created {
		t.Fatal("expected taken username to report false")
	}

	// the registered account must authenticate on a fresh connection
	ok, err := client.Authenticate(ctx, "newuser", "secret")
	if err != nil {
		t.Fatalf("Authenticate after register: %v", err)
	}
	if !ok {
		t.Fatal("expected registered account to authenticate")
	}
}

func TestClientFetchCatalog(t *testing.T) {
	body := `[{"id":"M001","name":"Amox","category":"antibiotic","price":"25.50","stock":"100"}]`
	srv := startServer(t, nil, body)
	client := startClient(t, srv)

	got, err := client.FetchCatalog(context.Background())
	if err != nil {
		t.Fatalf("FetchCatalog: %v", err)
	}
	if got != body {
		t.Fatalf("body mismatch: %q", got)
	}
}

func TestClientUnreachableEndpointIsConnectionError(t *testing.T) {
	client, err := NewClient(ClientParams{
		Config: config.ServerConfig{
			// reserved port that nothing listens on
			Address:     "127.0.0.1:1",
			DialTimeout: 500 * time.Millisecond,
		},
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ok, err := client.Authenticate(context.Background(), "admin", "admin123")
	if err == nil {
		t.Fatal("expected an error against an unreachable endpoint")
	}
	if ok {
		t.Fatal("unreachable endpoint must never report valid credentials")
	}
	if !pkgerrors.IsConnection(err) {
		t.Fatalf("expected connection-class error, got %v", err)
	}
	// never indistinguishable from a credential rejection
	if pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("connection failure must not surface as unauthorized: %v", err)
	}
}

func TestClientRetriesConnectionFailure(t *testing.T) {
	srv := startServer(t, map[string]string{"admin": "admin123"}, "[]")
	addr, err := srv.Listen(context.Background(), "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	dialer := &flakyDialer{failures: 1}
	client, err := NewClient(ClientParams{
		Config: config.ServerConfig{
			Address:       addr.String(),
			DialTimeout:   time.Second,
			RetryAttempts: 1,
		},
		Logger: testLogger(),
		Dialer: dialer,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ok, err := client.Authenticate(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if !ok {
		t.Fatal("expected authentication to succeed after retry")
	}
	if dialer.calls != 2 {
		t.Fatalf("expected 2 dial attempts, got %d", dialer.calls)
	}
}

// flakyDialer fails its first N dials, then behaves like net.Dialer.
type flakyDialer struct {
	failures int
	calls    int
}

func (f *flakyDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("simulated dial failure")
	}
	var d net.Dialer
	return d.DialContext(ctx, network, address)
}
