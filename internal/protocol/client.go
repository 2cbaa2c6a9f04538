package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/ascentsys/retail-client/pkg/config"
	pkgerrors "github.com/ascentsys/retail-client/pkg/errors"
	"github.com/ascentsys/retail-client/pkg/logger"
	"github.com/ascentsys/retail-client/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
)

// Dialer abstracts connection establishment so tests can substitute a fake
// transport. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client executes one discrete operation per connection against the retail
// endpoint: open, write request, read response, close. No pooling, no
// pipelining. Every method blocks for the full round trip; callers on an
// interactive loop are expected to run them off the input-handling goroutine.
//
// Client is safe for concurrent use.
type Client struct {
	cfg     config.ServerConfig
	dialer  Dialer
	log     *logger.Logger
	metrics *metrics.ProtocolMetrics
}

// ClientParams carries the dependencies a Client needs.
type ClientParams struct {
	Config  config.ServerConfig
	Logger  *logger.Logger
	Metrics *metrics.ProtocolMetrics
	Dialer  Dialer
}

// NewClient builds a protocol client. Metrics may be nil; the recorder is
// nil-safe. A nil Dialer falls back to net.Dialer with the configured dial
// timeout.
func NewClient(params ClientParams) (*Client, error) {
	if params.Config.Address == "" {
		return nil, fmt.Errorf("server address required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	dialer := params.Dialer
	if dialer == nil {
		dialer = &net.Dialer{Timeout: params.Config.DialTimeout}
	}
	return &Client{
		cfg:     params.Config,
		dialer:  dialer,
		log:     params.Logger,
		metrics: params.Metrics,
	}, nil
}

// Authenticate verifies the username/secret pair against the server. A
// transport failure is returned as a connection-class error, never as false:
// the caller cannot determine validity without a response.
func (c *Client) Authenticate(ctx context.Context, username, secret string) (bool, error) {
	return c.boolRoundTrip(ctx, OpAuthenticate, username+"\n"+secret)
}

// Register asks the server to create an account. False typically means the
// username is already taken, but the protocol does not distinguish that from
// other registration failures; the boolean-only contract is preserved.
func (c *Client) Register(ctx context.Context, username, secret string) (bool, error) {
	return c.boolRoundTrip(ctx, OpRegister, username+"\n"+secret)
}

// FetchCatalog retrieves the raw catalog listing. The request payload is a
// human-readable description the server ignores; the response body ends when
// the peer closes the connection.
func (c *Client) FetchCatalog(ctx context.Context) (string, error) {
	var body string
	err := c.roundTrip(ctx, OpListCatalog, "list all products", func(conn net.Conn) error {
		raw, err := io.ReadAll(conn)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeConnection, err, "read catalog body")
		}
		body = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

func (c *Client) boolRoundTrip(ctx context.Context, op Opcode, payload string) (bool, error) {
	var result bool
	err := c.roundTrip(ctx, op, payload, func(conn net.Conn) error {
		ok, err := readBool(conn)
		if err != nil {
			return pkgerrors.Wrap(classify(err), err, "read boolean response")
		}
		result = ok
		return nil
	})
	if err != nil {
		return false, err
	}
	return result, nil
}

// roundTrip runs one open-write-read-close exchange. When RetryAttempts is
// positive, connection-class failures are retried that many extra times; the
// wire behavior of each attempt is unchanged.
func (c *Client) roundTrip(ctx context.Context, op Opcode, payload string, readResponse func(net.Conn) error) error {
	ctx = c.log.WithRequestID(ctx, uuid.NewString())
	ctx = c.log.WithOperation(ctx, op.String())
	ctx = c.log.WithEndpoint(ctx, c.cfg.Address)

	backoff := retry.WithMaxRetries(uint64(c.cfg.RetryAttempts), retry.NewConstant(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		start := time.Now()
		err := c.attempt(ctx, op, payload, readResponse)
		c.metrics.ObserveDuration(op.String(), time.Since(start))
		if err != nil {
			c.metrics.IncFailure(op.String())
			if pkgerrors.IsConnection(err) && c.cfg.RetryAttempts > 0 {
				c.log.Warn(ctx, "round trip failed, may retry")
				return retry.RetryableError(err)
			}
			return err
		}
		c.metrics.IncSuccess(op.String())
		return nil
	})
	if err != nil {
		c.log.Error(ctx, "round trip failed", err)
		return err
	}
	c.log.Debug(ctx, "round trip completed")
	return nil
}

func (c *Client) attempt(ctx context.Context, op Opcode, payload string, readResponse func(net.Conn) error) (err error) {
	conn, dialErr := c.dialer.DialContext(ctx, "tcp", c.cfg.Address)
	if dialErr != nil {
		return pkgerrors.Wrap(classify(dialErr), dialErr, "dial endpoint")
	}
	defer func() {
		err = multierr.Append(err, connClose(conn))
	}()

	if c.cfg.IOTimeout > 0 {
		if deadlineErr := conn.SetDeadline(time.Now().Add(c.cfg.IOTimeout)); deadlineErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeConnection, deadlineErr, "set deadline")
		}
	}

	if writeErr := writeRequest(conn, op, payload); writeErr != nil {
		return pkgerrors.Wrap(classify(writeErr), writeErr, "write request")
	}
	return readResponse(conn)
}

func connClose(conn net.Conn) error {
	if err := conn.Close(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeConnection, err, "close connection")
	}
	return nil
}

func classify(err error) pkgerrors.Code {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pkgerrors.CodeTimeout
	}
	return pkgerrors.CodeConnection
}
