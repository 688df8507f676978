package homee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// State is the connection state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Client represents a session with a homee hub. Hub state pushed over the
// connection is cached and can be read at any time.
type Client struct {
	host  string
	creds Credentials
	cfg   *clientConfig
	cache *store

	mu        sync.Mutex
	token     string
	conn      Conn
	connected bool
	closeCh   chan struct{}
	done      chan struct{}
	err       error
}

// NewClient creates a client for the hub at host. It does not perform any
// network I/O; call GetToken and Connect for that.
func NewClient(host, username, password string, opts ...ClientOption) (*Client, error) {
	if host == "" {
		return nil, errors.New("host is required")
	}

	cfg, err := applyOptions(defaultConfig(), opts)
	if err != nil {
		return nil, fmt.Errorf("invalid option: %w", err)
	}

	done := make(chan struct{})
	close(done)

	return &Client{
		host:  host,
		creds: Credentials{Username: username, Password: password},
		cfg:   cfg,
		cache: newStore(),
		done:  done,
	}, nil
}

func (c *Client) hostPort() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.cfg.port))
}

// GetToken exchanges the credentials for an access token and stores it.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.cfg.connectTimeout)
	defer cancel()

	u := url.URL{Scheme: "http", Host: c.hostPort(), Path: TokenPath}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader(TokenRequestBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", BasicCredential(c.creds.Username, c.creds.Password))

	resp, err := c.cfg.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.cfg.logger != nil {
			c.cfg.logger.Warn("token request rejected", "host", c.host, "status", resp.StatusCode)
		}
		return "", &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	token, err := ParseTokenResponse(string(body))
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if c.cfg.logger != nil {
		c.cfg.logger.Debug("access token acquired", "host", c.host)
	}
	return token, nil
}

// SetToken stores a token obtained earlier, skipping GetToken.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the stored access token, or "" if there is none.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Dial opens an authenticated connection to the hub without starting the
// receive loop. The caller owns the returned Conn.
func (c *Client) Dial(ctx context.Context) (Conn, error) {
	query, err := c.cfg.auth.Query(c.Token())
	if err != nil {
		return nil, err
	}

	ctx, cancel := withDefaultTimeout(ctx, c.cfg.connectTimeout)
	defer cancel()

	u := url.URL{Scheme: "ws", Host: c.hostPort(), Path: ConnectionPath, RawQuery: query.Encode()}
	conn, err := c.cfg.dialer.Dial(ctx, u.String(), []string{Subprotocol})
	if err != nil {
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	if err := c.cfg.auth.Handshake(ctx, conn, c.creds); err != nil {
		conn.Close()
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	if c.cfg.logger != nil {
		c.cfg.logger.Debug("websocket connection established", "host", c.host)
	}
	return conn, nil
}

// Connect opens the connection, sends the bootstrap reads and starts the
// receive loop. Use Done and Err, or WithStateHandler, to learn when the
// connection drops.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	c.mu.Unlock()

	conn, err := c.Dial(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := withDefaultTimeout(ctx, c.cfg.requestTimeout)
	defer cancel()
	for _, cmd := range BootstrapCommands(c.cfg.verbs) {
		if err := conn.Send(ctx, cmd); err != nil {
			conn.Close()
			return fmt.Errorf("websocket connection failed: %w", err)
		}
	}

	closeCh := make(chan struct{})
	done := make(chan struct{})

	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		conn.Close()
		return ErrAlreadyConnected
	}
	c.conn = conn
	c.connected = true
	c.closeCh = closeCh
	c.done = done
	c.err = nil
	c.mu.Unlock()

	c.notifyState(StateConnected, nil)

	go c.readLoop(conn, closeCh, done)

	return nil
}

func (c *Client) readLoop(conn Conn, closeCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		ctx, cancel := withTimeout(context.Background(), c.cfg.readTimeout)
		frame, err := conn.Receive(ctx)
		cancel()

		if err != nil {
			select {
			case <-closeCh:
				return
			default:
			}
			if c.cfg.logger != nil {
				if IsNormalClose(err) {
					c.cfg.logger.Debug("websocket closed by hub", "host", c.host)
				} else {
					c.cfg.logger.Error("error listening to websocket", "host", c.host, "error", err)
				}
			}
			c.drop(conn, err)
			return
		}

		c.handleFrame(frame)
	}
}

func (c *Client) handleFrame(frame string) {
	keys, skipped, err := c.cache.apply([]byte(frame))
	if err != nil {
		if c.cfg.logger != nil {
			c.cfg.logger.Warn("failed to decode frame", "error", err, "frameLen", len(frame))
		}
		return
	}

	if c.cfg.logger != nil {
		for _, e := range skipped {
			c.cfg.logger.Warn("skipped frame member", "error", e)
		}
		c.cfg.logger.Debug("frame processed", "keys", keys)
	}

	if len(keys) > 0 && c.cfg.onUpdate != nil {
		c.cfg.onUpdate(keys)
	}
}

// drop tears down a connection the receive loop found dead, unless Close
// already replaced it.
func (c *Client) drop(conn Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.connected = false
	c.err = cause
	c.mu.Unlock()

	conn.Close()
	c.notifyState(StateDisconnected, cause)
}

func (c *Client) notifyState(s State, err error) {
	if c.cfg.onState != nil {
		c.cfg.onState(s, err)
	}
}

// Close stops the receive loop and closes the connection. Closing a client
// that is not connected does nothing.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.connected = false
		c.mu.Unlock()
		return nil
	}
	c.conn = nil
	c.connected = false
	c.err = nil
	close(c.closeCh)
	done := c.done
	c.mu.Unlock()

	err := conn.Close()
	<-done

	if c.cfg.logger != nil {
		c.cfg.logger.Debug("websocket connection closed", "host", c.host)
	}
	c.notifyState(StateDisconnected, nil)
	return err
}

// Connected reports whether the connection is open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Done returns a channel closed when the receive loop of the current
// connection exits. It is already closed when the client is not connected.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Err returns why the last connection dropped, or nil if it is still open
// or was ended by Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SendCommand writes a raw command frame, e.g. "get:nodes".
func (c *Client) SendCommand(ctx context.Context, command string) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	ctx, cancel := withDefaultTimeout(ctx, c.cfg.requestTimeout)
	defer cancel()

	if err := conn.Send(ctx, command); err != nil {
		if c.cfg.logger != nil {
			c.cfg.logger.Error("failed to send command", "command", command, "error", err)
		}
		return err
	}

	if c.cfg.logger != nil {
		c.cfg.logger.Debug("command sent", "command", command)
	}
	return nil
}

// StartHomeegram plays a homeegram.
func (c *Client) StartHomeegram(ctx context.Context, id int) error {
	return c.SendCommand(ctx, PlayHomeegramCommand(c.cfg.verbs, id, true))
}

// EnableHomeegram enables a homeegram.
func (c *Client) EnableHomeegram(ctx context.Context, id int) error {
	return c.SendCommand(ctx, EnableHomeegramCommand(c.cfg.verbs, id, true))
}

// DisableHomeegram disables a homeegram.
func (c *Client) DisableHomeegram(ctx context.Context, id int) error {
	return c.SendCommand(ctx, EnableHomeegramCommand(c.cfg.verbs, id, false))
}

// Snapshot returns the cached hub state. The returned value must not be
// modified.
func (c *Client) Snapshot() *Snapshot {
	return c.cache.load()
}

// Nodes returns the cached nodes.
func (c *Client) Nodes() []json.RawMessage {
	return slices.Clone(c.cache.load().Nodes)
}

// Attributes returns the cached attributes of all nodes.
func (c *Client) Attributes() []json.RawMessage {
	return slices.Clone(c.cache.load().Attributes)
}

// Groups returns the cached groups.
func (c *Client) Groups() []json.RawMessage {
	return slices.Clone(c.cache.load().Groups)
}

// Homeegrams returns the cached homeegrams.
func (c *Client) Homeegrams() []json.RawMessage {
	return slices.Clone(c.cache.load().Homeegrams)
}

// User returns the cached user record, or nil if none has arrived yet.
func (c *Client) User() json.RawMessage {
	return slices.Clone(c.cache.load().User)
}

// withDefaultTimeout applies d to ctx if it has no deadline yet.
func withDefaultTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// withTimeout applies d to ctx unless d is zero.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
