package homee

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is a frame oriented connection to the hub.
// Send may be called concurrently with Receive.
type Conn interface {
	// Send writes one text frame.
	Send(ctx context.Context, frame string) error
	// Receive blocks until the next frame arrives.
	Receive(ctx context.Context) (string, error)
	// Close closes the connection. It is safe to call more than once.
	Close() error
}

// Dialer opens a Conn to a WebSocket URL.
type Dialer interface {
	Dial(ctx context.Context, rawURL string, subprotocols []string) (Conn, error)
}

// WebSocketDialer dials the hub with gorilla/websocket.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	Header           http.Header
}

// Dial opens the WebSocket and checks that the hub accepted one of the
// requested subprotocols.
func (d *WebSocketDialer) Dial(ctx context.Context, rawURL string, subprotocols []string) (Conn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
		Subprotocols:     subprotocols,
	}

	ws, resp, err := dialer.DialContext(ctx, rawURL, d.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial websocket: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial websocket: %w", err)
	}

	if len(subprotocols) > 0 && ws.Subprotocol() == "" {
		ws.Close()
		return nil, fmt.Errorf("dial websocket: hub did not accept subprotocol %v", subprotocols)
	}

	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) Send(ctx context.Context, frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// Receive reads the next data frame. A timed out or canceled read leaves
// the underlying connection unusable.
func (c *wsConn) Receive(ctx context.Context) (string, error) {
	deadline, _ := ctx.Deadline()
	if err := c.ws.SetReadDeadline(deadline); err != nil {
		return "", err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	_, data, err := c.ws.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("read frame: %w", ctxErr)
		}
		return "", fmt.Errorf("read frame: %w", err)
	}
	return string(data), nil
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err := c.ws.Close()
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

// IsNormalClose reports whether err is the hub closing the connection
// cleanly.
func IsNormalClose(err error) bool {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
}
