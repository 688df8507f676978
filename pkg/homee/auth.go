package homee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Credentials are the hub account used to authenticate.
type Credentials struct {
	Username string
	Password string
}

// AuthStrategy decides how a WebSocket connection is authenticated.
// Hub firmware generations differ: newer ones take a bearer token in the
// connection URL, older ones expect the credentials in the first frame.
type AuthStrategy interface {
	// Query returns the query parameters of the connection URL.
	Query(token string) (url.Values, error)
	// Handshake runs once the socket is open, before any other frame.
	Handshake(ctx context.Context, conn Conn, creds Credentials) error
}

// TokenAuth passes the access token obtained by GetToken in the connection
// URL.
type TokenAuth struct{}

func (TokenAuth) Query(token string) (url.Values, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	return url.Values{"access_token": {token}}, nil
}

func (TokenAuth) Handshake(context.Context, Conn, Credentials) error {
	return nil
}

// MessageAuth sends the credentials as a JSON message right after the
// socket opens. No token is needed.
type MessageAuth struct{}

type authenticateMessage struct {
	Action   string `json:"action"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (MessageAuth) Query(string) (url.Values, error) {
	return url.Values{}, nil
}

func (MessageAuth) Handshake(ctx context.Context, conn Conn, creds Credentials) error {
	msg, err := json.Marshal(authenticateMessage{
		Action:   "authenticate",
		Username: creds.Username,
		Password: creds.Password,
	})
	if err != nil {
		return err
	}
	if err := conn.Send(ctx, string(msg)); err != nil {
		return fmt.Errorf("send authenticate message: %w", err)
	}
	return nil
}
