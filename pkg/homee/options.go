package homee

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// ClientOption configures a Client or a Homee facade.
type ClientOption func(*clientConfig) error

// clientConfig holds the configuration for a Client.
type clientConfig struct {
	port           int
	connectTimeout time.Duration
	requestTimeout time.Duration
	readTimeout    time.Duration
	logger         *slog.Logger
	auth           AuthStrategy
	verbs          VerbCase
	httpClient     *http.Client
	dialer         Dialer
	onState        func(State, error)
	onUpdate       func(keys []string)
}

// defaultConfig returns the default client configuration.
func defaultConfig() *clientConfig {
	return &clientConfig{
		port:           DefaultPort,
		connectTimeout: 5 * time.Second,
		requestTimeout: 2 * time.Second,
		readTimeout:    0,
		logger:         nil,
		auth:           TokenAuth{},
		verbs:          LowerCaseVerbs,
		httpClient:     http.DefaultClient,
		dialer:         nil,
	}
}

func applyOptions(cfg *clientConfig, opts []ClientOption) (*clientConfig, error) {
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.dialer == nil {
		cfg.dialer = &WebSocketDialer{HandshakeTimeout: cfg.connectTimeout}
	}
	return cfg, nil
}

// WithPort sets the port of the hub's HTTP and WebSocket API.
// Default is 7681.
func WithPort(port int) ClientOption {
	return func(c *clientConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		c.port = port
		return nil
	}
}

// WithConnectTimeout sets the timeout for the token request and the
// WebSocket handshake. It only applies when the context has no deadline.
// Default is 5 seconds.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("connect timeout must be positive")
		}
		c.connectTimeout = d
		return nil
	}
}

// WithRequestTimeout sets the timeout for sending a command and, in the
// facade, for waiting on its reply.
// Default is 2 seconds.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		c.requestTimeout = d
		return nil
	}
}

// WithReadTimeout sets how long the receive loop waits for a frame before
// treating the connection as dead. Zero disables the timeout, which is the
// default.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d < 0 {
			return errors.New("read timeout must not be negative")
		}
		c.readTimeout = d
		return nil
	}
}

// WithLogger sets a structured logger for debug and error logging.
// By default, no logging is performed.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) error {
		c.logger = logger
		return nil
	}
}

// WithAuthStrategy selects how the WebSocket connection is authenticated.
// Default is TokenAuth.
func WithAuthStrategy(auth AuthStrategy) ClientOption {
	return func(c *clientConfig) error {
		if auth == nil {
			return errors.New("auth strategy must not be nil")
		}
		c.auth = auth
		return nil
	}
}

// WithVerbCase sets the casing of command verbs. Older and newer hub
// firmware disagree on it.
func WithVerbCase(v VerbCase) ClientOption {
	return func(c *clientConfig) error {
		if v != LowerCaseVerbs && v != UpperCaseVerbs {
			return errors.New("unknown verb case")
		}
		c.verbs = v
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for the token request.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) error {
		if hc == nil {
			return errors.New("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) ClientOption {
	return func(c *clientConfig) error {
		if d == nil {
			return errors.New("dialer must not be nil")
		}
		c.dialer = d
		return nil
	}
}

// WithStateHandler registers a callback invoked on every connection state
// transition. For StateDisconnected the error is the cause of the drop, or
// nil when Close was called. The drop is reported from the receive loop.
func WithStateHandler(fn func(State, error)) ClientOption {
	return func(c *clientConfig) error {
		c.onState = fn
		return nil
	}
}

// WithUpdateHandler registers a callback invoked by the receive loop after
// a frame has been applied, with the keys it replaced. The callback runs on
// the receive loop and must not call Close.
func WithUpdateHandler(fn func(keys []string)) ClientOption {
	return func(c *clientConfig) error {
		c.onUpdate = fn
		return nil
	}
}
