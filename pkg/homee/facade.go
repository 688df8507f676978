package homee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Homee issues commands over a Conn and decodes the single reply each read
// produces. Unlike Client it keeps no cache and runs no receive loop, so
// nothing else may read from the Conn while a Homee uses it.
type Homee struct {
	conn           Conn
	verbs          VerbCase
	requestTimeout time.Duration
	logger         *slog.Logger
	mu             sync.Mutex
}

// NewHomee wraps an open connection, typically one returned by Client.Dial.
// Commands use upper case verbs unless WithVerbCase says otherwise.
func NewHomee(conn Conn, opts ...ClientOption) (*Homee, error) {
	if conn == nil {
		return nil, errors.New("conn must not be nil")
	}

	base := defaultConfig()
	base.verbs = UpperCaseVerbs
	cfg, err := applyOptions(base, opts)
	if err != nil {
		return nil, fmt.Errorf("invalid option: %w", err)
	}

	return &Homee{
		conn:           conn,
		verbs:          cfg.verbs,
		requestTimeout: cfg.requestTimeout,
		logger:         cfg.logger,
	}, nil
}

// GetHomeegrams requests all homeegrams.
func (h *Homee) GetHomeegrams(ctx context.Context) ([]Homeegram, error) {
	reply, err := h.request(ctx, GetCommand(h.verbs, KeyHomeegrams))
	if err != nil {
		return nil, err
	}
	return decodeList[Homeegram]([]byte(reply), KeyHomeegrams)
}

// GetNodes requests all nodes.
func (h *Homee) GetNodes(ctx context.Context) ([]Node, error) {
	reply, err := h.request(ctx, GetCommand(h.verbs, KeyNodes))
	if err != nil {
		return nil, err
	}
	return decodeList[Node]([]byte(reply), KeyNodes)
}

// PlayHomeegram starts a homeegram.
func (h *Homee) PlayHomeegram(ctx context.Context, id int) error {
	return h.send(ctx, PlayHomeegramCommand(h.verbs, id, true))
}

// EnableHomeegram enables a homeegram.
func (h *Homee) EnableHomeegram(ctx context.Context, id int) error {
	return h.send(ctx, EnableHomeegramCommand(h.verbs, id, true))
}

// DisableHomeegram disables a homeegram.
func (h *Homee) DisableHomeegram(ctx context.Context, id int) error {
	return h.send(ctx, EnableHomeegramCommand(h.verbs, id, false))
}

// Close closes the underlying connection.
func (h *Homee) Close() error {
	return h.conn.Close()
}

func (h *Homee) send(ctx context.Context, command string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, cancel := withDefaultTimeout(ctx, h.requestTimeout)
	defer cancel()

	if err := h.conn.Send(ctx, command); err != nil {
		return fmt.Errorf("send %q: %w", command, err)
	}
	if h.logger != nil {
		h.logger.Debug("command sent", "command", command)
	}
	return nil
}

// request sends a command and waits for exactly one reply.
func (h *Homee) request(ctx context.Context, command string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx, cancel := withDefaultTimeout(ctx, h.requestTimeout)
	defer cancel()

	if err := h.conn.Send(ctx, command); err != nil {
		return "", fmt.Errorf("send %q: %w", command, err)
	}
	if h.logger != nil {
		h.logger.Debug("request sent", "command", command)
	}

	reply, err := h.conn.Receive(ctx)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("no reply", "command", command, "error", err)
		}
		return "", fmt.Errorf("await reply to %q: %w", command, err)
	}

	if h.logger != nil {
		h.logger.Debug("reply received", "command", command, "replyLen", len(reply))
	}
	return reply, nil
}
