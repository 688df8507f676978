package homee

import (
	"context"
	"io"
	"net"
	"sync"
)

// fakeConn is an in-memory Conn. Frames pushed to incoming are returned by
// Receive; closing incoming makes Receive fail with io.EOF.
type fakeConn struct {
	mu        sync.Mutex
	sent      []string
	sendErr   error
	incoming  chan string
	closed    chan struct{}
	closeOnce sync.Once
	closes    int
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan string, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeConn) Send(ctx context.Context, frame string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.closed:
		return net.ErrClosed
	default:
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeConn) Receive(ctx context.Context) (string, error) {
	select {
	case frame, ok := <-f.incoming:
		if !ok {
			return "", io.EOF
		}
		return frame, nil
	case <-f.closed:
		return "", net.ErrClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeConn) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// fakeDialer hands out a fixed fakeConn and records the dial arguments.
type fakeDialer struct {
	mu           sync.Mutex
	conn         *fakeConn
	err          error
	url          string
	subprotocols []string
	dials        int
}

func (d *fakeDialer) Dial(ctx context.Context, rawURL string, subprotocols []string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.url = rawURL
	d.subprotocols = subprotocols
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}
