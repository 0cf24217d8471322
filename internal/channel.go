package internal

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ChannelRetryDelay is the fixed delay between push-channel reconnect
// attempts.
const ChannelRetryDelay = 3 * time.Second

// ChannelState represents the push-channel connection state
type ChannelState int

const (
	ChannelConnecting ChannelState = iota
	ChannelOpen
	ChannelClosed
)

// String returns the state name
func (s ChannelState) String() string {
	switch s {
	case ChannelConnecting:
		return "connecting"
	case ChannelOpen:
		return "open"
	case ChannelClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// wsConn is the subset of *websocket.Conn the channel uses; tests substitute
// their own transport through the dial function.
type wsConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// DialFunc establishes one websocket connection
type DialFunc func(ctx context.Context, url string) (wsConn, error)

func gorillaDial(ctx context.Context, url string) (wsConn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// PushChannel maintains the persistent receive-only connection that delivers
// per-thread deltas. After every close it re-enters connecting following a
// fixed retry delay, indefinitely, until Run's context is cancelled; then
// the connection is closed deliberately and no further attempt is scheduled.
// Delivery order across reconnect epochs is not guaranteed; the
// Synchronizer's merge rules compensate.
type PushChannel struct {
	url        string
	dial       DialFunc
	retryDelay time.Duration
	events     chan *ThreadDelta

	mu    sync.Mutex
	state ChannelState
	epoch int
}

// NewPushChannel creates a push channel for the given websocket URL
func NewPushChannel(url string) *PushChannel {
	return &PushChannel{
		url:        url,
		dial:       gorillaDial,
		retryDelay: ChannelRetryDelay,
		events:     make(chan *ThreadDelta, 16),
		state:      ChannelClosed,
	}
}

// SetDialFunc overrides the websocket dialer (used in tests)
func (p *PushChannel) SetDialFunc(dial DialFunc) {
	p.dial = dial
}

// SetRetryDelay overrides the reconnect delay (used in tests)
func (p *PushChannel) SetRetryDelay(delay time.Duration) {
	p.retryDelay = delay
}

// Events returns the inbound delta stream. The channel is closed when Run
// returns.
func (p *PushChannel) Events() <-chan *ThreadDelta {
	return p.events
}

// State returns the current connection state
func (p *PushChannel) State() ChannelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Epoch returns the number of connections established so far
func (p *PushChannel) Epoch() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epoch
}

func (p *PushChannel) setState(state ChannelState) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

// Run drives the connect/read/reconnect loop until ctx is cancelled. Channel
// failures are never surfaced to the user; each close schedules exactly one
// reconnect attempt after the retry delay.
func (p *PushChannel) Run(ctx context.Context) {
	defer close(p.events)
	defer p.setState(ChannelClosed)

	for {
		p.setState(ChannelConnecting)
		conn, err := p.dial(ctx, p.url)
		if err != nil {
			p.setState(ChannelClosed)
			if ctx.Err() != nil {
				return
			}
			LogDebug("Push channel connect failed: %v", err)
			if !p.sleep(ctx) {
				return
			}
			continue
		}

		p.mu.Lock()
		p.epoch++
		epoch := p.epoch
		p.state = ChannelOpen
		p.mu.Unlock()
		LogDebug("Push channel open (epoch %d)", epoch)

		err = p.readLoop(ctx, conn)
		conn.Close()
		p.setState(ChannelClosed)
		if ctx.Err() != nil {
			return
		}
		LogDebug("%v", &ChannelError{Epoch: epoch, Err: err})
		if !p.sleep(ctx) {
			return
		}
	}
}

// readLoop delivers frames until the connection breaks or ctx is cancelled
func (p *PushChannel) readLoop(ctx context.Context, conn wsConn) error {
	// Unblock the blocking read when the owning context is torn down.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		delta, err := ParseThreadDelta(data)
		if err != nil {
			LogWarn("Dropping malformed push frame: %v", err)
			continue
		}
		select {
		case p.events <- delta:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// sleep waits one retry delay; it reports false when ctx ended first
func (p *PushChannel) sleep(ctx context.Context) bool {
	timer := time.NewTimer(p.retryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
