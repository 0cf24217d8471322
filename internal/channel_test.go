package internal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeConn replays queued frames then fails the read
type fakeConn struct {
	frames    [][]byte
	closed    chan struct{}
	closeOnce sync.Once
	readErr   error
	nextIdx   int
}

func newFakeConn(frames ...[]byte) *fakeConn {
	return &fakeConn{frames: frames, closed: make(chan struct{}), readErr: errors.New("connection reset")}
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	if c.nextIdx < len(c.frames) {
		frame := c.frames[c.nextIdx]
		c.nextIdx++
		return 1, frame, nil
	}
	// Block until closed so a live connection behaves like an idle socket.
	<-c.closed
	return 0, nil, c.readErr
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func TestPushChannel_DeliversFrames(t *testing.T) {
	msg := CreateTestMessage(1, 7, 2, "see you at booth 12")
	conn := newFakeConn(DeltaFrame(7, 5000, &msg))

	ch := NewPushChannel("ws://test/ws/messages/")
	ch.SetRetryDelay(time.Millisecond)
	ch.SetDialFunc(func(ctx context.Context, url string) (wsConn, error) {
		return conn, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	select {
	case delta := <-ch.Events():
		if delta.ThreadID != 7 {
			t.Errorf("Expected thread 7, got %d", delta.ThreadID)
		}
		if delta.UpdatedAtMillis != 5000 {
			t.Errorf("Expected normalized timestamp 5000, got %d", delta.UpdatedAtMillis)
		}
		if delta.Message == nil || delta.Message.Body != "see you at booth 12" {
			t.Errorf("Expected embedded message, got %+v", delta.Message)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("No delta delivered")
	}
}

func TestPushChannel_DropsMalformedFrames(t *testing.T) {
	conn := newFakeConn(
		[]byte(`{not json`),
		[]byte(`{"updated_at": "2025-06-01T10:00:00Z"}`),
		DeltaFrame(7, 5000, nil),
	)

	ch := NewPushChannel("ws://test/ws/messages/")
	ch.SetRetryDelay(time.Millisecond)
	ch.SetDialFunc(func(ctx context.Context, url string) (wsConn, error) {
		return conn, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	// Only the well-formed frame survives.
	select {
	case delta := <-ch.Events():
		if delta.ThreadID != 7 {
			t.Errorf("Expected thread 7, got %d", delta.ThreadID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("No delta delivered")
	}
}

func TestPushChannel_ReconnectsAfterClose(t *testing.T) {
	dials := make(chan *fakeConn, 8)
	ch := NewPushChannel("ws://test/ws/messages/")
	ch.SetRetryDelay(time.Millisecond)
	ch.SetDialFunc(func(ctx context.Context, url string) (wsConn, error) {
		conn := newFakeConn()
		dials <- conn
		return conn, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		ch.Run(ctx)
		close(done)
	}()

	// Break three consecutive connections; each close earns one reconnect.
	for i := 0; i < 3; i++ {
		select {
		case conn := <-dials:
			conn.Close()
		case <-time.After(5 * time.Second):
			t.Fatalf("Connection %d never established", i+1)
		}
	}

	select {
	case <-dials:
	case <-time.After(5 * time.Second):
		t.Fatal("No reconnect after the third close")
	}
	if ch.Epoch() < 3 {
		t.Errorf("Expected at least 3 epochs, got %d", ch.Epoch())
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPushChannel_RetriesFailedDial(t *testing.T) {
	attempts := make(chan int, 8)
	count := 0
	ch := NewPushChannel("ws://test/ws/messages/")
	ch.SetRetryDelay(time.Millisecond)
	ch.SetDialFunc(func(ctx context.Context, url string) (wsConn, error) {
		count++
		attempts <- count
		return nil, errors.New("connection refused")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		ch.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-attempts:
		case <-time.After(5 * time.Second):
			t.Fatalf("Dial attempt %d never happened", i+1)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPushChannel_TeardownStopsReconnects(t *testing.T) {
	dials := make(chan *fakeConn, 8)
	ch := NewPushChannel("ws://test/ws/messages/")
	ch.SetRetryDelay(time.Millisecond)
	ch.SetDialFunc(func(ctx context.Context, url string) (wsConn, error) {
		conn := newFakeConn()
		dials <- conn
		return conn, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ch.Run(ctx)
		close(done)
	}()

	var conn *fakeConn
	select {
	case conn = <-dials:
	case <-time.After(5 * time.Second):
		t.Fatal("Connection never established")
	}

	// Cancel while the connection is open: the read unblocks, Run returns,
	// and no further dial is attempted.
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	select {
	case <-conn.closed:
	default:
		t.Error("Teardown should close the live connection")
	}

	epochAtCancel := ch.Epoch()
	time.Sleep(20 * time.Millisecond)
	if ch.Epoch() != epochAtCancel {
		t.Errorf("Reconnect attempted after teardown: epoch %d -> %d", epochAtCancel, ch.Epoch())
	}
	if ch.State() != ChannelClosed {
		t.Errorf("Expected closed state after teardown, got %s", ch.State())
	}

	// The events stream is closed so consumers can range over it.
	select {
	case _, ok := <-ch.Events():
		if ok {
			t.Error("Expected closed events channel")
		}
	case <-time.After(time.Second):
		t.Error("Events channel not closed after teardown")
	}
}
