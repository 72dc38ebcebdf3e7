package livestatus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errConnClosed = errors.New("connection closed")

type fakeConn struct {
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 8),
		closed:  make(chan struct{}),
	}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.inbound:
		return TextMessage, data, nil
	case <-f.closed:
		return 0, nil, errConnClosed
	}
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	select {
	case <-f.closed:
		return errConnClosed
	default:
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, string(data))
	return nil
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

type fakeDialer struct {
	mu       sync.Mutex
	dials    int
	failures int
	block    bool
	conns    []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (Conn, error) {
	d.mu.Lock()
	d.dials++
	block := d.block
	if d.failures > 0 {
		d.failures--
		d.mu.Unlock()
		return nil, errors.New("connection refused")
	}
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	conn := newFakeConn()
	d.mu.Lock()
	d.conns = append(d.conns, conn)
	d.mu.Unlock()
	return conn, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[len(d.conns)-1]
}

type transition struct {
	status Status
	at     time.Time
}

type recorder struct {
	mu          sync.Mutex
	transitions []transition
}

func (r *recorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, transition{status: s, at: time.Now()})
}

func (r *recorder) statuses() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Status, 0, len(r.transitions))
	for _, t := range r.transitions {
		out = append(out, t.status)
	}
	return out
}

func (r *recorder) at(i int) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.transitions[i].at
}

func newTestClient(dialer *fakeDialer, delay time.Duration) (*Client, *recorder) {
	rec := &recorder{}
	client := NewClient(Config{
		URL:            "ws://status.test/ws",
		ReconnectDelay: delay,
		Dialer:         dialer,
		OnStatusChange: rec.record,
	})
	return client, rec
}

func waitForStatus(t *testing.T, c *Client, want Status) {
	t.Helper()
	require.Eventually(t, func() bool { return c.Status() == want }, 2*time.Second, time.Millisecond)
}

func TestClient_StartsDisconnected(t *testing.T) {
	client, _ := newTestClient(&fakeDialer{}, time.Second)
	defer client.Close()

	assert.Equal(t, StatusDisconnected, client.Status())
	assert.True(t, client.LastPing().IsZero())
}

func TestClient_ConnectIsNoOpWhileConnected(t *testing.T) {
	dialer := &fakeDialer{}
	client, rec := newTestClient(dialer, time.Second)
	defer client.Close()

	client.Connect()
	waitForStatus(t, client, StatusConnected)

	client.Connect()
	client.Connect()
	assert.Equal(t, 1, dialer.dialCount())
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, rec.statuses())
}

func TestClient_ConnectIsNoOpWhileConnecting(t *testing.T) {
	dialer := &fakeDialer{block: true}
	client, _ := newTestClient(dialer, time.Second)
	defer client.Close()

	client.Connect()
	assert.Equal(t, StatusConnecting, client.Status())
	client.Connect()

	require.Eventually(t, func() bool { return dialer.dialCount() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, dialer.dialCount())
	assert.Equal(t, StatusConnecting, client.Status())
}

func TestClient_ReconnectsOnceAfterDelay(t *testing.T) {
	const delay = 150 * time.Millisecond
	dialer := &fakeDialer{}
	client, rec := newTestClient(dialer, delay)
	defer client.Close()

	client.Connect()
	waitForStatus(t, client, StatusConnected)

	dialer.lastConn().Close()
	waitForStatus(t, client, StatusDisconnected)
	assert.Equal(t, 1, dialer.dialCount(), "no dial before the delay")

	waitForStatus(t, client, StatusConnected)
	time.Sleep(2 * delay)

	assert.Equal(t, 2, dialer.dialCount())
	assert.Equal(t, []Status{
		StatusConnecting, StatusConnected,
		StatusDisconnected,
		StatusConnecting, StatusConnected,
	}, rec.statuses())
	assert.GreaterOrEqual(t, rec.at(3).Sub(rec.at(2)), delay-10*time.Millisecond)
}

func TestClient_ManualConnectDuringDelayDialsOnce(t *testing.T) {
	const delay = 200 * time.Millisecond
	dialer := &fakeDialer{}
	client, _ := newTestClient(dialer, delay)
	defer client.Close()

	client.Connect()
	waitForStatus(t, client, StatusConnected)

	dialer.lastConn().Close()
	waitForStatus(t, client, StatusDisconnected)

	client.Connect()
	waitForStatus(t, client, StatusConnected)
	assert.Equal(t, 2, dialer.dialCount())

	// The superseded timer must not open a second socket
	time.Sleep(2 * delay)
	assert.Equal(t, 2, dialer.dialCount())
	assert.Equal(t, StatusConnected, client.Status())
}

func TestClient_RetriesFailedDials(t *testing.T) {
	dialer := &fakeDialer{failures: 2}
	client, rec := newTestClient(dialer, 30*time.Millisecond)
	defer client.Close()

	client.Connect()
	waitForStatus(t, client, StatusConnected)

	assert.Equal(t, 3, dialer.dialCount())
	assert.Equal(t, []Status{
		StatusConnecting, StatusDisconnected,
		StatusConnecting, StatusDisconnected,
		StatusConnecting, StatusConnected,
	}, rec.statuses())
}

func TestClient_DisconnectIsTerminal(t *testing.T) {
	const delay = 50 * time.Millisecond
	dialer := &fakeDialer{}
	client, _ := newTestClient(dialer, delay)
	defer client.Close()

	client.Connect()
	waitForStatus(t, client, StatusConnected)

	client.Disconnect()
	assert.Equal(t, StatusDisconnected, client.Status())

	time.Sleep(3 * delay)
	assert.Equal(t, 1, dialer.dialCount())
	assert.Equal(t, StatusDisconnected, client.Status())

	client.Connect()
	waitForStatus(t, client, StatusConnected)
	assert.Equal(t, 2, dialer.dialCount())
}

func TestClient_DisconnectCancelsPendingReconnect(t *testing.T) {
	const delay = 100 * time.Millisecond
	dialer := &fakeDialer{}
	client, _ := newTestClient(dialer, delay)
	defer client.Close()

	client.Connect()
	waitForStatus(t, client, StatusConnected)

	dialer.lastConn().Close()
	waitForStatus(t, client, StatusDisconnected)
	client.Disconnect()

	time.Sleep(2 * delay)
	assert.Equal(t, 1, dialer.dialCount())
	assert.Equal(t, StatusDisconnected, client.Status())
}

func TestClient_DisconnectAbortsDial(t *testing.T) {
	dialer := &fakeDialer{block: true}
	client, _ := newTestClient(dialer, 20*time.Millisecond)

	client.Connect()
	require.Eventually(t, func() bool { return dialer.dialCount() == 1 }, time.Second, time.Millisecond)

	client.Close()
	assert.Equal(t, StatusDisconnected, client.Status())
	assert.Equal(t, 1, dialer.dialCount())
}

func TestClient_AnswersHeartbeat(t *testing.T) {
	dialer := &fakeDialer{}
	var (
		mu       sync.Mutex
		received []string
	)
	client := NewClient(Config{
		URL:    "ws://status.test/ws",
		Dialer: dialer,
		OnMessage: func(data []byte) {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, string(data))
		},
	})
	defer client.Close()

	client.Connect()
	waitForStatus(t, client, StatusConnected)
	conn := dialer.lastConn()

	before := time.Now()
	conn.inbound <- []byte(PingToken)
	conn.inbound <- []byte(`{"type":"chat.created"}`)

	require.Eventually(t, func() bool { return len(conn.writes()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{PongToken}, conn.writes())
	assert.False(t, client.LastPing().Before(before))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, time.Millisecond)
	mu.Lock()
	assert.Equal(t, []string{`{"type":"chat.created"}`}, received)
	mu.Unlock()
}
