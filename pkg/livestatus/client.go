package livestatus

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

const (
	PingToken = "ping"
	PongToken = "pong"

	DefaultReconnectDelay = 2 * time.Second
	DefaultDialTimeout    = 10 * time.Second
)

type Config struct {
	URL            string
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	Dialer         Dialer
	Logger         *zap.Logger

	// OnStatusChange runs outside the client lock, so it may call back into
	// the client. Transitions from concurrent events may arrive interleaved.
	OnStatusChange func(Status)
	// OnMessage receives every inbound frame except heartbeats.
	OnMessage func([]byte)
}

// Client keeps a status-channel connection open, reconnecting after a fixed
// delay whenever it drops, until Disconnect is called.
type Client struct {
	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	status Status
	conn   Conn

	// generation changes on every Connect/Disconnect and invalidates
	// in-flight dials, read loops and reconnect timers from before it.
	generation uint64
	reconnect  *time.Timer
	cancelDial context.CancelFunc
	lastPing   time.Time
	pending    []Status

	wg sync.WaitGroup
}

func NewClient(cfg Config) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.Dialer == nil {
		cfg.Dialer = NewGorillaDialer()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		cfg:    cfg,
		log:    log.With(zap.String("url", cfg.URL)),
		status: StatusDisconnected,
	}
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastPing is when the server's last heartbeat arrived, zero if none has.
func (c *Client) LastPing() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPing
}

// Connect starts a dial unless one is in flight or the client is connected.
// A pending reconnect is replaced by this dial.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.status == StatusDisconnected {
		c.dialLocked()
	}
	c.unlockAndNotify()
}

// Disconnect closes the connection and stays disconnected until the next Connect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.generation++
	c.stopReconnectLocked()
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	conn := c.conn
	c.conn = nil
	c.setStatusLocked(StatusDisconnected)
	c.unlockAndNotify()

	if conn != nil {
		_ = conn.Close()
	}
}

// Close disconnects and waits for background goroutines to exit. It must not
// be called from OnStatusChange or OnMessage.
func (c *Client) Close() {
	c.Disconnect()
	c.wg.Wait()
}

func (c *Client) dialLocked() {
	c.stopReconnectLocked()
	c.generation++
	gen := c.generation

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.DialTimeout)
	c.cancelDial = cancel
	c.setStatusLocked(StatusConnecting)

	c.wg.Add(1)
	go c.dial(ctx, cancel, gen)
}

func (c *Client) dial(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer c.wg.Done()

	conn, err := c.cfg.Dialer.Dial(ctx, c.cfg.URL)
	cancel()

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	c.cancelDial = nil

	if err != nil {
		c.log.Warn("status channel dial failed", zap.Error(err))
		c.dropLocked(gen)
		c.unlockAndNotify()
		return
	}

	c.conn = conn
	c.setStatusLocked(StatusConnected)
	c.wg.Add(1)
	c.unlockAndNotify()

	c.log.Info("status channel connected")
	go c.readLoop(conn, gen)
}

func (c *Client) readLoop(conn Conn, gen uint64) {
	defer c.wg.Done()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if gen == c.generation && c.conn == conn {
				c.log.Info("status channel closed", zap.Error(err))
				c.conn = nil
				c.dropLocked(gen)
			}
			c.unlockAndNotify()
			_ = conn.Close()
			return
		}

		if string(data) == PingToken {
			c.mu.Lock()
			c.lastPing = time.Now()
			c.mu.Unlock()

			if err := conn.WriteMessage(TextMessage, []byte(PongToken)); err != nil {
				c.log.Debug("heartbeat reply failed", zap.Error(err))
			}
			continue
		}

		if c.cfg.OnMessage != nil {
			c.cfg.OnMessage(data)
		}
	}
}

// dropLocked marks the client disconnected and schedules the single reconnect.
func (c *Client) dropLocked(gen uint64) {
	c.setStatusLocked(StatusDisconnected)
	c.stopReconnectLocked()

	c.wg.Add(1)
	c.reconnect = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		defer c.wg.Done()

		c.mu.Lock()
		if gen == c.generation && c.status == StatusDisconnected {
			c.reconnect = nil
			c.log.Info("reconnecting status channel")
			c.dialLocked()
		}
		c.unlockAndNotify()
	})
}

func (c *Client) stopReconnectLocked() {
	if c.reconnect == nil {
		return
	}
	if c.reconnect.Stop() {
		// The callback will never run, so release its slot here
		c.wg.Done()
	}
	c.reconnect = nil
}

func (c *Client) setStatusLocked(s Status) {
	if c.status == s {
		return
	}
	c.status = s
	c.pending = append(c.pending, s)
}

func (c *Client) unlockAndNotify() {
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	if c.cfg.OnStatusChange == nil {
		return
	}
	for _, s := range pending {
		c.cfg.OnStatusChange(s)
	}
}
