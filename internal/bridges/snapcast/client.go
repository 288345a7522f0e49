package snapcast

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Default timeouts and intervals for the Snapcast control connection.
const (
	defaultConnectTimeout    = 10 * time.Second
	defaultRequestTimeout    = 5 * time.Second
	defaultReconnectInterval = 5 * time.Second
	maxReconnectInterval     = 2 * time.Minute

	// maxLineSize bounds a single newline-delimited JSON-RPC message.
	// Server.GetStatus on a large installation is the biggest response.
	maxLineSize = 1 << 20
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Config holds Snapcast control connection settings.
type Config struct {
	// Host and Port locate the Snapcast server's JSON-RPC TCP port
	// (default 1705).
	Host string
	Port int

	// ConnectTimeout is the maximum time to wait for connection.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// RequestTimeout bounds a single request/response round trip.
	// Default: 5 seconds.
	RequestTimeout time.Duration

	// ReconnectInterval is the initial delay between reconnection attempts.
	// Default: 5 seconds.
	ReconnectInterval time.Duration
}

// Logger is the optional logging interface accepted by the client.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Controller is the server-facing surface used by the coordinator.
// It allows mocking the Snapcast client in tests.
type Controller interface {
	SetClientVolume(ctx context.Context, clientID string, percent int) error
	SetClientMute(ctx context.Context, clientID string, muted bool) error
	SetGroupStream(ctx context.Context, groupID, streamID string) error
	GetStatus(ctx context.Context) (*ServerStatus, error)
	SetOnClientVolumeChanged(callback func(clientID string, percent int, muted bool))
	SetOnClientConnect(callback func(client ClientInfo))
	SetOnClientDisconnect(callback func(clientID string))
	SetOnGroupStreamChanged(callback func(groupID, streamID string))
	IsConnected() bool
	Close() error
}

var _ Controller = (*Client)(nil)

// Client is a Snapcast JSON-RPC control client.
//
// All methods are safe for concurrent use. On connection loss the client
// reconnects automatically with exponential backoff until Close is
// called; in-flight requests fail with ErrNotConnected. Notification
// callbacks run on the read goroutine's dispatch path with panic
// recovery, so they must not block.
type Client struct {
	cfg  Config
	addr string

	connMu    sync.RWMutex
	conn      net.Conn
	connected bool

	nextID  atomic.Uint64
	pending sync.Map // request id (uint64) -> chan message

	reconnecting atomic.Bool

	callbackMu      sync.RWMutex
	onVolumeChanged func(clientID string, percent int, muted bool)
	onConnect       func(client ClientInfo)
	onDisconnect    func(clientID string)
	onStreamChanged func(groupID, streamID string)

	done *closeOnce
	wg   sync.WaitGroup

	loggerMu sync.RWMutex
	logger   Logger
}

// Connect dials the Snapcast control port and starts the read loop.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrConnectionFailed)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	if ctx == nil {
		ctx = context.Background()
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(connectCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnectionFailed, addr, err)
	}

	client := &Client{
		cfg:  cfg,
		addr: addr,
		conn: conn,
		done: newCloseOnce(),
	}

	client.connMu.Lock()
	client.connected = true
	client.connMu.Unlock()

	client.wg.Add(1)
	go client.readLoop(conn)

	return client, nil
}

// readLoop reads newline-delimited JSON-RPC messages until the
// connection drops, then hands off to the reconnect loop.
func (c *Client) readLoop(conn net.Conn) {
	defer c.wg.Done()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			c.logError("parse message failed", err)
			continue
		}

		if msg.Method != "" {
			c.dispatchNotification(msg)
			continue
		}

		// Response: deliver to the waiting request.
		if ch, ok := c.pending.LoadAndDelete(msg.ID); ok {
			ch.(chan message) <- msg
		}
	}

	if c.isClosed() {
		return
	}

	if err := scanner.Err(); err != nil {
		c.logError("read failed", err)
	}
	c.markDisconnected()
	c.failPending()

	if !c.reconnect() {
		return
	}

	// reconnect started a fresh readLoop for the new connection.
}

// failPending unblocks all in-flight requests after a connection loss.
func (c *Client) failPending() {
	c.pending.Range(func(key, value any) bool {
		c.pending.Delete(key)
		close(value.(chan message))
		return true
	})
}

// dispatchNotification routes a server notification to its callback.
// Panics in callbacks are recovered and logged.
func (c *Client) dispatchNotification(msg message) {
	defer func() {
		if r := recover(); r != nil {
			c.logError("notification callback panic", fmt.Errorf("%v", r))
		}
	}()

	switch msg.Method {
	case "Client.OnVolumeChanged":
		var p volumeChangedParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			c.logError("parse Client.OnVolumeChanged failed", err)
			return
		}
		c.callbackMu.RLock()
		callback := c.onVolumeChanged
		c.callbackMu.RUnlock()
		if callback != nil {
			callback(p.ID, p.Volume.Percent, p.Volume.Muted)
		}

	case "Client.OnConnect":
		var p clientEventParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			c.logError("parse Client.OnConnect failed", err)
			return
		}
		if p.Client.ID == "" {
			p.Client.ID = p.ID
		}
		c.callbackMu.RLock()
		callback := c.onConnect
		c.callbackMu.RUnlock()
		if callback != nil {
			callback(p.Client)
		}

	case "Client.OnDisconnect":
		var p clientEventParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			c.logError("parse Client.OnDisconnect failed", err)
			return
		}
		c.callbackMu.RLock()
		callback := c.onDisconnect
		c.callbackMu.RUnlock()
		if callback != nil {
			callback(p.ID)
		}

	case "Group.OnStreamChanged":
		var p streamChangedParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			c.logError("parse Group.OnStreamChanged failed", err)
			return
		}
		c.callbackMu.RLock()
		callback := c.onStreamChanged
		c.callbackMu.RUnlock()
		if callback != nil {
			callback(p.ID, p.StreamID)
		}

	default:
		// Other notifications (Stream.OnUpdate, Server.OnUpdate, ...) are
		// not needed for fan-out.
	}
}

// reconnect re-establishes the connection with exponential backoff.
// Returns false if shutdown was signalled.
func (c *Client) reconnect() bool {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return !c.isClosed()
	}
	defer c.reconnecting.Store(false)

	backoff := c.cfg.ReconnectInterval

	for attempt := 1; ; attempt++ {
		if c.isClosed() {
			return false
		}

		c.logInfo("attempting snapcast reconnection", "attempt", attempt, "backoff", backoff.String())

		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, "tcp", c.addr)
		cancel()

		if err == nil {
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.Close()
			}
			c.conn = conn
			c.connected = true
			c.connMu.Unlock()

			c.wg.Add(1)
			go c.readLoop(conn)

			c.logInfo("snapcast reconnection successful", "attempts", attempt)
			return true
		}

		c.logError("reconnect dial failed", err)

		select {
		case <-c.done.Done():
			return false
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * 1.5)
		if backoff > maxReconnectInterval {
			backoff = maxReconnectInterval
		}
	}
}

// request performs a JSON-RPC round trip.
func (c *Client) request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	id := c.nextID.Add(1)
	req := request{
		ID:      id,
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal: %w", ErrRequestFailed, err)
	}
	data = append(data, '\n')

	respCh := make(chan message, 1)
	c.pending.Store(id, respCh)
	defer c.pending.Delete(id)

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: set deadline: %w", ErrRequestFailed, err)
	}
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("%w: write: %w", ErrRequestFailed, err)
	}

	timeout := time.NewTimer(time.Until(deadline))
	defer timeout.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, ctx.Err())
	case <-c.done.Done():
		return nil, ErrNotConnected
	case <-timeout.C:
		return nil, fmt.Errorf("%w: %s", ErrTimeout, method)
	case resp, ok := <-respCh:
		if !ok {
			// Channel closed by failPending on connection loss.
			return nil, ErrNotConnected
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("%w: %s: %s (code %d)", ErrRequestFailed, method, resp.Error.Message, resp.Error.Code)
		}
		return resp.Result, nil
	}
}

// SetClientVolume sets a client's volume percentage (0-100).
func (c *Client) SetClientVolume(ctx context.Context, clientID string, percent int) error {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}

	_, err := c.request(ctx, "Client.SetVolume", map[string]any{
		"id":     clientID,
		"volume": map[string]any{"percent": percent},
	})
	return err
}

// SetClientMute sets a client's mute state.
func (c *Client) SetClientMute(ctx context.Context, clientID string, muted bool) error {
	_, err := c.request(ctx, "Client.SetVolume", map[string]any{
		"id":     clientID,
		"volume": map[string]any{"muted": muted},
	})
	return err
}

// SetGroupStream assigns a stream to a group.
func (c *Client) SetGroupStream(ctx context.Context, groupID, streamID string) error {
	_, err := c.request(ctx, "Group.SetStream", map[string]any{
		"id":        groupID,
		"stream_id": streamID,
	})
	return err
}

// GetStatus fetches the full server state (groups, clients, streams).
func (c *Client) GetStatus(ctx context.Context) (*ServerStatus, error) {
	result, err := c.request(ctx, "Server.GetStatus", nil)
	if err != nil {
		return nil, err
	}

	var status ServerStatus
	if err := json.Unmarshal(result, &status); err != nil {
		return nil, fmt.Errorf("%w: parse status: %w", ErrRequestFailed, err)
	}
	return &status, nil
}

// SetOnClientVolumeChanged sets the callback for Client.OnVolumeChanged
// notifications.
func (c *Client) SetOnClientVolumeChanged(callback func(clientID string, percent int, muted bool)) {
	c.callbackMu.Lock()
	c.onVolumeChanged = callback
	c.callbackMu.Unlock()
}

// SetOnClientConnect sets the callback for Client.OnConnect notifications.
func (c *Client) SetOnClientConnect(callback func(client ClientInfo)) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// SetOnClientDisconnect sets the callback for Client.OnDisconnect
// notifications.
func (c *Client) SetOnClientDisconnect(callback func(clientID string)) {
	c.callbackMu.Lock()
	c.onDisconnect = callback
	c.callbackMu.Unlock()
}

// SetOnGroupStreamChanged sets the callback for Group.OnStreamChanged
// notifications.
func (c *Client) SetOnGroupStreamChanged(callback func(groupID, streamID string)) {
	c.callbackMu.Lock()
	c.onStreamChanged = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// IsConnected returns true if the control connection is established.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

func (c *Client) markDisconnected() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	if wasConnected {
		c.logInfo("snapcast connection lost, will attempt reconnection")
	}
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

// Close shuts down the client and waits for its goroutines to finish.
// Safe to call multiple times.
func (c *Client) Close() error {
	c.done.Close()

	c.connMu.Lock()
	c.connected = false
	conn := c.conn
	c.connMu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.wg.Wait()
	c.failPending()
	c.logInfo("snapcast connection closed")
	return nil
}

func (c *Client) logInfo(msg string, keysAndValues ...any) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (c *Client) logError(msg string, err error) {
	c.loggerMu.RLock()
	logger := c.logger
	c.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
