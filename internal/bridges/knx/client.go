package knx

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Default timeouts and intervals for knxd communication.
const (
	defaultConnectTimeout    = 10 * time.Second
	defaultReadTimeout       = 30 * time.Second
	defaultWriteTimeout      = 5 * time.Second
	defaultReconnectInterval = 5 * time.Second
	maxReconnectInterval     = 2 * time.Minute

	// readBufferSize bounds a single knxd message; group telegrams are
	// far smaller than this.
	readBufferSize = 256

	// telegramQueueSize is the buffer size for the telegram callback queue.
	telegramQueueSize = 100
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

// ClientConfig holds knxd connection settings.
type ClientConfig struct {
	// Host and Port locate the knxd daemon (TCP transport).
	Host string
	Port int

	// ConnectTimeout is the maximum time to wait for connection.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// ReadTimeout is the timeout for read operations.
	// Default: 30 seconds.
	ReadTimeout time.Duration

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

// Connector is the bus-facing surface used by the coordinator.
// It allows mocking the knxd client in tests.
type Connector interface {
	SendVolumeCommand(ctx context.Context, ga GroupAddress, volume int) error
	SendBooleanCommand(ctx context.Context, ga GroupAddress, value bool) error
	SetOnTelegram(callback func(Telegram))
	IsConnected() bool
	Close() error
}

var _ Connector = (*Client)(nil)

// Client provides a group-socket connection to the knxd daemon.
//
// All methods are safe for concurrent use. On connection loss the client
// reconnects automatically with exponential backoff until Close is called.
// Telegram callbacks run on a dedicated goroutine; panics are recovered
// and logged.
type Client struct {
	cfg  ClientConfig
	addr string

	connMu    sync.RWMutex
	conn      net.Conn
	connected bool

	reconnecting atomic.Bool

	callbackMu sync.RWMutex
	onTelegram func(Telegram)

	telegramQueue chan Telegram

	done *closeOnce
	wg   sync.WaitGroup

	loggerMu sync.RWMutex
	logger   Logger

	telegramsTx  atomic.Uint64
	telegramsRx  atomic.Uint64
	errorsTotal  atomic.Uint64
	lastActivity atomic.Int64
}

// Connect establishes the group-socket connection to knxd.
//
// After dialing it performs the EIB_OPEN_GROUPCON handshake and starts
// the receive and dispatch goroutines.
func Connect(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
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
		cfg:           cfg,
		addr:          addr,
		conn:          conn,
		done:          newCloseOnce(),
		telegramQueue: make(chan Telegram, telegramQueueSize),
	}
	client.lastActivity.Store(time.Now().Unix())

	if err := client.openGroupCon(connectCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: handshake: %w", ErrConnectionFailed, err)
	}

	client.connMu.Lock()
	client.connected = true
	client.connMu.Unlock()

	client.wg.Add(2)
	go client.dispatchLoop()
	go client.receiveLoop()

	return client, nil
}

// openGroupCon performs the EIB_OPEN_GROUPCON handshake.
//
// Payload: reserved(1) + write_only(1) + reserved(1); write_only=0x00
// enables bidirectional communication.
func (c *Client) openGroupCon(ctx context.Context) error {
	msg := EncodeMessage(EIBOpenGroupCon, []byte{0x00, 0x00, 0x00})

	writeDeadline := time.Now().Add(defaultWriteTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(writeDeadline) {
		writeDeadline = deadline
	}
	if err := c.conn.SetWriteDeadline(writeDeadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := c.conn.Write(msg); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	readDeadline := time.Now().Add(c.cfg.ReadTimeout)
	if deadline, ok := ctx.Deadline(); ok && deadline.Before(readDeadline) {
		readDeadline = deadline
	}
	if err := c.conn.SetReadDeadline(readDeadline); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	sizeBytes := make([]byte, 2)
	if _, err := io.ReadFull(c.conn, sizeBytes); err != nil {
		return fmt.Errorf("read response size: %w", err)
	}

	msgSize := binary.BigEndian.Uint16(sizeBytes)
	if msgSize < 2 {
		return fmt.Errorf("invalid response size: %d", msgSize)
	}

	resp := make([]byte, 2+int(msgSize))
	copy(resp[:2], sizeBytes)
	if _, err := io.ReadFull(c.conn, resp[2:]); err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	msgType, _, err := ParseMessage(resp)
	if err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if msgType != EIBOpenGroupCon {
		return fmt.Errorf("unexpected response type: 0x%04X", msgType)
	}

	return nil
}

// receiveLoop reads telegrams from knxd until Close, reconnecting on
// connection loss.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	buf := make([]byte, readBufferSize)

	for {
		select {
		case <-c.done.Done():
			return
		default:
		}

		msgType, payload, fatal := c.readMessage(buf)
		if fatal {
			if c.isClosed() {
				return
			}
			if !c.reconnect() {
				return
			}
			continue
		}

		// Group packet receive format: src(2) + GA(2) + APDU = min 6 bytes.
		if msgType == EIBGroupPacket && len(payload) >= 6 {
			c.handleGroupPacket(payload)
		}
	}
}

// readMessage reads a single framed knxd message. The returned bool is
// true when the connection should be torn down and re-established.
func (c *Client) readMessage(buf []byte) (uint16, []byte, bool) {
	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil {
		return 0, nil, true
	}

	if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
		c.errorsTotal.Add(1)
		return 0, nil, true
	}

	if _, err := io.ReadFull(conn, buf[:2]); err != nil {
		return 0, nil, c.classifyReadError(err)
	}

	msgSize := binary.BigEndian.Uint16(buf[:2])
	totalLen := 2 + int(msgSize)
	if msgSize < 2 || totalLen > len(buf) {
		// Cannot safely skip an oversized or malformed message without
		// risking desync; drop the connection instead.
		c.errorsTotal.Add(1)
		c.logError("malformed message framing, reconnecting", fmt.Errorf("declared size %d", msgSize))
		conn.Close()
		return 0, nil, true
	}

	if _, err := io.ReadFull(conn, buf[2:totalLen]); err != nil {
		return 0, nil, c.classifyReadError(err)
	}

	msgType, payload, err := ParseMessage(buf[:totalLen])
	if err != nil {
		c.errorsTotal.Add(1)
		c.logError("parse message failed", err)
		return 0, nil, false
	}

	return msgType, payload, false
}

// classifyReadError returns true when the error is fatal for the
// connection. Read timeouts are normal on a quiet bus.
func (c *Client) classifyReadError(err error) bool {
	if c.isClosed() {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}

	c.errorsTotal.Add(1)
	c.logError("read failed", err)
	c.markDisconnected()
	return true
}

// handleGroupPacket parses a received group telegram and queues it for
// the dispatch goroutine.
func (c *Client) handleGroupPacket(payload []byte) {
	telegram, err := ParseTelegram(payload)
	if err != nil {
		c.errorsTotal.Add(1)
		c.logError("parse telegram failed", err)
		return
	}

	c.telegramsRx.Add(1)
	c.lastActivity.Store(time.Now().Unix())

	select {
	case c.telegramQueue <- telegram:
	default:
		// Queue full; drop rather than block the receive loop.
		c.errorsTotal.Add(1)
		c.logError("telegram queue full, dropping telegram", nil)
	}
}

// dispatchLoop delivers queued telegrams to the registered callback.
func (c *Client) dispatchLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done.Done():
			return
		case telegram := <-c.telegramQueue:
			c.callbackMu.RLock()
			callback := c.onTelegram
			c.callbackMu.RUnlock()

			if callback == nil {
				continue
			}

			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logError("telegram callback panic", fmt.Errorf("%v", r))
					}
				}()
				callback(telegram)
			}()
		}
	}
}

// reconnect re-establishes the connection with exponential backoff.
// Returns false if shutdown was signalled.
func (c *Client) reconnect() bool {
	if !c.reconnecting.CompareAndSwap(false, true) {
		// Another goroutine owns reconnection; there is only one
		// receive loop so this is just belt and braces.
		return !c.isClosed()
	}
	defer c.reconnecting.Store(false)

	c.markDisconnected()
	backoff := c.cfg.ReconnectInterval

	for attempt := 1; ; attempt++ {
		if c.isClosed() {
			return false
		}

		c.logInfo("attempting knxd reconnection", "attempt", attempt, "backoff", backoff.String())

		c.connMu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.connMu.Unlock()

		if c.tryConnect() {
			c.logInfo("knxd reconnection successful", "attempts", attempt)
			return true
		}

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

// tryConnect dials knxd and redoes the group-socket handshake.
func (c *Client) tryConnect() bool {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		c.errorsTotal.Add(1)
		c.logError("reconnect dial failed", err)
		return false
	}

	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()

	if err := c.openGroupCon(ctx); err != nil {
		c.errorsTotal.Add(1)
		c.logError("reconnect handshake failed", err)
		conn.Close()
		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()
		return false
	}

	c.connMu.Lock()
	c.connected = true
	c.connMu.Unlock()
	c.lastActivity.Store(time.Now().Unix())
	return true
}

func (c *Client) markDisconnected() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.connMu.Unlock()

	if wasConnected {
		c.logInfo("knxd connection lost, will attempt reconnection")
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

// send writes a group write telegram to the bus.
func (c *Client) send(ctx context.Context, ga GroupAddress, data []byte) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTelegramFailed, ctx.Err())
	default:
	}

	msg := EncodeMessage(EIBGroupPacket, NewWriteTelegram(ga, data).Encode())

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.connMu.RLock()
	conn := c.conn
	c.connMu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: set deadline: %w", ErrTelegramFailed, err)
	}
	if _, err := conn.Write(msg); err != nil {
		c.errorsTotal.Add(1)
		return fmt.Errorf("%w: write: %w", ErrTelegramFailed, err)
	}

	c.telegramsTx.Add(1)
	c.lastActivity.Store(time.Now().Unix())
	return nil
}

// SetOnTelegram sets the callback for received telegrams.
//
// The callback is invoked from the dispatch goroutine; panics are
// recovered and logged.
func (c *Client) SetOnTelegram(callback func(Telegram)) {
	c.callbackMu.Lock()
	c.onTelegram = callback
	c.callbackMu.Unlock()
}

// SetLogger sets the logger for this client.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

// IsConnected returns true if the group socket is established.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
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
	c.logInfo("knxd connection closed")
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
