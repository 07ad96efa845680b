package wsclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/codefionn/agentwire/internal/logger"
	"github.com/codefionn/agentwire/internal/metric"
	"github.com/codefionn/agentwire/internal/protocol"
	"github.com/codefionn/agentwire/internal/router"
	"github.com/codefionn/agentwire/internal/sessionstore"
)

// activeConn bundles the resources of one established transport connection.
// A fresh activeConn is created per successful dial; its done channel stops
// the pumps and heartbeat of exactly that connection, so a stale timer or
// pump from a previous connection can never touch the current one.
type activeConn struct {
	ws       *websocket.Conn
	outgoing chan *protocol.Envelope
	done     chan struct{}
	stopOnce sync.Once
}

func (a *activeConn) shutdown() {
	a.stopOnce.Do(func() {
		close(a.done)
		a.ws.Close()
	})
}

// Client owns one WebSocket connection to the agent backend: its lifecycle
// state machine, heartbeat, reconnection with exponential backoff, offline
// send queue and inbound dispatch through its own router plus the shared
// process-wide router.
type Client struct {
	cfg        *Config
	contextKey string
	log        *logger.Logger
	metrics    *metric.Metrics
	store      sessionstore.Store
	notify     Notifier

	msgRouter *router.Router
	shared    *router.Router
	events    *eventEmitter
	queue     *sendQueue

	mu             sync.Mutex
	conn           *activeConn
	state          State
	closed         bool
	attempts       int
	reconnectTimer *time.Timer

	sessMu      sync.Mutex
	sessionID   string
	storeWarned bool

	hbSeq atomic.Int64
}

// New creates a client bound to one workspace context. The context key and
// the transport URL are validated here, before any network attempt.
func New(contextKey string, cfg *Config) (*Client, error) {
	if contextKey == "" {
		return nil, ErrMissingContextKey
	}
	if cfg == nil || cfg.URL == "" {
		return nil, ErrMissingURL
	}
	cfg = cfg.withDefaults()

	log := cfg.Logger
	if log == nil {
		log = logger.Global()
	}
	log = log.WithPrefix("ws:" + contextKey)

	store := cfg.Store
	if store == nil {
		store = sessionstore.NewMemoryStore()
	}

	shared := cfg.SharedRouter
	if shared == nil {
		shared = router.Shared()
	}

	c := &Client{
		cfg:        cfg,
		contextKey: contextKey,
		log:        log,
		metrics:    cfg.Metrics,
		store:      store,
		notify:     cfg.Notify,
		msgRouter:  router.New(),
		shared:     shared,
		events:     newEventEmitter(log),
		queue:      newSendQueue(cfg.QueueCapacity),
		state:      StateDisconnected,
	}
	c.initSession()

	return c, nil
}

// ContextKey returns the workspace context this client is bound to.
func (c *Client) ContextKey() string {
	return c.contextKey
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected returns true if the client is connected.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Connect opens the transport. It is a no-op while already connected or
// connecting. On success the state becomes connected, the reconnect counter
// resets, the heartbeat starts and the offline queue is flushed in FIFO
// order. On failure the reconnection machinery takes over.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	c.closed = false
	c.stopReconnectTimerLocked()
	prev := c.state
	c.state = StateConnecting
	c.mu.Unlock()
	c.emitStateChange(prev, StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.ConnectTimeout}
	ws, resp, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		err = fmt.Errorf("failed to connect to %s: %w", c.cfg.URL, err)
		c.log.Warn("%v", err)
		c.events.emit(EventData{Event: EventError, State: c.State(), Err: err})
		c.scheduleReconnect()
		return err
	}

	conn := &activeConn{
		ws:       ws,
		outgoing: make(chan *protocol.Envelope, c.cfg.QueueCapacity+16),
		done:     make(chan struct{}),
	}

	c.mu.Lock()
	if c.closed {
		// Disconnect raced the dial; drop the fresh connection.
		c.mu.Unlock()
		ws.Close()
		return ErrClientClosed
	}
	c.conn = conn
	c.attempts = 0
	prev = c.state
	c.state = StateConnected
	c.mu.Unlock()

	go c.readPump(conn)
	go c.writePump(conn)
	go c.heartbeatLoop(conn)

	c.emitStateChange(prev, StateConnected)
	c.events.emit(EventData{Event: EventConnect, State: StateConnected})
	c.log.Info("connected to %s", c.cfg.URL)

	c.sendBootstrap(conn)
	c.flushQueue(conn)

	return nil
}

// Disconnect performs a manual, clean close: all timers stop, the transport
// closes with a normal-closure code and no reconnection is attempted.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.closed = true
	c.stopReconnectTimerLocked()
	c.attempts = 0
	conn := c.conn
	c.conn = nil
	prev := c.state
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		_ = conn.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client disconnect"), deadline)
		conn.shutdown()
	}

	c.emitStateChange(prev, StateDisconnected)
	c.events.emit(EventData{Event: EventDisconnect, State: StateDisconnected})
	c.log.Info("disconnected")
	return nil
}

// Send builds an envelope for the given type and transmits it. While not
// connected the envelope is buffered instead; sending never fails the
// caller for being offline.
func (c *Client) Send(msgType protocol.MessageType, payload any) error {
	env, err := protocol.Build(msgType, payload, c.SessionID())
	if err != nil {
		return err
	}
	c.sendEnvelope(env)
	return nil
}

func (c *Client) sendEnvelope(env *protocol.Envelope) {
	conn, connected := c.transport()
	if !connected {
		c.enqueueOffline(env)
		return
	}

	timer := time.NewTimer(c.cfg.SendTimeout)
	defer timer.Stop()
	select {
	case conn.outgoing <- env:
	case <-conn.done:
		c.enqueueOffline(env)
	case <-timer.C:
		// Transport stalled; buffer instead of failing the caller.
		c.enqueue(env)
	}
}

// transport returns the current connection and whether it is usable.
func (c *Client) transport() (*activeConn, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn, c.state == StateConnected && c.conn != nil
}

// enqueueOffline buffers env, then re-checks the transport: a Connect
// completing between the caller's state check and the push would have
// already flushed the queue, stranding env until the next reconnect. Any
// live connection found here drains the queue again.
func (c *Client) enqueueOffline(env *protocol.Envelope) {
	c.enqueue(env)
	if conn, connected := c.transport(); connected {
		c.flushQueue(conn)
	}
}

func (c *Client) enqueue(env *protocol.Envelope) {
	if evicted := c.queue.push(env); evicted != nil {
		c.metrics.IncDropped(c.contextKey)
		c.log.Warn("offline queue full, dropped oldest message %s (%s)", evicted.ID, evicted.Type)
	}
	c.metrics.IncQueued(c.contextKey)
	c.metrics.SetQueueDepth(c.contextKey, c.queue.len())
	c.log.Debug("queued %s message while %s", env.Type, c.State())
}

// QueuedMessages returns the number of envelopes waiting in the offline
// queue.
func (c *Client) QueuedMessages() int {
	return c.queue.len()
}

// OnMessage registers a handler for one payload message type on the
// client's own router.
func (c *Client) OnMessage(msgType protocol.MessageType, fn router.Handler) func() {
	return c.msgRouter.On(msgType, fn)
}

// OnceMessage registers a handler delivered at most once.
func (c *Client) OnceMessage(msgType protocol.MessageType, fn router.Handler) func() {
	return c.msgRouter.Once(msgType, fn)
}

// OnAnyMessage registers a handler for every inbound message.
func (c *Client) OnAnyMessage(fn router.Handler) func() {
	return c.msgRouter.OnAny(fn)
}

// Router exposes the client's own message router.
func (c *Client) Router() *router.Router {
	return c.msgRouter
}

// On subscribes to a connection lifecycle event. Lifecycle events carry
// metadata about the channel itself, not its contents.
func (c *Client) On(event Event, fn EventHandler) func() {
	return c.events.on(event, fn)
}

// Close tears the client down for good: disconnect, drop all subscriptions.
func (c *Client) Close() error {
	err := c.Disconnect()
	c.msgRouter.Clear()
	c.events.clear()
	return err
}

// readPump reads frames from the connection until it dies.
func (c *Client) readPump(conn *activeConn) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			c.handleConnectionLost(conn, err)
			return
		}
		c.handleInbound(data)
	}
}

// writePump serializes all data writes to the connection.
func (c *Client) writePump(conn *activeConn) {
	for {
		select {
		case <-conn.done:
			return
		case env := <-conn.outgoing:
			data, err := env.Marshal()
			if err != nil {
				c.log.Error("failed to marshal %s message: %v", env.Type, err)
				continue
			}
			conn.ws.SetWriteDeadline(time.Now().Add(c.cfg.SendTimeout))
			if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.handleConnectionLost(conn, err)
				return
			}
			c.metrics.IncSent(c.contextKey, env.Type.String())
		}
	}
}

// heartbeatLoop sends keep-alives while the connection is up. It lives and
// dies with one activeConn, so the heartbeat never fires outside the
// connected state.
func (c *Client) heartbeatLoop(conn *activeConn) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.done:
			return
		case <-ticker.C:
			env, err := protocol.Build(protocol.TypeHeartbeat,
				&protocol.HeartbeatPayload{Seq: c.hbSeq.Add(1)}, c.SessionID())
			if err != nil {
				continue
			}
			select {
			case conn.outgoing <- env:
			case <-conn.done:
				return
			}
		}
	}
}

// sendBootstrap announces the client on a fresh connection.
func (c *Client) sendBootstrap(conn *activeConn) {
	env, err := protocol.Build(protocol.TypeConnect, &protocol.ConnectPayload{
		ClientType:   c.cfg.ClientType,
		Version:      c.cfg.ClientVersion,
		Capabilities: c.cfg.Capabilities,
	}, c.SessionID())
	if err != nil {
		c.log.Error("failed to build bootstrap message: %v", err)
		return
	}
	select {
	case conn.outgoing <- env:
	case <-conn.done:
	}
}

// flushQueue transmits everything buffered while offline, preserving the
// original enqueue order.
func (c *Client) flushQueue(conn *activeConn) {
	pending := c.queue.drain()
	if len(pending) == 0 {
		return
	}
	c.log.Info("flushing %d queued messages", len(pending))
	for _, env := range pending {
		select {
		case conn.outgoing <- env:
		case <-conn.done:
			// Connection died mid-flush; put the rest back.
			c.enqueue(env)
		}
	}
	c.metrics.SetQueueDepth(c.contextKey, c.queue.len())
}

// handleInbound validates one raw frame and fans it out: first through the
// client's own router, then exactly once through the shared process-wide
// router.
func (c *Client) handleInbound(data []byte) {
	env, err := protocol.Parse(data)
	if err != nil {
		// Protocol error: drop the message, keep the channel alive.
		c.metrics.IncParseFailure(c.contextKey)
		c.log.Warn("dropping unroutable message: %v", err)
		c.events.emit(EventData{Event: EventError, State: c.State(), Err: err})
		return
	}
	c.metrics.IncReceived(c.contextKey, env.Type.String())

	// The remote is authoritative for session identity once it responds.
	if env.Type == protocol.TypeConnected && env.SessionID != "" {
		c.SetSessionID(env.SessionID)
	}

	c.events.emit(EventData{Event: EventMessage, State: c.State(), Envelope: env})

	dispatchErr := c.msgRouter.Dispatch(env)
	if sharedErr := c.shared.Dispatch(env); sharedErr != nil {
		dispatchErr = errors.Join(dispatchErr, sharedErr)
	}
	if dispatchErr == nil {
		return
	}

	c.metrics.IncDispatchFailure(c.contextKey, env.Type.String())
	if criticalType(env.Type) {
		c.notifyUser("error", fmt.Sprintf("handler failure for %s message: %v", env.Type, dispatchErr))
	} else {
		c.log.Warn("handler failure for %s message: %v", env.Type, dispatchErr)
	}
}

// criticalType marks the message kinds whose dispatch failures must reach
// the user instead of only the log.
func criticalType(t protocol.MessageType) bool {
	switch t {
	case protocol.TypeError, protocol.TypeTaskError, protocol.TypeTaskComplete:
		return true
	}
	return false
}

// handleConnectionLost tears down one dead connection and, unless the close
// was manual, hands control to the reconnection machinery. Pumps of stale
// connections return without side effects.
func (c *Client) handleConnectionLost(conn *activeConn, err error) {
	conn.shutdown()

	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	manual := c.closed
	c.mu.Unlock()

	if manual {
		return
	}

	c.log.Warn("connection lost: %v", err)
	c.events.emit(EventData{Event: EventError, State: c.State(), Err: err})
	c.events.emit(EventData{Event: EventDisconnect, State: c.State(), Err: err})
	c.scheduleReconnect()
}

// scheduleReconnect advances the reconnection state machine: below the
// attempt cap it schedules a single-shot backoff timer, at the cap it
// transitions to the error state and emits the fatal event exactly once.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	if c.attempts >= c.cfg.ReconnectAttempts {
		prev := c.state
		c.state = StateError
		c.mu.Unlock()

		c.emitStateChange(prev, StateError)
		fatal := NewWireError("RECONNECT_EXHAUSTED",
			fmt.Sprintf("giving up after %d reconnect attempts", c.cfg.ReconnectAttempts), "")
		c.log.Error("%v", fatal)
		c.events.emit(EventData{Event: EventError, State: StateError, Err: fatal, Fatal: true})
		c.notifyUser("error", fatal.Error())
		return
	}

	c.attempts++
	attempt := c.attempts
	delay := reconnectDelay(c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay, attempt)
	prev := c.state
	c.state = StateReconnecting
	c.reconnectTimer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		stale := c.closed || c.state != StateReconnecting
		c.mu.Unlock()
		if stale {
			return
		}
		_ = c.Connect(context.Background())
	})
	c.mu.Unlock()

	c.metrics.IncReconnect(c.contextKey)
	c.log.Info("reconnect attempt %d/%d in %s", attempt, c.cfg.ReconnectAttempts, delay)
	c.emitStateChange(prev, StateReconnecting)
}

// reconnectDelay computes the backoff for the given 1-based attempt:
// base doubled per attempt, hard-capped at max.
func reconnectDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}

func (c *Client) stopReconnectTimerLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

func (c *Client) emitStateChange(prev, next State) {
	if prev == next {
		return
	}
	c.metrics.SetState(c.contextKey, int(next))
	c.log.Debug("state %s -> %s", prev, next)
	c.events.emit(EventData{Event: EventStateChange, PrevState: prev, State: next})
}

func (c *Client) notifyUser(severity, message string) {
	if c.notify != nil {
		c.notify(severity, message)
		return
	}
	c.log.Error("notification (%s): %s", severity, message)
}

// initSession restores the session id from the store, generating and
// persisting a fresh one on first use. Store failures degrade to an
// in-memory session with a single warning.
func (c *Client) initSession() {
	id, ok, err := c.store.Load(c.contextKey)
	if err != nil {
		c.warnStoreOnce(err)
	}
	if ok && id != "" {
		c.sessionID = id
		return
	}

	c.sessionID = uuid.New().String()
	if err := c.store.Save(c.contextKey, c.sessionID); err != nil {
		c.warnStoreOnce(err)
	}
}

// SessionID returns the current session identity.
func (c *Client) SessionID() string {
	c.sessMu.Lock()
	defer c.sessMu.Unlock()
	return c.sessionID
}

// SetSessionID overwrites the session identity and persists it under the
// context-scoped key. Setting the current value again is a no-op, with no
// storage write.
func (c *Client) SetSessionID(id string) {
	c.sessMu.Lock()
	if id == "" || id == c.sessionID {
		c.sessMu.Unlock()
		return
	}
	c.sessionID = id
	c.sessMu.Unlock()

	c.log.Debug("session id set to %s", id)
	if err := c.store.Save(c.contextKey, id); err != nil {
		c.warnStoreOnce(err)
	}
}

func (c *Client) warnStoreOnce(err error) {
	c.sessMu.Lock()
	warned := c.storeWarned
	c.storeWarned = true
	c.sessMu.Unlock()
	if !warned {
		c.log.Warn("session store unavailable, continuing with in-memory session id: %v", err)
	}
}
