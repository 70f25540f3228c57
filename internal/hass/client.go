package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ereOn/home-control/internal/entity"
	"github.com/ereOn/home-control/internal/infrastructure/config"
)

// ConnectionState is the published connectivity of the upstream client.
type ConnectionState int32

// Connection states, in the order the state machine traverses them.
const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateAuthenticating
	StateSubscribed
)

// String returns the lowercase name of the state.
func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateSubscribed:
		return "subscribed"
	default:
		return "disconnected"
	}
}

// Default timeouts for the websocket connection.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultWriteTimeout   = 5 * time.Second

	// heartbeatDivisor sets how many application pings fit inside one
	// idle window, so a healthy connection never hits the read deadline.
	heartbeatDivisor = 3
)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

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

// Stats holds operational statistics.
type Stats struct {
	State         ConnectionState
	FramesRx      uint64
	EventsApplied uint64
	EventsSkipped uint64
	Connects      uint64 // Times the client reached Subscribed
	LastEventAt   time.Time
}

// pendingResult delivers a command's result frame, or the error that
// prevented one from ever arriving.
type pendingResult struct {
	msg serverMessage
	err error
}

// Client maintains the persistent websocket connection to the source and
// mirrors its entities into the cache.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - The client is the only writer to the cache and to the connection state.
type Client struct {
	cfg   config.UpstreamConfig
	cache *entity.Cache

	state atomic.Int32

	// connMu guards the active connection and serializes frame writes;
	// gorilla permits one concurrent writer per connection.
	connMu sync.Mutex
	conn   *websocket.Conn

	nextID atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan pendingResult

	onStateChange func(entity.State)
	callbackMu    sync.RWMutex

	done *closeOnce
	wg   sync.WaitGroup

	logger Logger

	// Statistics (atomic for performance)
	framesRx      atomic.Uint64
	eventsApplied atomic.Uint64
	eventsSkipped atomic.Uint64
	connects      atomic.Uint64
	lastEventAt   atomic.Int64
}

// New creates a client for the given upstream configuration.
// The client does nothing until Start is called.
func New(cfg config.UpstreamConfig, cache *entity.Cache) *Client {
	return &Client{
		cfg:     cfg,
		cache:   cache,
		pending: make(map[uint64]chan pendingResult),
		done:    newCloseOnce(),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// SetOnStateChange sets a callback invoked after every state applied to
// the cache (incremental events and full dump entries alike).
// The callback must not block.
func (c *Client) SetOnStateChange(callback func(entity.State)) {
	c.callbackMu.Lock()
	c.onStateChange = callback
	c.callbackMu.Unlock()
}

// Start launches the connection loop in a background goroutine.
// It returns immediately; connectivity is reported via ConnState.
func (c *Client) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.run(ctx)
}

// Close shuts the client down and waits for its goroutines to finish.
// Safe to call multiple times.
func (c *Client) Close() error {
	c.done.Close()

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	c.setState(StateDisconnected)
	return nil
}

// ConnState returns the current connection state.
func (c *Client) ConnState() ConnectionState {
	return ConnectionState(c.state.Load())
}

// Connected reports whether the client is subscribed to the source.
func (c *Client) Connected() bool {
	return c.ConnState() == StateSubscribed
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		State:         c.ConnState(),
		FramesRx:      c.framesRx.Load(),
		EventsApplied: c.eventsApplied.Load(),
		EventsSkipped: c.eventsSkipped.Load(),
		Connects:      c.connects.Load(),
		LastEventAt:   time.Unix(c.lastEventAt.Load(), 0),
	}
}

// CallService issues a command to the source's command API and waits for
// its synchronous accept/reject.
//
// Parameters:
//   - ctx: Context for cancellation
//   - domain: Service domain (e.g. "light")
//   - service: Service name (e.g. "turn_on")
//   - data: Optional service data
//   - entityID: Optional target entity
//
// Returns:
//   - error: nil when the source accepted the command; ErrNotConnected,
//     ErrCommandRejected or ErrCommandTimeout otherwise
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]any, entityID string) error {
	if !c.Connected() {
		return ErrNotConnected
	}

	id := c.nextID.Add(1)
	ch := make(chan pendingResult, 1)

	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	msg := callServiceMessage{
		ID:          id,
		Type:        msgTypeCallService,
		Domain:      domain,
		Service:     service,
		ServiceData: data,
	}
	if entityID != "" {
		msg.Target = &serviceTarget{EntityID: entityID}
	}

	if err := c.writeJSON(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}

	timeout := c.cfg.CommandTimeoutDuration()
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		if res.msg.Success != nil && *res.msg.Success {
			return nil
		}
		if res.msg.Error != nil {
			return fmt.Errorf("%w: %s (%s)", ErrCommandRejected, res.msg.Error.Message, res.msg.Error.Code)
		}
		return ErrCommandRejected
	case <-ctx.Done():
		// Caller abandoned the command; not a source timeout.
		return fmt.Errorf("call_service %s.%s: %w", domain, service, ctx.Err())
	case <-time.After(timeout):
		return ErrCommandTimeout
	}
}

// run is the connection loop: dial, hold a session, reconnect with
// exponential backoff on any failure, until shutdown.
func (c *Client) run(ctx context.Context) {
	defer c.wg.Done()

	backoff := c.cfg.Reconnect.InitialDelayDuration()

	for {
		if c.isClosed() || ctx.Err() != nil {
			return
		}

		c.setState(StateConnecting)
		conn, err := c.dial(ctx)
		if err != nil {
			c.setState(StateDisconnected)
			c.logger.Warn("upstream connect failed", "error", err, "backoff", backoff.String())
			if !c.sleep(ctx, backoff) {
				return
			}
			backoff = c.nextBackoff(backoff)
			continue
		}

		c.setConn(conn)
		subscribedAt, err := c.session(ctx, conn)
		c.setConn(nil)
		conn.Close()

		// Publish disconnection before any backoff wait so status
		// reads reflect staleness immediately.
		c.setState(StateDisconnected)
		c.failPending()

		if c.isClosed() || ctx.Err() != nil {
			return
		}

		c.logger.Warn("upstream connection lost", "error", err)

		backoff = c.retryDelay(backoff, subscribedAt)
		if !c.sleep(ctx, backoff) {
			return
		}
		backoff = c.nextBackoff(backoff)
	}
}

// dial opens the websocket connection to the source.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	scheme := "wss"
	if !c.cfg.TLS {
		scheme = "ws"
	}
	url := fmt.Sprintf("%s://%s/api/websocket", scheme, c.cfg.Endpoint)

	dialCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	c.logger.Info("connecting to upstream", "url", url)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// session drives one established connection through authentication,
// subscription and the receive loop. It returns when the connection fails
// or shutdown is requested, reporting when Subscribed was reached (zero if
// never).
func (c *Client) session(ctx context.Context, conn *websocket.Conn) (time.Time, error) {
	// Fresh message ids and no stale waiters per connection.
	c.nextID.Store(0)
	c.failPending()

	heartbeat := c.cfg.HeartbeatTimeoutDuration()
	if heartbeat <= 0 {
		heartbeat = 90 * time.Second
	}

	stop := make(chan struct{})
	defer close(stop)
	c.wg.Add(1)
	go c.heartbeatLoop(stop, heartbeat/heartbeatDivisor)

	var subscribedAt time.Time
	var getStatesID uint64

	for {
		select {
		case <-c.done.Done():
			return subscribedAt, ErrClosed
		case <-ctx.Done():
			return subscribedAt, ctx.Err()
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(heartbeat)); err != nil {
			return subscribedAt, fmt.Errorf("set read deadline: %w", err)
		}

		frameType, data, err := conn.ReadMessage()
		if err != nil {
			return subscribedAt, fmt.Errorf("read frame: %w", err)
		}
		if frameType != websocket.TextMessage {
			return subscribedAt, fmt.Errorf("%w: unexpected frame type %d", ErrProtocolError, frameType)
		}
		c.framesRx.Add(1)

		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Undecodable frame: the stream cannot be trusted.
			return subscribedAt, fmt.Errorf("%w: %w", ErrProtocolError, err)
		}

		switch msg.Type {
		case msgTypeAuthRequired:
			c.setState(StateAuthenticating)
			c.logger.Info("authenticating with upstream", "ha_version", msg.HAVersion)
			if err := c.writeJSON(authMessage{Type: msgTypeAuth, AccessToken: c.cfg.AccessToken}); err != nil {
				return subscribedAt, fmt.Errorf("send auth: %w", err)
			}

		case msgTypeAuthOk:
			if err := c.subscribe(&getStatesID); err != nil {
				return subscribedAt, err
			}
			c.setState(StateSubscribed)
			subscribedAt = time.Now()
			c.connects.Add(1)
			c.logger.Info("subscribed to upstream", "ha_version", msg.HAVersion)

		case msgTypeAuthInvalid:
			return subscribedAt, fmt.Errorf("%w: %s", ErrAuthFailed, msg.Message)

		case msgTypeEvent:
			c.handleEvent(&msg)

		case msgTypeResult:
			if getStatesID != 0 && msg.ID == getStatesID {
				if err := c.handleStatesDump(&msg); err != nil {
					return subscribedAt, err
				}
			} else {
				c.deliverResult(&msg)
			}

		case msgTypePong:
			// Heartbeat answered; the read deadline was refreshed above.

		default:
			c.logger.Debug("unhandled upstream message", "type", msg.Type)
		}
	}
}

// subscribe requests the state_changed event feed and the full state dump.
// The dump is requested on entering Subscribed so the cache is never
// missing an entity the source currently knows about.
func (c *Client) subscribe(getStatesID *uint64) error {
	subID := c.nextID.Add(1)
	if err := c.writeJSON(subscribeEventsMessage{
		ID:        subID,
		Type:      msgTypeSubscribeEvents,
		EventType: eventStateChanged,
	}); err != nil {
		return fmt.Errorf("send subscribe_events: %w", err)
	}

	*getStatesID = c.nextID.Add(1)
	if err := c.writeJSON(getStatesMessage{ID: *getStatesID, Type: msgTypeGetStates}); err != nil {
		return fmt.Errorf("send get_states: %w", err)
	}
	return nil
}

// handleEvent applies a state_changed event to the cache.
// A malformed event is logged and skipped; it never tears down the connection.
func (c *Client) handleEvent(msg *serverMessage) {
	if msg.Event == nil || msg.Event.EventType != eventStateChanged {
		c.logger.Debug("ignoring event", "type", msg.Type)
		return
	}

	data := msg.Event.Data
	if data.EntityID == "" {
		c.logger.Warn("skipping malformed event: missing entity_id")
		c.eventsSkipped.Add(1)
		return
	}

	var state entity.State
	if data.NewState == nil {
		// Removal upstream: keep the key readable as a tombstone.
		state = tombstoneState(data.EntityID, time.Now())
	} else {
		var err error
		state, err = data.NewState.toEntityState()
		if err != nil {
			c.logger.Warn("skipping malformed event", "entity_id", data.EntityID, "error", err)
			c.eventsSkipped.Add(1)
			return
		}
	}

	c.apply(state)
}

// handleStatesDump applies the get_states result to the cache.
// A failed dump leaves the cache incomplete, so it is a session error.
func (c *Client) handleStatesDump(msg *serverMessage) error {
	if msg.Success == nil || !*msg.Success {
		return fmt.Errorf("%w: get_states failed", ErrProtocolError)
	}

	var states []wireState
	if err := json.Unmarshal(msg.Result, &states); err != nil {
		return fmt.Errorf("%w: decode get_states result: %w", ErrProtocolError, err)
	}

	applied := 0
	for i := range states {
		state, err := states[i].toEntityState()
		if err != nil {
			c.logger.Warn("skipping malformed dump entry", "error", err)
			c.eventsSkipped.Add(1)
			continue
		}
		c.apply(state)
		applied++
	}

	c.logger.Info("full state dump applied", "entities", applied, "cache_size", c.cache.Len())
	return nil
}

// apply writes one state to the cache and notifies the change callback.
func (c *Client) apply(state entity.State) {
	c.cache.Apply(state)
	c.eventsApplied.Add(1)
	c.lastEventAt.Store(time.Now().Unix())

	c.callbackMu.RLock()
	callback := c.onStateChange
	c.callbackMu.RUnlock()
	if callback != nil {
		callback(state)
	}
}

// deliverResult hands a result frame to the waiting command, if any.
func (c *Client) deliverResult(msg *serverMessage) {
	c.pendingMu.Lock()
	ch, ok := c.pending[msg.ID]
	if ok {
		delete(c.pending, msg.ID)
	}
	c.pendingMu.Unlock()

	if !ok {
		c.logger.Debug("result with no waiter", "id", msg.ID)
		return
	}
	ch <- pendingResult{msg: *msg}
}

// failPending unblocks every command waiter with ErrNotConnected.
func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	for id, ch := range c.pending {
		ch <- pendingResult{err: ErrNotConnected}
		delete(c.pending, id)
	}
}

// heartbeatLoop sends application-level pings so an idle but healthy
// connection keeps producing inbound traffic before the read deadline.
func (c *Client) heartbeatLoop(stop <-chan struct{}, interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-c.done.Done():
			return
		case <-ticker.C:
			if err := c.writeJSON(pingMessage{ID: c.nextID.Add(1), Type: msgTypePing}); err != nil {
				// The read loop notices the broken connection.
				return
			}
		}
	}
}

// writeJSON writes one frame under the connection write lock.
func (c *Client) writeJSON(v any) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(defaultWriteTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	return c.conn.WriteJSON(v)
}

// setConn publishes the active connection for writers.
func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

// setState publishes a connection state transition.
func (c *Client) setState(state ConnectionState) {
	old := ConnectionState(c.state.Swap(int32(state)))
	if old != state {
		c.logger.Debug("connection state changed", "from", old.String(), "to", state.String())
	}
}

// sleep waits for the backoff duration. It returns false when shutdown or
// context cancellation interrupted the wait.
func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-c.done.Done():
		return false
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// retryDelay picks the wait before the next dial after a lost session.
// A session that stayed subscribed past the stable window forgives the
// accumulated backoff and starts over from the initial delay.
func (c *Client) retryDelay(backoff time.Duration, subscribedAt time.Time) time.Duration {
	if !subscribedAt.IsZero() && time.Since(subscribedAt) >= c.cfg.Reconnect.StableResetDuration() {
		return c.cfg.Reconnect.InitialDelayDuration()
	}
	return backoff
}

// nextBackoff doubles the delay, capped at the configured maximum.
func (c *Client) nextBackoff(d time.Duration) time.Duration {
	next := d * 2
	if max := c.cfg.Reconnect.MaxDelayDuration(); next > max {
		next = max
	}
	return next
}

// isClosed returns true if the client has been closed.
func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}
