// Package session implements the per-connection state machine of
// spec.md §4.3: Handshaking, Status, Login and Play, plus the keep-alive
// driver of §4.3 and the bounded, barrier-respecting outbound queue of
// §4.2/§5.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	servernet "github.com/dm-vev/ferrite/server/net"
	"github.com/dm-vev/ferrite/server/session/packet"
	"github.com/google/uuid"
)

// State is one state of the session state machine.
type State int32

const (
	StateHandshaking State = iota
	StateStatus
	StateLogin
	StatePlay
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StatePlay:
		return "play"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// LoginDecision is returned by a LoginAcceptor in response to LoginStart.
type LoginDecision struct {
	Accept   bool
	UUID     uuid.UUID
	Username string
	Encrypt  bool
	Compress bool
	// Threshold is the compression threshold to install when Compress is
	// true; values below 1 disable compression.
	Threshold int32
	// Reason is the plain text sent back, wrapped as the text of a JSON chat
	// component, when Accept is false.
	Reason string
}

// LoginAcceptor decides what to do with a LoginStart, per spec.md §6
// "a login acceptor returning Accept/Disconnect".
type LoginAcceptor func(name string) LoginDecision

// StatusResponder produces the JSON status blob for a StatusRequest, per
// spec.md §6 "a server-list-ping responder returning a JSON blob".
type StatusResponder func() string

// Config configures a Session at construction, per spec.md §6 "Session
// configuration".
type Config struct {
	Log               *slog.Logger
	EventQueueSize    int
	OutboundQueueSize int
	KeepAliveInterval time.Duration
	KeepAliveRetry    time.Duration
	KeepAliveTimeout  time.Duration

	StatusResponder StatusResponder
	LoginAcceptor   LoginAcceptor
}

func (c *Config) applyDefaults() {
	if c.Log == nil {
		c.Log = slog.Default()
	}
	if c.EventQueueSize <= 0 {
		c.EventQueueSize = 100
	}
	if c.OutboundQueueSize <= 0 {
		c.OutboundQueueSize = 500
	}
	if c.KeepAliveInterval <= 0 {
		c.KeepAliveInterval = 10 * time.Second
	}
	if c.KeepAliveRetry <= 0 {
		c.KeepAliveRetry = time.Second
	}
	if c.KeepAliveTimeout <= 0 {
		c.KeepAliveTimeout = 30 * time.Second
	}
}

// Session drives one client connection through the state machine.
type Session struct {
	conn *servernet.Conn
	log  *slog.Logger
	cfg  Config

	state atomic.Int32

	events       chan ClientEvent
	eventsMu     sync.Mutex
	eventsClosed bool
	outbound     *outboundQueue

	uuid     uuid.UUID
	username string

	lastKeepAliveID      atomic.Int64
	lastKeepAliveAt      atomic.Int64
	firstUnansweredAt    atomic.Int64
	keepAliveOutstanding atomic.Bool
	lastPing             atomic.Int64

	done     chan struct{}
	closeErr error
	closeMu  sync.Mutex
}

// NewSession wraps conn with the spec's state machine. conn is assumed
// freshly accepted and not yet read from.
func NewSession(conn *servernet.Conn, cfg Config) *Session {
	cfg.applyDefaults()
	s := &Session{
		conn:     conn,
		log:      cfg.Log,
		cfg:      cfg,
		events:   make(chan ClientEvent, cfg.EventQueueSize),
		outbound: newOutboundQueue(cfg.OutboundQueueSize),
		done:     make(chan struct{}),
	}
	s.state.Store(int32(StateHandshaking))
	return s
}

// State returns the session's current state.
func (s *Session) State() State { return State(s.state.Load()) }

// UUID returns the session's identity once logged in.
func (s *Session) UUID() uuid.UUID { return s.uuid }

// Username returns the session's reported username once logged in.
func (s *Session) Username() string { return s.username }

// Ping returns the round-trip time measured by the most recent
// answered keep-alive.
func (s *Session) Ping() time.Duration {
	return time.Duration(s.lastPing.Load()) * time.Millisecond
}

// Events returns the channel of ClientEvents the session delivers
// upstream, closed once the session has fully torn down. The caller must
// keep draining it; a full queue causes new events to be reported via
// EventSendFailed and logged, never blocking the session's own loops.
func (s *Session) Events() <-chan ClientEvent { return s.events }

// Done is closed once the session has fully torn down.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run drives the session until it disconnects or ctx is cancelled. It
// starts the outbound writer and, once Play is reached, the keep-alive
// driver; it blocks in the inbound read loop on the calling goroutine.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { s.conn.Close() })
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.keepAliveLoop()
	}()

	readErr := s.readLoop(ctx)

	s.outbound.close()
	s.state.Store(int32(StateDisconnected))
	close(s.done)
	wg.Wait()
	s.conn.Close()
	s.closeEvents()

	// A recorded cause (keep-alive timeout, slow consumer) outranks the
	// socket error its own teardown provoked.
	if err := s.closeError(); err != nil {
		return err
	}
	return readErr
}

func (s *Session) closeError() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closeErr
}

func (s *Session) setCloseError(err error) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closeErr == nil {
		s.closeErr = err
	}
}

// readLoop is the session's single inbound reader task.
func (s *Session) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		raw, err := s.conn.ReadFrame()
		if err != nil {
			return SocketIo{Err: err}
		}
		if err := s.dispatch(raw.ID, raw.Body); err != nil {
			if errors.Is(err, errGracefulClose) {
				return nil
			}
			s.log.Debug("session terminating", "state", s.State(), "err", err)
			s.disconnectWithReason(err)
			return err
		}
	}
}

var errGracefulClose = errors.New("session: graceful close")

func (s *Session) dispatch(id int32, body []byte) error {
	r := packet.NewReaderFrom(body)
	switch s.State() {
	case StateHandshaking:
		return s.handleHandshaking(id, r)
	case StateStatus:
		return s.handleStatus(id, r)
	case StateLogin:
		return s.handleLogin(id, r)
	case StatePlay:
		return s.handlePlay(id, r, body)
	default:
		return UnexpectedPacketForState{State: s.State(), ID: id}
	}
}

// writeLoop is the session's single outbound writer task.
func (s *Session) writeLoop() {
	for {
		item, ok := s.outbound.pop()
		if !ok {
			return
		}
		var err error
		switch v := item.(type) {
		case frame:
			err = s.conn.WriteFrame(v.id, v.body)
		case barrier:
			err = v.write(s.conn)
		}
		if err != nil {
			s.log.Debug("session write failed", "err", err)
			s.outbound.close()
			return
		}
	}
}

// enqueue writes id+body through the outbound queue, essential frames
// never being dropped under backpressure.
func (s *Session) enqueue(id int32, body []byte, essential bool) error {
	return s.outbound.push(frame{id: id, body: body, essential: essential})
}

// SendPlayPacket queues one Play-state packet for delivery, per spec.md
// §5's per-tick output ordering. It is the surroundings' entry point for
// broadcasting world/visibility output to this session. A queue that
// overflows even after dropping non-essential frames disconnects the
// session with a SlowConsumer reason, per spec.md §5 "Backpressure".
func (s *Session) SendPlayPacket(id int32, body []byte, essential bool) error {
	err := s.enqueue(id, body, essential)
	if _, slow := err.(SlowConsumer); slow {
		s.setCloseError(err)
		s.sendEvent(Logout{Reason: err.Error()})
		// The queue is saturated with essential frames, so the Disconnect
		// bypasses it; the session is torn down regardless.
		buf := new(bytes.Buffer)
		packet.EncodeDisconnectPlay(buf, packet.DisconnectPlay{Reason: fmt.Sprintf(`{"text":%q}`, err.Error())})
		s.conn.WriteFrame(packet.IDDisconnectPlay, buf.Bytes())
		s.conn.Close()
	}
	return err
}

func (s *Session) enqueueBarrier(self frame, write func(c *servernet.Conn) error) error {
	return s.outbound.push(barrier{self: self, write: write})
}

// sendEvent delivers ev upstream without blocking the session's own
// loops; a full event queue is reported rather than stalling.
func (s *Session) sendEvent(ev ClientEvent) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	if s.eventsClosed {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.log.Warn("event queue full, dropping", "event", fmt.Sprintf("%T", ev), "err", EventSendFailed{Event: ev})
	}
}

func (s *Session) closeEvents() {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()
	if !s.eventsClosed {
		s.eventsClosed = true
		close(s.events)
	}
}

// disconnectWithReason writes a Disconnect frame appropriate to the
// current state (when the state permits outbound writes) before the
// caller tears the session down.
func (s *Session) disconnectWithReason(cause error) {
	reason := fmt.Sprintf(`{"text":%q}`, cause.Error())
	switch s.State() {
	case StateLogin:
		buf := new(bytes.Buffer)
		packet.EncodeLoginDisconnect(buf, packet.LoginDisconnect{Reason: reason})
		s.enqueue(packet.IDLoginDisconnect, buf.Bytes(), true)
	case StatePlay:
		buf := new(bytes.Buffer)
		packet.EncodeDisconnectPlay(buf, packet.DisconnectPlay{Reason: reason})
		s.enqueue(packet.IDDisconnectPlay, buf.Bytes(), true)
		s.sendEvent(Logout{Reason: cause.Error()})
	}
	s.setCloseError(cause)
}
