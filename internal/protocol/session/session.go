package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/protocol"
	"github.com/danmuck/pandamodel/internal/protocol/frame"
)

// Session is one ordered command connection to a controller.
type Session struct {
	conn    net.Conn
	addr    string
	cfg     Config
	logger  zerolog.Logger
	nextID  atomic.Uint32
	pending *pendingTable

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open dials host:port and returns a ready session.
func Open(ctx context.Context, host string, port int, cfg Config) (*Session, error) {
	cfg = cfg.WithDefaults()
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.Warn().Str("component", "session").Str("addr", addr).Err(err).Msg("dial failed")
		return nil, &pmerrors.ConnectionError{Op: "dial", Addr: addr, Err: err}
	}
	return New(conn, cfg), nil
}

// New wraps an already established connection.
func New(conn net.Conn, cfg Config) *Session {
	cfg = cfg.WithDefaults()
	addr := ""
	if ra := conn.RemoteAddr(); ra != nil {
		addr = ra.String()
	}
	s := &Session{
		conn:    conn,
		addr:    addr,
		cfg:     cfg,
		logger:  log.With().Str("component", "session").Str("addr", addr).Logger(),
		pending: newPendingTable(),
	}
	s.logger.Debug().Msg("session opened")
	return s
}

// Addr returns the remote address.
func (s *Session) Addr() string { return s.addr }

// SendRequest frames payload as cmd and returns the command id assigned to
// it. Ids start at 1 and strictly increase for the life of the session.
func (s *Session) SendRequest(cmd protocol.Command, payload []byte) (uint32, error) {
	if s.closed.Load() {
		return 0, &pmerrors.ConnectionError{Op: "write", Addr: s.addr, Err: pmerrors.ErrSessionClosed}
	}
	id := s.nextID.Add(1)
	f := frame.Frame{
		Header:  frame.Header{Command: uint32(cmd), CommandID: id},
		Payload: payload,
	}

	if s.cfg.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := frame.WriteFrame(s.conn, f, s.cfg.Limits); err != nil {
		if errors.Is(err, frame.ErrPayloadTooLarge) {
			return 0, &pmerrors.ProtocolError{Op: "send " + cmd.String(), Err: err}
		}
		s.fail("write", err)
		return 0, &pmerrors.ConnectionError{Op: "write", Addr: s.addr, Err: s.closedOr(err)}
	}
	s.pending.issue(id, cmd)
	s.logger.Debug().Uint32("command_id", id).Stringer("command", cmd).Int("bytes", len(payload)).Msg("request sent")
	return id, nil
}

// BlockingReceive waits for the response tagged with id and returns its
// payload. Responses for other in-flight ids that arrive first are
// buffered for their own callers.
func (s *Session) BlockingReceive(id uint32, cmd protocol.Command) ([]byte, error) {
	op := "receive " + cmd.String()
	expected, ok := s.pending.expected(id)
	if !ok {
		return nil, &pmerrors.ProtocolError{Op: op, Err: fmt.Errorf("%w: command id %d is not in flight", pmerrors.ErrUnexpectedResponse, id)}
	}
	if expected != cmd {
		return nil, &pmerrors.ProtocolError{Op: op, Err: fmt.Errorf("%w: command id %d was issued as %s", pmerrors.ErrUnexpectedResponse, id, expected)}
	}
	if f, ok := s.pending.take(id); ok {
		s.pending.retire(id)
		return f.Payload, nil
	}

	for {
		if s.closed.Load() {
			return nil, &pmerrors.ConnectionError{Op: "read", Addr: s.addr, Err: pmerrors.ErrSessionClosed}
		}
		if s.cfg.ReadTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		f, err := frame.ReadFrame(s.conn, s.cfg.Limits)
		if err != nil {
			return nil, s.readFailure(op, err)
		}

		kind := protocol.Command(f.Header.Command)
		if !kind.Valid() {
			s.fail("unknown command", nil)
			return nil, &pmerrors.ProtocolError{Op: op, Err: fmt.Errorf("%w: tag %d on command id %d", protocol.ErrUnknownCommand, f.Header.Command, f.Header.CommandID)}
		}

		got := f.Header.CommandID
		switch {
		case got == id:
			if protocol.Command(f.Header.Command) != cmd {
				s.fail("mismatched kind", nil)
				return nil, &pmerrors.ProtocolError{Op: op, Err: fmt.Errorf("%w: command id %d answered as %s", pmerrors.ErrUnexpectedResponse, id, protocol.Command(f.Header.Command))}
			}
			s.pending.retire(id)
			s.logger.Debug().Uint32("command_id", id).Stringer("command", cmd).Int("bytes", len(f.Payload)).Msg("response received")
			return f.Payload, nil
		default:
			other, inflight := s.pending.expected(got)
			if !inflight || protocol.Command(f.Header.Command) != other {
				s.fail("unexpected id", nil)
				return nil, &pmerrors.ProtocolError{Op: op, Err: fmt.Errorf("%w: command id %d (%s) was never issued", pmerrors.ErrUnexpectedResponse, got, protocol.Command(f.Header.Command))}
			}
			s.pending.park(f)
		}
	}
}

// Close releases the connection. It is safe to call more than once and
// from another goroutine.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.conn.Close()
		s.logger.Debug().Msg("session closed")
	})
	return s.closeErr
}

func (s *Session) readFailure(op string, err error) error {
	wasClosed := s.closed.Load()
	s.fail("read", err)
	if wasClosed {
		return &pmerrors.ConnectionError{Op: "read", Addr: s.addr, Err: pmerrors.ErrSessionClosed}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &pmerrors.ConnectionError{Op: "read", Addr: s.addr, Err: err}
	}
	if errors.Is(err, io.EOF) {
		err = fmt.Errorf("peer closed connection: %w", err)
	}
	return &pmerrors.ProtocolError{Op: op, Err: err}
}

// fail closes the session after a fatal fault. Later calls see
// ErrSessionClosed.
func (s *Session) fail(reason string, err error) {
	if !s.closed.Load() {
		s.logger.Warn().Str("reason", reason).Err(err).Msg("session failed")
	}
	_ = s.Close()
}

func (s *Session) closedOr(err error) error {
	if s.closed.Load() && errors.Is(err, net.ErrClosed) {
		return pmerrors.ErrSessionClosed
	}
	return err
}
