package session

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/protocol"
	"github.com/danmuck/pandamodel/internal/protocol/frame"
	"github.com/danmuck/pandamodel/internal/testutil/testlog"
)

// pipeSession returns a session over one end of an in-memory pipe and the
// raw peer end for the test to script.
func pipeSession(t *testing.T) (*Session, net.Conn) {
	t.Helper()
	client, peer := net.Pipe()
	s := New(client, DefaultConfig())
	t.Cleanup(func() {
		_ = s.Close()
		_ = peer.Close()
	})
	return s, peer
}

func readRequests(t *testing.T, peer net.Conn, n int) <-chan []frame.Frame {
	t.Helper()
	out := make(chan []frame.Frame, 1)
	go func() {
		frames := make([]frame.Frame, 0, n)
		for i := 0; i < n; i++ {
			f, err := frame.ReadFrame(peer, frame.DefaultLimits())
			if err != nil {
				break
			}
			frames = append(frames, f)
		}
		out <- frames
	}()
	return out
}

func writeResponse(t *testing.T, peer net.Conn, cmd protocol.Command, id uint32, payload []byte) {
	t.Helper()
	f := frame.Frame{Header: frame.Header{Command: uint32(cmd), CommandID: id}, Payload: payload}
	if err := frame.WriteFrame(peer, f, frame.DefaultLimits()); err != nil {
		t.Errorf("peer write: %v", err)
	}
}

func TestSendRequestAllocatesAscendingIDs(t *testing.T) {
	testlog.Start(t)
	s, peer := pipeSession(t)
	got := readRequests(t, peer, 3)

	var ids []uint32
	for i := 0; i < 3; i++ {
		id, err := s.SendRequest(protocol.CommandConnect, protocol.EncodeConnectRequest(5))
		if err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	if ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("unexpected ids: %v", ids)
	}
	frames := <-got
	if len(frames) != 3 {
		t.Fatalf("peer saw %d frames", len(frames))
	}
	for i, f := range frames {
		if f.Header.CommandID != ids[i] || f.Header.Size != frame.HeaderLen+2 {
			t.Fatalf("frame %d header=%+v", i, f.Header)
		}
	}
}

func TestBlockingReceiveDemultiplexesOutOfOrderResponses(t *testing.T) {
	testlog.Start(t)
	s, peer := pipeSession(t)
	got := readRequests(t, peer, 2)

	first, err := s.SendRequest(protocol.CommandConnect, protocol.EncodeConnectRequest(5))
	if err != nil {
		t.Fatalf("send first: %v", err)
	}
	second, err := s.SendRequest(protocol.CommandLoadModelLibrary, []byte{0, 0})
	if err != nil {
		t.Fatalf("send second: %v", err)
	}
	<-got

	go func() {
		writeResponse(t, peer, protocol.CommandLoadModelLibrary, second, []byte{0, 0xde, 0xad})
		writeResponse(t, peer, protocol.CommandConnect, first, []byte{5, 0, 0})
	}()

	payload, err := s.BlockingReceive(first, protocol.CommandConnect)
	if err != nil {
		t.Fatalf("receive first: %v", err)
	}
	if len(payload) != 3 || payload[0] != 5 {
		t.Fatalf("first payload=%v", payload)
	}
	payload, err = s.BlockingReceive(second, protocol.CommandLoadModelLibrary)
	if err != nil {
		t.Fatalf("receive second: %v", err)
	}
	if len(payload) != 3 || payload[1] != 0xde {
		t.Fatalf("second payload=%v", payload)
	}
	if s.pending.len() != 0 {
		t.Fatalf("expected no in-flight commands, got %d", s.pending.len())
	}
}

func TestBlockingReceiveRejectsMismatchedKind(t *testing.T) {
	testlog.Start(t)
	s, peer := pipeSession(t)
	got := readRequests(t, peer, 1)
	id, err := s.SendRequest(protocol.CommandConnect, protocol.EncodeConnectRequest(5))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	<-got
	go writeResponse(t, peer, protocol.CommandLoadModelLibrary, id, []byte{0})

	_, err = s.BlockingReceive(id, protocol.CommandConnect)
	var pe *pmerrors.ProtocolError
	if !errors.As(err, &pe) || !errors.Is(err, pmerrors.ErrUnexpectedResponse) {
		t.Fatalf("expected ProtocolError/ErrUnexpectedResponse, got %v", err)
	}
}

func TestBlockingReceiveRejectsUnknownID(t *testing.T) {
	testlog.Start(t)
	s, peer := pipeSession(t)
	got := readRequests(t, peer, 1)
	id, err := s.SendRequest(protocol.CommandConnect, protocol.EncodeConnectRequest(5))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	<-got
	go writeResponse(t, peer, protocol.CommandConnect, id+41, []byte{5, 0, 0})

	_, err = s.BlockingReceive(id, protocol.CommandConnect)
	var pe *pmerrors.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	if _, err := s.SendRequest(protocol.CommandConnect, nil); !errors.Is(err, pmerrors.ErrSessionClosed) {
		t.Fatalf("session should be closed after protocol fault, got %v", err)
	}
}

func TestBlockingReceiveRejectsUnknownCommandTag(t *testing.T) {
	testlog.Start(t)
	s, peer := pipeSession(t)
	got := readRequests(t, peer, 1)
	id, err := s.SendRequest(protocol.CommandConnect, protocol.EncodeConnectRequest(5))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	<-got
	go writeResponse(t, peer, protocol.Command(99), id, []byte{5, 0, 0})

	_, err = s.BlockingReceive(id, protocol.CommandConnect)
	var pe *pmerrors.ProtocolError
	if !errors.As(err, &pe) || !errors.Is(err, protocol.ErrUnknownCommand) {
		t.Fatalf("expected ProtocolError/ErrUnknownCommand, got %v", err)
	}
	if _, err := s.SendRequest(protocol.CommandConnect, nil); !errors.Is(err, pmerrors.ErrSessionClosed) {
		t.Fatalf("session should be closed after unknown command, got %v", err)
	}
}

func TestBlockingReceiveForNeverIssuedID(t *testing.T) {
	testlog.Start(t)
	s, _ := pipeSession(t)
	_, err := s.BlockingReceive(7, protocol.CommandConnect)
	if !errors.Is(err, pmerrors.ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}
}

func TestPeerCloseIsProtocolError(t *testing.T) {
	testlog.Start(t)
	s, peer := pipeSession(t)
	got := readRequests(t, peer, 1)
	id, err := s.SendRequest(protocol.CommandConnect, protocol.EncodeConnectRequest(5))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	<-got
	_ = peer.Close()

	_, err = s.BlockingReceive(id, protocol.CommandConnect)
	var pe *pmerrors.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
	_, err = s.SendRequest(protocol.CommandConnect, nil)
	var ce *pmerrors.ConnectionError
	if !errors.As(err, &ce) || !errors.Is(err, pmerrors.ErrSessionClosed) {
		t.Fatalf("expected ConnectionError/ErrSessionClosed, got %v", err)
	}
}

func TestCloseUnblocksReceive(t *testing.T) {
	testlog.Start(t)
	s, peer := pipeSession(t)
	got := readRequests(t, peer, 1)
	id, err := s.SendRequest(protocol.CommandConnect, protocol.EncodeConnectRequest(5))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	<-got

	done := make(chan error, 1)
	go func() {
		_, err := s.BlockingReceive(id, protocol.CommandConnect)
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-done:
		if !errors.Is(err, pmerrors.ErrSessionClosed) {
			t.Fatalf("expected ErrSessionClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("receive did not unblock")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestOpenRefusedIsConnectionError(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	_ = ln.Close()

	cfg := DefaultConfig()
	cfg.ConnectTimeout = 500 * time.Millisecond
	_, err = Open(context.Background(), "127.0.0.1", addr.Port, cfg)
	var ce *pmerrors.ConnectionError
	if !errors.As(err, &ce) || ce.Op != "dial" {
		t.Fatalf("expected dial ConnectionError, got %v", err)
	}
}

func TestOpenOverTCP(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		f, err := frame.ReadFrame(conn, frame.DefaultLimits())
		if err != nil {
			return
		}
		_ = frame.WriteFrame(conn, frame.Frame{Header: f.Header, Payload: []byte{5, 0, 0}}, frame.DefaultLimits())
	}()

	addr := ln.Addr().(*net.TCPAddr)
	s, err := Open(context.Background(), "127.0.0.1", addr.Port, DefaultConfig())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	id, err := s.SendRequest(protocol.CommandConnect, protocol.EncodeConnectRequest(5))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	payload, err := s.BlockingReceive(id, protocol.CommandConnect)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	resp, err := protocol.DecodeConnectResponse(payload)
	if err != nil || resp.Version != 5 {
		t.Fatalf("decode: %+v %v", resp, err)
	}
}
