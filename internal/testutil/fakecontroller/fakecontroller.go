// Package fakecontroller runs a scripted robot controller on loopback for
// download tests.
package fakecontroller

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/pandamodel/internal/protocol"
	"github.com/danmuck/pandamodel/internal/protocol/frame"
)

// Script decides how the controller answers.
type Script struct {
	Version       uint16
	ConnectStatus protocol.ConnectStatus
	LoadStatus    protocol.LoadStatus
	// Library is returned as the artifact payload. Libraries, when set,
	// overrides it per target.
	Library   []byte
	Libraries map[protocol.LoadModelLibraryRequest][]byte

	// HangOnLoad leaves LoadModelLibrary unanswered until the client
	// disconnects.
	HangOnLoad bool
	// DropOnLoad closes the connection instead of answering
	// LoadModelLibrary.
	DropOnLoad bool
}

// DefaultScript answers like a healthy controller.
func DefaultScript(library []byte) Script {
	return Script{
		Version:       protocol.DefaultVersion,
		ConnectStatus: protocol.ConnectStatusSuccess,
		LoadStatus:    protocol.LoadStatusSuccess,
		Library:       library,
	}
}

// Request is one frame the controller received.
type Request struct {
	Command   protocol.Command
	CommandID uint32
	Payload   []byte
}

type Controller struct {
	script   Script
	listener net.Listener
	logger   zerolog.Logger
	wg       sync.WaitGroup

	mu       sync.Mutex
	requests []Request
	conns    map[net.Conn]struct{}
	accepted int
}

// Start listens on 127.0.0.1:0 and serves script until the test ends.
func Start(t *testing.T, script Script) *Controller {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	c := &Controller{
		script:   script,
		listener: ln,
		logger:   log.With().Str("component", "fakecontroller").Logger(),
		conns:    make(map[net.Conn]struct{}),
	}
	c.wg.Add(1)
	go c.acceptLoop()
	t.Cleanup(c.Close)
	return c
}

func (c *Controller) Host() string { return "127.0.0.1" }

func (c *Controller) Port() int {
	return c.listener.Addr().(*net.TCPAddr).Port
}

func (c *Controller) Addr() string {
	return net.JoinHostPort(c.Host(), strconv.Itoa(c.Port()))
}

// Requests returns every frame received so far, across connections.
func (c *Controller) Requests() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Request(nil), c.requests...)
}

// Connections returns how many sessions were accepted.
func (c *Controller) Connections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accepted
}

// Close stops accepting and drops open connections.
func (c *Controller) Close() {
	_ = c.listener.Close()
	c.mu.Lock()
	for conn := range c.conns {
		_ = conn.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) acceptLoop() {
	defer c.wg.Done()
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.logger.Warn().Err(err).Msg("accept failed")
			}
			return
		}
		c.mu.Lock()
		c.conns[conn] = struct{}{}
		c.accepted++
		c.mu.Unlock()

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.serve(conn)
		}()
	}
}

func (c *Controller) serve(conn net.Conn) {
	defer func() {
		_ = conn.Close()
		c.mu.Lock()
		delete(c.conns, conn)
		c.mu.Unlock()
	}()

	limits := frame.DefaultLimits()
	for {
		f, err := frame.ReadFrame(conn, limits)
		if err != nil {
			return
		}
		cmd := protocol.Command(f.Header.Command)
		c.mu.Lock()
		c.requests = append(c.requests, Request{Command: cmd, CommandID: f.Header.CommandID, Payload: f.Payload})
		c.mu.Unlock()
		c.logger.Debug().Stringer("command", cmd).Uint32("command_id", f.Header.CommandID).Msg("request")

		var payload []byte
		switch cmd {
		case protocol.CommandConnect:
			payload = protocol.EncodeConnectResponse(protocol.ConnectResponse{
				Version: c.script.Version,
				Status:  c.script.ConnectStatus,
			})
		case protocol.CommandLoadModelLibrary:
			if c.script.DropOnLoad {
				return
			}
			if c.script.HangOnLoad {
				// Block until the client goes away.
				_, _ = frame.ReadFrame(conn, limits)
				return
			}
			payload = protocol.EncodeLoadModelLibraryResponse(protocol.LoadModelLibraryResponse{
				Status:  c.script.LoadStatus,
				Library: c.libraryFor(f.Payload),
			})
		default:
			return
		}

		resp := frame.Frame{Header: frame.Header{Command: f.Header.Command, CommandID: f.Header.CommandID}, Payload: payload}
		if err := frame.WriteFrame(conn, resp, limits); err != nil {
			return
		}
	}
}

func (c *Controller) libraryFor(payload []byte) []byte {
	if c.script.LoadStatus != protocol.LoadStatusSuccess {
		return nil
	}
	if c.script.Libraries != nil {
		if req, err := protocol.DecodeLoadModelLibraryRequest(payload); err == nil {
			if lib, ok := c.script.Libraries[req]; ok {
				return lib
			}
		}
	}
	return c.script.Library
}
