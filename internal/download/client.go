// Package download fetches model libraries from a robot controller.
//
// A Client runs the two-step exchange over one Transport: a Connect
// handshake that pins the protocol version, then any number of
// LoadModelLibrary requests. A Downloader wraps that in session management,
// persistence, metrics and tracing.
package download

import (
	"fmt"

	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/protocol"
)

// Transport carries commands to the controller. *session.Session
// implements it.
type Transport interface {
	SendRequest(cmd protocol.Command, payload []byte) (uint32, error)
	BlockingReceive(id uint32, cmd protocol.Command) ([]byte, error)
}

// Payload is a downloaded artifact.
type Payload struct {
	Status  protocol.LoadStatus
	Library []byte
}

type clientState uint8

const (
	stateIdle clientState = iota
	stateConnected
	stateFailed
)

// Client is not safe for concurrent use.
type Client struct {
	transport     Transport
	state         clientState
	serverVersion uint16
}

func NewClient(t Transport) *Client {
	return &Client{transport: t}
}

// ServerVersion returns the version the controller reported, or zero
// before Connect.
func (c *Client) ServerVersion() uint16 { return c.serverVersion }

// Connect performs the version handshake. It may be called once; any
// failure leaves the client unusable.
func (c *Client) Connect(version uint16) (uint16, error) {
	const op = "connect"
	if c.state != stateIdle {
		return 0, &pmerrors.ProtocolError{Op: op, Err: pmerrors.ErrAlreadyConnected}
	}
	c.state = stateFailed

	raw, err := c.roundTrip(protocol.CommandConnect, protocol.EncodeConnectRequest(version))
	if err != nil {
		return 0, err
	}
	resp, err := protocol.DecodeConnectResponse(raw)
	if err != nil {
		return 0, &pmerrors.ProtocolError{Op: op, Err: err}
	}
	c.serverVersion = resp.Version
	if resp.Status == protocol.ConnectStatusIncompatibleLibraryVersion || resp.Version != version {
		return resp.Version, &pmerrors.ProtocolError{
			Op:  op,
			Err: fmt.Errorf("%w: requested %d, controller runs %d (status=%s)", pmerrors.ErrVersionMismatch, version, resp.Version, resp.Status),
		}
	}
	c.state = stateConnected
	return resp.Version, nil
}

// LoadModelLibrary requests the artifact built for arch and osys. Nothing
// is sent unless Connect succeeded first.
func (c *Client) LoadModelLibrary(arch protocol.Architecture, osys protocol.OperatingSystem) (Payload, error) {
	const op = "load_model_library"
	if c.state != stateConnected {
		return Payload{}, &pmerrors.ProtocolError{Op: op, Err: pmerrors.ErrNotConnected}
	}
	req, err := protocol.EncodeLoadModelLibraryRequest(protocol.LoadModelLibraryRequest{
		Architecture:    arch,
		OperatingSystem: osys,
	})
	if err != nil {
		if !arch.Valid() {
			return Payload{}, &pmerrors.InvalidArgumentError{Name: "architecture", Value: arch, Err: err}
		}
		return Payload{}, &pmerrors.InvalidArgumentError{Name: "operating_system", Value: osys, Err: err}
	}

	raw, err := c.roundTrip(protocol.CommandLoadModelLibrary, req)
	if err != nil {
		c.state = stateFailed
		return Payload{}, err
	}
	resp, err := protocol.DecodeLoadModelLibraryResponse(raw)
	if err != nil {
		c.state = stateFailed
		return Payload{}, &pmerrors.ProtocolError{Op: op, Err: err}
	}
	if resp.Status != protocol.LoadStatusSuccess {
		return Payload{Status: resp.Status}, &pmerrors.DownloadError{Status: resp.Status}
	}
	return Payload{Status: resp.Status, Library: resp.Library}, nil
}

func (c *Client) roundTrip(cmd protocol.Command, payload []byte) ([]byte, error) {
	id, err := c.transport.SendRequest(cmd, payload)
	if err != nil {
		return nil, err
	}
	return c.transport.BlockingReceive(id, cmd)
}
