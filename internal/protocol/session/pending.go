package session

import (
	"github.com/danmuck/pandamodel/internal/protocol"
	"github.com/danmuck/pandamodel/internal/protocol/frame"
)

// pendingTable tracks requests awaiting a response and responses that
// arrived before their caller asked for them, both keyed by command id.
type pendingTable struct {
	inflight map[uint32]protocol.Command
	arrived  map[uint32]frame.Frame
}

func newPendingTable() *pendingTable {
	return &pendingTable{
		inflight: make(map[uint32]protocol.Command),
		arrived:  make(map[uint32]frame.Frame),
	}
}

func (p *pendingTable) issue(id uint32, cmd protocol.Command) {
	p.inflight[id] = cmd
}

func (p *pendingTable) expected(id uint32) (protocol.Command, bool) {
	cmd, ok := p.inflight[id]
	return cmd, ok
}

// park buffers a response for another in-flight id.
func (p *pendingTable) park(f frame.Frame) {
	p.arrived[f.Header.CommandID] = f
}

func (p *pendingTable) take(id uint32) (frame.Frame, bool) {
	f, ok := p.arrived[id]
	if ok {
		delete(p.arrived, id)
	}
	return f, ok
}

// retire drops every trace of id once its response has been delivered.
func (p *pendingTable) retire(id uint32) {
	delete(p.inflight, id)
	delete(p.arrived, id)
}

func (p *pendingTable) len() int {
	return len(p.inflight)
}
