package model

import (
	"fmt"
	"strings"
)

// Frame identifies a robot frame, ordered from the base outward.
type Frame uint8

const (
	Joint1 Frame = iota
	Joint2
	Joint3
	Joint4
	Joint5
	Joint6
	Joint7
	Flange
	EndEffector
	Stiffness
)

var frameNames = [...]string{
	Joint1:      "joint1",
	Joint2:      "joint2",
	Joint3:      "joint3",
	Joint4:      "joint4",
	Joint5:      "joint5",
	Joint6:      "joint6",
	Joint7:      "joint7",
	Flange:      "flange",
	EndEffector: "end_effector",
	Stiffness:   "stiffness",
}

// Frames returns every valid frame in order.
func Frames() []Frame {
	out := make([]Frame, 0, len(frameNames))
	for f := Joint1; f.Valid(); f = f.Next() {
		out = append(out, f)
	}
	return out
}

// Next returns the frame after f. Stiffness has no successor; its Next is
// not Valid.
func (f Frame) Next() Frame { return f + 1 }

func (f Frame) Valid() bool { return f <= Stiffness }

func (f Frame) String() string {
	if !f.Valid() {
		return fmt.Sprintf("frame(%d)", uint8(f))
	}
	return frameNames[f]
}

// ParseFrame is the inverse of String. "ee" is accepted for EndEffector.
func ParseFrame(raw string) (Frame, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "ee" {
		return EndEffector, nil
	}
	for i, n := range frameNames {
		if n == name {
			return Frame(i), nil
		}
	}
	return 0, fmt.Errorf("unknown frame %q", raw)
}
