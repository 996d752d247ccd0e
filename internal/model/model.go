// Package model answers kinematic and dynamic queries by frame over a
// loaded model library.
//
// Every query takes the joint configuration and optional parameter
// overrides; anything not overridden comes from Defaults. Like the
// underlying library, a Model is read-only after construction but calls
// are only as reentrant as the artifact behind it.
package model

import (
	pmerrors "github.com/danmuck/pandamodel/internal/errors"
	"github.com/danmuck/pandamodel/internal/library"
)

// Model dispatches frame queries onto a library.
type Model struct {
	lib *library.Library
}

// Open loads the artifact at path and wraps it.
func Open(path string, opts ...library.Option) (*Model, error) {
	lib, err := library.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return New(lib), nil
}

// New wraps an already loaded library. The Model takes ownership.
func New(lib *library.Library) *Model {
	return &Model{lib: lib}
}

// Library returns the underlying catalogue.
func (m *Model) Library() *library.Library { return m.lib }

// Close unloads the library. Frame queries then fail with
// ErrLibraryClosed; Mass, Coriolis and Gravity panic.
func (m *Model) Close() { m.lib.Close() }

func (m *Model) checkOpen() error {
	if m.lib.Closed() {
		return &pmerrors.LoadError{Path: m.lib.Path(), Err: pmerrors.ErrLibraryClosed}
	}
	return nil
}

func invalidFrame(f Frame) error {
	return &pmerrors.InvalidArgumentError{Name: "frame", Value: f, Err: pmerrors.ErrInvalidFrame}
}

// frameTransform returns the transform the end effector entry points take
// for f: F_T_EE for EndEffector and F_T_EE*EE_T_K for Stiffness.
func frameTransform(f Frame, p Parameters) Matrix4 {
	if f == Stiffness {
		return Compose(p.EndEffector, p.Stiffness)
	}
	return p.EndEffector
}

// Pose returns the homogeneous transform from the base to frame f.
func (m *Model) Pose(f Frame, q JointVector, opts ...Option) (Matrix4, error) {
	if err := m.checkOpen(); err != nil {
		return Matrix4{}, err
	}
	var out Matrix4
	qp, o := (*[7]float64)(&q), (*[16]float64)(&out)
	switch f {
	case Joint1:
		m.lib.Joint1(qp, o)
	case Joint2:
		m.lib.Joint2(qp, o)
	case Joint3:
		m.lib.Joint3(qp, o)
	case Joint4:
		m.lib.Joint4(qp, o)
	case Joint5:
		m.lib.Joint5(qp, o)
	case Joint6:
		m.lib.Joint6(qp, o)
	case Joint7:
		m.lib.Joint7(qp, o)
	case Flange:
		m.lib.Flange(qp, o)
	case EndEffector, Stiffness:
		t := frameTransform(f, resolve(opts))
		m.lib.EE(qp, (*[16]float64)(&t), o)
	default:
		return Matrix4{}, invalidFrame(f)
	}
	return out, nil
}

// BodyJacobian returns the 6x7 Jacobian of frame f expressed in f.
func (m *Model) BodyJacobian(f Frame, q JointVector, opts ...Option) (Jacobian, error) {
	if err := m.checkOpen(); err != nil {
		return Jacobian{}, err
	}
	var out Jacobian
	qp, o := (*[7]float64)(&q), (*[42]float64)(&out)
	switch f {
	case Joint1:
		m.lib.BodyJacobianJoint1(o)
	case Joint2:
		m.lib.BodyJacobianJoint2(qp, o)
	case Joint3:
		m.lib.BodyJacobianJoint3(qp, o)
	case Joint4:
		m.lib.BodyJacobianJoint4(qp, o)
	case Joint5:
		m.lib.BodyJacobianJoint5(qp, o)
	case Joint6:
		m.lib.BodyJacobianJoint6(qp, o)
	case Joint7:
		m.lib.BodyJacobianJoint7(qp, o)
	case Flange:
		m.lib.BodyJacobianFlange(qp, o)
	case EndEffector, Stiffness:
		t := frameTransform(f, resolve(opts))
		m.lib.BodyJacobianEE(qp, (*[16]float64)(&t), o)
	default:
		return Jacobian{}, invalidFrame(f)
	}
	return out, nil
}

// ZeroJacobian returns the 6x7 Jacobian of frame f expressed in the base
// frame.
func (m *Model) ZeroJacobian(f Frame, q JointVector, opts ...Option) (Jacobian, error) {
	if err := m.checkOpen(); err != nil {
		return Jacobian{}, err
	}
	var out Jacobian
	qp, o := (*[7]float64)(&q), (*[42]float64)(&out)
	switch f {
	case Joint1:
		m.lib.ZeroJacobianJoint1(o)
	case Joint2:
		m.lib.ZeroJacobianJoint2(qp, o)
	case Joint3:
		m.lib.ZeroJacobianJoint3(qp, o)
	case Joint4:
		m.lib.ZeroJacobianJoint4(qp, o)
	case Joint5:
		m.lib.ZeroJacobianJoint5(qp, o)
	case Joint6:
		m.lib.ZeroJacobianJoint6(qp, o)
	case Joint7:
		m.lib.ZeroJacobianJoint7(qp, o)
	case Flange:
		m.lib.ZeroJacobianFlange(qp, o)
	case EndEffector, Stiffness:
		t := frameTransform(f, resolve(opts))
		m.lib.ZeroJacobianEE(qp, (*[16]float64)(&t), o)
	default:
		return Jacobian{}, invalidFrame(f)
	}
	return out, nil
}

// Mass returns the 7x7 inertia matrix including the configured load.
func (m *Model) Mass(q JointVector, opts ...Option) MassMatrix {
	p := resolve(opts)
	var out MassMatrix
	m.lib.Mass((*[7]float64)(&q), (*[9]float64)(&p.Inertia), p.Mass, (*[3]float64)(&p.CenterOfMass), (*[49]float64)(&out))
	return out
}

// Coriolis returns the Coriolis force vector for q and dq.
func (m *Model) Coriolis(q, dq JointVector, opts ...Option) JointVector {
	p := resolve(opts)
	var out JointVector
	m.lib.Coriolis((*[7]float64)(&q), (*[7]float64)(&dq), (*[9]float64)(&p.Inertia), p.Mass, (*[3]float64)(&p.CenterOfMass), (*[7]float64)(&out))
	return out
}

// Gravity returns the gravity torque vector for q.
func (m *Model) Gravity(q JointVector, opts ...Option) JointVector {
	p := resolve(opts)
	var out JointVector
	m.lib.Gravity((*[7]float64)(&q), (*[3]float64)(&p.Gravity), p.Mass, (*[3]float64)(&p.CenterOfMass), (*[7]float64)(&out))
	return out
}
