package library

// Array sizes of the artifact ABI.
const (
	JointCount     = 7
	TransformLen   = 16
	JacobianLen    = 42
	MassMatrixLen  = 49
	InertiaLen     = 9
	Vector3Len     = 3
	CatalogueCount = 30
)

// Entry point signatures exported by the artifact. All arrays are
// column-major and owned by the caller.
type (
	poseFunc              func(q *[JointCount]float64, out *[TransformLen]float64)
	poseTransformFunc     func(q *[JointCount]float64, transform *[TransformLen]float64, out *[TransformLen]float64)
	jacobianConstFunc     func(out *[JacobianLen]float64)
	jacobianFunc          func(q *[JointCount]float64, out *[JacobianLen]float64)
	jacobianTransformFunc func(q *[JointCount]float64, transform *[TransformLen]float64, out *[JacobianLen]float64)
	massFunc              func(q *[JointCount]float64, inertia *[InertiaLen]float64, mass float64, com *[Vector3Len]float64, out *[MassMatrixLen]float64)
	coriolisFunc          func(q, dq *[JointCount]float64, inertia *[InertiaLen]float64, mass float64, com *[Vector3Len]float64, out *[JointCount]float64)
	gravityFunc           func(q *[JointCount]float64, gravity *[Vector3Len]float64, mass float64, com *[Vector3Len]float64, out *[JointCount]float64)
)

// Symbol maps a logical catalogue name onto the name the artifact exports.
type Symbol struct {
	Logical string
	Export  string
}

type binding struct {
	Symbol
	target any
}

// bindings lists every required entry point in resolution order, each with
// the field it is bound into.
func (l *Library) bindings() []binding {
	return []binding{
		{Symbol{"joint1", "O_T_J1"}, &l.joint1},
		{Symbol{"joint2", "O_T_J2"}, &l.joint2},
		{Symbol{"joint3", "O_T_J3"}, &l.joint3},
		{Symbol{"joint4", "O_T_J4"}, &l.joint4},
		{Symbol{"joint5", "O_T_J5"}, &l.joint5},
		{Symbol{"joint6", "O_T_J6"}, &l.joint6},
		{Symbol{"joint7", "O_T_J7"}, &l.joint7},
		{Symbol{"flange", "O_T_J8"}, &l.flange},
		{Symbol{"ee", "O_T_J9"}, &l.ee},

		{Symbol{"body_jacobian_joint1", "Ji_J_J1"}, &l.bodyJacobianJoint1},
		{Symbol{"body_jacobian_joint2", "Ji_J_J2"}, &l.bodyJacobianJoint2},
		{Symbol{"body_jacobian_joint3", "Ji_J_J3"}, &l.bodyJacobianJoint3},
		{Symbol{"body_jacobian_joint4", "Ji_J_J4"}, &l.bodyJacobianJoint4},
		{Symbol{"body_jacobian_joint5", "Ji_J_J5"}, &l.bodyJacobianJoint5},
		{Symbol{"body_jacobian_joint6", "Ji_J_J6"}, &l.bodyJacobianJoint6},
		{Symbol{"body_jacobian_joint7", "Ji_J_J7"}, &l.bodyJacobianJoint7},
		{Symbol{"body_jacobian_flange", "Ji_J_J8"}, &l.bodyJacobianFlange},
		{Symbol{"body_jacobian_ee", "Ji_J_J9"}, &l.bodyJacobianEE},

		{Symbol{"zero_jacobian_joint1", "O_J_J1"}, &l.zeroJacobianJoint1},
		{Symbol{"zero_jacobian_joint2", "O_J_J2"}, &l.zeroJacobianJoint2},
		{Symbol{"zero_jacobian_joint3", "O_J_J3"}, &l.zeroJacobianJoint3},
		{Symbol{"zero_jacobian_joint4", "O_J_J4"}, &l.zeroJacobianJoint4},
		{Symbol{"zero_jacobian_joint5", "O_J_J5"}, &l.zeroJacobianJoint5},
		{Symbol{"zero_jacobian_joint6", "O_J_J6"}, &l.zeroJacobianJoint6},
		{Symbol{"zero_jacobian_joint7", "O_J_J7"}, &l.zeroJacobianJoint7},
		{Symbol{"zero_jacobian_flange", "O_J_J8"}, &l.zeroJacobianFlange},
		{Symbol{"zero_jacobian_ee", "O_J_J9"}, &l.zeroJacobianEE},

		{Symbol{"mass", "M_NE"}, &l.mass},
		{Symbol{"coriolis", "c_NE"}, &l.coriolis},
		{Symbol{"gravity", "g_NE"}, &l.gravity},
	}
}

// Symbols returns the fixed catalogue in resolution order.
func Symbols() []Symbol {
	var l Library
	bs := l.bindings()
	out := make([]Symbol, len(bs))
	for i, b := range bs {
		out[i] = b.Symbol
	}
	return out
}

// ExportNames returns the exported symbol names of the catalogue.
func ExportNames() []string {
	syms := Symbols()
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Export
	}
	return out
}
