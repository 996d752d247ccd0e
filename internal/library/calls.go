package library

// Pose entry points. q holds the seven joint angles; out receives a
// column-major 4x4 transform.

func (l *Library) Joint1(q *[JointCount]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J1")
	l.joint1(q, out)
}
func (l *Library) Joint2(q *[JointCount]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J2")
	l.joint2(q, out)
}
func (l *Library) Joint3(q *[JointCount]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J3")
	l.joint3(q, out)
}
func (l *Library) Joint4(q *[JointCount]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J4")
	l.joint4(q, out)
}
func (l *Library) Joint5(q *[JointCount]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J5")
	l.joint5(q, out)
}
func (l *Library) Joint6(q *[JointCount]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J6")
	l.joint6(q, out)
}
func (l *Library) Joint7(q *[JointCount]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J7")
	l.joint7(q, out)
}
func (l *Library) Flange(q *[JointCount]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J8")
	l.flange(q, out)
}

// EE computes the end effector pose given the flange to end effector
// transform.
func (l *Library) EE(q *[JointCount]float64, fTEE *[TransformLen]float64, out *[TransformLen]float64) {
	l.mustBeOpen("O_T_J9")
	l.ee(q, fTEE, out)
}

// Body Jacobians, column-major 6x7. The joint1 Jacobian is constant.

func (l *Library) BodyJacobianJoint1(out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J1")
	l.bodyJacobianJoint1(out)
}
func (l *Library) BodyJacobianJoint2(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J2")
	l.bodyJacobianJoint2(q, out)
}
func (l *Library) BodyJacobianJoint3(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J3")
	l.bodyJacobianJoint3(q, out)
}
func (l *Library) BodyJacobianJoint4(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J4")
	l.bodyJacobianJoint4(q, out)
}
func (l *Library) BodyJacobianJoint5(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J5")
	l.bodyJacobianJoint5(q, out)
}
func (l *Library) BodyJacobianJoint6(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J6")
	l.bodyJacobianJoint6(q, out)
}
func (l *Library) BodyJacobianJoint7(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J7")
	l.bodyJacobianJoint7(q, out)
}
func (l *Library) BodyJacobianFlange(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J8")
	l.bodyJacobianFlange(q, out)
}
func (l *Library) BodyJacobianEE(q *[JointCount]float64, fTEE *[TransformLen]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("Ji_J_J9")
	l.bodyJacobianEE(q, fTEE, out)
}

// Zero Jacobians, expressed in the base frame.

func (l *Library) ZeroJacobianJoint1(out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J1")
	l.zeroJacobianJoint1(out)
}
func (l *Library) ZeroJacobianJoint2(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J2")
	l.zeroJacobianJoint2(q, out)
}
func (l *Library) ZeroJacobianJoint3(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J3")
	l.zeroJacobianJoint3(q, out)
}
func (l *Library) ZeroJacobianJoint4(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J4")
	l.zeroJacobianJoint4(q, out)
}
func (l *Library) ZeroJacobianJoint5(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J5")
	l.zeroJacobianJoint5(q, out)
}
func (l *Library) ZeroJacobianJoint6(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J6")
	l.zeroJacobianJoint6(q, out)
}
func (l *Library) ZeroJacobianJoint7(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J7")
	l.zeroJacobianJoint7(q, out)
}
func (l *Library) ZeroJacobianFlange(q *[JointCount]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J8")
	l.zeroJacobianFlange(q, out)
}
func (l *Library) ZeroJacobianEE(q *[JointCount]float64, fTEE *[TransformLen]float64, out *[JacobianLen]float64) {
	l.mustBeOpen("O_J_J9")
	l.zeroJacobianEE(q, fTEE, out)
}

// Mass computes the 7x7 inertia matrix for the given total load.
func (l *Library) Mass(q *[JointCount]float64, inertia *[InertiaLen]float64, mass float64, com *[Vector3Len]float64, out *[MassMatrixLen]float64) {
	l.mustBeOpen("M_NE")
	l.mass(q, inertia, mass, com, out)
}

func (l *Library) Coriolis(q, dq *[JointCount]float64, inertia *[InertiaLen]float64, mass float64, com *[Vector3Len]float64, out *[JointCount]float64) {
	l.mustBeOpen("c_NE")
	l.coriolis(q, dq, inertia, mass, com, out)
}

// Gravity computes the gravity torque vector. gravity is the acceleration
// in the base frame.
func (l *Library) Gravity(q *[JointCount]float64, gravity *[Vector3Len]float64, mass float64, com *[Vector3Len]float64, out *[JointCount]float64) {
	l.mustBeOpen("g_NE")
	l.gravity(q, gravity, mass, com, out)
}
