package model

// Parameters are the physical inputs of the model functions.
type Parameters struct {
	// Gravity is the gravity vector in the base frame.
	Gravity Vector3
	// EndEffector is F_T_EE, flange to end effector.
	EndEffector Matrix4
	// Stiffness is EE_T_K, end effector to stiffness frame.
	Stiffness    Matrix4
	Inertia      Matrix3
	Mass         float64
	CenterOfMass Vector3
}

var defaults = Parameters{
	Gravity: Vector3{0, 0, -9.81},
	EndEffector: Matrix4{
		0.7071, -0.7071, 0, 0,
		0.7071, 0.7071, 0, 0,
		0, 0, 1, 0,
		0, 0, 0.1034, 1,
	},
	Stiffness: Identity4,
	Inertia: Matrix3{
		0.001, 0, 0,
		0, 0.0025, 0,
		0, 0, 0.0017,
	},
	Mass:         0.73,
	CenterOfMass: Vector3{-0.01, 0, 0.03},
}

// Defaults returns the parameters of the stock gripper. The result is a
// copy.
func Defaults() Parameters { return defaults }

// Option overrides one parameter for a single call.
type Option func(*Parameters)

func WithEndEffector(fTEE Matrix4) Option {
	return func(p *Parameters) { p.EndEffector = fTEE }
}

func WithStiffness(eeTK Matrix4) Option {
	return func(p *Parameters) { p.Stiffness = eeTK }
}

func WithInertia(i Matrix3) Option {
	return func(p *Parameters) { p.Inertia = i }
}

func WithMass(m float64) Option {
	return func(p *Parameters) { p.Mass = m }
}

func WithCenterOfMass(c Vector3) Option {
	return func(p *Parameters) { p.CenterOfMass = c }
}

func WithGravity(g Vector3) Option {
	return func(p *Parameters) { p.Gravity = g }
}

// WithParameters replaces every parameter at once.
func WithParameters(all Parameters) Option {
	return func(p *Parameters) { *p = all }
}

func resolve(opts []Option) Parameters {
	p := defaults
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
