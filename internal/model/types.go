package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fixed-size values exchanged with the model library. Matrices are stored
// column-major.
type (
	JointVector [7]float64
	Vector3     [3]float64
	Matrix3     [9]float64
	Matrix4     [16]float64
	Jacobian    [42]float64
	MassMatrix  [49]float64
)

// Identity4 is the 4x4 identity transform.
var Identity4 = Matrix4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

func (m Matrix3) At(row, col int) float64    { return m[col*3+row] }
func (m Matrix4) At(row, col int) float64    { return m[col*4+row] }
func (m Jacobian) At(row, col int) float64   { return m[col*6+row] }
func (m MassMatrix) At(row, col int) float64 { return m[col*7+row] }

func (v JointVector) At(row, _ int) float64 { return v[row] }
func (v Vector3) At(row, _ int) float64     { return v[row] }

func (m Matrix3) Dense() *mat.Dense    { return columnMajor(3, 3, m[:]) }
func (m Matrix4) Dense() *mat.Dense    { return columnMajor(4, 4, m[:]) }
func (m Jacobian) Dense() *mat.Dense   { return columnMajor(6, 7, m[:]) }
func (m MassMatrix) Dense() *mat.Dense { return columnMajor(7, 7, m[:]) }

// Dense returns v as a 7x1 column.
func (v JointVector) Dense() *mat.Dense { return columnMajor(7, 1, v[:]) }
func (v Vector3) Dense() *mat.Dense     { return columnMajor(3, 1, v[:]) }

// columnMajor copies column-major data into a new rows x cols matrix.
func columnMajor(rows, cols int, data []float64) *mat.Dense {
	view := mat.NewDense(cols, rows, append([]float64(nil), data...))
	out := mat.NewDense(rows, cols, nil)
	out.Copy(view.T())
	return out
}

// Compose returns the product a*b of two column-major transforms.
func Compose(a, b Matrix4) Matrix4 {
	// A row-major view of column-major storage is the transpose, so the
	// product is computed as (AB)^T = B^T A^T.
	at := mat.NewDense(4, 4, a[:])
	bt := mat.NewDense(4, 4, b[:])
	var ct mat.Dense
	ct.Mul(bt, at)

	var out Matrix4
	copy(out[:], ct.RawMatrix().Data)
	return out
}
