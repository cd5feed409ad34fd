package pose

import "gonum.org/v1/gonum/mat"

// Matrix is a 3x3 symmetric covariance matrix over (x, y, theta). Only
// the 2x2 x,y sub-block and the scalar theta variance (index [2][2]) are
// meaningful; off-diagonal x/theta and y/theta terms are carried but
// unused by the core.
type Matrix struct {
	d *mat.Dense
}

// NewMatrix returns a zeroed 3x3 matrix.
func NewMatrix() Matrix {
	return Matrix{d: mat.NewDense(3, 3, nil)}
}

// Diag builds a diagonal covariance matrix from the three variances.
func Diag(varX, varY, varTheta float64) Matrix {
	m := NewMatrix()
	m.Set(0, 0, varX)
	m.Set(1, 1, varY)
	m.Set(2, 2, varTheta)
	return m
}

// At returns element (i, j).
func (m Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Set writes element (i, j), keeping the matrix symmetric.
func (m *Matrix) Set(i, j int, v float64) {
	if m.d == nil {
		m.d = mat.NewDense(3, 3, nil)
	}
	m.d.Set(i, j, v)
	m.d.Set(j, i, v)
}

// XYSym returns the 2x2 x,y sub-block as a symmetric matrix, the shape
// the Cholesky-based Gaussian sampler and cluster covariance math need.
func (m Matrix) XYSym() *mat.SymDense {
	sym := mat.NewSymDense(2, nil)
	sym.SetSym(0, 0, m.At(0, 0))
	sym.SetSym(0, 1, m.At(0, 1))
	sym.SetSym(1, 1, m.At(1, 1))
	return sym
}

// ThetaVar returns the scalar heading variance, cov[2][2].
func (m Matrix) ThetaVar() float64 {
	return m.At(2, 2)
}

// Clone returns a deep copy of m backed by its own *mat.Dense, so the
// copy's elements can be set without affecting m. m's zero value (no
// backing Dense) clones to itself.
func (m Matrix) Clone() Matrix {
	if m.d == nil {
		return Matrix{}
	}
	return Matrix{d: mat.DenseCopyOf(m.d)}
}
