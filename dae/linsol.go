// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"github.com/cpmech/gosl/chk"
	"github.com/edp1096/sparse"
	"gonum.org/v1/gonum/mat"
)

// LinSol defines the interface for the linear solvers used within the
// Newton iterations
type LinSol interface {
	Init(n int) error           // initialises structures for an n x n system
	Fact(J [][]float64) error   // sets matrix entries and factorises
	Solve(x, b []float64) error // solves J*x = b using the last factorisation
	Clean()                     // cleans resources
}

// NewLinSol returns a new linear solver by name
func NewLinSol(name string) (ls LinSol, err error) {
	allocator, ok := lsAllocators[name]
	if !ok {
		return nil, chk.Err("linear solver %q is not available in 'dae' database", name)
	}
	return allocator(), nil
}

// lsAllocators holds all available linear solvers
var lsAllocators = map[string]func() LinSol{}

// DenseSol wraps a dense LU decomposition
type DenseSol struct {
	n  int
	a  *mat.Dense
	lu mat.LU
}

// add solver to factory
func init() {
	lsAllocators["dense"] = func() LinSol { return new(DenseSol) }
}

// Init initialises structures
func (o *DenseSol) Init(n int) (err error) {
	if n < 1 {
		return chk.Err("dense: system size must be at least one. n=%d is invalid", n)
	}
	o.n = n
	o.a = mat.NewDense(n, n, nil)
	return
}

// Fact sets entries and factorises
func (o *DenseSol) Fact(J [][]float64) (err error) {
	for i := 0; i < o.n; i++ {
		for j := 0; j < o.n; j++ {
			o.a.Set(i, j, J[i][j])
		}
	}
	o.lu.Factorize(o.a)
	return
}

// Solve solves J*x = b
func (o *DenseSol) Solve(x, b []float64) (err error) {
	dst := mat.NewVecDense(o.n, nil)
	err = o.lu.SolveVecTo(dst, false, mat.NewVecDense(o.n, b))
	if err != nil {
		return chk.Err("dense: cannot solve linear system:\n%v", err)
	}
	for i := 0; i < o.n; i++ {
		x[i] = dst.AtVec(i)
	}
	return
}

// Clean cleans resources
func (o *DenseSol) Clean() {
}

// SparseSol wraps a sparse LU decomposition with Markowitz pivoting
type SparseSol struct {
	n int
	m *sparse.Matrix
}

// add solver to factory
func init() {
	lsAllocators["sparse"] = func() LinSol { return new(SparseSol) }
}

// Init initialises structures
func (o *SparseSol) Init(n int) (err error) {
	if n < 1 {
		return chk.Err("sparse: system size must be at least one. n=%d is invalid", n)
	}
	o.n = n
	config := &sparse.Configuration{
		Real:       true,
		Expandable: true,
		Translate:  true,
	}
	o.m, err = sparse.Create(int64(n), config)
	if err != nil {
		return chk.Err("sparse: cannot create matrix:\n%v", err)
	}
	return
}

// Fact sets entries and factorises. Zero entries are not stamped so the
// factorisation works on the true sparsity pattern.
func (o *SparseSol) Fact(J [][]float64) (err error) {
	o.m.Clear()
	for i := 0; i < o.n; i++ {
		for j := 0; j < o.n; j++ {
			if J[i][j] != 0 {
				o.m.GetElement(int64(i+1), int64(j+1)).Real = J[i][j]
			}
		}
	}
	err = o.m.Factor()
	if err != nil {
		return chk.Err("sparse: cannot factorise matrix:\n%v", err)
	}
	return
}

// Solve solves J*x = b
func (o *SparseSol) Solve(x, b []float64) (err error) {
	rhs := make([]float64, o.n+1) // 1-based
	copy(rhs[1:], b)
	sol, err := o.m.Solve(rhs)
	if err != nil {
		return chk.Err("sparse: cannot solve linear system:\n%v", err)
	}
	copy(x, sol[1:o.n+1])
	return
}

// Clean cleans resources
func (o *SparseSol) Clean() {
	if o.m != nil {
		o.m.Destroy()
	}
}
