// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package dae implements an implicit solver for differential-algebraic
// systems written in residual form, res = M*yp - rhs(t,y), with root-finding
// for terminal events. The structure mirrors implicit transient solvers for
// physical systems: variable-step BDF integration, Newton iterations with a
// finite-difference Jacobian, and a linear solver selectable by name.
package dae

import (
	"github.com/cpmech/gosl/chk"
)

// Fcn is the residual-evaluation callback. It fills res (len n) with the
// DAE residuals @ time t, state y, and state derivative yp.
type Fcn func(res []float64, t float64, y, yp []float64) error

// EvFcn is the event callback. It fills g (one entry per declared event)
// with signed values that cross zero exactly when the event occurs.
type EvFcn func(g []float64, t float64, y, yp []float64) error

// Meta holds per-event metadata
type Meta struct {
	Name      string // label used in diagnostics
	Direction int    // crossing direction: -1 decreasing, +1 increasing, 0 any
	Terminal  bool   // stop integration on first occurrence
}

// Config holds solver options
type Config struct {
	Atol    float64 // absolute tolerance
	Rtol    float64 // relative tolerance
	NmaxIt  int     // max number of Newton iterations per step
	NmaxSS  int     // max number of internal substeps per solve
	DtMax   float64 // maximum step size; 0 means unrestricted
	DtMin   float64 // minimum step size
	DvgCtrl int     // divergence control: DvgCtrlOn, DvgCtrlOff, or 0 (= on)
	NdvgMax int     // max number of step halvings due to divergence
	LinSol  string  // linear solver name: "dense" or "sparse"
	AlgIdx  []int   // algebraic variable indices
}

// divergence control settings. The zero value means "unset" so that a merge
// override can both enable and disable the control; unset behaves as on.
const (
	DvgCtrlOn  = 1  // halve dt and retry when Newton diverges
	DvgCtrlOff = -1 // fail immediately on divergence
)

// NewConfig returns solver options with default values
func NewConfig() (o *Config) {
	o = new(Config)
	o.Atol = 1e-6
	o.Rtol = 1e-5
	o.NmaxIt = 10
	o.NmaxSS = 100000
	o.DtMin = 1e-12
	o.DvgCtrl = DvgCtrlOn
	o.NdvgMax = 20
	o.LinSol = "dense"
	return
}

// Merge returns a copy of o with the non-zero fields of over overriding
func (o *Config) Merge(over *Config) (res *Config) {
	res = new(Config)
	*res = *o
	if over == nil {
		return
	}
	if over.Atol > 0 {
		res.Atol = over.Atol
	}
	if over.Rtol > 0 {
		res.Rtol = over.Rtol
	}
	if over.NmaxIt > 0 {
		res.NmaxIt = over.NmaxIt
	}
	if over.NmaxSS > 0 {
		res.NmaxSS = over.NmaxSS
	}
	if over.DtMax > 0 {
		res.DtMax = over.DtMax
	}
	if over.DtMin > 0 {
		res.DtMin = over.DtMin
	}
	if over.NdvgMax > 0 {
		res.NdvgMax = over.NdvgMax
	}
	if over.LinSol != "" {
		res.LinSol = over.LinSol
	}
	if over.AlgIdx != nil {
		res.AlgIdx = over.AlgIdx
	}
	if over.DvgCtrl != 0 {
		res.DvgCtrl = over.DvgCtrl
	}
	return
}

// status codes
const (
	StatusSuccess  = 0  // full time span completed
	StatusEvent    = 2  // terminal event stopped integration early (not an error)
	StatusMaxSteps = -1 // exceeded max number of internal substeps
	StatusNewton   = -2 // Newton iterations failed to converge
	StatusNaN      = -3 // NaN or Inf detected in residuals or state
)

// Result holds the solver output
type Result struct {

	// status
	Success bool   // integration reached tspan end or a terminal event
	Status  int    // status code; see Status... constants
	Message string // readable exit message

	// solution arrays; rows correspond to times
	T  []float64   // solution times
	Y  [][]float64 // state variables @ T
	Yp [][]float64 // state derivatives @ T

	// events
	IEvents  []int       // indices of triggered events
	TEvents  []float64   // times of triggered events
	YEvents  [][]float64 // states @ triggered events
	YpEvents [][]float64 // state derivatives @ triggered events

	// diagnostics
	Nfev   int // number of residual evaluations
	Njev   int // number of Jacobian evaluations
	Nsteps int // number of internal substeps
}

// LastT returns the last reached solution time
func (o *Result) LastT() float64 {
	if len(o.T) == 0 {
		return 0
	}
	return o.T[len(o.T)-1]
}

// CheckTspan validates an output time grid
func CheckTspan(tspan []float64) (err error) {
	if len(tspan) < 2 {
		return chk.Err("tspan length must be at least two. len(tspan)=%d is invalid", len(tspan))
	}
	for i := 1; i < len(tspan); i++ {
		if tspan[i] <= tspan[i-1] {
			return chk.Err("tspan must be strictly increasing. tspan[%d]=%g and tspan[%d]=%g are invalid", i-1, tspan[i-1], i, tspan[i])
		}
	}
	return
}
