// Copyright 2024 The Thevenin Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dae

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"golang.org/x/exp/constraints"
)

// Solver integrates one DAE system written in residual form. The same
// instance must not be used concurrently; allocate one solver per step.
type Solver struct {

	// input
	Fcn   Fcn     // residual callback
	Ev    EvFcn   // event callback; may be nil
	Metas []Meta  // per-event metadata; len(Metas) defines the event count
	Cf    *Config // solver options

	// derived
	n     int    // system size
	isalg []bool // isalg[i] is true for algebraic slots
	ls    LinSol // linear solver for the Newton iterations

	// statistics
	nfev   int // number of residual evaluations
	njev   int // number of Jacobian evaluations
	nsteps int // number of internal substeps
}

// New returns a new solver for the given residual function. A nil config
// selects the defaults.
func New(fcn Fcn, cf *Config) (o *Solver) {
	o = new(Solver)
	o.Fcn = fcn
	if cf == nil {
		cf = NewConfig()
	}
	o.Cf = cf
	return
}

// SetEvents registers the event callback and its metadata
func (o *Solver) SetEvents(ev EvFcn, metas []Meta) {
	o.Ev = ev
	o.Metas = metas
}

// InitStep computes a consistent initial condition @ t0, in place: the
// derivatives of differential slots and the values of algebraic slots are
// solved for such that the residuals vanish.
func (o *Solver) InitStep(t0 float64, y0, yp0 []float64) (err error) {
	err = o.alloc(len(y0))
	if err != nil {
		return
	}
	defer o.ls.Clean()
	return o.consistent(t0, y0, yp0)
}

// Solve integrates the system across tspan, starting from (y0, yp0) which
// are first made consistent. The input vectors are not modified. Solution
// samples are recorded exactly @ the tspan grid; a terminal event may stop
// the integration between grid points, in which case the event sample is
// appended as the final row.
func (o *Solver) Solve(tspan, y0, yp0 []float64) (sol *Result, err error) {

	// check and allocate
	sol = new(Result)
	err = CheckTspan(tspan)
	if err != nil {
		return
	}
	err = o.alloc(len(y0))
	if err != nil {
		return
	}
	defer o.ls.Clean()
	defer func() {
		sol.Nfev = o.nfev
		sol.Njev = o.njev
		sol.Nsteps = o.nsteps
	}()

	n := o.n
	ng := len(o.Metas)

	// consistent initial condition
	y := make([]float64, n)
	yp := make([]float64, n)
	copy(y, y0)
	copy(yp, yp0)
	err = o.consistent(tspan[0], y, yp)
	if err != nil {
		sol.Status = StatusNewton
		err = chk.Err("cannot compute consistent initial condition:\n%v", err)
		sol.Message = err.Error()
		return
	}

	// record first sample
	sol.T = append(sol.T, tspan[0])
	sol.Y = append(sol.Y, cloneV(y))
	sol.Yp = append(sol.Yp, cloneV(yp))

	// initial event values
	gprev := make([]float64, ng)
	gnew := make([]float64, ng)
	if o.Ev != nil && ng > 0 {
		err = o.Ev(gprev, tspan[0], y, yp)
		if err != nil {
			sol.Status = StatusNaN
			sol.Message = err.Error()
			return
		}
	}

	// workspace
	res := make([]float64, n)
	phi := make([]float64, n)
	psi := make([]float64, n)
	ypred := make([]float64, n)
	ycur := make([]float64, n)
	ypcur := make([]float64, n)
	yn := cloneV(y)   // y_n
	ynm := cloneV(y)  // y_{n-1}
	ypn := cloneV(yp) // yp_n

	// initial step size
	tf := tspan[len(tspan)-1]
	h := minv(tspan[1]-tspan[0], (tf-tspan[0])/100.0)
	if o.Cf.DtMax > 0 {
		h = minv(h, o.Cf.DtMax)
	}

	tn := tspan[0]
	hprev := 0.0
	first := true
	ndvg := 0

	// loop over output intervals
	for k := 1; k < len(tspan); k++ {
		tnext := tspan[k]

		// internal substeps until landing on tnext
		for tnext-tn > 1e-12*maxv(1.0, math.Abs(tnext)) {

			o.nsteps++
			if o.nsteps > o.Cf.NmaxSS {
				sol.Status = StatusMaxSteps
				err = chk.Err("exceeded max number of substeps (%d). last reached time = %g", o.Cf.NmaxSS, tn)
				sol.Message = err.Error()
				return
			}

			// cap step to land exactly on the grid point
			if tn+h > tnext {
				h = tnext - tn
			}
			if h < o.Cf.DtMin {
				sol.Status = StatusNewton
				err = chk.Err("step size underflow (dt=%g < DtMin=%g). last reached time = %g", h, o.Cf.DtMin, tn)
				sol.Message = err.Error()
				return
			}

			// BDF coefficients and predictor
			order := 2
			var c0 float64
			if first {
				order = 1
				c0 = 1
				copy(psi, yn)
				for i := 0; i < n; i++ {
					ypred[i] = yn[i] + h*ypn[i]
				}
			} else {
				r := h / hprev
				c0 = (1 + 2*r) / (1 + r)
				a1 := 1 + r
				a2 := r * r / (1 + r)
				for i := 0; i < n; i++ {
					psi[i] = a1*yn[i] - a2*ynm[i]
					ypred[i] = yn[i] + r*(yn[i]-ynm[i])
				}
			}
			cj := c0 / h
			for i := 0; i < n; i++ {
				phi[i] = psi[i] / h
			}

			// Newton iterations
			copy(ycur, ypred)
			converged, nerr := o.newton(res, tn+h, cj, ycur, ypcur, phi)
			if nerr != nil {
				sol.Status = StatusNaN
				err = chk.Err("%v. last reached time = %g", nerr, tn)
				sol.Message = err.Error()
				return
			}
			if !converged {
				if o.Cf.DvgCtrl >= 0 && ndvg < o.Cf.NdvgMax {
					ndvg++
					h *= 0.5
					continue
				}
				sol.Status = StatusNewton
				err = chk.Err("Newton iterations did not converge after %d step halvings. last reached time = %g", ndvg, tn)
				sol.Message = err.Error()
				return
			}
			ndvg = 0

			// local error estimate on the differential slots
			est := o.errEst(ycur, ypred, yn, order)
			if est > 1 {
				h *= maxv(0.2, 0.9*math.Pow(est, -1.0/float64(order+1)))
				continue
			}

			// event detection within the accepted substep
			if o.Ev != nil && ng > 0 {
				err = o.Ev(gnew, tn+h, ycur, ypcur)
				if err != nil {
					sol.Status = StatusNaN
					sol.Message = err.Error()
					return
				}
				iev, theta := o.crossing(gprev, gnew)
				if iev >= 0 && o.Metas[iev].Terminal {
					tev := tn + theta*h
					yev := make([]float64, n)
					ypev := make([]float64, n)
					for i := 0; i < n; i++ {
						yev[i] = yn[i] + theta*(ycur[i]-yn[i])
						ypev[i] = ypn[i] + theta*(ypcur[i]-ypn[i])
					}
					sol.T = append(sol.T, tev)
					sol.Y = append(sol.Y, yev)
					sol.Yp = append(sol.Yp, ypev)
					sol.IEvents = append(sol.IEvents, iev)
					sol.TEvents = append(sol.TEvents, tev)
					sol.YEvents = append(sol.YEvents, cloneV(yev))
					sol.YpEvents = append(sol.YpEvents, cloneV(ypev))
					sol.Success = true
					sol.Status = StatusEvent
					sol.Message = io.Sf("integration stopped early: event %q triggered @ t = %g", o.Metas[iev].Name, tev)
					return sol, nil
				}
				copy(gprev, gnew)
			}

			// rotate history and accept
			copy(ynm, yn)
			copy(yn, ycur)
			copy(ypn, ypcur)
			hprev = h
			tn += h
			first = false

			// grow step
			fac := 5.0
			if est > 1e-10 {
				fac = minv(5.0, maxv(0.2, 0.9*math.Pow(est, -1.0/float64(order+1))))
			}
			h *= fac
			if o.Cf.DtMax > 0 {
				h = minv(h, o.Cf.DtMax)
			}
		}

		// landed on grid point: record sample
		tn = tnext
		sol.T = append(sol.T, tn)
		sol.Y = append(sol.Y, cloneV(yn))
		sol.Yp = append(sol.Yp, cloneV(ypn))
	}

	sol.Success = true
	sol.Status = StatusSuccess
	sol.Message = "integration completed the full time span"
	return sol, nil
}

// alloc prepares the workspace for an n-dimensional system
func (o *Solver) alloc(n int) (err error) {
	if n < 1 {
		return chk.Err("system size must be at least one. n=%d is invalid", n)
	}
	o.n = n
	o.isalg = make([]bool, n)
	for _, i := range o.Cf.AlgIdx {
		if i < 0 || i >= n {
			return chk.Err("algebraic index %d is out of range [0,%d)", i, n)
		}
		o.isalg[i] = true
	}
	o.ls, err = NewLinSol(o.Cf.LinSol)
	if err != nil {
		return
	}
	return o.ls.Init(n)
}

// consistent solves for a consistent initial condition: unknowns are yp for
// differential slots and y for algebraic slots
func (o *Solver) consistent(t float64, y, yp []float64) (err error) {
	n := o.n
	res := make([]float64, n)
	res2 := make([]float64, n)
	del := make([]float64, n)
	J := allocM(n)

	for it := 0; it < 2*o.Cf.NmaxIt; it++ {

		// residuals
		err = o.Fcn(res, t, y, yp)
		o.nfev++
		if err != nil {
			return
		}
		if hasNaN(res) {
			return chk.Err("NaN or Inf in residuals during initialisation")
		}

		// finite-difference Jacobian w.r.t the combined unknowns
		for j := 0; j < n; j++ {
			var sav, d float64
			if o.isalg[j] {
				sav = y[j]
				d = fdDelta(sav)
				y[j] = sav + d
			} else {
				sav = yp[j]
				d = fdDelta(sav)
				yp[j] = sav + d
			}
			err = o.Fcn(res2, t, y, yp)
			o.nfev++
			if err != nil {
				return
			}
			for i := 0; i < n; i++ {
				J[i][j] = (res2[i] - res[i]) / d
			}
			if o.isalg[j] {
				y[j] = sav
			} else {
				yp[j] = sav
			}
		}
		o.njev++

		// solve and update
		err = o.ls.Fact(J)
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			res[i] = -res[i]
		}
		err = o.ls.Solve(del, res)
		if err != nil {
			return
		}
		norm := 0.0
		for i := 0; i < n; i++ {
			var ref float64
			if o.isalg[i] {
				y[i] += del[i]
				ref = y[i]
			} else {
				yp[i] += del[i]
				ref = yp[i]
			}
			w := 1.0 / (o.Cf.Rtol*math.Abs(ref) + o.Cf.Atol)
			norm += del[i] * del[i] * w * w
		}
		norm = math.Sqrt(norm / float64(n))
		if hasNaN(y) || hasNaN(yp) {
			return chk.Err("NaN or Inf in state during initialisation")
		}
		if norm < 1e-2 {
			return nil
		}
	}
	return chk.Err("cannot compute consistent initial condition @ t = %g", t)
}

// newton performs modified-Newton iterations for one BDF substep. On entry
// ycur holds the predictor; on successful exit ycur/ypcur hold the corrector.
func (o *Solver) newton(res []float64, t, cj float64, ycur, ypcur, phi []float64) (converged bool, err error) {
	n := o.n
	res2 := make([]float64, n)
	del := make([]float64, n)
	J := allocM(n)

	// derivatives consistent with the predictor
	for i := 0; i < n; i++ {
		ypcur[i] = cj*ycur[i] - phi[i]
	}

	// Jacobian @ predictor: dres/dy + cj*dres/dyp, both picked up by
	// perturbing y with ypcur tied to y through the BDF formula
	err = o.Fcn(res, t, ycur, ypcur)
	o.nfev++
	if err != nil {
		return
	}
	if hasNaN(res) {
		return false, chk.Err("NaN or Inf in residuals")
	}
	for j := 0; j < n; j++ {
		sav := ycur[j]
		d := fdDelta(sav)
		ycur[j] = sav + d
		ypcur[j] = cj*ycur[j] - phi[j]
		err = o.Fcn(res2, t, ycur, ypcur)
		o.nfev++
		if err != nil {
			return
		}
		for i := 0; i < n; i++ {
			J[i][j] = (res2[i] - res[i]) / d
		}
		ycur[j] = sav
		ypcur[j] = cj*ycur[j] - phi[j]
	}
	o.njev++
	err = o.ls.Fact(J)
	if err != nil {
		return
	}

	// iterations with the frozen factorisation
	prevNorm := math.MaxFloat64
	for it := 0; it < o.Cf.NmaxIt; it++ {
		for i := 0; i < n; i++ {
			res[i] = -res[i]
		}
		err = o.ls.Solve(del, res)
		if err != nil {
			return
		}
		norm := 0.0
		for i := 0; i < n; i++ {
			ycur[i] += del[i]
			ypcur[i] = cj*ycur[i] - phi[i]
			w := 1.0 / (o.Cf.Rtol*math.Abs(ycur[i]) + o.Cf.Atol)
			norm += del[i] * del[i] * w * w
		}
		norm = math.Sqrt(norm / float64(n))
		if hasNaN(ycur) {
			return false, chk.Err("NaN or Inf in state")
		}
		if norm < 0.33 {
			return true, nil
		}
		if norm > 2*prevNorm {
			return false, nil // diverging
		}
		prevNorm = norm
		err = o.Fcn(res, t, ycur, ypcur)
		o.nfev++
		if err != nil {
			return
		}
		if hasNaN(res) {
			return false, chk.Err("NaN or Inf in residuals")
		}
	}
	return false, nil
}

// errEst returns the weighted local error estimate over the differential
// slots; values above one reject the substep
func (o *Solver) errEst(ycur, ypred, yn []float64, order int) float64 {
	sum := 0.0
	num := 0
	for i := 0; i < o.n; i++ {
		if o.isalg[i] {
			continue
		}
		w := 1.0 / (o.Cf.Rtol*math.Abs(yn[i]) + o.Cf.Atol)
		d := (ycur[i] - ypred[i]) * w
		sum += d * d
		num++
	}
	if num == 0 {
		return 0
	}
	return math.Sqrt(sum/float64(num)) / float64(order+1)
}

// crossing scans the event values for a zero crossing consistent with the
// direction hints. It returns the triggered event index (or -1) and the
// fractional position of the earliest crossing within the substep. With
// multiple simultaneous crossings the earliest interpolated one wins; exact
// ties go to the lowest index (implementation-defined).
func (o *Solver) crossing(gprev, gnew []float64) (iev int, theta float64) {
	iev = -1
	theta = 2.0
	for i := range gprev {
		up := gprev[i] < 0 && gnew[i] >= 0
		down := gprev[i] > 0 && gnew[i] <= 0
		if !up && !down {
			continue
		}
		switch o.Metas[i].Direction {
		case +1:
			if !up {
				continue
			}
		case -1:
			if !down {
				continue
			}
		}
		th := gprev[i] / (gprev[i] - gnew[i])
		if th < theta {
			theta = th
			iev = i
		}
	}
	return
}

// auxiliary //////////////////////////////////////////////////////////////////////////////////////

// sqrtEps is the square root of the double-precision machine epsilon
var sqrtEps = math.Sqrt(2.220446049250313e-16)

// fdDelta returns a finite-difference perturbation for value v
func fdDelta(v float64) float64 {
	d := sqrtEps * maxv(math.Abs(v), 1.0)
	if v < 0 {
		return -d
	}
	return d
}

// hasNaN tells whether v contains NaN or Inf entries
func hasNaN(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// cloneV returns a copy of v
func cloneV(v []float64) (res []float64) {
	res = make([]float64, len(v))
	copy(res, v)
	return
}

// allocM allocates an n x n matrix
func allocM(n int) (J [][]float64) {
	J = make([][]float64, n)
	for i := 0; i < n; i++ {
		J[i] = make([]float64, n)
	}
	return
}

// minv returns the smaller of two ordered values
func minv[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// maxv returns the larger of two ordered values
func maxv[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
